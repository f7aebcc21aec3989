package main

import (
	"fmt"
	"html/template"
	"log"
	"os"
	"path/filepath"
	"time"
	"yatube/internal/db"
	"yatube/internal/handlers"
	"yatube/internal/middleware"
	"yatube/internal/utils"

	"github.com/gin-contrib/multitemplate"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, finding env vars from system")
	}

	// Initialize Database
	db.Init()

	// Initialize Gin
	r := gin.Default()

	// Setup Sessions
	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		secret = "secret_key_change_me"
	}
	store := cookie.NewStore([]byte(secret))
	r.Use(sessions.Sessions("yatube_session", store))

	// Load Templates using Multitemplate to avoid collision and allow handler names
	r.HTMLRender = loadTemplates("./web/templates")

	// Static Assets
	r.Static("/static", "./web/static")

	// Middleware
	r.Use(middleware.LoadUser())

	// 首页整页缓存，显式构造后注入 handler
	pageCache := utils.NewPageCache(500)

	// Handlers
	authHandler := handlers.NewAuthHandler()
	postHandler := handlers.NewPostHandler(pageCache)
	followHandler := handlers.NewFollowHandler()
	userHandler := handlers.NewUserHandler()
	groupHandler := handlers.NewGroupHandler()
	pageHandler := handlers.NewPageHandler()
	seoHandler := handlers.NewSEOHandler()

	// Public Routes
	r.GET("/", postHandler.Index)
	r.GET("/group/:slug", postHandler.ListByGroup)
	r.GET("/groups", groupHandler.ListGroups)
	r.GET("/posts/:id", postHandler.Detail)
	r.GET("/profile/:username", userHandler.Profile)
	r.GET("/about/author", pageHandler.AboutAuthor)
	r.GET("/about/tech", pageHandler.AboutTech)
	r.GET("/robots.txt", seoHandler.RobotsTxt)
	r.GET("/sitemap.xml", seoHandler.SitemapXML)

	r.GET("/signup", authHandler.ShowRegister)
	r.POST("/signup", authHandler.Register)
	r.GET("/login", authHandler.ShowLogin)
	r.POST("/login", authHandler.Login)
	r.GET("/logout", authHandler.Logout)

	// Protected Routes
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/follow", followHandler.Index)
		authorized.POST("/profile/:username/follow", followHandler.Follow)
		authorized.POST("/profile/:username/unfollow", followHandler.Unfollow)

		authorized.GET("/create", postHandler.ShowCreate)
		authorized.POST("/create", postHandler.Create)
		authorized.GET("/posts/:id/edit", postHandler.ShowEdit)
		authorized.POST("/posts/:id/edit", postHandler.Update)
		authorized.DELETE("/posts/:id", postHandler.Delete)
		authorized.POST("/posts/:id/comment", postHandler.CreateComment)
	}

	// Dashboard Routes
	dashboard := r.Group("/dashboard")
	dashboard.Use(middleware.AuthRequired())
	{
		dashboard.GET("/settings", userHandler.ShowSettings)
		dashboard.POST("/settings", userHandler.UpdateSettings)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Yatube server starting on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}

func loadTemplates(templatesDir string) multitemplate.Renderer {
	r := multitemplate.NewRenderer()

	layouts, err := filepath.Glob(templatesDir + "/layouts/*.html")
	if err != nil {
		panic(err)
	}

	components, err := filepath.Glob(templatesDir + "/components/*.html")
	if err != nil {
		panic(err)
	}

	// Helper to assemble files
	assemble := func(view string) []string {
		files := make([]string, 0)
		files = append(files, layouts...)
		files = append(files, components...)
		files = append(files, view)
		return files
	}

	// FuncMap
	funcMap := template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		// 导航高亮，Active 未传时不报错
		"isActive": func(v interface{}, name string) bool {
			s, ok := v.(string)
			return ok && s == name
		},
		"timeAgo": func(t interface{}) string {
			var timeVal time.Time
			switch v := t.(type) {
			case time.Time:
				timeVal = v
			default:
				return ""
			}

			duration := time.Since(timeVal)
			seconds := int(duration.Seconds())

			if seconds < 60 {
				return fmt.Sprintf("%d秒前", seconds)
			} else if seconds < 3600 {
				return fmt.Sprintf("%d分钟前", seconds/60)
			} else if seconds < 86400 {
				return fmt.Sprintf("%d小时前", seconds/3600)
			} else if seconds < 2592000 {
				return fmt.Sprintf("%d天前", seconds/86400)
			} else if seconds < 31536000 {
				return fmt.Sprintf("%d个月前", seconds/2592000)
			}
			return fmt.Sprintf("%d年前", seconds/31536000)
		},
		"truncate": func(s string, n int) string {
			runes := []rune(s)
			if len(runes) <= n {
				return s
			}
			return string(runes[:n]) + "..."
		},
	}

	// Manual registration to ensure keys match handler expectation
	// Auth
	r.AddFromFilesFuncs("auth/login.html", funcMap, assemble(templatesDir+"/views/auth/login.html")...)
	r.AddFromFilesFuncs("auth/register.html", funcMap, assemble(templatesDir+"/views/auth/register.html")...)

	// Post
	r.AddFromFilesFuncs("post/index.html", funcMap, assemble(templatesDir+"/views/post/index.html")...)
	r.AddFromFilesFuncs("post/group_list.html", funcMap, assemble(templatesDir+"/views/post/group_list.html")...)
	r.AddFromFilesFuncs("post/follow.html", funcMap, assemble(templatesDir+"/views/post/follow.html")...)
	r.AddFromFilesFuncs("post/detail.html", funcMap, assemble(templatesDir+"/views/post/detail.html")...)
	r.AddFromFilesFuncs("post/create.html", funcMap, assemble(templatesDir+"/views/post/create.html")...)

	// User
	r.AddFromFilesFuncs("user/profile.html", funcMap, assemble(templatesDir+"/views/user/profile.html")...)
	r.AddFromFilesFuncs("user/settings.html", funcMap, assemble(templatesDir+"/views/user/settings.html")...)

	// Group
	r.AddFromFilesFuncs("group/list.html", funcMap, assemble(templatesDir+"/views/group/list.html")...)

	// About
	r.AddFromFilesFuncs("about/author.html", funcMap, assemble(templatesDir+"/views/about/author.html")...)
	r.AddFromFilesFuncs("about/tech.html", funcMap, assemble(templatesDir+"/views/about/tech.html")...)

	// Error
	r.AddFromFilesFuncs("error.html", funcMap, assemble(templatesDir+"/views/error.html")...)

	return r
}
