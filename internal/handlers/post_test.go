package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"yatube/internal/db"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestEnv 初始化内存测试库和路由，模板换成最小替身，
// 只输出断言需要的字段
func setupTestEnv(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	err = gdb.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.Post{},
		&models.Comment{},
		&models.Follow{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	db.DB = gdb

	r := gin.New()
	r.SetHTMLTemplate(template.Must(template.New("").Parse(`
{{define "post/index.html"}}viewer:{{with .CurrentUser}}{{.Username}}{{else}}anonymous{{end}};posts:{{len .Posts}}{{end}}
{{define "post/create.html"}}form-error:{{.Error}}{{end}}
{{define "error.html"}}error:{{.Error}}{{end}}`)))
	return r
}

func seedUser(t *testing.T, username string) models.User {
	t.Helper()
	user := models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hashed",
	}
	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create user %s: %v", username, err)
	}
	return user
}

func seedPost(t *testing.T, userID uint, text string) models.Post {
	t.Helper()
	post := models.Post{UserID: userID, Text: text}
	if err := db.DB.Create(&post).Error; err != nil {
		t.Fatalf("Failed to create post: %v", err)
	}
	return post
}

func get(t *testing.T, r *gin.Engine, path string) string {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", path, nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET %s status = %d, want %d", path, w.Code, http.StatusOK)
	}
	return w.Body.String()
}

// 首页缓存只存分页数据，不同访问者命中同一份缓存时
// 各自看到自己的登录状态
func TestIndexCachedPageKeepsViewerSeparate(t *testing.T) {
	r := setupTestEnv(t)
	alice := seedUser(t, "alice")
	seedPost(t, alice.ID, "第一篇")

	h := NewPostHandler(utils.NewPageCache(10))
	r.GET("/", func(c *gin.Context) {
		if c.Query("as") != "" {
			c.Set(middleware.CheckUserKey, &alice)
		}
		h.Index(c)
	})

	// 登录请求预热缓存
	body := get(t, r, "/?as=alice")
	if !strings.Contains(body, "viewer:alice") {
		t.Fatalf("Logged-in body = %q, want viewer:alice", body)
	}
	if !strings.Contains(body, "posts:1") {
		t.Fatalf("Logged-in body = %q, want posts:1", body)
	}

	// 匿名请求命中同一份缓存，不能看到上一个用户的身份
	body = get(t, r, "/")
	if !strings.Contains(body, "viewer:anonymous") {
		t.Errorf("Anonymous body = %q, want viewer:anonymous", body)
	}
	if !strings.Contains(body, "posts:1") {
		t.Errorf("Anonymous body = %q, want posts:1", body)
	}

	// 再登录访问，身份仍然是自己
	body = get(t, r, "/?as=alice")
	if !strings.Contains(body, "viewer:alice") {
		t.Errorf("Second logged-in body = %q, want viewer:alice", body)
	}
}

// 并发访问命中缓存的首页，彼此身份互不串扰。
// -race 模式下同时守住共享 map 的并发写
func TestIndexConcurrentViewersNoInterference(t *testing.T) {
	r := setupTestEnv(t)
	alice := seedUser(t, "alice")
	for i := 0; i < 3; i++ {
		seedPost(t, alice.ID, fmt.Sprintf("帖子 %d", i))
	}

	h := NewPostHandler(utils.NewPageCache(10))
	r.GET("/", func(c *gin.Context) {
		if c.Query("as") != "" {
			c.Set(middleware.CheckUserKey, &alice)
		}
		h.Index(c)
	})

	// 预热，后面的并发请求全部走缓存
	get(t, r, "/")

	var wg sync.WaitGroup
	failures := make(chan string, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			path, want := "/", "viewer:anonymous"
			if i%2 == 0 {
				path, want = "/?as=alice", "viewer:alice"
			}
			w := httptest.NewRecorder()
			req := httptest.NewRequest("GET", path, nil)
			r.ServeHTTP(w, req)
			if !strings.Contains(w.Body.String(), want) {
				failures <- fmt.Sprintf("request %d: body = %q, want %q", i, w.Body.String(), want)
			}
		}(i)
	}
	wg.Wait()
	close(failures)
	for msg := range failures {
		t.Error(msg)
	}
}

// 图片上传失败时发布中断，表单带错误信息重新渲染，帖子不落库
func TestCreateUploadFailureShowsError(t *testing.T) {
	r := setupTestEnv(t)
	alice := seedUser(t, "alice")

	old := uploadImage
	uploadImage = func(file multipart.File, header *multipart.FileHeader) (string, error) {
		return "", errors.New("service unavailable")
	}
	defer func() { uploadImage = old }()

	h := NewPostHandler(utils.NewPageCache(10))
	r.POST("/create", func(c *gin.Context) {
		c.Set(middleware.CheckUserKey, &alice)
		h.Create(c)
	})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("text", "带图的帖子")
	fw, err := mw.CreateFormFile("image", "pic.png")
	if err != nil {
		t.Fatalf("Failed to build form file: %v", err)
	}
	fw.Write([]byte("fake image bytes"))
	mw.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/create", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if !strings.Contains(w.Body.String(), "图片上传失败") {
		t.Errorf("Body = %q, want upload error message", w.Body.String())
	}

	var count int64
	db.DB.Model(&models.Post{}).Count(&count)
	if count != 0 {
		t.Errorf("Post count = %d, 上传失败时不应发布帖子", count)
	}
}

// 上传成功时帖子带上外链 URL
func TestCreateWithImageStoresLink(t *testing.T) {
	r := setupTestEnv(t)
	alice := seedUser(t, "alice")

	old := uploadImage
	uploadImage = func(file multipart.File, header *multipart.FileHeader) (string, error) {
		return "https://i.example.com/a.png", nil
	}
	defer func() { uploadImage = old }()

	h := NewPostHandler(utils.NewPageCache(10))
	r.POST("/create", func(c *gin.Context) {
		c.Set(middleware.CheckUserKey, &alice)
		h.Create(c)
	})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("text", "带图的帖子")
	fw, _ := mw.CreateFormFile("image", "pic.png")
	fw.Write([]byte("fake image bytes"))
	mw.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/create", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusFound)
	}

	var post models.Post
	if err := db.DB.First(&post).Error; err != nil {
		t.Fatalf("Post not created: %v", err)
	}
	if post.ImageURL != "https://i.example.com/a.png" {
		t.Errorf("ImageURL = %q, want uploaded link", post.ImageURL)
	}
}

// 表单没带图片不算上传失败，帖子正常发布且不触发上传
func TestCreateWithoutImagePublishes(t *testing.T) {
	r := setupTestEnv(t)
	alice := seedUser(t, "alice")

	old := uploadImage
	uploadImage = func(file multipart.File, header *multipart.FileHeader) (string, error) {
		t.Error("Upload should not be called without an image field")
		return "", nil
	}
	defer func() { uploadImage = old }()

	h := NewPostHandler(utils.NewPageCache(10))
	r.POST("/create", func(c *gin.Context) {
		c.Set(middleware.CheckUserKey, &alice)
		h.Create(c)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/create", strings.NewReader("text=纯文字帖子"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusFound)
	}

	var post models.Post
	if err := db.DB.First(&post).Error; err != nil {
		t.Fatalf("Post not created: %v", err)
	}
	if post.ImageURL != "" {
		t.Errorf("ImageURL = %q, want empty", post.ImageURL)
	}
}
