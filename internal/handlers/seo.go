package handlers

import (
	"fmt"
	"net/http"
	"os"
	"time"
	"yatube/internal/db"
	"yatube/internal/models"

	"github.com/gin-gonic/gin"
)

type SEOHandler struct{}

func NewSEOHandler() *SEOHandler {
	return &SEOHandler{}
}

// getSiteURL 从环境变量获取网站URL,如果未设置则使用默认值
func getSiteURL() string {
	siteURL := os.Getenv("SITE_URL")
	if siteURL == "" {
		siteURL = "http://localhost:8080"
	}
	return siteURL
}

// RobotsTxt 返回robots.txt内容
func (h *SEOHandler) RobotsTxt(c *gin.Context) {
	siteURL := getSiteURL()
	content := fmt.Sprintf(`User-agent: *
Allow: /

# 禁止爬取个人设置和表单页面
Disallow: /dashboard/
Disallow: /create
Disallow: /login
Disallow: /signup
Disallow: /follow

# Sitemap位置
Sitemap: %s/sitemap.xml
`, siteURL)

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.String(http.StatusOK, content)
}

// SitemapXML 动态生成sitemap.xml
func (h *SEOHandler) SitemapXML(c *gin.Context) {
	siteURL := getSiteURL()
	now := time.Now().Format("2006-01-02")

	xml := `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
`

	// 1. 首页 - 最高优先级,每天更新
	xml += fmt.Sprintf(`  <url>
    <loc>%s/</loc>
    <lastmod>%s</lastmod>
    <changefreq>daily</changefreq>
    <priority>1.0</priority>
  </url>
`, siteURL, now)

	// 2. 小组列表页
	xml += fmt.Sprintf(`  <url>
    <loc>%s/groups</loc>
    <lastmod>%s</lastmod>
    <changefreq>weekly</changefreq>
    <priority>0.8</priority>
  </url>
`, siteURL, now)

	// 3. 所有小组页面
	var groups []models.Group
	db.DB.Find(&groups)
	for _, group := range groups {
		xml += fmt.Sprintf(`  <url>
    <loc>%s/group/%s</loc>
    <lastmod>%s</lastmod>
    <changefreq>daily</changefreq>
    <priority>0.7</priority>
  </url>
`, siteURL, group.Slug, now)
	}

	// 4. 最近 500 篇帖子
	var posts []models.Post
	db.DB.Order("created_at DESC").Limit(500).Find(&posts)
	for _, post := range posts {
		xml += fmt.Sprintf(`  <url>
    <loc>%s/posts/%d</loc>
    <lastmod>%s</lastmod>
    <changefreq>weekly</changefreq>
    <priority>0.6</priority>
  </url>
`, siteURL, post.ID, post.UpdatedAt.Format("2006-01-02"))
	}

	// 5. 活跃作者主页
	var authors []models.User
	db.DB.Joins("JOIN posts ON posts.user_id = users.id").
		Group("users.id").
		Limit(200).
		Find(&authors)
	for _, author := range authors {
		xml += fmt.Sprintf(`  <url>
    <loc>%s/profile/%s</loc>
    <lastmod>%s</lastmod>
    <changefreq>weekly</changefreq>
    <priority>0.5</priority>
  </url>
`, siteURL, author.Username, now)
	}

	xml += `</urlset>`

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.String(http.StatusOK, xml)
}
