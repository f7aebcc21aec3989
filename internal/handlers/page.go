package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PageHandler 静态页面
type PageHandler struct{}

func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

// AboutAuthor 关于作者
func (h *PageHandler) AboutAuthor(c *gin.Context) {
	Render(c, http.StatusOK, "about/author.html", gin.H{
		"Title": "关于作者",
	})
}

// AboutTech 技术栈说明
func (h *PageHandler) AboutTech(c *gin.Context) {
	Render(c, http.StatusOK, "about/tech.html", gin.H{
		"Title": "技术栈",
	})
}
