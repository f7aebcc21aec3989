package handlers

import (
	"yatube/internal/middleware"
	"yatube/internal/models"

	"github.com/gin-gonic/gin"
)

// Render helper to inject common variables like 'current user'
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}

	// Inject Current User。Render 会往 obj 写请求级字段，
	// obj 必须是本次请求新建的 map，不能把它放进共享缓存。
	// 未登录时显式置 nil，不依赖 map 的零值
	if user, exists := c.Get(middleware.CheckUserKey); exists {
		obj["CurrentUser"] = user
	} else {
		obj["CurrentUser"] = nil
	}

	obj["CurrentPath"] = c.Request.URL.Path

	c.HTML(code, name, obj)
}

// Error helper
func RenderError(c *gin.Context, code int, message string) {
	Render(c, code, "error.html", gin.H{"Error": message})
}

// currentUser 从 context 取当前登录用户，未登录返回 nil
func currentUser(c *gin.Context) *models.User {
	if user, exists := c.Get(middleware.CheckUserKey); exists {
		if u, ok := user.(*models.User); ok {
			return u
		}
	}
	return nil
}
