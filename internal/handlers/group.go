package handlers

import (
	"net/http"
	"yatube/internal/db"
	"yatube/internal/models"

	"github.com/gin-gonic/gin"
)

type GroupHandler struct{}

func NewGroupHandler() *GroupHandler {
	return &GroupHandler{}
}

// ListGroups 展示所有小组列表
func (h *GroupHandler) ListGroups(c *gin.Context) {
	var groups []models.Group
	db.DB.Order("id ASC").Find(&groups)

	Render(c, http.StatusOK, "group/list.html", gin.H{
		"Groups": groups,
		"Title":  "小组",
		"Active": "groups",
	})
}
