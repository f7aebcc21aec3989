package handlers

import (
	"errors"
	"net/http"
	"yatube/internal/db"
	"yatube/internal/models"
	"yatube/internal/services"
	"yatube/internal/utils"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	follows *services.FollowService
	feeds   *services.FeedService
}

func NewUserHandler() *UserHandler {
	return &UserHandler{
		follows: services.NewFollowService(db.DB),
		feeds:   services.NewFeedService(db.DB),
	}
}

// Profile - 作者主页 /profile/:username，作者的帖子流（分页，不走缓存）
func (h *UserHandler) Profile(c *gin.Context) {
	username := c.Param("username")

	author, posts, err := h.feeds.ProfileFeed(username)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			RenderError(c, http.StatusNotFound, "用户不存在")
			return
		}
		RenderError(c, http.StatusInternalServerError, "加载用户主页失败")
		return
	}
	fillCommentCounts(posts)

	pageObj := utils.Paginate(posts, PostsPerPage, pageParam(c))

	// 当前访问者是否已关注该作者（自己看自己恒为 false）
	following := false
	viewer := currentUser(c)
	if viewer != nil && viewer.ID != author.ID {
		following = h.follows.IsFollowing(viewer.ID, author.ID)
	}

	Render(c, http.StatusOK, "user/profile.html", gin.H{
		"Title":       author.Username + " 的主页",
		"Author":      author,
		"Following":   following,
		"DaysSince":   utils.GetDaysSinceJoined(author.CreatedAt),
		"PostTotal":   pageObj.Total,
		"Posts":       pageObj.Items,
		"CurrentPage": pageObj.Number,
		"TotalPages":  pageObj.TotalPages,
		"HasPrev":     pageObj.HasPrev,
		"HasNext":     pageObj.HasNext,
	})
}

// ShowSettings - 显示设置页面
func (h *UserHandler) ShowSettings(c *gin.Context) {
	user := currentUser(c)

	Render(c, http.StatusOK, "user/settings.html", gin.H{
		"Title":        "设置",
		"User":         user,
		"CommonEmojis": utils.GetCommonEmojis(),
	})
}

// UpdateSettings - 更新头像、简介和密码
func (h *UserHandler) UpdateSettings(c *gin.Context) {
	user := currentUser(c)

	avatar := c.PostForm("avatar")
	bio := c.PostForm("bio")
	oldPassword := c.PostForm("old_password")
	newPassword := c.PostForm("new_password")

	updates := make(map[string]interface{})

	if avatar != "" {
		updates["avatar"] = avatar
	}

	if bio != user.Bio {
		updates["bio"] = bio
	}

	// 如果要修改密码
	if oldPassword != "" && newPassword != "" {
		if !utils.CheckPasswordHash(oldPassword, user.Password) {
			Render(c, http.StatusBadRequest, "user/settings.html", gin.H{
				"Error":        "原密码错误",
				"User":         user,
				"CommonEmojis": utils.GetCommonEmojis(),
			})
			return
		}

		if len(newPassword) < 6 {
			Render(c, http.StatusBadRequest, "user/settings.html", gin.H{
				"Error":        "新密码至少6位",
				"User":         user,
				"CommonEmojis": utils.GetCommonEmojis(),
			})
			return
		}

		hash, err := utils.HashPassword(newPassword)
		if err != nil {
			Render(c, http.StatusInternalServerError, "user/settings.html", gin.H{
				"Error":        "系统错误",
				"User":         user,
				"CommonEmojis": utils.GetCommonEmojis(),
			})
			return
		}
		updates["password"] = hash
	}

	if len(updates) > 0 {
		if err := db.DB.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
			Render(c, http.StatusInternalServerError, "user/settings.html", gin.H{
				"Error":        "更新失败",
				"User":         user,
				"CommonEmojis": utils.GetCommonEmojis(),
			})
			return
		}
	}

	c.Redirect(http.StatusFound, "/dashboard/settings")
}
