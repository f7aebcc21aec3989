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

// findAuthor 按用户名查作者
func findAuthor(username string) (models.User, error) {
	var author models.User
	err := db.DB.Where("username = ?", username).First(&author).Error
	return author, err
}

type FollowHandler struct {
	follows *services.FollowService
	feeds   *services.FeedService
}

func NewFollowHandler() *FollowHandler {
	return &FollowHandler{
		follows: services.NewFollowService(db.DB),
		feeds:   services.NewFeedService(db.DB),
	}
}

// Index 关注流 /follow - 已关注作者的帖子，不走缓存，
// 数据库变更立即可见
func (h *FollowHandler) Index(c *gin.Context) {
	user := currentUser(c)

	posts, err := h.feeds.FollowedFeed(user.ID)
	if err != nil {
		RenderError(c, http.StatusInternalServerError, "加载关注流失败")
		return
	}
	fillCommentCounts(posts)

	pageObj := utils.Paginate(posts, PostsPerPage, pageParam(c))

	Render(c, http.StatusOK, "post/follow.html", gin.H{
		"Title":       "我的关注",
		"Active":      "follow",
		"Posts":       pageObj.Items,
		"CurrentPage": pageObj.Number,
		"TotalPages":  pageObj.TotalPages,
		"HasPrev":     pageObj.HasPrev,
		"HasNext":     pageObj.HasNext,
	})
}

// Follow 关注作者 POST /profile/:username/follow。
// 关注自己或重复关注静默忽略，始终跳回作者主页（原有对外行为）。
func (h *FollowHandler) Follow(c *gin.Context) {
	user := currentUser(c)

	author, err := findAuthor(c.Param("username"))
	if err != nil {
		RenderError(c, http.StatusNotFound, "用户不存在")
		return
	}

	if err := h.follows.Follow(user.ID, author.ID); err != nil {
		if !errors.Is(err, services.ErrSelfFollow) && !errors.Is(err, services.ErrAlreadyFollowing) {
			RenderError(c, http.StatusInternalServerError, "关注失败")
			return
		}
	}

	c.Redirect(http.StatusFound, "/profile/"+author.Username)
}

// Unfollow 取消关注 POST /profile/:username/unfollow，幂等
func (h *FollowHandler) Unfollow(c *gin.Context) {
	user := currentUser(c)

	author, err := findAuthor(c.Param("username"))
	if err != nil {
		RenderError(c, http.StatusNotFound, "用户不存在")
		return
	}

	if err := h.follows.Unfollow(user.ID, author.ID); err != nil {
		RenderError(c, http.StatusInternalServerError, "取消关注失败")
		return
	}

	c.Redirect(http.StatusFound, "/profile/"+author.Username)
}
