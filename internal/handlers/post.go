package handlers

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"
	"yatube/internal/db"
	"yatube/internal/models"
	"yatube/internal/services"
	"yatube/internal/utils"

	"github.com/gin-gonic/gin"
)

// PostsPerPage 每页帖子数
const PostsPerPage = 10

// HomeCacheTTL 首页整页缓存时长。20 秒内首页允许落后于数据库，
// 以换取读多场景下更低的数据库压力。
const HomeCacheTTL = 20 * time.Second

// homeCacheKey 首页缓存 key，按页码区分，不区分访问者
func homeCacheKey(page int) string {
	return fmt.Sprintf("post:index:page:%d", page)
}

type PostHandler struct {
	cache *utils.PageCache
	feeds *services.FeedService
}

func NewPostHandler(cache *utils.PageCache) *PostHandler {
	return &PostHandler{
		cache: cache,
		feeds: services.NewFeedService(db.DB),
	}
}

// fillCommentCounts 批量填充帖子的评论数量
func fillCommentCounts(posts []models.Post) {
	if len(posts) == 0 {
		return
	}

	// 收集所有帖子ID
	postIDs := make([]uint, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
	}

	// 批量查询评论数量
	type CountResult struct {
		PostID uint
		Count  int
	}
	var results []CountResult
	db.DB.Model(&models.Comment{}).
		Select("post_id, COUNT(*) as count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&results)

	countMap := make(map[uint]int)
	for _, r := range results {
		countMap[r.PostID] = r.Count
	}

	for i := range posts {
		posts[i].CommentCount = countMap[posts[i].ID]
	}
}

// pageParam 解析 ?page= 参数，缺失或非数字时为第 1 页
func pageParam(c *gin.Context) int {
	page := utils.StringToInt(c.Query("page"))
	if page < 1 {
		page = 1
	}
	return page
}

// Index 首页 - 全站帖子流，分页数据整页缓存 20 秒。
// 缓存里只放与访问者无关的分页数据，gin.H 每次请求新建：
// Render 会往 map 里写请求级字段，共享同一个 map 会并发读写冲突
func (h *PostHandler) Index(c *gin.Context) {
	page := pageParam(c)

	data, err := h.cache.GetOrCompute(homeCacheKey(page), HomeCacheTTL, func() (interface{}, error) {
		posts, err := h.feeds.HomeFeed()
		if err != nil {
			return nil, err
		}
		fillCommentCounts(posts)

		return utils.Paginate(posts, PostsPerPage, page), nil
	})
	if err != nil {
		RenderError(c, http.StatusInternalServerError, "加载首页失败")
		return
	}

	pageObj := data.(utils.Page[models.Post])

	Render(c, http.StatusOK, "post/index.html", gin.H{
		"Title":       "最新更新",
		"Active":      "home",
		"Posts":       pageObj.Items,
		"CurrentPage": pageObj.Number,
		"TotalPages":  pageObj.TotalPages,
		"HasPrev":     pageObj.HasPrev,
		"HasNext":     pageObj.HasNext,
	})
}

// ListByGroup 小组帖子流 /group/:slug，不走缓存
func (h *PostHandler) ListByGroup(c *gin.Context) {
	slug := c.Param("slug")

	group, posts, err := h.feeds.GroupFeed(slug)
	if err != nil {
		if errors.Is(err, services.ErrGroupNotFound) {
			RenderError(c, http.StatusNotFound, "小组不存在")
			return
		}
		RenderError(c, http.StatusInternalServerError, "加载小组失败")
		return
	}
	fillCommentCounts(posts)

	pageObj := utils.Paginate(posts, PostsPerPage, pageParam(c))

	Render(c, http.StatusOK, "post/group_list.html", gin.H{
		"Title":       group.Title,
		"Active":      "group",
		"Group":       group,
		"Posts":       pageObj.Items,
		"CurrentPage": pageObj.Number,
		"TotalPages":  pageObj.TotalPages,
		"HasPrev":     pageObj.HasPrev,
		"HasNext":     pageObj.HasNext,
	})
}

// Detail 帖子详情页，含评论列表和评论表单
func (h *PostHandler) Detail(c *gin.Context) {
	id := c.Param("id")

	var post models.Post
	if err := db.DB.Preload("User").Preload("Group").First(&post, id).Error; err != nil {
		RenderError(c, http.StatusNotFound, "帖子不存在")
		return
	}

	var comments []models.Comment
	db.DB.Preload("User").Where("post_id = ?", post.ID).Order("created_at ASC").Find(&comments)

	type RenderedComment struct {
		models.Comment
		TextHTML template.HTML
		Floor    int
	}

	renderedComments := make([]RenderedComment, len(comments))
	for i, com := range comments {
		renderedComments[i] = RenderedComment{
			Comment:  com,
			TextHTML: utils.RenderMarkdown(com.Text),
			Floor:    i + 1,
		}
	}

	Render(c, http.StatusOK, "post/detail.html", gin.H{
		"Title":    fmt.Sprintf("%s 的帖子", post.User.Username),
		"Post":     post,
		"PostText": utils.RenderMarkdown(post.Text),
		"Comments": renderedComments,
	})
}

// ShowCreate 发帖表单
func (h *PostHandler) ShowCreate(c *gin.Context) {
	var groups []models.Group
	db.DB.Order("id ASC").Find(&groups)

	Render(c, http.StatusOK, "post/create.html", gin.H{
		"Title":  "发布",
		"Groups": groups,
	})
}

// parseGroupID 解析表单里的小组选择，空值表示不属于任何小组
func parseGroupID(c *gin.Context) *uint {
	groupIDStr := c.PostForm("group_id")
	if groupIDStr == "" {
		return nil
	}
	id, err := strconv.Atoi(groupIDStr)
	if err != nil || id <= 0 {
		return nil
	}
	gid := uint(id)
	return &gid
}

// uploadImage 可替换的上传实现，测试时替换掉真实的 Imgur 调用
var uploadImage = services.UploadImage

// uploadedImageURL 处理表单里的可选配图。表单没带图不算错误，
// 返回空串；带了图但上传失败时返回错误，由调用方提示用户
func uploadedImageURL(c *gin.Context) (string, error) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		return "", nil
	}
	defer file.Close()

	return uploadImage(file, header)
}

// Create 发布新帖，成功后跳转到作者主页
func (h *PostHandler) Create(c *gin.Context) {
	user := currentUser(c)

	text := c.PostForm("text")
	if text == "" {
		var groups []models.Group
		db.DB.Order("id ASC").Find(&groups)
		Render(c, http.StatusBadRequest, "post/create.html", gin.H{
			"Error":  "内容不能为空",
			"Groups": groups,
		})
		return
	}

	imageURL, err := uploadedImageURL(c)
	if err != nil {
		var groups []models.Group
		db.DB.Order("id ASC").Find(&groups)
		Render(c, http.StatusBadRequest, "post/create.html", gin.H{
			"Error":  "图片上传失败，请稍后重试",
			"Text":   text,
			"Groups": groups,
		})
		return
	}

	post := models.Post{
		UserID:   user.ID,
		GroupID:  parseGroupID(c),
		Text:     text,
		ImageURL: imageURL,
	}

	if err := db.DB.Create(&post).Error; err != nil {
		var groups []models.Group
		db.DB.Order("id ASC").Find(&groups)
		Render(c, http.StatusInternalServerError, "post/create.html", gin.H{
			"Error":  "发布失败",
			"Groups": groups,
		})
		return
	}

	c.Redirect(http.StatusFound, "/profile/"+user.Username)
}

// ShowEdit 编辑表单，仅作者可见，其他人跳回详情页
func (h *PostHandler) ShowEdit(c *gin.Context) {
	user := currentUser(c)
	id := c.Param("id")

	var post models.Post
	if err := db.DB.First(&post, id).Error; err != nil {
		RenderError(c, http.StatusNotFound, "帖子不存在")
		return
	}

	if post.UserID != user.ID {
		c.Redirect(http.StatusFound, fmt.Sprintf("/posts/%d", post.ID))
		return
	}

	var groups []models.Group
	db.DB.Order("id ASC").Find(&groups)

	Render(c, http.StatusOK, "post/create.html", gin.H{
		"Title":  "编辑帖子",
		"IsEdit": true,
		"Post":   post,
		"Groups": groups,
	})
}

// Update 保存编辑，仅作者可操作
func (h *PostHandler) Update(c *gin.Context) {
	user := currentUser(c)
	id := c.Param("id")

	var post models.Post
	if err := db.DB.First(&post, id).Error; err != nil {
		RenderError(c, http.StatusNotFound, "帖子不存在")
		return
	}

	if post.UserID != user.ID {
		c.Redirect(http.StatusFound, fmt.Sprintf("/posts/%d", post.ID))
		return
	}

	text := c.PostForm("text")
	if text == "" {
		var groups []models.Group
		db.DB.Order("id ASC").Find(&groups)
		Render(c, http.StatusBadRequest, "post/create.html", gin.H{
			"Error":  "内容不能为空",
			"IsEdit": true,
			"Post":   post,
			"Groups": groups,
		})
		return
	}

	imageURL, err := uploadedImageURL(c)
	if err != nil {
		var groups []models.Group
		db.DB.Order("id ASC").Find(&groups)
		Render(c, http.StatusBadRequest, "post/create.html", gin.H{
			"Error":  "图片上传失败，请稍后重试",
			"IsEdit": true,
			"Post":   post,
			"Groups": groups,
		})
		return
	}

	post.Text = text
	post.GroupID = parseGroupID(c)
	if imageURL != "" {
		post.ImageURL = imageURL
	}

	if err := db.DB.Save(&post).Error; err != nil {
		RenderError(c, http.StatusInternalServerError, "保存失败")
		return
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("/posts/%d", post.ID))
}

// Delete 删除帖子，仅作者可操作。删除后主动失效首页第一页缓存，
// 其余页等 TTL 自然过期。
func (h *PostHandler) Delete(c *gin.Context) {
	user := currentUser(c)
	id := c.Param("id")

	var post models.Post
	if err := db.DB.First(&post, id).Error; err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	if post.UserID != user.ID {
		c.Status(http.StatusForbidden)
		return
	}

	// Hard Delete
	db.DB.Unscoped().Delete(&post)

	h.cache.Delete(homeCacheKey(1))

	c.Redirect(http.StatusFound, "/profile/"+user.Username)
}

// CreateComment 发表评论，发布后不可修改
func (h *PostHandler) CreateComment(c *gin.Context) {
	user := currentUser(c)
	id := c.Param("id")

	var post models.Post
	if err := db.DB.First(&post, id).Error; err != nil {
		RenderError(c, http.StatusNotFound, "帖子不存在")
		return
	}

	text := c.PostForm("text")
	if text != "" {
		comment := models.Comment{
			PostID: post.ID,
			UserID: user.ID,
			Text:   text,
		}
		db.DB.Create(&comment)
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("/posts/%d", post.ID))
}
