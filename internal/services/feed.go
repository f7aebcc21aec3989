package services

import (
	"errors"
	"yatube/internal/models"

	"gorm.io/gorm"
)

var (
	// ErrGroupNotFound slug 未对应任何小组
	ErrGroupNotFound = errors.New("group not found")
	// ErrUserNotFound 用户名未对应任何用户
	ErrUserNotFound = errors.New("user not found")
)

// 所有 feed 统一排序：最新在前，created_at 相同时 id 小者（先入库）在前，
// 保证重复查询结果稳定
const feedOrder = "created_at DESC, id ASC"

// FeedService 组装各类帖子流。只做读取，不持有请求之外的状态。
type FeedService struct {
	db *gorm.DB
}

func NewFeedService(db *gorm.DB) *FeedService {
	return &FeedService{db: db}
}

// HomeFeed 全站帖子流
func (s *FeedService) HomeFeed() ([]models.Post, error) {
	var posts []models.Post
	err := s.db.Preload("User").Preload("Group").
		Order(feedOrder).
		Find(&posts).Error
	return posts, err
}

// GroupFeed 指定小组的帖子流
func (s *FeedService) GroupFeed(slug string) (models.Group, []models.Post, error) {
	var group models.Group
	if err := s.db.Where("slug = ?", slug).First(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return group, nil, ErrGroupNotFound
		}
		return group, nil, err
	}

	var posts []models.Post
	err := s.db.Preload("User").Preload("Group").
		Where("group_id = ?", group.ID).
		Order(feedOrder).
		Find(&posts).Error
	return group, posts, err
}

// ProfileFeed 指定作者的帖子流
func (s *FeedService) ProfileFeed(username string) (models.User, []models.Post, error) {
	var author models.User
	if err := s.db.Where("username = ?", username).First(&author).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return author, nil, ErrUserNotFound
		}
		return author, nil, err
	}

	var posts []models.Post
	err := s.db.Preload("User").Preload("Group").
		Where("user_id = ?", author.ID).
		Order(feedOrder).
		Find(&posts).Error
	return author, posts, err
}

// FollowedFeed 关注流：viewer 关注的所有作者的帖子合并排序。
// 没有关注任何人时返回空列表，不是错误。
func (s *FeedService) FollowedFeed(viewerID uint) ([]models.Post, error) {
	authors := s.db.Model(&models.Follow{}).
		Select("author_id").
		Where("user_id = ?", viewerID)

	var posts []models.Post
	err := s.db.Preload("User").Preload("Group").
		Where("user_id IN (?)", authors).
		Order(feedOrder).
		Find(&posts).Error
	return posts, err
}
