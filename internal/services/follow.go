package services

import (
	"errors"
	"yatube/internal/models"

	"gorm.io/gorm"
)

var (
	// ErrSelfFollow 不能关注自己
	ErrSelfFollow = errors.New("cannot follow yourself")
	// ErrAlreadyFollowing 关注关系已存在。handler 层按"静默成功"处理，
	// 与取消关注一样对外表现为幂等操作
	ErrAlreadyFollowing = errors.New("already following this author")
)

// FollowService 维护用户之间的关注边
type FollowService struct {
	db *gorm.DB
}

func NewFollowService(db *gorm.DB) *FollowService {
	return &FollowService{db: db}
}

// IsFollowing 检查 follower 是否已关注 author，无副作用
func (s *FollowService) IsFollowing(followerID, authorID uint) bool {
	var count int64
	s.db.Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", followerID, authorID).
		Count(&count)
	return count > 0
}

// Follow 创建关注边。先做存在性检查省一次无谓写入，
// 并发下真正的保障是 (user_id, author_id) 唯一索引，
// 撞索引同样返回 ErrAlreadyFollowing。
func (s *FollowService) Follow(followerID, authorID uint) error {
	if followerID == authorID {
		return ErrSelfFollow
	}

	if s.IsFollowing(followerID, authorID) {
		return ErrAlreadyFollowing
	}

	follow := models.Follow{
		UserID:   followerID,
		AuthorID: authorID,
	}
	if err := s.db.Create(&follow).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyFollowing
		}
		return err
	}
	return nil
}

// Unfollow 删除关注边。边不存在时也算成功（幂等删除）。
func (s *FollowService) Unfollow(followerID, authorID uint) error {
	return s.db.
		Where("user_id = ? AND author_id = ?", followerID, authorID).
		Delete(&models.Follow{}).Error
}
