package services

import (
	"testing"
	"yatube/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB 创建内存 SQLite 测试库
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.Post{},
		&models.Comment{},
		&models.Follow{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hash",
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create user %s: %v", username, err)
	}
	return user
}

func createGroup(t *testing.T, db *gorm.DB, slug string) models.Group {
	t.Helper()
	group := models.Group{
		Title: slug,
		Slug:  slug,
	}
	if err := db.Create(&group).Error; err != nil {
		t.Fatalf("Failed to create group %s: %v", slug, err)
	}
	return group
}

func createPost(t *testing.T, db *gorm.DB, author models.User, text string, groupID *uint) models.Post {
	t.Helper()
	post := models.Post{
		UserID:  author.ID,
		GroupID: groupID,
		Text:    text,
	}
	if err := db.Create(&post).Error; err != nil {
		t.Fatalf("Failed to create post: %v", err)
	}
	return post
}

func followCount(t *testing.T, db *gorm.DB, followerID, authorID uint) int64 {
	t.Helper()
	var count int64
	db.Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", followerID, authorID).
		Count(&count)
	return count
}

func postTexts(posts []models.Post) []string {
	texts := make([]string, len(posts))
	for i, p := range posts {
		texts[i] = p.Text
	}
	return texts
}

func assertTexts(t *testing.T, got []models.Post, want ...string) {
	t.Helper()
	texts := postTexts(got)
	if len(texts) != len(want) {
		t.Fatalf("got %d posts %v, want %d %v", len(texts), texts, len(want), want)
	}
	for i := range want {
		if texts[i] != want[i] {
			t.Errorf("posts[%d] = %s, want %s (full order: %v)", i, texts[i], want[i], texts)
		}
	}
}
