package repo

import (
	"studio"
	"studio/internal/api/models"

	"gorm.io/gorm"
)

type ChatRepository struct {
	Db *gorm.DB
}

func NewChatRepository() *ChatRepository {
	return &ChatRepository{Db: studio.DB}
}

func (r *ChatRepository) FindSessionByID(id uint) (models.ChatSession, error) {
	var session models.ChatSession
	err := r.Db.Preload("Messages", func(db *gorm.DB) *gorm.DB {
		return db.Order("chat_message.created_at ASC")
	}).First(&session, id).Error
	return session, err
}

func (r *ChatRepository) FindSessionsByUser(userID uint) ([]models.ChatSession, error) {
	var sessions []models.ChatSession
	err := r.Db.
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&sessions).Error
	return sessions, err
}

func (r *ChatRepository) CreateSession(session *models.ChatSession) error {
	return r.Db.Create(session).Error
}

func (r *ChatRepository) TouchSession(id uint) error {
	return r.Db.Model(&models.ChatSession{}).Where("id = ?", id).Update("updated_at", gorm.Expr("NOW()")).Error
}

func (r *ChatRepository) DeleteSession(id uint) error {
	if err := r.Db.Where("session_id = ?", id).Delete(&models.ChatMessage{}).Error; err != nil {
		return err
	}
	return r.Db.Delete(&models.ChatSession{}, id).Error
}

func (r *ChatRepository) AppendMessage(message *models.ChatMessage) error {
	return r.Db.Create(message).Error
}

// RecentMessages returns the latest n turns of a session, oldest first, for
// prompt assembly.
func (r *ChatRepository) RecentMessages(sessionID uint, n int) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := r.Db.
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Limit(n).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
