package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/camden-git/eventmealsbackend/apperrors"
	"github.com/camden-git/eventmealsbackend/models"
)

// ConversationRepository stores assistant conversations and their messages
type ConversationRepository struct {
	DB *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{DB: db}
}

func (r *ConversationRepository) Create(ctx context.Context, conversation *models.Conversation) error {
	if conversation.Title == "" {
		conversation.Title = models.DefaultConversationTitle
	}
	if err := r.DB.WithContext(ctx).Create(conversation).Error; err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	return nil
}

// GetByID retrieves a conversation without its messages
func (r *ConversationRepository) GetByID(ctx context.Context, id uint) (*models.Conversation, error) {
	var conversation models.Conversation
	err := r.DB.WithContext(ctx).First(&conversation, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("conversation", strconv.FormatUint(uint64(id), 10))
		}
		return nil, fmt.Errorf("failed to get conversation by ID %d: %w", id, err)
	}
	return &conversation, nil
}

func (r *ConversationRepository) ListForAdmin(ctx context.Context, adminID uint, limit int) ([]models.Conversation, error) {
	var conversations []models.Conversation
	err := r.DB.WithContext(ctx).Where("admin_id = ?", adminID).
		Order("updated_at DESC, id DESC").Limit(limit).
		Find(&conversations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations for admin ID %d: %w", adminID, err)
	}
	return conversations, nil
}

func (r *ConversationRepository) ListForSession(ctx context.Context, sessionKey string, limit int) ([]models.Conversation, error) {
	var conversations []models.Conversation
	err := r.DB.WithContext(ctx).Where("session_key = ? AND admin_id IS NULL", sessionKey).
		Order("updated_at DESC, id DESC").Limit(limit).
		Find(&conversations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations for session: %w", err)
	}
	return conversations, nil
}

func (r *ConversationRepository) UpdateTitle(ctx context.Context, id uint, title string) error {
	result := r.DB.WithContext(ctx).Model(&models.Conversation{}).Where("id = ?", id).
		Updates(map[string]interface{}{"title": title, "updated_at": time.Now()})
	if result.Error != nil {
		return fmt.Errorf("failed to update title of conversation %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("conversation", strconv.FormatUint(uint64(id), 10))
	}
	return nil
}

// Touch bumps updated_at so the conversation sorts first in listings
func (r *ConversationRepository) Touch(ctx context.Context, id uint) error {
	err := r.DB.WithContext(ctx).Model(&models.Conversation{}).Where("id = ?", id).Update("updated_at", time.Now()).Error
	if err != nil {
		return fmt.Errorf("failed to touch conversation %d: %w", id, err)
	}
	return nil
}

func (r *ConversationRepository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return fmt.Errorf("failed to delete messages of conversation %d: %w", id, err)
		}
		result := tx.Delete(&models.Conversation{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete conversation %d: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.NotFound("conversation", strconv.FormatUint(uint64(id), 10))
		}
		return nil
	})
}

func (r *ConversationRepository) AddMessage(ctx context.Context, message *models.Message) error {
	if err := r.DB.WithContext(ctx).Create(message).Error; err != nil {
		return fmt.Errorf("failed to add %s message to conversation %d: %w", message.Role, message.ConversationID, err)
	}
	return nil
}

// ListMessages returns a conversation's messages in creation order
func (r *ConversationRepository) ListMessages(ctx context.Context, conversationID uint) ([]models.Message, error) {
	var messages []models.Message
	err := r.DB.WithContext(ctx).Where("conversation_id = ?", conversationID).Order("id ASC").Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list messages of conversation %d: %w", conversationID, err)
	}
	return messages, nil
}

func (r *ConversationRepository) CountMessages(ctx context.Context, conversationID uint) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.Message{}).Where("conversation_id = ?", conversationID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count messages of conversation %d: %w", conversationID, err)
	}
	return count, nil
}
