package models

import "time"

const DefaultConversationTitle = "New Conversation"

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// Conversation is an assistant chat session. It is owned either by an
// authenticated admin (AdminID) or by an anonymous client session (SessionKey).
type Conversation struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title      string    `gorm:"not null;default:'New Conversation'" json:"title"`
	AdminID    *uint     `gorm:"index" json:"admin_id,omitempty"`
	SessionKey *string   `gorm:"index" json:"session_key,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `gorm:"index" json:"updated_at"`

	Messages []Message `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (Conversation) TableName() string {
	return "conversations"
}

// Message is a single turn within a conversation, ordered by creation.
type Message struct {
	ID             uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID uint        `gorm:"not null;index" json:"conversation_id"`
	Role           MessageRole `gorm:"not null" json:"role"`
	Content        string      `gorm:"type:text;not null" json:"content"`
	CreatedAt      time.Time   `json:"created_at"`
}

// TableName explicitly sets the table name for GORM.
func (Message) TableName() string {
	return "messages"
}
