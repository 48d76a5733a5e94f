package types

import (
  "time"

  "gorm.io/datatypes"
)

const (
  MessageRoleUser      = "user"
  MessageRoleAssistant = "assistant"
)

// ChatMessage rows are append ordered: the autoincrement ID is the canonical
// transcript order within a chat.
type ChatMessage struct {
  ID            uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
  ChatID        uint64         `gorm:"index;not null" json:"chatID"`
  Chat          *Chat          `gorm:"constraint:OnDelete:CASCADE;foreignKey:ChatID;references:ID" json:"chat,omitempty"`
  Role          string         `gorm:"not null;column:role" json:"role"`
  Content       string         `gorm:"type:text;column:content" json:"content"`
  ItineraryJSON datatypes.JSON `gorm:"column:itinerary_json" json:"-"`

  CreatedAt time.Time `gorm:"not null;default:now()" json:"createdAt"`
  UpdatedAt time.Time `gorm:"not null;default:now()" json:"updatedAt"`
}

func (ChatMessage) TableName() string {
  return "chat_message"
}
