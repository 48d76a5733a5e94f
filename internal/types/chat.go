package types

import (
  "time"

  "github.com/google/uuid"
)

type Chat struct {
  ID     uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
  UserID uuid.UUID `gorm:"type:uuid;index;not null" json:"userID"`
  User   *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
  Title  *string   `gorm:"column:title" json:"title,omitempty"`

  CreatedAt time.Time `gorm:"not null;default:now()" json:"createdAt"`
  UpdatedAt time.Time `gorm:"not null;default:now()" json:"updatedAt"`
}

func (Chat) TableName() string {
  return "chat"
}
