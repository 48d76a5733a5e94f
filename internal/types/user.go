package types

import (
  "time"

  "github.com/google/uuid"
)

type User struct {
  ID              uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  Email           string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
  Password        string    `gorm:"not null;column:password" json:"-"`
  FirstName       *string   `gorm:"column:first_name" json:"firstName,omitempty"`
  LastName        *string   `gorm:"column:last_name" json:"lastName,omitempty"`
  AvatarBucketKey string    `gorm:"column:avatar_bucket_key" json:"-"`
  AvatarURL       string    `gorm:"column:avatar_url" json:"avatarURL"`

  CreatedAt time.Time `gorm:"not null;default:now()" json:"createdAt"`
  UpdatedAt time.Time `gorm:"not null;default:now()" json:"updatedAt"`
}

func (User) TableName() string {
  return "user"
}
