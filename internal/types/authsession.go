package types

import (
  "time"

  "github.com/google/uuid"
)

// AuthSession is the server side record backing an issued access token.
// Its ID is the token's jti, so revoking the row kills the token.
type AuthSession struct {
  ID        uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  UserID    uuid.UUID  `gorm:"type:uuid;index;not null" json:"userID"`
  User      *User      `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
  ExpiresAt time.Time  `gorm:"not null" json:"expiresAt"`
  RevokedAt *time.Time `gorm:"column:revoked_at" json:"revokedAt,omitempty"`

  CreatedAt time.Time `gorm:"not null;default:now()" json:"createdAt"`
}

func (AuthSession) TableName() string {
  return "auth_session"
}

// Active reports whether the session can still authenticate requests.
func (s *AuthSession) Active(now time.Time) bool {
  return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
