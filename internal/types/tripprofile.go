package types

import (
  "time"
)

// TripProfile holds the structured trip preferences a user fills in for a
// chat. Every field is optional; blanks are stored as NULL.
type TripProfile struct {
  ID     uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
  ChatID uint64 `gorm:"uniqueIndex;not null" json:"chatID"`
  Chat   *Chat  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ChatID;references:ID" json:"chat,omitempty"`

  Destination *string `gorm:"column:destination" json:"destination,omitempty"`
  StartDate   *string `gorm:"column:start_date" json:"startDate,omitempty"`
  EndDate     *string `gorm:"column:end_date" json:"endDate,omitempty"`
  Budget      *string `gorm:"column:budget" json:"budget,omitempty"`
  Travelers   *string `gorm:"column:travelers" json:"travelers,omitempty"`
  Interests   *string `gorm:"column:interests" json:"interests,omitempty"`
  Constraints *string `gorm:"column:constraints" json:"constraints,omitempty"`

  CreatedAt time.Time `gorm:"not null;default:now()" json:"createdAt"`
  UpdatedAt time.Time `gorm:"not null;default:now()" json:"updatedAt"`
}

func (TripProfile) TableName() string {
  return "trip_profile"
}
