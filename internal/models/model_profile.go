package models

import "time"

// Profile is the user profile row checked before any monetary write.
type Profile struct {
	ID        string    `gorm:"column:id;primary_key;type:varchar(64)" json:"id"`
	Email     string    `gorm:"column:email;type:varchar(255);uniqueIndex" json:"email"`
	FullName  string    `gorm:"column:full_name;type:varchar(255)" json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profile"
}
