package models

import "time"

// CourseAccess links a user to a purchased course. Access is presence-based:
// duplicates are tolerated and never counted.
type CourseAccess struct {
	ID       string `gorm:"column:id;primary_key;type:uuid" json:"id"`
	UserID   string `gorm:"column:user_id;type:varchar(64);not null;index:idx_access_user_course,priority:1" json:"user_id"`
	CourseID string `gorm:"column:course_id;type:varchar(64);not null;index:idx_access_user_course,priority:2" json:"course_id"`
	// OrderID traces the grant back to the order that paid for it.
	OrderID     *string   `gorm:"column:order_id;type:uuid" json:"order_id"`
	PurchasedAt time.Time `gorm:"column:purchased_at;not null" json:"purchased_at"`
	CreatedAt   time.Time `json:"created_at"`
}

func (CourseAccess) TableName() string {
	return "course_access"
}
