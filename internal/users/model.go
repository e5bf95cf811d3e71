package users

import "strings"

// User models a diary account with its reminder preferences.
// PushSub holds the raw push-subscription JSON; empty means the user never
// registered a subscription.
type User struct {
	ID            int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Email         string `gorm:"column:email;size:320;uniqueIndex;not null"`
	PasswordHash  string `gorm:"column:password_hash;size:255;not null"`
	CreatedOn     int64  `gorm:"column:created_on;not null"`
	UpdatedOn     int64  `gorm:"column:updated_on;not null"`
	ReminderIsSet bool   `gorm:"column:reminder_is_set;not null;default:false"`
	PushSub       string `gorm:"column:push_sub;type:text;not null;default:''"`
}

// TableName provides the explicit table binding for GORM.
func (User) TableName() string {
	return "users"
}

// NormalizeEmail canonicalizes an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
