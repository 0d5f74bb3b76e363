package models

import "time"

// Support thread lifecycle states.
const (
	SupportThreadOpen   = "open"
	SupportThreadClosed = "closed"
)

// SupportThread groups the messages a user exchanges with staff.
type SupportThread struct {
	BaseModel

	UserID  string `gorm:"type:uuid;not null;index:idx_support_threads_user" json:"user_id"`
	Subject string `gorm:"size:120;not null" json:"subject"`
	Status  string `gorm:"size:16;default:open;index:idx_support_threads_status" json:"status"`

	LastUserReadAt  *time.Time `json:"last_user_read_at"`
	LastStaffReadAt *time.Time `json:"last_staff_read_at"`
	LastMessageAt   *time.Time `json:"last_message_at"`

	Messages []SupportMessage `gorm:"foreignKey:ThreadID" json:"messages,omitempty"`
}
