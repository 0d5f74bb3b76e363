package models

// SupportMessage is a single message inside a support thread.
type SupportMessage struct {
	BaseModel

	ThreadID  string  `gorm:"type:uuid;not null;index:idx_support_messages_thread" json:"thread_id"`
	SenderID  *string `gorm:"type:uuid" json:"sender_id"`
	FromStaff bool    `gorm:"default:false;index" json:"from_staff"`
	Body      string  `gorm:"not null" json:"body"`
}
