package models

// User is an account able to sign in. Admin users manage the directory,
// settings, ads, and support threads.
type User struct {
	BaseModel

	Username     string `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email        string `gorm:"size:254" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	IsAdmin      bool   `gorm:"default:false" json:"is_admin"`
	IsActive     bool   `gorm:"default:true" json:"is_active"`

	Profile *UserProfile `gorm:"foreignKey:UserID" json:"profile,omitempty"`
}
