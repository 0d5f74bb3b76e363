package services

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/localhq/localservices/internal/models"
	"github.com/localhq/localservices/pkg/errors"
)

// SupportService manages the user-to-staff messaging threads.
type SupportService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSupportService returns a SupportService.
func NewSupportService(db *gorm.DB) *SupportService {
	return &SupportService{db: db, now: time.Now}
}

// ThreadInput opens a thread with its first message.
type ThreadInput struct {
	Subject string `json:"subject" validate:"required,max=120"`
	Body    string `json:"body" validate:"required,max=4000"`
}

// CreateThread opens a support thread for a user.
func (s *SupportService) CreateThread(ctx context.Context, userID string, input ThreadInput) (*models.SupportThread, error) {
	now := s.now()

	thread := models.SupportThread{
		UserID:        userID,
		Subject:       strings.TrimSpace(input.Subject),
		Status:        models.SupportThreadOpen,
		LastMessageAt: &now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&thread).Error; err != nil {
			return err
		}
		message := models.SupportMessage{
			ThreadID: thread.ID,
			SenderID: &userID,
			Body:     strings.TrimSpace(input.Body),
		}
		return tx.Create(&message).Error
	})
	if err != nil {
		return nil, err
	}
	return &thread, nil
}

// ListThreadsForUser returns the user's threads, most recently active first.
func (s *SupportService) ListThreadsForUser(ctx context.Context, userID string) ([]models.SupportThread, error) {
	var threads []models.SupportThread
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_message_at DESC").
		Find(&threads).Error
	return threads, err
}

// ListOpenThreads returns open threads for the staff inbox, oldest activity
// first so nothing stalls.
func (s *SupportService) ListOpenThreads(ctx context.Context) ([]models.SupportThread, error) {
	var threads []models.SupportThread
	err := s.db.WithContext(ctx).
		Where("status = ?", models.SupportThreadOpen).
		Order("last_message_at ASC").
		Find(&threads).Error
	return threads, err
}

// GetThread returns a thread with its messages. Non-staff callers can only
// read their own threads.
func (s *SupportService) GetThread(ctx context.Context, threadID, requesterID string, isStaff bool) (*models.SupportThread, error) {
	var thread models.SupportThread
	err := s.db.WithContext(ctx).
		Preload("Messages", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at ASC")
		}).
		Take(&thread, "id = ?", threadID).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if !isStaff && thread.UserID != requesterID {
		return nil, errors.ErrForbidden
	}
	return &thread, nil
}

// MessageInput adds a message to a thread.
type MessageInput struct {
	Body string `json:"body" validate:"required,max=4000"`
}

// AddMessage appends a message and bumps the thread activity marker. Closed
// threads reopen when the user writes again.
func (s *SupportService) AddMessage(ctx context.Context, threadID, senderID string, fromStaff bool, input MessageInput) (*models.SupportMessage, error) {
	thread, err := s.GetThread(ctx, threadID, senderID, fromStaff)
	if err != nil {
		return nil, err
	}

	now := s.now()
	message := models.SupportMessage{
		ThreadID:  thread.ID,
		SenderID:  &senderID,
		FromStaff: fromStaff,
		Body:      strings.TrimSpace(input.Body),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&message).Error; err != nil {
			return err
		}

		updates := map[string]any{"last_message_at": now}
		if !fromStaff && thread.Status == models.SupportThreadClosed {
			updates["status"] = models.SupportThreadOpen
		}
		return tx.Model(&models.SupportThread{}).
			Where("id = ?", thread.ID).
			Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// MarkRead records that the user or staff has seen the thread.
func (s *SupportService) MarkRead(ctx context.Context, threadID, requesterID string, isStaff bool) error {
	if _, err := s.GetThread(ctx, threadID, requesterID, isStaff); err != nil {
		return err
	}

	column := "last_user_read_at"
	if isStaff {
		column = "last_staff_read_at"
	}

	return s.db.WithContext(ctx).
		Model(&models.SupportThread{}).
		Where("id = ?", threadID).
		Update(column, s.now()).Error
}

// CloseThread marks a thread resolved. Staff only.
func (s *SupportService) CloseThread(ctx context.Context, threadID string) error {
	result := s.db.WithContext(ctx).
		Model(&models.SupportThread{}).
		Where("id = ?", threadID).
		Update("status", models.SupportThreadClosed)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.ErrNotFound
	}
	return nil
}
