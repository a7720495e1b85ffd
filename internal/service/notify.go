package service

import (
	"context"

	"gopkg.in/gomail.v2"

	"rentspace-backend/internal/domain"
	"rentspace-backend/internal/logger"
	"rentspace-backend/internal/repository"
)

type notifyService struct {
	noteRepo repository.NotificationRepository
	userRepo repository.UserRepository

	smtpHost string
	smtpPort int
	smtpUser string
	smtpPass string
	from     string
}

func NewNotifyService(noteRepo repository.NotificationRepository, userRepo repository.UserRepository, smtpHost string, smtpPort int, smtpUser, smtpPass, from string) NotifyService {
	return &notifyService{
		noteRepo: noteRepo,
		userRepo: userRepo,
		smtpHost: smtpHost,
		smtpPort: smtpPort,
		smtpUser: smtpUser,
		smtpPass: smtpPass,
		from:     from,
	}
}

// Notify stores an in-app notification and mirrors it by email. Delivery is
// best-effort; nothing here can fail the calling operation.
func (s *notifyService) Notify(ctx context.Context, recipientID int32, title, body string, attrs map[string]string) {
	note := &domain.Notification{
		UserID:     recipientID,
		Title:      title,
		Message:    body,
		Attributes: attrs,
	}
	if err := s.noteRepo.Create(ctx, note); err != nil {
		logger.Error("Failed to store notification", "user_id", recipientID, "title", title, "error", err)
	}

	if s.smtpHost == "" {
		return
	}
	user, err := s.userRepo.GetByID(ctx, recipientID)
	if err != nil || user.Email == "" {
		logger.Warn("Skipping notification email, no recipient address", "user_id", recipientID, "error", err)
		return
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", user.Email)
	m.SetHeader("Subject", title)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.smtpHost, s.smtpPort, s.smtpUser, s.smtpPass)
	if err := d.DialAndSend(m); err != nil {
		logger.Error("Failed to send notification email", "user_id", recipientID, "title", title, "error", err)
	}
}
