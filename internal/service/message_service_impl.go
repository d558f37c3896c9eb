package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/portfolio/backend/internal/model"
	"github.com/portfolio/backend/internal/notify"
	"github.com/portfolio/backend/internal/repository"
)

const (
	maxMessageLength = 5000
	notifyTimeout    = 5 * time.Second
)

// messageServiceImpl is the production implementation of MessageService.
type messageServiceImpl struct {
	repo     repository.MessageRepository
	notifier notify.Notifier
	logger   *slog.Logger
	now      func() time.Time
	newID    func() (string, error)
}

// NewMessageService creates a MessageService backed by the given repository.
// notifier may be nil.
func NewMessageService(repo repository.MessageRepository, notifier notify.Notifier, logger *slog.Logger) MessageService {
	if logger == nil {
		logger = slog.Default()
	}
	return &messageServiceImpl{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		newID:    newMessageID,
	}
}

// newMessageID returns a UUIDv7: time-ordered with random low bits.
func newMessageID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Submit validates the input, stores the message with read=false and then
// notifies the owner. Notification failures are logged, never returned.
func (s *messageServiceImpl) Submit(ctx context.Context, in model.SubmitInput) (string, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	body := strings.TrimSpace(in.Message)
	subject := strings.TrimSpace(in.Subject)

	if name == "" || email == "" || body == "" {
		return "", newError(ErrValidation, "Missing required fields", nil)
	}
	if !validEmail(email) {
		return "", newError(ErrValidation, "Invalid email address", nil)
	}
	if utf8.RuneCountInString(body) > maxMessageLength {
		return "", newError(ErrValidation, "Message too long", nil)
	}
	if subject == "" {
		subject = model.DefaultSubject
	}

	id, err := s.newID()
	if err != nil {
		return "", newError(ErrStorage, "Failed to send message", err)
	}

	msg := &model.Message{
		ID:        id,
		Name:      name,
		Email:     email,
		Subject:   subject,
		Message:   body,
		Timestamp: s.now().UTC().Truncate(time.Millisecond),
		Read:      false,
	}
	if err := s.repo.Save(ctx, msg); err != nil {
		return "", newError(ErrStorage, "Failed to send message", err)
	}

	s.notify(ctx, msg)
	return id, nil
}

func (s *messageServiceImpl) notify(ctx context.Context, msg *model.Message) {
	if s.notifier == nil {
		return
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := s.notifier.Notify(nctx, msg); err != nil {
		s.logger.Error("message notification failed", "error", err, "message_id", msg.ID)
	}
}

// validEmail is a shape check only: one '@' with text on both sides and a
// dot somewhere in the domain.
func validEmail(email string) bool {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" || strings.Contains(domain, "@") {
		return false
	}
	if strings.ContainsAny(email, " \t\r\n") {
		return false
	}
	return strings.Contains(domain, ".")
}

// ListAll returns messages sorted by timestamp descending, ties broken by id
// descending so the order is stable across calls.
func (s *messageServiceImpl) ListAll(ctx context.Context) ([]*model.Message, error) {
	msgs, err := s.repo.List(ctx)
	if err != nil {
		return nil, newError(ErrStorage, "Failed to fetch messages", err)
	}
	if msgs == nil {
		msgs = []*model.Message{}
	}
	slices.SortFunc(msgs, func(a, b *model.Message) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
	return msgs, nil
}

func (s *messageServiceImpl) MarkRead(ctx context.Context, id string) error {
	if id == "" {
		return newError(ErrValidation, "Message id required", nil)
	}
	msg, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return newError(ErrNotFound, "Message not found", nil)
	}
	if err != nil {
		return newError(ErrStorage, "Failed to update message", err)
	}
	msg.Read = true
	if err := s.repo.Save(ctx, msg); err != nil {
		return newError(ErrStorage, "Failed to update message", err)
	}
	return nil
}

func (s *messageServiceImpl) Delete(ctx context.Context, id string) error {
	if id == "" {
		return newError(ErrValidation, "Message id required", nil)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return newError(ErrStorage, "Failed to delete message", err)
	}
	return nil
}
