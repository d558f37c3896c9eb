package service

import (
	"context"

	"github.com/portfolio/backend/internal/model"
)

// MessageService defines the business logic for the contact inbox.
type MessageService interface {
	// Submit validates and stores a new message, then notifies the owner.
	// It returns the generated message id.
	Submit(ctx context.Context, in model.SubmitInput) (string, error)

	// ListAll returns every message, newest first.
	ListAll(ctx context.Context) ([]*model.Message, error)

	// MarkRead sets read=true. It is idempotent and fails with ErrNotFound
	// for unknown ids.
	MarkRead(ctx context.Context, id string) error

	// Delete removes a message. Unknown ids are not an error.
	Delete(ctx context.Context, id string) error
}
