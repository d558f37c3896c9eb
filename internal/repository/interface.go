package repository

import (
	"context"

	"github.com/portfolio/backend/internal/model"
)

// DB は DB 接続の生存確認を行うインターフェース
type DB interface {
	Ping(ctx context.Context) error
}

// MessageRepository はお問い合わせメッセージ永続化のインターフェース
type MessageRepository interface {
	// Save inserts or replaces the message stored under msg.ID.
	Save(ctx context.Context, msg *model.Message) error
	// FindByID returns ErrNotFound when no message has the id.
	FindByID(ctx context.Context, id string) (*model.Message, error)
	// List returns every stored message in no particular order.
	List(ctx context.Context) ([]*model.Message, error)
	// Delete removes the message; missing ids are not an error.
	Delete(ctx context.Context, id string) error
}
