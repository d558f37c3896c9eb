package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/portfolio/backend/internal/kvstore"
	"github.com/portfolio/backend/internal/model"
)

// MessageKeyPrefix namespaces message records inside the shared KV store.
const MessageKeyPrefix = "message:"

// KVMessageRepository stores one JSON document per message under
// "message:{id}".
type KVMessageRepository struct {
	kv kvstore.Store
}

// NewKVMessageRepository creates a KVMessageRepository backed by the given store.
func NewKVMessageRepository(kv kvstore.Store) *KVMessageRepository {
	return &KVMessageRepository{kv: kv}
}

// Ensure KVMessageRepository implements MessageRepository at compile time.
var _ MessageRepository = (*KVMessageRepository)(nil)

func messageKey(id string) string {
	return MessageKeyPrefix + id
}

func (r *KVMessageRepository) Save(ctx context.Context, msg *model.Message) error {
	if msg.ID == "" {
		return errors.New("repository: message id required")
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("repository: encode message: %w", err)
	}
	return r.kv.Set(ctx, messageKey(msg.ID), b)
}

func (r *KVMessageRepository) FindByID(ctx context.Context, id string) (*model.Message, error) {
	vals, err := r.kv.MGet(ctx, []string{messageKey(id)})
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 || vals[0] == nil {
		return nil, ErrNotFound
	}
	var m model.Message
	if err := json.Unmarshal(vals[0], &m); err != nil {
		return nil, fmt.Errorf("repository: decode message %q: %w", id, err)
	}
	return &m, nil
}

// List skips records that cannot be decoded so one corrupt entry does not
// hide the rest of the inbox.
func (r *KVMessageRepository) List(ctx context.Context) ([]*model.Message, error) {
	vals, err := r.kv.GetByPrefix(ctx, MessageKeyPrefix)
	if err != nil {
		return nil, err
	}
	messages := make([]*model.Message, 0, len(vals))
	for _, v := range vals {
		var m model.Message
		if err := json.Unmarshal(v, &m); err != nil {
			slog.Warn("skipping undecodable message record", "error", err)
			continue
		}
		messages = append(messages, &m)
	}
	return messages, nil
}

func (r *KVMessageRepository) Delete(ctx context.Context, id string) error {
	return r.kv.Delete(ctx, messageKey(id))
}
