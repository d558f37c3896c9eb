// Package notify delivers best-effort notifications about new contact
// messages. Callers log and discard errors.
package notify

import (
	"context"
	"errors"

	"github.com/portfolio/backend/internal/model"
)

// Notifier is told about every newly stored message.
type Notifier interface {
	Notify(ctx context.Context, msg *model.Message) error
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, msg *model.Message) error

func (f Func) Notify(ctx context.Context, msg *model.Message) error { return f(ctx, msg) }

// Multi calls every notifier and joins their errors. A failing notifier does
// not stop the others.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, msg *model.Message) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
