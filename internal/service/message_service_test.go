package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/portfolio/backend/internal/kvstore"
	"github.com/portfolio/backend/internal/model"
	"github.com/portfolio/backend/internal/notify"
	"github.com/portfolio/backend/internal/repository"
)

// ---------------------------------------------------------------------------
// mockMessageRepository is a func-field stub for testing
// ---------------------------------------------------------------------------

type mockMessageRepository struct {
	saveFunc     func(ctx context.Context, msg *model.Message) error
	findByIDFunc func(ctx context.Context, id string) (*model.Message, error)
	listFunc     func(ctx context.Context) ([]*model.Message, error)
	deleteFunc   func(ctx context.Context, id string) error
}

func (m *mockMessageRepository) Save(ctx context.Context, msg *model.Message) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, msg)
	}
	return nil
}

func (m *mockMessageRepository) FindByID(ctx context.Context, id string) (*model.Message, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (m *mockMessageRepository) List(ctx context.Context) ([]*model.Message, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return nil, nil
}

func (m *mockMessageRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newKVMessageService wires the service to an in-memory KV store.
func newKVMessageService(t *testing.T, n notify.Notifier) (MessageService, *kvstore.Memory) {
	t.Helper()
	kv := kvstore.NewMemory()
	return NewMessageService(repository.NewKVMessageRepository(kv), n, discardLogger()), kv
}

// ---------------------------------------------------------------------------
// Submit tests
// ---------------------------------------------------------------------------

func TestMessageService_Submit_ThenListAll(t *testing.T) {
	svc, _ := newKVMessageService(t, nil)
	ctx := context.Background()
	before := time.Now().Truncate(time.Millisecond)

	id, err := svc.Submit(ctx, model.SubmitInput{Name: "Ava", Email: "a@x.com", Subject: "Hi", Message: "Hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" {
		t.Fatal("expected generated id")
	}

	msgs, err := svc.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	got := msgs[0]
	if got.ID != id || got.Name != "Ava" || got.Email != "a@x.com" || got.Subject != "Hi" || got.Message != "Hello" {
		t.Errorf("unexpected message: %+v", got)
	}
	if got.Read {
		t.Error("expected read=false")
	}
	if got.Timestamp.Before(before) {
		t.Errorf("timestamp %v is before call time %v", got.Timestamp, before)
	}
}

func TestMessageService_Submit_DefaultSubject(t *testing.T) {
	var saved *model.Message
	repo := &mockMessageRepository{
		saveFunc: func(ctx context.Context, msg *model.Message) error {
			saved = msg
			return nil
		},
	}
	svc := NewMessageService(repo, nil, discardLogger())

	if _, err := svc.Submit(context.Background(), model.SubmitInput{Name: "A", Email: "a@x.com", Subject: "  ", Message: "m"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved.Subject != model.DefaultSubject {
		t.Errorf("expected subject %q, got %q", model.DefaultSubject, saved.Subject)
	}
}

func TestMessageService_Submit_Validation(t *testing.T) {
	tests := []struct {
		name    string
		in      model.SubmitInput
		wantMsg string
	}{
		{"missing name", model.SubmitInput{Email: "a@x.com", Message: "m"}, "Missing required fields"},
		{"missing email", model.SubmitInput{Name: "A", Message: "m"}, "Missing required fields"},
		{"missing message", model.SubmitInput{Name: "A", Email: "a@x.com"}, "Missing required fields"},
		{"whitespace only", model.SubmitInput{Name: " ", Email: "a@x.com", Message: "m"}, "Missing required fields"},
		{"bad email", model.SubmitInput{Name: "A", Email: "not-an-email", Message: "m"}, "Invalid email address"},
		{"too long", model.SubmitInput{Name: "A", Email: "a@x.com", Message: strings.Repeat("x", 5001)}, "Message too long"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, kv := newKVMessageService(t, nil)
			_, err := svc.Submit(context.Background(), tt.in)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if got := PublicMessage(err, ""); got != tt.wantMsg {
				t.Errorf("expected message %q, got %q", tt.wantMsg, got)
			}
			if kv.Len() != 0 {
				t.Errorf("expected no KV entries, got %d", kv.Len())
			}
		})
	}
}

func TestMessageService_Submit_RepositoryError(t *testing.T) {
	repo := &mockMessageRepository{
		saveFunc: func(ctx context.Context, msg *model.Message) error {
			return errors.New("db write failed")
		},
	}
	svc := NewMessageService(repo, nil, discardLogger())

	_, err := svc.Submit(context.Background(), model.SubmitInput{Name: "A", Email: "a@x.com", Message: "m"})
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if PublicMessage(err, "") != "Failed to send message" {
		t.Errorf("unexpected public message %q", PublicMessage(err, ""))
	}
}

// TestMessageService_Submit_NotifierFailureIgnored verifies a failing notifier
// does not fail the submission.
func TestMessageService_Submit_NotifierFailureIgnored(t *testing.T) {
	var notified *model.Message
	n := notify.Func(func(ctx context.Context, msg *model.Message) error {
		notified = msg
		return errors.New("smtp down")
	})
	svc, kv := newKVMessageService(t, n)

	id, err := svc.Submit(context.Background(), model.SubmitInput{Name: "A", Email: "a@x.com", Message: "m"})
	if err != nil {
		t.Fatalf("expected success despite notifier failure, got %v", err)
	}
	if notified == nil || notified.ID != id {
		t.Errorf("expected notifier to receive message %s", id)
	}
	if kv.Len() != 1 {
		t.Errorf("expected 1 stored message, got %d", kv.Len())
	}
}

// TestMessageService_Submit_NotifierSurvivesCancel checks the notifier gets a
// live context even when the request context is already cancelled.
func TestMessageService_Submit_NotifierSurvivesCancel(t *testing.T) {
	var notifyErr error
	n := notify.Func(func(ctx context.Context, msg *model.Message) error {
		notifyErr = ctx.Err()
		return nil
	})
	svc := NewMessageService(&mockMessageRepository{}, n, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.Submit(ctx, model.SubmitInput{Name: "A", Email: "a@x.com", Message: "m"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if notifyErr != nil {
		t.Errorf("expected live notifier context, got %v", notifyErr)
	}
}

func TestMessageService_Submit_ConcurrentIDsUnique(t *testing.T) {
	svc, _ := newKVMessageService(t, nil)
	const n = 50

	var (
		mu  sync.Mutex
		ids = make(map[string]bool)
		wg  sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := svc.Submit(context.Background(), model.SubmitInput{
				Name: "A", Email: "a@x.com", Message: fmt.Sprintf("m%d", i),
			})
			if err != nil {
				t.Errorf("Submit: %v", err)
				return
			}
			mu.Lock()
			ids[id] = true
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	if len(ids) != n {
		t.Errorf("expected %d unique ids, got %d", n, len(ids))
	}
}

// ---------------------------------------------------------------------------
// ListAll tests
// ---------------------------------------------------------------------------

func TestMessageService_ListAll_SortedNewestFirst(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := &mockMessageRepository{
		listFunc: func(ctx context.Context) ([]*model.Message, error) {
			return []*model.Message{
				{ID: "b", Timestamp: base.Add(time.Minute)},
				{ID: "a", Timestamp: base},
				{ID: "d", Timestamp: base.Add(3 * time.Minute)},
				{ID: "c", Timestamp: base.Add(time.Minute)},
			}, nil
		},
	}
	svc := NewMessageService(repo, nil, discardLogger())

	msgs, err := svc.ListAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var order []string
	for _, m := range msgs {
		order = append(order, m.ID)
	}
	if got := strings.Join(order, ","); got != "d,c,b,a" {
		t.Errorf("expected order d,c,b,a, got %s", got)
	}
}

func TestMessageService_ListAll_EmptyIsNotNil(t *testing.T) {
	svc := NewMessageService(&mockMessageRepository{}, nil, discardLogger())

	msgs, err := svc.ListAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msgs == nil || len(msgs) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", msgs)
	}
}

func TestMessageService_ListAll_RepositoryError(t *testing.T) {
	repo := &mockMessageRepository{
		listFunc: func(ctx context.Context) ([]*model.Message, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc := NewMessageService(repo, nil, discardLogger())

	_, err := svc.ListAll(context.Background())
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// MarkRead / Delete tests
// ---------------------------------------------------------------------------

func TestMessageService_MarkRead_Idempotent(t *testing.T) {
	svc, _ := newKVMessageService(t, nil)
	ctx := context.Background()

	id, err := svc.Submit(ctx, model.SubmitInput{Name: "A", Email: "a@x.com", Message: "m"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := svc.MarkRead(ctx, id); err != nil {
			t.Fatalf("MarkRead #%d: %v", i+1, err)
		}
		msgs, _ := svc.ListAll(ctx)
		if !msgs[0].Read {
			t.Errorf("after MarkRead #%d expected read=true", i+1)
		}
	}
}

func TestMessageService_MarkRead_NotFound(t *testing.T) {
	svc, _ := newKVMessageService(t, nil)

	err := svc.MarkRead(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if PublicMessage(err, "") != "Message not found" {
		t.Errorf("unexpected public message %q", PublicMessage(err, ""))
	}
}

func TestMessageService_MarkRead_RepositoryError(t *testing.T) {
	repo := &mockMessageRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Message, error) {
			return nil, errors.New("timeout")
		},
	}
	svc := NewMessageService(repo, nil, discardLogger())

	if err := svc.MarkRead(context.Background(), "x"); !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}

func TestMessageService_Delete_Idempotent(t *testing.T) {
	svc, kv := newKVMessageService(t, nil)
	ctx := context.Background()

	id, err := svc.Submit(ctx, model.SubmitInput{Name: "A", Email: "a@x.com", Message: "m"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := svc.Delete(ctx, id); err != nil {
		t.Fatalf("first Delete: %v", err)
	}
	if err := svc.Delete(ctx, id); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
	if kv.Len() != 0 {
		t.Errorf("expected empty store, got %d entries", kv.Len())
	}
}

func TestMessageService_EmptyID(t *testing.T) {
	svc := NewMessageService(&mockMessageRepository{}, nil, discardLogger())

	if err := svc.MarkRead(context.Background(), ""); !errors.Is(err, ErrValidation) {
		t.Errorf("MarkRead: expected ErrValidation, got %v", err)
	}
	if err := svc.Delete(context.Background(), ""); !errors.Is(err, ErrValidation) {
		t.Errorf("Delete: expected ErrValidation, got %v", err)
	}
}
