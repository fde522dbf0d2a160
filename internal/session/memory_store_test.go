package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	ctx := context.Background()

	id, err := s.Create(ctx, Record{UserID: 3, Username: "maria", Role: "manager"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	rec, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.UserID != 3 || rec.Username != "maria" || rec.Role != "manager" {
		t.Errorf("record = %+v", rec)
	}

	if err := s.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get after delete = %v, want ErrSessionNotFound", err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore(-time.Second) // already expired on creation
	ctx := context.Background()

	id, err := s.Create(ctx, Record{UserID: 1, Username: "x", Role: "standard"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Get(ctx, id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get on expired session = %v, want ErrSessionNotFound", err)
	}
}

func TestMemoryStoreFlashShowsOnce(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	ctx := context.Background()

	id, err := s.Create(ctx, Record{UserID: 2, Username: "y", Role: "standard"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.SetFlash(ctx, id, Flash{Kind: "success", Message: "saved"}); err != nil {
		t.Fatalf("SetFlash: %v", err)
	}

	f, err := s.PopFlash(ctx, id)
	if err != nil {
		t.Fatalf("PopFlash: %v", err)
	}
	if f == nil || f.Message != "saved" {
		t.Fatalf("first pop = %+v, want the notice", f)
	}

	f, err = s.PopFlash(ctx, id)
	if err != nil {
		t.Fatalf("PopFlash: %v", err)
	}
	if f != nil {
		t.Errorf("second pop = %+v, want nil", f)
	}
}
