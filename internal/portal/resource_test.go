package portal

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func Test_Load_EmptyIDShortCircuits(t *testing.T) {
	var calls int32
	r := NewResource("projects", func(ctx context.Context, id string) ([]string, error) {
		atomic.AddInt32(&calls, 1)
		return []string{"x"}, nil
	}, EmptySlice[string], nil)

	v := r.Load(context.Background(), "")
	if v.Loading || v.Error != "" || v.Data == nil || len(v.Data) != 0 {
		t.Fatalf("unexpected view %+v", v)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("fetch must not be called for empty id")
	}
}

func Test_Load_FailureSurfacesGenericMessage(t *testing.T) {
	r := NewResource("invoices", func(ctx context.Context, id string) ([]string, error) {
		return nil, errors.New("connection refused on 10.0.0.5")
	}, EmptySlice[string], nil)

	v := r.Load(context.Background(), "c1")
	if v.Error != MsgLoadFailed {
		t.Fatalf("want generic message, got %q", v.Error)
	}
	if v.Loading || v.Data == nil {
		t.Fatalf("want settled empty view, got %+v", v)
	}
}

func Test_Load_NotFound(t *testing.T) {
	r := NewResource("project", func(ctx context.Context, id string) (*int, error) {
		return nil, ErrNotFound
	}, nil, nil)
	v := r.Load(context.Background(), "p1")
	if !v.NotFound || v.Error != MsgNotFound {
		t.Fatalf("want not found view, got %+v", v)
	}
}

func Test_Load_StaleSlowResultDoesNotOverwriteNewer(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	r := NewResource("messages", func(ctx context.Context, id string) (string, error) {
		if id == "old" {
			close(started)
			select {
			case <-release:
			case <-ctx.Done():
			}
			return "old-data", nil
		}
		return "new-data", nil
	}, nil, nil)

	oldDone := make(chan View[string])
	go func() { oldDone <- r.Load(context.Background(), "old") }()
	<-started

	if v := r.Load(context.Background(), "new"); v.Data != "new-data" {
		t.Fatalf("want new-data, got %+v", v)
	}
	close(release)

	select {
	case v := <-oldDone:
		if !v.Stale {
			t.Fatalf("slow old load should be stale, got %+v", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("old load never returned")
	}
	if cur := r.Current(); cur.Data != "new-data" {
		t.Fatalf("stale result overwrote newer: %+v", cur)
	}
}

func Test_Load_NewLoadCancelsPrevious(t *testing.T) {
	cancelled := make(chan struct{})
	started := make(chan struct{})
	r := NewResource("tasks", func(ctx context.Context, id string) (string, error) {
		if id == "first" {
			close(started)
			<-ctx.Done()
			close(cancelled)
			return "", ctx.Err()
		}
		return "second", nil
	}, nil, nil)

	go r.Load(context.Background(), "first")
	<-started
	r.Load(context.Background(), "second")

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("previous load was not cancelled")
	}
}
