package realtime

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// HeartbeatInterval is how often an idle stream writes a keepalive comment.
var HeartbeatInterval = 30 * time.Second

// StreamOptions configures an SSE stream over one channel.
type StreamOptions[T any] struct {
	Channel string
	// Load reads the snapshot. It runs once the channel subscription is in
	// place, so nothing published meanwhile is missed.
	Load        func(ctx context.Context) ([]T, error)
	ID          func(T) string
	Correlation func(T) string
	// Cue builds an extra "cue" frame for every newly appended record (the
	// portal plays a short sound on it). Failures are logged and swallowed.
	Cue func(T) (any, error)
	Log *zap.Logger
}

// LoadFailedMessage is sent in the "error" frame when the snapshot cannot be read.
const LoadFailedMessage = "Não foi possível carregar os dados"

type frame struct {
	event string
	data  any
}

// Stream writes Server-Sent Events to w: a snapshot first, then every change
// that survives deduplication, until ctx ends or the peer goes away.
func Stream[T any](ctx context.Context, w *bufio.Writer, hub *Hub, opts StreamOptions[T]) error {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	frames := make(chan frame, 64)
	push := func(f frame) {
		select {
		case frames <- f:
		default:
			droppedEvents.Inc()
			log.Warn("realtime stream backlog full, dropping frame", zap.String("channel", opts.Channel), zap.String("event", f.event))
		}
	}

	mirror := NewMirror(opts.ID, opts.Correlation)
	follower := NewFollower(hub, mirror, log)
	load := opts.Load
	if load == nil {
		load = func(context.Context) ([]T, error) { return nil, nil }
	}
	err := follower.FollowLoad(ctx, opts.Channel, load, func(c Change[T], out Outcome) {
		push(frame{event: string(c.Type), data: c.Record})
		if out == Appended && opts.Cue != nil {
			cue, err := opts.Cue(c.Record)
			if err != nil {
				log.Debug("realtime cue skipped", zap.String("channel", opts.Channel), zap.Error(err))
				return
			}
			push(frame{event: "cue", data: cue})
		}
	})
	if err != nil {
		log.Error("realtime snapshot failed", zap.String("channel", opts.Channel), zap.Error(err))
		_ = writeFrame(w, frame{event: "error", data: map[string]string{"error": LoadFailedMessage}})
		return err
	}
	defer follower.Stop()

	if err := writeFrame(w, frame{event: "snapshot", data: mirror.Items()}); err != nil {
		return err
	}

	heartbeat := time.NewTicker(HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case f := <-frames:
			if err := writeFrame(w, f); err != nil {
				return err
			}
		case <-heartbeat.C:
			if _, err := w.WriteString(": keepalive\n\n"); err != nil {
				return err
			}
			if err := w.Flush(); err != nil {
				return err
			}
		}
	}
}

func writeFrame(w *bufio.Writer, f frame) error {
	b, err := json.Marshal(f.data)
	if err != nil {
		return fmt.Errorf("encode %s frame: %w", f.event, err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", f.event, b); err != nil {
		return err
	}
	return w.Flush()
}
