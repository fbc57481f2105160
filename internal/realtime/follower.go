package realtime

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Follower keeps exactly one active subscription for a consumer and feeds the
// channel's events into a Mirror. Following a new scope tears down the
// previous subscription first.
type Follower[T any] struct {
	hub    *Hub
	mirror *Mirror[T]
	log    *zap.Logger

	mu     sync.Mutex
	sub    *Subscriber
	cancel context.CancelFunc
	done   chan struct{}
}

func NewFollower[T any](hub *Hub, mirror *Mirror[T], log *zap.Logger) *Follower[T] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Follower[T]{hub: hub, mirror: mirror, log: log}
}

// Follow switches to channel, seeding the mirror with snapshot. Every applied
// change (after deduplication) is passed to onChange; ignored changes are not.
// onChange runs on the follower goroutine.
func (f *Follower[T]) Follow(ctx context.Context, channel string, snapshot []T, onChange func(Change[T], Outcome)) {
	_ = f.FollowLoad(ctx, channel, func(context.Context) ([]T, error) { return snapshot, nil }, onChange)
}

// FollowLoad switches to channel and seeds the mirror from load, which runs
// after the subscription is registered: a change committed while load reads
// is buffered and merged by id afterwards. A load error leaves the follower
// stopped.
func (f *Follower[T]) FollowLoad(ctx context.Context, channel string, load func(context.Context) ([]T, error), onChange func(Change[T], Outcome)) error {
	f.Stop()

	f.mu.Lock()
	defer f.mu.Unlock()

	sub := f.hub.Subscribe(channel, 0)
	snapshot, err := load(ctx)
	if err != nil {
		sub.Close()
		return err
	}
	f.mirror.Reset(snapshot)

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	f.sub, f.cancel, f.done = sub, cancel, done

	go func() {
		defer close(done)
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub.Events:
				if !ok {
					return
				}
				rec, ok := ev.Record.(T)
				if !ok {
					f.log.Warn("realtime record of unexpected type", zap.String("channel", channel), zap.String("type", string(ev.Type)))
					continue
				}
				ch := Change[T]{Type: ev.Type, Record: rec}
				if out := f.mirror.Apply(ch); out != Ignored && onChange != nil {
					onChange(ch, out)
				}
			}
		}
	}()
	return nil
}

// Stop tears down the active subscription, if any, and waits for the feed to exit.
func (f *Follower[T]) Stop() {
	f.mu.Lock()
	cancel, done := f.cancel, f.done
	f.sub, f.cancel, f.done = nil, nil, nil
	f.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Channel reports the channel currently followed, or "".
func (f *Follower[T]) Channel() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sub == nil {
		return ""
	}
	return f.sub.Channel
}
