package realtime

import (
	"strconv"
	"sync"

	"go.uber.org/zap"
)

// EventType is the row-change kind carried on a channel.
type EventType string

const (
	Insert EventType = "INSERT"
	Update EventType = "UPDATE"
)

// Event is one row change published on a channel.
type Event struct {
	Type    EventType `json:"type"`
	Channel string    `json:"channel"`
	Table   string    `json:"table"`
	Record  any       `json:"record"`
}

// MessagesChannel is the per-project conversation channel.
func MessagesChannel(projectID string) string { return "messages:" + projectID }

// NotificationsChannel is the per-user notification channel.
func NotificationsChannel(userID string) string { return "notifications:" + userID }

// Subscriber receives the events of one channel until closed.
type Subscriber struct {
	ID      string
	Channel string
	Events  chan Event

	hub  *Hub
	once sync.Once
}

// Close unregisters the subscriber and closes its event channel. Safe to call twice.
func (s *Subscriber) Close() {
	s.once.Do(func() { s.hub.unsubscribe(s) })
}

// Hub fans out row changes to the subscribers of each channel.
// Delivery is FIFO per channel; nothing is ordered across channels.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[string]*Subscriber
	seq      uint64
	log      *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		channels: make(map[string]map[string]*Subscriber),
		log:      log,
	}
}

// Subscribe registers a subscriber on channel with the given buffer size.
func (h *Hub) Subscribe(channel string, buffer int) *Subscriber {
	if buffer <= 0 {
		buffer = 64
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	s := &Subscriber{
		ID:      channel + "#" + strconv.FormatUint(h.seq, 10),
		Channel: channel,
		Events:  make(chan Event, buffer),
		hub:     h,
	}
	subs, ok := h.channels[channel]
	if !ok {
		subs = make(map[string]*Subscriber)
		h.channels[channel] = subs
	}
	subs[s.ID] = s
	activeSubscribers.Inc()
	h.log.Debug("realtime subscribe", zap.String("channel", channel), zap.String("subscriber", s.ID), zap.Int("channel_total", len(subs)))
	return s
}

func (h *Hub) unsubscribe(s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.channels[s.Channel]
	if !ok {
		return
	}
	if _, ok := subs[s.ID]; !ok {
		return
	}
	delete(subs, s.ID)
	close(s.Events)
	if len(subs) == 0 {
		delete(h.channels, s.Channel)
	}
	activeSubscribers.Dec()
	h.log.Debug("realtime unsubscribe", zap.String("channel", s.Channel), zap.String("subscriber", s.ID))
}

// Publish delivers ev to every subscriber of channel. A subscriber whose buffer
// is full misses the event; it is counted and logged, never blocking the publisher.
func (h *Hub) Publish(channel string, ev Event) {
	ev.Channel = channel
	h.mu.RLock()
	defer h.mu.RUnlock()

	publishedEvents.WithLabelValues(string(ev.Type)).Inc()
	for _, s := range h.channels[channel] {
		select {
		case s.Events <- ev:
		default:
			droppedEvents.Inc()
			h.log.Warn("realtime subscriber buffer full, dropping event",
				zap.String("channel", channel), zap.String("subscriber", s.ID), zap.String("type", string(ev.Type)))
		}
	}
}

// Subscribers reports how many subscribers a channel has.
func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}
