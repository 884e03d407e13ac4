package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/vogiaan1904/realm-lfg/internal/models"
)

// Hub keeps the live update streams of connected members.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*Stream]struct{}
	buffer int
}

type Stream struct {
	C      <-chan models.LfgUpdate
	ch     chan models.LfgUpdate
	member string
	hub    *Hub
	once   sync.Once
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 32
	}
	return &Hub{
		subs:   make(map[string]map[*Stream]struct{}),
		buffer: buffer,
	}
}

func (h *Hub) Subscribe(member string) *Stream {
	ch := make(chan models.LfgUpdate, h.buffer)
	s := &Stream{C: ch, ch: ch, member: member, hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[member]
	if !ok {
		set = make(map[*Stream]struct{})
		h.subs[member] = set
	}
	set[s] = struct{}{}
	return s
}

// Close detaches the stream and closes its channel.
func (s *Stream) Close() {
	s.once.Do(func() {
		h := s.hub
		h.mu.Lock()
		defer h.mu.Unlock()
		if set, ok := h.subs[s.member]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(h.subs, s.member)
			}
		}
		close(s.ch)
	})
}

// Handle delivers an update to every stream of the members it concerns.
// Slow streams lose the update instead of stalling the dispatcher.
func (h *Hub) Handle(_ context.Context, u models.LfgUpdate) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	dropped := 0
	for _, m := range u.Members {
		for s := range h.subs[m] {
			select {
			case s.ch <- u.ForMember(m):
			default:
				dropped++
			}
		}
	}
	if dropped > 0 {
		return fmt.Errorf("hub: dropped update %s for %d slow streams", u.ID, dropped)
	}
	return nil
}

func (h *Hub) Connected(member string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[member])
}
