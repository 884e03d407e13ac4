package lfg

import (
	"slices"
	"time"

	"github.com/vogiaan1904/realm-lfg/internal/models"
)

// ticketStore is owned by the engine loop and never locked.
type ticketStore struct {
	tickets   map[string]*models.Ticket
	byMember  map[string]string
	byDungeon map[uint32]map[string]struct{}
	byQueue   map[models.QueueType]map[string]struct{}
	fresh     map[string]struct{}
}

func newTicketStore() *ticketStore {
	return &ticketStore{
		tickets:   make(map[string]*models.Ticket),
		byMember:  make(map[string]string),
		byDungeon: make(map[uint32]map[string]struct{}),
		byQueue:   make(map[models.QueueType]map[string]struct{}),
		fresh:     make(map[string]struct{}),
	}
}

func (s *ticketStore) add(t *models.Ticket) {
	s.tickets[t.ID] = t
	for _, m := range t.Members {
		s.byMember[m] = t.ID
	}
	for _, d := range t.Dungeons {
		set, ok := s.byDungeon[d]
		if !ok {
			set = make(map[string]struct{})
			s.byDungeon[d] = set
		}
		set[t.ID] = struct{}{}
	}
	set, ok := s.byQueue[t.QueueType]
	if !ok {
		set = make(map[string]struct{})
		s.byQueue[t.QueueType] = set
	}
	set[t.ID] = struct{}{}
}

func (s *ticketStore) remove(id string) *models.Ticket {
	t, ok := s.tickets[id]
	if !ok {
		return nil
	}
	delete(s.tickets, id)
	delete(s.fresh, id)
	s.unindexMembers(t)
	for _, d := range t.Dungeons {
		delete(s.byDungeon[d], id)
	}
	delete(s.byQueue[t.QueueType], id)
	return t
}

// unindexMembers frees the members to queue again while the ticket itself
// is kept, as for tickets that moved into a dungeon.
func (s *ticketStore) unindexMembers(t *models.Ticket) {
	for _, m := range t.Members {
		if s.byMember[m] == t.ID {
			delete(s.byMember, m)
		}
	}
}

func (s *ticketStore) get(id string) *models.Ticket {
	return s.tickets[id]
}

func (s *ticketStore) byMemberID(member string) *models.Ticket {
	id, ok := s.byMember[member]
	if !ok {
		return nil
	}
	return s.tickets[id]
}

func (s *ticketStore) len() int {
	return len(s.tickets)
}

func (s *ticketStore) markFresh(id string) {
	s.fresh[id] = struct{}{}
}

func (s *ticketStore) hasFresh() bool {
	return len(s.fresh) > 0
}

// takeFresh drains the fresh set and returns the tickets that are still
// queued, oldest first.
func (s *ticketStore) takeFresh() []*models.Ticket {
	out := make([]*models.Ticket, 0, len(s.fresh))
	for id := range s.fresh {
		if t, ok := s.tickets[id]; ok && t.State == models.TicketStateQueued && !t.IsReserved() {
			out = append(out, t)
		}
	}
	clear(s.fresh)
	sortByPriority(out)
	return out
}

// pool returns the queued, unreserved tickets accepting dungeon, except
// the anchor, largest first and then by priority.
func (s *ticketStore) pool(dungeon uint32, anchor string) []*models.Ticket {
	var out []*models.Ticket
	for id := range s.byDungeon[dungeon] {
		if id == anchor {
			continue
		}
		t := s.tickets[id]
		if t.State != models.TicketStateQueued || t.IsReserved() {
			continue
		}
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b *models.Ticket) int {
		if a.Size() != b.Size() {
			return b.Size() - a.Size()
		}
		return comparePriority(a, b)
	})
	return out
}

// inQueue returns the tickets of a queue type that still hold a queue
// slot, by priority.
func (s *ticketStore) inQueue(qt models.QueueType) []*models.Ticket {
	var out []*models.Ticket
	for id := range s.byQueue[qt] {
		if t := s.tickets[id]; t.State.InQueue() {
			out = append(out, t)
		}
	}
	sortByPriority(out)
	return out
}

// expired returns waiting tickets that joined at or before cutoff.
func (s *ticketStore) expired(cutoff time.Time) []*models.Ticket {
	var out []*models.Ticket
	for _, t := range s.tickets {
		if t.State != models.TicketStateQueued && t.State != models.TicketStateRaidBrowser {
			continue
		}
		if !t.JoinedAt.After(cutoff) {
			out = append(out, t)
		}
	}
	sortByPriority(out)
	return out
}

func (s *ticketStore) byInstance(ref string) []*models.Ticket {
	var out []*models.Ticket
	for _, t := range s.tickets {
		if t.State == models.TicketStateDungeon && t.InstanceRef == ref {
			out = append(out, t)
		}
	}
	sortByPriority(out)
	return out
}

func comparePriority(a, b *models.Ticket) int {
	switch {
	case a.Before(b):
		return -1
	case b.Before(a):
		return 1
	default:
		return 0
	}
}

func sortByPriority(ts []*models.Ticket) {
	slices.SortFunc(ts, comparePriority)
}
