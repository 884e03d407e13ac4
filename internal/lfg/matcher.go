package lfg

import (
	"slices"
	"strconv"
	"strings"

	"github.com/vogiaan1904/realm-lfg/internal/catalog"
	"github.com/vogiaan1904/realm-lfg/internal/models"
)

// matcher packs queued tickets into full groups. Results are cached per
// dungeon and ticket combination; BadStates is never cached since it
// depends on the moment of the check.
type matcher struct {
	maxSteps int
	steps    int
	// interrupted is set when the budget ran out with combinations left
	// to try.
	interrupted bool

	cache    map[string]models.Compatibility
	byTicket map[string][]string
}

func newMatcher(maxSteps int) *matcher {
	return &matcher{
		maxSteps: maxSteps,
		cache:    make(map[string]models.Compatibility),
		byTicket: make(map[string][]string),
	}
}

type match struct {
	dungeon catalog.Dungeon
	tickets []*models.Ticket
}

// reset starts a new step budget.
func (m *matcher) reset() {
	m.steps = 0
	m.interrupted = false
}

func (m *matcher) exhausted() bool {
	return m.maxSteps > 0 && m.steps >= m.maxSteps
}

// find looks for a full group around anchor in one dungeon pool. pool must
// not contain the anchor.
func (m *matcher) find(d catalog.Dungeon, anchor *models.Ticket, pool []*models.Ticket) (match, bool) {
	group := []*models.Ticket{anchor}
	res := m.check(d, group)
	if anchor.BestCompatibility.Less(res) {
		anchor.BestCompatibility = res
	}

	switch {
	case res == models.CompatibilityMatch:
		return match{dungeon: d, tickets: group}, true
	case !res.Retained():
		return match{}, false
	}

	found, ok := m.extend(d, group, pool, 0)
	if !ok {
		return match{}, false
	}
	anchor.BestCompatibility = models.CompatibilityMatch
	return match{dungeon: d, tickets: found}, true
}

// extend grows group depth first with pool[from:]. Terminal results prune
// the branch. Only combinations missing from the cache cost a step, so a
// scan cut short by the budget resumes where it stopped.
func (m *matcher) extend(d catalog.Dungeon, group, pool []*models.Ticket, from int) ([]*models.Ticket, bool) {
	for i := from; i < len(pool); i++ {
		candidate := append(group[:len(group):len(group)], pool[i])

		res, ok := m.cachedResult(d, candidate)
		if !ok {
			if m.exhausted() {
				m.interrupted = true
				return nil, false
			}
			m.steps++
			res = m.check(d, candidate)
		}

		switch {
		case res == models.CompatibilityMatch:
			return candidate, true
		case res.Terminal():
			continue
		}

		if found, ok := m.extend(d, candidate, pool, i+1); ok {
			return found, true
		}
		if m.interrupted {
			return nil, false
		}
	}
	return nil, false
}

func (m *matcher) cachedResult(d catalog.Dungeon, group []*models.Ticket) (models.Compatibility, bool) {
	res, ok := m.cache[cacheKey(d.ID, group)]
	return res, ok
}

func (m *matcher) check(d catalog.Dungeon, group []*models.Ticket) models.Compatibility {
	if res, ok := m.cachedResult(d, group); ok {
		return res
	}

	key := cacheKey(d.ID, group)
	res := checkCompatibility(d, group)
	if res == models.CompatibilityBadStates {
		return res
	}
	m.cache[key] = res
	for _, t := range group {
		m.byTicket[t.ID] = append(m.byTicket[t.ID], key)
	}
	return res
}

// forget drops every cached combination that includes the ticket.
func (m *matcher) forget(ticketID string) {
	for _, key := range m.byTicket[ticketID] {
		delete(m.cache, key)
	}
	delete(m.byTicket, ticketID)
}

func (m *matcher) cached() int {
	return len(m.cache)
}

func cacheKey(dungeon uint32, group []*models.Ticket) string {
	ids := make([]string, len(group))
	for i, t := range group {
		ids[i] = t.ID
	}
	slices.Sort(ids)
	return strconv.FormatUint(uint64(dungeon), 10) + ":" + strings.Join(ids, ",")
}
