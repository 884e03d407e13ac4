// Package lfg is the realm matchmaking engine: ticket store, role checks,
// the compatibility matcher and proposal negotiation, all owned by one
// coordinator goroutine.
package lfg

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vogiaan1904/realm-lfg/internal/models"
	"github.com/vogiaan1904/realm-lfg/pkg/clock"
	"github.com/vogiaan1904/realm-lfg/pkg/logger"
)

type Config struct {
	RoleCheckTimeout time.Duration
	ProposalTimeout  time.Duration
	BindTimeout      time.Duration
	BindRetryDelay   time.Duration
	ScanInterval     time.Duration
	// MaxQueueTime removes waiting tickets after this long. Zero disables
	// the sweep.
	MaxQueueTime    time.Duration
	MaxScanSteps    int
	MaxPartySize    int
	ShutdownTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		RoleCheckTimeout: 2 * time.Minute,
		ProposalTimeout:  45 * time.Second,
		BindTimeout:      15 * time.Second,
		BindRetryDelay:   2 * time.Second,
		ScanInterval:     time.Second,
		MaxQueueTime:     time.Hour,
		MaxScanSteps:     5000,
		MaxPartySize:     40,
		ShutdownTimeout:  10 * time.Second,
	}
}

type EngineStatus struct {
	IsRunning       bool      `json:"is_running"`
	StartedAt       time.Time `json:"started_at,omitempty"`
	LastScan        time.Time `json:"last_scan,omitempty"`
	Tickets         int       `json:"tickets"`
	RoleChecks      int       `json:"role_checks"`
	Proposals       int       `json:"proposals"`
	CachedResults   int       `json:"cached_results"`
	TotalProposals  int64     `json:"total_proposals"`
	TotalGroups     int64     `json:"total_groups"`
	FailedProposals int64     `json:"failed_proposals"`
	BindFailures    int64     `json:"bind_failures"`
	TeleportRetries int64     `json:"teleport_retries"`
	QueueTimeouts   int64     `json:"queue_timeouts"`
	InvariantErrors int64     `json:"invariant_errors"`
}

type Engine struct {
	cfg      Config
	catalog  Catalog
	notifier Notifier
	binder   InstanceBinder
	tokens   TokenIssuer
	clock    clock.Clock
	l        logger.Logger

	cmds      chan func()
	stopCh    chan struct{}
	wg        sync.WaitGroup
	ctx       context.Context
	ctxCancel context.CancelFunc

	// Owned by the loop goroutine.
	store      *ticketStore
	matcher    *matcher
	roleChecks map[string]*roleCheckRun
	proposals  map[string]*proposalRun

	mu        sync.RWMutex
	isRunning bool
	stopped   bool
	startedAt time.Time
	status    EngineStatus
}

type Option func(*Engine)

func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

func New(
	cfg Config,
	cat Catalog,
	notifier Notifier,
	binder InstanceBinder,
	tokens TokenIssuer,
	l logger.Logger,
	opts ...Option,
) *Engine {
	e := &Engine{
		cfg:        cfg,
		catalog:    cat,
		notifier:   notifier,
		binder:     binder,
		tokens:     tokens,
		clock:      clock.Real(),
		l:          l,
		cmds:       make(chan func(), 1024),
		stopCh:     make(chan struct{}),
		store:      newTicketStore(),
		matcher:    newMatcher(cfg.MaxScanSteps),
		roleChecks: make(map[string]*roleCheckRun),
		proposals:  make(map[string]*proposalRun),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.isRunning || e.stopped {
		return ErrEngineRunning
	}

	e.l.Infow(ctx, "Starting lfg engine",
		"scan_interval", e.cfg.ScanInterval,
		"role_check_timeout", e.cfg.RoleCheckTimeout,
		"proposal_timeout", e.cfg.ProposalTimeout,
		"max_scan_steps", e.cfg.MaxScanSteps,
	)

	e.ctx, e.ctxCancel = context.WithCancel(context.WithoutCancel(ctx))
	e.isRunning = true
	e.startedAt = e.clock.Now()
	ticker := e.clock.NewTicker(e.cfg.ScanInterval)

	e.wg.Add(1)
	go e.loop(ticker)

	return nil
}

func (e *Engine) Stop() error {
	e.mu.Lock()
	if !e.isRunning {
		e.mu.Unlock()
		return ErrEngineStopped
	}
	e.isRunning = false
	e.stopped = true
	close(e.stopCh)
	e.mu.Unlock()

	e.l.Info(e.ctx, "Stopping lfg engine...")

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	timedOut := make(chan struct{})
	timer := e.clock.AfterFunc(e.cfg.ShutdownTimeout, func() { close(timedOut) })
	defer timer.Stop()

	select {
	case <-done:
		e.l.Info(e.ctx, "lfg engine stopped gracefully")
	case <-timedOut:
		e.l.Warn(e.ctx, "lfg engine shutdown timeout exceeded")
	}
	e.ctxCancel()
	return nil
}

func (e *Engine) loop(ticker *clock.Ticker) {
	defer e.wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-e.stopCh:
			e.shutdown()
			return
		case fn := <-e.cmds:
			fn()
			if e.store.hasFresh() {
				e.scan(e.ctx)
			}
		case <-ticker.C:
			e.tick(e.ctx)
		}
	}
}

// shutdown stops every armed timer so nothing posts after the loop exits.
func (e *Engine) shutdown() {
	for _, rc := range e.roleChecks {
		rc.timer.Stop()
	}
	for _, run := range e.proposals {
		run.stopTimers()
	}
}

// do runs fn on the loop and waits for it to finish.
func (e *Engine) do(ctx context.Context, fn func()) error {
	e.mu.RLock()
	running := e.isRunning
	e.mu.RUnlock()
	if !running {
		return ErrEngineStopped
	}

	done := make(chan struct{})
	select {
	case e.cmds <- func() { defer close(done); fn() }:
	case <-e.stopCh:
		return ErrEngineStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-e.stopCh:
		return ErrEngineStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// post queues fn without waiting. Used by timers and binder callbacks.
func (e *Engine) post(fn func()) {
	select {
	case e.cmds <- fn:
	case <-e.stopCh:
	}
}

// after arms a timer whose callback runs on the loop.
func (e *Engine) after(d time.Duration, fn func()) *clock.Timer {
	return e.clock.AfterFunc(d, func() { e.post(fn) })
}

func (e *Engine) tick(ctx context.Context) {
	e.sweep(ctx)
	e.scan(ctx)
}

// sweep removes tickets that waited longer than MaxQueueTime.
func (e *Engine) sweep(ctx context.Context) {
	if e.cfg.MaxQueueTime <= 0 {
		return
	}
	cutoff := e.clock.Now().Add(-e.cfg.MaxQueueTime)
	for _, t := range e.store.expired(cutoff) {
		e.l.Infow(ctx, "Queue time exceeded, removing ticket",
			"ticket_id", t.ID,
			"joined_at", t.JoinedAt,
		)
		e.removeTicket(ctx, t, models.UpdateTypeRemovedFromQueue, models.UpdateReason(models.UpdateTypeRemovedFromQueue))
		e.count(func(s *EngineStatus) { s.QueueTimeouts++ })
	}
}

// scan anchors every fresh ticket in priority order and tries each of its
// dungeons in ascending id.
func (e *Engine) scan(ctx context.Context) {
	anchors := e.store.takeFresh()
	e.matcher.reset()

	for i, anchor := range anchors {
		if e.matcher.exhausted() {
			e.deferAnchors(ctx, anchors[i:])
			break
		}
		if anchor.State != models.TicketStateQueued || anchor.IsReserved() {
			continue
		}

		for _, dungeonID := range anchor.Dungeons {
			d, err := e.catalog.Get(dungeonID)
			if err != nil {
				e.l.Warnf(ctx, "lfg.Engine.scan: %v", err)
				continue
			}

			m, ok := e.matcher.find(d, anchor, e.store.pool(dungeonID, anchor.ID))
			if ok {
				e.createProposal(ctx, m.dungeon, m.tickets)
				break
			}
			if e.matcher.interrupted {
				break
			}
		}

		// The interrupted anchor is retried with the rest.
		if e.matcher.interrupted {
			e.deferAnchors(ctx, anchors[i:])
			break
		}
	}

	now := e.clock.Now()
	e.mu.Lock()
	e.status.LastScan = now
	e.mu.Unlock()
}

// deferAnchors hands anchors the budget did not cover to the next scan.
func (e *Engine) deferAnchors(ctx context.Context, anchors []*models.Ticket) {
	for _, t := range anchors {
		e.store.markFresh(t.ID)
	}
	e.l.Debugw(ctx, "Scan step budget exhausted", "deferred", len(anchors))
}

func (e *Engine) count(fn func(s *EngineStatus)) {
	e.mu.Lock()
	fn(&e.status)
	e.mu.Unlock()
}

// snapshot refreshes the gauges readable through Status.
func (e *Engine) snapshot() {
	e.mu.Lock()
	e.status.Tickets = e.store.len()
	e.status.RoleChecks = len(e.roleChecks)
	e.status.Proposals = len(e.proposals)
	e.status.CachedResults = e.matcher.cached()
	e.mu.Unlock()
}

func (e *Engine) Status() EngineStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s := e.status
	s.IsRunning = e.isRunning
	s.StartedAt = e.startedAt
	return s
}

// emit stamps and hands an update to the notifier.
func (e *Engine) emit(ctx context.Context, u models.LfgUpdate) {
	u.ID = uuid.NewString()
	u.Timestamp = e.clock.Now()
	e.notifier.Notify(ctx, u)
}

// transition moves a ticket to a new state and emits the one update that
// describes the move.
func (e *Engine) transition(ctx context.Context, t *models.Ticket, to models.TicketState, u models.LfgUpdate) {
	prev := t.State
	t.State = to
	t.UpdatedAt = e.clock.Now()

	u.TicketID = t.ID
	u.Members = slices.Clone(t.Members)
	u.QueueType = t.QueueType
	u.Dungeons = slices.Clone(t.Dungeons)
	u.PrevState = prev
	u.State = to
	if to.InQueue() {
		u.QueuedAt = t.JoinedAt
	}
	e.emit(ctx, u)
	e.snapshot()
}

// removeTicket moves a ticket to None and destroys it.
func (e *Engine) removeTicket(ctx context.Context, t *models.Ticket, typ models.UpdateType, reason models.Reason) {
	e.store.remove(t.ID)
	e.matcher.forget(t.ID)
	e.transition(ctx, t, models.TicketStateNone, models.LfgUpdate{Type: typ, Reason: reason})
}

// enqueue moves a ticket into the waiting pool. Raid browser tickets are
// listed instead of matched.
func (e *Engine) enqueue(ctx context.Context, t *models.Ticket, u models.LfgUpdate) {
	e.transition(ctx, t, models.TicketStateQueued, u)
	if t.QueueType == models.QueueTypeRaidBrowser {
		e.transition(ctx, t, models.TicketStateRaidBrowser, models.LfgUpdate{Type: models.UpdateTypeUpdateStatus})
		return
	}
	e.store.markFresh(t.ID)
}
