package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vogiaan1904/realm-lfg/internal/models"
	"github.com/vogiaan1904/realm-lfg/pkg/logger"
)

var ErrTicketNotFound = errors.New("ticket not mirrored")

// TicketRecord is the mirrored view of a ticket.
type TicketRecord struct {
	ID          string             `json:"id"`
	Members     []string           `json:"members"`
	Dungeons    []uint32           `json:"dungeons,omitempty"`
	QueueType   models.QueueType   `json:"queue_type"`
	State       models.TicketState `json:"state"`
	ProposalID  string             `json:"proposal_id,omitempty"`
	DungeonID   uint32             `json:"dungeon_id,omitempty"`
	InstanceRef string             `json:"instance_ref,omitempty"`
	QueuedAt    time.Time          `json:"queued_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

type redisTicketRepository struct {
	cli *redis.Client
	ttl time.Duration
	l   logger.Logger
}

func NewRedisTicketRepository(cli *redis.Client, ttl time.Duration, l logger.Logger) TicketRepository {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &redisTicketRepository{
		cli: cli,
		ttl: ttl,
		l:   l,
	}
}

func (r *redisTicketRepository) Apply(ctx context.Context, u models.LfgUpdate) error {
	pipe := r.cli.TxPipeline()

	if u.IsTransition() {
		if err := r.stageTicket(ctx, pipe, u); err != nil {
			r.l.Errorf(ctx, "redisTicketRepository.Apply: %v", err)
			return err
		}
	}

	for _, m := range u.Members {
		data, err := json.Marshal(u.ForMember(m))
		if err != nil {
			r.l.Errorf(ctx, "redisTicketRepository.Apply: %v", err)
			return fmt.Errorf("failed to marshal update: %w", err)
		}
		pipe.Publish(ctx, UpdatesChannel(m), data)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		r.l.Errorf(ctx, "redisTicketRepository.Apply: %v", err)
		return err
	}

	r.l.Debugf(ctx, "Update mirrored: id=%s type=%s ticket=%s state=%s",
		u.ID, u.Type, u.TicketID, u.State)

	return nil
}

func (r *redisTicketRepository) stageTicket(ctx context.Context, pipe redis.Pipeliner, u models.LfgUpdate) error {
	tKey := ticketKey(u.TicketID)
	qKey := queueKey(u.QueueType)

	if terminal(u.State) {
		pipe.Del(ctx, tKey)
		pipe.ZRem(ctx, qKey, u.TicketID)
		// Member keys were released when the ticket entered its dungeon
		// and may point at a newer ticket by now.
		if u.PrevState != models.TicketStateDungeon {
			for _, m := range u.Members {
				pipe.Del(ctx, memberKey(m))
			}
		}
		return nil
	}

	rec := recordOf(u)
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal ticket: %w", err)
	}
	pipe.Set(ctx, tKey, data, r.ttl)

	if waiting(u.State) {
		pipe.ZAdd(ctx, qKey, redis.Z{
			Score:  float64(u.QueuedAt.UnixMilli()),
			Member: u.TicketID,
		})
	} else {
		pipe.ZRem(ctx, qKey, u.TicketID)
	}

	// Members of a ticket that reached its dungeon may queue again.
	for _, m := range u.Members {
		if u.State == models.TicketStateDungeon {
			pipe.Del(ctx, memberKey(m))
		} else {
			pipe.Set(ctx, memberKey(m), u.TicketID, r.ttl)
		}
	}
	return nil
}

func (r *redisTicketRepository) GetTicket(ctx context.Context, ticketID string) (*TicketRecord, error) {
	data, err := r.cli.Get(ctx, ticketKey(ticketID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTicketNotFound
		}
		r.l.Errorf(ctx, "redisTicketRepository.GetTicket: %v", err)
		return nil, err
	}

	var rec TicketRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		r.l.Errorf(ctx, "redisTicketRepository.GetTicket: %v", err)
		return nil, err
	}
	return &rec, nil
}

func (r *redisTicketRepository) TicketOfMember(ctx context.Context, member string) (string, error) {
	id, err := r.cli.Get(ctx, memberKey(member)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrTicketNotFound
		}
		r.l.Errorf(ctx, "redisTicketRepository.TicketOfMember: %v", err)
		return "", err
	}
	return id, nil
}

func (r *redisTicketRepository) GetQueuePosition(ctx context.Context, qt models.QueueType, ticketID string) (int64, int64, error) {
	qKey := queueKey(qt)

	pipe := r.cli.Pipeline()
	rankCmd := pipe.ZRank(ctx, qKey, ticketID)
	cardCmd := pipe.ZCard(ctx, qKey)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		r.l.Errorf(ctx, "redisTicketRepository.GetQueuePosition: %v", err)
		return 0, 0, err
	}

	length := cardCmd.Val()
	rank, err := rankCmd.Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return -1, length, nil
		}
		r.l.Errorf(ctx, "redisTicketRepository.GetQueuePosition: %v", err)
		return 0, 0, err
	}

	return rank + 1, length, nil
}

func recordOf(u models.LfgUpdate) TicketRecord {
	rec := TicketRecord{
		ID:          u.TicketID,
		Members:     u.Members,
		Dungeons:    u.Dungeons,
		QueueType:   u.QueueType,
		State:       u.State,
		DungeonID:   u.DungeonID,
		InstanceRef: u.InstanceRef,
		QueuedAt:    u.QueuedAt,
		UpdatedAt:   u.Timestamp,
	}
	// Release updates still name the proposal that let the ticket go.
	if u.State == models.TicketStateProposal {
		rec.ProposalID = u.ProposalID
	}
	return rec
}

func terminal(s models.TicketState) bool {
	return s == models.TicketStateNone || s == models.TicketStateFinishedDungeon
}

// waiting reports whether a ticket holds a queue position.
func waiting(s models.TicketState) bool {
	return s == models.TicketStateQueued || s == models.TicketStateRaidBrowser
}

func ticketKey(id string) string {
	return fmt.Sprintf("lfg:ticket:%s", id)
}

func memberKey(member string) string {
	return fmt.Sprintf("lfg:member:%s", member)
}

func queueKey(qt models.QueueType) string {
	return fmt.Sprintf("lfg:queue:%d", uint8(qt))
}

// UpdatesChannel is the pub/sub channel carrying a member's updates.
func UpdatesChannel(member string) string {
	return fmt.Sprintf("lfg:updates:%s", member)
}
