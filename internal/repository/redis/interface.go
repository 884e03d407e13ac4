package repository

import (
	"context"

	"github.com/vogiaan1904/realm-lfg/internal/models"
)

// TicketRepository mirrors engine tickets into Redis so other processes can
// read queue state and follow member updates without calling the engine.
type TicketRepository interface {
	// Apply folds an update into the mirror and publishes it on the
	// channel of every member it concerns.
	Apply(ctx context.Context, u models.LfgUpdate) error
	GetTicket(ctx context.Context, ticketID string) (*TicketRecord, error)
	// TicketOfMember returns the id of the ticket a member is mirrored
	// under.
	TicketOfMember(ctx context.Context, member string) (string, error)
	// GetQueuePosition returns the 1-indexed position of a waiting ticket
	// and the queue length. The position is -1 when the ticket is not
	// waiting.
	GetQueuePosition(ctx context.Context, qt models.QueueType, ticketID string) (int64, int64, error)
}
