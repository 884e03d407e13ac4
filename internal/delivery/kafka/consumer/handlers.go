package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/vogiaan1904/realm-lfg/internal/delivery/kafka"
	"github.com/vogiaan1904/realm-lfg/internal/service"
)

var errMalformed = errors.New("malformed message")

func (c *Consumer) HandlePartyMemberChanged(ctx context.Context, message *sarama.ConsumerMessage) error {
	var e kafka.PartyMemberChangedEvent
	if err := json.Unmarshal(message.Value, &e); err != nil {
		c.l.Errorf(ctx, "delivery.kafka.consumer.HandlePartyMemberChanged: %v", err)
		return fmt.Errorf("%w: %v", errMalformed, err)
	}

	c.l.Infow(ctx, "Party member changed",
		"kind", e.Kind,
		"member", e.Member,
	)

	if err := c.svc.HandleMembershipChanged(ctx, service.MembershipChangedInput{
		Kind:   e.Kind,
		Member: e.Member,
		Party:  e.Party,
		Method: e.Method,
	}); err != nil {
		c.l.Errorf(ctx, "delivery.kafka.consumer.HandlePartyMemberChanged: %v", err)
		return err
	}

	return nil
}

func (c *Consumer) HandleDungeonCompleted(ctx context.Context, message *sarama.ConsumerMessage) error {
	var e kafka.DungeonCompletedEvent
	if err := json.Unmarshal(message.Value, &e); err != nil {
		c.l.Errorf(ctx, "delivery.kafka.consumer.HandleDungeonCompleted: %v", err)
		return fmt.Errorf("%w: %v", errMalformed, err)
	}

	c.l.Infow(ctx, "Dungeon completed",
		"instance_ref", e.InstanceRef,
		"ticket_id", e.TicketID,
	)

	if err := c.svc.HandleDungeonCompleted(ctx, service.DungeonCompletedInput{
		InstanceRef: e.InstanceRef,
		TicketID:    e.TicketID,
		DungeonID:   e.DungeonID,
		CompletedAt: e.CompletedAt,
	}); err != nil {
		c.l.Errorf(ctx, "delivery.kafka.consumer.HandleDungeonCompleted: %v", err)
		return err
	}

	return nil
}

// permanent reports whether redelivering the message cannot help.
func permanent(err error) bool {
	return errors.Is(err, errMalformed) || errors.Is(err, service.ErrInvalidInput)
}
