package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	kafka "github.com/vogiaan1904/realm-lfg/internal/delivery/kafka"
	"github.com/vogiaan1904/realm-lfg/internal/models"
	"github.com/vogiaan1904/realm-lfg/pkg/logger"
)

type Producer interface {
	PublishUpdate(ctx context.Context, event kafka.LfgUpdateEvent) error
	PublishDungeonReady(ctx context.Context, event kafka.DungeonReadyEvent) error
	// HandleUpdate publishes an engine update and, for a group that
	// reached its dungeon, the dungeon-ready event.
	HandleUpdate(ctx context.Context, u models.LfgUpdate) error
	Close() error
}

type implProducer struct {
	l    logger.Logger
	prod sarama.SyncProducer
}

func NewProducer(prod sarama.SyncProducer, l logger.Logger) Producer {
	return &implProducer{
		l:    l,
		prod: prod,
	}
}

func (p *implProducer) PublishUpdate(ctx context.Context, event kafka.LfgUpdateEvent) error {
	val, err := json.Marshal(event)
	if err != nil {
		p.l.Errorf(ctx, "delivery.kafka.producer.PublishUpdate: %v", err)
		return err
	}

	// Partition by ticket so a ticket's updates stay ordered. Proposal
	// progress without a ticket goes by proposal.
	key := event.TicketID
	if key == "" {
		key = event.ProposalID
	}
	return p.send(kafka.TopicLfgUpdate, key, val)
}

func (p *implProducer) PublishDungeonReady(ctx context.Context, event kafka.DungeonReadyEvent) error {
	event.Timestamp = time.Now()
	val, err := json.Marshal(event)
	if err != nil {
		p.l.Errorf(ctx, "delivery.kafka.producer.PublishDungeonReady: %v", err)
		return err
	}

	return p.send(kafka.TopicDungeonReady, event.ProposalID, val)
}

func (p *implProducer) HandleUpdate(ctx context.Context, u models.LfgUpdate) error {
	if err := p.PublishUpdate(ctx, kafka.NewLfgUpdateEvent(u)); err != nil {
		return err
	}

	if u.Type != models.UpdateTypeGroupFound || u.State != models.TicketStateDungeon {
		return nil
	}
	return p.PublishDungeonReady(ctx, kafka.DungeonReadyEvent{
		ProposalID:  u.ProposalID,
		TicketID:    u.TicketID,
		DungeonID:   u.DungeonID,
		InstanceRef: u.InstanceRef,
		Members:     u.Members,
		Roster:      u.Roster,
		ReadyAt:     u.Timestamp,
	})
}

func (p *implProducer) send(topic, key string, val []byte) error {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(val),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("timestamp"),
				Value: []byte(time.Now().Format(time.RFC3339)),
			},
		},
	}

	_, _, err := p.prod.SendMessage(msg)
	return err
}

func (p *implProducer) Close() error {
	if err := p.prod.Close(); err != nil {
		return err
	}

	return nil
}
