package producer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	kafka "github.com/vogiaan1904/realm-lfg/internal/delivery/kafka"
	"github.com/vogiaan1904/realm-lfg/internal/models"
	"github.com/vogiaan1904/realm-lfg/pkg/logger"
)

func decodeInto(v any) mocks.ValueChecker {
	return func(val []byte) error {
		return json.Unmarshal(val, v)
	}
}

func TestHandleUpdateGroupFound(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	p := NewProducer(sp, logger.InitializeTestZapLogger())
	defer p.Close()

	var (
		upd   kafka.LfgUpdateEvent
		ready kafka.DungeonReadyEvent
	)
	sp.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != kafka.TopicLfgUpdate {
			return fmt.Errorf("topic = %s", msg.Topic)
		}
		val, _ := msg.Value.Encode()
		return json.Unmarshal(val, &upd)
	})
	sp.ExpectSendMessageWithCheckerFunctionAndSucceed(decodeInto(&ready))

	u := models.LfgUpdate{
		ID:          "u1",
		Type:        models.UpdateTypeGroupFound,
		TicketID:    "t1",
		ProposalID:  "p1",
		Members:     []string{"a"},
		State:       models.TicketStateDungeon,
		PrevState:   models.TicketStateProposal,
		DungeonID:   2,
		InstanceRef: "inst-1",
		EntryTokens: map[string]string{"a": "secret"},
		Timestamp:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := p.HandleUpdate(context.Background(), u); err != nil {
		t.Fatalf("HandleUpdate() error = %v", err)
	}

	if upd.UpdateID != "u1" || upd.TypeName != "group_found" {
		t.Errorf("update event = %+v", upd)
	}
	if ready.ProposalID != "p1" || ready.InstanceRef != "inst-1" || !ready.ReadyAt.Equal(u.Timestamp) {
		t.Errorf("dungeon ready event = %+v", ready)
	}
}

func TestHandleUpdatePlain(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	p := NewProducer(sp, logger.InitializeTestZapLogger())
	defer p.Close()

	sp.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		key, _ := msg.Key.Encode()
		if string(key) != "p9" {
			return fmt.Errorf("key = %s, want proposal id", key)
		}
		return nil
	})

	u := models.LfgUpdate{ID: "u2", Type: models.UpdateTypeUpdateStatus, ProposalID: "p9"}
	if err := p.HandleUpdate(context.Background(), u); err != nil {
		t.Fatalf("HandleUpdate() error = %v", err)
	}
}

func TestHandleUpdateSendFailure(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	p := NewProducer(sp, logger.InitializeTestZapLogger())
	defer p.Close()

	broker := errors.New("broker down")
	sp.ExpectSendMessageAndFail(broker)

	u := models.LfgUpdate{ID: "u3", Type: models.UpdateTypeGroupFound, TicketID: "t", State: models.TicketStateDungeon}
	if err := p.HandleUpdate(context.Background(), u); !errors.Is(err, broker) {
		t.Errorf("HandleUpdate() error = %v, want broker error", err)
	}
}
