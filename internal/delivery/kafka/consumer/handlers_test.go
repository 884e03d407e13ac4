package consumer

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/vogiaan1904/realm-lfg/internal/delivery/kafka"
	"github.com/vogiaan1904/realm-lfg/internal/service"
	"github.com/vogiaan1904/realm-lfg/pkg/logger"
)

// fakeService records the inbound calls the consumer makes.
type fakeService struct {
	service.LfgService
	membership []service.MembershipChangedInput
	completed  []service.DungeonCompletedInput
	err        error
	// failures makes the next membership calls fail with a transient error.
	failures int
}

func (f *fakeService) HandleMembershipChanged(_ context.Context, in service.MembershipChangedInput) error {
	f.membership = append(f.membership, in)
	if f.failures > 0 {
		f.failures--
		return service.ErrEngineNotReady
	}
	return f.err
}

func (f *fakeService) HandleDungeonCompleted(_ context.Context, in service.DungeonCompletedInput) error {
	f.completed = append(f.completed, in)
	return f.err
}

func TestProcessMessage(t *testing.T) {
	svc := &fakeService{}
	c := NewConsumer(nil, svc, logger.InitializeTestZapLogger())
	ctx := context.Background()

	err := c.processMessage(ctx, &sarama.ConsumerMessage{
		Topic: kafka.TopicPartyMemberChanged,
		Value: []byte(`{"kind":"removed","member":"bob","method":2}`),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(svc.membership) != 1 || svc.membership[0].Member != "bob" || svc.membership[0].Method != 2 {
		t.Errorf("membership calls = %+v", svc.membership)
	}

	err = c.processMessage(ctx, &sarama.ConsumerMessage{
		Topic: kafka.TopicDungeonCompleted,
		Value: []byte(`{"instance_ref":"inst-7"}`),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(svc.completed) != 1 || svc.completed[0].InstanceRef != "inst-7" {
		t.Errorf("completion calls = %+v", svc.completed)
	}

	if err := c.processMessage(ctx, &sarama.ConsumerMessage{Topic: "unrelated"}); err != nil {
		t.Errorf("unknown topic error = %v", err)
	}
}

func TestPermanentFailures(t *testing.T) {
	svc := &fakeService{}
	c := NewConsumer(nil, svc, logger.InitializeTestZapLogger())

	err := c.processMessage(context.Background(), &sarama.ConsumerMessage{
		Topic: kafka.TopicDungeonCompleted,
		Value: []byte(`{not json`),
	})
	if !permanent(err) {
		t.Errorf("malformed message error = %v, want permanent", err)
	}

	svc.err = errors.New("engine busy")
	err = c.processMessage(context.Background(), &sarama.ConsumerMessage{
		Topic: kafka.TopicPartyMemberChanged,
		Value: []byte(`{"kind":"offline","member":"x"}`),
	})
	if err == nil || permanent(err) {
		t.Errorf("transient error = %v, want retryable", err)
	}

	svc.err = service.ErrInvalidInput
	err = c.processMessage(context.Background(), &sarama.ConsumerMessage{
		Topic: kafka.TopicPartyMemberChanged,
		Value: []byte(`{"kind":"bogus","member":"x"}`),
	})
	if !permanent(err) {
		t.Errorf("invalid input error = %v, want permanent", err)
	}
}

type recordingSession struct {
	sarama.ConsumerGroupSession
	ctx    context.Context
	marked []int64
}

func (s *recordingSession) Context() context.Context {
	return s.ctx
}

func (s *recordingSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.marked = append(s.marked, msg.Offset)
}

type partitionClaim struct {
	sarama.ConsumerGroupClaim
	pc sarama.PartitionConsumer
}

func (c partitionClaim) Messages() <-chan *sarama.ConsumerMessage {
	return c.pc.Messages()
}

// consumeClaim feeds values as one partition of the membership topic and
// runs ConsumeClaim until the partition is drained or the claim gives up.
func consumeClaim(t *testing.T, c *Consumer, values ...string) (*recordingSession, error) {
	t.Helper()

	cons := mocks.NewConsumer(t, nil)
	expect := cons.ExpectConsumePartition(kafka.TopicPartyMemberChanged, 0, sarama.OffsetOldest)
	for _, v := range values {
		expect.YieldMessage(&sarama.ConsumerMessage{Value: []byte(v)})
	}

	pc, err := cons.ConsumePartition(kafka.TopicPartyMemberChanged, 0, sarama.OffsetOldest)
	if err != nil {
		t.Fatal(err)
	}
	pc.AsyncClose()

	ss := &recordingSession{ctx: context.Background()}
	err = c.ConsumeClaim(ss, partitionClaim{pc: pc})
	return ss, err
}

func TestConsumeClaimRetriesTransientFailure(t *testing.T) {
	svc := &fakeService{failures: 2}
	c := NewConsumer(nil, svc, logger.InitializeTestZapLogger(), WithRetry(3, 0))

	ss, err := consumeClaim(t, c,
		`{"kind":"offline","member":"a"}`,
		`{"kind":"offline","member":"b"}`,
	)
	if err != nil {
		t.Fatalf("ConsumeClaim() error = %v", err)
	}
	if want := []int64{0, 1}; !slices.Equal(ss.marked, want) {
		t.Errorf("marked offsets = %v, want %v", ss.marked, want)
	}
	if len(svc.membership) != 4 {
		t.Errorf("membership calls = %d, want 4", len(svc.membership))
	}
}

func TestConsumeClaimStopsOnUnprocessedMessage(t *testing.T) {
	svc := &fakeService{err: service.ErrEngineNotReady}
	c := NewConsumer(nil, svc, logger.InitializeTestZapLogger(), WithRetry(2, 0))

	ss, err := consumeClaim(t, c,
		`{"kind":"offline","member":"a"}`,
		`{"kind":"offline","member":"b"}`,
	)
	if !errors.Is(err, service.ErrEngineNotReady) {
		t.Fatalf("ConsumeClaim() error = %v, want ErrEngineNotReady", err)
	}
	if len(ss.marked) != 0 {
		t.Errorf("marked offsets = %v, want none", ss.marked)
	}
	for _, in := range svc.membership {
		if in.Member != "a" {
			t.Errorf("message after the failed one was processed: %+v", in)
		}
	}
	if len(svc.membership) != 2 {
		t.Errorf("membership calls = %d, want 2", len(svc.membership))
	}
}

func TestConsumeClaimSkipsMalformedMessage(t *testing.T) {
	svc := &fakeService{}
	c := NewConsumer(nil, svc, logger.InitializeTestZapLogger(), WithRetry(3, 0))

	ss, err := consumeClaim(t, c,
		`{not json`,
		`{"kind":"offline","member":"b"}`,
	)
	if err != nil {
		t.Fatalf("ConsumeClaim() error = %v", err)
	}
	if want := []int64{0, 1}; !slices.Equal(ss.marked, want) {
		t.Errorf("marked offsets = %v, want %v", ss.marked, want)
	}
	if len(svc.membership) != 1 {
		t.Errorf("membership calls = %d, want 1", len(svc.membership))
	}
}
