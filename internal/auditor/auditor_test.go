package auditor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/cuongbtq/job-status-service/internal/auditor/domain"
	"github.com/cuongbtq/job-status-service/internal/events"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ackResult struct {
	tag     uint64
	acked   bool
	requeue bool
}

type fakeAcknowledger struct {
	mu      sync.Mutex
	results []ackResult
	done    chan struct{}
	want    int
}

func newFakeAcknowledger(want int) *fakeAcknowledger {
	return &fakeAcknowledger{done: make(chan struct{}), want: want}
}

func (f *fakeAcknowledger) record(r ackResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, r)
	if len(f.results) == f.want {
		close(f.done)
	}
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	f.record(ackResult{tag: tag, acked: true})
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, multiple bool, requeue bool) error {
	f.record(ackResult{tag: tag, requeue: requeue})
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return f.Nack(tag, false, requeue)
}

func (f *fakeAcknowledger) byTag() map[uint64]ackResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[uint64]ackResult, len(f.results))
	for _, r := range f.results {
		out[r.tag] = r
	}
	return out
}

type fakeSource struct {
	deliveries chan amqp.Delivery
	err        error
	tag        string
	prefetch   int
}

func (f *fakeSource) Consume(consumerTag string, prefetchCount int) (<-chan amqp.Delivery, error) {
	f.tag = consumerTag
	f.prefetch = prefetchCount
	if f.err != nil {
		return nil, f.err
	}
	return f.deliveries, nil
}

type fakeRecorder struct {
	mu     sync.Mutex
	seen   []string
	errFor map[string]error
}

func (f *fakeRecorder) RecordTransition(_ context.Context, event events.TransitionEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, event.JobID)
	return f.errFor[event.JobID]
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func eventBody(t *testing.T, jobID string) []byte {
	t.Helper()
	body, err := json.Marshal(events.TransitionEvent{
		Type:       events.EventTypeTransition,
		JobID:      jobID,
		From:       "pending",
		To:         "completed",
		ElapsedMs:  1500,
		TimeoutMs:  1000,
		OccurredAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	return body
}

func TestAuditor_AcksAndNacks(t *testing.T) {
	okID := uuid.NewString()
	retryID := uuid.NewString()
	badDataID := uuid.NewString()

	recorder := &fakeRecorder{errFor: map[string]error{
		retryID:   domain.NewRetryableError(errors.New("connection reset")),
		badDataID: errors.New("value too long"),
	}}

	ack := newFakeAcknowledger(5)
	deliveries := make(chan amqp.Delivery, 5)
	bodies := [][]byte{
		eventBody(t, okID),
		eventBody(t, retryID),
		eventBody(t, badDataID),
		[]byte(`{not json`),
		eventBody(t, "not-a-uuid"),
	}
	for i, body := range bodies {
		deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: uint64(i + 1), Body: body}
	}

	source := &fakeSource{deliveries: deliveries}
	a := NewAuditor(&Config{
		Logger:      discardLogger(),
		Source:      source,
		Recorder:    recorder,
		ConsumerTag: "audit-test",
		Concurrency: 3,
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- a.Start(ctx) }()

	select {
	case <-ack.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for acknowledgements")
	}
	cancel()
	require.NoError(t, <-errCh)

	assert.Equal(t, "audit-test", source.tag)
	assert.Equal(t, 3, source.prefetch)

	results := ack.byTag()
	assert.Equal(t, ackResult{tag: 1, acked: true}, results[1])
	assert.Equal(t, ackResult{tag: 2, requeue: true}, results[2])
	assert.Equal(t, ackResult{tag: 3, requeue: false}, results[3])
	assert.Equal(t, ackResult{tag: 4, requeue: false}, results[4])
	assert.Equal(t, ackResult{tag: 5, requeue: false}, results[5])

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	assert.ElementsMatch(t, []string{okID, retryID, badDataID}, recorder.seen)
}

func TestAuditor_StopsWhenDeliveriesClose(t *testing.T) {
	deliveries := make(chan amqp.Delivery)
	close(deliveries)

	a := NewAuditor(&Config{
		Logger:   discardLogger(),
		Source:   &fakeSource{deliveries: deliveries},
		Recorder: &fakeRecorder{},
	})

	done := make(chan error, 1)
	go func() { done <- a.Start(context.Background()) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("auditor did not stop after delivery channel closed")
	}
}

func TestAuditor_ConsumeError(t *testing.T) {
	a := NewAuditor(&Config{
		Logger:   discardLogger(),
		Source:   &fakeSource{err: errors.New("channel closed")},
		Recorder: &fakeRecorder{},
	})

	err := a.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start consuming")
}

func TestNewAuditor_Defaults(t *testing.T) {
	a := NewAuditor(&Config{Logger: discardLogger()})

	assert.Equal(t, 1, a.concurrency)
	assert.Equal(t, 1, a.prefetchCount)
	assert.Equal(t, 5*time.Second, a.recordTimeout)
}
