package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turnera/turnos-ai-platform/pkg/logging"
)

type recordingProcessor struct {
	mu       sync.Mutex
	messages []InboundMessage
	err      error
	done     chan struct{}
}

func newRecordingProcessor(expected int) *recordingProcessor {
	return &recordingProcessor{done: make(chan struct{}, expected)}
}

func (p *recordingProcessor) Process(_ context.Context, msg InboundMessage) error {
	p.mu.Lock()
	p.messages = append(p.messages, msg)
	p.mu.Unlock()
	p.done <- struct{}{}
	return p.err
}

func (p *recordingProcessor) received() []InboundMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]InboundMessage(nil), p.messages...)
}

func waitFor(t *testing.T, ch chan struct{}, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for message %d of %d", i+1, n)
		}
	}
}

func TestWorkerProcessesPublishedMessages(t *testing.T) {
	queue := NewMemoryQueue(8)
	publisher := NewPublisher(queue, logging.New("error"))
	processor := newRecordingProcessor(2)
	worker := NewWorker(processor, queue, logging.New("error"), WithWorkerCount(1), WithReceiveWaitSeconds(1))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker.Start(ctx)

	require.NoError(t, publisher.Enqueue(ctx, InboundMessage{OrgID: "org-1", From: "+541100000001", Body: "hola"}))
	require.NoError(t, publisher.Enqueue(ctx, InboundMessage{OrgID: "org-1", From: "+541100000002", Body: "quiero un turno"}))

	waitFor(t, processor.done, 2)
	cancel()
	worker.Wait()

	got := processor.received()
	require.Len(t, got, 2)
	bodies := []string{got[0].Body, got[1].Body}
	assert.Contains(t, bodies, "hola")
	assert.Contains(t, bodies, "quiero un turno")
}

func TestWorkerDropsMalformedJobs(t *testing.T) {
	queue := NewMemoryQueue(8)
	processor := newRecordingProcessor(1)
	worker := NewWorker(processor, queue, logging.New("error"), WithWorkerCount(1), WithReceiveWaitSeconds(1))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, queue.Send(ctx, "not json"))
	publisher := NewPublisher(queue, logging.New("error"))
	require.NoError(t, publisher.Enqueue(ctx, InboundMessage{OrgID: "org-1", From: "+541100000001", Body: "hola"}))

	worker.Start(ctx)
	waitFor(t, processor.done, 1)
	cancel()
	worker.Wait()

	got := processor.received()
	require.Len(t, got, 1)
	assert.Equal(t, "hola", got[0].Body)
}

func TestWorkerStopsOnCancel(t *testing.T) {
	queue := NewMemoryQueue(1)
	processor := newRecordingProcessor(1)
	worker := NewWorker(processor, queue, logging.New("error"), WithWorkerCount(2), WithReceiveWaitSeconds(1))

	ctx, cancel := context.WithCancel(context.Background())
	worker.Start(ctx)
	cancel()

	finished := make(chan struct{})
	go func() {
		worker.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(3 * time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
}

// fakeQueue hands out its pending messages once and records deletions.
type fakeQueue struct {
	mu      sync.Mutex
	pending []queueMessage
	deleted []string
}

func (q *fakeQueue) Send(_ context.Context, body string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, queueMessage{ID: body, Body: body, ReceiptHandle: "rh-" + body})
	return nil
}

func (q *fakeQueue) Receive(ctx context.Context, _ int, _ int) ([]queueMessage, error) {
	q.mu.Lock()
	if len(q.pending) > 0 {
		msgs := q.pending
		q.pending = nil
		q.mu.Unlock()
		return msgs, nil
	}
	q.mu.Unlock()
	<-ctx.Done()
	return nil, ctx.Err()
}

func (q *fakeQueue) Delete(_ context.Context, receiptHandle string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.deleted = append(q.deleted, receiptHandle)
	return nil
}

func (q *fakeQueue) deletions() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.deleted...)
}

func queuedJob(t *testing.T, receiptHandle string) queueMessage {
	t.Helper()
	_, body, err := encodePayload(queuePayload{Message: InboundMessage{OrgID: "org-1", From: "+541100000001", Body: "hola"}})
	require.NoError(t, err)
	return queueMessage{ID: "job-1", Body: body, ReceiptHandle: receiptHandle}
}

func TestWorkerDropsPermanentFailures(t *testing.T) {
	queue := &fakeQueue{pending: []queueMessage{queuedJob(t, "rh-1")}}
	processor := newRecordingProcessor(1)
	processor.err = fmt.Errorf("invalid org id %q: %w", "not-a-uuid", ErrPermanent)
	worker := NewWorker(processor, queue, logging.New("error"), WithWorkerCount(1))

	ctx, cancel := context.WithCancel(context.Background())
	worker.Start(ctx)
	waitFor(t, processor.done, 1)
	cancel()
	worker.Wait()

	assert.Equal(t, []string{"rh-1"}, queue.deletions())
}

func TestWorkerLeavesTransientFailuresForRedelivery(t *testing.T) {
	queue := &fakeQueue{pending: []queueMessage{queuedJob(t, "rh-1")}}
	processor := newRecordingProcessor(1)
	processor.err = errors.New("database unavailable")
	worker := NewWorker(processor, queue, logging.New("error"), WithWorkerCount(1))

	ctx, cancel := context.WithCancel(context.Background())
	worker.Start(ctx)
	waitFor(t, processor.done, 1)
	cancel()
	worker.Wait()

	assert.Empty(t, queue.deletions())
}

func TestWorkerLeavesBusyConversationsForRedelivery(t *testing.T) {
	queue := &fakeQueue{pending: []queueMessage{queuedJob(t, "rh-1")}}
	processor := newRecordingProcessor(1)
	processor.err = ErrLockBusy
	worker := NewWorker(processor, queue, logging.New("error"), WithWorkerCount(1))

	ctx, cancel := context.WithCancel(context.Background())
	worker.Start(ctx)
	waitFor(t, processor.done, 1)
	cancel()
	worker.Wait()

	assert.Empty(t, queue.deletions())
}

func TestPublisherEncodesPayload(t *testing.T) {
	queue := NewMemoryQueue(1)
	publisher := NewPublisher(queue, logging.New("error"))

	msg := InboundMessage{OrgID: "org-1", From: "+541100000001", Body: "hola", MessageSID: "SM123"}
	require.NoError(t, publisher.Enqueue(context.Background(), msg))

	received, err := queue.Receive(context.Background(), 1, 0)
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Contains(t, received[0].Body, `"SM123"`)
	assert.Contains(t, received[0].Body, `"hola"`)
}
