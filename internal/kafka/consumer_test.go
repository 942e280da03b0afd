package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDrained = errors.New("drained")

type fakeReader struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	committed []int64
	closed    bool
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.msgs) == 0 {
		return kafka.Message{}, errDrained
	}
	m := f.msgs[0]
	f.msgs = f.msgs[1:]
	return m, nil
}

func (f *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	return nil
}

func (f *fakeReader) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func TestConsumerCommitsOnlyHandledMessages(t *testing.T) {
	fr := &fakeReader{msgs: []kafka.Message{
		{Offset: 1, Value: []byte("bad")},
		{Offset: 2, Value: []byte("good")},
		{Offset: 3, Value: []byte("good")},
	}}
	c := &Consumer{r: fr, workers: 1}

	err := c.Start(context.Background(), func(ctx context.Context, m kafka.Message) error {
		if string(m.Value) == "bad" {
			return errors.New("cannot decode")
		}
		return nil
	})
	require.ErrorIs(t, err, errDrained)

	// offset 1 failed and must not be committed, so it gets redelivered
	assert.Equal(t, []int64{2, 3}, fr.committed)
	assert.True(t, fr.closed)
}

func TestConsumerCommitsEverythingOnCleanRun(t *testing.T) {
	fr := &fakeReader{msgs: []kafka.Message{{Offset: 5}, {Offset: 6}}}
	c := &Consumer{r: fr, workers: 2}

	err := c.Start(context.Background(), func(ctx context.Context, m kafka.Message) error {
		return nil
	})
	require.ErrorIs(t, err, errDrained)
	assert.ElementsMatch(t, []int64{5, 6}, fr.committed)
}
