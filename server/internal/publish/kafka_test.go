package publish

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localrank/localrank/pkg/types"
)

type fakeWriter struct {
	msgs   []kafka.Message
	calls  int
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaPublisher_PublishBatch(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w}

	snap := &types.ScoreSnapshot{
		BusinessID:    "joes",
		Name:          "Joe's Pizza",
		TimestampUnix: 1700000000,
		Score:         &types.CompositeScore{Total: 54},
	}
	other := &types.ScoreSnapshot{BusinessID: "maria", TimestampUnix: 1700000060}
	require.NoError(t, p.PublishBatch(context.Background(), []*types.ScoreSnapshot{snap, other}))

	assert.Equal(t, 1, w.calls, "batch should be written in one call")
	require.Len(t, w.msgs, 2)
	assert.Equal(t, "maria", string(w.msgs[1].Key))
	assert.Equal(t, "joes", string(w.msgs[0].Key))
	assert.EqualValues(t, 1700000000, w.msgs[0].Time.Unix())

	var got types.ScoreSnapshot
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, 54, got.Total())
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	boom := errors.New("broker unavailable")
	p := &KafkaPublisher{writer: &fakeWriter{err: boom}}

	err := p.PublishBatch(context.Background(), []*types.ScoreSnapshot{{BusinessID: "joes"}})
	assert.ErrorIs(t, err, boom)
}

func TestKafkaPublisher_EmptyBatch(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w}

	require.NoError(t, p.PublishBatch(context.Background(), nil))
	assert.Zero(t, w.calls)
}

func TestKafkaPublisher_Close(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, (&KafkaPublisher{writer: w}).Close())
	assert.True(t, w.closed)
}

func TestNewKafkaPublisher(t *testing.T) {
	p := NewKafkaPublisher([]string{"localhost:9092"}, "localrank.snapshots")
	kw, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "localrank.snapshots", kw.Topic)
}
