package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	got    []Event
	err    error
	closed bool
}

func (r *recorder) Publish(_ context.Context, ev Event) error {
	r.got = append(r.got, ev)
	return r.err
}

func (r *recorder) Close() error {
	r.closed = true
	return nil
}

func TestMultiPublishesToAll(t *testing.T) {
	a, b := &recorder{}, &recorder{err: errors.New("broker down")}
	m := Multi{a, b, Nop{}}

	err := m.Publish(context.Background(), Event{Type: TypeChurnScored, ConversationID: "c1"})
	assert.ErrorContains(t, err, "broker down")
	assert.Len(t, a.got, 1)
	assert.Len(t, b.got, 1)

	assert.NoError(t, m.Close())
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}

func TestKafkaPublisherSkipsOtherTypes(t *testing.T) {
	p := NewKafkaPublisher([]string{"127.0.0.1:1"}, "")
	defer p.Close()
	// returns before touching the broker
	assert.NoError(t, p.Publish(context.Background(), Event{Type: TypeAnalysisCompleted}))
}
