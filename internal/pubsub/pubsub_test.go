package pubsub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSubscriber struct {
	id  int64
	got []Message
}

func (r *recordingSubscriber) ID() int64           { return r.id }
func (r *recordingSubscriber) Deliver(msg Message) { r.got = append(r.got, msg) }

func TestSubscribeAndPublishDirect(t *testing.T) {
	h := New()
	sub := &recordingSubscriber{id: 1}
	counts := h.Subscribe(sub, "news")
	require.Equal(t, []int{1}, counts)

	n := h.Publish("news", []byte("hello"))
	assert.Equal(t, 1, n)
	require.Len(t, sub.got, 1)
	assert.Equal(t, "message", sub.got[0].Kind)
	assert.Equal(t, []byte("hello"), sub.got[0].Payload)
}

func TestPublishReachesOnlyExactChannel(t *testing.T) {
	h := New()
	sub := &recordingSubscriber{id: 1}
	h.Subscribe(sub, "news.sports")

	h.Publish("news.weather", []byte("x"))
	assert.Len(t, sub.got, 0)

	h.Publish("news.sports", []byte("y"))
	require.Len(t, sub.got, 1)
}

func TestUnsubscribeAllWhenNoChannelsGiven(t *testing.T) {
	h := New()
	sub := &recordingSubscriber{id: 1}
	h.Subscribe(sub, "a", "b")
	channels, counts := h.Unsubscribe(sub)
	assert.ElementsMatch(t, []string{"a", "b"}, channels)
	assert.Equal(t, []int{1, 0}, counts)
}

func TestRemoveSubscriberClearsEverywhere(t *testing.T) {
	h := New()
	sub := &recordingSubscriber{id: 1}
	h.Subscribe(sub, "a")
	h.RemoveSubscriber(1)
	assert.Equal(t, 0, h.Publish("a", []byte("x")))
}

func TestNumSubAndChannelsFilter(t *testing.T) {
	h := New()
	s1 := &recordingSubscriber{id: 1}
	s2 := &recordingSubscriber{id: 2}
	h.Subscribe(s1, "a")
	h.Subscribe(s2, "a")
	h.Subscribe(s1, "b")

	assert.Equal(t, []int{2}, h.NumSub([]string{"a"}))
	assert.Equal(t, 0, h.NumPat())
	assert.ElementsMatch(t, []string{"a"}, h.Channels("a"))
}
