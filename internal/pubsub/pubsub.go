// Package pubsub implements SUBSCRIBE/UNSUBSCRIBE/PUBLISH/PUBSUB
// (spec.md §4.7), generalized from the teacher's internal/storage/pubsub.go.
//
// The teacher guards its channel map with a sync.RWMutex and indexes
// pattern subscriptions in a prefix trie plus a compiled-regex cache,
// because its processor and handler goroutines can reach PubSub
// concurrently, and because it supports PSUBSCRIBE. Here PUBLISH/
// (UN)SUBSCRIBE only ever run on the dispatcher's single executor
// goroutine (spec.md §5), so the mutex is dropped; pattern subscriptions
// (PSUBSCRIBE/PUNSUBSCRIBE) are out of scope entirely (spec.md §1 Non-
// goals explicitly name "pattern subscriptions"), so the trie goes with
// them. A small glob matcher survives only to back PUBSUB CHANNELS'
// optional filter argument, which is channel-listing introspection, not
// a subscription mechanism.
package pubsub

import (
	"regexp"
	"strings"
)

// Subscriber receives published messages. The dispatch/server layer
// implements this over a connection's outbound writer.
type Subscriber interface {
	ID() int64
	Deliver(msg Message)
}

// Message is one delivered pub/sub event.
type Message struct {
	Kind    string // "message"
	Channel string
	Payload []byte
}

// Hub tracks channel subscriptions.
type Hub struct {
	channels  map[string]map[int64]Subscriber
	globCache map[string]*regexp.Regexp
}

// New creates an empty hub.
func New() *Hub {
	return &Hub{
		channels:  make(map[string]map[int64]Subscriber),
		globCache: make(map[string]*regexp.Regexp),
	}
}

// Subscribe adds sub to each channel, returning sub's total subscription
// count after the change, per channel in order — matching SUBSCRIBE's
// per-channel confirmation reply.
func (h *Hub) Subscribe(sub Subscriber, channels ...string) []int {
	counts := make([]int, len(channels))
	for i, ch := range channels {
		if h.channels[ch] == nil {
			h.channels[ch] = make(map[int64]Subscriber)
		}
		h.channels[ch][sub.ID()] = sub
		counts[i] = h.totalSubscriptions(sub.ID())
	}
	return counts
}

// Unsubscribe removes sub from channels (all channels if none given).
// Returns the remaining total subscription count after each removal.
func (h *Hub) Unsubscribe(sub Subscriber, channels ...string) ([]string, []int) {
	if len(channels) == 0 {
		channels = h.subscribedChannels(sub.ID())
	}
	counts := make([]int, len(channels))
	for i, ch := range channels {
		delete(h.channels[ch], sub.ID())
		if len(h.channels[ch]) == 0 {
			delete(h.channels, ch)
		}
		counts[i] = h.totalSubscriptions(sub.ID())
	}
	return channels, counts
}

// RemoveSubscriber drops sub from every channel, called on disconnect.
func (h *Hub) RemoveSubscriber(id int64) {
	for ch, subs := range h.channels {
		delete(subs, id)
		if len(subs) == 0 {
			delete(h.channels, ch)
		}
	}
}

// Publish delivers payload to every subscriber of channel, returning the
// number of subscribers reached.
func (h *Hub) Publish(channel string, payload []byte) int {
	delivered := 0
	for _, sub := range h.channels[channel] {
		sub.Deliver(Message{Kind: "message", Channel: channel, Payload: payload})
		delivered++
	}
	return delivered
}

// Channels returns active channel names, optionally filtered by a glob
// pattern (PUBSUB CHANNELS [pattern]).
func (h *Hub) Channels(pattern string) []string {
	var out []string
	for ch := range h.channels {
		if pattern == "" || h.matchGlob(pattern, ch) {
			out = append(out, ch)
		}
	}
	return out
}

// NumSub returns the subscriber count for each requested channel, in order.
func (h *Hub) NumSub(channels []string) []int {
	counts := make([]int, len(channels))
	for i, ch := range channels {
		counts[i] = len(h.channels[ch])
	}
	return counts
}

// NumPat always reports 0: this hub carries no pattern subscriptions.
func (h *Hub) NumPat() int {
	return 0
}

func (h *Hub) totalSubscriptions(id int64) int {
	n := 0
	for _, subs := range h.channels {
		if _, ok := subs[id]; ok {
			n++
		}
	}
	return n
}

func (h *Hub) subscribedChannels(id int64) []string {
	var out []string
	for ch, subs := range h.channels {
		if _, ok := subs[id]; ok {
			out = append(out, ch)
		}
	}
	return out
}

// matchGlob matches channel against a Redis-style glob pattern (* and ?
// wildcards), the same translation the teacher's compilePattern does.
func (h *Hub) matchGlob(pattern, channel string) bool {
	re, ok := h.globCache[pattern]
	if !ok {
		quoted := regexp.QuoteMeta(pattern)
		quoted = strings.ReplaceAll(quoted, `\*`, ".*")
		quoted = strings.ReplaceAll(quoted, `\?`, ".")
		compiled, err := regexp.Compile("^" + quoted + "$")
		if err != nil {
			return false
		}
		h.globCache[pattern] = compiled
		re = compiled
	}
	return re.MatchString(channel)
}
