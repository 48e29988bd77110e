// Package broadcast fans payment gateway callbacks out to the browser
// sessions waiting on them. The hub is process-local and best-effort: an
// event published while nobody is subscribed is simply lost, which matches
// the delivery contract of the SSE stream it feeds.
package broadcast

import "sync"

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Transaction is the parsed outcome of one gateway callback.
type Transaction struct {
	Amount            float64 `json:"amount"`
	Code              string  `json:"code"`
	Phone             string  `json:"phone"`
	CheckoutRequestID string  `json:"checkoutRequestId,omitempty"`
	Status            string  `json:"status"`
}

// Subscription is one listener's feed. C is closed on unsubscribe.
type Subscription struct {
	C chan Transaction
}

// Broadcaster is the transaction event hub. The webhook handler publishes,
// each open SSE connection subscribes. Implementations must be safe for
// concurrent use from multiple connections.
type Broadcaster interface {
	Subscribe() *Subscription
	Unsubscribe(*Subscription)
	Publish(Transaction)
	Close() error
}

// Hub is the in-memory Broadcaster used by a single server process.
type Hub struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscription]struct{})}
}

func (h *Hub) Subscribe() *Subscription {
	sub := &Subscription{C: make(chan Transaction, 8)}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.C)
		return sub
	}
	h.subs[sub] = struct{}{}
	return sub
}

func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub]; !ok {
		return
	}
	delete(h.subs, sub)
	close(sub.C)
}

// Publish delivers the event to every current subscriber. Sends never block:
// a subscriber whose buffer is full misses the event rather than stalling the
// webhook handler.
func (h *Hub) Publish(tx Transaction) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		select {
		case sub.C <- tx:
		default:
		}
	}
}

// Subscribers reports how many listeners are currently registered.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	for sub := range h.subs {
		delete(h.subs, sub)
		close(sub.C)
	}
	return nil
}
