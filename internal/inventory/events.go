package inventory

import (
	"sync"

	"github.com/andresuchdata/stockwatch/internal/domain"
)

// Listener receives the full item collection after a mutation.
type Listener func(items []domain.Item)

type subscription struct {
	id int
	fn Listener
}

// notifier fans a collection snapshot out to every listener synchronously,
// in subscription order.
type notifier struct {
	mu     sync.Mutex
	nextID int
	subs   []subscription
}

func (n *notifier) subscribe(fn Listener) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	id := n.nextID
	n.subs = append(n.subs, subscription{id: id, fn: fn})

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		for i, sub := range n.subs {
			if sub.id == id {
				n.subs = append(n.subs[:i:i], n.subs[i+1:]...)
				return
			}
		}
	}
}

func (n *notifier) publish(items []domain.Item) {
	n.mu.Lock()
	subs := append([]subscription(nil), n.subs...)
	n.mu.Unlock()

	for _, sub := range subs {
		snapshot := make([]domain.Item, len(items))
		copy(snapshot, items)
		sub.fn(snapshot)
	}
}
