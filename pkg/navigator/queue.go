package navigator

import "sync"

// pendingQueue holds fragment-mode navigations waiting for their hashchange
// notification. Its length equals the number of issued, unresolved
// fragment-mode navigations. The navigator keeps a second one for
// navigations whose activation task is queued on the loop.
type pendingQueue struct {
	mu    sync.Mutex
	items []*Navigation
}

func (q *pendingQueue) push(nav *Navigation) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, nav)
	return len(q.items)
}

// shift removes and returns the oldest entry, or nil.
func (q *pendingQueue) shift() (*Navigation, int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, 0
	}
	nav := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return nav, len(q.items)
}

// remove deletes nav wherever it is in the queue.
func (q *pendingQueue) remove(nav *Navigation) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, item := range q.items {
		if item == nav {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return
		}
	}
}

// drain removes and returns every entry.
func (q *pendingQueue) drain() []*Navigation {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

func (q *pendingQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
