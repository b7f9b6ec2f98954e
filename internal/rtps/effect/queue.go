package effect

import "github.com/rtps-go/rtps/internal/rtpsmetrics"

// Queue is the ordered outbound effect buffer every engine appends to
// during a call and the host drains afterward (spec §4.8 component table:
// "Ordered outbound effect buffer; consumer-driven drain"). Append order
// is preserved (spec §5: "Effects appended during one call are delivered
// in append order").
type Queue struct {
	items   []Effect
	metrics *rtpsmetrics.Registry
}

// NewQueue builds an empty Queue. metrics may be nil.
func NewQueue(metrics *rtpsmetrics.Registry) *Queue {
	return &Queue{metrics: metrics}
}

// Append adds e to the tail of the queue.
func (q *Queue) Append(e Effect) {
	q.items = append(q.items, e)
	q.metrics.SetQueueDepth(len(q.items))
}

// Drain returns all buffered effects in append order and empties the
// queue. This is the consumer-driven drain the host calls after each
// top-level engine operation returns.
func (q *Queue) Drain() []Effect {
	out := q.items
	q.items = nil
	q.metrics.SetQueueDepth(0)
	return out
}

// Len reports the number of effects currently buffered.
func (q *Queue) Len() int { return len(q.items) }
