package audit

import "wallet-reconcile-go/internal/models"

// replayQueue walks records in order and allows inserting before the current one
type replayQueue struct {
	items  []*models.Record
	cursor int
}

func newReplayQueue(records []*models.Record) *replayQueue {
	items := make([]*models.Record, len(records))
	copy(items, records)
	return &replayQueue{items: items}
}

func (q *replayQueue) more() bool { return q.cursor < len(q.items) }

func (q *replayQueue) current() *models.Record { return q.items[q.cursor] }

func (q *replayQueue) advance() { q.cursor++ }

// insertBeforeCurrent places r ahead of the current record; the cursor keeps pointing at the current one
func (q *replayQueue) insertBeforeCurrent(r *models.Record) {
	q.items = append(q.items, nil)
	copy(q.items[q.cursor+1:], q.items[q.cursor:])
	q.items[q.cursor] = r
	q.cursor++
}

func (q *replayQueue) records() []*models.Record { return q.items }
