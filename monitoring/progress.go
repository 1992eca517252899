package monitoring

import (
	"encoding/json"
	"sync"
	"time"
)

// A ProgressBar tracks how many of a known number of items are done.
type ProgressBar struct {
	lock sync.Mutex

	ID         string
	Name       string
	StartTime  time.Time
	Total      uint64
	Finished   uint64
	InProgress uint64
}

// IncrementInProgress adds the number of in-progress items.
func (b *ProgressBar) IncrementInProgress(amount uint64) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.InProgress += amount
}

// IncrementFinished adds to the number of finished items.
func (b *ProgressBar) IncrementFinished(amount uint64) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.Finished += amount
}

// MoveInProgressToFinished turns in-progress items into finished items.
func (b *ProgressBar) MoveInProgressToFinished(amount uint64) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if amount > b.InProgress {
		amount = b.InProgress
	}

	b.InProgress -= amount
	b.Finished += amount
}

// MarshalJSON takes a consistent snapshot of the bar.
func (b *ProgressBar) MarshalJSON() ([]byte, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	return json.Marshal(struct {
		ID         string    `json:"id"`
		Name       string    `json:"name"`
		StartTime  time.Time `json:"start_time"`
		Total      uint64    `json:"total"`
		Finished   uint64    `json:"finished"`
		InProgress uint64    `json:"in_progress"`
	}{b.ID, b.Name, b.StartTime, b.Total, b.Finished, b.InProgress})
}
