package workflow

import (
	"encoding/json"
	"fmt"

	"tether/internal/discovery"
	"tether/internal/queue"
)

// ItemFromSource builds the queue row for a discovered session. The typed
// columns carry what listings filter and sort on; the full source rides
// along as JSON and is decoded again when a worker claims the item.
func ItemFromSource(src *discovery.Source) (*queue.Item, error) {
	plan, err := json.Marshal(src)
	if err != nil {
		return nil, fmt.Errorf("encode session plan: %w", err)
	}
	item := &queue.Item{
		SessionKey:     src.Key(),
		Experiment:     src.Experiment,
		Group:          src.Group,
		Treatment:      src.Treatment,
		SubjectID:      src.Subject,
		BehaviorPath:   src.BehaviorPath,
		PhotometryPath: src.TankPath,
		PlanJSON:       string(plan),
		Status:         queue.StatusPending,
	}
	if !src.Start.IsZero() {
		item.StartDate = src.Start.Format("01/02/06")
		item.StartTime = src.Start.Format("15:04:05")
	}
	return item, nil
}

// SourceFromItem decodes the session plan a queue item was enqueued with.
func SourceFromItem(item *queue.Item) (*discovery.Source, error) {
	if item.PlanJSON == "" {
		return nil, fmt.Errorf("queue item %d has no session plan", item.ID)
	}
	src := &discovery.Source{}
	if err := json.Unmarshal([]byte(item.PlanJSON), src); err != nil {
		return nil, fmt.Errorf("decode session plan of item %d: %w", item.ID, err)
	}
	return src, nil
}
