package compute

import (
	"fmt"
	"log"
	"strings"
	"time"
)

// Observer receives structured events from provisioning and teardown.
type Observer interface {
	Event(event Event)
}

// Event is one structured orchestration event.
type Event struct {
	Type      EventType
	Tag       string
	Message   string
	Resource  string // instance id, key pair name or security group name
	Timestamp time.Time
	Fields    map[string]string
}

// EventType classifies orchestration events.
type EventType string

const (
	// EventCycleStarted indicates a launch cycle has started.
	EventCycleStarted EventType = "cycle.started"
	// EventCycleCompleted indicates a launch cycle completed.
	EventCycleCompleted EventType = "cycle.completed"

	// EventResourceCreated indicates an ancillary resource was created.
	EventResourceCreated EventType = "resource.created"
	// EventResourceReused indicates an existing ancillary resource was reused.
	EventResourceReused EventType = "resource.reused"
	// EventResourceDeleted indicates an ancillary resource was deleted.
	EventResourceDeleted EventType = "resource.deleted"

	// EventNodeRunning indicates a node reached running state.
	EventNodeRunning EventType = "node.running"
	// EventNodeConfigured indicates post-boot configuration succeeded.
	EventNodeConfigured EventType = "node.configured"
	// EventNodeConfigureFailed indicates configuration failed and the node
	// is being torn down.
	EventNodeConfigureFailed EventType = "node.configure_failed"
	// EventNodeTerminated indicates a node was confirmed terminated.
	EventNodeTerminated EventType = "node.terminated"
)

// ConsoleObserver implements Observer using the standard log package.
type ConsoleObserver struct{}

// NewConsoleObserver creates a console-based observer.
func NewConsoleObserver() *ConsoleObserver {
	return &ConsoleObserver{}
}

// Event implements Observer.
func (o *ConsoleObserver) Event(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	log.Print(formatEvent(event))
}

func formatEvent(event Event) string {
	var parts []string
	parts = append(parts, string(event.Type))
	if event.Tag != "" {
		parts = append(parts, fmt.Sprintf("[%s]", event.Tag))
	}
	if event.Resource != "" {
		parts = append(parts, fmt.Sprintf("resource=%s", event.Resource))
	}
	parts = append(parts, event.Message)
	if len(event.Fields) > 0 {
		var fieldParts []string
		for k, v := range event.Fields {
			fieldParts = append(fieldParts, fmt.Sprintf("%s=%s", k, v))
		}
		parts = append(parts, fmt.Sprintf("(%s)", strings.Join(fieldParts, ", ")))
	}
	return strings.Join(parts, " ")
}

// NopObserver discards all events.
type NopObserver struct{}

// Event implements Observer.
func (NopObserver) Event(Event) {}
