package webhooks

import "fmt"

// EventType represents the type of webhook event
type EventType string

const (
	EventEntityCreated       EventType = "entity.created"
	EventEntityUpdated       EventType = "entity.updated"
	EventEntityDeleted       EventType = "entity.deleted"
	EventRelationshipCreated EventType = "relationship.created"
	EventRelationshipUpdated EventType = "relationship.updated"
	EventRelationshipDeleted EventType = "relationship.deleted"
	EventSearchExecuted      EventType = "search.executed"
	EventSavedSearchExecuted EventType = "saved_search.executed"
	EventReportGenerated     EventType = "report.generated"
	EventReportScheduled     EventType = "report.scheduled"
	EventImportStarted       EventType = "import.started"
	EventImportCompleted     EventType = "import.completed"
	EventImportFailed        EventType = "import.failed"
	EventExportCompleted     EventType = "export.completed"
	EventProjectCreated      EventType = "project.created"
	EventProjectDeleted      EventType = "project.deleted"
	EventOrphanCreated       EventType = "orphan.created"
	EventOrphanLinked        EventType = "orphan.linked"
	EventSystemHealth        EventType = "system.health"
	EventRateLimitExceeded   EventType = "rate_limit.exceeded"
)

// AllEventTypes returns every known event type.
func AllEventTypes() []EventType {
	return []EventType{
		EventEntityCreated,
		EventEntityUpdated,
		EventEntityDeleted,
		EventRelationshipCreated,
		EventRelationshipUpdated,
		EventRelationshipDeleted,
		EventSearchExecuted,
		EventSavedSearchExecuted,
		EventReportGenerated,
		EventReportScheduled,
		EventImportStarted,
		EventImportCompleted,
		EventImportFailed,
		EventExportCompleted,
		EventProjectCreated,
		EventProjectDeleted,
		EventOrphanCreated,
		EventOrphanLinked,
		EventSystemHealth,
		EventRateLimitExceeded,
	}
}

var validEventTypes = func() map[EventType]struct{} {
	m := make(map[EventType]struct{})
	for _, e := range AllEventTypes() {
		m[e] = struct{}{}
	}
	return m
}()

// ParseEventType maps a string onto the closed event type set.
// Unknown strings are rejected rather than passed through.
func ParseEventType(s string) (EventType, error) {
	e := EventType(s)
	if _, ok := validEventTypes[e]; !ok {
		return "", fmt.Errorf("unknown event type %q", s)
	}
	return e, nil
}

// Valid reports whether the event type belongs to the closed set.
func (e EventType) Valid() bool {
	_, ok := validEventTypes[e]
	return ok
}

// DeliveryStatus represents the status of a webhook delivery
type DeliveryStatus string

const (
	DeliveryStatusPending  DeliveryStatus = "pending"
	DeliveryStatusSending  DeliveryStatus = "sending"
	DeliveryStatusSuccess  DeliveryStatus = "success"
	DeliveryStatusFailed   DeliveryStatus = "failed"
	DeliveryStatusRetrying DeliveryStatus = "retrying"
)

// ParseDeliveryStatus maps a string onto the closed delivery status set.
func ParseDeliveryStatus(s string) (DeliveryStatus, error) {
	switch st := DeliveryStatus(s); st {
	case DeliveryStatusPending, DeliveryStatusSending, DeliveryStatusSuccess,
		DeliveryStatusFailed, DeliveryStatusRetrying:
		return st, nil
	default:
		return "", fmt.Errorf("unknown delivery status %q", s)
	}
}

// Terminal reports whether the status is a terminal state.
func (s DeliveryStatus) Terminal() bool {
	return s == DeliveryStatusSuccess || s == DeliveryStatusFailed
}
