package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimelineAction identifies what happened to a ticket.
type TimelineAction string

const (
	ActionCreated      TimelineAction = "created"
	ActionUpdated      TimelineAction = "updated"
	ActionAssigned     TimelineAction = "assigned"
	ActionStatusChange TimelineAction = "status_changed"
	ActionCommentAdded TimelineAction = "comment_added"
	ActionSLABreached  TimelineAction = "sla_breached"
)

// TimelineEntry is an immutable audit record. ActorID nil marks a
// system-originated action such as the SLA sweep.
type TimelineEntry struct {
	ID        string
	TicketID  string
	Action    TimelineAction
	ActorID   *string
	Details   TimelineDetails
	Timestamp time.Time
}

// TimelineDetails is the tagged payload variant: each action carries its own
// strongly typed details struct, keyed by the entry's Action.
type TimelineDetails interface {
	timelineDetails()
}

// CreatedDetails accompanies a created entry.
type CreatedDetails struct {
	Priority TicketPriority `json:"priority"`
}

// StatusChangedDetails accompanies a status_changed entry.
type StatusChangedDetails struct {
	OldStatus TicketStatus `json:"oldStatus"`
	NewStatus TicketStatus `json:"newStatus"`
}

// AssignedDetails accompanies an assigned entry.
type AssignedDetails struct {
	AssignedTo       *string `json:"assignedTo"`
	PreviousAssignee *string `json:"previousAssignee"`
}

// UpdatedDetails is the per-call summary entry covering status and priority
// deltas. A field pair is nil when that field did not change.
type UpdatedDetails struct {
	OldStatus   *TicketStatus   `json:"oldStatus,omitempty"`
	NewStatus   *TicketStatus   `json:"newStatus,omitempty"`
	OldPriority *TicketPriority `json:"oldPriority,omitempty"`
	NewPriority *TicketPriority `json:"newPriority,omitempty"`
}

// Empty reports whether no delta was recorded, in which case no updated
// entry is written.
func (d UpdatedDetails) Empty() bool {
	return d.OldStatus == nil && d.NewStatus == nil && d.OldPriority == nil && d.NewPriority == nil
}

// CommentAddedDetails accompanies a comment_added entry.
type CommentAddedDetails struct {
	CommentID  string `json:"commentId"`
	IsInternal bool   `json:"isInternal"`
}

// SLABreachedDetails accompanies an sla_breached entry.
type SLABreachedDetails struct {
	OriginalDeadline time.Time    `json:"originalDeadline"`
	BreachedAt       time.Time    `json:"breachedAt"`
	OriginalStatus   TicketStatus `json:"originalStatus"`
}

func (CreatedDetails) timelineDetails()       {}
func (StatusChangedDetails) timelineDetails() {}
func (AssignedDetails) timelineDetails()      {}
func (UpdatedDetails) timelineDetails()       {}
func (CommentAddedDetails) timelineDetails()  {}
func (SLABreachedDetails) timelineDetails()   {}

// EncodeTimelineDetails serializes a details payload for storage.
func EncodeTimelineDetails(details TimelineDetails) ([]byte, error) {
	if details == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(details)
}

// DecodeTimelineDetails rebuilds the typed payload from its stored form,
// dispatching on the entry's action tag.
func DecodeTimelineDetails(action TimelineAction, raw []byte) (TimelineDetails, error) {
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	switch action {
	case ActionCreated:
		var d CreatedDetails
		return d, json.Unmarshal(raw, &d)
	case ActionStatusChange:
		var d StatusChangedDetails
		return d, json.Unmarshal(raw, &d)
	case ActionAssigned:
		var d AssignedDetails
		return d, json.Unmarshal(raw, &d)
	case ActionUpdated:
		var d UpdatedDetails
		return d, json.Unmarshal(raw, &d)
	case ActionCommentAdded:
		var d CommentAddedDetails
		return d, json.Unmarshal(raw, &d)
	case ActionSLABreached:
		var d SLABreachedDetails
		return d, json.Unmarshal(raw, &d)
	}
	return nil, fmt.Errorf("unknown timeline action %q", action)
}
