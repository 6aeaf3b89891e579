package domain

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestTimelineDetailsRoundTrip(t *testing.T) {
	deadline := time.Date(2026, 8, 1, 13, 0, 0, 0, time.UTC)
	breachedAt := deadline.Add(5 * time.Minute)
	agentID := "a1"
	oldStatus := TicketStatusOpen
	newStatus := TicketStatusInProgress

	cases := []struct {
		name    string
		action  TimelineAction
		details TimelineDetails
	}{
		{"created", ActionCreated, CreatedDetails{Priority: TicketPriorityHigh}},
		{"status change", ActionStatusChange, StatusChangedDetails{
			OldStatus: TicketStatusOpen, NewStatus: TicketStatusInProgress,
		}},
		{"assignment", ActionAssigned, AssignedDetails{AssignedTo: &agentID}},
		{"update summary", ActionUpdated, UpdatedDetails{
			OldStatus: &oldStatus, NewStatus: &newStatus,
		}},
		{"breach", ActionSLABreached, SLABreachedDetails{
			OriginalDeadline: deadline, BreachedAt: breachedAt, OriginalStatus: TicketStatusOpen,
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := EncodeTimelineDetails(tc.details)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			decoded, err := DecodeTimelineDetails(tc.action, raw)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !reflect.DeepEqual(decoded, tc.details) {
				t.Errorf("round trip mismatch: got %+v, want %+v", decoded, tc.details)
			}
		})
	}
}

func TestDecodeTimelineDetailsUnknownAction(t *testing.T) {
	if _, err := DecodeTimelineDetails(TimelineAction("renamed"), []byte("{}")); err == nil {
		t.Fatal("expected error for unknown action")
	}
}

func TestUpdatedDetailsOmitsUnchangedFields(t *testing.T) {
	newPriority := TicketPriorityUrgent
	oldPriority := TicketPriorityLow
	raw, err := EncodeTimelineDetails(UpdatedDetails{
		OldPriority: &oldPriority, NewPriority: &newPriority,
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if strings.Contains(string(raw), "Status") || strings.Contains(string(raw), "oldStatus") {
		t.Errorf("unchanged status must be omitted, got %s", raw)
	}
}
