package service

import (
	"testing"

	"github.com/spec-kit/helpdesk-mini/internal/domain"
)

func TestCanPerform(t *testing.T) {
	owner := testUser("owner", domain.RoleUser)
	stranger := testUser("stranger", domain.RoleUser)
	agent := testUser("agent", domain.RoleAgent)
	otherAgent := testUser("other-agent", domain.RoleAgent)
	admin := testUser("admin", domain.RoleAdmin)

	agentID := agent.ID
	unassigned := &domain.Ticket{ID: "t1", CreatedBy: owner.ID}
	assigned := &domain.Ticket{ID: "t2", CreatedBy: owner.ID, AssignedTo: &agentID}

	cases := []struct {
		name   string
		actor  *domain.User
		ticket *domain.Ticket
		action TicketAction
		want   bool
	}{
		{"owner reads own", &owner, unassigned, ActionReadTicket, true},
		{"owner comments own", &owner, unassigned, ActionCommentTicket, true},
		{"owner never updates", &owner, unassigned, ActionUpdateTicket, false},
		{"stranger cannot read", &stranger, unassigned, ActionReadTicket, false},
		{"stranger cannot comment", &stranger, unassigned, ActionCommentTicket, false},
		{"agent reads unassigned", &agent, unassigned, ActionReadTicket, true},
		{"agent updates unassigned", &agent, unassigned, ActionUpdateTicket, true},
		{"assignee updates own", &agent, assigned, ActionUpdateTicket, true},
		{"other agent blocked", &otherAgent, assigned, ActionReadTicket, false},
		{"other agent cannot update", &otherAgent, assigned, ActionUpdateTicket, false},
		{"admin reads anything", &admin, assigned, ActionReadTicket, true},
		{"admin updates anything", &admin, assigned, ActionUpdateTicket, true},
		{"nil actor denied", nil, unassigned, ActionReadTicket, false},
		{"nil ticket denied", &admin, nil, ActionReadTicket, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanPerform(tc.actor, tc.ticket, tc.action); got != tc.want {
				t.Errorf("CanPerform() = %v, want %v", got, tc.want)
			}
		})
	}
}
