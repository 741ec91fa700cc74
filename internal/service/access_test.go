package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func TestCanPerform(t *testing.T) {
	client := &domain.User{Email: "a@x.com", Role: domain.RoleClient}
	engineer := &domain.User{Email: "b@x.com", Role: domain.RoleEngineer}
	admin := &domain.User{Email: "root@x.com", Role: domain.RoleAdmin}

	ownTicket := &domain.Ticket{ClientEmail: "a@x.com"}
	assignedTicket := &domain.Ticket{ClientEmail: "a@x.com", AssignedTechnicianEmail: "b@x.com"}
	otherTicket := &domain.Ticket{ClientEmail: "z@x.com", AssignedTechnicianEmail: "c@x.com"}

	cases := []struct {
		name   string
		actor  *domain.User
		ticket *domain.Ticket
		action Action
		want   bool
	}{
		{"nil actor denied", nil, ownTicket, ActionRead, false},
		{"any role may create", client, nil, ActionCreate, true},
		{"engineer may create", engineer, nil, ActionCreate, true},
		{"client reads own ticket", client, ownTicket, ActionRead, true},
		{"client cannot read others", client, otherTicket, ActionRead, false},
		{"client cannot update own ticket", client, ownTicket, ActionUpdate, false},
		{"client cannot respond", client, ownTicket, ActionRespond, false},
		{"engineer reads assigned ticket", engineer, assignedTicket, ActionRead, true},
		{"engineer updates assigned ticket", engineer, assignedTicket, ActionUpdate, true},
		{"engineer responds on assigned ticket", engineer, assignedTicket, ActionRespond, true},
		{"engineer denied on unassigned ticket", engineer, ownTicket, ActionRead, false},
		{"engineer cannot delete assigned ticket", engineer, assignedTicket, ActionDelete, false},
		{"engineer cannot assign", engineer, assignedTicket, ActionAssign, false},
		{"admin unrestricted read", admin, otherTicket, ActionRead, true},
		{"admin unrestricted delete", admin, otherTicket, ActionDelete, true},
		{"admin unrestricted assign", admin, otherTicket, ActionAssign, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanPerform(tc.actor, tc.ticket, tc.action))
		})
	}
}

func TestScopeFor(t *testing.T) {
	clientScope := ScopeFor(&domain.User{Email: "a@x.com", Role: domain.RoleClient})
	require.NotNil(t, clientScope.ClientEmail)
	assert.Equal(t, "a@x.com", *clientScope.ClientEmail)
	assert.Nil(t, clientScope.AssignedTechnicianEmail)

	engineerScope := ScopeFor(&domain.User{Email: "b@x.com", Role: domain.RoleEngineer})
	require.NotNil(t, engineerScope.AssignedTechnicianEmail)
	assert.Equal(t, "b@x.com", *engineerScope.AssignedTechnicianEmail)
	assert.Nil(t, engineerScope.ClientEmail)

	adminScope := ScopeFor(&domain.User{Email: "root@x.com", Role: domain.RoleAdmin})
	assert.Nil(t, adminScope.ClientEmail)
	assert.Nil(t, adminScope.AssignedTechnicianEmail)
}
