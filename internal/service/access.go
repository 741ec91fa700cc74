package service

import (
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// Action enumerates the operations the access evaluator rules on.
type Action string

const (
	ActionCreate  Action = "create"
	ActionRead    Action = "read"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionRespond Action = "respond"
	ActionAssign  Action = "assign"
)

// CanPerform is the pure access decision function: no side effects, no I/O.
// A denial for an existing ticket is always surfaced as forbidden, never
// not-found; the ticket service keeps that distinction.
//
// Any authenticated role may create; ownership is always attributed to the
// acting identity, so an admin creating a ticket becomes its client. Clients
// may only read their own tickets. Engineers may read, update and respond
// only on tickets assigned to them. Admins are unrestricted.
func CanPerform(actor *domain.User, ticket *domain.Ticket, action Action) bool {
	if actor == nil {
		return false
	}
	if action == ActionCreate {
		return true
	}

	switch actor.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleClient:
		return action == ActionRead && ticket != nil && ticket.ClientEmail == actor.Email
	case domain.RoleEngineer:
		if ticket == nil || ticket.AssignedTechnicianEmail != actor.Email {
			return false
		}
		switch action {
		case ActionRead, ActionUpdate, ActionRespond:
			return true
		}
	}
	return false
}

// ScopeFor narrows list and aggregate queries to what the actor's role may
// see, before any caller-supplied filters are ANDed on.
func ScopeFor(actor *domain.User) repository.TicketScope {
	scope := repository.TicketScope{}
	if actor == nil {
		return scope
	}
	switch actor.Role {
	case domain.RoleClient:
		email := actor.Email
		scope.ClientEmail = &email
	case domain.RoleEngineer:
		email := actor.Email
		scope.AssignedTechnicianEmail = &email
	}
	return scope
}
