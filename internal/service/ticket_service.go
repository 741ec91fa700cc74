package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// TicketService coordinates ticket workflows: identifier generation, access
// decisions, status changes and persistence.
type TicketService struct {
	tickets    repository.TicketRepository
	categories repository.CategoryRepository
	dispatcher events.Dispatcher
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	CategoryRepo repository.CategoryRepository
	Dispatcher   events.Dispatcher
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title         string
	Description   string
	Priority      domain.TicketPriority
	Category      string
	SubCategory   string
	DynamicFields map[string]domain.FieldValue
	Attachments   []domain.Attachment
}

// TicketListFilter describes caller-supplied listing filters, ANDed onto the
// role scope. Search replaces the exact filters with a substring match.
type TicketListFilter struct {
	Status   *domain.TicketStatus
	Priority *domain.TicketPriority
	Category *string
	Search   *string
}

// TicketPatch carries the mutable fields of an update. Nil fields are left
// untouched.
type TicketPatch struct {
	Title         *string
	Description   *string
	Status        *domain.TicketStatus
	Priority      *domain.TicketPriority
	Category      *string
	SubCategory   *string
	DynamicFields map[string]domain.FieldValue
}

// AssignmentInput identifies the technician a ticket is assigned to. The
// payload is recorded verbatim; the target is not cross-checked against the
// user store.
type AssignmentInput struct {
	TechnicianID    string
	TechnicianName  string
	TechnicianEmail string
}

// TicketStats aggregates grouped counts over the actor's visible ticket set.
type TicketStats struct {
	ByStatus   []repository.GroupCount
	ByPriority []repository.GroupCount
	ByCategory []repository.GroupCount
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		categories: deps.CategoryRepo,
		dispatcher: deps.Dispatcher,
	}
}

// CreateTicket validates input, generates an identifier and persists a new
// ticket. Ownership is attributed to the actor: client fields are a snapshot
// of the actor's profile at creation time.
func (s *TicketService) CreateTicket(ctx context.Context, actor *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewNotFound("user")
	}
	if !CanPerform(actor, nil, ActionCreate) {
		return nil, apperrors.NewForbidden("not authorized to create tickets")
	}

	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required")
	}
	if description == "" {
		return nil, apperrors.NewValidationError("description is required")
	}
	if !domain.ValidTicketPriority(input.Priority) {
		return nil, apperrors.NewValidationError("invalid priority")
	}
	if strings.TrimSpace(input.Category) == "" {
		return nil, apperrors.NewValidationError("category is required")
	}
	if err := s.validateCategory(ctx, input.Category, input.SubCategory); err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		Title:         title,
		Description:   description,
		Status:        domain.TicketStatusOpen,
		Priority:      input.Priority,
		Category:      input.Category,
		SubCategory:   input.SubCategory,
		ClientName:    actor.Name,
		ClientEmail:   actor.Email,
		ClientPhone:   actor.Phone,
		Department:    actor.Department,
		DynamicFields: input.DynamicFields,
		Attachments:   input.Attachments,
	}

	// The generator pre-check is advisory; concurrent creations racing to
	// the same candidate are arbitrated by the unique constraint, so retry
	// generation on a duplicate-key insert.
	var lastErr error
	for attempt := 0; attempt < createMaxRetries; attempt++ {
		ticketID, err := generateTicketID(ctx, s.tickets, time.Now())
		if err != nil {
			return nil, err
		}
		ticket.TicketID = ticketID

		err = s.tickets.Create(ctx, ticket)
		if err == nil {
			s.publishEvent(ctx, events.Event{
				Type:     events.EventTicketCreated,
				TicketID: ticket.TicketID,
				Actor:    eventActor(actor),
				Payload: events.TicketCreatedPayload{
					Category:    ticket.Category,
					SubCategory: ticket.SubCategory,
					Priority:    ticket.Priority,
					Title:       ticket.Title,
					ClientEmail: ticket.ClientEmail,
				},
			})
			return ticket, nil
		}
		if !errors.Is(err, repository.ErrDuplicateKey) {
			return nil, err
		}
		lastErr = err
	}
	return nil, apperrors.NewConflict("ticket id collision persisted across retries: " + lastErr.Error())
}

// ListTickets returns the actor's visible tickets, newest first, with the
// caller's filters ANDed onto the role scope.
func (s *TicketService) ListTickets(ctx context.Context, actor *domain.User, filter TicketListFilter) ([]domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewNotFound("user")
	}
	repoFilter := repository.TicketFilter{
		Scope:    ScopeFor(actor),
		Status:   filter.Status,
		Priority: filter.Priority,
		Category: filter.Category,
		Search:   filter.Search,
	}
	return s.tickets.List(ctx, repoFilter)
}

// GetTicket fetches a single ticket by its identifier. A missing ticket is
// not-found; an existing ticket the actor may not read is forbidden.
func (s *TicketService) GetTicket(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByTicketID(ctx, ticketID)
	if err != nil {
		return nil, notFoundOr(err, "ticket")
	}
	if !CanPerform(actor, ticket, ActionRead) {
		return nil, apperrors.NewForbidden("not authorized to access this ticket")
	}
	return ticket, nil
}

// UpdateTicket merges the patch into the ticket. Enumerated fields are
// re-validated against their closed sets; a patched category is re-checked
// against the registry.
func (s *TicketService) UpdateTicket(ctx context.Context, actor *domain.User, ticketID string, patch TicketPatch) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByTicketID(ctx, ticketID)
	if err != nil {
		return nil, notFoundOr(err, "ticket")
	}
	if !CanPerform(actor, ticket, ActionUpdate) {
		return nil, apperrors.NewForbidden("not authorized to update this ticket")
	}

	if patch.Status != nil && !domain.ValidTicketStatus(*patch.Status) {
		return nil, apperrors.NewValidationError("invalid status")
	}
	if patch.Priority != nil && !domain.ValidTicketPriority(*patch.Priority) {
		return nil, apperrors.NewValidationError("invalid priority")
	}
	if patch.Category != nil {
		subCategory := ticket.SubCategory
		if patch.SubCategory != nil {
			subCategory = *patch.SubCategory
		}
		if err := s.validateCategory(ctx, *patch.Category, subCategory); err != nil {
			return nil, err
		}
	}

	oldStatus := ticket.Status
	if patch.Title != nil {
		ticket.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		ticket.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Status != nil {
		ticket.Status = *patch.Status
	}
	if patch.Priority != nil {
		ticket.Priority = *patch.Priority
	}
	if patch.Category != nil {
		ticket.Category = *patch.Category
	}
	if patch.SubCategory != nil {
		ticket.SubCategory = *patch.SubCategory
	}
	if patch.DynamicFields != nil {
		ticket.DynamicFields = patch.DynamicFields
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, notFoundOr(err, "ticket")
	}
	if ticket.Status != oldStatus {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: ticket.TicketID,
			Actor:    eventActor(actor),
			Payload: events.TicketStatusChangedPayload{
				OldStatus: oldStatus,
				NewStatus: ticket.Status,
			},
		})
	}
	return ticket, nil
}

// DeleteTicket hard-deletes a ticket. Admin only.
func (s *TicketService) DeleteTicket(ctx context.Context, actor *domain.User, ticketID string) error {
	ticket, err := s.tickets.GetByTicketID(ctx, ticketID)
	if err != nil {
		return notFoundOr(err, "ticket")
	}
	if !CanPerform(actor, ticket, ActionDelete) {
		return apperrors.NewForbidden("not authorized to delete this ticket")
	}
	if err := s.tickets.Delete(ctx, ticketID); err != nil {
		return notFoundOr(err, "ticket")
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: ticketID,
		Actor:    eventActor(actor),
	})
	return nil
}

// AddResponse appends an immutable response entry and moves the ticket to the
// status the response carries, in a single write.
func (s *TicketService) AddResponse(ctx context.Context, actor *domain.User, ticketID, message string, status domain.TicketStatus) (*domain.Ticket, error) {
	if strings.TrimSpace(message) == "" {
		return nil, apperrors.NewValidationError("message is required")
	}
	if !domain.ValidTicketStatus(status) {
		return nil, apperrors.NewValidationError("invalid status")
	}

	ticket, err := s.tickets.GetByTicketID(ctx, ticketID)
	if err != nil {
		return nil, notFoundOr(err, "ticket")
	}
	if !CanPerform(actor, ticket, ActionRespond) {
		return nil, apperrors.NewForbidden("not authorized to respond to this ticket")
	}

	now := time.Now()
	ticket.Responses = append(ticket.Responses, domain.TicketResponse{
		Message:         message,
		Status:          status,
		TechnicianName:  actor.Name,
		TechnicianEmail: actor.Email,
		Timestamp:       now,
	})
	ticket.Status = status
	ticket.LastResponseBy = actor.Name
	ticket.LastResponseAt = &now

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, notFoundOr(err, "ticket")
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketResponseAdded,
		TicketID: ticket.TicketID,
		Actor:    eventActor(actor),
		Payload: events.TicketResponseAddedPayload{
			Status:          status,
			TechnicianEmail: actor.Email,
			MessagePreview:  messagePreview(message, 120),
		},
	})
	return ticket, nil
}

// AssignTicket sets the assignment fields. Admin only. The technician payload
// is recorded as supplied.
func (s *TicketService) AssignTicket(ctx context.Context, actor *domain.User, ticketID string, input AssignmentInput) (*domain.Ticket, error) {
	if strings.TrimSpace(input.TechnicianEmail) == "" {
		return nil, apperrors.NewValidationError("technicianEmail is required")
	}

	ticket, err := s.tickets.GetByTicketID(ctx, ticketID)
	if err != nil {
		return nil, notFoundOr(err, "ticket")
	}
	if !CanPerform(actor, ticket, ActionAssign) {
		return nil, apperrors.NewForbidden("not authorized to assign this ticket")
	}

	if input.TechnicianID != "" {
		id := input.TechnicianID
		ticket.AssignedTo = &id
	} else {
		ticket.AssignedTo = nil
	}
	ticket.AssignedTechnicianName = input.TechnicianName
	ticket.AssignedTechnicianEmail = input.TechnicianEmail

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, notFoundOr(err, "ticket")
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.TicketID,
		Actor:    eventActor(actor),
		Payload: events.TicketAssignedPayload{
			TechnicianName:  input.TechnicianName,
			TechnicianEmail: input.TechnicianEmail,
		},
	})
	return ticket, nil
}

// GetStats returns grouped counts by status, priority and category over the
// actor's visible ticket set.
func (s *TicketService) GetStats(ctx context.Context, actor *domain.User) (*TicketStats, error) {
	if actor == nil {
		return nil, apperrors.NewNotFound("user")
	}
	scope := ScopeFor(actor)

	byStatus, err := s.tickets.CountGrouped(ctx, scope, repository.GroupByStatus)
	if err != nil {
		return nil, err
	}
	byPriority, err := s.tickets.CountGrouped(ctx, scope, repository.GroupByPriority)
	if err != nil {
		return nil, err
	}
	byCategory, err := s.tickets.CountGrouped(ctx, scope, repository.GroupByCategory)
	if err != nil {
		return nil, err
	}

	return &TicketStats{
		ByStatus:   byStatus,
		ByPriority: byPriority,
		ByCategory: byCategory,
	}, nil
}

// validateCategory confirms the category exists and is active, and that the
// sub-issue (when given) belongs to it. Tickets keep their category strings
// verbatim afterwards; nothing is re-validated on category deletion.
func (s *TicketService) validateCategory(ctx context.Context, categoryID, subIssueID string) error {
	category, err := s.categories.GetByCategoryID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("unknown category")
		}
		return err
	}
	if !category.IsActive {
		return apperrors.NewValidationError("category is inactive")
	}
	if subIssueID != "" {
		if _, ok := category.SubIssues[subIssueID]; !ok {
			return apperrors.NewValidationError("unknown sub-issue for category")
		}
	}
	return nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func eventActor(actor *domain.User) events.Actor {
	if actor == nil {
		return events.Actor{}
	}
	return events.Actor{
		UserID: actor.ID,
		Email:  actor.Email,
		Role:   actor.Role,
	}
}

func messagePreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}

func notFoundOr(err error, resource string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource)
	}
	return err
}
