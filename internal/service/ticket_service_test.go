package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

type fakeTicketRepo struct {
	mu      sync.Mutex
	seq     int
	tickets map[string]*domain.Ticket
	order   []string
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[string]*domain.Ticket{}}
}

func (r *fakeTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[ticket.TicketID]; ok {
		return repository.ErrDuplicateKey
	}
	r.seq++
	ticket.ID = fmt.Sprintf("id-%d", r.seq)
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	clone := *ticket
	r.tickets[ticket.TicketID] = &clone
	r.order = append(r.order, ticket.TicketID)
	return nil
}

func (r *fakeTicketRepo) Update(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[ticket.TicketID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = time.Now()
	clone := *ticket
	r.tickets[ticket.TicketID] = &clone
	return nil
}

func (r *fakeTicketRepo) GetByTicketID(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[ticketID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *ticket
	return &clone, nil
}

func (r *fakeTicketRepo) Delete(ctx context.Context, ticketID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[ticketID]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tickets, ticketID)
	return nil
}

func (r *fakeTicketRepo) ExistsByTicketID(ctx context.Context, ticketID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tickets[ticketID]
	return ok, nil
}

func (r *fakeTicketRepo) List(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	// newest first
	for i := len(r.order) - 1; i >= 0; i-- {
		ticket, ok := r.tickets[r.order[i]]
		if !ok || !matchesScope(ticket, filter.Scope) {
			continue
		}
		if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
			needle := strings.ToLower(strings.TrimSpace(*filter.Search))
			if !strings.Contains(strings.ToLower(ticket.Title), needle) &&
				!strings.Contains(strings.ToLower(ticket.Description), needle) &&
				!strings.Contains(strings.ToLower(ticket.TicketID), needle) {
				continue
			}
		} else {
			if filter.Status != nil && ticket.Status != *filter.Status {
				continue
			}
			if filter.Priority != nil && ticket.Priority != *filter.Priority {
				continue
			}
			if filter.Category != nil && ticket.Category != *filter.Category {
				continue
			}
		}
		result = append(result, *ticket)
	}
	return result, nil
}

func (r *fakeTicketRepo) CountGrouped(ctx context.Context, scope repository.TicketScope, field repository.TicketGroupField) ([]repository.GroupCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[string]int64{}
	for _, ticket := range r.tickets {
		if !matchesScope(ticket, scope) {
			continue
		}
		switch field {
		case repository.GroupByStatus:
			counts[string(ticket.Status)]++
		case repository.GroupByPriority:
			counts[string(ticket.Priority)]++
		case repository.GroupByCategory:
			counts[ticket.Category]++
		}
	}
	var result []repository.GroupCount
	for key, count := range counts {
		result = append(result, repository.GroupCount{Key: key, Count: count})
	}
	return result, nil
}

func matchesScope(ticket *domain.Ticket, scope repository.TicketScope) bool {
	if scope.ClientEmail != nil && ticket.ClientEmail != *scope.ClientEmail {
		return false
	}
	if scope.AssignedTechnicianEmail != nil && ticket.AssignedTechnicianEmail != *scope.AssignedTechnicianEmail {
		return false
	}
	return true
}

type fakeCategoryRepo struct {
	mu         sync.Mutex
	categories map[string]*domain.Category
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{categories: map[string]*domain.Category{}}
}

func (r *fakeCategoryRepo) Create(ctx context.Context, category *domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[category.CategoryID]; ok {
		return repository.ErrDuplicateKey
	}
	category.ID = "cat-" + category.CategoryID
	category.CreatedAt = time.Now()
	category.UpdatedAt = category.CreatedAt
	clone := *category
	r.categories[category.CategoryID] = &clone
	return nil
}

func (r *fakeCategoryRepo) Update(ctx context.Context, category *domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[category.CategoryID]; !ok {
		return pgx.ErrNoRows
	}
	category.UpdatedAt = time.Now()
	clone := *category
	r.categories[category.CategoryID] = &clone
	return nil
}

func (r *fakeCategoryRepo) GetByCategoryID(ctx context.Context, categoryID string) (*domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	category, ok := r.categories[categoryID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *category
	return &clone, nil
}

func (r *fakeCategoryRepo) ListActive(ctx context.Context) ([]domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Category
	for _, category := range r.categories {
		if category.IsActive {
			result = append(result, *category)
		}
	}
	return result, nil
}

func seedCategory(t *testing.T, repo *fakeCategoryRepo, id string, active bool) {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), &domain.Category{
		CategoryID: id,
		Label:      id,
		SubIssues: map[string]domain.SubIssue{
			"vpn": {ID: "vpn", Label: "VPN"},
		},
		IsActive: active,
	}))
}

func newTicketServiceForTest(t *testing.T) (*TicketService, *fakeTicketRepo, *fakeCategoryRepo, *eventRecorder) {
	t.Helper()
	ticketRepo := newFakeTicketRepo()
	categoryRepo := newFakeCategoryRepo()
	dispatcher := events.NewInMemoryDispatcher()
	recorder := recordEvents(dispatcher)
	svc := NewTicketService(TicketDependencies{
		TicketRepo:   ticketRepo,
		CategoryRepo: categoryRepo,
		Dispatcher:   dispatcher,
	})
	return svc, ticketRepo, categoryRepo, recorder
}

type eventRecorder struct {
	mu    sync.Mutex
	types []events.EventType
}

func recordEvents(dispatcher events.Dispatcher) *eventRecorder {
	rec := &eventRecorder{}
	handler := func(ctx context.Context, event events.Event) error {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.types = append(rec.types, event.Type)
		return nil
	}
	for _, eventType := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketStatusChanged,
		events.EventTicketAssigned,
		events.EventTicketResponseAdded,
		events.EventTicketDeleted,
	} {
		dispatcher.Subscribe(eventType, handler)
	}
	return rec
}

func (r *eventRecorder) seen() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.EventType{}, r.types...)
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr), "expected DomainError, got %v", err)
	return domainErr.HTTPStatus
}

var (
	testClient   = &domain.User{ID: "u-client", Name: "Ada Client", Email: "a@x.com", Phone: "555-0100", Department: "Sales", Role: domain.RoleClient, IsActive: true}
	testEngineer = &domain.User{ID: "u-eng", Name: "Bo Engineer", Email: "b@x.com", Role: domain.RoleEngineer, IsActive: true}
	testAdmin    = &domain.User{ID: "u-admin", Name: "Root Admin", Email: "root@x.com", Role: domain.RoleAdmin, IsActive: true}
)

func TestTicketLifecycle(t *testing.T) {
	svc, _, categoryRepo, recorder := newTicketServiceForTest(t)
	ctx := context.Background()
	seedCategory(t, categoryRepo, "network", true)

	ticket, err := svc.CreateTicket(ctx, testClient, TicketCreateInput{
		Title:       "Cannot reach VPN",
		Description: "Drops every 5 minutes",
		Priority:    domain.TicketPriorityHigh,
		Category:    "network",
		SubCategory: "vpn",
	})
	require.NoError(t, err)
	assert.Regexp(t, `^TK-\d{4}-\d{4}$`, ticket.TicketID)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, "Ada Client", ticket.ClientName)
	assert.Equal(t, "a@x.com", ticket.ClientEmail)
	assert.Equal(t, "Sales", ticket.Department)

	// unassigned engineer is forbidden, not not-found
	_, err = svc.GetTicket(ctx, testEngineer, ticket.TicketID)
	require.Error(t, err)
	assert.Equal(t, 403, statusOf(t, err))

	visible, err := svc.ListTickets(ctx, testEngineer, TicketListFilter{})
	require.NoError(t, err)
	assert.Empty(t, visible)

	// admin assigns the engineer
	assigned, err := svc.AssignTicket(ctx, testAdmin, ticket.TicketID, AssignmentInput{
		TechnicianID:    testEngineer.ID,
		TechnicianName:  testEngineer.Name,
		TechnicianEmail: testEngineer.Email,
	})
	require.NoError(t, err)
	assert.Equal(t, "b@x.com", assigned.AssignedTechnicianEmail)
	require.NotNil(t, assigned.AssignedTo)
	assert.Equal(t, "u-eng", *assigned.AssignedTo)

	// now visible to the engineer
	got, err := svc.GetTicket(ctx, testEngineer, ticket.TicketID)
	require.NoError(t, err)
	assert.Equal(t, ticket.TicketID, got.TicketID)

	// engineer resolves with a response
	resolved, err := svc.AddResponse(ctx, testEngineer, ticket.TicketID, "Replaced the VPN profile", domain.TicketStatusResolved)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, resolved.Status)
	require.Len(t, resolved.Responses, 1)
	assert.Equal(t, "b@x.com", resolved.Responses[0].TechnicianEmail)
	assert.Equal(t, domain.TicketStatusResolved, resolved.Responses[0].Status)
	assert.Equal(t, "Bo Engineer", resolved.LastResponseBy)
	require.NotNil(t, resolved.LastResponseAt)

	// client still sees their ticket
	mine, err := svc.ListTickets(ctx, testClient, TicketListFilter{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, domain.TicketStatusResolved, mine[0].Status)

	assert.Equal(t, []events.EventType{
		events.EventTicketCreated,
		events.EventTicketAssigned,
		events.EventTicketResponseAdded,
	}, recorder.seen())
}

func TestCreateTicketValidation(t *testing.T) {
	svc, _, categoryRepo, _ := newTicketServiceForTest(t)
	ctx := context.Background()
	seedCategory(t, categoryRepo, "network", true)
	seedCategory(t, categoryRepo, "legacy", false)

	cases := []struct {
		name  string
		input TicketCreateInput
	}{
		{"missing title", TicketCreateInput{Description: "d", Priority: domain.TicketPriorityLow, Category: "network"}},
		{"missing description", TicketCreateInput{Title: "t", Priority: domain.TicketPriorityLow, Category: "network"}},
		{"invalid priority", TicketCreateInput{Title: "t", Description: "d", Priority: "severe", Category: "network"}},
		{"missing category", TicketCreateInput{Title: "t", Description: "d", Priority: domain.TicketPriorityLow}},
		{"unknown category", TicketCreateInput{Title: "t", Description: "d", Priority: domain.TicketPriorityLow, Category: "ghost"}},
		{"inactive category", TicketCreateInput{Title: "t", Description: "d", Priority: domain.TicketPriorityLow, Category: "legacy"}},
		{"unknown sub-issue", TicketCreateInput{Title: "t", Description: "d", Priority: domain.TicketPriorityLow, Category: "network", SubCategory: "printer"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateTicket(ctx, testClient, tc.input)
			require.Error(t, err)
			assert.Equal(t, 400, statusOf(t, err))
		})
	}
}

func TestGetTicketNotFoundBeforeForbidden(t *testing.T) {
	svc, _, _, _ := newTicketServiceForTest(t)

	_, err := svc.GetTicket(context.Background(), testClient, "TK-2026-0001")
	require.Error(t, err)
	assert.Equal(t, 404, statusOf(t, err))
}

func TestUpdateTicketMergesPatch(t *testing.T) {
	svc, _, categoryRepo, recorder := newTicketServiceForTest(t)
	ctx := context.Background()
	seedCategory(t, categoryRepo, "network", true)

	ticket, err := svc.CreateTicket(ctx, testClient, TicketCreateInput{
		Title:       "Slow wifi",
		Description: "Office floor 2",
		Priority:    domain.TicketPriorityLow,
		Category:    "network",
	})
	require.NoError(t, err)

	newStatus := domain.TicketStatusInProgress
	newPriority := domain.TicketPriorityUrgent
	newTitle := "Slow wifi on floor 2"
	updated, err := svc.UpdateTicket(ctx, testAdmin, ticket.TicketID, TicketPatch{
		Title:    &newTitle,
		Status:   &newStatus,
		Priority: &newPriority,
	})
	require.NoError(t, err)
	assert.Equal(t, "Slow wifi on floor 2", updated.Title)
	assert.Equal(t, domain.TicketStatusInProgress, updated.Status)
	assert.Equal(t, domain.TicketPriorityUrgent, updated.Priority)
	assert.Equal(t, "Office floor 2", updated.Description)

	badStatus := domain.TicketStatus("escalated")
	_, err = svc.UpdateTicket(ctx, testAdmin, ticket.TicketID, TicketPatch{Status: &badStatus})
	require.Error(t, err)
	assert.Equal(t, 400, statusOf(t, err))

	assert.Contains(t, recorder.seen(), events.EventTicketStatusChanged)
}

func TestDeleteTicketAdminOnly(t *testing.T) {
	svc, _, categoryRepo, recorder := newTicketServiceForTest(t)
	ctx := context.Background()
	seedCategory(t, categoryRepo, "network", true)

	ticket, err := svc.CreateTicket(ctx, testClient, TicketCreateInput{
		Title:       "Retire this request",
		Description: "Duplicate of another ticket",
		Priority:    domain.TicketPriorityLow,
		Category:    "network",
	})
	require.NoError(t, err)

	err = svc.DeleteTicket(ctx, testClient, ticket.TicketID)
	require.Error(t, err)
	assert.Equal(t, 403, statusOf(t, err))

	require.NoError(t, svc.DeleteTicket(ctx, testAdmin, ticket.TicketID))
	_, err = svc.GetTicket(ctx, testAdmin, ticket.TicketID)
	assert.Equal(t, 404, statusOf(t, err))
	assert.Contains(t, recorder.seen(), events.EventTicketDeleted)
}

func TestEngineerForbiddenOnUnassignedTicket(t *testing.T) {
	svc, ticketRepo, categoryRepo, _ := newTicketServiceForTest(t)
	ctx := context.Background()
	seedCategory(t, categoryRepo, "network", true)

	ticket, err := svc.CreateTicket(ctx, testClient, TicketCreateInput{
		Title:       "Unowned request",
		Description: "Nobody assigned yet",
		Priority:    domain.TicketPriorityMedium,
		Category:    "network",
	})
	require.NoError(t, err)

	newTitle := "Hijacked title"
	_, err = svc.UpdateTicket(ctx, testEngineer, ticket.TicketID, TicketPatch{Title: &newTitle})
	require.Error(t, err)
	assert.Equal(t, 403, statusOf(t, err))

	_, err = svc.AddResponse(ctx, testEngineer, ticket.TicketID, "drive-by reply", domain.TicketStatusResolved)
	require.Error(t, err)
	assert.Equal(t, 403, statusOf(t, err))

	// denied operations must leave the stored ticket untouched
	stored, err := ticketRepo.GetByTicketID(ctx, ticket.TicketID)
	require.NoError(t, err)
	assert.Equal(t, "Unowned request", stored.Title)
	assert.Equal(t, domain.TicketStatusOpen, stored.Status)
	assert.Empty(t, stored.Responses)
	assert.Empty(t, stored.LastResponseBy)
	assert.Nil(t, stored.LastResponseAt)
}

func TestLastResponseAtNeverMovesBackwards(t *testing.T) {
	svc, _, categoryRepo, _ := newTicketServiceForTest(t)
	ctx := context.Background()
	seedCategory(t, categoryRepo, "network", true)

	ticket, err := svc.CreateTicket(ctx, testClient, TicketCreateInput{
		Title:       "Flaky switch",
		Description: "Port 12 resets",
		Priority:    domain.TicketPriorityHigh,
		Category:    "network",
	})
	require.NoError(t, err)

	_, err = svc.AssignTicket(ctx, testAdmin, ticket.TicketID, AssignmentInput{
		TechnicianID:    testEngineer.ID,
		TechnicianName:  testEngineer.Name,
		TechnicianEmail: testEngineer.Email,
	})
	require.NoError(t, err)

	first, err := svc.AddResponse(ctx, testEngineer, ticket.TicketID, "Looking into it", domain.TicketStatusInProgress)
	require.NoError(t, err)
	require.NotNil(t, first.LastResponseAt)
	firstAt := *first.LastResponseAt

	second, err := svc.AddResponse(ctx, testEngineer, ticket.TicketID, "Replaced the cable", domain.TicketStatusResolved)
	require.NoError(t, err)
	require.NotNil(t, second.LastResponseAt)
	assert.False(t, second.LastResponseAt.Before(firstAt))
	require.Len(t, second.Responses, 2)
	assert.Equal(t, firstAt, second.Responses[0].Timestamp)
}

func TestAssignTicketRequiresTechnicianEmail(t *testing.T) {
	svc, _, categoryRepo, _ := newTicketServiceForTest(t)
	ctx := context.Background()
	seedCategory(t, categoryRepo, "network", true)

	ticket, err := svc.CreateTicket(ctx, testClient, TicketCreateInput{
		Title:       "Assign me",
		Description: "Needs an owner",
		Priority:    domain.TicketPriorityMedium,
		Category:    "network",
	})
	require.NoError(t, err)

	_, err = svc.AssignTicket(ctx, testAdmin, ticket.TicketID, AssignmentInput{TechnicianName: "No Email"})
	require.Error(t, err)
	assert.Equal(t, 400, statusOf(t, err))
}

func TestGetStatsIsRoleScoped(t *testing.T) {
	svc, _, categoryRepo, _ := newTicketServiceForTest(t)
	ctx := context.Background()
	seedCategory(t, categoryRepo, "network", true)
	seedCategory(t, categoryRepo, "hardware", true)

	otherClient := &domain.User{ID: "u-2", Name: "Zed", Email: "z@x.com", Role: domain.RoleClient, IsActive: true}

	_, err := svc.CreateTicket(ctx, testClient, TicketCreateInput{
		Title: "One", Description: "d", Priority: domain.TicketPriorityHigh, Category: "network",
	})
	require.NoError(t, err)
	_, err = svc.CreateTicket(ctx, testClient, TicketCreateInput{
		Title: "Two", Description: "d", Priority: domain.TicketPriorityLow, Category: "hardware",
	})
	require.NoError(t, err)
	_, err = svc.CreateTicket(ctx, otherClient, TicketCreateInput{
		Title: "Three", Description: "d", Priority: domain.TicketPriorityLow, Category: "hardware",
	})
	require.NoError(t, err)

	adminStats, err := svc.GetStats(ctx, testAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(3), totalCount(adminStats.ByStatus))

	clientStats, err := svc.GetStats(ctx, testClient)
	require.NoError(t, err)
	assert.Equal(t, int64(2), totalCount(clientStats.ByStatus))
	assert.Equal(t, int64(2), totalCount(clientStats.ByCategory))
}

func totalCount(counts []repository.GroupCount) int64 {
	var total int64
	for _, gc := range counts {
		total += gc.Count
	}
	return total
}

func TestListTicketsSearchReplacesFilters(t *testing.T) {
	svc, _, categoryRepo, _ := newTicketServiceForTest(t)
	ctx := context.Background()
	seedCategory(t, categoryRepo, "network", true)

	_, err := svc.CreateTicket(ctx, testClient, TicketCreateInput{
		Title: "Printer jam in copy room", Description: "paper stuck", Priority: domain.TicketPriorityLow, Category: "network",
	})
	require.NoError(t, err)
	_, err = svc.CreateTicket(ctx, testClient, TicketCreateInput{
		Title: "Monitor flicker", Description: "external display", Priority: domain.TicketPriorityLow, Category: "network",
	})
	require.NoError(t, err)

	search := "printer"
	found, err := svc.ListTickets(ctx, testClient, TicketListFilter{Search: &search})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Printer jam in copy room", found[0].Title)
}
