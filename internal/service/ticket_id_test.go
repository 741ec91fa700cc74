package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

type existsFunc func(ctx context.Context, ticketID string) (bool, error)

func (f existsFunc) ExistsByTicketID(ctx context.Context, ticketID string) (bool, error) {
	return f(ctx, ticketID)
}

func TestGenerateTicketIDFormat(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	repo := existsFunc(func(ctx context.Context, ticketID string) (bool, error) {
		return false, nil
	})

	id, err := generateTicketID(context.Background(), repo, now)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^TK-2026-\d{4}$`), id)
}

func TestGenerateTicketIDSkipsTakenCandidates(t *testing.T) {
	calls := 0
	repo := existsFunc(func(ctx context.Context, ticketID string) (bool, error) {
		calls++
		return calls < 3, nil
	})

	id, err := generateTicketID(context.Background(), repo, time.Now())
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, 3, calls)
}

func TestGenerateTicketIDExhaustionIsConflict(t *testing.T) {
	calls := 0
	repo := existsFunc(func(ctx context.Context, ticketID string) (bool, error) {
		calls++
		return true, nil
	})

	_, err := generateTicketID(context.Background(), repo, time.Now())
	require.Error(t, err)
	assert.Equal(t, ticketIDMaxAttempts, calls)

	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "CONFLICT", domainErr.Code)
}

func TestGenerateTicketIDPropagatesStoreErrors(t *testing.T) {
	storeErr := errors.New("connection reset")
	repo := existsFunc(func(ctx context.Context, ticketID string) (bool, error) {
		return false, storeErr
	})

	_, err := generateTicketID(context.Background(), repo, time.Now())
	assert.ErrorIs(t, err, storeErr)
}
