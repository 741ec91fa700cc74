package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

const (
	// ticketIDMaxAttempts bounds the pre-check loop; with 9999 possible
	// numbers per year a storm of collisions means the namespace is close
	// to exhausted and retrying forever would not help.
	ticketIDMaxAttempts = 25

	// createMaxRetries bounds insert retries when two concurrent creations
	// draw the same candidate and the unique constraint rejects one.
	createMaxRetries = 3
)

// ticketIDExists is the slice of the repository the generator needs.
type ticketIDExists interface {
	ExistsByTicketID(ctx context.Context, ticketID string) (bool, error)
}

// generateTicketID builds a candidate identifier in the form
// TK-<year>-<zero-padded 4-digit number> and verifies it is absent from the
// store. The pre-check is advisory only: the ticket_id unique constraint is
// the authoritative arbiter at insert time.
func generateTicketID(ctx context.Context, repo ticketIDExists, now time.Time) (string, error) {
	year := now.Year()
	for attempt := 0; attempt < ticketIDMaxAttempts; attempt++ {
		candidate := fmt.Sprintf("TK-%d-%04d", year, rand.Intn(9999)+1)
		exists, err := repo.ExistsByTicketID(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", apperrors.NewConflict("could not allocate a unique ticket id")
}
