package service

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/queueflow/queue-service/internal/domain"
	"github.com/queueflow/queue-service/internal/observability"
	"github.com/queueflow/queue-service/internal/repository"
	apperrors "github.com/queueflow/queue-service/pkg/util"
)

const (
	// tokenMaxAttempts bounds the sequential collision retry loop.
	tokenMaxAttempts = 100
	// tokenFallbackAttempts bounds the random-suffix last resort.
	tokenFallbackAttempts = 5
)

// TokenAllocator produces category-scoped, day-scoped sequential tokens
// of the form CODE-NNN. It must be called inside the same transaction as
// the ticket insert: the category advisory lock it takes is held until
// commit, which keeps two concurrent check-ins from observing the same
// last number.
type TokenAllocator struct {
	tickets repository.TicketRepository
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewTokenAllocator constructs the allocator.
func NewTokenAllocator(tickets repository.TicketRepository, logger *zap.Logger, metrics *observability.Metrics) *TokenAllocator {
	return &TokenAllocator{tickets: tickets, logger: logger, metrics: metrics}
}

// Allocate returns the next free token for the category. Under extreme
// contention the sequential loop gives way to a timestamp suffix, then a
// random suffix; tokens stop being strictly sequential at that point but
// check-in never blocks.
func (a *TokenAllocator) Allocate(ctx context.Context, category *domain.Category, now time.Time) (string, error) {
	code := category.Code()
	win := domain.Today(now)

	if err := a.tickets.LockCategorySequence(ctx, category.ID); err != nil {
		return "", err
	}
	tokens, err := a.tickets.ListTokens(ctx, code+"-", win)
	if err != nil {
		return "", err
	}
	next := highestSuffix(tokens, code) + 1

	for attempt := 0; attempt < tokenMaxAttempts; attempt++ {
		candidate := fmt.Sprintf("%s-%03d", code, next)
		exists, err := a.tickets.TokenExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		a.metrics.RecordTokenCollision()
		next++
	}

	a.logger.Warn("token allocation exhausted sequential retries, falling back",
		zap.String("code", code))

	// Timestamp fallback: last four digits of the clock.
	candidate := fmt.Sprintf("%s-%04d", code, now.Unix()%10000)
	exists, err := a.tickets.TokenExists(ctx, candidate)
	if err != nil {
		return "", err
	}
	if !exists {
		return candidate, nil
	}

	for attempt := 0; attempt < tokenFallbackAttempts; attempt++ {
		candidate = fmt.Sprintf("%s-%04d", code, rand.Intn(10000))
		exists, err := a.tickets.TokenExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		a.metrics.RecordTokenCollision()
	}

	return "", apperrors.NewConcurrencyExhausted("token allocation",
		map[string]any{"category_id": category.ID})
}

// highestSuffix parses the numeric suffix of each token and returns the
// maximum. Four-digit fallback suffixes are skipped so an earlier
// fallback does not catapult the sequence.
func highestSuffix(tokens []string, code string) int {
	highest := 0
	for _, token := range tokens {
		suffix := strings.TrimPrefix(token, code+"-")
		if len(suffix) != 3 {
			continue
		}
		n, err := strconv.Atoi(suffix)
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return highest
}
