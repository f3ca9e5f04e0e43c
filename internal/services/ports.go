package services

import (
	"context"

	"fintrack/internal/core"
)

// TransactionStore is the slice of the storage contract the materialization
// engine consumes.
type TransactionStore interface {
	// ListActiveRecurringTemplates returns every template with the
	// recurring flag set and the soft-delete flag clear, across all users.
	ListActiveRecurringTemplates(ctx context.Context) ([]core.Transaction, error)

	// FindLatestMatchingOccurrence returns the most recently created
	// non-recurring transaction with the template's user, description,
	// category, type and amount, or storage.ErrNotFound. The match is by
	// field equality, not by template id: two templates that look alike
	// are indistinguishable here.
	FindLatestMatchingOccurrence(ctx context.Context, tpl core.Transaction) (core.Transaction, error)

	// CreateOccurrence persists a new non-recurring transaction copied
	// from the template, dated to the given day.
	CreateOccurrence(ctx context.Context, tpl core.Transaction, date core.Date) (core.Transaction, error)
}

// EventPublisher notifies downstream consumers about transactions the
// engine creates. Implementations must be safe to call best-effort: a
// publish failure never rolls back the created occurrence.
type EventPublisher interface {
	PublishTransactionCreated(ctx context.Context, id int64, runID string) error
}
