package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// DefaultTemplateTimeout bounds the store calls for a single template so
// one slow operation cannot stall a whole pass.
const DefaultTemplateTimeout = 10 * time.Second

// RecurringProcessor materializes concrete transactions from recurring
// templates. One pass walks every active template sequentially, decides
// per template whether an occurrence is due today, and creates it.
//
// Duplicate protection is advisory only: the decision looks at occurrences
// that existed when it ran, so two concurrent passes (or two processes) can
// each create an occurrence for the same template on the same day. There is
// no materialization ledger and no uniqueness constraint backing this up.
type RecurringProcessor struct {
	store           TransactionStore
	publisher       EventPublisher
	templateTimeout time.Duration
}

// NewRecurringProcessor creates a processor. publisher may be nil, in which
// case created occurrences are not announced. A non-positive timeout falls
// back to DefaultTemplateTimeout.
func NewRecurringProcessor(store TransactionStore, publisher EventPublisher, templateTimeout time.Duration) *RecurringProcessor {
	if templateTimeout <= 0 {
		templateTimeout = DefaultTemplateTimeout
	}
	return &RecurringProcessor{
		store:           store,
		publisher:       publisher,
		templateTimeout: templateTimeout,
	}
}

// Decision is the per-template verdict of one pass.
type Decision struct {
	Due bool
	// Reference is the date the verdict was computed against: the
	// template's anchor when no occurrence exists yet, otherwise the date
	// of the newest matching occurrence.
	Reference  core.Date
	FromAnchor bool
}

// PassSummary aggregates one pass over all active templates.
type PassSummary struct {
	RunID   string
	Checked int
	Created int
	Errors  int
}

// RunPass executes one materialization pass at the given wall-clock time.
// A failure to list templates abandons the pass; any later error is scoped
// to its template, counted, and skipped.
func (p *RecurringProcessor) RunPass(ctx context.Context, now time.Time) (PassSummary, error) {
	summary := PassSummary{RunID: uuid.NewString()}
	today := core.DateOf(now)

	templates, err := p.store.ListActiveRecurringTemplates(ctx)
	if err != nil {
		return summary, fmt.Errorf("list active recurring templates: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring templates",
		log.FieldComponent, log.ComponentProcessor,
		log.FieldRunID, summary.RunID,
		"total_active", len(templates),
		"processing_date", today.String())

	for _, tpl := range templates {
		summary.Checked++
		created, err := p.processTemplate(ctx, tpl, today, summary.RunID)
		if err != nil {
			summary.Errors++
			slog.ErrorContext(ctx, "Failed to process recurring template",
				log.FieldRunID, summary.RunID,
				log.FieldTemplateID, tpl.ID,
				log.FieldUserID, tpl.UserID,
				log.FieldError, err)
			continue
		}
		if created {
			summary.Created++
		}
	}

	slog.InfoContext(ctx, "Recurring pass complete",
		log.FieldRunID, summary.RunID,
		"checked", summary.Checked,
		"created", summary.Created,
		"errors", summary.Errors)

	return summary, nil
}

func (p *RecurringProcessor) processTemplate(ctx context.Context, tpl core.Transaction, today core.Date, runID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, p.templateTimeout)
	defer cancel()

	decision, err := p.Decide(ctx, tpl, today)
	if err != nil {
		return false, err
	}
	if !decision.Due {
		return false, nil
	}

	occ, err := p.store.CreateOccurrence(ctx, tpl, today)
	if err != nil {
		return false, fmt.Errorf("create occurrence: %w", err)
	}

	slog.InfoContext(ctx, "Created transaction from recurring template",
		log.FieldRunID, runID,
		log.FieldTemplateID, tpl.ID,
		"transaction_id", occ.ID,
		log.FieldUserID, tpl.UserID,
		log.FieldAmountCents, tpl.Amount.Cents,
		log.FieldFrequency, tpl.Frequency,
		"reference_date", decision.Reference.String(),
		"from_anchor", decision.FromAnchor)

	if p.publisher != nil {
		if err := p.publisher.PublishTransactionCreated(ctx, occ.ID, runID); err != nil {
			// Best effort: the occurrence is already persisted.
			slog.ErrorContext(ctx, "Failed to publish transaction created event",
				log.FieldRunID, runID,
				"transaction_id", occ.ID,
				log.FieldError, err)
		}
	}

	return true, nil
}

// Decide computes whether the template should materialize today. With no
// prior matching occurrence the template's anchor date drives the verdict;
// otherwise the whole days since the newest occurrence do. An unknown
// frequency is never due.
func (p *RecurringProcessor) Decide(ctx context.Context, tpl core.Transaction, today core.Date) (Decision, error) {
	last, err := p.store.FindLatestMatchingOccurrence(ctx, tpl)
	if errors.Is(err, storage.ErrNotFound) {
		decision := Decision{Reference: tpl.Date, FromAnchor: true}
		if rule, ok := RuleFor(tpl.Frequency); ok {
			decision.Due = rule.DueFromAnchor(tpl.Date, today)
		}
		return decision, nil
	}
	if err != nil {
		return Decision{}, fmt.Errorf("resolve last occurrence: %w", err)
	}

	decision := Decision{Reference: last.Date}
	if rule, ok := RuleFor(tpl.Frequency); ok {
		decision.Due = rule.DueFromLast(today.DaysSince(last.Date))
	}
	return decision, nil
}
