package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"

	_ "modernc.org/sqlite"
)

// ErrNotFound signals that a lookup matched no row. Callers that treat
// "no prior occurrence" as a normal condition check for it with errors.Is.
var ErrNotFound = errors.New("transaction not found")

const (
	dateFormat = "2006-01-02"

	// Pagination bounds for ListTransactions.
	defaultPageSize = 10
	maxPageSize     = 100
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const transactionColumns = `id, user_id, type, amount_cents, category, description, date,
	is_recurring, recurring_frequency, template_id, is_deleted, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t          core.Transaction
		typ        string
		date       string
		frequency  sql.NullString
		templateID sql.NullInt64
		createdAt  string
		updatedAt  string
	)
	err := row.Scan(&t.ID, &t.UserID, &typ, &t.Amount.Cents, &t.Category, &t.Description,
		&date, &t.IsRecurring, &frequency, &templateID, &t.IsDeleted, &createdAt, &updatedAt)
	if err != nil {
		return core.Transaction{}, err
	}

	t.Type = core.TransactionType(typ)

	parsedDate, err := time.Parse(dateFormat, date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	t.Date = core.Date{Time: parsedDate}

	if frequency.Valid {
		t.Frequency = core.Frequency(frequency.String)
	}
	if templateID.Valid {
		t.TemplateID = templateID.Int64
	}

	if t.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return core.Transaction{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	if t.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return core.Transaction{}, fmt.Errorf("parse updated_at %q: %w", updatedAt, err)
	}

	return t, nil
}

func (r *SQLiteRepository) insert(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	var frequency sql.NullString
	if t.Frequency != "" {
		frequency = sql.NullString{String: string(t.Frequency), Valid: true}
	}
	var templateID sql.NullInt64
	if t.TemplateID != 0 {
		templateID = sql.NullInt64{Int64: t.TemplateID, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (user_id, type, amount_cents, category, description, date,
			is_recurring, recurring_frequency, template_id, is_deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, string(t.Type), t.Amount.Cents, t.Category, t.Description, t.Date.String(),
		t.IsRecurring, frequency, templateID, t.IsDeleted,
		now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	if t.ID, err = res.LastInsertId(); err != nil {
		return core.Transaction{}, fmt.Errorf("last insert id: %w", err)
	}
	return t, nil
}

// CreateTransaction validates and persists a user-entered transaction or a
// recurring template.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("validate transaction: %w", err)
	}

	created, err := r.insert(ctx, t)
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction saved",
		log.FieldComponent, log.ComponentStorage,
		"id", created.ID,
		log.FieldUserID, created.UserID,
		"type", created.Type,
		log.FieldAmountCents, created.Amount.Cents,
		"is_recurring", created.IsRecurring)

	return created, nil
}

// GetTransaction returns a single transaction by id, deleted ones included.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return t, nil
}

// ListFilter narrows ListTransactions. Zero values mean "no filter"; Page
// and Limit follow the usual 1-based page / page-size convention.
type ListFilter struct {
	UserID   string
	Type     core.TransactionType
	Category string
	From     core.Date
	To       core.Date
	Search   string
	Page     int
	Limit    int
}

// ListTransactions returns a page of the user's non-deleted transactions,
// newest date first, plus the total count matching the filter.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, f ListFilter) ([]core.Transaction, int, error) {
	if f.UserID == "" {
		return nil, 0, core.ErrEmptyUser
	}

	where := []string{"user_id = ?", "is_deleted = 0"}
	args := []any{f.UserID}

	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(f.Type))
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if !f.From.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, f.To.String())
	}
	if f.Search != "" {
		where = append(where, "description LIKE ?")
		args = append(args, "%"+f.Search+"%")
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	limit := f.Limit
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` + clause +
		` ORDER BY date DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, limit, (page-1)*limit)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transactions: %w", err)
	}

	return transactions, total, nil
}

// UpdateTransaction rewrites the mutable fields of a transaction owned by
// t.UserID. Soft-deleted rows cannot be updated.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("validate transaction: %w", err)
	}

	var frequency sql.NullString
	if t.Frequency != "" {
		frequency = sql.NullString{String: string(t.Frequency), Valid: true}
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET type = ?, amount_cents = ?, category = ?, description = ?, date = ?,
			is_recurring = ?, recurring_frequency = ?, updated_at = ?
		WHERE id = ? AND user_id = ? AND is_deleted = 0`,
		string(t.Type), t.Amount.Cents, t.Category, t.Description, t.Date.String(),
		t.IsRecurring, frequency, time.Now().UTC().Format(time.RFC3339),
		t.ID, t.UserID)
	if err != nil {
		return fmt.Errorf("update transaction %d: %w", t.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDeleteTransaction flags a transaction as deleted without removing the
// row. A deleted template stops materializing on the next pass.
func (r *SQLiteRepository) SoftDeleteTransaction(ctx context.Context, id int64, userID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET is_deleted = 1, updated_at = ?
		WHERE id = ? AND user_id = ? AND is_deleted = 0`,
		time.Now().UTC().Format(time.RFC3339), id, userID)
	if err != nil {
		return fmt.Errorf("soft delete transaction %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction soft-deleted", "id", id, log.FieldUserID, userID)
	return nil
}

// MonthSummary aggregates a user's income/expense totals for one month,
// with per-category expense breakdown.
func (r *SQLiteRepository) MonthSummary(ctx context.Context, userID string, year, month int) (core.MonthSummary, error) {
	summary := core.MonthSummary{Year: year, Month: month}

	from := fmt.Sprintf("%04d-%02d-01", year, month)
	nextYear, nextMonth := year, month+1
	if nextMonth > 12 {
		nextYear, nextMonth = year+1, 1
	}
	to := fmt.Sprintf("%04d-%02d-01", nextYear, nextMonth)

	rows, err := r.db.QueryContext(ctx, `
		SELECT type, COALESCE(SUM(amount_cents), 0)
		FROM transactions
		WHERE user_id = ? AND is_deleted = 0 AND is_recurring = 0 AND date >= ? AND date < ?
		GROUP BY type`,
		userID, from, to)
	if err != nil {
		return summary, fmt.Errorf("sum by type: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var typ string
		var cents int64
		if err := rows.Scan(&typ, &cents); err != nil {
			return summary, fmt.Errorf("scan type sum: %w", err)
		}
		switch core.TransactionType(typ) {
		case core.Income:
			summary.Income = core.Money{Cents: cents}
		case core.Expense:
			summary.Expense = core.Money{Cents: cents}
		}
	}
	if err := rows.Err(); err != nil {
		return summary, fmt.Errorf("iterate type sums: %w", err)
	}

	catRows, err := r.db.QueryContext(ctx, `
		SELECT category, COALESCE(SUM(amount_cents), 0) AS total
		FROM transactions
		WHERE user_id = ? AND is_deleted = 0 AND is_recurring = 0 AND type = 'expense'
			AND date >= ? AND date < ?
		GROUP BY category
		ORDER BY total DESC`,
		userID, from, to)
	if err != nil {
		return summary, fmt.Errorf("sum by category: %w", err)
	}
	defer catRows.Close()

	for catRows.Next() {
		var ca core.CategoryAmount
		if err := catRows.Scan(&ca.Name, &ca.Amount.Cents); err != nil {
			return summary, fmt.Errorf("scan category sum: %w", err)
		}
		summary.ByCategory = append(summary.ByCategory, ca)
	}
	if err := catRows.Err(); err != nil {
		return summary, fmt.Errorf("iterate category sums: %w", err)
	}

	return summary, nil
}

// ListActiveRecurringTemplates implements services.TransactionStore.
func (r *SQLiteRepository) ListActiveRecurringTemplates(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE is_recurring = 1 AND is_deleted = 0
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list recurring templates: %w", err)
	}
	defer rows.Close()

	var templates []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate templates: %w", err)
	}
	return templates, nil
}

// FindLatestMatchingOccurrence implements services.TransactionStore. The
// match is by field equality with the template, newest creation first.
// Soft-deleted rows are intentionally not excluded: deleting an occurrence
// does not re-arm its template within the cadence window.
func (r *SQLiteRepository) FindLatestMatchingOccurrence(ctx context.Context, tpl core.Transaction) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE user_id = ? AND description = ? AND category = ? AND type = ?
			AND amount_cents = ? AND is_recurring = 0
		ORDER BY created_at DESC, id DESC
		LIMIT 1`,
		tpl.UserID, tpl.Description, tpl.Category, string(tpl.Type), tpl.Amount.Cents)

	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("find latest occurrence: %w", err)
	}
	return t, nil
}

// CreateOccurrence implements services.TransactionStore. The new row copies
// the template's identity fields, is dated to the given day, and records
// the template id it came from. The template itself is never touched.
func (r *SQLiteRepository) CreateOccurrence(ctx context.Context, tpl core.Transaction, date core.Date) (core.Transaction, error) {
	occ := core.Transaction{
		UserID:      tpl.UserID,
		Type:        tpl.Type,
		Amount:      tpl.Amount,
		Category:    tpl.Category,
		Description: tpl.Description,
		Date:        date,
		TemplateID:  tpl.ID,
	}
	created, err := r.insert(ctx, occ)
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Occurrence materialized",
		"id", created.ID,
		log.FieldTemplateID, tpl.ID,
		log.FieldUserID, tpl.UserID,
		"date", date.String())

	return created, nil
}
