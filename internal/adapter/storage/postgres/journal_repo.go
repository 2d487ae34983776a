package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"remit-backoffice/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// JournalRepo implements ports.JournalRepository. Entries and their lines
// are append-only; there is no update path.
type JournalRepo struct {
	pool Pool
}

// NewJournalRepo creates a new JournalRepo.
func NewJournalRepo(pool Pool) *JournalRepo {
	return &JournalRepo{pool: pool}
}

// Create inserts the entry and its lines within a database transaction.
func (r *JournalRepo) Create(ctx context.Context, tx pgx.Tx, entry *domain.JournalEntry) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO journal_entries (id, entry_number, entry_date, reference_type, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		entry.ID, entry.EntryNumber, entry.Date, entry.ReferenceType, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}

	for _, line := range entry.Lines {
		_, err := tx.Exec(ctx,
			`INSERT INTO journal_lines (entry_id, account_code, currency, debit, credit)
			VALUES ($1, $2, $3, $4::numeric, $5::numeric)`,
			entry.ID, string(line.AccountCode), string(line.Currency),
			line.Debit.String(), line.Credit.String(),
		)
		if err != nil {
			return fmt.Errorf("insert journal line: %w", err)
		}
	}
	return nil
}

// GetByEntryNumber fetches an entry with its lines, or nil when absent.
func (r *JournalRepo) GetByEntryNumber(ctx context.Context, entryNumber string) (*domain.JournalEntry, error) {
	entry := &domain.JournalEntry{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, entry_number, entry_date, reference_type, created_at
		FROM journal_entries WHERE entry_number = $1`,
		entryNumber,
	).Scan(&entry.ID, &entry.EntryNumber, &entry.Date, &entry.ReferenceType, &entry.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get journal entry: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT account_code, currency, debit::text, credit::text
		FROM journal_lines WHERE entry_id = $1 ORDER BY id`,
		entry.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("get journal lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		entry.Lines = append(entry.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal lines: %w", err)
	}
	return entry, nil
}

// ListPostings returns the account's ledger lines in posting order.
func (r *JournalRepo) ListPostings(ctx context.Context, code domain.AccountCode, from, to *time.Time) ([]domain.Posting, error) {
	query := `SELECT e.entry_number, e.reference_type, e.entry_date, l.account_code, l.currency, l.debit::text, l.credit::text
		FROM journal_lines l
		JOIN journal_entries e ON e.id = l.entry_id
		WHERE l.account_code = $1`
	args := []any{string(code)}

	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND e.entry_date >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND e.entry_date <= $%d", len(args))
	}
	query += " ORDER BY e.created_at, l.id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list postings: %w", err)
	}
	defer rows.Close()

	var postings []domain.Posting
	for rows.Next() {
		p := domain.Posting{}
		var debit, credit string
		err := rows.Scan(&p.EntryNumber, &p.ReferenceType, &p.Date, &p.AccountCode, &p.Currency, &debit, &credit)
		if err != nil {
			return nil, fmt.Errorf("scan posting row: %w", err)
		}
		if p.Debit, err = decimal.NewFromString(debit); err != nil {
			return nil, fmt.Errorf("parse debit %q: %w", debit, err)
		}
		if p.Credit, err = decimal.NewFromString(credit); err != nil {
			return nil, fmt.Errorf("parse credit %q: %w", credit, err)
		}
		postings = append(postings, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posting rows: %w", err)
	}
	return postings, nil
}

func scanLine(rows pgx.Rows) (domain.JournalLine, error) {
	var line domain.JournalLine
	var debit, credit string
	if err := rows.Scan(&line.AccountCode, &line.Currency, &debit, &credit); err != nil {
		return line, fmt.Errorf("scan journal line: %w", err)
	}
	var err error
	if line.Debit, err = decimal.NewFromString(debit); err != nil {
		return line, fmt.Errorf("parse debit %q: %w", debit, err)
	}
	if line.Credit, err = decimal.NewFromString(credit); err != nil {
		return line, fmt.Errorf("parse credit %q: %w", credit, err)
	}
	return line, nil
}
