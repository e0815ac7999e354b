package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/avatarctic/ledger/internal/core/domain/ledger"
	"github.com/avatarctic/ledger/internal/core/ports"
	"github.com/avatarctic/ledger/internal/infrastructure/db"
)

const accountColumns = `id, customer_name, phone, amount, is_paid, item_description, account_date, image_url, created_at, updated_at`

type accountRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

// NewAccountRepository creates the postgres backed AccountRepository
func NewAccountRepository(database *db.Database, logger *logrus.Logger) ports.AccountRepository {
	return &accountRepository{db: database, logger: logger}
}

func (r *accountRepository) Create(ctx context.Context, a *ledger.Account) error {
	query := `
		INSERT INTO accounts (customer_name, phone, amount, is_paid, item_description, account_date, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err := r.db.DB.QueryRowxContext(ctx, query,
		a.CustomerName, a.Phone, a.Amount, a.IsPaid, a.ItemDescription, a.AccountDate, a.ImageURL,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"customer_name": a.CustomerName}).WithError(err).Error("db: failed to insert account")
		}
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

func (r *accountRepository) GetByID(ctx context.Context, id int64) (*ledger.Account, error) {
	var a ledger.Account
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	if err := r.db.DB.GetContext(ctx, &a, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &a, nil
}

func (r *accountRepository) Update(ctx context.Context, a *ledger.Account) error {
	query := `
		UPDATE accounts
		SET customer_name = $2, phone = $3, amount = $4, is_paid = $5,
		    item_description = $6, account_date = $7, image_url = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.DB.QueryRowxContext(ctx, query,
		a.ID, a.CustomerName, a.Phone, a.Amount, a.IsPaid, a.ItemDescription, a.AccountDate, a.ImageURL,
	).Scan(&a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.ErrAccountNotFound
		}
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"account_id": a.ID}).WithError(err).Error("db: failed to update account")
		}
		return fmt.Errorf("failed to update account: %w", err)
	}
	return nil
}

func (r *accountRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.DB.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ledger.ErrAccountNotFound
	}
	return nil
}

func (r *accountRepository) List(ctx context.Context, filter *ledger.AccountFilter) ([]*ledger.Account, error) {
	where, args := buildAccountWhere(filter)
	query := `SELECT ` + accountColumns + ` FROM accounts` + where + ` ORDER BY created_at DESC, id DESC`
	if filter != nil {
		if filter.Limit > 0 {
			args = append(args, filter.Limit)
			query += " LIMIT $" + strconv.Itoa(len(args))
		}
		if filter.Offset > 0 {
			args = append(args, filter.Offset)
			query += " OFFSET $" + strconv.Itoa(len(args))
		}
	}
	if r.logger != nil {
		r.logger.WithFields(logrus.Fields{"query": query, "args": args}).Debug("db: executing account list query")
	}

	accounts := make([]*ledger.Account, 0)
	if err := r.db.DB.SelectContext(ctx, &accounts, query, args...); err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"query": query}).WithError(err).Error("db: failed to execute account list query")
		}
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

func (r *accountRepository) Count(ctx context.Context, filter *ledger.AccountFilter) (int, error) {
	where, args := buildAccountWhere(filter)
	var count int
	if err := r.db.DB.GetContext(ctx, &count, `SELECT COUNT(*) FROM accounts`+where, args...); err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return count, nil
}

func (r *accountRepository) Summarize(ctx context.Context, filter *ledger.AccountFilter) (*ledger.Summary, error) {
	where, args := buildAccountWhere(filter)
	query := `
		SELECT COUNT(*) AS count,
		       COALESCE(SUM(amount), 0) AS total_amount,
		       COUNT(*) FILTER (WHERE NOT is_paid) AS unpaid_count,
		       COALESCE(SUM(amount) FILTER (WHERE NOT is_paid), 0) AS unpaid_amount
		FROM accounts` + where

	var s ledger.Summary
	if err := r.db.DB.GetContext(ctx, &s, query, args...); err != nil {
		return nil, fmt.Errorf("failed to summarize accounts: %w", err)
	}
	return &s, nil
}

// buildAccountWhere returns the WHERE clause (with a leading space) and its
// positional arguments. Keyword matches name, phone and item description.
func buildAccountWhere(filter *ledger.AccountFilter) (string, []interface{}) {
	if filter == nil {
		return "", nil
	}
	var conditions []string
	var args []interface{}
	next := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		p := next("%" + escapeLike(kw) + "%")
		conditions = append(conditions, "(customer_name ILIKE "+p+" OR phone ILIKE "+p+" OR item_description ILIKE "+p+")")
	}
	if filter.StartDate != "" {
		conditions = append(conditions, "account_date >= "+next(filter.StartDate))
	}
	if filter.EndDate != "" {
		conditions = append(conditions, "account_date <= "+next(filter.EndDate))
	}
	if filter.IsPaid != nil {
		conditions = append(conditions, "is_paid = "+next(*filter.IsPaid))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
