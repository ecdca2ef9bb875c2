package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"presupuesto/internal/core"
)

func (s *Store) CreateAccount(ctx context.Context, a core.Account) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (user_id, account_type_id, name, description, balance_cents)
		 VALUES (?, ?, ?, ?, ?)`,
		a.UserID, a.AccountTypeID, a.Name, a.Description, a.Balance.Cents)
	if err != nil {
		return 0, fmt.Errorf("insert account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read account id: %w", err)
	}
	return id, nil
}

// AccountWithType carries the joined account-type name for grouped listings.
type AccountWithType struct {
	core.Account
	AccountTypeName string
}

// Accounts returns the user's accounts ordered by account-type display
// order, so callers can group them by type in a single pass.
func (s *Store) Accounts(ctx context.Context, userID int64) ([]AccountWithType, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.id, a.user_id, a.account_type_id, a.name, a.description, a.balance_cents, at.name
		 FROM accounts a
		 INNER JOIN account_types at ON at.id = a.account_type_id
		 WHERE a.user_id = ?
		 ORDER BY at.sort_order, a.name`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("select accounts: %w", err)
	}
	defer rows.Close()

	var out []AccountWithType
	for rows.Next() {
		var a AccountWithType
		if err := rows.Scan(&a.ID, &a.UserID, &a.AccountTypeID, &a.Name, &a.Description,
			&a.Balance.Cents, &a.AccountTypeName); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) AccountByID(ctx context.Context, id, userID int64) (core.Account, error) {
	var a core.Account
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, account_type_id, name, description, balance_cents
		 FROM accounts WHERE id = ? AND user_id = ?`,
		id, userID).Scan(&a.ID, &a.UserID, &a.AccountTypeID, &a.Name, &a.Description, &a.Balance.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("select account: %w", err)
	}
	return a, nil
}

// UpdateAccount changes name, description and type. Balance is deliberately
// not writable here; only the ledger engine touches it.
func (s *Store) UpdateAccount(ctx context.Context, a core.Account) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET name = ?, description = ?, account_type_id = ?
		 WHERE id = ? AND user_id = ?`,
		a.Name, a.Description, a.AccountTypeID, a.ID, a.UserID)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeleteAccount removes an account unless transactions still reference it.
func (s *Store) DeleteAccount(ctx context.Context, id, userID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM accounts WHERE id = ? AND user_id = ?`, id, userID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return core.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("select account: %w", err)
		}

		var refs int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM transactions WHERE account_id = ?`, id).Scan(&refs); err != nil {
			return fmt.Errorf("count referencing transactions: %w", err)
		}
		if refs > 0 {
			return core.ErrInUse
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete account: %w", err)
		}
		return nil
	})
}
