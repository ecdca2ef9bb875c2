package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"presupuesto/internal/core"
)

// CreateAccountType inserts an account type at the end of the user's display
// order. A duplicate name for the same user maps to core.ErrNameTaken.
func (s *Store) CreateAccountType(ctx context.Context, at core.AccountType) (int64, error) {
	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var next int
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(sort_order), 0) + 1 FROM account_types WHERE user_id = ?`,
			at.UserID).Scan(&next); err != nil {
			return fmt.Errorf("next sort order: %w", err)
		}

		var exists int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM account_types WHERE user_id = ? AND name = ?`,
			at.UserID, at.Name).Scan(&exists)
		if err == nil {
			return core.ErrNameTaken
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("check name: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO account_types (user_id, name, sort_order) VALUES (?, ?, ?)`,
			at.UserID, at.Name, next)
		if err != nil {
			return fmt.Errorf("insert account type: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("read account type id: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) AccountTypes(ctx context.Context, userID int64) ([]core.AccountType, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, sort_order FROM account_types WHERE user_id = ? ORDER BY sort_order`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("select account types: %w", err)
	}
	defer rows.Close()

	var out []core.AccountType
	for rows.Next() {
		var at core.AccountType
		if err := rows.Scan(&at.ID, &at.UserID, &at.Name, &at.SortOrder); err != nil {
			return nil, fmt.Errorf("scan account type: %w", err)
		}
		out = append(out, at)
	}
	return out, rows.Err()
}

func (s *Store) AccountTypeByID(ctx context.Context, id, userID int64) (core.AccountType, error) {
	var at core.AccountType
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, sort_order FROM account_types WHERE id = ? AND user_id = ?`,
		id, userID).Scan(&at.ID, &at.UserID, &at.Name, &at.SortOrder)
	if errors.Is(err, sql.ErrNoRows) {
		return core.AccountType{}, core.ErrNotFound
	}
	if err != nil {
		return core.AccountType{}, fmt.Errorf("select account type: %w", err)
	}
	return at, nil
}

// AccountTypeNameExists reports whether another account type of the same
// user already carries the name. excludeID skips the row being edited.
func (s *Store) AccountTypeNameExists(ctx context.Context, name string, userID, excludeID int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM account_types WHERE name = ? AND user_id = ? AND id <> ?`,
		name, userID, excludeID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check account type name: %w", err)
	}
	return true, nil
}

// RenameAccountType changes the name, rejecting a name another of the
// user's account types already carries.
func (s *Store) RenameAccountType(ctx context.Context, at core.AccountType) error {
	taken, err := s.AccountTypeNameExists(ctx, at.Name, at.UserID, at.ID)
	if err != nil {
		return err
	}
	if taken {
		return core.ErrNameTaken
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE account_types SET name = ? WHERE id = ? AND user_id = ?`,
		at.Name, at.ID, at.UserID)
	if err != nil {
		return fmt.Errorf("update account type: %w", err)
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

// DeleteAccountType removes an account type unless accounts still reference
// it, in which case it fails with core.ErrInUse.
func (s *Store) DeleteAccountType(ctx context.Context, id, userID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM account_types WHERE id = ? AND user_id = ?`, id, userID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return core.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("select account type: %w", err)
		}

		var refs int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM accounts WHERE account_type_id = ?`, id).Scan(&refs); err != nil {
			return fmt.Errorf("count referencing accounts: %w", err)
		}
		if refs > 0 {
			return core.ErrInUse
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM account_types WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete account type: %w", err)
		}
		return nil
	})
}

// ReorderAccountTypes assigns sort_order 1..N by the position of each id in
// orderedIDs. The ids must be exactly a subset of the caller's account types;
// any foreign id rejects the whole request with core.ErrForeignIDs.
func (s *Store) ReorderAccountTypes(ctx context.Context, userID int64, orderedIDs []int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		owned := make(map[int64]bool)
		rows, err := tx.QueryContext(ctx,
			`SELECT id FROM account_types WHERE user_id = ?`, userID)
		if err != nil {
			return fmt.Errorf("select owned ids: %w", err)
		}
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("scan id: %w", err)
			}
			owned[id] = true
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate owned ids: %w", err)
		}

		for _, id := range orderedIDs {
			if !owned[id] {
				return core.ErrForeignIDs
			}
		}

		for i, id := range orderedIDs {
			if _, err := tx.ExecContext(ctx,
				`UPDATE account_types SET sort_order = ? WHERE id = ?`, i+1, id); err != nil {
				return fmt.Errorf("update sort order: %w", err)
			}
		}
		return nil
	})
}
