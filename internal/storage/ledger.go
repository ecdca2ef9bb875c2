package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"presupuesto/internal/core"
)

// The ledger engine. Every mutation below adjusts the affected account
// balances and the transaction row inside one database transaction, so a
// failure partway leaves balances at either the fully-old or fully-new
// state. Invariant: accounts.balance_cents equals the sum of effective
// signed amounts of the remaining transactions on that account.

// BucketSum is one aggregation row: a week index or month number combined
// with an operation type and the summed unsigned amount.
type BucketSum struct {
	Bucket    int
	Operation core.OperationType
	Amount    core.Money
}

// CreateTransaction persists a transaction and applies its effective signed
// amount to the target account balance. The account and category must exist
// and belong to the transaction's user, otherwise core.ErrNotFound.
func (s *Store) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		op, err := categoryOperation(ctx, tx, t.CategoryID, t.UserID)
		if err != nil {
			return err
		}
		if err := accountOwned(ctx, tx, t.AccountID, t.UserID); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (user_id, account_id, category_id, amount_cents, tx_date, note)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			t.UserID, t.AccountID, t.CategoryID, t.Amount.Cents,
			t.Date.Format(core.DateLayout), t.Note)
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("read transaction id: %w", err)
		}

		return adjustBalance(ctx, tx, t.AccountID, op.Sign()*t.Amount.Cents)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateTransaction reverses the previous effect and applies the new one.
// prevAmountCents and prevAccountID come from the caller's pre-edit read,
// but the committed row is re-read inside the same transaction and a
// mismatch fails with core.ErrInconsistentState rather than corrupting a
// balance with a stale delta.
func (s *Store) UpdateTransaction(ctx context.Context, t core.Transaction, prevAmountCents, prevAccountID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var (
			storedAccount  int64
			storedAmount   int64
			storedCategory int64
		)
		err := tx.QueryRowContext(ctx,
			`SELECT account_id, amount_cents, category_id FROM transactions
			 WHERE id = ? AND user_id = ?`, t.ID, t.UserID).
			Scan(&storedAccount, &storedAmount, &storedCategory)
		if errors.Is(err, sql.ErrNoRows) {
			return core.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("select committed transaction: %w", err)
		}
		if storedAccount != prevAccountID || storedAmount != prevAmountCents {
			return core.ErrInconsistentState
		}

		// Signs come from the current state of both categories.
		prevOp, err := categoryOperation(ctx, tx, storedCategory, t.UserID)
		if err != nil {
			return err
		}
		newOp, err := categoryOperation(ctx, tx, t.CategoryID, t.UserID)
		if err != nil {
			return err
		}
		if err := accountOwned(ctx, tx, t.AccountID, t.UserID); err != nil {
			return err
		}

		if err := adjustBalance(ctx, tx, prevAccountID, -prevOp.Sign()*prevAmountCents); err != nil {
			return err
		}
		if err := adjustBalance(ctx, tx, t.AccountID, newOp.Sign()*t.Amount.Cents); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE transactions SET account_id = ?, category_id = ?, amount_cents = ?, tx_date = ?, note = ?
			 WHERE id = ? AND user_id = ?`,
			t.AccountID, t.CategoryID, t.Amount.Cents, t.Date.Format(core.DateLayout), t.Note,
			t.ID, t.UserID)
		if err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		return nil
	})
}

// DeleteTransaction reverses the transaction's effective amount from its
// account balance and removes the row. A transaction owned by another user
// is indistinguishable from a missing one.
func (s *Store) DeleteTransaction(ctx context.Context, id, userID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var (
			accountID int64
			amount    int64
			op        int
		)
		err := tx.QueryRowContext(ctx,
			`SELECT t.account_id, t.amount_cents, c.operation_type
			 FROM transactions t
			 INNER JOIN categories c ON c.id = t.category_id
			 WHERE t.id = ? AND t.user_id = ?`, id, userID).
			Scan(&accountID, &amount, &op)
		if errors.Is(err, sql.ErrNoRows) {
			return core.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("select transaction: %w", err)
		}

		if err := adjustBalance(ctx, tx, accountID, -core.OperationType(op).Sign()*amount); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}
		return nil
	})
}

// TransactionByID returns one transaction with its category's operation
// type, used to authorize edits and deletes.
func (s *Store) TransactionByID(ctx context.Context, id, userID int64) (core.Transaction, error) {
	var (
		t    core.Transaction
		op   int
		date string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT t.id, t.user_id, t.account_id, t.category_id, t.amount_cents, t.tx_date, t.note,
		        c.operation_type
		 FROM transactions t
		 INNER JOIN categories c ON c.id = t.category_id
		 WHERE t.id = ? AND t.user_id = ?`, id, userID).
		Scan(&t.ID, &t.UserID, &t.AccountID, &t.CategoryID, &t.Amount.Cents, &date, &t.Note, &op)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("select transaction: %w", err)
	}
	t.Operation = core.OperationType(op)
	t.Date, err = time.Parse(core.DateLayout, date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction date: %w", err)
	}
	return t, nil
}

// TransactionsByAccount lists one account's transactions inside an inclusive
// date window, joined with category and account names.
func (s *Store) TransactionsByAccount(ctx context.Context, accountID, userID int64, start, end time.Time) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.id, t.user_id, t.account_id, t.category_id, t.amount_cents, t.tx_date, t.note,
		        c.name, a.name, c.operation_type
		 FROM transactions t
		 INNER JOIN categories c ON c.id = t.category_id
		 INNER JOIN accounts a ON a.id = t.account_id
		 WHERE t.account_id = ? AND t.user_id = ?
		   AND t.tx_date BETWEEN ? AND ?`,
		accountID, userID, start.Format(core.DateLayout), end.Format(core.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("select transactions by account: %w", err)
	}
	return scanTransactions(rows)
}

// TransactionsByUser lists all of a user's transactions inside an inclusive
// date window, most recent first. The descending date order is a contract
// relied on by callers, not an accident of the index.
func (s *Store) TransactionsByUser(ctx context.Context, userID int64, start, end time.Time) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.id, t.user_id, t.account_id, t.category_id, t.amount_cents, t.tx_date, t.note,
		        c.name, a.name, c.operation_type
		 FROM transactions t
		 INNER JOIN categories c ON c.id = t.category_id
		 INNER JOIN accounts a ON a.id = t.account_id
		 WHERE t.user_id = ?
		   AND t.tx_date BETWEEN ? AND ?
		 ORDER BY t.tx_date DESC, t.id DESC`,
		userID, start.Format(core.DateLayout), end.Format(core.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("select transactions by user: %w", err)
	}
	return scanTransactions(rows)
}

// SumByWeek groups a user's transactions in [start, end] by week index and
// operation type. Week 1 covers days 0..6 from the window start. Weeks
// without transactions of a type produce no row.
func (s *Store) SumByWeek(ctx context.Context, userID int64, start, end time.Time) ([]BucketSum, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT CAST((julianday(t.tx_date) - julianday(?)) / 7 AS INTEGER) + 1 AS week,
		        c.operation_type, SUM(t.amount_cents)
		 FROM transactions t
		 INNER JOIN categories c ON c.id = t.category_id
		 WHERE t.user_id = ? AND t.tx_date BETWEEN ? AND ?
		 GROUP BY week, c.operation_type
		 ORDER BY week, c.operation_type`,
		start.Format(core.DateLayout), userID,
		start.Format(core.DateLayout), end.Format(core.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("sum by week: %w", err)
	}
	return scanBucketSums(rows)
}

// SumByMonth groups a user's transactions in the calendar year by month
// number and operation type.
func (s *Store) SumByMonth(ctx context.Context, userID int64, year int) ([]BucketSum, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT CAST(strftime('%m', t.tx_date) AS INTEGER) AS month,
		        c.operation_type, SUM(t.amount_cents)
		 FROM transactions t
		 INNER JOIN categories c ON c.id = t.category_id
		 WHERE t.user_id = ? AND strftime('%Y', t.tx_date) = ?
		 GROUP BY month, c.operation_type
		 ORDER BY month, c.operation_type`,
		userID, fmt.Sprintf("%04d", year))
	if err != nil {
		return nil, fmt.Errorf("sum by month: %w", err)
	}
	return scanBucketSums(rows)
}

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	defer rows.Close()
	var out []core.Transaction
	for rows.Next() {
		var (
			t    core.Transaction
			op   int
			date string
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.AccountID, &t.CategoryID, &t.Amount.Cents,
			&date, &t.Note, &t.CategoryName, &t.AccountName, &op); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Operation = core.OperationType(op)
		var err error
		t.Date, err = time.Parse(core.DateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("parse transaction date: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanBucketSums(rows *sql.Rows) ([]BucketSum, error) {
	defer rows.Close()
	var out []BucketSum
	for rows.Next() {
		var (
			b  BucketSum
			op int
		)
		if err := rows.Scan(&b.Bucket, &op, &b.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan bucket sum: %w", err)
		}
		b.Operation = core.OperationType(op)
		out = append(out, b)
	}
	return out, rows.Err()
}

func categoryOperation(ctx context.Context, tx *sql.Tx, categoryID, userID int64) (core.OperationType, error) {
	var op int
	err := tx.QueryRowContext(ctx,
		`SELECT operation_type FROM categories WHERE id = ? AND user_id = ?`,
		categoryID, userID).Scan(&op)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, core.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("select category operation: %w", err)
	}
	return core.OperationType(op), nil
}

func accountOwned(ctx context.Context, tx *sql.Tx, accountID, userID int64) error {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM accounts WHERE id = ? AND user_id = ?`, accountID, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("select account: %w", err)
	}
	return nil
}

func adjustBalance(ctx context.Context, tx *sql.Tx, accountID, deltaCents int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE accounts SET balance_cents = balance_cents + ? WHERE id = ?`,
		deltaCents, accountID)
	if err != nil {
		return fmt.Errorf("adjust balance: %w", err)
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
