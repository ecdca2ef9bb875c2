package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"presupuesto/internal/core"
)

func (s *Store) CreateCategory(ctx context.Context, c core.Category) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (user_id, name, operation_type) VALUES (?, ?, ?)`,
		c.UserID, c.Name, int(c.Operation))
	if err != nil {
		return 0, fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read category id: %w", err)
	}
	return id, nil
}

func (s *Store) Categories(ctx context.Context, userID int64) ([]core.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, operation_type FROM categories WHERE user_id = ? ORDER BY name`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("select categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		var op int
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &op); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Operation = core.OperationType(op)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) CategoryByID(ctx context.Context, id, userID int64) (core.Category, error) {
	var c core.Category
	var op int
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, operation_type FROM categories WHERE id = ? AND user_id = ?`,
		id, userID).Scan(&c.ID, &c.UserID, &c.Name, &op)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("select category: %w", err)
	}
	c.Operation = core.OperationType(op)
	return c, nil
}

// UpdateCategory changes name and operation type. Flipping the operation
// type while transactions reference the category would silently invert their
// sign, so that case is rejected with core.ErrInUse.
func (s *Store) UpdateCategory(ctx context.Context, c core.Category) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var storedOp int
		err := tx.QueryRowContext(ctx,
			`SELECT operation_type FROM categories WHERE id = ? AND user_id = ?`,
			c.ID, c.UserID).Scan(&storedOp)
		if errors.Is(err, sql.ErrNoRows) {
			return core.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("select category: %w", err)
		}

		if core.OperationType(storedOp) != c.Operation {
			var refs int
			if err := tx.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM transactions WHERE category_id = ?`, c.ID).Scan(&refs); err != nil {
				return fmt.Errorf("count referencing transactions: %w", err)
			}
			if refs > 0 {
				return core.ErrInUse
			}
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE categories SET name = ?, operation_type = ? WHERE id = ?`,
			c.Name, int(c.Operation), c.ID); err != nil {
			return fmt.Errorf("update category: %w", err)
		}
		return nil
	})
}

// DeleteCategory removes a category unless transactions still reference it.
func (s *Store) DeleteCategory(ctx context.Context, id, userID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM categories WHERE id = ? AND user_id = ?`, id, userID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return core.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("select category: %w", err)
		}

		var refs int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM transactions WHERE category_id = ?`, id).Scan(&refs); err != nil {
			return fmt.Errorf("count referencing transactions: %w", err)
		}
		if refs > 0 {
			return core.ErrInUse
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		return nil
	})
}
