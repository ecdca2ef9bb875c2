package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"presupuesto/internal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedUser(t *testing.T, s *Store, email string) int64 {
	t.Helper()
	id, err := s.CreateUser(context.Background(), core.User{
		Email:           email,
		NormalizedEmail: email,
		PasswordHash:    "x",
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return id
}

func seedAccountType(t *testing.T, s *Store, userID int64, name string) int64 {
	t.Helper()
	id, err := s.CreateAccountType(context.Background(), core.AccountType{UserID: userID, Name: name})
	if err != nil {
		t.Fatalf("seed account type: %v", err)
	}
	return id
}

func seedAccount(t *testing.T, s *Store, userID, typeID int64, name string, balanceCents int64) int64 {
	t.Helper()
	id, err := s.CreateAccount(context.Background(), core.Account{
		UserID:        userID,
		AccountTypeID: typeID,
		Name:          name,
		Balance:       core.Money{Cents: balanceCents},
	})
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return id
}

func seedCategory(t *testing.T, s *Store, userID int64, name string, op core.OperationType) int64 {
	t.Helper()
	id, err := s.CreateCategory(context.Background(), core.Category{UserID: userID, Name: name, Operation: op})
	if err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return id
}

func seedTransaction(t *testing.T, s *Store, userID, accountID, categoryID, cents int64, date time.Time) int64 {
	t.Helper()
	id, err := s.CreateTransaction(context.Background(), core.Transaction{
		UserID:     userID,
		AccountID:  accountID,
		CategoryID: categoryID,
		Amount:     core.Money{Cents: cents},
		Date:       date,
	})
	if err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
	return id
}

func accountBalance(t *testing.T, s *Store, accountID, userID int64) int64 {
	t.Helper()
	a, err := s.AccountByID(context.Background(), accountID, userID)
	if err != nil {
		t.Fatalf("read account: %v", err)
	}
	return a.Balance.Cents
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
