package storage

import (
	"context"
	"errors"
	"testing"

	"presupuesto/internal/core"
)

func TestCreateTransactionAdjustsBalance(t *testing.T) {
	s := newTestStore(t)
	userID := seedUser(t, s, "A@EXAMPLE.COM")
	typeID := seedAccountType(t, s, userID, "Cash")
	accountID := seedAccount(t, s, userID, typeID, "Wallet", 10000)
	expenseCat := seedCategory(t, s, userID, "Groceries", core.Expense)
	incomeCat := seedCategory(t, s, userID, "Salary", core.Income)

	seedTransaction(t, s, userID, accountID, expenseCat, 5000, date(2025, 3, 10))
	if got := accountBalance(t, s, accountID, userID); got != 5000 {
		t.Fatalf("after expense: expected 5000, got %d", got)
	}

	seedTransaction(t, s, userID, accountID, incomeCat, 2500, date(2025, 3, 11))
	if got := accountBalance(t, s, accountID, userID); got != 7500 {
		t.Fatalf("after income: expected 7500, got %d", got)
	}
}

func TestCreateTransactionRejectsForeignReferences(t *testing.T) {
	s := newTestStore(t)
	alice := seedUser(t, s, "ALICE@EXAMPLE.COM")
	bob := seedUser(t, s, "BOB@EXAMPLE.COM")

	aliceType := seedAccountType(t, s, alice, "Cash")
	aliceAccount := seedAccount(t, s, alice, aliceType, "Wallet", 0)
	aliceCat := seedCategory(t, s, alice, "Groceries", core.Expense)

	bobType := seedAccountType(t, s, bob, "Cash")
	bobAccount := seedAccount(t, s, bob, bobType, "Wallet", 0)
	bobCat := seedCategory(t, s, bob, "Groceries", core.Expense)

	cases := []struct {
		name       string
		accountID  int64
		categoryID int64
	}{
		{"foreign account", bobAccount, aliceCat},
		{"foreign category", aliceAccount, bobCat},
		{"missing account", 9999, aliceCat},
		{"missing category", aliceAccount, 9999},
	}
	for _, tc := range cases {
		_, err := s.CreateTransaction(context.Background(), core.Transaction{
			UserID:     alice,
			AccountID:  tc.accountID,
			CategoryID: tc.categoryID,
			Amount:     core.Money{Cents: 100},
			Date:       date(2025, 3, 10),
		})
		if !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("%s: expected ErrNotFound, got %v", tc.name, err)
		}
	}

	// A failed create must not move any balance.
	if got := accountBalance(t, s, aliceAccount, alice); got != 0 {
		t.Fatalf("alice balance moved: %d", got)
	}
	if got := accountBalance(t, s, bobAccount, bob); got != 0 {
		t.Fatalf("bob balance moved: %d", got)
	}
}

func TestUpdateTransactionAmountChange(t *testing.T) {
	s := newTestStore(t)
	userID := seedUser(t, s, "A@EXAMPLE.COM")
	typeID := seedAccountType(t, s, userID, "Cash")
	accountID := seedAccount(t, s, userID, typeID, "Wallet", 10000)
	cat := seedCategory(t, s, userID, "Groceries", core.Expense)

	txID := seedTransaction(t, s, userID, accountID, cat, 2000, date(2025, 3, 10))
	if got := accountBalance(t, s, accountID, userID); got != 8000 {
		t.Fatalf("after create: expected 8000, got %d", got)
	}

	err := s.UpdateTransaction(context.Background(), core.Transaction{
		ID:         txID,
		UserID:     userID,
		AccountID:  accountID,
		CategoryID: cat,
		Amount:     core.Money{Cents: 3500},
		Date:       date(2025, 3, 10),
	}, 2000, accountID)
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if got := accountBalance(t, s, accountID, userID); got != 6500 {
		t.Fatalf("after edit: expected 6500, got %d", got)
	}
}

func TestUpdateTransactionCrossAccountMove(t *testing.T) {
	s := newTestStore(t)
	userID := seedUser(t, s, "A@EXAMPLE.COM")
	typeID := seedAccountType(t, s, userID, "Cash")
	accountA := seedAccount(t, s, userID, typeID, "A", 0)
	accountB := seedAccount(t, s, userID, typeID, "B", 0)
	salary := seedCategory(t, s, userID, "Salary", core.Income)

	txID := seedTransaction(t, s, userID, accountA, salary, 3000, date(2025, 3, 10))
	if got := accountBalance(t, s, accountA, userID); got != 3000 {
		t.Fatalf("A after create: expected 3000, got %d", got)
	}

	err := s.UpdateTransaction(context.Background(), core.Transaction{
		ID:         txID,
		UserID:     userID,
		AccountID:  accountB,
		CategoryID: salary,
		Amount:     core.Money{Cents: 3000},
		Date:       date(2025, 3, 10),
	}, 3000, accountA)
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if got := accountBalance(t, s, accountA, userID); got != 0 {
		t.Fatalf("A after move: expected 0, got %d", got)
	}
	if got := accountBalance(t, s, accountB, userID); got != 3000 {
		t.Fatalf("B after move: expected 3000, got %d", got)
	}
}

func TestUpdateTransactionStaleSnapshot(t *testing.T) {
	s := newTestStore(t)
	userID := seedUser(t, s, "A@EXAMPLE.COM")
	typeID := seedAccountType(t, s, userID, "Cash")
	accountID := seedAccount(t, s, userID, typeID, "Wallet", 10000)
	cat := seedCategory(t, s, userID, "Groceries", core.Expense)

	txID := seedTransaction(t, s, userID, accountID, cat, 2000, date(2025, 3, 10))

	// Snapshot claims the previous amount was 9999, the row says 2000.
	err := s.UpdateTransaction(context.Background(), core.Transaction{
		ID:         txID,
		UserID:     userID,
		AccountID:  accountID,
		CategoryID: cat,
		Amount:     core.Money{Cents: 100},
		Date:       date(2025, 3, 10),
	}, 9999, accountID)
	if !errors.Is(err, core.ErrInconsistentState) {
		t.Fatalf("expected ErrInconsistentState, got %v", err)
	}

	// Balance untouched by the rejected edit.
	if got := accountBalance(t, s, accountID, userID); got != 8000 {
		t.Fatalf("expected 8000, got %d", got)
	}
}

func TestUpdateTransactionCategorySwapFlipsSign(t *testing.T) {
	s := newTestStore(t)
	userID := seedUser(t, s, "A@EXAMPLE.COM")
	typeID := seedAccountType(t, s, userID, "Cash")
	accountID := seedAccount(t, s, userID, typeID, "Wallet", 0)
	expenseCat := seedCategory(t, s, userID, "Groceries", core.Expense)
	incomeCat := seedCategory(t, s, userID, "Refunds", core.Income)

	txID := seedTransaction(t, s, userID, accountID, expenseCat, 1000, date(2025, 3, 10))
	if got := accountBalance(t, s, accountID, userID); got != -1000 {
		t.Fatalf("after create: expected -1000, got %d", got)
	}

	err := s.UpdateTransaction(context.Background(), core.Transaction{
		ID:         txID,
		UserID:     userID,
		AccountID:  accountID,
		CategoryID: incomeCat,
		Amount:     core.Money{Cents: 1000},
		Date:       date(2025, 3, 10),
	}, 1000, accountID)
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if got := accountBalance(t, s, accountID, userID); got != 1000 {
		t.Fatalf("after swap: expected 1000, got %d", got)
	}
}

func TestDeleteTransactionRestoresBalance(t *testing.T) {
	s := newTestStore(t)
	userID := seedUser(t, s, "A@EXAMPLE.COM")
	typeID := seedAccountType(t, s, userID, "Cash")
	accountID := seedAccount(t, s, userID, typeID, "Wallet", 8000)
	salary := seedCategory(t, s, userID, "Salary", core.Income)

	txID := seedTransaction(t, s, userID, accountID, salary, 1000, date(2025, 3, 10))
	if got := accountBalance(t, s, accountID, userID); got != 9000 {
		t.Fatalf("after create: expected 9000, got %d", got)
	}

	if err := s.DeleteTransaction(context.Background(), txID, userID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := accountBalance(t, s, accountID, userID); got != 8000 {
		t.Fatalf("after delete: expected 8000, got %d", got)
	}

	if _, err := s.TransactionByID(context.Background(), txID, userID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestDeleteTransactionForeignUser(t *testing.T) {
	s := newTestStore(t)
	alice := seedUser(t, s, "ALICE@EXAMPLE.COM")
	bob := seedUser(t, s, "BOB@EXAMPLE.COM")
	typeID := seedAccountType(t, s, alice, "Cash")
	accountID := seedAccount(t, s, alice, typeID, "Wallet", 0)
	cat := seedCategory(t, s, alice, "Salary", core.Income)

	txID := seedTransaction(t, s, alice, accountID, cat, 1000, date(2025, 3, 10))

	if err := s.DeleteTransaction(context.Background(), txID, bob); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign user, got %v", err)
	}
	if got := accountBalance(t, s, accountID, alice); got != 1000 {
		t.Fatalf("balance moved: %d", got)
	}
}

func TestTransactionsByUserOrdering(t *testing.T) {
	s := newTestStore(t)
	userID := seedUser(t, s, "A@EXAMPLE.COM")
	typeID := seedAccountType(t, s, userID, "Cash")
	accountID := seedAccount(t, s, userID, typeID, "Wallet", 0)
	cat := seedCategory(t, s, userID, "Groceries", core.Expense)

	first := seedTransaction(t, s, userID, accountID, cat, 100, date(2025, 3, 5))
	second := seedTransaction(t, s, userID, accountID, cat, 200, date(2025, 3, 20))
	third := seedTransaction(t, s, userID, accountID, cat, 300, date(2025, 3, 20))

	txs, err := s.TransactionsByUser(context.Background(), userID, date(2025, 3, 1), date(2025, 3, 31))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(txs))
	}

	// Most recent date first; same-date rows break the tie by newest id.
	want := []int64{third, second, first}
	for i, tx := range txs {
		if tx.ID != want[i] {
			t.Fatalf("position %d: expected id %d, got %d", i, want[i], tx.ID)
		}
	}
	if txs[0].CategoryName != "Groceries" || txs[0].AccountName != "Wallet" {
		t.Fatalf("expected joined names, got %q / %q", txs[0].CategoryName, txs[0].AccountName)
	}
}

func TestTransactionsByUserWindowIsInclusive(t *testing.T) {
	s := newTestStore(t)
	userID := seedUser(t, s, "A@EXAMPLE.COM")
	typeID := seedAccountType(t, s, userID, "Cash")
	accountID := seedAccount(t, s, userID, typeID, "Wallet", 0)
	cat := seedCategory(t, s, userID, "Groceries", core.Expense)

	seedTransaction(t, s, userID, accountID, cat, 100, date(2025, 3, 1))
	seedTransaction(t, s, userID, accountID, cat, 200, date(2025, 3, 31))
	seedTransaction(t, s, userID, accountID, cat, 300, date(2025, 4, 1))

	txs, err := s.TransactionsByUser(context.Background(), userID, date(2025, 3, 1), date(2025, 3, 31))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions in window, got %d", len(txs))
	}
}

func TestSumByWeekBoundaries(t *testing.T) {
	s := newTestStore(t)
	userID := seedUser(t, s, "A@EXAMPLE.COM")
	typeID := seedAccountType(t, s, userID, "Cash")
	accountID := seedAccount(t, s, userID, typeID, "Wallet", 0)
	expenseCat := seedCategory(t, s, userID, "Groceries", core.Expense)
	incomeCat := seedCategory(t, s, userID, "Salary", core.Income)

	start := date(2025, 3, 1)
	end := date(2025, 3, 31)

	// Day 0 and day 6 land in week 1, day 7 in week 2.
	seedTransaction(t, s, userID, accountID, expenseCat, 100, start)
	seedTransaction(t, s, userID, accountID, expenseCat, 200, start.AddDate(0, 0, 6))
	seedTransaction(t, s, userID, accountID, expenseCat, 400, start.AddDate(0, 0, 7))
	seedTransaction(t, s, userID, accountID, incomeCat, 1000, start.AddDate(0, 0, 7))

	sums, err := s.SumByWeek(context.Background(), userID, start, end)
	if err != nil {
		t.Fatalf("sum by week: %v", err)
	}

	want := []BucketSum{
		{Bucket: 1, Operation: core.Income, Amount: core.Money{}},
		{Bucket: 2, Operation: core.Income, Amount: core.Money{Cents: 1000}},
		{Bucket: 1, Operation: core.Expense, Amount: core.Money{Cents: 300}},
		{Bucket: 2, Operation: core.Expense, Amount: core.Money{Cents: 400}},
	}
	for _, w := range want {
		if w.Amount.Cents == 0 {
			// No row expected for this bucket/operation pair.
			for _, got := range sums {
				if got.Bucket == w.Bucket && got.Operation == w.Operation {
					t.Fatalf("unexpected row for week %d %s", w.Bucket, w.Operation)
				}
			}
			continue
		}
		found := false
		for _, got := range sums {
			if got.Bucket == w.Bucket && got.Operation == w.Operation {
				found = true
				if got.Amount.Cents != w.Amount.Cents {
					t.Fatalf("week %d %s: expected %d, got %d", w.Bucket, w.Operation, w.Amount.Cents, got.Amount.Cents)
				}
			}
		}
		if !found {
			t.Fatalf("missing row for week %d %s", w.Bucket, w.Operation)
		}
	}
}

func TestSumByMonth(t *testing.T) {
	s := newTestStore(t)
	userID := seedUser(t, s, "A@EXAMPLE.COM")
	typeID := seedAccountType(t, s, userID, "Cash")
	accountID := seedAccount(t, s, userID, typeID, "Wallet", 0)
	expenseCat := seedCategory(t, s, userID, "Groceries", core.Expense)
	incomeCat := seedCategory(t, s, userID, "Salary", core.Income)

	seedTransaction(t, s, userID, accountID, incomeCat, 5000, date(2025, 1, 15))
	seedTransaction(t, s, userID, accountID, expenseCat, 1500, date(2025, 1, 20))
	seedTransaction(t, s, userID, accountID, expenseCat, 2500, date(2025, 12, 31))
	// Other years stay out.
	seedTransaction(t, s, userID, accountID, expenseCat, 9999, date(2024, 12, 31))

	sums, err := s.SumByMonth(context.Background(), userID, 2025)
	if err != nil {
		t.Fatalf("sum by month: %v", err)
	}
	if len(sums) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(sums))
	}

	byKey := map[[2]int]int64{}
	for _, b := range sums {
		byKey[[2]int{b.Bucket, int(b.Operation)}] = b.Amount.Cents
	}
	if byKey[[2]int{1, int(core.Income)}] != 5000 {
		t.Fatalf("january income: got %d", byKey[[2]int{1, int(core.Income)}])
	}
	if byKey[[2]int{1, int(core.Expense)}] != 1500 {
		t.Fatalf("january expense: got %d", byKey[[2]int{1, int(core.Expense)}])
	}
	if byKey[[2]int{12, int(core.Expense)}] != 2500 {
		t.Fatalf("december expense: got %d", byKey[[2]int{12, int(core.Expense)}])
	}
}

func TestUserIsolation(t *testing.T) {
	s := newTestStore(t)
	alice := seedUser(t, s, "ALICE@EXAMPLE.COM")
	bob := seedUser(t, s, "BOB@EXAMPLE.COM")

	aliceType := seedAccountType(t, s, alice, "Cash")
	aliceAccount := seedAccount(t, s, alice, aliceType, "Wallet", 0)
	aliceCat := seedCategory(t, s, alice, "Groceries", core.Expense)
	txID := seedTransaction(t, s, alice, aliceAccount, aliceCat, 100, date(2025, 3, 10))

	if _, err := s.TransactionByID(context.Background(), txID, bob); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound reading foreign transaction, got %v", err)
	}
	if _, err := s.AccountByID(context.Background(), aliceAccount, bob); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound reading foreign account, got %v", err)
	}

	txs, err := s.TransactionsByUser(context.Background(), bob, date(2025, 1, 1), date(2025, 12, 31))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 0 {
		t.Fatalf("bob sees %d foreign transactions", len(txs))
	}

	sums, err := s.SumByWeek(context.Background(), bob, date(2025, 3, 1), date(2025, 3, 31))
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if len(sums) != 0 {
		t.Fatalf("bob sees %d foreign sums", len(sums))
	}
}
