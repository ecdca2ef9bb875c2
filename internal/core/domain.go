package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  OperationType = 1
	Expense OperationType = 2
)

// DateLayout is how transaction dates travel through the API and the database.
const DateLayout = "2006-01-02"

type (
	// OperationType classifies a category as income or expense. Every
	// transaction inherits the operation type of its category, which
	// determines the sign applied to account balances.
	OperationType int

	Money struct {
		Cents int64
	}

	User struct {
		ID              int64
		Email           string
		NormalizedEmail string
		PasswordHash    string
	}

	AccountType struct {
		ID        int64
		UserID    int64
		Name      string
		SortOrder int
	}

	Account struct {
		ID            int64
		UserID        int64
		AccountTypeID int64
		Name          string
		Description   string
		Balance       Money
	}

	Category struct {
		ID        int64
		UserID    int64
		Name      string
		Operation OperationType
	}

	// Transaction is a ledger row. Amount is an unsigned magnitude; the
	// sign comes from the category's operation type. CategoryName,
	// AccountName and Operation are filled by joined reads only.
	Transaction struct {
		ID         int64
		UserID     int64
		AccountID  int64
		CategoryID int64
		Amount     Money
		Date       time.Time
		Note       string

		CategoryName string
		AccountName  string
		Operation    OperationType
	}
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInUse             = errors.New("still referenced by transactions")
	ErrInconsistentState = errors.New("stale transaction snapshot")
	ErrForeignIDs        = errors.New("ids outside the caller's set")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidOperation  = errors.New("invalid operation type")
	ErrInvalidDate       = errors.New("invalid date")
	ErrEmptyName         = errors.New("empty name")
	ErrNameTaken         = errors.New("name already in use")
)

func (o OperationType) Valid() bool {
	return o == Income || o == Expense
}

// Sign is the multiplier applied to an unsigned amount when it hits an
// account balance: +1 for income, -1 for expense.
func (o OperationType) Sign() int64 {
	if o == Income {
		return 1
	}
	return -1
}

func (o OperationType) String() string {
	switch o {
	case Income:
		return "income"
	case Expense:
		return "expense"
	default:
		return "unknown"
	}
}

// EffectiveCents is the transaction's signed contribution to its account
// balance.
func (t Transaction) EffectiveCents() int64 {
	return t.Operation.Sign() * t.Amount.Cents
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (at AccountType) Validate() error {
	if strings.TrimSpace(at.Name) == "" {
		return ErrEmptyName
	}
	if len(at.Name) > 50 {
		return errors.New("name too long (max 50 characters)")
	}
	return nil
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if len(a.Name) > 50 {
		return errors.New("name too long (max 50 characters)")
	}
	if a.AccountTypeID <= 0 {
		return errors.New("missing account type")
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 50 {
		return errors.New("name too long (max 50 characters)")
	}
	if !c.Operation.Valid() {
		return ErrInvalidOperation
	}
	return nil
}

func (t Transaction) Validate() error {
	if t.AccountID <= 0 || t.CategoryID <= 0 {
		return errors.New("missing account or category")
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if len(t.Note) > 1000 {
		return errors.New("note too long (max 1000 characters)")
	}
	return nil
}
