// Package reports turns the ledger engine's bucketed sums into view-ready
// weekly and monthly reports. The storage queries omit empty buckets; gap
// filling happens here so every week of the window and all twelve months
// are always present.
package reports

import (
	"context"
	"fmt"
	"time"

	"presupuesto/internal/core"
	"presupuesto/internal/storage"
)

type Service struct {
	store *storage.Store
}

func NewService(store *storage.Store) *Service {
	return &Service{store: store}
}

// Row is one report bucket with income and expense totals in cents.
type Row struct {
	Bucket  int        `json:"bucket"`
	Income  core.Money `json:"-"`
	Expense core.Money `json:"-"`
}

// Net is the bucket's income minus expense.
func (r Row) Net() int64 {
	return r.Income.Cents - r.Expense.Cents
}

type Weekly struct {
	Start time.Time
	End   time.Time
	Rows  []Row
}

type Monthly struct {
	Year int
	Rows []Row
}

// Weekly aggregates a user's transactions in [start, end] into week buckets.
// Week 1 starts at the window start; the number of rows covers the whole
// window even when some weeks had no transactions.
func (s *Service) Weekly(ctx context.Context, userID int64, start, end time.Time) (Weekly, error) {
	if end.Before(start) {
		return Weekly{}, core.ErrInvalidDate
	}
	sums, err := s.store.SumByWeek(ctx, userID, start, end)
	if err != nil {
		return Weekly{}, fmt.Errorf("weekly sums: %w", err)
	}
	weeks := WeeksIn(start, end)
	return Weekly{Start: start, End: end, Rows: Fill(sums, weeks)}, nil
}

// Monthly aggregates a user's transactions in the calendar year into the
// twelve month buckets.
func (s *Service) Monthly(ctx context.Context, userID int64, year int) (Monthly, error) {
	sums, err := s.store.SumByMonth(ctx, userID, year)
	if err != nil {
		return Monthly{}, fmt.Errorf("monthly sums: %w", err)
	}
	return Monthly{Year: year, Rows: Fill(sums, 12)}, nil
}

// WeeksIn is the number of week buckets an inclusive window spans: day 0
// through day 6 fall in week 1, day 7 opens week 2.
func WeeksIn(start, end time.Time) int {
	days := int(end.Sub(start).Hours()/24) + 1
	if days <= 0 {
		return 0
	}
	return (days + 6) / 7
}

// Fill spreads sparse bucket sums over 1..n rows, leaving zeroes where the
// query returned nothing.
func Fill(sums []storage.BucketSum, n int) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i].Bucket = i + 1
	}
	for _, b := range sums {
		if b.Bucket < 1 || b.Bucket > n {
			continue
		}
		switch b.Operation {
		case core.Income:
			rows[b.Bucket-1].Income.Cents += b.Amount.Cents
		case core.Expense:
			rows[b.Bucket-1].Expense.Cents += b.Amount.Cents
		}
	}
	return rows
}
