/*
service.go - Commission orchestration over the store contracts

PURPOSE:
  The engine in commission/ is pure; this service feeds it. It reads the
  four input snapshots (donations, collaborators, donors, payment records)
  plus the closing-day setting, converts them to engine records, and runs
  Compute. The one outward mutation, MarkPaid, validates the entry id
  against the current snapshot and upserts the payment record.

CONCURRENCY:
  The service holds no mutable state; every call re-reads and recomputes.
  Concurrent MarkPaid calls for the same id are idempotent (last write wins
  on the payment date), which the store upsert guarantees.

SEE ALSO:
  - commission/engine.go: The pure pipeline
  - store.go: The contracts this service reads and writes through
*/
package donation

import (
	"context"
	"fmt"
	"log"

	"github.com/caridade/donation-engine/commission"
)

// CommissionService computes commission entries from stored records.
type CommissionService struct {
	Store Store
}

func NewCommissionService(store Store) *CommissionService {
	return &CommissionService{Store: store}
}

// Compute recomputes the full commission entry set, optionally filtered to
// one reference month. Paid donations without a payment date are excluded
// and logged as data-quality warnings.
func (s *CommissionService) Compute(ctx context.Context, filter *commission.PeriodFilter) (commission.Result, error) {
	in, err := s.snapshot(ctx)
	if err != nil {
		return commission.Result{}, err
	}
	in.Filter = filter

	result, err := commission.Compute(in)
	if err != nil {
		return commission.Result{}, err
	}
	if result.SkippedDonations > 0 {
		log.Printf("commission: skipped %d paid donation(s) missing a payment date", result.SkippedDonations)
	}
	return result, nil
}

// MarkPaid records payment for a commission entry and returns the updated
// entry. The id must exist in the current snapshot; re-marking an already
// paid entry rewrites the record with today's date.
func (s *CommissionService) MarkPaid(ctx context.Context, entryID string) (*commission.Entry, error) {
	result, err := s.Compute(ctx, nil)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range result.Entries {
		if result.Entries[i].ID() == entryID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("mark paid %q: %w", entryID, commission.ErrEntryNotFound)
	}

	today := commission.Today()
	if err := s.Store.MarkPaid(ctx, entryID, today); err != nil {
		return nil, fmt.Errorf("mark paid %q: %w", entryID, err)
	}

	entry := result.Entries[idx]
	entry.Status = commission.StatusPaid
	entry.PaymentDate = &today
	return &entry, nil
}

// ClearPayment removes an entry's payment record, degrading it to pending.
func (s *CommissionService) ClearPayment(ctx context.Context, entryID string) error {
	return s.Store.ClearPayment(ctx, entryID)
}

// snapshot loads every engine input from the store.
func (s *CommissionService) snapshot(ctx context.Context) (commission.Input, error) {
	var in commission.Input

	donations, err := s.Store.ListDonations(ctx)
	if err != nil {
		return in, fmt.Errorf("load donations: %w", err)
	}
	advisors, err := s.Store.ListAdvisors(ctx)
	if err != nil {
		return in, fmt.Errorf("load advisors: %w", err)
	}
	messengers, err := s.Store.ListMessengers(ctx)
	if err != nil {
		return in, fmt.Errorf("load messengers: %w", err)
	}
	donors, err := s.Store.ListDonors(ctx)
	if err != nil {
		return in, fmt.Errorf("load donors: %w", err)
	}
	payments, err := s.Store.ListPayments(ctx)
	if err != nil {
		return in, fmt.Errorf("load payments: %w", err)
	}
	closingDay, err := s.Store.ClosingDay(ctx)
	if err != nil {
		return in, fmt.Errorf("load closing day: %w", err)
	}

	in.Donations = make([]commission.DonationRecord, len(donations))
	for i, d := range donations {
		in.Donations[i] = commission.DonationRecord{
			Amount:        d.Amount,
			Paid:          d.Status == StatusPaid,
			PaymentDate:   d.PaymentDate,
			AdvisorName:   d.AdvisorName,
			MessengerName: d.MessengerName,
		}
	}
	in.Advisors = make([]commission.AdvisorRecord, len(advisors))
	for i, a := range advisors {
		in.Advisors[i] = commission.AdvisorRecord{
			Name:           a.Name,
			Goal:           a.Goal,
			NewClientsGoal: a.NewClientsGoal,
			MinRate:        a.MinRate,
			MaxRate:        a.MaxRate,
		}
	}
	in.Messengers = make([]commission.MessengerRecord, len(messengers))
	for i, m := range messengers {
		in.Messengers[i] = commission.MessengerRecord{Name: m.Name, Rate: m.CommissionRate}
	}
	in.Donors = make([]commission.DonorRecord, len(donors))
	for i, d := range donors {
		in.Donors[i] = commission.DonorRecord{AdvisorName: d.AdvisorName, JoinDate: d.JoinDate}
	}
	in.Payments = payments
	in.ClosingDay = closingDay

	return in, nil
}
