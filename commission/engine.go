/*
engine.go - The commission compute pipeline

PURPOSE:
  Pulls the stages together: validate the closing day, aggregate settled
  donations into buckets, resolve each bucket's rate from the matching
  collaborator record, attach advisor goal metrics, overlay persisted
  payment records, and return a deterministically ordered entry list.

PURITY:
  Compute is a pure, re-entrant function of its input. It holds no state,
  performs no I/O, and produces byte-identical output for identical input.
  Every consumer (API handler, report job) may call it concurrently.

RATE RESOLUTION:
  Advisor:   MaxRate when base >= goal (inclusive threshold), else MinRate.
  Messenger: its flat rate, or zero when unset (entry still emitted).
  Unmatched: zero rate, zero commission, no goal fields.

SEE ALSO:
  - aggregate.go: Stage one, bucket accumulation
  - donation/service.go: Binds the engine to the stores
*/
package commission

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// INPUT / RESULT
// =============================================================================

// PeriodFilter restricts Compute's output to a single reference month.
type PeriodFilter struct {
	Year  int
	Month int // 1-12
}

// Input is the engine's full read snapshot.
type Input struct {
	Donations  []DonationRecord
	Advisors   []AdvisorRecord
	Messengers []MessengerRecord
	Donors     []DonorRecord
	ClosingDay int

	// Payments is the persisted side table, keyed by EntryKey.ID().
	Payments map[string]PaymentRecord

	// Filter, when non-nil, keeps only entries for that reference month.
	Filter *PeriodFilter
}

// Result is the computed entry set plus data-quality counters.
type Result struct {
	Entries []Entry

	// SkippedDonations counts paid donations excluded for lacking a
	// payment date. Callers should log these as data-quality warnings.
	SkippedDonations int
}

// =============================================================================
// COMPUTE
// =============================================================================

var oneHundred = decimal.NewFromInt(100)

// Compute derives the commission entry set from a snapshot of inputs.
func Compute(in Input) (Result, error) {
	if !ValidClosingDay(in.ClosingDay) {
		return Result{}, &ClosingDayError{Day: in.ClosingDay}
	}

	buckets, skipped := Aggregate(in.Donations, in.ClosingDay)

	advisors := make(map[string]AdvisorRecord, len(in.Advisors))
	for _, a := range in.Advisors {
		advisors[a.Name] = a
	}
	messengers := make(map[string]MessengerRecord, len(in.Messengers))
	for _, m := range in.Messengers {
		messengers[m.Name] = m
	}

	entries := make([]Entry, 0, len(buckets))
	for _, b := range buckets {
		if in.Filter != nil && (b.Key.Year != in.Filter.Year || int(b.Key.Month) != in.Filter.Month) {
			continue
		}

		e := rate(b, advisors, messengers, in.Donors)
		overlayPayment(&e, in.Payments)
		entries = append(entries, e)
	}

	sortEntries(entries)
	return Result{Entries: entries, SkippedDonations: skipped}, nil
}

// rate resolves the applicable rate for one bucket and builds its entry.
func rate(b *Bucket, advisors map[string]AdvisorRecord, messengers map[string]MessengerRecord, donors []DonorRecord) Entry {
	e := Entry{
		Key:        b.Key,
		Period:     b.Period,
		BaseAmount: b.BaseAmount,
		Rate:       decimal.Zero,
		Commission: decimal.Zero,
	}

	switch b.Key.RecipientType {
	case RecipientAdvisor:
		a, ok := advisors[b.Key.RecipientName]
		if !ok {
			return e
		}
		e.Rate = a.MinRate
		reached := b.BaseAmount.GreaterThanOrEqual(a.Goal)
		if reached {
			e.Rate = a.MaxRate
		}
		e.Goal = &GoalProgress{
			Target:           a.Goal,
			Reached:          reached,
			NewClientsGoal:   a.NewClientsGoal,
			NewClientsResult: countNewClients(donors, a.Name, b.Period),
		}

	case RecipientMessenger:
		m, ok := messengers[b.Key.RecipientName]
		if !ok || m.Rate == nil {
			return e
		}
		e.Rate = *m.Rate
	}

	e.Commission = e.BaseAmount.Mul(e.Rate).Div(oneHundred)
	return e
}

// countNewClients counts donors joined within the period (inclusive bounds)
// under the given advisor.
func countNewClients(donors []DonorRecord, advisorName string, p Period) int {
	n := 0
	for _, d := range donors {
		if d.AdvisorName == advisorName && p.Contains(d.JoinDate) {
			n++
		}
	}
	return n
}

// overlayPayment applies the persisted payment record, if any.
func overlayPayment(e *Entry, payments map[string]PaymentRecord) {
	rec, ok := payments[e.ID()]
	if !ok {
		e.Status = StatusPending
		e.PaymentDate = nil
		return
	}
	e.Status = StatusPaid
	date := rec.PaymentDate
	e.PaymentDate = &date
}

// sortEntries orders entries by (year, month, recipient type, name) so
// identical inputs always serialize identically.
func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].Key, entries[j].Key
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		if a.RecipientType != b.RecipientType {
			return a.RecipientType < b.RecipientType
		}
		return a.RecipientName < b.RecipientName
	})
}
