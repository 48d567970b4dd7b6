/*
Package commission computes collaborator commissions from donation records.

PURPOSE:
  This package is the pure computation core of the donation dashboard. Given
  a snapshot of donations, collaborators, donors, payment records and the
  closing-day configuration, it derives one commission entry per
  (collaborator, period): base amount, applied rate, payout, payment status.

KEY CONCEPTS IN THIS FILE (types.go):
  - EntryKey: Structured composite key identifying one commission entry
  - Entry: A derived, never-persisted commission line
  - GoalProgress: Advisor goal metrics attached to an entry
  - PaymentRecord: The single persisted, engine-owned side table

DESIGN PRINCIPLES:
  1. Purity: Entries are recomputed from scratch on every read
  2. Precision: decimal.Decimal for money and rates, never floats
  3. Type safety: Structured keys instead of string concatenation
  4. Determinism: Identical inputs produce byte-identical entry sets

SEE ALSO:
  - period.go: Reference-period resolution
  - aggregate.go: Folding donations into per-key buckets
  - engine.go: The full compute pipeline
*/
package commission

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RECIPIENT
// =============================================================================

// RecipientType distinguishes the two collaborator variants.
type RecipientType string

const (
	RecipientAdvisor   RecipientType = "advisor"
	RecipientMessenger RecipientType = "messenger"
)

// =============================================================================
// ENTRY KEY - Deterministic composite identity of a commission entry
// =============================================================================

// EntryKey identifies one commission entry. Two donations collected by the
// same collaborator in the same reference period always land on the same key.
type EntryKey struct {
	RecipientName string
	RecipientType RecipientType
	Year          int
	Month         time.Month
}

// ID renders the key as the stable string used to persist payment records.
func (k EntryKey) ID() string {
	return fmt.Sprintf("%s|%s|%04d-%02d", k.RecipientName, k.RecipientType, k.Year, int(k.Month))
}

// =============================================================================
// ENTRY - Derived commission line (recomputed, never stored)
// =============================================================================

// EntryStatus is the payment state of a commission entry.
type EntryStatus string

const (
	StatusPending EntryStatus = "pending"
	StatusPaid    EntryStatus = "paid"
)

// Entry is one collaborator's aggregated, rated payout for one period.
type Entry struct {
	Key EntryKey

	Period Period

	// BaseAmount is the sum of paid donations attributed to this key.
	// Never negative: donations are filtered to Paid before aggregation.
	BaseAmount decimal.Decimal

	// Rate is the applied percentage (e.g. 7 means 7%).
	Rate decimal.Decimal

	// Commission is BaseAmount * Rate / 100.
	Commission decimal.Decimal

	// Goal is set for matched advisors only; nil for messengers and for
	// recipients with no matching collaborator record.
	Goal *GoalProgress

	Status      EntryStatus
	PaymentDate *Date
}

// ID is shorthand for the entry's composite key id.
func (e Entry) ID() string { return e.Key.ID() }

// GoalProgress carries an advisor's revenue-goal metrics for the period.
type GoalProgress struct {
	Target  decimal.Decimal
	Reached bool

	// New-client tracking: donors whose advisor matches and whose join date
	// falls within the period (inclusive on both ends).
	NewClientsGoal   int
	NewClientsResult int
}

// Achievement returns base/target as a percentage, zero when the target is zero.
func (g GoalProgress) Achievement(base decimal.Decimal) decimal.Decimal {
	if g.Target.IsZero() {
		return decimal.Zero
	}
	return base.Div(g.Target).Mul(decimal.NewFromInt(100))
}

// =============================================================================
// PAYMENT RECORD - The only engine-owned persisted mutation
// =============================================================================

// PaymentRecord marks a commission entry as paid. Keyed by EntryKey.ID().
// Upserts are idempotent: re-marking rewrites the record with a newer date.
type PaymentRecord struct {
	EntryID     string
	PaymentDate Date
}
