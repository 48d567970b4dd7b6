/*
store.go - Persistence interfaces for the donation dashboard

PURPOSE:
  Defines the contracts between domain logic and the database. The engine
  only ever needs read-all snapshots plus one single-key upsert, so the
  interfaces stay deliberately small: read-all / write-one, and one atomic
  batch for portfolio reassignment.

ATOMIC BATCHES:
  Reassign() applies a dismissed advisor's portfolio handover as a single
  transaction: every donor update plus the advisor's status flip succeed
  together or not at all. Partial state is never committed.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite
  - store/memory: In-memory for tests and dev mode

SEE ALSO:
  - types.go: The records these stores persist
  - portfolio/reassign.go: Builds the reassignment batches
*/
package donation

import (
	"context"

	"github.com/caridade/donation-engine/commission"
)

// =============================================================================
// DOMAIN STORES
// =============================================================================

// DonationStore persists donation records.
type DonationStore interface {
	SaveDonation(ctx context.Context, d Donation) error
	GetDonation(ctx context.Context, id string) (*Donation, error)
	ListDonations(ctx context.Context) ([]Donation, error)
	DeleteDonation(ctx context.Context, id string) error
}

// DonorStore persists donor records.
type DonorStore interface {
	SaveDonor(ctx context.Context, d Donor) error
	GetDonor(ctx context.Context, id string) (*Donor, error)
	ListDonors(ctx context.Context) ([]Donor, error)
	DeleteDonor(ctx context.Context, id string) error
}

// CollaboratorStore persists advisors and messengers.
type CollaboratorStore interface {
	SaveAdvisor(ctx context.Context, a Advisor) error
	GetAdvisor(ctx context.Context, id string) (*Advisor, error)
	ListAdvisors(ctx context.Context) ([]Advisor, error)
	DeleteAdvisor(ctx context.Context, id string) error

	SaveMessenger(ctx context.Context, m Messenger) error
	GetMessenger(ctx context.Context, id string) (*Messenger, error)
	ListMessengers(ctx context.Context) ([]Messenger, error)
	DeleteMessenger(ctx context.Context, id string) error
}

// =============================================================================
// SETTINGS STORE - Closing-day configuration
// =============================================================================

// SettingsStore holds the process-wide closing-day configuration.
// ClosingDay returns commission.DefaultClosingDay when unset; SetClosingDay
// rejects values outside [1, 28] with commission.ErrInvalidClosingDay.
type SettingsStore interface {
	ClosingDay(ctx context.Context) (int, error)
	SetClosingDay(ctx context.Context, day int) error
}

// =============================================================================
// PAYMENT STORE - Commission payment side table
// =============================================================================

// PaymentStore persists commission payment records keyed by entry id.
// MarkPaid is an idempotent upsert: re-marking an already-paid entry
// rewrites the record with the new date (last write wins).
type PaymentStore interface {
	MarkPaid(ctx context.Context, entryID string, date commission.Date) error

	// ClearPayment removes a record, degrading the entry back to pending.
	// Clearing a missing record is a no-op.
	ClearPayment(ctx context.Context, entryID string) error

	// ListPayments returns all records keyed by entry id.
	ListPayments(ctx context.Context) (map[string]commission.PaymentRecord, error)
}

// =============================================================================
// REASSIGNMENT STORE - Atomic portfolio handover
// =============================================================================

// DonorReassignment points one donor at a new advisor (or the house account).
type DonorReassignment struct {
	DonorID     string
	AdvisorName string
}

// ReassignmentStore applies a portfolio handover as one atomic batch.
type ReassignmentStore interface {
	// Reassign updates every listed donor and flips the advisor's status in
	// a single transaction. On error nothing is committed.
	Reassign(ctx context.Context, advisorID string, newStatus CollaboratorStatus, changes []DonorReassignment) error
}

// Store aggregates every persistence capability the dashboard needs.
type Store interface {
	DonationStore
	DonorStore
	CollaboratorStore
	SettingsStore
	PaymentStore
	ReassignmentStore
}
