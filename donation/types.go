/*
Package donation defines the dashboard's domain records and store contracts.

PURPOSE:
  Donations, donors, advisors ("assessores") and messengers ("mensageiros")
  as read-model records, plus the persistence interfaces the rest of the
  system programs against. The commission engine consumes these records
  read-only; the only engine-owned write is the commission payment record.

KEY TYPES:
  Donation:  A pledged or collected contribution
  Donor:     A contributor, owned by at most one advisor
  Advisor:   Portfolio owner with a revenue goal and tiered rates
  Messenger: Collector with an optional flat commission rate

SEE ALSO:
  - store.go: Persistence interfaces
  - commission/: The engine consuming these records
*/
package donation

import (
	"github.com/shopspring/decimal"

	"github.com/caridade/donation-engine/commission"
)

// =============================================================================
// DONATION
// =============================================================================

// Status is the collection state of a donation.
type Status string

const (
	StatusPaid      Status = "paid"
	StatusPending   Status = "pending"
	StatusOverdue   Status = "overdue"
	StatusCancelled Status = "cancelled"
)

// PaymentMethod records how a donation was (or will be) collected.
type PaymentMethod string

const (
	MethodCash     PaymentMethod = "cash"
	MethodPix      PaymentMethod = "pix"
	MethodBoleto   PaymentMethod = "boleto"
	MethodCard     PaymentMethod = "card"
	MethodTransfer PaymentMethod = "transfer"
)

// Donation is a single contribution record.
// Only StatusPaid donations with a non-nil PaymentDate count toward
// commissions; everything else is display-only.
type Donation struct {
	ID        string
	DonorName string
	DonorCode string
	Amount    decimal.Decimal
	DueDate   commission.Date

	// PaymentDate is set once the donation is actually collected.
	PaymentDate *commission.Date
	Status      Status

	// A donation may credit an advisor AND a messenger at once; either or
	// both may be empty.
	AdvisorName   string
	MessengerName string

	Method PaymentMethod
}

// Settled reports whether the donation contributes to commissions.
func (d Donation) Settled() bool {
	return d.Status == StatusPaid && d.PaymentDate != nil
}

// =============================================================================
// DONOR
// =============================================================================

// Donor is a contributor. AdvisorName links the donor into an advisor's
// portfolio; "company"-owned donors carry the house account name.
type Donor struct {
	ID          string
	Name        string
	Code        string
	AdvisorName string
	JoinDate    commission.Date
	Phone       string
	Email       string
}

// =============================================================================
// COLLABORATORS
// =============================================================================

// CollaboratorStatus is the employment state of an advisor or messenger.
type CollaboratorStatus string

const (
	CollaboratorActive    CollaboratorStatus = "active"
	CollaboratorDismissed CollaboratorStatus = "dismissed"
)

// Advisor owns a donor portfolio and earns tiered commission: MaxRate when
// the period's base amount meets Goal (inclusive), MinRate otherwise.
type Advisor struct {
	ID             string
	Name           string
	Status         CollaboratorStatus
	Goal           decimal.Decimal
	NewClientsGoal int
	MinRate        decimal.Decimal
	MaxRate        decimal.Decimal
}

// Messenger collects donations and may opt into a flat commission rate.
// A nil CommissionRate means no commission, but entries are still produced
// for visibility.
type Messenger struct {
	ID             string
	Name           string
	Status         CollaboratorStatus
	CommissionRate *decimal.Decimal
}
