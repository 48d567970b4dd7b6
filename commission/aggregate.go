/*
aggregate.go - Folding donations into per-(recipient, period) base amounts

PURPOSE:
  The first stage of the compute pipeline. Each settled donation resolves to
  a reference period (period.go) and credits up to two buckets: one for the
  named advisor and one for the named messenger. The two accumulations are
  independent; a single donation can fund both.

DECOUPLING:
  Aggregation does not look at collaborator records at all. Unknown or
  renamed collaborators still accumulate a bucket under their name, so
  revenue never silently disappears from reports; the rate stage simply
  applies a zero rate to unmatched names.

ORDER INDEPENDENCE:
  Buckets are decimal sums keyed by a structured composite key, so feeding
  donations in any order produces identical base amounts.
*/
package commission

import "github.com/shopspring/decimal"

// =============================================================================
// INPUT RECORDS - Read-only views the engine consumes
// =============================================================================

// DonationRecord is the engine's read-only view of a donation.
type DonationRecord struct {
	Amount      decimal.Decimal
	Paid        bool
	PaymentDate *Date

	AdvisorName   string
	MessengerName string
}

// AdvisorRecord is the engine's read-only view of an advisor.
type AdvisorRecord struct {
	Name           string
	Goal           decimal.Decimal
	NewClientsGoal int
	MinRate        decimal.Decimal
	MaxRate        decimal.Decimal
}

// MessengerRecord is the engine's read-only view of a messenger.
// Rate is nil when the messenger has not opted into commissions.
type MessengerRecord struct {
	Name string
	Rate *decimal.Decimal
}

// DonorRecord is the engine's read-only view of a donor, used only for the
// advisor new-client metric.
type DonorRecord struct {
	AdvisorName string
	JoinDate    Date
}

// =============================================================================
// BUCKET - One accumulation per composite key
// =============================================================================

// Bucket accumulates the base amount for one (recipient, period) key.
type Bucket struct {
	Key        EntryKey
	Period     Period
	BaseAmount decimal.Decimal
}

// Aggregate folds donations into per-key buckets. Donations that are not
// paid are ignored; paid donations missing a payment date are counted as
// skipped so the caller can log a data-quality warning. Donations with an
// empty name for a role contribute nothing to that role.
func Aggregate(donations []DonationRecord, closingDay int) (buckets map[EntryKey]*Bucket, skipped int) {
	buckets = make(map[EntryKey]*Bucket)

	for _, d := range donations {
		if !d.Paid {
			continue
		}
		if d.PaymentDate == nil {
			// Nominally paid but never dated: treated as not-yet-settled.
			skipped++
			continue
		}

		ref := ResolvePeriod(*d.PaymentDate, closingDay)
		credit(buckets, d.AdvisorName, RecipientAdvisor, ref, d.Amount)
		credit(buckets, d.MessengerName, RecipientMessenger, ref, d.Amount)
	}

	return buckets, skipped
}

func credit(buckets map[EntryKey]*Bucket, name string, rt RecipientType, ref ReferencePeriod, amount decimal.Decimal) {
	if name == "" {
		return
	}

	key := EntryKey{RecipientName: name, RecipientType: rt, Year: ref.Year, Month: ref.Month}
	b, ok := buckets[key]
	if !ok {
		b = &Bucket{Key: key, Period: ref.Period, BaseAmount: decimal.Zero}
		buckets[key] = b
	}
	b.BaseAmount = b.BaseAmount.Add(amount)
}
