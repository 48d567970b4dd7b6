/*
period.go - Closing-day period resolution

PURPOSE:
  Maps a donation's payment date onto the commission reference period.
  A "closing day" (1-28) splits every calendar month: payments collected on
  or before the closing day settle the PREVIOUS month's period, payments
  collected after it open the CURRENT month's period.

  With closing day 5, the "June 2024" period covers payment dates
  2024-06-06 through 2024-07-05:

    2024-06-03  (day <= 5)  -> May 2024 period   [2024-05-06, 2024-06-05]
    2024-06-10  (day >  5)  -> June 2024 period  [2024-06-06, 2024-07-05]

SHORT MONTHS:
  Period bounds are built by anchoring on `closing day of month M` and adding
  one day, never by constructing day closingDay+1 directly. February with
  closing day 28 therefore normalizes to a March 1 start in non-leap years
  and Feb 29 in leap years, without ever producing an invalid date.

INVARIANT:
  For every valid payment date D and closing day C:
  ResolvePeriod(D, C).Start <= D <= ResolvePeriod(D, C).End

SEE ALSO:
  - aggregate.go: Buckets donations by the resolved period
  - engine.go: Validates the closing day before resolution
*/
package commission

import "time"

// =============================================================================
// PERIOD - Inclusive payment-date range for one reference month
// =============================================================================

// Period is an inclusive [Start, End] range of payment dates.
type Period struct {
	Start Date
	End   Date
}

// Contains returns true if the date is within the period [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// ReferencePeriod is a period labeled with the calendar month a commission
// entry is attributed to.
type ReferencePeriod struct {
	Year  int
	Month time.Month
	Period
}

// =============================================================================
// RESOLVER
// =============================================================================

// ClosingDay bounds. Capped at 28 so the boundary exists in every month.
const (
	MinClosingDay = 1
	MaxClosingDay = 28

	// DefaultClosingDay applies when no configuration has been saved.
	DefaultClosingDay = 5
)

// ValidClosingDay reports whether day is a usable closing day.
func ValidClosingDay(day int) bool {
	return day >= MinClosingDay && day <= MaxClosingDay
}

// ResolvePeriod maps a payment date to its commission reference period.
// Pure and deterministic; callers must pass a validated closing day
// (see ValidClosingDay).
func ResolvePeriod(paymentDate Date, closingDay int) ReferencePeriod {
	refYear := paymentDate.Year()
	refMonth := paymentDate.Month()

	// On-or-before the closing day settles the previous month's period.
	if paymentDate.Day() <= closingDay {
		prev := NewDate(refYear, refMonth, 1).AddMonths(-1)
		refYear = prev.Year()
		refMonth = prev.Month()
	}

	return ReferencePeriod{
		Year:   refYear,
		Month:  refMonth,
		Period: PeriodOf(refYear, refMonth, closingDay),
	}
}

// PeriodOf returns the payment-date bounds of the given reference month.
// Start is the day after the reference month's closing day; End is the
// closing day of the following month. Anchoring on the closing day (always
// a valid day-of-month, closing day <= 28) and adding a day keeps short
// months correct.
func PeriodOf(year int, month time.Month, closingDay int) Period {
	start := NewDate(year, month, closingDay).AddDays(1)
	end := NewDate(year, month, closingDay).AddMonths(1)
	return Period{Start: start, End: end}
}
