/*
Package report derives summaries and renders exports from commission entries.

PURPOSE:
  The report exporter is a boundary collaborator: it consumes the computed
  entry list plus an aggregate summary and renders a document. This package
  provides the summary math and a CSV renderer; richer layouts (PDF) sit
  behind the same Exporter interface.

SEE ALSO:
  - csv.go: The CSV exporter
  - commission/engine.go: Produces the entries summarized here
*/
package report

import (
	"github.com/shopspring/decimal"

	"github.com/caridade/donation-engine/commission"
)

// =============================================================================
// SUMMARY
// =============================================================================

// Summary aggregates a commission entry set for report headers.
type Summary struct {
	TotalBase       decimal.Decimal
	TotalCommission decimal.Decimal
	PaidCount       int
	PendingCount    int

	// GoalAchievement is the average goal-achievement percentage across
	// entries carrying a goal; zero when none do.
	GoalAchievement decimal.Decimal
}

// Summarize folds an entry list into its report summary.
func Summarize(entries []commission.Entry) Summary {
	s := Summary{
		TotalBase:       decimal.Zero,
		TotalCommission: decimal.Zero,
		GoalAchievement: decimal.Zero,
	}

	achievement := decimal.Zero
	withGoal := 0

	for _, e := range entries {
		s.TotalBase = s.TotalBase.Add(e.BaseAmount)
		s.TotalCommission = s.TotalCommission.Add(e.Commission)

		if e.Status == commission.StatusPaid {
			s.PaidCount++
		} else {
			s.PendingCount++
		}

		if e.Goal != nil {
			achievement = achievement.Add(e.Goal.Achievement(e.BaseAmount))
			withGoal++
		}
	}

	if withGoal > 0 {
		s.GoalAchievement = achievement.Div(decimal.NewFromInt(int64(withGoal)))
	}
	return s
}

// =============================================================================
// EXPORTER
// =============================================================================

// Exporter renders a commission report to a document format.
type Exporter interface {
	// Export writes the rendered document and returns its MIME type.
	Export(entries []commission.Entry, summary Summary) ([]byte, string, error)
}
