package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/caridade/donation-engine/commission"
)

// =============================================================================
// CSV EXPORTER
// =============================================================================

// CSVExporter renders commission entries as a spreadsheet-friendly CSV:
// one row per entry, followed by a totals row.
type CSVExporter struct{}

func (CSVExporter) Export(entries []commission.Entry, summary Summary) ([]byte, string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"recipient", "type", "reference_month", "period_start", "period_end",
		"base_amount", "rate_percent", "commission", "status", "payment_date",
		"new_clients_goal", "new_clients_result",
	}
	if err := w.Write(header); err != nil {
		return nil, "", fmt.Errorf("write csv header: %w", err)
	}

	for _, e := range entries {
		paymentDate := ""
		if e.PaymentDate != nil {
			paymentDate = e.PaymentDate.String()
		}
		newClientsGoal, newClientsResult := "", ""
		if e.Goal != nil {
			newClientsGoal = strconv.Itoa(e.Goal.NewClientsGoal)
			newClientsResult = strconv.Itoa(e.Goal.NewClientsResult)
		}

		row := []string{
			e.Key.RecipientName,
			string(e.Key.RecipientType),
			fmt.Sprintf("%04d-%02d", e.Key.Year, int(e.Key.Month)),
			e.Period.Start.String(),
			e.Period.End.String(),
			e.BaseAmount.StringFixed(2),
			e.Rate.String(),
			e.Commission.StringFixed(2),
			string(e.Status),
			paymentDate,
			newClientsGoal,
			newClientsResult,
		}
		if err := w.Write(row); err != nil {
			return nil, "", fmt.Errorf("write csv row: %w", err)
		}
	}

	totals := []string{
		"TOTAL", "", "", "", "",
		summary.TotalBase.StringFixed(2),
		"",
		summary.TotalCommission.StringFixed(2),
		fmt.Sprintf("%d paid / %d pending", summary.PaidCount, summary.PendingCount),
		"", "", "",
	}
	if err := w.Write(totals); err != nil {
		return nil, "", fmt.Errorf("write csv totals: %w", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "text/csv", nil
}
