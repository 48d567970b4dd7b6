/*
scenarios.go - Demo scenario loaders

PURPOSE:
  Seeds the database with curated datasets so the dashboard can be demoed
  and manually tested without real data. Loading a scenario wipes the
  database first; use /api/scenarios/reset to start empty.

SCENARIOS:
  basic:      One advisor, one messenger, donations straddling the closing
              day so the commission table shows two periods.
  goal-tiers: Advisors above and below goal, a messenger without a rate,
              and a donation credited to a no-longer-registered advisor.

SEE ALSO:
  - handlers.go: Route wiring
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/caridade/donation-engine/commission"
	"github.com/caridade/donation-engine/donation"
)

type scenario struct {
	ID          string
	Name        string
	Description string
	Load        func(ctx context.Context, store Store) error
}

var scenarios = []scenario{
	{
		ID:          "basic",
		Name:        "Basic period split",
		Description: "One advisor and one messenger with donations on both sides of the closing day",
		Load:        loadBasicScenario,
	},
	{
		ID:          "goal-tiers",
		Name:        "Goal tiers and edge cases",
		Description: "Advisors above and below goal, a rate-less messenger, and an unmatched collaborator",
		Load:        loadGoalTiersScenario,
	},
}

// ListScenarios returns the available demo scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		dtos[i] = ScenarioDTO{ID: s.ID, Name: s.Name, Description: s.Description}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// LoadScenario wipes the database and loads the requested scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var selected *scenario
	for i := range scenarios {
		if scenarios[i].ID == req.ID {
			selected = &scenarios[i]
			break
		}
	}
	if selected == nil {
		writeError(w, http.StatusNotFound, "Scenario not found", nil)
		return
	}

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	if err := selected.Load(ctx, h.Store); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"loaded": selected.ID})
}

// ResetDatabase wipes every record.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reset": true})
}

// =============================================================================
// SCENARIO DATA
// =============================================================================

func loadBasicScenario(ctx context.Context, store Store) error {
	rate := decimal.NewFromInt(2)
	records := []any{
		donation.Advisor{
			ID: "adv-ana", Name: "Ana Souza", Status: donation.CollaboratorActive,
			Goal: decimal.NewFromInt(10000), NewClientsGoal: 3,
			MinRate: decimal.NewFromInt(5), MaxRate: decimal.NewFromInt(8),
		},
		donation.Messenger{
			ID: "msg-carlos", Name: "Carlos Lima", Status: donation.CollaboratorActive,
			CommissionRate: &rate,
		},
		donation.Donor{
			ID: "don-1", Name: "Paulo Mendes", Code: "D001",
			AdvisorName: "Ana Souza", JoinDate: commission.NewDate(2024, time.May, 10),
		},
		donation.Donor{
			ID: "don-2", Name: "Rita Alves", Code: "D002",
			AdvisorName: "Ana Souza", JoinDate: commission.NewDate(2024, time.June, 1),
		},
		// Day 3 settles the May period, day 10 opens the June period.
		paidDonation("dn-1", "Paulo Mendes", "D001", 600, "Ana Souza", "Carlos Lima", commission.NewDate(2024, time.June, 3)),
		paidDonation("dn-2", "Rita Alves", "D002", 400, "Ana Souza", "Carlos Lima", commission.NewDate(2024, time.June, 10)),
		pendingDonation("dn-3", "Paulo Mendes", "D001", 250, "Ana Souza", commission.NewDate(2024, time.July, 10)),
	}
	return saveAll(ctx, store, records)
}

func loadGoalTiersScenario(ctx context.Context, store Store) error {
	records := []any{
		donation.Advisor{
			ID: "adv-ana", Name: "Ana Souza", Status: donation.CollaboratorActive,
			Goal: decimal.NewFromInt(1000), NewClientsGoal: 2,
			MinRate: decimal.NewFromInt(5), MaxRate: decimal.NewFromInt(8),
		},
		donation.Advisor{
			ID: "adv-bruno", Name: "Bruno Costa", Status: donation.CollaboratorActive,
			Goal: decimal.NewFromInt(5000), NewClientsGoal: 5,
			MinRate: decimal.NewFromInt(4), MaxRate: decimal.NewFromInt(7),
		},
		// No commission rate: entries appear with zero payout.
		donation.Messenger{
			ID: "msg-diego", Name: "Diego Ramos", Status: donation.CollaboratorActive,
		},
		// Meets goal exactly (inclusive threshold -> max rate).
		paidDonation("dn-1", "Paulo Mendes", "D001", 1000, "Ana Souza", "Diego Ramos", commission.NewDate(2024, time.June, 12)),
		// Below goal -> min rate.
		paidDonation("dn-2", "Rita Alves", "D002", 800, "Bruno Costa", "", commission.NewDate(2024, time.June, 15)),
		// Collaborator no longer registered -> zero-rate entry, revenue visible.
		paidDonation("dn-3", "Jorge Pinto", "D003", 300, "Helena Dias", "", commission.NewDate(2024, time.June, 20)),
	}
	return saveAll(ctx, store, records)
}

func paidDonation(id, donorName, donorCode string, amount int64, advisor, messenger string, paid commission.Date) donation.Donation {
	return donation.Donation{
		ID:            id,
		DonorName:     donorName,
		DonorCode:     donorCode,
		Amount:        decimal.NewFromInt(amount),
		DueDate:       paid,
		PaymentDate:   &paid,
		Status:        donation.StatusPaid,
		AdvisorName:   advisor,
		MessengerName: messenger,
		Method:        donation.MethodPix,
	}
}

func pendingDonation(id, donorName, donorCode string, amount int64, advisor string, due commission.Date) donation.Donation {
	return donation.Donation{
		ID:          id,
		DonorName:   donorName,
		DonorCode:   donorCode,
		Amount:      decimal.NewFromInt(amount),
		DueDate:     due,
		Status:      donation.StatusPending,
		AdvisorName: advisor,
		Method:      donation.MethodBoleto,
	}
}

func saveAll(ctx context.Context, store Store, records []any) error {
	for _, r := range records {
		var err error
		switch v := r.(type) {
		case donation.Advisor:
			err = store.SaveAdvisor(ctx, v)
		case donation.Messenger:
			err = store.SaveMessenger(ctx, v)
		case donation.Donor:
			err = store.SaveDonor(ctx, v)
		case donation.Donation:
			err = store.SaveDonation(ctx, v)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
