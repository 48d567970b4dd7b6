package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caridade/donation-engine/api"
	"github.com/caridade/donation-engine/commission"
	"github.com/caridade/donation-engine/donation"
	"github.com/caridade/donation-engine/store/memory"
)

func newServer(t *testing.T) (*httptest.Server, *memory.Store) {
	t.Helper()
	store := memory.New()
	handler := api.NewHandler(store)
	server := httptest.NewServer(api.NewRouter(handler, []string{"*"}))
	t.Cleanup(server.Close)
	return server, store
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func seedCommissionData(t *testing.T, store *memory.Store) {
	t.Helper()
	ctx := context.Background()

	rate := decimal.NewFromInt(2)
	paid1 := commission.NewDate(2024, time.June, 3)
	paid2 := commission.NewDate(2024, time.June, 10)

	require.NoError(t, store.SaveAdvisor(ctx, donation.Advisor{
		ID: "adv-1", Name: "Ana", Status: donation.CollaboratorActive,
		Goal: decimal.NewFromInt(500), NewClientsGoal: 1,
		MinRate: decimal.NewFromInt(5), MaxRate: decimal.NewFromInt(8),
	}))
	require.NoError(t, store.SaveMessenger(ctx, donation.Messenger{
		ID: "msg-1", Name: "Carlos", Status: donation.CollaboratorActive, CommissionRate: &rate,
	}))
	require.NoError(t, store.SaveDonation(ctx, donation.Donation{
		ID: "dn-1", DonorName: "Paulo", Amount: decimal.NewFromInt(600),
		DueDate: paid1, PaymentDate: &paid1, Status: donation.StatusPaid,
		AdvisorName: "Ana", MessengerName: "Carlos",
	}))
	require.NoError(t, store.SaveDonation(ctx, donation.Donation{
		ID: "dn-2", DonorName: "Rita", Amount: decimal.NewFromInt(400),
		DueDate: paid2, PaymentDate: &paid2, Status: donation.StatusPaid,
		AdvisorName: "Ana",
	}))
}

// =============================================================================
// DONATION CRUD
// =============================================================================

func TestDonationCRUD(t *testing.T) {
	server, _ := newServer(t)

	// Create without an id: one is generated.
	resp := doJSON(t, http.MethodPost, server.URL+"/api/donations/", api.SaveDonationRequest{
		DonorName: "Paulo Mendes",
		Amount:    150.5,
		DueDate:   "2024-06-05",
		Status:    "pending",
		Method:    "pix",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[api.DonationDTO](t, resp)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "pending", created.Status)

	// Read it back.
	resp = doJSON(t, http.MethodGet, server.URL+"/api/donations/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeBody[api.DonationDTO](t, resp)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, 150.5, got.Amount)

	// Update via PUT marks it paid.
	paymentDate := "2024-06-10"
	resp = doJSON(t, http.MethodPut, server.URL+"/api/donations/"+created.ID, api.SaveDonationRequest{
		DonorName:   "Paulo Mendes",
		Amount:      150.5,
		DueDate:     "2024-06-05",
		PaymentDate: &paymentDate,
		Status:      "paid",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, server.URL+"/api/donations/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	all := decodeBody[[]api.DonationDTO](t, resp)
	require.Len(t, all, 1)
	assert.Equal(t, "paid", all[0].Status)

	// Delete.
	resp = doJSON(t, http.MethodDelete, server.URL+"/api/donations/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, server.URL+"/api/donations/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSaveDonation_ValidatesInput(t *testing.T) {
	server, _ := newServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/donations/", api.SaveDonationRequest{
		Amount:  100,
		DueDate: "2024-06-05",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, server.URL+"/api/donations/", api.SaveDonationRequest{
		DonorName: "Paulo",
		Amount:    100,
		DueDate:   "05/06/2024",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// COMMISSIONS
// =============================================================================

func TestListCommissions(t *testing.T) {
	server, store := newServer(t)
	seedCommissionData(t, store)

	resp := doJSON(t, http.MethodGet, server.URL+"/api/commissions/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decodeBody[api.CommissionListDTO](t, resp)

	// dn-1 (day 3) settles May, dn-2 (day 10) opens June, plus the
	// messenger entry for May: three entries across two periods. The May
	// base counts once per recipient.
	require.Len(t, list.Entries, 3)
	assert.Equal(t, 1600.0, list.Summary.TotalBase)
	assert.Equal(t, 3, list.Summary.PendingCount)
	assert.Equal(t, 0, list.Summary.PaidCount)

	// Advisor goal of 500 is met by the May base of 600: max rate 8.
	var may api.CommissionEntryDTO
	for _, e := range list.Entries {
		if e.RecipientType == "advisor" && e.ReferenceMonth == 5 {
			may = e
		}
	}
	assert.Equal(t, 600.0, may.BaseAmount)
	assert.Equal(t, 8.0, may.Rate)
	assert.Equal(t, 48.0, may.Commission)
	require.NotNil(t, may.GoalReached)
	assert.True(t, *may.GoalReached)
}

func TestListCommissions_PeriodFilter(t *testing.T) {
	server, store := newServer(t)
	seedCommissionData(t, store)

	resp := doJSON(t, http.MethodGet, server.URL+"/api/commissions/?year=2024&month=6", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decodeBody[api.CommissionListDTO](t, resp)
	require.Len(t, list.Entries, 1)
	assert.Equal(t, 6, list.Entries[0].ReferenceMonth)

	// Month without year is rejected.
	resp = doJSON(t, http.MethodGet, server.URL+"/api/commissions/?month=6", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, server.URL+"/api/commissions/?year=2024&month=13", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMarkCommissionPaid_AndClear(t *testing.T) {
	server, store := newServer(t)
	seedCommissionData(t, store)

	entryID := "Ana|advisor|2024-05"
	resp := doJSON(t, http.MethodPost, server.URL+"/api/commissions/"+entryID+"/pay", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	entry := decodeBody[api.CommissionEntryDTO](t, resp)
	assert.Equal(t, "paid", entry.Status)
	require.NotNil(t, entry.PaymentDate)

	// The payment survives a recompute.
	resp = doJSON(t, http.MethodGet, server.URL+"/api/commissions/?year=2024&month=5", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decodeBody[api.CommissionListDTO](t, resp)
	assert.Equal(t, 1, list.Summary.PaidCount)

	// Clearing degrades it back to pending.
	resp = doJSON(t, http.MethodDelete, server.URL+"/api/commissions/"+entryID+"/pay", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, server.URL+"/api/commissions/?year=2024&month=5", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list = decodeBody[api.CommissionListDTO](t, resp)
	assert.Equal(t, 0, list.Summary.PaidCount)
}

func TestMarkCommissionPaid_UnknownEntry(t *testing.T) {
	server, store := newServer(t)
	seedCommissionData(t, store)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/commissions/Nobody|advisor|2024-05/pay", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestExportCommissions_CSV(t *testing.T) {
	server, store := newServer(t)
	seedCommissionData(t, store)

	resp := doJSON(t, http.MethodGet, server.URL+"/api/commissions/export", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "commissions.csv")

	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	body := buf.String()
	assert.True(t, strings.HasPrefix(body, "recipient,"))
	assert.Contains(t, body, "Ana")
	assert.Contains(t, body, "TOTAL")
}

// =============================================================================
// SETTINGS
// =============================================================================

func TestClosingDaySettings(t *testing.T) {
	server, _ := newServer(t)

	resp := doJSON(t, http.MethodGet, server.URL+"/api/settings/closing-day", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	setting := decodeBody[api.ClosingDayDTO](t, resp)
	assert.Equal(t, commission.DefaultClosingDay, setting.ClosingDay)

	resp = doJSON(t, http.MethodPut, server.URL+"/api/settings/closing-day", api.ClosingDayDTO{ClosingDay: 10})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, server.URL+"/api/settings/closing-day", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	setting = decodeBody[api.ClosingDayDTO](t, resp)
	assert.Equal(t, 10, setting.ClosingDay)

	resp = doJSON(t, http.MethodPut, server.URL+"/api/settings/closing-day", api.ClosingDayDTO{ClosingDay: 31})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// ADVISOR DISMISSAL
// =============================================================================

func TestDismissAdvisor_RoundRobin(t *testing.T) {
	server, store := newServer(t)
	ctx := context.Background()

	require.NoError(t, store.SaveAdvisor(ctx, donation.Advisor{
		ID: "adv-z", Name: "Zelia", Status: donation.CollaboratorActive,
	}))
	require.NoError(t, store.SaveAdvisor(ctx, donation.Advisor{
		ID: "adv-a", Name: "Ana", Status: donation.CollaboratorActive,
	}))
	for i := 1; i <= 3; i++ {
		require.NoError(t, store.SaveDonor(ctx, donation.Donor{
			ID: fmt.Sprintf("don-%d", i), Name: fmt.Sprintf("Donor %d", i),
			AdvisorName: "Zelia", JoinDate: commission.NewDate(2024, time.Month(i), 1),
		}))
	}

	resp := doJSON(t, http.MethodPost, server.URL+"/api/advisors/adv-z/dismiss", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decodeBody[api.DismissResultDTO](t, resp)
	assert.Equal(t, "adv-z", result.AdvisorID)
	assert.Equal(t, 3, result.DonorsMoved)
	for _, target := range result.Reassignments {
		assert.Equal(t, "Ana", target)
	}

	dismissed, err := store.GetAdvisor(ctx, "adv-z")
	require.NoError(t, err)
	assert.Equal(t, donation.CollaboratorDismissed, dismissed.Status)
}

func TestDismissAdvisor_ToCompany(t *testing.T) {
	server, store := newServer(t)
	ctx := context.Background()

	require.NoError(t, store.SaveAdvisor(ctx, donation.Advisor{
		ID: "adv-z", Name: "Zelia", Status: donation.CollaboratorActive,
	}))
	require.NoError(t, store.SaveDonor(ctx, donation.Donor{
		ID: "don-1", Name: "Paulo", AdvisorName: "Zelia",
		JoinDate: commission.NewDate(2024, time.January, 1),
	}))

	resp := doJSON(t, http.MethodPost, server.URL+"/api/advisors/adv-z/dismiss",
		api.DismissAdvisorRequest{ReassignTo: "company"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	moved, err := store.GetDonor(ctx, "don-1")
	require.NoError(t, err)
	assert.Equal(t, "company", moved.AdvisorName)
}

func TestDismissAdvisor_RejectsUnknownTarget(t *testing.T) {
	server, store := newServer(t)
	require.NoError(t, store.SaveAdvisor(context.Background(), donation.Advisor{
		ID: "adv-z", Name: "Zelia", Status: donation.CollaboratorActive,
	}))

	resp := doJSON(t, http.MethodPost, server.URL+"/api/advisors/adv-z/dismiss",
		api.DismissAdvisorRequest{ReassignTo: "Nobody"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDismissAdvisor_NotFound(t *testing.T) {
	server, _ := newServer(t)
	resp := doJSON(t, http.MethodPost, server.URL+"/api/advisors/ghost/dismiss", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestScenarios_LoadAndReset(t *testing.T) {
	server, store := newServer(t)

	resp := doJSON(t, http.MethodGet, server.URL+"/api/scenarios/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	available := decodeBody[[]api.ScenarioDTO](t, resp)
	require.NotEmpty(t, available)

	resp = doJSON(t, http.MethodPost, server.URL+"/api/scenarios/load",
		api.LoadScenarioRequest{ID: "basic"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	donations, err := store.ListDonations(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, donations)

	resp = doJSON(t, http.MethodPost, server.URL+"/api/scenarios/load",
		api.LoadScenarioRequest{ID: "nope"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, server.URL+"/api/scenarios/reset", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	donations, err = store.ListDonations(context.Background())
	require.NoError(t, err)
	assert.Empty(t, donations)
}
