/*
handlers.go - HTTP API handlers for the donation dashboard

PURPOSE:
  Exposes the donation records and the commission engine via REST. Handles
  HTTP request/response and JSON serialization, then delegates to domain
  logic (commission service, portfolio planner, stores).

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - donation/service.go: Commission orchestration
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/caridade/donation-engine/commission"
	"github.com/caridade/donation-engine/donation"
	"github.com/caridade/donation-engine/portfolio"
	"github.com/caridade/donation-engine/report"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is the persistence surface the API needs: every domain store plus
// the maintenance reset used by the scenario loader.
type Store interface {
	donation.Store
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store       Store
	Commissions *donation.CommissionService
	Exporter    report.Exporter
}

// NewHandler creates a new handler over the given store.
func NewHandler(store Store) *Handler {
	return &Handler{
		Store:       store,
		Commissions: donation.NewCommissionService(store),
		Exporter:    report.CSVExporter{},
	}
}

// =============================================================================
// DONATION HANDLERS
// =============================================================================

// ListDonations returns all donations.
func (h *Handler) ListDonations(w http.ResponseWriter, r *http.Request) {
	donations, err := h.Store.ListDonations(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list donations", err)
		return
	}

	dtos := make([]DonationDTO, len(donations))
	for i, d := range donations {
		dtos[i] = toDonationDTO(d)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetDonation returns a single donation.
func (h *Handler) GetDonation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	d, err := h.Store.GetDonation(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get donation", err)
		return
	}
	if d == nil {
		writeError(w, http.StatusNotFound, "Donation not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toDonationDTO(*d))
}

// SaveDonation creates or updates a donation.
func (h *Handler) SaveDonation(w http.ResponseWriter, r *http.Request) {
	var req SaveDonationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if id := chi.URLParam(r, "id"); id != "" {
		req.ID = id
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.DonorName == "" {
		writeError(w, http.StatusBadRequest, "donor_name is required", nil)
		return
	}

	dueDate, err := commission.ParseDate(req.DueDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid due_date format (use YYYY-MM-DD)", err)
		return
	}

	d := donation.Donation{
		ID:            req.ID,
		DonorName:     req.DonorName,
		DonorCode:     req.DonorCode,
		Amount:        decimal.NewFromFloat(req.Amount),
		DueDate:       dueDate,
		Status:        donation.Status(req.Status),
		AdvisorName:   req.AdvisorName,
		MessengerName: req.MessengerName,
		Method:        donation.PaymentMethod(req.Method),
	}
	if d.Status == "" {
		d.Status = donation.StatusPending
	}
	if req.PaymentDate != nil && *req.PaymentDate != "" {
		pd, err := commission.ParseDate(*req.PaymentDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid payment_date format (use YYYY-MM-DD)", err)
			return
		}
		d.PaymentDate = &pd
	}

	if err := h.Store.SaveDonation(r.Context(), d); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save donation", err)
		return
	}
	writeJSON(w, http.StatusCreated, toDonationDTO(d))
}

// DeleteDonation removes a donation.
func (h *Handler) DeleteDonation(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteDonation(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete donation", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// DONOR HANDLERS
// =============================================================================

// ListDonors returns all donors.
func (h *Handler) ListDonors(w http.ResponseWriter, r *http.Request) {
	donors, err := h.Store.ListDonors(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list donors", err)
		return
	}

	dtos := make([]DonorDTO, len(donors))
	for i, d := range donors {
		dtos[i] = toDonorDTO(d)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveDonor creates or updates a donor.
func (h *Handler) SaveDonor(w http.ResponseWriter, r *http.Request) {
	var req SaveDonorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if id := chi.URLParam(r, "id"); id != "" {
		req.ID = id
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	joinDate, err := commission.ParseDate(req.JoinDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid join_date format (use YYYY-MM-DD)", err)
		return
	}

	d := donation.Donor{
		ID:          req.ID,
		Name:        req.Name,
		Code:        req.Code,
		AdvisorName: req.AdvisorName,
		JoinDate:    joinDate,
		Phone:       req.Phone,
		Email:       req.Email,
	}
	if err := h.Store.SaveDonor(r.Context(), d); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save donor", err)
		return
	}
	writeJSON(w, http.StatusCreated, toDonorDTO(d))
}

// DeleteDonor removes a donor.
func (h *Handler) DeleteDonor(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteDonor(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete donor", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ADVISOR HANDLERS
// =============================================================================

// ListAdvisors returns all advisors.
func (h *Handler) ListAdvisors(w http.ResponseWriter, r *http.Request) {
	advisors, err := h.Store.ListAdvisors(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list advisors", err)
		return
	}

	dtos := make([]AdvisorDTO, len(advisors))
	for i, a := range advisors {
		dtos[i] = toAdvisorDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveAdvisor creates or updates an advisor.
func (h *Handler) SaveAdvisor(w http.ResponseWriter, r *http.Request) {
	var req SaveAdvisorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if id := chi.URLParam(r, "id"); id != "" {
		req.ID = id
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}
	if req.MinRate > req.MaxRate {
		writeError(w, http.StatusBadRequest, "min_rate must not exceed max_rate", nil)
		return
	}

	a := donation.Advisor{
		ID:             req.ID,
		Name:           req.Name,
		Status:         donation.CollaboratorStatus(req.Status),
		Goal:           decimal.NewFromFloat(req.Goal),
		NewClientsGoal: req.NewClientsGoal,
		MinRate:        decimal.NewFromFloat(req.MinRate),
		MaxRate:        decimal.NewFromFloat(req.MaxRate),
	}
	if a.Status == "" {
		a.Status = donation.CollaboratorActive
	}
	if err := h.Store.SaveAdvisor(r.Context(), a); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save advisor", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAdvisorDTO(a))
}

// DeleteAdvisor removes an advisor record.
func (h *Handler) DeleteAdvisor(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteAdvisor(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete advisor", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DismissAdvisor dismisses an advisor and reallocates their donor
// portfolio in one atomic batch. The default strategy deals donors
// round-robin across the remaining active advisors.
func (h *Handler) DismissAdvisor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := r.Context()

	var req DismissAdvisorRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	advisor, err := h.Store.GetAdvisor(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get advisor", err)
		return
	}
	if advisor == nil {
		writeError(w, http.StatusNotFound, "Advisor not found", nil)
		return
	}

	donors, err := h.Store.ListDonors(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list donors", err)
		return
	}
	advisors, err := h.Store.ListAdvisors(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list advisors", err)
		return
	}

	var plan portfolio.Plan
	switch req.ReassignTo {
	case "", "round_robin":
		plan = portfolio.RoundRobin(*advisor, donors, advisors)
	case portfolio.HouseAccount:
		plan = portfolio.TransferAll(*advisor, donors, portfolio.HouseAccount)
	default:
		target, ok := activeAdvisorByName(advisors, req.ReassignTo, advisor.ID)
		if !ok {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("reassign_to %q is not an active advisor", req.ReassignTo), nil)
			return
		}
		plan = portfolio.TransferAll(*advisor, donors, target.Name)
	}

	if err := portfolio.Apply(ctx, h.Store, plan); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reassign portfolio", err)
		return
	}

	result := DismissResultDTO{
		AdvisorID:     advisor.ID,
		DonorsMoved:   len(plan.Changes),
		Reassignments: make(map[string]string, len(plan.Changes)),
	}
	for _, c := range plan.Changes {
		result.Reassignments[c.DonorID] = c.AdvisorName
	}
	writeJSON(w, http.StatusOK, result)
}

func activeAdvisorByName(advisors []donation.Advisor, name, excludeID string) (donation.Advisor, bool) {
	for _, a := range advisors {
		if a.Name == name && a.ID != excludeID && a.Status == donation.CollaboratorActive {
			return a, true
		}
	}
	return donation.Advisor{}, false
}

// =============================================================================
// MESSENGER HANDLERS
// =============================================================================

// ListMessengers returns all messengers.
func (h *Handler) ListMessengers(w http.ResponseWriter, r *http.Request) {
	messengers, err := h.Store.ListMessengers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list messengers", err)
		return
	}

	dtos := make([]MessengerDTO, len(messengers))
	for i, m := range messengers {
		dtos[i] = toMessengerDTO(m)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveMessenger creates or updates a messenger.
func (h *Handler) SaveMessenger(w http.ResponseWriter, r *http.Request) {
	var req SaveMessengerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if id := chi.URLParam(r, "id"); id != "" {
		req.ID = id
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	m := donation.Messenger{
		ID:     req.ID,
		Name:   req.Name,
		Status: donation.CollaboratorStatus(req.Status),
	}
	if m.Status == "" {
		m.Status = donation.CollaboratorActive
	}
	if req.CommissionRate != nil {
		rate := decimal.NewFromFloat(*req.CommissionRate)
		m.CommissionRate = &rate
	}
	if err := h.Store.SaveMessenger(r.Context(), m); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save messenger", err)
		return
	}
	writeJSON(w, http.StatusCreated, toMessengerDTO(m))
}

// DeleteMessenger removes a messenger record.
func (h *Handler) DeleteMessenger(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteMessenger(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete messenger", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// COMMISSION HANDLERS
// =============================================================================

// ListCommissions recomputes and returns commission entries, optionally
// filtered to one reference month via ?year=&month=.
func (h *Handler) ListCommissions(w http.ResponseWriter, r *http.Request) {
	filter, err := parsePeriodFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period filter", err)
		return
	}

	result, err := h.Commissions.Compute(r.Context(), filter)
	if err != nil {
		if commission.IsClientError(err) {
			writeError(w, http.StatusBadRequest, "Failed to compute commissions", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to compute commissions", err)
		return
	}

	writeJSON(w, http.StatusOK, CommissionListDTO{
		Entries: toEntryDTOs(result.Entries),
		Summary: toSummaryDTO(report.Summarize(result.Entries)),
	})
}

// MarkCommissionPaid records payment for a commission entry. Idempotent:
// re-marking rewrites the record with today's date.
func (h *Handler) MarkCommissionPaid(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "id")

	entry, err := h.Commissions.MarkPaid(r.Context(), entryID)
	if err != nil {
		if errors.Is(err, commission.ErrEntryNotFound) {
			writeError(w, http.StatusNotFound, "Commission entry not found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to mark commission paid", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(*entry))
}

// ClearCommissionPayment removes an entry's payment record, degrading it
// back to pending.
func (h *Handler) ClearCommissionPayment(w http.ResponseWriter, r *http.Request) {
	if err := h.Commissions.ClearPayment(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to clear payment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportCommissions renders the (optionally filtered) commission report.
func (h *Handler) ExportCommissions(w http.ResponseWriter, r *http.Request) {
	filter, err := parsePeriodFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period filter", err)
		return
	}

	result, err := h.Commissions.Compute(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute commissions", err)
		return
	}

	data, contentType, err := h.Exporter.Export(result.Entries, report.Summarize(result.Entries))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to export report", err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="commissions.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func parsePeriodFilter(r *http.Request) (*commission.PeriodFilter, error) {
	yearStr := r.URL.Query().Get("year")
	monthStr := r.URL.Query().Get("month")
	if yearStr == "" && monthStr == "" {
		return nil, nil
	}
	if yearStr == "" || monthStr == "" {
		return nil, fmt.Errorf("year and month must be provided together")
	}

	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return nil, fmt.Errorf("invalid year %q", yearStr)
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 {
		return nil, fmt.Errorf("invalid month %q", monthStr)
	}
	return &commission.PeriodFilter{Year: year, Month: month}, nil
}

// =============================================================================
// SETTINGS HANDLERS
// =============================================================================

// GetClosingDay returns the configured closing day.
func (h *Handler) GetClosingDay(w http.ResponseWriter, r *http.Request) {
	day, err := h.Store.ClosingDay(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get closing day", err)
		return
	}
	writeJSON(w, http.StatusOK, ClosingDayDTO{ClosingDay: day})
}

// SetClosingDay validates and stores the closing day (1-28).
func (h *Handler) SetClosingDay(w http.ResponseWriter, r *http.Request) {
	var req ClosingDayDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.Store.SetClosingDay(r.Context(), req.ClosingDay); err != nil {
		if errors.Is(err, commission.ErrInvalidClosingDay) {
			writeError(w, http.StatusBadRequest, "Invalid closing day", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to set closing day", err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
