/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupling the domain model from
  the external contract. Money and rates serialize as float64 for frontend
  convenience; all domain math stays decimal internally.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/caridade/donation-engine/commission"
	"github.com/caridade/donation-engine/donation"
	"github.com/caridade/donation-engine/report"
)

// =============================================================================
// DONATIONS
// =============================================================================

// DonationDTO represents a donation in API responses.
type DonationDTO struct {
	ID            string  `json:"id"`
	DonorName     string  `json:"donor_name"`
	DonorCode     string  `json:"donor_code,omitempty"`
	Amount        float64 `json:"amount"`
	DueDate       string  `json:"due_date"`
	PaymentDate   *string `json:"payment_date,omitempty"`
	Status        string  `json:"status"`
	AdvisorName   string  `json:"advisor_name,omitempty"`
	MessengerName string  `json:"messenger_name,omitempty"`
	Method        string  `json:"method,omitempty"`
}

// SaveDonationRequest creates or updates a donation.
type SaveDonationRequest struct {
	ID            string  `json:"id,omitempty"`
	DonorName     string  `json:"donor_name"`
	DonorCode     string  `json:"donor_code,omitempty"`
	Amount        float64 `json:"amount"`
	DueDate       string  `json:"due_date"`
	PaymentDate   *string `json:"payment_date,omitempty"`
	Status        string  `json:"status"`
	AdvisorName   string  `json:"advisor_name,omitempty"`
	MessengerName string  `json:"messenger_name,omitempty"`
	Method        string  `json:"method,omitempty"`
}

// =============================================================================
// DONORS
// =============================================================================

type DonorDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Code        string `json:"code,omitempty"`
	AdvisorName string `json:"advisor_name,omitempty"`
	JoinDate    string `json:"join_date"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
}

type SaveDonorRequest struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Code        string `json:"code,omitempty"`
	AdvisorName string `json:"advisor_name,omitempty"`
	JoinDate    string `json:"join_date"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
}

// =============================================================================
// COLLABORATORS
// =============================================================================

type AdvisorDTO struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Status         string  `json:"status"`
	Goal           float64 `json:"goal"`
	NewClientsGoal int     `json:"new_clients_goal"`
	MinRate        float64 `json:"min_rate"`
	MaxRate        float64 `json:"max_rate"`
}

type SaveAdvisorRequest struct {
	ID             string  `json:"id,omitempty"`
	Name           string  `json:"name"`
	Status         string  `json:"status,omitempty"`
	Goal           float64 `json:"goal"`
	NewClientsGoal int     `json:"new_clients_goal"`
	MinRate        float64 `json:"min_rate"`
	MaxRate        float64 `json:"max_rate"`
}

// DismissAdvisorRequest controls where the dismissed advisor's donors go.
// ReassignTo is "round_robin" (default), "company", or another advisor's name.
type DismissAdvisorRequest struct {
	ReassignTo string `json:"reassign_to,omitempty"`
}

// DismissResultDTO reports the applied portfolio handover.
type DismissResultDTO struct {
	AdvisorID     string            `json:"advisor_id"`
	DonorsMoved   int               `json:"donors_moved"`
	Reassignments map[string]string `json:"reassignments"` // donor id -> new advisor name
}

type MessengerDTO struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Status         string   `json:"status"`
	CommissionRate *float64 `json:"commission_rate,omitempty"`
}

type SaveMessengerRequest struct {
	ID             string   `json:"id,omitempty"`
	Name           string   `json:"name"`
	Status         string   `json:"status,omitempty"`
	CommissionRate *float64 `json:"commission_rate,omitempty"`
}

// =============================================================================
// COMMISSIONS
// =============================================================================

// CommissionEntryDTO represents one computed commission entry.
type CommissionEntryDTO struct {
	ID             string  `json:"id"`
	RecipientName  string  `json:"recipient_name"`
	RecipientType  string  `json:"recipient_type"`
	ReferenceYear  int     `json:"reference_year"`
	ReferenceMonth int     `json:"reference_month"`
	PeriodStart    string  `json:"period_start"`
	PeriodEnd      string  `json:"period_end"`
	BaseAmount     float64 `json:"base_amount"`
	Rate           float64 `json:"rate"`
	Commission     float64 `json:"commission"`
	Status         string  `json:"status"`
	PaymentDate    *string `json:"payment_date,omitempty"`

	Goal             *float64 `json:"goal,omitempty"`
	GoalReached      *bool    `json:"goal_reached,omitempty"`
	NewClientsGoal   *int     `json:"new_clients_goal,omitempty"`
	NewClientsResult *int     `json:"new_clients_result,omitempty"`
}

// CommissionListDTO is the commissions query response.
type CommissionListDTO struct {
	Entries []CommissionEntryDTO `json:"entries"`
	Summary SummaryDTO           `json:"summary"`
}

// SummaryDTO aggregates the returned entry set.
type SummaryDTO struct {
	TotalBase       float64 `json:"total_base"`
	TotalCommission float64 `json:"total_commission"`
	PaidCount       int     `json:"paid_count"`
	PendingCount    int     `json:"pending_count"`
	GoalAchievement float64 `json:"goal_achievement"`
}

// ClosingDayDTO carries the closing-day setting.
type ClosingDayDTO struct {
	ClosingDay int `json:"closing_day"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a demo scenario.
type LoadScenarioRequest struct {
	ID string `json:"id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func f64(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func toDonationDTO(d donation.Donation) DonationDTO {
	dto := DonationDTO{
		ID:            d.ID,
		DonorName:     d.DonorName,
		DonorCode:     d.DonorCode,
		Amount:        f64(d.Amount),
		DueDate:       d.DueDate.String(),
		Status:        string(d.Status),
		AdvisorName:   d.AdvisorName,
		MessengerName: d.MessengerName,
		Method:        string(d.Method),
	}
	if d.PaymentDate != nil {
		s := d.PaymentDate.String()
		dto.PaymentDate = &s
	}
	return dto
}

func toDonorDTO(d donation.Donor) DonorDTO {
	return DonorDTO{
		ID:          d.ID,
		Name:        d.Name,
		Code:        d.Code,
		AdvisorName: d.AdvisorName,
		JoinDate:    d.JoinDate.String(),
		Phone:       d.Phone,
		Email:       d.Email,
	}
}

func toAdvisorDTO(a donation.Advisor) AdvisorDTO {
	return AdvisorDTO{
		ID:             a.ID,
		Name:           a.Name,
		Status:         string(a.Status),
		Goal:           f64(a.Goal),
		NewClientsGoal: a.NewClientsGoal,
		MinRate:        f64(a.MinRate),
		MaxRate:        f64(a.MaxRate),
	}
}

func toMessengerDTO(m donation.Messenger) MessengerDTO {
	dto := MessengerDTO{
		ID:     m.ID,
		Name:   m.Name,
		Status: string(m.Status),
	}
	if m.CommissionRate != nil {
		r := f64(*m.CommissionRate)
		dto.CommissionRate = &r
	}
	return dto
}

func toEntryDTO(e commission.Entry) CommissionEntryDTO {
	dto := CommissionEntryDTO{
		ID:             e.ID(),
		RecipientName:  e.Key.RecipientName,
		RecipientType:  string(e.Key.RecipientType),
		ReferenceYear:  e.Key.Year,
		ReferenceMonth: int(e.Key.Month),
		PeriodStart:    e.Period.Start.String(),
		PeriodEnd:      e.Period.End.String(),
		BaseAmount:     f64(e.BaseAmount),
		Rate:           f64(e.Rate),
		Commission:     f64(e.Commission),
		Status:         string(e.Status),
	}
	if e.PaymentDate != nil {
		s := e.PaymentDate.String()
		dto.PaymentDate = &s
	}
	if e.Goal != nil {
		goal := f64(e.Goal.Target)
		reached := e.Goal.Reached
		ncGoal := e.Goal.NewClientsGoal
		ncResult := e.Goal.NewClientsResult
		dto.Goal = &goal
		dto.GoalReached = &reached
		dto.NewClientsGoal = &ncGoal
		dto.NewClientsResult = &ncResult
	}
	return dto
}

func toEntryDTOs(entries []commission.Entry) []CommissionEntryDTO {
	dtos := make([]CommissionEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toEntryDTO(e)
	}
	return dtos
}

func toSummaryDTO(s report.Summary) SummaryDTO {
	return SummaryDTO{
		TotalBase:       f64(s.TotalBase),
		TotalCommission: f64(s.TotalCommission),
		PaidCount:       s.PaidCount,
		PendingCount:    s.PendingCount,
		GoalAchievement: f64(s.GoalAchievement),
	}
}
