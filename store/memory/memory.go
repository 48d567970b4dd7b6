// Package memory provides an in-memory donation.Store for tests and dev mode.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/caridade/donation-engine/commission"
	"github.com/caridade/donation-engine/donation"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Store struct {
	mu         sync.RWMutex
	donations  map[string]donation.Donation
	donors     map[string]donation.Donor
	advisors   map[string]donation.Advisor
	messengers map[string]donation.Messenger
	payments   map[string]commission.PaymentRecord
	closingDay int
}

func New() *Store {
	return &Store{
		donations:  make(map[string]donation.Donation),
		donors:     make(map[string]donation.Donor),
		advisors:   make(map[string]donation.Advisor),
		messengers: make(map[string]donation.Messenger),
		payments:   make(map[string]commission.PaymentRecord),
	}
}

// =============================================================================
// DONATIONS
// =============================================================================

func (s *Store) SaveDonation(_ context.Context, d donation.Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.donations[d.ID] = d
	return nil
}

func (s *Store) GetDonation(_ context.Context, id string) (*donation.Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.donations[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (s *Store) ListDonations(_ context.Context) ([]donation.Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]donation.Donation, 0, len(s.donations))
	for _, d := range s.donations {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) DeleteDonation(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.donations, id)
	return nil
}

// =============================================================================
// DONORS
// =============================================================================

func (s *Store) SaveDonor(_ context.Context, d donation.Donor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.donors[d.ID] = d
	return nil
}

func (s *Store) GetDonor(_ context.Context, id string) (*donation.Donor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.donors[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (s *Store) ListDonors(_ context.Context) ([]donation.Donor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]donation.Donor, 0, len(s.donors))
	for _, d := range s.donors {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) DeleteDonor(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.donors, id)
	return nil
}

// =============================================================================
// COLLABORATORS
// =============================================================================

func (s *Store) SaveAdvisor(_ context.Context, a donation.Advisor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advisors[a.ID] = a
	return nil
}

func (s *Store) GetAdvisor(_ context.Context, id string) (*donation.Advisor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.advisors[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (s *Store) ListAdvisors(_ context.Context) ([]donation.Advisor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]donation.Advisor, 0, len(s.advisors))
	for _, a := range s.advisors {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) DeleteAdvisor(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.advisors, id)
	return nil
}

func (s *Store) SaveMessenger(_ context.Context, m donation.Messenger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messengers[m.ID] = m
	return nil
}

func (s *Store) GetMessenger(_ context.Context, id string) (*donation.Messenger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.messengers[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (s *Store) ListMessengers(_ context.Context) ([]donation.Messenger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]donation.Messenger, 0, len(s.messengers))
	for _, m := range s.messengers {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) DeleteMessenger(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.messengers, id)
	return nil
}

// =============================================================================
// SETTINGS
// =============================================================================

func (s *Store) ClosingDay(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closingDay == 0 {
		return commission.DefaultClosingDay, nil
	}
	return s.closingDay, nil
}

func (s *Store) SetClosingDay(_ context.Context, day int) error {
	if !commission.ValidClosingDay(day) {
		return &commission.ClosingDayError{Day: day}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closingDay = day
	return nil
}

// =============================================================================
// PAYMENTS
// =============================================================================

func (s *Store) MarkPaid(_ context.Context, entryID string, date commission.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments[entryID] = commission.PaymentRecord{EntryID: entryID, PaymentDate: date}
	return nil
}

func (s *Store) ClearPayment(_ context.Context, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.payments, entryID)
	return nil
}

func (s *Store) ListPayments(_ context.Context) (map[string]commission.PaymentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]commission.PaymentRecord, len(s.payments))
	for k, v := range s.payments {
		out[k] = v
	}
	return out, nil
}

// =============================================================================
// REASSIGNMENT - Atomic batch
// =============================================================================

// Reassign applies all donor moves plus the advisor status flip under one
// lock. Validation runs first so a bad batch changes nothing.
func (s *Store) Reassign(_ context.Context, advisorID string, newStatus donation.CollaboratorStatus, changes []donation.DonorReassignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	advisor, ok := s.advisors[advisorID]
	if !ok {
		return fmt.Errorf("advisor %q not found", advisorID)
	}
	for _, c := range changes {
		if _, ok := s.donors[c.DonorID]; !ok {
			return fmt.Errorf("donor %q not found", c.DonorID)
		}
	}

	for _, c := range changes {
		d := s.donors[c.DonorID]
		d.AdvisorName = c.AdvisorName
		s.donors[c.DonorID] = d
	}
	advisor.Status = newStatus
	s.advisors[advisorID] = advisor
	return nil
}

// Reset clears every record. Used by the demo scenario loader.
func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.donations = make(map[string]donation.Donation)
	s.donors = make(map[string]donation.Donor)
	s.advisors = make(map[string]donation.Advisor)
	s.messengers = make(map[string]donation.Messenger)
	s.payments = make(map[string]commission.PaymentRecord)
	s.closingDay = 0
	return nil
}
