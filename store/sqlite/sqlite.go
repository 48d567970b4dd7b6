/*
Package sqlite provides the SQLite-backed implementation of donation.Store.

PURPOSE:
  Implements every persistence contract in donation/store.go using SQLite.
  In production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

KEY TABLES:
  donations:           Contribution records
  donors:              Contributor records with advisor ownership
  advisors:            Advisors with goal and rate tier configuration
  messengers:          Messengers with optional flat commission rate
  settings:            Key/value configuration (closing day)
  commission_payments: The engine-owned payment side table, keyed by the
                       deterministic composite entry id

ATOMIC BATCHES:
  Reassign() runs inside one SQL transaction: all donor updates plus the
  advisor status flip commit together or roll back together.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. SQLite is opened in WAL mode so
  readers don't block each other.

USAGE:
  store, err := sqlite.New("./data/donations.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - donation/store.go: Interface definitions
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/caridade/donation-engine/commission"
	"github.com/caridade/donation-engine/donation"
)

// Store implements donation.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS donations (
		id TEXT PRIMARY KEY,
		donor_name TEXT NOT NULL,
		donor_code TEXT,
		amount TEXT NOT NULL,
		due_date TEXT NOT NULL,
		payment_date TEXT,
		status TEXT NOT NULL,
		advisor_name TEXT,
		messenger_name TEXT,
		method TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_donations_status
		ON donations(status);
	CREATE INDEX IF NOT EXISTS idx_donations_payment_date
		ON donations(payment_date) WHERE payment_date IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_donations_advisor
		ON donations(advisor_name) WHERE advisor_name IS NOT NULL;

	CREATE TABLE IF NOT EXISTS donors (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		code TEXT,
		advisor_name TEXT,
		join_date TEXT NOT NULL,
		phone TEXT,
		email TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_donors_advisor
		ON donors(advisor_name);

	CREATE TABLE IF NOT EXISTS advisors (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		status TEXT NOT NULL,
		goal TEXT NOT NULL,
		new_clients_goal INTEGER NOT NULL DEFAULT 0,
		min_rate TEXT NOT NULL,
		max_rate TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messengers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		status TEXT NOT NULL,
		commission_rate TEXT
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	-- The engine-owned side table. One row per marked-paid commission
	-- entry, keyed by the deterministic composite id.
	CREATE TABLE IF NOT EXISTS commission_payments (
		entry_id TEXT PRIMARY KEY,
		payment_date TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

const settingClosingDay = "closing_day"

// =============================================================================
// DONATIONS (donation.DonationStore interface)
// =============================================================================

// SaveDonation inserts or updates a donation record.
func (s *Store) SaveDonation(ctx context.Context, d donation.Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO donations
		(id, donor_name, donor_code, amount, due_date, payment_date, status, advisor_name, messenger_name, method)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			donor_name = excluded.donor_name,
			donor_code = excluded.donor_code,
			amount = excluded.amount,
			due_date = excluded.due_date,
			payment_date = excluded.payment_date,
			status = excluded.status,
			advisor_name = excluded.advisor_name,
			messenger_name = excluded.messenger_name,
			method = excluded.method
	`

	var paymentDate any
	if d.PaymentDate != nil {
		paymentDate = d.PaymentDate.String()
	}

	_, err := s.db.ExecContext(ctx, query,
		d.ID, d.DonorName, d.DonorCode, d.Amount.String(), d.DueDate.String(),
		paymentDate, d.Status, nullString(d.AdvisorName), nullString(d.MessengerName), d.Method,
	)
	if err != nil {
		return fmt.Errorf("failed to save donation: %w", err)
	}
	return nil
}

// GetDonation retrieves a donation by id; nil when absent.
func (s *Store) GetDonation(ctx context.Context, id string) (*donation.Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, donor_name, donor_code, amount, due_date, payment_date, status, advisor_name, messenger_name, method FROM donations WHERE id = ?",
		id,
	)
	d, err := scanDonation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDonations returns all donations ordered by due date.
func (s *Store) ListDonations(ctx context.Context) ([]donation.Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, donor_name, donor_code, amount, due_date, payment_date, status, advisor_name, messenger_name, method FROM donations ORDER BY due_date, id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query donations: %w", err)
	}
	defer rows.Close()

	var donations []donation.Donation
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		donations = append(donations, d)
	}
	return donations, rows.Err()
}

// DeleteDonation removes a donation record.
func (s *Store) DeleteDonation(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM donations WHERE id = ?", id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDonation(row rowScanner) (donation.Donation, error) {
	var (
		d             donation.Donation
		donorCode     sql.NullString
		amount        string
		dueDate       string
		paymentDate   sql.NullString
		advisorName   sql.NullString
		messengerName sql.NullString
		method        sql.NullString
	)

	err := row.Scan(&d.ID, &d.DonorName, &donorCode, &amount, &dueDate,
		&paymentDate, &d.Status, &advisorName, &messengerName, &method)
	if err != nil {
		return d, err
	}

	d.DonorCode = donorCode.String
	d.Amount = parseDecimal(amount)
	d.DueDate, _ = commission.ParseDate(dueDate)
	if paymentDate.Valid && paymentDate.String != "" {
		pd, err := commission.ParseDate(paymentDate.String)
		if err == nil {
			d.PaymentDate = &pd
		}
	}
	d.AdvisorName = advisorName.String
	d.MessengerName = messengerName.String
	d.Method = donation.PaymentMethod(method.String)
	return d, nil
}

// =============================================================================
// DONORS (donation.DonorStore interface)
// =============================================================================

// SaveDonor inserts or updates a donor record.
func (s *Store) SaveDonor(ctx context.Context, d donation.Donor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO donors (id, name, code, advisor_name, join_date, phone, email)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			code = excluded.code,
			advisor_name = excluded.advisor_name,
			join_date = excluded.join_date,
			phone = excluded.phone,
			email = excluded.email
	`
	_, err := s.db.ExecContext(ctx, query,
		d.ID, d.Name, d.Code, d.AdvisorName, d.JoinDate.String(), d.Phone, d.Email)
	if err != nil {
		return fmt.Errorf("failed to save donor: %w", err)
	}
	return nil
}

// GetDonor retrieves a donor by id; nil when absent.
func (s *Store) GetDonor(ctx context.Context, id string) (*donation.Donor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, code, advisor_name, join_date, phone, email FROM donors WHERE id = ?", id)
	d, err := scanDonor(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDonors returns all donors ordered by name.
func (s *Store) ListDonors(ctx context.Context) ([]donation.Donor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, code, advisor_name, join_date, phone, email FROM donors ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query donors: %w", err)
	}
	defer rows.Close()

	var donors []donation.Donor
	for rows.Next() {
		d, err := scanDonor(rows)
		if err != nil {
			return nil, err
		}
		donors = append(donors, d)
	}
	return donors, rows.Err()
}

// DeleteDonor removes a donor record.
func (s *Store) DeleteDonor(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM donors WHERE id = ?", id)
	return err
}

func scanDonor(row rowScanner) (donation.Donor, error) {
	var (
		d           donation.Donor
		code        sql.NullString
		advisorName sql.NullString
		joinDate    string
		phone       sql.NullString
		email       sql.NullString
	)
	err := row.Scan(&d.ID, &d.Name, &code, &advisorName, &joinDate, &phone, &email)
	if err != nil {
		return d, err
	}
	d.Code = code.String
	d.AdvisorName = advisorName.String
	d.JoinDate, _ = commission.ParseDate(joinDate)
	d.Phone = phone.String
	d.Email = email.String
	return d, nil
}

// =============================================================================
// COLLABORATORS (donation.CollaboratorStore interface)
// =============================================================================

// SaveAdvisor inserts or updates an advisor record.
func (s *Store) SaveAdvisor(ctx context.Context, a donation.Advisor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO advisors (id, name, status, goal, new_clients_goal, min_rate, max_rate)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			status = excluded.status,
			goal = excluded.goal,
			new_clients_goal = excluded.new_clients_goal,
			min_rate = excluded.min_rate,
			max_rate = excluded.max_rate
	`
	_, err := s.db.ExecContext(ctx, query,
		a.ID, a.Name, a.Status, a.Goal.String(), a.NewClientsGoal, a.MinRate.String(), a.MaxRate.String())
	if err != nil {
		return fmt.Errorf("failed to save advisor: %w", err)
	}
	return nil
}

// GetAdvisor retrieves an advisor by id; nil when absent.
func (s *Store) GetAdvisor(ctx context.Context, id string) (*donation.Advisor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		a       donation.Advisor
		goal    string
		minRate string
		maxRate string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, status, goal, new_clients_goal, min_rate, max_rate FROM advisors WHERE id = ?",
		id,
	).Scan(&a.ID, &a.Name, &a.Status, &goal, &a.NewClientsGoal, &minRate, &maxRate)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.Goal = parseDecimal(goal)
	a.MinRate = parseDecimal(minRate)
	a.MaxRate = parseDecimal(maxRate)
	return &a, nil
}

// ListAdvisors returns all advisors ordered by name.
func (s *Store) ListAdvisors(ctx context.Context) ([]donation.Advisor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, status, goal, new_clients_goal, min_rate, max_rate FROM advisors ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query advisors: %w", err)
	}
	defer rows.Close()

	var advisors []donation.Advisor
	for rows.Next() {
		var (
			a       donation.Advisor
			goal    string
			minRate string
			maxRate string
		)
		if err := rows.Scan(&a.ID, &a.Name, &a.Status, &goal, &a.NewClientsGoal, &minRate, &maxRate); err != nil {
			return nil, err
		}
		a.Goal = parseDecimal(goal)
		a.MinRate = parseDecimal(minRate)
		a.MaxRate = parseDecimal(maxRate)
		advisors = append(advisors, a)
	}
	return advisors, rows.Err()
}

// DeleteAdvisor removes an advisor record.
func (s *Store) DeleteAdvisor(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM advisors WHERE id = ?", id)
	return err
}

// SaveMessenger inserts or updates a messenger record.
func (s *Store) SaveMessenger(ctx context.Context, m donation.Messenger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rate any
	if m.CommissionRate != nil {
		rate = m.CommissionRate.String()
	}

	query := `
		INSERT INTO messengers (id, name, status, commission_rate)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			status = excluded.status,
			commission_rate = excluded.commission_rate
	`
	_, err := s.db.ExecContext(ctx, query, m.ID, m.Name, m.Status, rate)
	if err != nil {
		return fmt.Errorf("failed to save messenger: %w", err)
	}
	return nil
}

// GetMessenger retrieves a messenger by id; nil when absent.
func (s *Store) GetMessenger(ctx context.Context, id string) (*donation.Messenger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		m    donation.Messenger
		rate sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, status, commission_rate FROM messengers WHERE id = ?",
		id,
	).Scan(&m.ID, &m.Name, &m.Status, &rate)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if rate.Valid {
		r := parseDecimal(rate.String)
		m.CommissionRate = &r
	}
	return &m, nil
}

// ListMessengers returns all messengers ordered by name.
func (s *Store) ListMessengers(ctx context.Context) ([]donation.Messenger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, status, commission_rate FROM messengers ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query messengers: %w", err)
	}
	defer rows.Close()

	var messengers []donation.Messenger
	for rows.Next() {
		var (
			m    donation.Messenger
			rate sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.Name, &m.Status, &rate); err != nil {
			return nil, err
		}
		if rate.Valid {
			r := parseDecimal(rate.String)
			m.CommissionRate = &r
		}
		messengers = append(messengers, m)
	}
	return messengers, rows.Err()
}

// DeleteMessenger removes a messenger record.
func (s *Store) DeleteMessenger(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM messengers WHERE id = ?", id)
	return err
}

// =============================================================================
// SETTINGS (donation.SettingsStore interface)
// =============================================================================

// ClosingDay returns the configured closing day, or the default when unset.
func (s *Store) ClosingDay(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM settings WHERE key = ?", settingClosingDay).Scan(&value)
	if err == sql.ErrNoRows {
		return commission.DefaultClosingDay, nil
	}
	if err != nil {
		return 0, err
	}

	day, err := strconv.Atoi(value)
	if err != nil || !commission.ValidClosingDay(day) {
		return commission.DefaultClosingDay, nil
	}
	return day, nil
}

// SetClosingDay validates and persists the closing day.
func (s *Store) SetClosingDay(ctx context.Context, day int) error {
	if !commission.ValidClosingDay(day) {
		return &commission.ClosingDayError{Day: day}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, settingClosingDay, strconv.Itoa(day))
	return err
}

// =============================================================================
// PAYMENTS (donation.PaymentStore interface)
// =============================================================================

// MarkPaid upserts a commission payment record. Idempotent: re-marking
// rewrites the same row with the new date.
func (s *Store) MarkPaid(ctx context.Context, entryID string, date commission.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO commission_payments (entry_id, payment_date) VALUES (?, ?)
		ON CONFLICT(entry_id) DO UPDATE SET payment_date = excluded.payment_date
	`, entryID, date.String())
	return err
}

// ClearPayment removes a payment record. Clearing a missing id is a no-op.
func (s *Store) ClearPayment(ctx context.Context, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM commission_payments WHERE entry_id = ?", entryID)
	return err
}

// ListPayments returns all payment records keyed by entry id.
func (s *Store) ListPayments(ctx context.Context) (map[string]commission.PaymentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT entry_id, payment_date FROM commission_payments")
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	payments := make(map[string]commission.PaymentRecord)
	for rows.Next() {
		var entryID, paymentDate string
		if err := rows.Scan(&entryID, &paymentDate); err != nil {
			return nil, err
		}
		date, err := commission.ParseDate(paymentDate)
		if err != nil {
			return nil, fmt.Errorf("corrupt payment date for %s: %w", entryID, err)
		}
		payments[entryID] = commission.PaymentRecord{EntryID: entryID, PaymentDate: date}
	}
	return payments, rows.Err()
}

// =============================================================================
// REASSIGNMENT (donation.ReassignmentStore interface)
// =============================================================================

// Reassign updates the listed donors and the advisor's status in a single
// SQL transaction. A failed update rolls everything back.
func (s *Store) Reassign(ctx context.Context, advisorID string, newStatus donation.CollaboratorStatus, changes []donation.DonorReassignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "UPDATE advisors SET status = ? WHERE id = ?", newStatus, advisorID)
	if err != nil {
		return fmt.Errorf("failed to update advisor status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("advisor %q not found", advisorID)
	}

	for _, c := range changes {
		res, err := tx.ExecContext(ctx,
			"UPDATE donors SET advisor_name = ? WHERE id = ?", c.AdvisorName, c.DonorID)
		if err != nil {
			return fmt.Errorf("failed to reassign donor %s: %w", c.DonorID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("donor %q not found", c.DonorID)
		}
	}

	return tx.Commit()
}

// =============================================================================
// MAINTENANCE
// =============================================================================

// Reset wipes every table. Used by the demo scenario loader.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"donations", "donors", "advisors", "messengers", "settings", "commission_payments"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
