package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Quotation is a request for a solar installer to quote a package. The
// user's contact details are copied in at creation time.
type Quotation struct {
	ID             int64           `json:"id"`
	Reference      string          `json:"reference"`
	UserID         int64           `json:"user_id"`
	UserName       string          `json:"user_name"`
	UserEmail      string          `json:"user_email"`
	UserCity       string          `json:"user_city"`
	UserProvince   string          `json:"user_province"`
	PackageTier    string          `json:"package_tier"`
	PackageDetails json.RawMessage `json:"package_details"`
	DevicesSummary string          `json:"devices_summary"`
	TotalCost      string          `json:"total_cost"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
}

type NewQuotation struct {
	UserID         int64
	PackageTier    string
	PackageDetails json.RawMessage
	DevicesSummary string
	TotalCost      string
}

const quotationColumns = `id, reference, user_id, user_name, user_email, user_city, user_province,
	package_tier, package_details, devices_summary, total_cost, status, created_at`

func scanQuotation(row interface{ Scan(...any) error }) (Quotation, error) {
	var (
		q       Quotation
		details string
	)
	err := row.Scan(&q.ID, &q.Reference, &q.UserID, &q.UserName, &q.UserEmail, &q.UserCity, &q.UserProvince,
		&q.PackageTier, &details, &q.DevicesSummary, &q.TotalCost, &q.Status, &q.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Quotation{}, ErrNotFound
	}
	q.PackageDetails = json.RawMessage(details)
	return q, err
}

// CreateQuotation stores a pending quotation under a fresh reference.
func (s *Store) CreateQuotation(ctx context.Context, nq NewQuotation) (Quotation, error) {
	details := "{}"
	if len(nq.PackageDetails) > 0 {
		if !json.Valid(nq.PackageDetails) {
			return Quotation{}, fmt.Errorf("package details are not valid JSON")
		}
		details = string(nq.PackageDetails)
	}

	ref := uuid.NewString()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO quotations (reference, user_id, user_name, user_email, user_city, user_province,
			package_tier, package_details, devices_summary, total_cost, status, created_at)
		SELECT ?, u.id, u.name, u.email, u.city, u.province, ?, ?, ?, ?, 'pending', ?
		FROM users u WHERE u.id = ?`,
		ref, nq.PackageTier, details, nq.DevicesSummary, nq.TotalCost, s.timestamp(), nq.UserID,
	)
	if err != nil {
		return Quotation{}, fmt.Errorf("create quotation: %w", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return Quotation{}, err
	}
	if n == 0 {
		return Quotation{}, fmt.Errorf("user %d: %w", nq.UserID, ErrNotFound)
	}
	return s.GetQuotation(ctx, ref)
}

func (s *Store) GetQuotation(ctx context.Context, reference string) (Quotation, error) {
	q, err := scanQuotation(s.db.QueryRowContext(ctx,
		`SELECT `+quotationColumns+` FROM quotations WHERE reference = ?`, reference))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Quotation{}, fmt.Errorf("get quotation: %w", err)
	}
	return q, err
}

// ListQuotations returns a user's quotations, newest first.
func (s *Store) ListQuotations(ctx context.Context, userID int64) ([]Quotation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+quotationColumns+` FROM quotations WHERE user_id = ? ORDER BY id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list quotations: %w", err)
	}
	defer rows.Close()

	out := []Quotation{}
	for rows.Next() {
		q, err := scanQuotation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quotation: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}
