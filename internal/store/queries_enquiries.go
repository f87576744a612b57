package store

import (
	"context"
	"database/sql"
	"time"
)

type CreateEnquiryParams struct {
	Name      string
	Email     string
	Contact   string
	Subject   string
	Message   string
	IpAddress sql.NullString
	UserAgent sql.NullString
	Country   sql.NullString
	CreatedAt time.Time
}

const createEnquiry = `
INSERT INTO enquiries (name, email, contact, subject, message, ip_address, user_agent, country, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id, name, email, contact, subject, message, ip_address, user_agent, country, created_at`

func (q *Queries) CreateEnquiry(ctx context.Context, arg CreateEnquiryParams) (Enquiry, error) {
	var e Enquiry
	err := q.db.QueryRowContext(ctx, createEnquiry,
		arg.Name, arg.Email, arg.Contact, arg.Subject, arg.Message,
		arg.IpAddress, arg.UserAgent, arg.Country, arg.CreatedAt,
	).Scan(&e.ID, &e.Name, &e.Email, &e.Contact, &e.Subject, &e.Message,
		&e.IpAddress, &e.UserAgent, &e.Country, &e.CreatedAt)
	return e, err
}

type ListEnquiriesParams struct {
	Limit  int64
	Offset int64
}

const listEnquiries = `
SELECT id, name, email, contact, subject, message, ip_address, user_agent, country, created_at
FROM enquiries
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?`

func (q *Queries) ListEnquiries(ctx context.Context, arg ListEnquiriesParams) ([]Enquiry, error) {
	rows, err := q.db.QueryContext(ctx, listEnquiries, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Enquiry
	for rows.Next() {
		var e Enquiry
		if err := rows.Scan(&e.ID, &e.Name, &e.Email, &e.Contact, &e.Subject, &e.Message,
			&e.IpAddress, &e.UserAgent, &e.Country, &e.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

const countEnquiries = `SELECT COUNT(*) FROM enquiries`

func (q *Queries) CountEnquiries(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countEnquiries).Scan(&count)
	return count, err
}
