package crm

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

// Subscribe adds an email to the newsletter, reporting whether this was a
// new subscription or an existing one.
func (r *Repo) Subscribe(ctx context.Context, email string) (created bool, err error) {
	ct, err := r.DB.Exec(ctx, `
		INSERT INTO newsletter_subscriptions(id, email)
		VALUES ($1, $2)
		ON CONFLICT (email) DO NOTHING`, uuid.NewString(), email)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

func (r *Repo) CreateContactMessage(ctx context.Context, m *ContactMessage) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	_, err := r.DB.Exec(ctx, `
		INSERT INTO contact_messages(id, name, email, phone, subject, message, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.Name, m.Email, m.Phone, m.Subject, m.Message, m.IPAddress)
	return err
}
