package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/linkscore/linkscore-api/internal/data/pgxutil"
	"github.com/linkscore/linkscore-api/internal/domain/hostname"
	"github.com/linkscore/linkscore-api/internal/domain/model"
)

// ExcludedDomainRepo provides database operations for the domain exclusion list.
type ExcludedDomainRepo struct {
	DB *sql.DB
}

// NewExcludedDomainRepo creates a new excluded domain repository.
func NewExcludedDomainRepo(db *sql.DB) *ExcludedDomainRepo {
	return &ExcludedDomainRepo{DB: db}
}

const excludedDomainColumns = `id::text AS id, domain, reason, created_at`

// List returns every excluded domain ordered by domain.
func (r *ExcludedDomainRepo) List(ctx context.Context) ([]model.ExcludedDomain, error) {
	var out []model.ExcludedDomain
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `SELECT `+excludedDomainColumns+` FROM excluded_domains ORDER BY domain`)
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.ExcludedDomain])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list excluded domains: %w", err)
	}
	return out, nil
}

// Add inserts a new excluded domain. The domain is stored in canonical form.
func (r *ExcludedDomainRepo) Add(
	ctx context.Context,
	req model.CreateExcludedDomainRequest,
) (*model.ExcludedDomain, error) {
	domain := hostname.Canonical(req.Domain)
	if domain == "" {
		return nil, errors.New("domain is required")
	}

	var entry model.ExcludedDomain
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO excluded_domains (domain, reason)
			VALUES ($1, $2)
			RETURNING `+excludedDomainColumns,
			domain, strings.TrimSpace(req.Reason))
		if err != nil {
			return err
		}
		entry, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.ExcludedDomain])
		return err
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, ErrExcludedDomainExists
		}
		return nil, fmt.Errorf("add excluded domain: %w", err)
	}
	return &entry, nil
}

// Delete removes a domain from the exclusion list. Returns false if it was not present.
func (r *ExcludedDomainRepo) Delete(ctx context.Context, domain string) (bool, error) {
	domain = hostname.Canonical(domain)
	if domain == "" {
		return false, errors.New("domain is required")
	}
	res, err := r.DB.ExecContext(ctx, `DELETE FROM excluded_domains WHERE domain = $1`, domain)
	if err != nil {
		return false, fmt.Errorf("delete excluded domain: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
