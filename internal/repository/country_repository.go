package repository

import (
	"context"
	"fmt"

	"freight-enquiry-importer/internal/db"
	"freight-enquiry-importer/internal/domain"

	"github.com/jackc/pgx/v5/pgtype"
)

// countryRepository implements CountryRepository over raw SQL.
type countryRepository struct {
	q db.DBTX
}

// NewCountryRepository creates a new country repository bound to a pool,
// transaction, or import session.
func NewCountryRepository(q db.DBTX) CountryRepository {
	return &countryRepository{q: q}
}

// LoadAll reads every country row, used to warm the resolver cache at the
// start of an import run.
func (r *countryRepository) LoadAll(ctx context.Context) ([]domain.Country, error) {
	rows, err := r.q.Query(
		ctx,
		`SELECT id, country_code, country_name_en, country_name_cn
		 FROM country
		 ORDER BY country_code`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load countries: %w", err)
	}
	defer rows.Close()

	var countries []domain.Country
	for rows.Next() {
		var (
			country domain.Country
			nameCN  pgtype.Text
		)
		if err := rows.Scan(&country.ID, &country.Code, &country.NameEN, &nameCN); err != nil {
			return nil, fmt.Errorf("failed to scan country: %w", err)
		}
		if nameCN.Valid {
			country.NameCN = nameCN.String
		}
		countries = append(countries, country)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate countries: %w", err)
	}

	return countries, nil
}

// CodeExists probes for a country code collision before a derived code is
// assigned to a new row.
func (r *countryRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM country WHERE country_code = $1)`,
		code,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check country code: %w", err)
	}
	return exists, nil
}

// Create inserts a new country and returns its generated id.
func (r *countryRepository) Create(ctx context.Context, country domain.Country) (int64, error) {
	var id int64
	err := r.q.QueryRow(
		ctx,
		`INSERT INTO country (country_code, country_name_en, country_name_cn)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		country.Code,
		country.NameEN,
		nullString(country.NameCN),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create country: %w", err)
	}
	return id, nil
}

// Upsert inserts a country or refreshes its descriptive names when the code
// already exists. Identity never changes.
func (r *countryRepository) Upsert(ctx context.Context, country domain.Country) error {
	_, err := r.q.Exec(
		ctx,
		`INSERT INTO country (country_code, country_name_en, country_name_cn)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (country_code) DO UPDATE SET
		     country_name_en = EXCLUDED.country_name_en,
		     country_name_cn = EXCLUDED.country_name_cn,
		     updated_at = now()`,
		country.Code,
		country.NameEN,
		nullString(country.NameCN),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert country: %w", err)
	}
	return nil
}

// nullString maps "" to SQL NULL for optional text columns.
func nullString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
