package repository

import (
	"context"
	"fmt"

	"freight-enquiry-importer/internal/db"
	"freight-enquiry-importer/internal/domain"

	"github.com/jackc/pgx/v5/pgtype"
)

// salesOfficeRepository implements SalesOfficeRepository over raw SQL.
type salesOfficeRepository struct {
	q db.DBTX
}

// NewSalesOfficeRepository creates a new sales office repository.
func NewSalesOfficeRepository(q db.DBTX) SalesOfficeRepository {
	return &salesOfficeRepository{q: q}
}

// LoadAll reads every sales office row for the resolver cache.
func (r *salesOfficeRepository) LoadAll(ctx context.Context) ([]domain.SalesOffice, error) {
	rows, err := r.q.Query(
		ctx,
		`SELECT id, code, name, name_norm, country_code
		 FROM sales_office
		 ORDER BY name_norm`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales offices: %w", err)
	}
	defer rows.Close()

	var offices []domain.SalesOffice
	for rows.Next() {
		var (
			office      domain.SalesOffice
			code        pgtype.Text
			countryCode pgtype.Text
		)
		if err := rows.Scan(&office.ID, &code, &office.Name, &office.NameNorm, &countryCode); err != nil {
			return nil, fmt.Errorf("failed to scan sales office: %w", err)
		}
		if code.Valid {
			office.Code = code.String
		}
		if countryCode.Valid {
			office.CountryCode = countryCode.String
		}
		offices = append(offices, office)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sales offices: %w", err)
	}

	return offices, nil
}

// Create inserts a new sales office and returns its generated id.
func (r *salesOfficeRepository) Create(ctx context.Context, office domain.SalesOffice) (int64, error) {
	var id int64
	err := r.q.QueryRow(
		ctx,
		`INSERT INTO sales_office (code, name, name_norm, country_code)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		nullString(office.Code),
		office.Name,
		office.NameNorm,
		nullString(office.CountryCode),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create sales office: %w", err)
	}
	return id, nil
}

// Upsert inserts a sales office or refreshes its descriptive columns when the
// normalized name already exists.
func (r *salesOfficeRepository) Upsert(ctx context.Context, office domain.SalesOffice) error {
	_, err := r.q.Exec(
		ctx,
		`INSERT INTO sales_office (code, name, name_norm, country_code)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (name_norm) DO UPDATE SET
		     code = EXCLUDED.code,
		     name = EXCLUDED.name,
		     country_code = EXCLUDED.country_code,
		     updated_at = now()`,
		nullString(office.Code),
		office.Name,
		office.NameNorm,
		nullString(office.CountryCode),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert sales office: %w", err)
	}
	return nil
}

// salesPICRepository implements SalesPICRepository over raw SQL.
type salesPICRepository struct {
	q db.DBTX
}

// NewSalesPICRepository creates a new sales contact repository.
func NewSalesPICRepository(q db.DBTX) SalesPICRepository {
	return &salesPICRepository{q: q}
}

// Upsert inserts a sales contact or re-points it at its current office.
func (r *salesPICRepository) Upsert(ctx context.Context, pic domain.SalesPIC) error {
	_, err := r.q.Exec(
		ctx,
		`INSERT INTO sales_pic (name, name_norm, country_code, sales_office_id)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (country_code, name_norm) DO UPDATE SET
		     name = EXCLUDED.name,
		     sales_office_id = EXCLUDED.sales_office_id`,
		pic.Name,
		pic.NameNorm,
		nullString(pic.CountryCode),
		pic.SalesOfficeID,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert sales pic: %w", err)
	}
	return nil
}

// categoryRepository implements CategoryRepository over raw SQL.
type categoryRepository struct {
	q db.DBTX
}

// NewCategoryRepository creates a new category repository.
func NewCategoryRepository(q db.DBTX) CategoryRepository {
	return &categoryRepository{q: q}
}

// LoadAll reads the category dictionary in code order. The resolver's fuzzy
// match walks entries in this order, so load order is the tie-break.
func (r *categoryRepository) LoadAll(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.q.Query(
		ctx,
		`SELECT code, name, name_norm FROM category ORDER BY code`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(&category.Code, &category.Name, &category.NameNorm); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}

	return categories, nil
}
