package repository

import (
	"context"
	"fmt"

	"freight-enquiry-importer/internal/db"
	"freight-enquiry-importer/internal/domain"

	"github.com/jackc/pgx/v5/pgtype"
)

// portRepository implements PortRepository over raw SQL.
type portRepository struct {
	q db.DBTX
}

// NewPortRepository creates a new port repository.
func NewPortRepository(q db.DBTX) PortRepository {
	return &portRepository{q: q}
}

// LoadAll reads every port row for the resolver cache.
func (r *portRepository) LoadAll(ctx context.Context) ([]domain.Port, error) {
	rows, err := r.q.Query(
		ctx,
		`SELECT id, port_code, port_name, port_type, country_id, city
		 FROM port
		 ORDER BY port_code`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load ports: %w", err)
	}
	defer rows.Close()

	var ports []domain.Port
	for rows.Next() {
		var (
			port      domain.Port
			countryID pgtype.Int8
			city      pgtype.Text
		)
		if err := rows.Scan(&port.ID, &port.Code, &port.Name, &port.Type, &countryID, &city); err != nil {
			return nil, fmt.Errorf("failed to scan port: %w", err)
		}
		if countryID.Valid {
			value := countryID.Int64
			port.CountryID = &value
		}
		if city.Valid {
			port.City = city.String
		}
		ports = append(ports, port)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ports: %w", err)
	}

	return ports, nil
}

// Create inserts a new port and returns its generated id.
func (r *portRepository) Create(ctx context.Context, port domain.Port) (int64, error) {
	var id int64
	err := r.q.QueryRow(
		ctx,
		`INSERT INTO port (port_code, port_name, port_type, country_id, city)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		port.Code,
		port.Name,
		port.Type,
		port.CountryID,
		nullString(port.City),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create port: %w", err)
	}
	return id, nil
}

// Upsert inserts a port or refreshes its descriptive columns when the
// (code, type) pair already exists.
func (r *portRepository) Upsert(ctx context.Context, port domain.Port) error {
	_, err := r.q.Exec(
		ctx,
		`INSERT INTO port (port_code, port_name, port_type, country_id, city)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (port_code, port_type) DO UPDATE SET
		     port_name = EXCLUDED.port_name,
		     country_id = EXCLUDED.country_id,
		     city = EXCLUDED.city,
		     updated_at = now()`,
		port.Code,
		port.Name,
		port.Type,
		port.CountryID,
		nullString(port.City),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert port: %w", err)
	}
	return nil
}
