package repository

import (
	"context"

	"freight-enquiry-importer/internal/domain"

	"github.com/google/uuid"
)

// CountryRepository defines the interface for country dimension operations
type CountryRepository interface {
	LoadAll(ctx context.Context) ([]domain.Country, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, country domain.Country) (int64, error)
	Upsert(ctx context.Context, country domain.Country) error
}

// PortRepository defines the interface for port dimension operations
type PortRepository interface {
	LoadAll(ctx context.Context) ([]domain.Port, error)
	Create(ctx context.Context, port domain.Port) (int64, error)
	Upsert(ctx context.Context, port domain.Port) error
}

// SalesOfficeRepository defines the interface for sales office operations
type SalesOfficeRepository interface {
	LoadAll(ctx context.Context) ([]domain.SalesOffice, error)
	Create(ctx context.Context, office domain.SalesOffice) (int64, error)
	Upsert(ctx context.Context, office domain.SalesOffice) error
}

// SalesPICRepository defines the interface for sales contact operations
type SalesPICRepository interface {
	Upsert(ctx context.Context, pic domain.SalesPIC) error
}

// CategoryRepository defines the interface for category dictionary lookups
type CategoryRepository interface {
	LoadAll(ctx context.Context) ([]domain.Category, error)
}

// EnquiryRepository defines the interface for enquiry fact rows
type EnquiryRepository interface {
	Insert(ctx context.Context, enquiry domain.Enquiry) (int64, error)
	List(ctx context.Context, limit, offset int) ([]domain.Enquiry, error)
}

// OfferRepository defines the interface for offer fact rows
type OfferRepository interface {
	Insert(ctx context.Context, offer domain.Offer) (int64, error)
	DemoteLatest(ctx context.Context, enquiryID int64, sequenceNo int) error
}

// ImportLogRepository persists row-level import failures for later review
type ImportLogRepository interface {
	Record(ctx context.Context, entry domain.ImportLogEntry) error
	List(ctx context.Context, runID uuid.UUID, limit, offset int) ([]domain.ImportLogEntry, error)
}
