package importer

import (
	"context"
	"io"

	"freight-enquiry-importer/internal/db"
	"freight-enquiry-importer/internal/domain"
	"freight-enquiry-importer/internal/repository"
	"freight-enquiry-importer/internal/resolver"
)

// Runner constructs a fresh pipeline per run. The resolver caches and the
// batch session belong to exactly one run and are discarded with it.
type Runner struct {
	conn      *db.Connection
	batchSize int
}

// NewRunner creates a runner over the shared connection pool.
func NewRunner(conn *db.Connection, batchSize int) *Runner {
	return &Runner{conn: conn, batchSize: batchSize}
}

// ImportEnquiries runs one enquiry tracker load over a dedicated session.
func (r *Runner) ImportEnquiries(ctx context.Context, sourceName string, data io.Reader) (domain.RunReport, error) {
	session, err := db.NewSession(ctx, r.conn.Pool)
	if err != nil {
		return domain.NewRunReport(sourceName), err
	}
	defer session.Close(ctx)

	res := resolver.New(
		repository.NewCountryRepository(session),
		repository.NewPortRepository(session),
		repository.NewSalesOfficeRepository(session),
		repository.NewCategoryRepository(session),
		session,
	)

	// Row errors are logged through the pool so they survive a rolled-back
	// batch.
	run := NewEnquiryImport(
		res,
		repository.NewEnquiryRepository(session),
		repository.NewOfferRepository(session),
		repository.NewImportLogRepository(r.conn.Pool),
		session,
		r.batchSize,
	)

	return run.Run(ctx, sourceName, data)
}

// ImportMaster runs a master-data load. Upserts are idempotent, so these run
// in plain autocommit statements against the pool.
func (r *Runner) ImportMaster(ctx context.Context, src MasterSources) (domain.MasterReport, error) {
	m := NewMasterImport(
		repository.NewCountryRepository(r.conn.Pool),
		repository.NewPortRepository(r.conn.Pool),
		repository.NewSalesOfficeRepository(r.conn.Pool),
		repository.NewSalesPICRepository(r.conn.Pool),
	)
	return m.Run(ctx, src)
}
