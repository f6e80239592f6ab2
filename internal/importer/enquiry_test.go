package importer

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"testing"

	"freight-enquiry-importer/internal/domain"
	"freight-enquiry-importer/internal/repository"
	"freight-enquiry-importer/internal/resolver"

	"github.com/google/uuid"
)

// --- stubs -----------------------------------------------------------------

type stubCountryRepo struct {
	rows   []domain.Country
	codes  map[string]bool
	nextID int64
}

func newStubCountryRepo() *stubCountryRepo {
	return &stubCountryRepo{codes: make(map[string]bool)}
}

func (s *stubCountryRepo) LoadAll(ctx context.Context) ([]domain.Country, error) {
	return s.rows, nil
}

func (s *stubCountryRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	return s.codes[code], nil
}

func (s *stubCountryRepo) Create(ctx context.Context, country domain.Country) (int64, error) {
	s.nextID++
	country.ID = s.nextID
	s.rows = append(s.rows, country)
	s.codes[country.Code] = true
	return country.ID, nil
}

func (s *stubCountryRepo) Upsert(ctx context.Context, country domain.Country) error {
	for i, row := range s.rows {
		if row.Code == country.Code {
			country.ID = row.ID
			s.rows[i] = country
			return nil
		}
	}
	s.nextID++
	country.ID = s.nextID
	s.rows = append(s.rows, country)
	s.codes[country.Code] = true
	return nil
}

type stubPortRepo struct {
	rows   []domain.Port
	nextID int64
}

func (s *stubPortRepo) LoadAll(ctx context.Context) ([]domain.Port, error) { return s.rows, nil }

func (s *stubPortRepo) Create(ctx context.Context, port domain.Port) (int64, error) {
	s.nextID++
	port.ID = s.nextID
	s.rows = append(s.rows, port)
	return port.ID, nil
}

func (s *stubPortRepo) Upsert(ctx context.Context, port domain.Port) error {
	for i, row := range s.rows {
		if row.Code == port.Code && row.Type == port.Type {
			port.ID = row.ID
			s.rows[i] = port
			return nil
		}
	}
	s.nextID++
	port.ID = s.nextID
	s.rows = append(s.rows, port)
	return nil
}

type stubOfficeRepo struct {
	rows   []domain.SalesOffice
	nextID int64
}

func (s *stubOfficeRepo) LoadAll(ctx context.Context) ([]domain.SalesOffice, error) {
	return s.rows, nil
}

func (s *stubOfficeRepo) Create(ctx context.Context, office domain.SalesOffice) (int64, error) {
	s.nextID++
	office.ID = s.nextID
	s.rows = append(s.rows, office)
	return office.ID, nil
}

func (s *stubOfficeRepo) Upsert(ctx context.Context, office domain.SalesOffice) error {
	for i, row := range s.rows {
		if row.NameNorm == office.NameNorm {
			office.ID = row.ID
			s.rows[i] = office
			return nil
		}
	}
	s.nextID++
	office.ID = s.nextID
	s.rows = append(s.rows, office)
	return nil
}

type stubPICRepo struct {
	rows []domain.SalesPIC
}

func (s *stubPICRepo) Upsert(ctx context.Context, pic domain.SalesPIC) error {
	s.rows = append(s.rows, pic)
	return nil
}

type stubCategoryRepo struct {
	rows []domain.Category
}

func (s *stubCategoryRepo) LoadAll(ctx context.Context) ([]domain.Category, error) {
	return s.rows, nil
}

// stubEnquiryRepo records inserts; failOnReference makes the matching row's
// insert fail, simulating a constraint violation.
type stubEnquiryRepo struct {
	rows            []domain.Enquiry
	nextID          int64
	failOnReference string
}

func (s *stubEnquiryRepo) Insert(ctx context.Context, enquiry domain.Enquiry) (int64, error) {
	if s.failOnReference != "" && enquiry.ReferenceNumber == s.failOnReference {
		return 0, fmt.Errorf("duplicate key value violates unique constraint")
	}
	s.nextID++
	enquiry.ID = s.nextID
	s.rows = append(s.rows, enquiry)
	return enquiry.ID, nil
}

func (s *stubEnquiryRepo) List(ctx context.Context, limit, offset int) ([]domain.Enquiry, error) {
	return s.rows, nil
}

type stubOfferRepo struct {
	rows   []domain.Offer
	nextID int64
}

func (s *stubOfferRepo) Insert(ctx context.Context, offer domain.Offer) (int64, error) {
	s.nextID++
	offer.ID = s.nextID
	s.rows = append(s.rows, offer)
	return offer.ID, nil
}

func (s *stubOfferRepo) DemoteLatest(ctx context.Context, enquiryID int64, sequenceNo int) error {
	for i, offer := range s.rows {
		if offer.EnquiryID == enquiryID && offer.SequenceNo == sequenceNo {
			s.rows[i].IsLatest = false
		}
	}
	return nil
}

type stubLogRepo struct {
	entries []domain.ImportLogEntry
}

func (s *stubLogRepo) Record(ctx context.Context, entry domain.ImportLogEntry) error {
	s.entries = append(s.entries, entry)
	return nil
}

func (s *stubLogRepo) List(ctx context.Context, runID uuid.UUID, limit, offset int) ([]domain.ImportLogEntry, error) {
	return s.entries, nil
}

// stubBatch counts transaction boundary calls. Savepoints run the callback
// directly; a failed callback stands in for a rolled-back savepoint.
type stubBatch struct {
	begins    int
	commits   int
	rollbacks int
	commitErr error
}

func (s *stubBatch) Begin(ctx context.Context) error { s.begins++; return nil }

func (s *stubBatch) Commit(ctx context.Context) error {
	s.commits++
	return s.commitErr
}

func (s *stubBatch) Rollback(ctx context.Context) error { s.rollbacks++; return nil }

func (s *stubBatch) WithSavepoint(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// --- harness ---------------------------------------------------------------

type importHarness struct {
	imp       *EnquiryImport
	enquiries *stubEnquiryRepo
	offers    *stubOfferRepo
	logs      *stubLogRepo
	batch     *stubBatch
	resolver  *resolver.Resolver
}

func newImportHarness(batchSize int) *importHarness {
	res := resolver.New(newStubCountryRepo(), &stubPortRepo{}, &stubOfficeRepo{}, &stubCategoryRepo{}, nil)
	h := &importHarness{
		enquiries: &stubEnquiryRepo{},
		offers:    &stubOfferRepo{},
		logs:      &stubLogRepo{},
		batch:     &stubBatch{},
		resolver:  res,
	}
	h.imp = NewEnquiryImport(res, h.enquiries, h.offers, h.logs, h.batch, batchSize)
	return h
}

var _ repository.EnquiryRepository = (*stubEnquiryRepo)(nil)
var _ repository.OfferRepository = (*stubOfferRepo)(nil)
var _ repository.ImportLogRepository = (*stubLogRepo)(nil)
var _ BatchController = (*stubBatch)(nil)

// makeRow builds a full-width tracker row from sparse cell values.
func makeRow(cells map[int]string) []string {
	row := make([]string, columnCount)
	for idx, value := range cells {
		row[idx] = value
	}
	return row
}

// trackerCSV renders header padding plus the given data rows as the tracker
// export format: two non-data rows, then one row per enquiry.
func trackerCSV(t *testing.T, dataRows ...[]string) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	title := make([]string, columnCount)
	title[0] = "CN Freight Enquiry Tracker"
	header := make([]string, columnCount)
	header[colReferenceNumber] = "Reference\nNumber"
	if err := w.WriteAll(append([][]string{title, header}, dataRows...)); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	w.Flush()
	return &buf
}

func validOceanRow() map[int]string {
	return map[int]string{
		colEnquiryReceivedDate: "01/02/2024",
		colIssueDate:           "02/02/2024",
		colReferenceNumber:     "CN2402001-S1",
		colProduct:             "SEA",
		colSalesCountry:        "France",
		colSalesOffice:         "Paris Office",
		colAssignedCNOffices:   "Shanghai",
		colCargoType:           "FCL",
		colPOL:                 "Shanghai",
		colPOD:                 "Le Havre",
		colPODCountry:          "France",
		colFirstQuotationSent:  "05/02/2024",
		colFirstOfferOcean:     "USD 1,200",
		colLatestOfferOcean:    "USD 1,100 all-in",
	}
}

func validAirRow() map[int]string {
	return map[int]string{
		colEnquiryReceivedDate: "03/02/2024",
		colIssueDate:           "04/02/2024",
		colReferenceNumber:     "CN2402002-A1",
		colProduct:             "AIR",
		colSalesCountry:        "Germany",
		colSalesOffice:         "Hamburg",
		colCargoType:           "AIR",
		colPOL:                 "PVG",
		colPOD:                 "FRA",
		colFirstQuotationSent:  "06/02/2024",
		colFirstOfferAir:       "USD 980 approx",
	}
}

// --- tests -----------------------------------------------------------------

func TestEnquiryImportEndToEnd(t *testing.T) {
	missingRef := validAirRow()
	delete(missingRef, colReferenceNumber)

	h := newImportHarness(0)
	src := trackerCSV(t,
		makeRow(validOceanRow()),
		makeRow(validAirRow()),
		makeRow(missingRef),
	)

	report, err := h.imp.Run(context.Background(), "tracker.csv", src)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.Total != 3 || report.Success != 2 || report.Failed != 1 {
		t.Fatalf("report = total %d / success %d / failed %d, want 3/2/1",
			report.Total, report.Success, report.Failed)
	}
	if report.OffersCreated != 3 {
		t.Fatalf("OffersCreated = %d, want 3", report.OffersCreated)
	}
	if len(report.Errors) != 1 {
		t.Fatalf("errors = %+v, want exactly one", report.Errors)
	}
	if report.Errors[0].Row != 5 {
		t.Fatalf("error row = %d, want physical row 5", report.Errors[0].Row)
	}
	if !strings.Contains(report.Errors[0].Message, "reference number") {
		t.Fatalf("error message = %q, want reference-number failure", report.Errors[0].Message)
	}

	if len(h.enquiries.rows) != 2 {
		t.Fatalf("persisted %d enquiries, want 2", len(h.enquiries.rows))
	}
	if len(h.offers.rows) != 3 {
		t.Fatalf("persisted %d offers, want 3", len(h.offers.rows))
	}

	// The ocean enquiry's first offer is demoted once the latest one lands.
	ocean := h.enquiries.rows[0]
	var oceanOffers []domain.Offer
	for _, offer := range h.offers.rows {
		if offer.EnquiryID == ocean.ID {
			oceanOffers = append(oceanOffers, offer)
		}
	}
	if len(oceanOffers) != 2 {
		t.Fatalf("ocean enquiry has %d offers, want 2", len(oceanOffers))
	}
	if oceanOffers[0].SequenceNo != 1 || oceanOffers[0].IsLatest {
		t.Fatalf("first ocean offer = %+v, want sequence 1 demoted", oceanOffers[0])
	}
	if oceanOffers[1].SequenceNo != 2 || !oceanOffers[1].IsLatest {
		t.Fatalf("latest ocean offer = %+v, want sequence 2 latest", oceanOffers[1])
	}
	if oceanOffers[0].Price == nil || *oceanOffers[0].Price != 1200 {
		t.Fatalf("first ocean price = %v, want 1200", oceanOffers[0].Price)
	}
	if oceanOffers[1].Price == nil || *oceanOffers[1].Price != 1100 {
		t.Fatalf("latest ocean price = %v, want 1100", oceanOffers[1].Price)
	}

	// The air enquiry keeps a single latest offer with its parsed price.
	air := h.enquiries.rows[1]
	var airOffers []domain.Offer
	for _, offer := range h.offers.rows {
		if offer.EnquiryID == air.ID {
			airOffers = append(airOffers, offer)
		}
	}
	if len(airOffers) != 1 {
		t.Fatalf("air enquiry has %d offers, want 1", len(airOffers))
	}
	if !airOffers[0].IsLatest || airOffers[0].Price == nil || *airOffers[0].Price != 980 {
		t.Fatalf("air offer = %+v, want latest with price 980", airOffers[0])
	}

	// The failed row lands in the import log with the run id.
	if len(h.logs.entries) != 1 {
		t.Fatalf("import log has %d entries, want 1", len(h.logs.entries))
	}
	entry := h.logs.entries[0]
	if entry.RunID != report.RunID {
		t.Fatalf("log run id = %s, want %s", entry.RunID, report.RunID)
	}
	if entry.RowNumber == nil || *entry.RowNumber != 5 {
		t.Fatalf("log row = %v, want 5", entry.RowNumber)
	}
}

func TestEnquiryImportDerivedDefaults(t *testing.T) {
	row := map[int]string{
		colEnquiryReceivedDate: "01/03/2024",
		colIssueDate:           "02/03/2024",
		colReferenceNumber:     "ENQ-TEST", // does not match the reference pattern
	}

	h := newImportHarness(0)
	report, err := h.imp.Run(context.Background(), "tracker.csv", trackerCSV(t, makeRow(row)))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Success != 1 {
		t.Fatalf("report = %+v, want one success", report)
	}

	enquiry := h.enquiries.rows[0]
	if enquiry.ProductCode != "AIR" {
		t.Fatalf("product = %q, want AIR default", enquiry.ProductCode)
	}
	if enquiry.CargoTypeCode != "AIR" {
		t.Fatalf("cargo type = %q, want AIR default", enquiry.CargoTypeCode)
	}
	if enquiry.CNPricingAdmin != "System" {
		t.Fatalf("admin = %q, want System default", enquiry.CNPricingAdmin)
	}
	if enquiry.AssignedCNOffice != "SHANGHAI" {
		t.Fatalf("assigned office = %q, want SHANGHAI fallback", enquiry.AssignedCNOffice)
	}
	if enquiry.ReferenceMonth != "2403" {
		t.Fatalf("reference month = %q, want issue-date derived 2403", enquiry.ReferenceMonth)
	}
	if enquiry.MonthlySequence != 1 {
		t.Fatalf("monthly sequence = %d, want 1", enquiry.MonthlySequence)
	}
	if enquiry.ProductAbbr != "A" {
		t.Fatalf("product abbr = %q, want first rune of product", enquiry.ProductAbbr)
	}
	if enquiry.Status != "New" {
		t.Fatalf("status = %q, want New default", enquiry.Status)
	}
	if enquiry.BookingConfirmed != "Pending" {
		t.Fatalf("booking = %q, want Pending default", enquiry.BookingConfirmed)
	}
	if enquiry.OfferType != "AIR" {
		t.Fatalf("offer type = %q, want AIR", enquiry.OfferType)
	}
}

func TestEnquiryImportParsedReferenceFields(t *testing.T) {
	h := newImportHarness(0)
	_, err := h.imp.Run(context.Background(), "tracker.csv", trackerCSV(t, makeRow(validOceanRow())))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	enquiry := h.enquiries.rows[0]
	if enquiry.ReferenceMonth != "2402" {
		t.Fatalf("reference month = %q, want 2402", enquiry.ReferenceMonth)
	}
	if enquiry.MonthlySequence != 1 {
		t.Fatalf("monthly sequence = %d, want 1", enquiry.MonthlySequence)
	}
	if enquiry.ProductAbbr != "S" {
		t.Fatalf("product abbr = %q, want S", enquiry.ProductAbbr)
	}
	if enquiry.SerialNumber != 1 {
		t.Fatalf("serial = %d, want 1", enquiry.SerialNumber)
	}
	if enquiry.OfferType != "OCEAN" {
		t.Fatalf("offer type = %q, want OCEAN", enquiry.OfferType)
	}
}

func TestEnquiryImportUnparseableDateFailsRow(t *testing.T) {
	row := validAirRow()
	row[colIssueDate] = "sometime soon"

	h := newImportHarness(0)
	report, err := h.imp.Run(context.Background(), "tracker.csv", trackerCSV(t, makeRow(row)))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Failed != 1 || report.Success != 0 {
		t.Fatalf("report = %+v, want the row rejected", report)
	}
	if !strings.Contains(report.Errors[0].Message, "sometime soon") {
		t.Fatalf("error message = %q, want raw date text included", report.Errors[0].Message)
	}
	if len(h.enquiries.rows) != 0 {
		t.Fatalf("persisted %d enquiries, want 0", len(h.enquiries.rows))
	}
}

func TestEnquiryImportBlankRowsNotCounted(t *testing.T) {
	h := newImportHarness(0)
	src := trackerCSV(t,
		makeRow(nil),
		makeRow(validAirRow()),
		makeRow(nil),
	)

	report, err := h.imp.Run(context.Background(), "tracker.csv", src)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Total != 1 || report.Success != 1 {
		t.Fatalf("report = %+v, want one counted row", report)
	}
}

func TestEnquiryImportRowFailureDoesNotEndRun(t *testing.T) {
	h := newImportHarness(0)
	h.enquiries.failOnReference = "CN2402002-A1"

	src := trackerCSV(t, makeRow(validOceanRow()), makeRow(validAirRow()))
	report, err := h.imp.Run(context.Background(), "tracker.csv", src)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.Success != 1 || report.Failed != 1 {
		t.Fatalf("report = %+v, want 1 success and 1 failure", report)
	}
	if report.Errors[0].Row != 4 {
		t.Fatalf("error row = %d, want 4", report.Errors[0].Row)
	}
	if h.batch.commits != 1 {
		t.Fatalf("commits = %d, want the run to finish normally", h.batch.commits)
	}
}

func TestEnquiryImportBatchBoundaries(t *testing.T) {
	h := newImportHarness(2)
	src := trackerCSV(t,
		makeRow(validAirRow()),
		makeRow(validAirRow()),
		makeRow(validAirRow()),
		makeRow(validAirRow()),
		makeRow(validAirRow()),
	)

	if _, err := h.imp.Run(context.Background(), "tracker.csv", src); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Five rows at batch size two: commits after rows 2 and 4, plus the final
	// commit, with a fresh batch begun after each intermediate commit.
	if h.batch.commits != 3 {
		t.Fatalf("commits = %d, want 3", h.batch.commits)
	}
	if h.batch.begins != 3 {
		t.Fatalf("begins = %d, want 3", h.batch.begins)
	}
	if h.batch.rollbacks != 0 {
		t.Fatalf("rollbacks = %d, want 0", h.batch.rollbacks)
	}
}

func TestEnquiryImportCommitFailureRollsBack(t *testing.T) {
	h := newImportHarness(0)
	h.batch.commitErr = errors.New("connection reset")

	report, err := h.imp.Run(context.Background(), "tracker.csv", trackerCSV(t, makeRow(validAirRow())))
	if err == nil {
		t.Fatalf("expected commit failure to surface")
	}
	if h.batch.rollbacks != 1 {
		t.Fatalf("rollbacks = %d, want 1", h.batch.rollbacks)
	}

	// The failure report still tallies the dimensions created before the
	// batch broke down.
	if report.CountriesCreated != 1 {
		t.Fatalf("countries created = %d, want 1", report.CountriesCreated)
	}
	if report.SalesOfficesCreated != 1 {
		t.Fatalf("offices created = %d, want 1", report.SalesOfficesCreated)
	}
	if report.PortsCreated != 2 {
		t.Fatalf("ports created = %d, want 2", report.PortsCreated)
	}
}

func TestEnquiryImportRejectsUnknownFormat(t *testing.T) {
	h := newImportHarness(0)
	_, err := h.imp.Run(context.Background(), "tracker.txt", strings.NewReader("not a sheet"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestEnquiryImportEmptySource(t *testing.T) {
	h := newImportHarness(0)
	if _, err := h.imp.Run(context.Background(), "tracker.csv", strings.NewReader("")); err == nil {
		t.Fatalf("expected empty source to fail")
	}
}

func TestEnquiryImportSharedDimensionsResolveOnce(t *testing.T) {
	h := newImportHarness(0)
	src := trackerCSV(t, makeRow(validAirRow()), makeRow(validAirRow()))

	report, err := h.imp.Run(context.Background(), "tracker.csv", src)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Both rows share country, office and ports; each dimension row is created
	// exactly once and served from cache afterwards.
	if report.CountriesCreated != 1 {
		t.Fatalf("countries created = %d, want 1", report.CountriesCreated)
	}
	if report.SalesOfficesCreated != 1 {
		t.Fatalf("offices created = %d, want 1", report.SalesOfficesCreated)
	}
	if report.PortsCreated != 2 {
		t.Fatalf("ports created = %d, want 2 (POL and POD)", report.PortsCreated)
	}
}
