// Package importer drives bulk loads of the freight-enquiry tracker and its
// master-reference files into the relational schema. Runs are strictly
// sequential: one row at a time, with per-row error isolation and batched
// commits, so a malformed row never aborts a run and an interrupted run keeps
// every batch committed before the failure.
package importer

import (
	"context"
	"fmt"
	"io"
	"log"

	"freight-enquiry-importer/internal/domain"
	"freight-enquiry-importer/internal/normalize"
	"freight-enquiry-importer/internal/repository"
	"freight-enquiry-importer/internal/resolver"
)

// DefaultBatchSize is how many source rows share one commit. Batches bound
// lock and WAL growth and make partial progress durable.
const DefaultBatchSize = 1000

// BatchController is the transaction surface the orchestrator needs from the
// database session: explicit batch boundaries plus per-row savepoints.
// db.Session implements it.
type BatchController interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	WithSavepoint(ctx context.Context, fn func(context.Context) error) error
}

// EnquiryImport runs one enquiry tracker load. It exclusively owns the
// resolver's caches and the run report for the duration of the run.
type EnquiryImport struct {
	resolver  *resolver.Resolver
	enquiries repository.EnquiryRepository
	offers    repository.OfferRepository
	logs      repository.ImportLogRepository
	batch     BatchController
	batchSize int
}

// NewEnquiryImport wires an enquiry import run. logs may be nil when row
// errors should not be persisted.
func NewEnquiryImport(
	res *resolver.Resolver,
	enquiries repository.EnquiryRepository,
	offers repository.OfferRepository,
	logs repository.ImportLogRepository,
	batch BatchController,
	batchSize int,
) *EnquiryImport {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &EnquiryImport{
		resolver:  res,
		enquiries: enquiries,
		offers:    offers,
		logs:      logs,
		batch:     batch,
		batchSize: batchSize,
	}
}

// Run streams every data row of the tracker export through the import
// pipeline and returns the run report. Row-level problems are recorded and
// skipped; only session-level failures (a broken connection, a failed commit)
// end the run early, in which case the open batch is rolled back and rows
// committed in earlier batches stay persisted.
func (s *EnquiryImport) Run(ctx context.Context, sourceName string, data io.Reader) (domain.RunReport, error) {
	report := domain.NewRunReport(sourceName)

	payload, err := io.ReadAll(data)
	if err != nil {
		return report, fmt.Errorf("failed to read source: %w", err)
	}
	if len(payload) == 0 {
		return report, fmt.Errorf("source %s is empty", sourceName)
	}

	rows, err := readRows(sourceName, payload)
	if err != nil {
		return report, err
	}

	if err := s.resolver.Load(ctx); err != nil {
		return report, fmt.Errorf("failed to load dimension caches: %w", err)
	}
	countries, ports, offices, categories := s.resolver.CacheSizes()
	log.Printf("[IMPORT] caches loaded: %d countries, %d ports, %d offices, %d categories",
		countries, ports, offices, categories)

	var dataRows [][]string
	if len(rows) > headerRowCount {
		dataRows = rows[headerRowCount:]
	}

	if err := s.batch.Begin(ctx); err != nil {
		return report, err
	}

	processed := 0
	for i, row := range dataRows {
		if rowIsEmpty(row) {
			// Exports pad the sheet with blank rows; they carry no data and
			// are not counted.
			continue
		}

		rowNumber := headerRowCount + i + 1
		report.Total++

		offersCreated, rowErr := s.importRow(ctx, row)
		if rowErr != nil {
			report.AddError(rowNumber, rowErr.Error())
			s.logRowError(ctx, report, rowNumber, rowErr)
		} else {
			report.Success++
			report.OffersCreated += offersCreated
		}

		processed++
		if processed%s.batchSize == 0 {
			if err := s.batch.Commit(ctx); err != nil {
				return s.fail(ctx, report, err)
			}
			if err := s.batch.Begin(ctx); err != nil {
				return s.fail(ctx, report, err)
			}
			log.Printf("[IMPORT] %s: committed %d rows", sourceName, processed)
		}
	}

	if err := s.batch.Commit(ctx); err != nil {
		return s.fail(ctx, report, err)
	}

	s.recordCreated(&report)
	return report, nil
}

// fail rolls back the open batch and surfaces the session-level error. The
// report still carries the created-dimension tallies: batches committed before
// the failure keep their dimension rows.
func (s *EnquiryImport) fail(ctx context.Context, report domain.RunReport, err error) (domain.RunReport, error) {
	_ = s.batch.Rollback(ctx)
	s.recordCreated(&report)
	return report, err
}

func (s *EnquiryImport) recordCreated(report *domain.RunReport) {
	created := s.resolver.Created
	report.CountriesCreated = created.Countries
	report.PortsCreated = created.Ports
	report.SalesOfficesCreated = created.SalesOffices
}

// importRow validates, resolves, and persists one source row. The returned
// error is a row-level failure; it never ends the run.
func (s *EnquiryImport) importRow(ctx context.Context, row []string) (int, error) {
	referenceNumber := normalize.CleanString(field(row, colReferenceNumber))
	if referenceNumber == "" {
		return 0, fmt.Errorf("reference number is empty")
	}

	received := normalize.ParseDate(field(row, colEnquiryReceivedDate))
	issued := normalize.ParseDate(field(row, colIssueDate))
	if !received.Valid || !issued.Valid {
		return 0, fmt.Errorf("primary date unparseable (received %q, issued %q)", received.Raw, issued.Raw)
	}

	ref := normalize.ParseReference(referenceNumber)

	salesCountryID, err := s.resolver.Country(ctx, field(row, colSalesCountry))
	if err != nil {
		return 0, err
	}

	podCountryID := salesCountryID
	if normalize.CleanString(field(row, colPODCountry)) != "" {
		podCountryID, err = s.resolver.Country(ctx, field(row, colPODCountry))
		if err != nil {
			return 0, err
		}
	}

	salesOfficeID, err := s.resolver.SalesOffice(ctx, field(row, colSalesOffice))
	if err != nil {
		return 0, err
	}

	polID, err := s.resolver.Port(ctx, field(row, colPOL), nil)
	if err != nil {
		return 0, err
	}
	podID, err := s.resolver.Port(ctx, field(row, colPOD), &podCountryID)
	if err != nil {
		return 0, err
	}

	productCode := normalize.Upper(field(row, colProduct))
	if productCode == "" {
		productCode = "AIR"
	}
	cargoTypeCode := normalize.Upper(field(row, colCargoType))
	if cargoTypeCode == "" {
		cargoTypeCode = "AIR"
	}

	assignedCN := normalize.Upper(field(row, colAssignedCNOffices))
	if !knownCNOffices[assignedCN] {
		assignedCN = "SHANGHAI"
	}

	volume := normalize.ParseNumber(field(row, colVolumeCBM))
	quantity := normalize.ParseNumber(field(row, colQuantity))
	quantityTEU := normalize.ParseNumber(field(row, colQuantityTEU))
	cargoReady := normalize.ParseDate(field(row, colCargoReadyDate))

	quantityUnit := normalize.CleanString(field(row, colQuantityUnit))
	uomCode, uomKnown := normalize.QuantityUnit(quantityUnit)

	categoryCode, _ := s.resolver.CategoryCode(field(row, colCategory))

	admin := normalize.CleanString(field(row, colCNPricingAdmin))
	if admin == "" {
		admin = "System"
	}

	referenceMonth := ref.PeriodKey
	if referenceMonth == "" {
		referenceMonth = issued.Value.Format("0601")
	}
	monthlySequence := ref.Sequence
	if monthlySequence == 0 {
		monthlySequence = 1
	}
	productAbbr := ref.ProductAbbr
	if productAbbr == "" {
		productAbbr = string([]rune(productCode)[:1])
	}

	offerType := normalize.OfferTrack(cargoTypeCode)

	enquiry := domain.Enquiry{
		ReferenceNumber:       referenceNumber,
		ReceivedDate:          received.Value,
		IssueDate:             issued.Value,
		ReferenceMonth:        referenceMonth,
		MonthlySequence:       monthlySequence,
		SerialNumber:          ref.Serial,
		ProductCode:           productCode,
		ProductAbbr:           productAbbr,
		Status:                normalize.Status(field(row, colStatus)),
		CNPricingAdmin:        admin,
		SalesCountryID:        salesCountryID,
		SalesOfficeID:         salesOfficeID,
		SalesPIC:              normalize.CleanString(field(row, colSalesPIC)),
		AssignedCNOffice:      assignedCN,
		CargoTypeCode:         cargoTypeCode,
		Commodity:             normalize.CleanString(field(row, colCommodity)),
		HazSpecialEquipment:   normalize.CleanString(field(row, colHazSpecialEquipment)),
		POLID:                 polID,
		PODID:                 podID,
		PODCountryID:          podCountryID,
		CoreFlag:              normalize.CoreFlag(field(row, colCoreNonCore)),
		CategoryCode:          categoryCode,
		AdditionalRequirement: normalize.CleanString(field(row, colAdditionalRequirement)),
		BookingConfirmed:      normalize.BookingConfirmed(field(row, colBookingConfirmed)),
		Remark:                normalize.CleanString(field(row, colRemark)),
		RejectedReason:        normalize.CleanString(field(row, colRejectedReason)),
		ActualReason:          normalize.CleanString(field(row, colActualReason)),
		OfferType:             offerType,
	}

	// Parsed-or-raw pairs: the raw text is stored only when the parse failed.
	if volume.Valid {
		enquiry.VolumeCBM = &volume.Value
	} else {
		enquiry.VolumeRawText = volume.Raw
	}
	if quantity.Valid {
		enquiry.Quantity = &quantity.Value
	} else {
		enquiry.QuantityRawText = quantity.Raw
	}
	if quantityTEU.Valid {
		enquiry.QuantityTEU = &quantityTEU.Value
	} else {
		enquiry.QuantityTEURawText = quantityTEU.Raw
	}
	if uomKnown {
		enquiry.QuantityUOMCode = uomCode
	} else {
		enquiry.QuantityUOMRawText = quantityUnit
	}
	if cargoReady.Valid {
		value := cargoReady.Value
		enquiry.CargoReadyDate = &value
	} else {
		enquiry.CargoReadyRawText = cargoReady.Raw
	}

	// The fact row and its offers land atomically: a failure inside the
	// savepoint undoes the enquiry and any offer, never a partial row.
	offersCreated := 0
	err = s.batch.WithSavepoint(ctx, func(ctx context.Context) error {
		enquiryID, err := s.enquiries.Insert(ctx, enquiry)
		if err != nil {
			return err
		}

		offersCreated, err = s.insertOffers(ctx, enquiryID, offerType, row)
		return err
	})
	if err != nil {
		return 0, err
	}

	return offersCreated, nil
}

// insertOffers persists the first and, when present, the latest offer for an
// enquiry. The latest offer demotes the first one's is_latest flag.
func (s *EnquiryImport) insertOffers(ctx context.Context, enquiryID int64, offerType string, row []string) (int, error) {
	firstText := offerText(row, offerType, colFirstOfferOcean, colFirstOfferAir)
	if firstText == "" || firstText == "-" {
		return 0, nil
	}

	sent := normalize.ParseDate(field(row, colFirstQuotationSent))
	price := normalize.ParseNumber(firstText)

	first := domain.Offer{
		EnquiryID:  enquiryID,
		OfferType:  offerType,
		SequenceNo: 1,
		IsLatest:   true,
		PriceText:  firstText,
	}
	if sent.Valid {
		value := sent.Value
		first.SentDate = &value
	} else {
		first.SentDateRawText = sent.Raw
	}
	if price.Valid {
		first.Price = &price.Value
	}

	if _, err := s.offers.Insert(ctx, first); err != nil {
		return 0, err
	}
	created := 1

	latestText := offerText(row, offerType, colLatestOfferOcean, colLatestOfferAir)
	if latestText == "" || latestText == "-" {
		return created, nil
	}

	if err := s.offers.DemoteLatest(ctx, enquiryID, 1); err != nil {
		return created, err
	}

	latest := domain.Offer{
		EnquiryID:  enquiryID,
		OfferType:  offerType,
		SequenceNo: 2,
		IsLatest:   true,
		PriceText:  latestText,
	}
	if latestPrice := normalize.ParseNumber(latestText); latestPrice.Valid {
		latest.Price = &latestPrice.Value
	}

	if _, err := s.offers.Insert(ctx, latest); err != nil {
		return created, err
	}
	created++

	return created, nil
}

// offerText picks the offer cell for the enquiry's track. Enquiries on the
// OTHER track have no offer columns.
func offerText(row []string, offerType string, oceanCol, airCol int) string {
	switch offerType {
	case normalize.TrackOcean:
		return normalize.CleanString(field(row, oceanCol))
	case normalize.TrackAir:
		return normalize.CleanString(field(row, airCol))
	}
	return ""
}

// logRowError persists the failure when an import log repository is wired.
func (s *EnquiryImport) logRowError(ctx context.Context, report domain.RunReport, rowNumber int, err error) {
	if s.logs == nil {
		return
	}
	entry := domain.ImportLogEntry{
		RunID:        report.RunID,
		SourceFile:   report.Source,
		RowNumber:    &rowNumber,
		ErrorMessage: err.Error(),
	}
	if logErr := s.logs.Record(ctx, entry); logErr != nil {
		log.Printf("[IMPORT] failed to persist row error: %v", logErr)
	}
}
