package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strings"

	"freight-enquiry-importer/internal/domain"
	"freight-enquiry-importer/internal/normalize"
	"freight-enquiry-importer/internal/repository"
)

// Non-ISO country labels used in the sales sheet, mapped to the codes the
// country table carries.
var salesCountryCodes = map[string]string{
	"AGENTS":       "AGENTS",
	"OTHERS":       "OTHERS",
	"TBA":          "TBA",
	"FRANCE":       "FR",
	"UK":           "GB",
	"GERMANY":      "DE",
	"BELGIUM":      "BE",
	"NETHERLANDS":  "NL",
	"SWITZERLAND":  "CH",
	"CHINA":        "CN",
	"SOUTH_AFRICA": "ZA",
	"MOROCCO":      "MA",
	"USA":          "US",
	"GREECE":       "GR",
	"POLAND":       "PL",
}

// MasterSources holds the master-reference inputs; a nil reader skips that
// file.
type MasterSources struct {
	Countries io.Reader
	Airports  io.Reader
	Seaports  io.Reader
	Sales     io.Reader
}

// MasterImport loads master-reference data: countries, airports, seaports,
// and sales offices with their contacts. All writes are idempotent upserts,
// so re-running a load refreshes descriptive fields without duplicating rows.
type MasterImport struct {
	countries repository.CountryRepository
	ports     repository.PortRepository
	offices   repository.SalesOfficeRepository
	pics      repository.SalesPICRepository
}

// NewMasterImport wires a master-data load.
func NewMasterImport(
	countries repository.CountryRepository,
	ports repository.PortRepository,
	offices repository.SalesOfficeRepository,
	pics repository.SalesPICRepository,
) *MasterImport {
	return &MasterImport{countries: countries, ports: ports, offices: offices, pics: pics}
}

// Run imports the provided sources in dependency order: countries first,
// then the ports and sales data that reference them.
func (m *MasterImport) Run(ctx context.Context, src MasterSources) (domain.MasterReport, error) {
	report := domain.NewMasterReport()

	if src.Countries != nil {
		if err := m.importCountries(ctx, src.Countries, &report); err != nil {
			return report, err
		}
	}
	if src.Airports != nil {
		if err := m.importAirports(ctx, src.Airports, &report); err != nil {
			return report, err
		}
	}
	if src.Seaports != nil {
		if err := m.importSeaports(ctx, src.Seaports, &report); err != nil {
			return report, err
		}
	}
	if src.Sales != nil {
		if err := m.importSales(ctx, src.Sales, &report); err != nil {
			return report, err
		}
	}

	return report, nil
}

// importCountries loads the tab-delimited country list. Codes longer than two
// characters are junk rows in the source and are skipped.
func (m *MasterImport) importCountries(ctx context.Context, src io.Reader, report *domain.MasterReport) error {
	rows, err := readTabRows(src)
	if err != nil {
		return fmt.Errorf("failed to read country file: %w", err)
	}

	for i, row := range rows {
		code := strings.TrimSpace(strings.ReplaceAll(row["Code"], `"`, ""))
		nameEN := strings.TrimSpace(strings.ReplaceAll(row["Country"], `"`, ""))
		nameCN := strings.TrimSpace(row["Country (Chinese)"])

		if code == "" || nameEN == "" || len(code) > 2 {
			continue
		}

		country := domain.Country{Code: code, NameEN: nameEN, NameCN: nameCN}
		if err := m.countries.Upsert(ctx, country); err != nil {
			report.Errors = append(report.Errors, domain.RowError{Row: i + 2, Message: err.Error()})
			continue
		}
		report.Countries++
	}

	log.Printf("[MASTER] imported %d countries", report.Countries)
	return nil
}

// importAirports loads the airport list as ports of type AIR, resolving each
// airport's country by name.
func (m *MasterImport) importAirports(ctx context.Context, src io.Reader, report *domain.MasterReport) error {
	rows, err := readTabRows(src)
	if err != nil {
		return fmt.Errorf("failed to read airport file: %w", err)
	}

	countryIDsByName, _, err := m.countryLookups(ctx)
	if err != nil {
		return err
	}

	for i, row := range rows {
		countryName := strings.TrimSpace(strings.ReplaceAll(row["Country"], `"`, ""))
		city := strings.TrimSpace(row["City"])
		iataCode := strings.TrimSpace(row["IATA Code"])

		if iataCode == "" {
			continue
		}

		portName := iataCode
		if city != "" {
			portName = fmt.Sprintf("%s (%s)", city, iataCode)
		}

		port := domain.Port{
			Code: iataCode,
			Name: portName,
			Type: domain.PortTypeAir,
			City: city,
		}
		if id, ok := countryIDsByName[normalize.Upper(countryName)]; ok {
			countryID := id
			port.CountryID = &countryID
		}

		if err := m.ports.Upsert(ctx, port); err != nil {
			report.Errors = append(report.Errors, domain.RowError{Row: i + 2, Message: err.Error()})
			continue
		}
		report.Airports++
	}

	log.Printf("[MASTER] imported %d airports", report.Airports)
	return nil
}

// importSeaports loads the seaport list as ports of type SEA. The source
// repeats codes, so only the first occurrence of each code is kept.
func (m *MasterImport) importSeaports(ctx context.Context, src io.Reader, report *domain.MasterReport) error {
	rows, err := readTabRows(src)
	if err != nil {
		return fmt.Errorf("failed to read seaport file: %w", err)
	}

	_, countryIDsByCode, err := m.countryLookups(ctx)
	if err != nil {
		return err
	}

	seen := make(map[string]bool)
	for i, row := range rows {
		portCode := strings.TrimSpace(row["COD_SEAPORT"])
		portName := strings.TrimSpace(row["NOM"])
		countryCode := strings.TrimSpace(row["country code"])

		if portCode == "" || seen[portCode] {
			continue
		}
		seen[portCode] = true

		if len(countryCode) > 2 {
			countryCode = countryCode[:2]
		}

		port := domain.Port{
			Code: portCode,
			Name: portName,
			Type: domain.PortTypeSea,
		}
		if id, ok := countryIDsByCode[countryCode]; ok {
			countryID := id
			port.CountryID = &countryID
		}

		if err := m.ports.Upsert(ctx, port); err != nil {
			report.Errors = append(report.Errors, domain.RowError{Row: i + 2, Message: err.Error()})
			continue
		}
		report.Seaports++

		if report.Seaports%1000 == 0 {
			log.Printf("[MASTER] %d seaports so far", report.Seaports)
		}
	}

	log.Printf("[MASTER] imported %d seaports", report.Seaports)
	return nil
}

// importSales loads sales offices and their contacts. Offices are collected
// first so each distinct normalized name gets one row and one generated code;
// contacts are then attached by office name.
func (m *MasterImport) importSales(ctx context.Context, src io.Reader, report *domain.MasterReport) error {
	rows, err := readTabRows(src)
	if err != nil {
		return fmt.Errorf("failed to read sales file: %w", err)
	}

	type officeSource struct {
		country string
		name    string
	}
	type picSource struct {
		country string
		office  string
		name    string
	}

	officesByNorm := make(map[string]officeSource)
	var officeOrder []string
	var contacts []picSource

	for _, row := range rows {
		country := strings.TrimSpace(row["SALESCOUNTRY"])
		office := strings.TrimSpace(row["SALESOFFICE"])
		pic := strings.TrimSpace(row["SALESPIC"])

		if office == "" || office == "-" || office == "TBA" {
			continue
		}

		officeNorm := normalize.Upper(office)
		if officeNorm != "" {
			if _, ok := officesByNorm[officeNorm]; !ok {
				officesByNorm[officeNorm] = officeSource{country: country, name: office}
				officeOrder = append(officeOrder, officeNorm)
			}
		}

		if pic != "" && pic != "-" && pic != "TBA" {
			contacts = append(contacts, picSource{country: country, office: office, name: pic})
		}
	}

	existingCodes := make(map[string]bool)
	for _, officeNorm := range officeOrder {
		source := officesByNorm[officeNorm]
		code := generateOfficeCode(source.country, source.name, existingCodes)
		existingCodes[code] = true

		countryCode, ok := salesCountryCodes[source.country]
		if !ok {
			countryCode = source.country
		}

		office := domain.SalesOffice{
			Code:        code,
			Name:        source.name,
			NameNorm:    officeNorm,
			CountryCode: countryCode,
		}
		if err := m.offices.Upsert(ctx, office); err != nil {
			report.Errors = append(report.Errors, domain.RowError{Message: fmt.Sprintf("office %s: %v", source.name, err)})
			continue
		}
		report.SalesOffices++
	}

	// Re-read office ids so contacts attach to persisted rows regardless of
	// whether the office existed before this run.
	offices, err := m.offices.LoadAll(ctx)
	if err != nil {
		return err
	}
	officeIDs := make(map[string]int64, len(offices))
	for _, office := range offices {
		officeIDs[office.NameNorm] = office.ID
	}

	seenPICs := make(map[string]bool)
	for _, contact := range contacts {
		countryCode, ok := salesCountryCodes[contact.country]
		if !ok {
			countryCode = contact.country
		}
		picNorm := normalize.Upper(contact.name)

		dedupKey := countryCode + "\x00" + picNorm
		if seenPICs[dedupKey] {
			continue
		}
		seenPICs[dedupKey] = true

		officeID, ok := officeIDs[normalize.Upper(contact.office)]
		if !ok {
			continue
		}

		pic := domain.SalesPIC{
			Name:          contact.name,
			NameNorm:      picNorm,
			CountryCode:   countryCode,
			SalesOfficeID: officeID,
		}
		if err := m.pics.Upsert(ctx, pic); err != nil {
			report.Errors = append(report.Errors, domain.RowError{Message: fmt.Sprintf("pic %s: %v", contact.name, err)})
			continue
		}
		report.SalesPICs++
	}

	log.Printf("[MASTER] imported %d offices, %d contacts", report.SalesOffices, report.SalesPICs)
	return nil
}

// countryLookups builds name → id and code → id maps from the persisted
// country table.
func (m *MasterImport) countryLookups(ctx context.Context) (map[string]int64, map[string]int64, error) {
	countries, err := m.countries.LoadAll(ctx)
	if err != nil {
		return nil, nil, err
	}

	byName := make(map[string]int64, len(countries))
	byCode := make(map[string]int64, len(countries))
	for _, country := range countries {
		byName[normalize.Upper(country.NameEN)] = country.ID
		byCode[country.Code] = country.ID
	}
	return byName, byCode, nil
}

// generateOfficeCode derives a short office code of the form
// {countryPrefix}-{abbr}, appending a counter when the code is taken.
func generateOfficeCode(country, officeName string, existing map[string]bool) string {
	prefix, ok := salesCountryCodes[country]
	if !ok {
		if len(country) >= 2 {
			prefix = country[:2]
		} else {
			prefix = "XX"
		}
	}

	words := strings.Fields(officeName)
	var abbr string
	switch {
	case len(words) == 0:
		abbr = "OFFICE"
	case len(words) == 1:
		abbr = strings.ToUpper(truncate(words[0], 8))
	default:
		var initials strings.Builder
		for _, word := range words[:min(len(words), 4)] {
			initials.WriteString(string([]rune(word)[:1]))
		}
		abbr = strings.ToUpper(initials.String())
		if len(abbr) < 2 {
			abbr = strings.ToUpper(truncate(words[0], 4))
		}
	}

	baseCode := fmt.Sprintf("%s-%s", prefix, abbr)
	code := baseCode
	for counter := 1; existing[code]; {
		counter++
		code = fmt.Sprintf("%s%d", baseCode, counter)
	}
	return code
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}

// readTabRows reads a tab-delimited file with named header columns into one
// map per data row.
func readTabRows(src io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(src)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	headers := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(headers))
		for i, header := range headers {
			if i < len(record) {
				row[strings.TrimSpace(header)] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
