package domain

// Country is a master-data row referenced by enquiries. Identity is the
// uppercased country code; the English name doubles as a lookup alias.
type Country struct {
	ID     int64  `json:"id"`
	Code   string `json:"code"`
	NameEN string `json:"name_en"`
	NameCN string `json:"name_cn,omitempty"`
}

// Port type discriminators. A code can exist once per type, an IATA airport
// code and a UN/LOCODE seaport code may collide textually.
const (
	PortTypeAir = "AIR"
	PortTypeSea = "SEA"
)

// Port is an airport or seaport master-data row.
type Port struct {
	ID        int64  `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	CountryID *int64 `json:"country_id,omitempty"`
	City      string `json:"city,omitempty"`
}

// SalesOffice is a master-data row for the office that raised an enquiry.
// NameNorm is the deduplication key; Code is a generated short identifier.
type SalesOffice struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	NameNorm    string `json:"name_norm"`
	CountryCode string `json:"country_code,omitempty"`
}

// SalesPIC is a named sales contact belonging to an office, deduplicated on
// (country code, normalized name).
type SalesPIC struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	NameNorm      string `json:"name_norm"`
	CountryCode   string `json:"country_code,omitempty"`
	SalesOfficeID int64  `json:"sales_office_id"`
}

// Category is a commodity category dictionary row keyed by code.
type Category struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	NameNorm string `json:"name_norm"`
}
