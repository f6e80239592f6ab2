package domain

import "github.com/google/uuid"

// RowError records one rejected or failed source row. Row is the 1-based
// physical line number in the source file.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// RunReport accumulates the outcome of one import run. It lives only for the
// duration of the run; persistence of row errors happens separately through
// the import log.
type RunReport struct {
	RunID  uuid.UUID `json:"run_id"`
	Source string    `json:"source"`

	Total   int `json:"total"`
	Success int `json:"success"`
	Failed  int `json:"failed"`

	CountriesCreated    int `json:"countries_created"`
	PortsCreated        int `json:"ports_created"`
	SalesOfficesCreated int `json:"sales_offices_created"`
	OffersCreated       int `json:"offers_created"`

	Errors []RowError `json:"errors"`
}

// NewRunReport starts an empty report for one run over the named source file.
func NewRunReport(source string) RunReport {
	return RunReport{
		RunID:  uuid.New(),
		Source: source,
		Errors: []RowError{},
	}
}

// AddError appends a row-level failure and bumps the failed counter.
func (r *RunReport) AddError(row int, message string) {
	r.Failed++
	r.Errors = append(r.Errors, RowError{Row: row, Message: message})
}

// MasterReport accumulates the outcome of a master-data load.
type MasterReport struct {
	RunID uuid.UUID `json:"run_id"`

	Countries    int `json:"countries"`
	Airports     int `json:"airports"`
	Seaports     int `json:"seaports"`
	SalesOffices int `json:"sales_offices"`
	SalesPICs    int `json:"sales_pics"`

	Errors []RowError `json:"errors"`
}

// NewMasterReport starts an empty master-data report.
func NewMasterReport() MasterReport {
	return MasterReport{RunID: uuid.New(), Errors: []RowError{}}
}
