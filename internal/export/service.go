// Package export streams the enquiry table back out as CSV, for analysts who
// want the cleaned data in the same shape they uploaded it.
package export

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"freight-enquiry-importer/internal/domain"
	"freight-enquiry-importer/internal/repository"
)

var csvHeader = []string{
	"id",
	"reference_number",
	"received_date",
	"issue_date",
	"reference_month",
	"monthly_sequence",
	"serial_number",
	"product_code",
	"status",
	"cn_pricing_admin",
	"sales_country_id",
	"sales_office_id",
	"sales_pic",
	"assigned_cn_office",
	"cargo_type_code",
	"volume_cbm",
	"quantity",
	"quantity_uom_code",
	"quantity_teu",
	"commodity",
	"pol_id",
	"pod_id",
	"pod_country_id",
	"core_flag",
	"category_code",
	"cargo_ready_date",
	"booking_confirmed",
	"offer_type",
	"remark",
}

// Service pages through persisted enquiries and writes them as CSV.
type Service struct {
	enquiries repository.EnquiryRepository
	pageSize  int
}

// NewService wires an export service. pageSize bounds memory per page read.
func NewService(enquiries repository.EnquiryRepository, pageSize int) *Service {
	if pageSize <= 0 {
		pageSize = 1000
	}
	return &Service{enquiries: enquiries, pageSize: pageSize}
}

// WriteCSV streams every enquiry to out and returns the row count. The output
// is flushed page by page so large tables never build up in memory.
func (s *Service) WriteCSV(ctx context.Context, out io.Writer) (int, error) {
	buffered := bufio.NewWriterSize(out, 1<<20)
	writer := csv.NewWriter(buffered)

	if err := writer.Write(csvHeader); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	rows := 0
	offset := 0
	record := make([]string, len(csvHeader))
	for {
		if ctx.Err() != nil {
			return rows, ctx.Err()
		}

		page, err := s.enquiries.List(ctx, s.pageSize, offset)
		if err != nil {
			return rows, fmt.Errorf("list enquiries: %w", err)
		}
		if len(page) == 0 {
			break
		}

		for _, enquiry := range page {
			fillRecord(record, enquiry)
			if err := writer.Write(record); err != nil {
				return rows, fmt.Errorf("write row: %w", err)
			}
			rows++
		}

		writer.Flush()
		if err := writer.Error(); err != nil {
			return rows, fmt.Errorf("flush rows: %w", err)
		}
		if err := buffered.Flush(); err != nil {
			return rows, fmt.Errorf("flush buffered rows: %w", err)
		}

		if len(page) < s.pageSize {
			break
		}
		offset += s.pageSize
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return rows, fmt.Errorf("final flush: %w", err)
	}
	if err := buffered.Flush(); err != nil {
		return rows, fmt.Errorf("final buffered flush: %w", err)
	}
	return rows, nil
}

func fillRecord(record []string, e domain.Enquiry) {
	record[0] = strconv.FormatInt(e.ID, 10)
	record[1] = e.ReferenceNumber
	record[2] = formatDate(e.ReceivedDate)
	record[3] = formatDate(e.IssueDate)
	record[4] = e.ReferenceMonth
	record[5] = strconv.Itoa(e.MonthlySequence)
	record[6] = strconv.Itoa(e.SerialNumber)
	record[7] = e.ProductCode
	record[8] = e.Status
	record[9] = e.CNPricingAdmin
	record[10] = strconv.FormatInt(e.SalesCountryID, 10)
	record[11] = strconv.FormatInt(e.SalesOfficeID, 10)
	record[12] = e.SalesPIC
	record[13] = e.AssignedCNOffice
	record[14] = e.CargoTypeCode
	record[15] = formatNumber(e.VolumeCBM, e.VolumeRawText)
	record[16] = formatNumber(e.Quantity, e.QuantityRawText)
	record[17] = e.QuantityUOMCode
	record[18] = formatNumber(e.QuantityTEU, e.QuantityTEURawText)
	record[19] = e.Commodity
	record[20] = strconv.FormatInt(e.POLID, 10)
	record[21] = strconv.FormatInt(e.PODID, 10)
	record[22] = strconv.FormatInt(e.PODCountryID, 10)
	record[23] = e.CoreFlag
	record[24] = e.CategoryCode
	record[25] = formatDatePtr(e.CargoReadyDate, e.CargoReadyRawText)
	record[26] = e.BookingConfirmed
	record[27] = e.OfferType
	record[28] = e.Remark
}

func formatDate(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.Format("2006-01-02")
}

// formatDatePtr falls back to the raw cell text when the source value never
// parsed, so the export round-trips what the sheet actually said.
func formatDatePtr(value *time.Time, raw string) string {
	if value == nil {
		return raw
	}
	return value.Format("2006-01-02")
}

func formatNumber(value *float64, raw string) string {
	if value == nil {
		return raw
	}
	return strconv.FormatFloat(*value, 'f', -1, 64)
}
