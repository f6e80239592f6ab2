package repository

import (
	"context"
	"fmt"

	"freight-enquiry-importer/internal/db"
	"freight-enquiry-importer/internal/domain"

	"github.com/jackc/pgx/v5/pgtype"
)

// enquiryRepository implements EnquiryRepository over raw SQL.
type enquiryRepository struct {
	q db.DBTX
}

// NewEnquiryRepository creates a new enquiry repository.
func NewEnquiryRepository(q db.DBTX) EnquiryRepository {
	return &enquiryRepository{q: q}
}

// Insert persists one enquiry fact row and returns its generated id.
func (r *enquiryRepository) Insert(ctx context.Context, e domain.Enquiry) (int64, error) {
	var id int64
	err := r.q.QueryRow(
		ctx,
		`INSERT INTO enquiry (
		     reference_number, enquiry_received_date, issue_date,
		     reference_month, monthly_sequence, serial_number,
		     product_code, product_abbr, status,
		     cn_pricing_admin, sales_country_id, sales_office_id, sales_pic,
		     assigned_cn_office_code, cargo_type_code,
		     volume_cbm, volume_raw_text, quantity, quantity_raw_text,
		     quantity_uom_code, quantity_uom_raw_text,
		     quantity_teu, quantity_teu_raw_text,
		     commodity, haz_special_equipment,
		     pol_id, pod_id, pod_country_id,
		     core_flag, category_code,
		     cargo_ready_date, cargo_ready_date_raw_text,
		     additional_requirement, booking_confirmed,
		     remark, rejected_reason, actual_reason,
		     enquiry_offer_type
		 ) VALUES (
		     $1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		     $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
		     $21, $22, $23, $24, $25, $26, $27, $28, $29, $30,
		     $31, $32, $33, $34, $35, $36, $37, $38
		 )
		 RETURNING id`,
		e.ReferenceNumber,
		e.ReceivedDate,
		e.IssueDate,
		e.ReferenceMonth,
		e.MonthlySequence,
		e.SerialNumber,
		e.ProductCode,
		e.ProductAbbr,
		e.Status,
		e.CNPricingAdmin,
		e.SalesCountryID,
		e.SalesOfficeID,
		nullString(e.SalesPIC),
		e.AssignedCNOffice,
		e.CargoTypeCode,
		e.VolumeCBM,
		nullString(e.VolumeRawText),
		e.Quantity,
		nullString(e.QuantityRawText),
		nullString(e.QuantityUOMCode),
		nullString(e.QuantityUOMRawText),
		e.QuantityTEU,
		nullString(e.QuantityTEURawText),
		nullString(e.Commodity),
		nullString(e.HazSpecialEquipment),
		e.POLID,
		e.PODID,
		e.PODCountryID,
		nullString(e.CoreFlag),
		nullString(e.CategoryCode),
		e.CargoReadyDate,
		nullString(e.CargoReadyRawText),
		nullString(e.AdditionalRequirement),
		e.BookingConfirmed,
		nullString(e.Remark),
		nullString(e.RejectedReason),
		nullString(e.ActualReason),
		e.OfferType,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert enquiry: %w", err)
	}
	return id, nil
}

// List returns enquiry rows newest first.
func (r *enquiryRepository) List(ctx context.Context, limit, offset int) ([]domain.Enquiry, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.q.Query(
		ctx,
		`SELECT id, reference_number, enquiry_received_date, issue_date,
		        reference_month, monthly_sequence, serial_number,
		        product_code, product_abbr, status, cargo_type_code,
		        sales_country_id, sales_office_id, pol_id, pod_id, pod_country_id,
		        booking_confirmed, enquiry_offer_type
		 FROM enquiry
		 ORDER BY id DESC
		 LIMIT $1 OFFSET $2`,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list enquiries: %w", err)
	}
	defer rows.Close()

	var enquiries []domain.Enquiry
	for rows.Next() {
		var (
			e        domain.Enquiry
			received pgtype.Date
			issued   pgtype.Date
		)
		if err := rows.Scan(
			&e.ID,
			&e.ReferenceNumber,
			&received,
			&issued,
			&e.ReferenceMonth,
			&e.MonthlySequence,
			&e.SerialNumber,
			&e.ProductCode,
			&e.ProductAbbr,
			&e.Status,
			&e.CargoTypeCode,
			&e.SalesCountryID,
			&e.SalesOfficeID,
			&e.POLID,
			&e.PODID,
			&e.PODCountryID,
			&e.BookingConfirmed,
			&e.OfferType,
		); err != nil {
			return nil, fmt.Errorf("failed to scan enquiry: %w", err)
		}
		if received.Valid {
			e.ReceivedDate = received.Time
		}
		if issued.Valid {
			e.IssueDate = issued.Time
		}
		enquiries = append(enquiries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate enquiries: %w", err)
	}

	return enquiries, nil
}
