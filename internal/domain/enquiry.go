package domain

import "time"

// Enquiry is one fact row of the rate-enquiry tracker. Quantitative and date
// fields that failed to parse keep the original cell text in the matching
// *RawText field; a value and its raw text are never both set.
type Enquiry struct {
	ID              int64     `json:"id"`
	ReferenceNumber string    `json:"reference_number"`
	ReceivedDate    time.Time `json:"received_date"`
	IssueDate       time.Time `json:"issue_date"`

	// Derived from the reference number.
	ReferenceMonth  string `json:"reference_month"`
	MonthlySequence int    `json:"monthly_sequence"`
	SerialNumber    int    `json:"serial_number"`
	ProductAbbr     string `json:"product_abbr"`

	ProductCode    string `json:"product_code"`
	Status         string `json:"status"`
	CNPricingAdmin string `json:"cn_pricing_admin"`

	SalesCountryID int64  `json:"sales_country_id"`
	SalesOfficeID  int64  `json:"sales_office_id"`
	SalesPIC       string `json:"sales_pic,omitempty"`

	AssignedCNOffice string `json:"assigned_cn_office"`
	CargoTypeCode    string `json:"cargo_type_code"`

	VolumeCBM          *float64 `json:"volume_cbm,omitempty"`
	VolumeRawText      string   `json:"volume_raw_text,omitempty"`
	Quantity           *float64 `json:"quantity,omitempty"`
	QuantityRawText    string   `json:"quantity_raw_text,omitempty"`
	QuantityUOMCode    string   `json:"quantity_uom_code,omitempty"`
	QuantityUOMRawText string   `json:"quantity_uom_raw_text,omitempty"`
	QuantityTEU        *float64 `json:"quantity_teu,omitempty"`
	QuantityTEURawText string   `json:"quantity_teu_raw_text,omitempty"`

	Commodity           string `json:"commodity,omitempty"`
	HazSpecialEquipment string `json:"haz_special_equipment,omitempty"`

	POLID        int64 `json:"pol_id"`
	PODID        int64 `json:"pod_id"`
	PODCountryID int64 `json:"pod_country_id"`

	CoreFlag     string `json:"core_flag,omitempty"`
	CategoryCode string `json:"category_code,omitempty"`

	CargoReadyDate    *time.Time `json:"cargo_ready_date,omitempty"`
	CargoReadyRawText string     `json:"cargo_ready_raw_text,omitempty"`

	AdditionalRequirement string `json:"additional_requirement,omitempty"`
	BookingConfirmed      string `json:"booking_confirmed"`
	Remark                string `json:"remark,omitempty"`
	RejectedReason        string `json:"rejected_reason,omitempty"`
	ActualReason          string `json:"actual_reason,omitempty"`

	OfferType string `json:"offer_type"`
}
