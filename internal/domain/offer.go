package domain

import "time"

// Offer is a quotation sent for an enquiry. SequenceNo 1 is the first offer,
// 2 the latest revision; at most one offer per enquiry carries IsLatest.
type Offer struct {
	ID         int64  `json:"id"`
	EnquiryID  int64  `json:"enquiry_id"`
	OfferType  string `json:"offer_type"`
	SequenceNo int    `json:"sequence_no"`
	IsLatest   bool   `json:"is_latest"`

	SentDate        *time.Time `json:"sent_date,omitempty"`
	SentDateRawText string     `json:"sent_date_raw_text,omitempty"`

	// Price is best-effort extracted from the offer cell; PriceText always
	// keeps the full cell content.
	Price     *float64 `json:"price,omitempty"`
	PriceText string   `json:"price_text"`
}
