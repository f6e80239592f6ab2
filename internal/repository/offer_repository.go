package repository

import (
	"context"
	"fmt"

	"freight-enquiry-importer/internal/db"
	"freight-enquiry-importer/internal/domain"
)

// offerRepository implements OfferRepository over raw SQL.
type offerRepository struct {
	q db.DBTX
}

// NewOfferRepository creates a new offer repository.
func NewOfferRepository(q db.DBTX) OfferRepository {
	return &offerRepository{q: q}
}

// Insert persists one offer row and returns its generated id.
func (r *offerRepository) Insert(ctx context.Context, offer domain.Offer) (int64, error) {
	var id int64
	err := r.q.QueryRow(
		ctx,
		`INSERT INTO offer (enquiry_id, offer_type, sequence_no, is_latest,
		                    sent_date, sent_date_raw_text, price, price_text)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		offer.EnquiryID,
		offer.OfferType,
		offer.SequenceNo,
		offer.IsLatest,
		offer.SentDate,
		nullString(offer.SentDateRawText),
		offer.Price,
		offer.PriceText,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert offer: %w", err)
	}
	return id, nil
}

// DemoteLatest clears the is_latest flag on the given offer sequence, called
// before a newer revision for the same enquiry is inserted.
func (r *offerRepository) DemoteLatest(ctx context.Context, enquiryID int64, sequenceNo int) error {
	_, err := r.q.Exec(
		ctx,
		`UPDATE offer SET is_latest = false
		 WHERE enquiry_id = $1 AND sequence_no = $2`,
		enquiryID,
		sequenceNo,
	)
	if err != nil {
		return fmt.Errorf("failed to demote offer: %w", err)
	}
	return nil
}
