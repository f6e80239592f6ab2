package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	numericRun    = regexp.MustCompile(`[0-9]*\.?[0-9]+`)

	// Day-first layouts tried in order; the tracker sheet mixes most of these.
	dateLayouts = []string{
		"02/01/2006",
		"2/1/2006",
		"02-01-2006",
		"2-1-2006",
		"02.01.2006",
		"2006-01-02",
		"2006/01/02",
		"2 Jan 2006",
		"2 January 2006",
		"02 Jan 06",
		"2/1/06",
		"02/01/06",
		"Jan 2, 2006",
	}
)

// CleanString trims the input and collapses internal whitespace runs to a
// single space. Empty or whitespace-only input yields "".
func CleanString(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return whitespaceRun.ReplaceAllString(trimmed, " ")
}

// Upper is CleanString followed by uppercasing, used for natural-key
// comparisons so "china", "CHINA" and " China " collide.
func Upper(raw string) string {
	return strings.ToUpper(CleanString(raw))
}

// IsSentinel reports whether the value is one of the tracker's "intentionally
// not provided" tokens, as opposed to a value that failed to parse.
func IsSentinel(raw string) bool {
	switch strings.ToUpper(CleanString(raw)) {
	case "", "-", "N/A", "TBA":
		return true
	}
	return false
}

// Date pairs a parsed calendar date with the original cell text. When Valid is
// false the raw text is the only record of what the sheet contained.
type Date struct {
	Value time.Time
	Valid bool
	Raw   string
}

// ParseDate attempts a day-first parse of a human-entered date cell. Sentinel
// tokens and unparseable text both come back invalid with the raw text kept;
// malformed dates are an expected case, never an error.
func ParseDate(raw string) Date {
	cleaned := CleanString(raw)
	if IsSentinel(cleaned) {
		return Date{Raw: cleaned}
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, cleaned); err == nil {
			return Date{Value: ts, Valid: true, Raw: cleaned}
		}
	}
	return Date{Raw: cleaned}
}

// Number pairs a parsed numeric value with the original cell text.
type Number struct {
	Value float64
	Valid bool
	Raw   string
}

// ParseNumber strips thousands separators and extracts the first contiguous
// numeric substring, so "USD 2,131.5 approx" yields 2131.5. No numeric
// substring, or a sentinel token, yields an invalid Number with the raw text
// kept. Never an error.
func ParseNumber(raw string) Number {
	cleaned := CleanString(raw)
	if IsSentinel(cleaned) {
		return Number{Raw: cleaned}
	}
	candidate := numericRun.FindString(strings.ReplaceAll(cleaned, ",", ""))
	if candidate == "" {
		return Number{Raw: cleaned}
	}
	value, err := strconv.ParseFloat(candidate, 64)
	if err != nil {
		return Number{Raw: cleaned}
	}
	return Number{Value: value, Valid: true, Raw: cleaned}
}

// Status maps free-text enquiry status onto its canonical form, defaulting to
// "New" for anything unrecognized.
func Status(raw string) string {
	switch strings.ToLower(CleanString(raw)) {
	case "new":
		return "New"
	case "quoted":
		return "Quoted"
	case "cancelled", "canceled":
		return "Cancelled"
	}
	return "New"
}

// BookingConfirmed maps free-text booking confirmation onto its canonical
// form, defaulting to "Pending".
func BookingConfirmed(raw string) string {
	switch strings.ToLower(CleanString(raw)) {
	case "yes":
		return "Yes"
	case "rejected":
		return "Rejected"
	case "pending":
		return "Pending"
	case "invalid":
		return "Invalid"
	}
	return "Pending"
}

// CoreFlag classifies the core/non-core cell. Unrecognized values yield ""
// rather than a guess.
func CoreFlag(raw string) string {
	upper := Upper(raw)
	if strings.Contains(upper, "NON") {
		return "NON_CORE"
	}
	if strings.Contains(upper, "CORE") {
		return "CORE"
	}
	return ""
}

// QuantityUnit maps a free-text unit cell to a unit-of-measure code. The
// second return is false when the text matched no known unit, in which case
// the caller keeps the raw text instead.
func QuantityUnit(raw string) (string, bool) {
	switch Upper(raw) {
	case "KG":
		return "KG", true
	case "PCS", "PIECES":
		return "PCS", true
	case "CTN", "CARTONS":
		return "CTN", true
	}
	return "", false
}

// Offer track constants derived from cargo type.
const (
	TrackAir   = "AIR"
	TrackOcean = "OCEAN"
	TrackOther = "OTHER"
)

// OfferTrack derives the offer modality from the cargo type code.
func OfferTrack(cargoType string) string {
	switch Upper(cargoType) {
	case "AIR":
		return TrackAir
	case "FCL", "LCL", "SEA":
		return TrackOcean
	}
	return TrackOther
}
