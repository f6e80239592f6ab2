package normalize

import (
	"regexp"
	"strconv"
)

// Enquiry reference numbers look like CN2401006-A1 or CN2401006-ARS: a fixed
// CN prefix, a four digit period (YYMM), the sequence within that period, and
// a product abbreviation with an optional serial.
var referencePattern = regexp.MustCompile(`^CN(\d{4})(\d+)-([A-Z]+)(\d*)$`)

// Reference holds the parts derived from an enquiry reference number.
// Downstream reporting groups enquiries by PeriodKey and Sequence.
type Reference struct {
	PeriodKey   string
	Sequence    int
	ProductAbbr string
	Serial      int
}

// ParseReference decomposes a reference number into its parts. Hand-edited
// trackers routinely contain non-conforming references, so a failed match
// yields the zero value rather than an error; the row stays importable and
// only loses the derived fields.
func ParseReference(raw string) Reference {
	var ref Reference

	cleaned := CleanString(raw)
	if cleaned == "" {
		return ref
	}

	match := referencePattern.FindStringSubmatch(cleaned)
	if match == nil {
		return ref
	}

	ref.PeriodKey = match[1]
	ref.Sequence, _ = strconv.Atoi(match[2])
	ref.ProductAbbr = match[3]
	if match[4] != "" {
		ref.Serial, _ = strconv.Atoi(match[4])
	}
	return ref
}
