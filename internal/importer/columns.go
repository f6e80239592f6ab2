package importer

// Fixed column positions of the enquiry tracker export. Header cells in the
// sheet contain embedded line breaks, so columns are matched by position, not
// by header text. The first two physical rows (description and header) carry
// no data.
const headerRowCount = 2

const (
	colEnquiryReceivedDate = iota
	colIssueDate
	colReferenceNumber
	colProduct
	colStatus
	colCNPricingAdmin
	colSalesCountry
	colSalesOffice
	colSalesPIC
	colAssignedCNOffices
	colCargoType
	colVolumeCBM
	colQuantity
	colQuantityUnit
	colQuantityTEU
	colCommodity
	colHazSpecialEquipment
	colPOL
	colPOD
	colPODCountry
	colCoreNonCore
	colCategory
	colCargoReadyDate
	colAdditionalRequirement
	colFirstQuotationSent
	colFirstOfferOcean
	colFirstOfferAir
	colLatestOfferOcean
	colLatestOfferAir
	colBookingConfirmed
	colRemark
	colRejectedReason
	colActualReason

	columnCount
)

// Assigned CN offices the schema recognizes; anything else falls back to the
// Shanghai desk.
var knownCNOffices = map[string]bool{
	"SHANGHAI":  true,
	"SHENZHEN":  true,
	"NINGBO":    true,
	"HONG KONG": true,
	"TIANJIN":   true,
	"QINGDAO":   true,
	"XIAMEN":    true,
	"CN-MULTI":  true,
}
