package provider

// ModelType represents a data model type served by a provider.
// Each ModelType maps to a specific data structure returned in FetchResult.Data.
type ModelType string

const (
	// ModelBondReferencePrices is the JSDA daily OTC bond reference price table.
	ModelBondReferencePrices ModelType = "BondReferencePrices"
	// ModelHolidays is the Japanese national holiday list.
	ModelHolidays ModelType = "Holidays"
	// ModelNotices is the announcements feed shown next to the viewer.
	ModelNotices ModelType = "Notices"
)

// AllModelTypes returns every known model type.
func AllModelTypes() []ModelType {
	return []ModelType{
		ModelBondReferencePrices,
		ModelHolidays,
		ModelNotices,
	}
}
