package models

// Equipment categories used by the stock form and the category extractor.
// CategoryOther is the sentinel for anything unclassified.
const (
	CategoryJawCrusher    = "ジョークラッシャ"
	CategoryImpactCrusher = "インパクトクラッシャ"
	CategoryScreen        = "スクリーン"
	CategoryBelt          = "ベルト"
	CategoryOther         = "その他"

	// CategoryAll is a display-only filter value; it is never stored.
	CategoryAll = "すべて"
)

// Categories lists the persistable categories in form order.
var Categories = []string{
	CategoryJawCrusher,
	CategoryImpactCrusher,
	CategoryScreen,
	CategoryBelt,
	CategoryOther,
}

// ValidCategory reports whether c may be stored on a stock row.
// Empty is allowed: legacy rows predate the classification.
func ValidCategory(c string) bool {
	if c == "" {
		return true
	}
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}
