package domain

import "time"

// Product is one catalog entry. The storefront is bilingual, so names
// and descriptions are stored in both Arabic and English.
type Product struct {
	ID            int
	NameAr        string
	NameEn        string
	DescriptionAr string
	DescriptionEn string
	Price         string // decimal string, e.g. "45.00"
	Strength      string
	StrengthDots  int
	Flavor        string
	Category      string
	ImageURL      string
	InStock       int
	CreatedAt     time.Time
}
