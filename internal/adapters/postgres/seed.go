package postgres

import (
	"context"

	"github.com/rs/zerolog"

	"SidraStore/internal/core/domain"
	"SidraStore/internal/core/ports"
)

// SeedProducts inserts the default catalog on first run. An already
// populated table is left alone.
func SeedProducts(ctx context.Context, repo ports.ProductRepository, baseLogger *zerolog.Logger) error {
	log := baseLogger.With().Str("component", "seed").Logger()

	existing, err := repo.GetAll(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.Info().Int("count", len(existing)).Msg("Catalog already seeded")
		return nil
	}

	products := []domain.Product{
		{
			NameAr:        "سدر جبلي فاخر",
			NameEn:        "Premium Mountain Sidr",
			DescriptionAr: "عسل سدر جبلي صافي من مرتفعات الجنوب",
			DescriptionEn: "Pure mountain sidr honey from the southern highlands",
			Price:         "45.00",
			Strength:      "medium",
			StrengthDots:  3,
			Flavor:        "sidr",
			Category:      "honey",
			ImageURL:      "/images/sidr-mountain.jpg",
			InStock:       1,
		},
		{
			NameAr:        "سمن بلدي",
			NameEn:        "Traditional Ghee",
			DescriptionAr: "سمن بلدي من مراعي عسير",
			DescriptionEn: "Traditional ghee from Asir pastures",
			Price:         "60.00",
			Strength:      "strong",
			StrengthDots:  4,
			Flavor:        "classic",
			Category:      "dairy",
			ImageURL:      "/images/ghee.jpg",
			InStock:       1,
		},
		{
			NameAr:        "تمر سكري فاخر",
			NameEn:        "Premium Sukkari Dates",
			DescriptionAr: "تمر سكري من مزارع القصيم",
			DescriptionEn: "Sukkari dates from Qassim farms",
			Price:         "35.00",
			Strength:      "mild",
			StrengthDots:  2,
			Flavor:        "sweet",
			Category:      "dates",
			ImageURL:      "/images/sukkari.jpg",
			InStock:       1,
		},
		{
			NameAr:        "بن خولاني",
			NameEn:        "Khawlani Coffee Beans",
			DescriptionAr: "بن خولاني محمص من جازان",
			DescriptionEn: "Roasted Khawlani coffee beans from Jazan",
			Price:         "55.00",
			Strength:      "strong",
			StrengthDots:  5,
			Flavor:        "roasted",
			Category:      "coffee",
			ImageURL:      "/images/khawlani.jpg",
			InStock:       1,
		},
		{
			NameAr:        "زعفران أصلي",
			NameEn:        "Authentic Saffron",
			DescriptionAr: "زعفران فاخر معبأ يدويا",
			DescriptionEn: "Premium hand-packed saffron",
			Price:         "120.00",
			Strength:      "mild",
			StrengthDots:  1,
			Flavor:        "floral",
			Category:      "spices",
			ImageURL:      "/images/saffron.jpg",
			InStock:       1,
		},
	}

	for i := range products {
		if err := repo.Create(ctx, &products[i]); err != nil {
			return err
		}
	}
	log.Info().Int("count", len(products)).Msg("Catalog seeded")
	return nil
}
