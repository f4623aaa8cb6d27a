package memory

import "github.com/unseen32online/UNSEEN.IL/internal/domain"

// SeedCatalog returns the launch collection, matching the rows seeded by
// the postgres migrations.
func SeedCatalog() []domain.Product {
	return []domain.Product{
		{
			ID: "unseen-hoodie-black", Name: "UNSEEN Oversized Hoodie",
			Description: "Heavyweight brushed fleece, dropped shoulders.", Category: "hoodies",
			Price: domain.FromMinorUnits(44900), Sizes: []string{"S", "M", "L", "XL"}, Colors: []string{"black", "bone"},
			ImageURL: "/images/hoodie-black.jpg", InStock: true,
		},
		{
			ID: "unseen-tee-white", Name: "UNSEEN Heavyweight Tee",
			Description: "280gsm cotton, boxy fit.", Category: "tees",
			Price: domain.FromMinorUnits(12990), Sizes: []string{"S", "M", "L", "XL"}, Colors: []string{"white", "black"},
			ImageURL: "/images/tee-white.jpg", InStock: true,
		},
		{
			ID: "unseen-cargo-olive", Name: "UNSEEN Cargo Pants",
			Description: "Relaxed cargo with adjustable hem.", Category: "pants",
			Price: domain.FromMinorUnits(38900), Sizes: []string{"30", "32", "34", "36"}, Colors: []string{"olive", "black"},
			ImageURL: "/images/cargo-olive.jpg", InStock: true,
		},
		{
			ID: "unseen-cap-black", Name: "UNSEEN Six Panel Cap",
			Description: "Washed cotton twill.", Category: "accessories",
			Price: domain.FromMinorUnits(14900), Sizes: []string{}, Colors: []string{"black"},
			ImageURL: "/images/cap-black.jpg", InStock: true,
		},
		{
			ID: "unseen-jacket-coach", Name: "UNSEEN Coach Jacket",
			Description: "Water-resistant nylon shell.", Category: "outerwear",
			Price: domain.FromMinorUnits(59900), Sizes: []string{"M", "L", "XL"}, Colors: []string{"black"},
			ImageURL: "/images/coach-jacket.jpg", InStock: false,
		},
	}
}
