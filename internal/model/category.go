package model

// Category is one of the fixed product categories.
type Category string

const (
	CategoryElectronics     Category = "Electronics"
	CategoryLuxuryGoods     Category = "Luxury Goods"
	CategoryPharmaceuticals Category = "Pharmaceuticals"
	CategoryClothing        Category = "Clothing & Apparel"
	CategoryAutomobileParts Category = "Automobile Parts"
	CategoryCosmetics       Category = "Cosmetics & Beauty"
	CategoryFoodBeverages   Category = "Food & Beverages"
	CategoryDocuments       Category = "Documents & Certificates"
	CategoryIndustrial      Category = "Industrial Equipment"
	CategoryToys            Category = "Toys and Games"
)

// Categories lists every accepted category in display order.
var Categories = []Category{
	CategoryElectronics,
	CategoryLuxuryGoods,
	CategoryPharmaceuticals,
	CategoryClothing,
	CategoryAutomobileParts,
	CategoryCosmetics,
	CategoryFoodBeverages,
	CategoryDocuments,
	CategoryIndustrial,
	CategoryToys,
}

// ParseCategory returns the category named s.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}
