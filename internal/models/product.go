package models

import "time"

// Category names double as the collection names products are stored under.
const (
	CategoryWatches     = "Watches"
	CategoryShoes       = "Shoes"
	CategoryBags        = "Bags"
	CategoryFashion     = "Fashion"
	CategoryElectronics = "Electronics"
	CategoryAccessories = "Accessories"
)

// Categories is the fixed, ordered list of product collections.
var Categories = []string{
	CategoryWatches,
	CategoryShoes,
	CategoryBags,
	CategoryFashion,
	CategoryElectronics,
	CategoryAccessories,
}

// IsCategory reports whether name is one of the product collections.
func IsCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

// SellerInfo is the seller sub-record embedded in every product.
type SellerInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// Warranty is the optional warranty sub-record of a product.
type Warranty struct {
	Period string `json:"period,omitempty"`
	Type   string `json:"type,omitempty"`
}

// Product is the canonical shape of a product read from any category collection.
// Category always equals the collection the record was read from.
type Product struct {
	ID          string     `json:"id"`
	Category    string     `json:"category"`
	Name        string     `json:"name"`
	Company     string     `json:"company,omitempty"`
	Model       string     `json:"model,omitempty"`
	Description string     `json:"description,omitempty"`
	Color       string     `json:"color,omitempty"`
	Material    string     `json:"material,omitempty"`
	Price       float64    `json:"price"`
	InStock     bool       `json:"inStock"`
	StockCount  int64      `json:"stockCount"`
	Seller      SellerInfo `json:"seller"`
	SellerID    string     `json:"sellerId,omitempty"`
	Warranty    *Warranty  `json:"warranty,omitempty"`
	Images      []string   `json:"images,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`

	// ImagePublicID identifies the uploaded image at the media host.
	ImagePublicID string `json:"-"`
}

// Image returns the first product image, or "" when there is none.
func (p Product) Image() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// ToDocument renders the product in the lowerCamel field layout new documents are written with.
func (p Product) ToDocument() map[string]any {
	doc := map[string]any{
		"name":        p.Name,
		"company":     p.Company,
		"model":       p.Model,
		"description": p.Description,
		"color":       p.Color,
		"material":    p.Material,
		"price":       p.Price,
		"inStock":     p.StockCount > 0,
		"stock":       p.StockCount,
		"images":      toAnySlice(p.Images),
		"category":    p.Category,
		"sellerId":    p.SellerID,
		"seller": map[string]any{
			"name":    p.Seller.Name,
			"email":   p.Seller.Email,
			"phone":   p.Seller.Phone,
			"address": p.Seller.Address,
		},
	}
	if p.Warranty != nil {
		doc["warranty"] = map[string]any{"period": p.Warranty.Period, "type": p.Warranty.Type}
	}
	if p.CreatedAt != nil {
		doc["createdAt"] = *p.CreatedAt
	}
	if p.ImagePublicID != "" {
		doc["imagePublicId"] = p.ImagePublicID
	}
	return doc
}

func toAnySlice(in []string) []any {
	out := make([]any, 0, len(in))
	for _, s := range in {
		out = append(out, s)
	}
	return out
}
