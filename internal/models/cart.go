package models

// CartItem is one line of a session cart. Price and the display fields are snapshots taken
// when the product was added.
type CartItem struct {
	ProductID   string    `json:"productId"`
	Category    string    `json:"category"`
	SellerID    string    `json:"sellerId,omitempty"`
	Quantity    int       `json:"quantity"`
	Price       float64   `json:"price"`
	Name        string    `json:"name"`
	Image       string    `json:"image,omitempty"`
	Company     string    `json:"company,omitempty"`
	Model       string    `json:"model,omitempty"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color,omitempty"`
	Material    string    `json:"material,omitempty"`
	Warranty    *Warranty `json:"warranty,omitempty"`
}

// CartItemFromProduct snapshots the fields of p into a line item of the given quantity.
func CartItemFromProduct(p Product, quantity int) CartItem {
	return CartItem{
		ProductID:   p.ID,
		Category:    p.Category,
		SellerID:    UserKey(p.SellerID),
		Quantity:    quantity,
		Price:       p.Price,
		Name:        p.Name,
		Image:       p.Image(),
		Company:     p.Company,
		Model:       p.Model,
		Description: p.Description,
		Color:       p.Color,
		Material:    p.Material,
		Warranty:    copyWarranty(p.Warranty),
	}
}
