package models

// AddItemRequest adds a product to the cart.
type AddItemRequest struct {
	Category  string `json:"category" binding:"required"`
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"omitempty,min=1,max=100"`
}

// UpdateQuantityRequest sets the quantity of a cart line. Zero and negative values are
// rejected by the cart itself, so the binding only bounds the upper end.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" binding:"max=100"`
}

// PaymentConfirmation is what the payment gateway hands back to the client after a
// successful hosted checkout.
type PaymentConfirmation struct {
	PaymentID string `json:"paymentId"`
	Reference string `json:"reference,omitempty"`
	Signature string `json:"signature,omitempty"`
}

// CheckoutRequest places an order for the session cart.
type CheckoutRequest struct {
	Address       Address              `json:"address" binding:"required"`
	PaymentMethod string               `json:"paymentMethod" binding:"required,oneof=cod online card upi"`
	Payment       *PaymentConfirmation `json:"payment,omitempty"`
}

// GatewayOptions bootstrap the hosted checkout on the client.
type GatewayOptions struct {
	Key         string `json:"key"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Reference   string `json:"reference"`
	PrefillName string `json:"prefillName,omitempty"`
	PrefillMail string `json:"prefillEmail,omitempty"`
}

// CheckoutQuote is the price breakdown of the session cart.
type CheckoutQuote struct {
	Subtotal   float64        `json:"subtotal"`
	Tax        float64        `json:"tax"`
	Shipping   float64        `json:"shipping"`
	Amount     float64        `json:"amount"`
	TotalItems int            `json:"totalItems"`
	Gateway    GatewayOptions `json:"gateway"`
}

// UpdateStatusRequest moves an order to another status.
type UpdateStatusRequest struct {
	Status OrderStatus `json:"status" binding:"required"`
}

// SubmitProductRequest is a seller's new product listing.
type SubmitProductRequest struct {
	Category    string    `json:"category" form:"category" binding:"required"`
	Name        string    `json:"name" form:"name" binding:"required,max=200"`
	Company     string    `json:"company" form:"company"`
	Model       string    `json:"model" form:"model"`
	Description string    `json:"description" form:"description" binding:"max=5000"`
	Color       string    `json:"color" form:"color"`
	Material    string    `json:"material" form:"material"`
	Price       float64   `json:"price" form:"price" binding:"required,gt=0"`
	Stock       int64     `json:"stock" form:"stock" binding:"gte=0"`
	Images      []string  `json:"images" form:"images" binding:"omitempty,dive,url"`
	Warranty    *Warranty `json:"warranty,omitempty"`

	// Seller profile fields, used when the user has no seller profile yet.
	StoreName     string `json:"storeName" form:"storeName"`
	SellerPhone   string `json:"sellerPhone" form:"sellerPhone" binding:"omitempty,phone"`
	SellerAddress string `json:"sellerAddress" form:"sellerAddress"`
}
