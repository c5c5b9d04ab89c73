package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusPaid       OrderStatus = "paid"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

var statusRank = map[OrderStatus]int{
	StatusPending:    0,
	StatusPaid:       1,
	StatusProcessing: 2,
	StatusShipped:    3,
	StatusDelivered:  4,
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	if s == StatusCancelled {
		return true
	}
	_, ok := statusRank[s]
	return ok
}

// CanTransition reports whether an order may move from one status to another.
// Statuses only move forward; cancellation is allowed from pending only.
func CanTransition(from, to OrderStatus) bool {
	if to == StatusCancelled {
		return from == StatusPending
	}
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}

// Payment methods accepted at checkout.
const (
	PaymentCOD    = "cod"
	PaymentOnline = "online"
	PaymentCard   = "card"
	PaymentUPI    = "upi"
)

// IsCashOnDelivery reports whether method settles on delivery and therefore needs no
// payment confirmation at checkout.
func IsCashOnDelivery(method string) bool {
	return method == PaymentCOD
}

// IsPaymentMethod reports whether method is accepted at checkout.
func IsPaymentMethod(method string) bool {
	switch method {
	case PaymentCOD, PaymentOnline, PaymentCard, PaymentUPI:
		return true
	}
	return false
}

// Address is a shipping address. Phone is ten digits and Pincode six.
type Address struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone" binding:"required,phone"`
	Line1   string `json:"line1" binding:"required"`
	Line2   string `json:"line2,omitempty"`
	City    string `json:"city" binding:"required"`
	State   string `json:"state" binding:"required"`
	Pincode string `json:"pincode" binding:"required,pincode"`
}

func (a Address) toDocument() map[string]any {
	return map[string]any{
		"name":    a.Name,
		"phone":   a.Phone,
		"line1":   a.Line1,
		"line2":   a.Line2,
		"city":    a.City,
		"state":   a.State,
		"pincode": a.Pincode,
	}
}

// AddressFromDocument reads an address sub-record.
func AddressFromDocument(doc map[string]any) Address {
	return Address{
		Name:    FirstString(doc, "name", "Name", "fullName"),
		Phone:   FirstString(doc, "phone", "Phone", "mobile"),
		Line1:   FirstString(doc, "line1", "address", "Address", "street"),
		Line2:   FirstString(doc, "line2", "landmark"),
		City:    FirstString(doc, "city", "City"),
		State:   FirstString(doc, "state", "State"),
		Pincode: FirstString(doc, "pincode", "Pincode", "zip"),
	}
}

// OrderItem is the immutable snapshot of a cart line taken when the order was placed.
type OrderItem struct {
	ProductID   string    `json:"productId"`
	Quantity    int       `json:"quantity"`
	Price       float64   `json:"price"`
	Name        string    `json:"name"`
	Image       string    `json:"image,omitempty"`
	Category    string    `json:"category,omitempty"`
	SellerID    string    `json:"sellerId,omitempty"`
	Company     string    `json:"Company,omitempty"`
	Model       string    `json:"Model,omitempty"`
	Description string    `json:"Description,omitempty"`
	Color       string    `json:"Color,omitempty"`
	Material    string    `json:"Material,omitempty"`
	Warranty    *Warranty `json:"Warranty,omitempty"`
}

func (it OrderItem) toDocument() map[string]any {
	doc := map[string]any{
		"productId":   it.ProductID,
		"quantity":    int64(it.Quantity),
		"price":       it.Price,
		"name":        it.Name,
		"image":       it.Image,
		"category":    it.Category,
		"Company":     it.Company,
		"Model":       it.Model,
		"Description": it.Description,
		"Color":       it.Color,
		"Material":    it.Material,
		"Warranty":    nil,
	}
	if it.Warranty != nil {
		doc["Warranty"] = map[string]any{"period": it.Warranty.Period, "type": it.Warranty.Type}
	}
	if it.SellerID != "" {
		doc["sellerId"] = it.SellerID
	}
	return doc
}

// Order is a placed order. Items are snapshots and never change after creation.
type Order struct {
	ID              string      `json:"id"`
	UserID          string      `json:"userId"`
	Items           []OrderItem `json:"items"`
	Amount          float64     `json:"amount"`
	Tax             float64     `json:"tax"`
	Shipping        float64     `json:"shipping"`
	Status          OrderStatus `json:"status"`
	OrderDate       time.Time   `json:"orderDate"`
	PaymentMethod   string      `json:"paymentMethod"`
	PaymentID       string      `json:"paymentId,omitempty"`
	ShippingAddress Address     `json:"shippingAddress"`
	// SellerID is set when every line comes from the same seller.
	SellerID string `json:"sellerId,omitempty"`
	// StockTaken lists the units actually removed from each product at placement. It is nil
	// for orders whose document does not carry the record.
	StockTaken []StockMove `json:"-"`
}

// StockMove is a quantity taken from, or returned to, one product's stock.
type StockMove struct {
	Category  string
	ProductID string
	Quantity  int64
}

// SingleSeller returns the seller shared by every line, or "" when lines are unattributed
// or come from several sellers.
func SingleSeller(items []OrderItem) string {
	seller := ""
	for _, it := range items {
		if it.SellerID == "" || (seller != "" && it.SellerID != seller) {
			return ""
		}
		seller = it.SellerID
	}
	return seller
}

// Subtotal is the sum of price×quantity over the item snapshots.
func (o Order) Subtotal() float64 {
	return itemsSubtotal(o.Items).InexactFloat64()
}

// ToDocument renders the order with the document field names other readers of the
// orders collection depend on.
func (o Order) ToDocument() map[string]any {
	items := make([]any, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, it.toDocument())
	}
	doc := map[string]any{
		"userId":          o.UserID,
		"items":           items,
		"amount":          o.Amount,
		"tax":             o.Tax,
		"shipping":        o.Shipping,
		"status":          string(o.Status),
		"orderDate":       o.OrderDate,
		"paymentMethod":   o.PaymentMethod,
		"paymentId":       o.PaymentID,
		"shippingAddress": o.ShippingAddress.toDocument(),
	}
	if o.SellerID != "" {
		doc["sellerId"] = o.SellerID
	}
	if o.StockTaken != nil {
		moves := make([]any, 0, len(o.StockTaken))
		for _, m := range o.StockTaken {
			moves = append(moves, map[string]any{"category": m.Category, "productId": m.ProductID, "quantity": m.Quantity})
		}
		doc["stockTaken"] = moves
	}
	return doc
}

// OrderFromDocument reads an order document back into an Order.
func OrderFromDocument(id string, doc map[string]any) Order {
	o := Order{
		ID:            id,
		UserID:        FirstString(doc, "userId", "userID"),
		Status:        OrderStatus(FirstString(doc, "status")),
		PaymentMethod: FirstString(doc, "paymentMethod"),
		PaymentID:     FirstString(doc, "paymentId"),
		SellerID:      FirstString(doc, "sellerId", "sellerID"),
	}
	o.Amount, _ = Float(doc["amount"])
	o.Tax, _ = Float(doc["tax"])
	o.Shipping, _ = Float(doc["shipping"])
	if v, _, ok := First(doc, "orderDate", "createdAt"); ok {
		o.OrderDate, _ = Time(v)
	}
	if addr, ok := Map(doc["shippingAddress"]); ok {
		o.ShippingAddress = AddressFromDocument(addr)
	}
	raw, _ := Slice(doc["items"])
	for _, r := range raw {
		m, ok := Map(r)
		if !ok {
			continue
		}
		it := OrderItem{
			ProductID:   FirstString(m, "productId", "id"),
			Name:        FirstString(m, "name", "Name"),
			Image:       FirstString(m, "image"),
			Category:    FirstString(m, "category"),
			SellerID:    FirstString(m, "sellerId", "sellerID"),
			Company:     FirstString(m, "Company", "company"),
			Model:       FirstString(m, "Model", "model"),
			Description: FirstString(m, "Description", "description"),
			Color:       FirstString(m, "Color", "color"),
			Material:    FirstString(m, "Material", "material"),
		}
		if q, ok := Int(m["quantity"]); ok {
			it.Quantity = int(q)
		}
		it.Price, _ = Float(m["price"])
		if w, ok := Map(m["Warranty"]); ok {
			it.Warranty = &Warranty{Period: FirstString(w, "period"), Type: FirstString(w, "type")}
		}
		o.Items = append(o.Items, it)
	}
	if moves, ok := Slice(doc["stockTaken"]); ok {
		o.StockTaken = make([]StockMove, 0, len(moves))
		for _, r := range moves {
			m, ok := Map(r)
			if !ok {
				continue
			}
			q, _ := Int(m["quantity"])
			o.StockTaken = append(o.StockTaken, StockMove{
				Category:  FirstString(m, "category"),
				ProductID: FirstString(m, "productId"),
				Quantity:  q,
			})
		}
	}
	return o
}

// Pricing holds the charges applied on top of the item subtotal.
type Pricing struct {
	TaxRate          decimal.Decimal
	ShippingFee      decimal.Decimal
	FreeShippingOver decimal.Decimal
}

// Charges computes tax, shipping and the grand total for a subtotal. Tax is rounded to
// two decimal places. Shipping is waived when FreeShippingOver is positive and reached.
func (p Pricing) Charges(subtotal decimal.Decimal) (tax, shipping, amount decimal.Decimal) {
	tax = subtotal.Mul(p.TaxRate).Round(2)
	shipping = p.ShippingFee
	if p.FreeShippingOver.IsPositive() && subtotal.GreaterThanOrEqual(p.FreeShippingOver) {
		shipping = decimal.Zero
	}
	amount = subtotal.Add(tax).Add(shipping)
	return tax, shipping, amount
}

// NewOrder describes an order to be built from cart lines.
type NewOrder struct {
	ID            string
	UserID        string
	Items         []CartItem
	Address       Address
	PaymentMethod string
	PaymentID     string
	Status        OrderStatus
	PlacedAt      time.Time
}

// BuildOrder snapshots cart lines into an order and computes its charges. It performs no I/O.
func BuildOrder(in NewOrder, pricing Pricing) Order {
	items := make([]OrderItem, 0, len(in.Items))
	for _, ci := range in.Items {
		items = append(items, OrderItem{
			ProductID:   ci.ProductID,
			Quantity:    ci.Quantity,
			Price:       ci.Price,
			Name:        ci.Name,
			Image:       ci.Image,
			Category:    ci.Category,
			SellerID:    ci.SellerID,
			Company:     ci.Company,
			Model:       ci.Model,
			Description: ci.Description,
			Color:       ci.Color,
			Material:    ci.Material,
			Warranty:    copyWarranty(ci.Warranty),
		})
	}
	tax, shipping, amount := pricing.Charges(itemsSubtotal(items))
	return Order{
		ID:              in.ID,
		UserID:          in.UserID,
		Items:           items,
		Amount:          amount.InexactFloat64(),
		Tax:             tax.InexactFloat64(),
		Shipping:        shipping.InexactFloat64(),
		Status:          in.Status,
		OrderDate:       in.PlacedAt,
		PaymentMethod:   in.PaymentMethod,
		PaymentID:       in.PaymentID,
		ShippingAddress: in.Address,
		SellerID:        SingleSeller(items),
	}
}

func itemsSubtotal(items []OrderItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum
}

func copyWarranty(w *Warranty) *Warranty {
	if w == nil {
		return nil
	}
	c := *w
	return &c
}
