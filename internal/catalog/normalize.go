package catalog

import (
	"errors"
	"fmt"
	"time"

	"github.com/example/storefront/internal/models"
)

// ErrInvalidProduct is returned by Normalize for records that cannot be sold.
var ErrInvalidProduct = errors.New("invalid product record")

// Field lookup order for each canonical field. Older documents were written with
// Capitalized keys and a few legacy names; the first key present wins.
var (
	nameKeys        = []string{"name", "Name", "productName", "title", "Title"}
	companyKeys     = []string{"company", "Company", "brand", "Brand"}
	modelKeys       = []string{"model", "Model"}
	descriptionKeys = []string{"description", "Description", "desc"}
	colorKeys       = []string{"color", "Color", "colour"}
	materialKeys    = []string{"material", "Material"}
	priceKeys       = []string{"price", "Price", "mrp"}
	stockKeys       = []string{"stock", "Stock", "stockCount", "StockCount", "quantity", "Quantity"}
	stockFlagKeys   = []string{"inStock", "InStock", "in_stock", "available"}
	sellerKeys      = []string{"seller", "Seller", "sellerInfo"}
	sellerIDKeys    = []string{"sellerId", "sellerID", "SellerId"}
	warrantyKeys    = []string{"warranty", "Warranty"}
	imagesKeys      = []string{"images", "Images"}
	imageKeys       = []string{"image", "Image", "imageUrl", "imageURL"}
	createdAtKeys   = []string{"createdAt", "CreatedAt", "timestamp"}
)

// StockField returns the key holding the stock count in raw, defaulting to "stock".
func StockField(raw map[string]any) string {
	if _, key, ok := models.First(raw, stockKeys...); ok {
		return key
	}
	return stockKeys[0]
}

// StockFlagField returns the key holding the in-stock flag in raw, defaulting to "inStock".
func StockFlagField(raw map[string]any) string {
	if _, key, ok := models.First(raw, stockFlagKeys...); ok {
		return key
	}
	return stockFlagKeys[0]
}

// StockCount reads the stock count of raw. Missing or unreadable counts are 0.
func StockCount(raw map[string]any) int64 {
	v, _, ok := models.First(raw, stockKeys...)
	if !ok {
		return 0
	}
	n, _ := models.Int(v)
	if n < 0 {
		return 0
	}
	return n
}

// Normalize maps a raw product document read from the category collection into a Product.
// Category is always set to the collection name. Records without a positive price are
// rejected with ErrInvalidProduct.
func Normalize(category, id string, raw map[string]any) (models.Product, error) {
	p := models.Product{
		ID:          id,
		Category:    category,
		Name:        models.FirstString(raw, nameKeys...),
		Company:     models.FirstString(raw, companyKeys...),
		Model:       models.FirstString(raw, modelKeys...),
		Description: models.FirstString(raw, descriptionKeys...),
		Color:       models.FirstString(raw, colorKeys...),
		Material:    models.FirstString(raw, materialKeys...),
		SellerID:    models.FirstString(raw, sellerIDKeys...),
		StockCount:  StockCount(raw),
	}

	v, _, ok := models.First(raw, priceKeys...)
	if !ok {
		return p, fmt.Errorf("%w: %s/%s has no price", ErrInvalidProduct, category, id)
	}
	price, ok := models.Float(v)
	if !ok || price <= 0 {
		return p, fmt.Errorf("%w: %s/%s has price %v", ErrInvalidProduct, category, id, v)
	}
	p.Price = price

	if flag, _, ok := models.First(raw, stockFlagKeys...); ok {
		p.InStock, _ = models.Bool(flag)
	} else {
		p.InStock = p.StockCount > 0
	}

	p.Seller = normalizeSeller(raw)
	if p.SellerID == "" {
		p.SellerID = p.Seller.Email
	}
	p.Warranty = normalizeWarranty(raw)
	p.Images = normalizeImages(raw)
	p.ImagePublicID = models.FirstString(raw, "imagePublicId")

	if v, _, ok := models.First(raw, createdAtKeys...); ok {
		if t, ok := models.Time(v); ok {
			p.CreatedAt = &t
		}
	}
	return p, nil
}

func normalizeSeller(raw map[string]any) models.SellerInfo {
	if v, _, ok := models.First(raw, sellerKeys...); ok {
		if m, ok := models.Map(v); ok {
			return models.SellerInfo{
				Name:    models.FirstString(m, "name", "Name", "storeName"),
				Email:   models.FirstString(m, "email", "Email", "contact"),
				Phone:   models.FirstString(m, "phone", "Phone", "contactNumber"),
				Address: models.FirstString(m, "address", "Address"),
			}
		}
		if name, ok := models.String(v); ok {
			return models.SellerInfo{Name: name}
		}
	}
	return models.SellerInfo{
		Name:    models.FirstString(raw, "sellerName", "SellerName"),
		Email:   models.FirstString(raw, "sellerEmail", "SellerEmail"),
		Phone:   models.FirstString(raw, "sellerPhone", "SellerPhone"),
		Address: models.FirstString(raw, "sellerAddress", "SellerAddress"),
	}
}

func normalizeWarranty(raw map[string]any) *models.Warranty {
	v, _, ok := models.First(raw, warrantyKeys...)
	if !ok {
		return nil
	}
	if m, ok := models.Map(v); ok {
		w := models.Warranty{
			Period: models.FirstString(m, "period", "Period", "duration"),
			Type:   models.FirstString(m, "type", "Type"),
		}
		if w.Period == "" && w.Type == "" {
			return nil
		}
		return &w
	}
	if s, ok := models.String(v); ok && s != "" {
		return &models.Warranty{Period: s}
	}
	return nil
}

func normalizeImages(raw map[string]any) []string {
	var images []string
	if v, _, ok := models.First(raw, imagesKeys...); ok {
		list, _ := models.Slice(v)
		for _, e := range list {
			if s, ok := models.String(e); ok && s != "" {
				images = append(images, s)
			}
		}
	}
	if len(images) == 0 {
		if s := models.FirstString(raw, imageKeys...); s != "" {
			images = []string{s}
		}
	}
	return images
}

// newProductDocument renders a product for a fresh write.
func newProductDocument(p models.Product, now time.Time) map[string]any {
	p.CreatedAt = &now
	return p.ToDocument()
}
