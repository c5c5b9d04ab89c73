package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/example/storefront/internal/catalog"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/pkg/media"
)

type sellerService struct {
	products Catalog
	users    UserService
	uploader media.Uploader
	logger   *zap.Logger
}

// NewSellerService creates the seller listing service. uploader may be nil, in which case
// submissions with an image file are rejected.
func NewSellerService(products Catalog, users UserService, uploader media.Uploader, logger *zap.Logger) SellerService {
	return &sellerService{products: products, users: users, uploader: uploader, logger: logger}
}

// SubmitProduct lists a new product for the session user. The seller sub-record is filled
// from the user's seller profile, or from the request when the user has none yet.
func (s *sellerService) SubmitProduct(ctx context.Context, session *models.Session, req models.SubmitProductRequest, image io.Reader) (*models.Product, error) {
	if !session.SignedIn() {
		return nil, ErrUnauthenticated
	}
	user, _, err := s.users.GetOrCreate(ctx, session)
	if err != nil {
		return nil, err
	}

	seller := models.SellerInfo{Email: session.UserID}
	if user.IsSeller() {
		seller.Name = user.SellerProfile.StoreName
		seller.Phone = user.SellerProfile.Phone
		seller.Address = user.SellerProfile.Address
	}
	if strings.TrimSpace(req.StoreName) != "" {
		seller.Name = strings.TrimSpace(req.StoreName)
	}
	if req.SellerPhone != "" {
		seller.Phone = req.SellerPhone
	}
	if req.SellerAddress != "" {
		seller.Address = req.SellerAddress
	}
	if seller.Name == "" {
		return nil, ErrSellerProfileRequired
	}

	p := models.Product{
		Category:    req.Category,
		Name:        strings.TrimSpace(req.Name),
		Company:     req.Company,
		Model:       req.Model,
		Description: req.Description,
		Color:       req.Color,
		Material:    req.Material,
		Price:       req.Price,
		StockCount:  req.Stock,
		Seller:      seller,
		SellerID:    session.UserID,
		Warranty:    req.Warranty,
		Images:      append([]string(nil), req.Images...),
	}
	if !models.IsCategory(p.Category) {
		return nil, fmt.Errorf("%w: %q", catalog.ErrUnknownCategory, p.Category)
	}

	if image != nil {
		if s.uploader == nil {
			return nil, media.ErrNotConfigured
		}
		img, err := s.uploader.Upload(ctx, image, "products/"+strings.ToLower(p.Category))
		if err != nil {
			return nil, err
		}
		p.Images = append([]string{img.URL}, p.Images...)
		p.ImagePublicID = img.PublicID
	}

	created, err := s.products.AddProduct(ctx, p)
	if err != nil {
		if p.ImagePublicID != "" {
			if derr := s.uploader.Delete(ctx, p.ImagePublicID); derr != nil {
				s.logger.Warn("Failed to remove orphaned image", zap.String("public_id", p.ImagePublicID), zap.Error(derr))
			}
		}
		return nil, err
	}

	if !user.IsSeller() {
		profile := &models.SellerProfile{StoreName: seller.Name, Phone: seller.Phone, Address: seller.Address}
		if _, err := s.users.UpdateProfile(ctx, session, models.UpdateProfileRequest{SellerProfile: profile}); err != nil {
			s.logger.Warn("Failed to save seller profile", zap.String("user", session.UserID), zap.Error(err))
		}
	}
	s.logger.Info("Product submitted",
		zap.String("category", created.Category),
		zap.String("product_id", created.ID),
		zap.String("seller", session.UserID))
	return created, nil
}

// DeleteProduct removes a product and its uploaded image. Admin only.
func (s *sellerService) DeleteProduct(ctx context.Context, session *models.Session, category, id string) error {
	if !session.SignedIn() {
		return ErrUnauthenticated
	}
	if !session.IsAdmin {
		return ErrForbidden
	}
	deleted, err := s.products.DeleteProduct(ctx, category, id)
	if err != nil {
		return err
	}
	if deleted.ImagePublicID != "" && s.uploader != nil {
		if err := s.uploader.Delete(ctx, deleted.ImagePublicID); err != nil && !errors.Is(err, media.ErrNotConfigured) {
			s.logger.Warn("Failed to delete product image", zap.String("public_id", deleted.ImagePublicID), zap.Error(err))
		}
	}
	s.logger.Info("Product deleted", zap.String("category", category), zap.String("product_id", id), zap.String("by", session.UserID))
	return nil
}
