package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/kmerkulov/storefront/internal/models"
	"github.com/kmerkulov/storefront/internal/repo"
	"github.com/kmerkulov/storefront/internal/transport"
)

var (
	ErrValidation = errors.New("validation") // 400
)

var minPrice = decimal.NewFromFloat(0.01)

type CatalogService struct {
	Repo *repo.GormRepo
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	return s.Repo.GetProduct(ctx, id)
}

func (s *CatalogService) GetProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.GetProducts(ctx, offset, limit)
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if req.Price.LessThan(minPrice) {
		return nil, fmt.Errorf("%w: price must be at least 0.01", ErrValidation)
	}
	if req.StockQuantity < 0 {
		return nil, fmt.Errorf("%w: stock_quantity cannot be negative", ErrValidation)
	}

	prod := models.Product{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		SKU:           req.SKU,
		IsActive:      true,
	}
	if err := s.Repo.CreateProduct(ctx, &prod); err != nil {
		return nil, err
	}
	return &prod, nil
}

func (s *CatalogService) PatchProduct(ctx context.Context, req transport.PatchProductRequest, id uint) (*models.Product, error) {
	if req.Price != nil && req.Price.LessThan(minPrice) {
		return nil, fmt.Errorf("%w: price must be at least 0.01", ErrValidation)
	}
	if req.StockQuantity != nil && *req.StockQuantity < 0 {
		return nil, fmt.Errorf("%w: stock_quantity cannot be negative", ErrValidation)
	}

	return s.Repo.PatchProduct(ctx, req, id)
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	return s.Repo.DeleteProduct(ctx, id)
}

func (s *CatalogService) AddImage(ctx context.Context, productID uint, req transport.AddProductImageRequest) (*models.ProductImage, error) {
	if req.URL == "" {
		return nil, fmt.Errorf("%w: url is required", ErrValidation)
	}
	if _, err := s.Repo.GetProduct(ctx, productID); err != nil {
		return nil, err
	}

	img := models.ProductImage{
		ProductID: productID,
		URL:       req.URL,
		AltText:   req.AltText,
	}
	if err := s.Repo.AddProductImage(ctx, &img); err != nil {
		return nil, err
	}
	return &img, nil
}

func (s *CatalogService) DeleteImage(ctx context.Context, productID, imageID uint) error {
	return s.Repo.DeleteProductImage(ctx, productID, imageID)
}
