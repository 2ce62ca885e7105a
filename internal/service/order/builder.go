package order

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/kmerkulov/storefront/internal/models"
	"github.com/kmerkulov/storefront/internal/transport"
)

// validateCart rejects malformed carts before any transaction opens.
func validateCart(items []transport.OrderItemRequest) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: order must contain at least one item", ErrValidation)
	}
	for i := range items {
		if items[i].ProductID == 0 {
			return fmt.Errorf("%w: product_id must be a positive integer", ErrValidation)
		}
		if items[i].Quantity < 1 {
			return fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
		}
	}
	return nil
}

func distinctProductIDs(items []transport.OrderItemRequest) []uint {
	seen := make(map[uint]struct{}, len(items))
	ids := make([]uint, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}
	return ids
}

// buildAggregate prices the cart against the locked product snapshot. It is
// pure: no I/O, all writes happen after it in the same transaction. The price
// of each line is frozen here and never recomputed.
func buildAggregate(items []transport.OrderItemRequest, snapshot map[uint]models.Product) ([]models.OrderItem, decimal.Decimal, error) {
	lines := make([]models.OrderItem, 0, len(items))
	grandTotal := decimal.Zero

	for _, it := range items {
		product, ok := snapshot[it.ProductID]
		if !ok {
			return nil, decimal.Zero, fmt.Errorf("%w: product %d", ErrProductNotFound, it.ProductID)
		}
		if it.Quantity > product.StockQuantity {
			return nil, decimal.Zero, fmt.Errorf("%w: product %d: requested %d, available %d",
				ErrInsufficientStock, it.ProductID, it.Quantity, product.StockQuantity)
		}

		productID := it.ProductID
		lines = append(lines, models.OrderItem{
			ProductID:   &productID,
			Quantity:    it.Quantity,
			PriceAtTime: product.Price,
		})
		grandTotal = grandTotal.Add(product.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	return lines, grandTotal, nil
}
