package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/kmerkulov/storefront/internal/logging"
	"github.com/kmerkulov/storefront/internal/models"
	"github.com/kmerkulov/storefront/internal/repo"
	"github.com/kmerkulov/storefront/internal/transport"
)

var (
	ErrValidation        = errors.New("validation")         // 400
	ErrNotFound          = errors.New("order not found")    // 404
	ErrProductNotFound   = errors.New("product not found")  // 404
	ErrInsufficientStock = errors.New("insufficient stock") // 409
)

type OrderService struct {
	Repo *repo.GormRepo
}

// PlaceOrder runs the whole placement as one transaction: lock the referenced
// products, price the cart, persist the order header and its items, decrement
// stock. Any failure rolls everything back; nothing is retried.
func (s *OrderService) PlaceOrder(ctx context.Context, userID uint, req transport.CreateOrderRequest) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.place_order", "user_id", userID)

	if err := validateCart(req.Items); err != nil {
		return nil, err
	}

	var orderID uint
	txErr := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		snapshot, err := tx.ProductsForUpdate(ctx, distinctProductIDs(req.Items))
		if err != nil {
			return err
		}

		lines, total, err := buildAggregate(req.Items, snapshot)
		if err != nil {
			return err
		}

		order := models.Order{
			UserID:          userID,
			Total:           total,
			Status:          models.OrderStatusPending,
			ShippingAddress: req.ShippingAddress,
		}
		if err := tx.CreateOrder(ctx, &order); err != nil {
			return err
		}

		for i := range lines {
			lines[i].OrderID = order.ID
		}
		if err := tx.CreateOrderItems(ctx, lines); err != nil {
			return err
		}

		for _, line := range lines {
			if err := tx.DecrementStock(ctx, *line.ProductID, line.Quantity); err != nil {
				if errors.Is(err, repo.ErrStockConflict) {
					return fmt.Errorf("%w: product %d", ErrInsufficientStock, *line.ProductID)
				}
				return err
			}
		}

		orderID = order.ID
		return nil
	})
	if txErr != nil {
		l.Warn("place_order_rolled_back", "error", txErr)
		return nil, txErr
	}

	l.Info("order_created", "order_id", orderID, "items", len(req.Items))
	return s.Repo.GetOrderWithDetails(ctx, orderID)
}

// GetOrder returns the order only to its owner; a foreign order id is
// indistinguishable from a missing one.
func (s *OrderService) GetOrder(ctx context.Context, orderID, userID uint) (*models.Order, error) {
	order, err := s.Repo.GetOrderForUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

func (s *OrderService) ListMyOrders(ctx context.Context, userID uint, offset, limit int) (int64, []models.Order, error) {
	return s.Repo.ListOrdersForUser(ctx, userID, offset, limit)
}

// Sort fields the admin listing accepts. Anything else falls back to the
// default ordering instead of reaching SQL.
var sortFields = map[string]string{
	"total":     "total",
	"createdAt": "created_at",
	"status":    "status",
}

const defaultOrderBy = "created_at DESC"

func orderByClause(sort string) string {
	field, direction, found := strings.Cut(sort, ":")
	if !found {
		direction = "asc"
	}

	column, ok := sortFields[field]
	if !ok {
		return defaultOrderBy
	}
	if strings.EqualFold(direction, "desc") {
		return column + " DESC"
	}
	return column + " ASC"
}

func (s *OrderService) ListAllOrders(ctx context.Context, query transport.AdminOrdersQuery, offset, limit int) (int64, []models.Order, error) {
	if query.Status != "" && !models.OrderStatus(query.Status).Valid() {
		return 0, nil, fmt.Errorf("%w: unknown status %q", ErrValidation, query.Status)
	}

	orderBy := defaultOrderBy
	if query.Sort != "" {
		orderBy = orderByClause(query.Sort)
	}

	return s.Repo.ListAllOrders(ctx, query.Status, orderBy, offset, limit)
}

// UpdateStatus is a plain field update: the enum is validated, but no
// transition graph is enforced between statuses.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uint, status string) (*models.Order, error) {
	newStatus := models.OrderStatus(status)
	if !newStatus.Valid() {
		return nil, fmt.Errorf("%w: invalid status %q", ErrValidation, status)
	}

	order, err := s.Repo.UpdateOrderStatus(ctx, orderID, newStatus)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return order, nil
}
