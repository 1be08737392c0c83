package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ikkim/eshop-admin-backend/internal/app/model"
	"github.com/ikkim/eshop-admin-backend/internal/app/repository"
	"github.com/ikkim/eshop-admin-backend/pkg/logger"
	"github.com/ikkim/eshop-admin-backend/pkg/redis"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderEmpty         = errors.New("order has no items")
	ErrInvalidOrderStatus = errors.New("invalid order status")
)

// statsCacheTTL bounds how stale the cached dashboard counters may get.
const statsCacheTTL = 30 * time.Second

// OrderItemInput is one requested line of a new order.
type OrderItemInput struct {
	ProductID uint
	Quantity  int
}

// OrderInput carries the shipping details and item list for a new order.
type OrderInput struct {
	ShippingAddress1 string
	ShippingAddress2 string
	City             string
	Zip              string
	Country          string
	Phone            string
	Items            []OrderItemInput
}

type OrderService interface {
	CreateOrder(userID uint, input OrderInput) (*model.Order, error)
	GetAllOrders() ([]model.Order, error)
	GetOrderByID(id uint) (*model.Order, error)
	GetUserOrders(userID uint) ([]model.Order, error)
	UpdateOrderStatus(id uint, status model.OrderStatus) (*model.Order, error)
	DeleteOrder(id uint) error
	CountOrders() (int64, error)
	TotalSales() (float64, error)
	ExportOrders() ([]byte, error)
}

type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	db          *gorm.DB
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	db *gorm.DB,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		db:          db,
	}
}

// CreateOrder persists the order and its items in one transaction. The total
// is computed from the product prices read inside that transaction, never from
// client-supplied figures, so a concurrent price change either lands entirely
// before or entirely after this order.
func (s *orderService) CreateOrder(userID uint, input OrderInput) (*model.Order, error) {
	if len(input.Items) == 0 {
		logger.Warn("Cannot create order: no items", map[string]interface{}{
			"user_id": userID,
		})
		return nil, ErrOrderEmpty
	}

	logger.Info("Creating order", map[string]interface{}{
		"user_id":    userID,
		"item_count": len(input.Items),
	})

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic during order creation, rolling back", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"user_id": userID,
			})
		}
	}()

	var (
		totalPrice float64
		orderItems []model.OrderItem
	)
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			tx.Rollback()
			logger.Warn("Order creation failed: non-positive quantity", map[string]interface{}{
				"user_id":    userID,
				"product_id": item.ProductID,
				"quantity":   item.Quantity,
			})
			return nil, ErrOrderEmpty
		}

		var product model.Product
		if err := tx.First(&product, item.ProductID).Error; err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				logger.Warn("Product not found during order creation", map[string]interface{}{
					"user_id":    userID,
					"product_id": item.ProductID,
				})
				return nil, ErrProductNotFound
			}
			logger.Error("Failed to fetch product during order creation", err, map[string]interface{}{
				"user_id":    userID,
				"product_id": item.ProductID,
			})
			return nil, err
		}

		orderItems = append(orderItems, model.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
		totalPrice += product.Price * float64(item.Quantity)
	}

	order := &model.Order{
		ShippingAddress1: input.ShippingAddress1,
		ShippingAddress2: input.ShippingAddress2,
		City:             input.City,
		Zip:              input.Zip,
		Country:          input.Country,
		Phone:            input.Phone,
		Status:           model.OrderStatusPending,
		TotalPrice:       totalPrice,
		UserID:           userID,
		OrderItems:       orderItems,
	}

	if err := tx.Create(order).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to create order", err, map[string]interface{}{
			"user_id":     userID,
			"total_price": totalPrice,
		})
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit order transaction", err, map[string]interface{}{
			"user_id":  userID,
			"order_id": order.ID,
		})
		return nil, err
	}

	s.invalidateStats()

	logger.Info("Order created successfully", map[string]interface{}{
		"user_id":     userID,
		"order_id":    order.ID,
		"total_price": totalPrice,
		"item_count":  len(orderItems),
	})

	return s.orderRepo.FindByID(order.ID)
}

func (s *orderService) GetAllOrders() ([]model.Order, error) {
	return s.orderRepo.FindAll()
}

func (s *orderService) GetOrderByID(id uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (s *orderService) GetUserOrders(userID uint) ([]model.Order, error) {
	return s.orderRepo.FindByUserID(userID)
}

func (s *orderService) UpdateOrderStatus(id uint, status model.OrderStatus) (*model.Order, error) {
	if !status.Valid() {
		logger.Warn("Rejected unknown order status", map[string]interface{}{
			"order_id": id,
			"status":   status,
		})
		return nil, ErrInvalidOrderStatus
	}

	if err := s.orderRepo.UpdateStatus(id, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	logger.Info("Order status updated", map[string]interface{}{
		"order_id": id,
		"status":   status,
	})
	return s.orderRepo.FindByID(id)
}

func (s *orderService) DeleteOrder(id uint) error {
	if err := s.orderRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		return err
	}

	s.invalidateStats()

	logger.Info("Order deleted successfully", map[string]interface{}{
		"order_id": id,
	})
	return nil
}

func (s *orderService) CountOrders() (int64, error) {
	if cached, ok := s.cachedStat(redis.StatOrderCount); ok {
		if count, err := strconv.ParseInt(cached, 10, 64); err == nil {
			return count, nil
		}
	}

	count, err := s.orderRepo.Count()
	if err != nil {
		return 0, err
	}
	s.cacheStat(redis.StatOrderCount, strconv.FormatInt(count, 10))
	return count, nil
}

func (s *orderService) TotalSales() (float64, error) {
	if cached, ok := s.cachedStat(redis.StatTotalSales); ok {
		if total, err := strconv.ParseFloat(cached, 64); err == nil {
			return total, nil
		}
	}

	total, err := s.orderRepo.TotalSales()
	if err != nil {
		return 0, err
	}
	s.cacheStat(redis.StatTotalSales, strconv.FormatFloat(total, 'f', -1, 64))
	return total, nil
}

// ExportOrders renders every order as one spreadsheet row, items flattened
// into a "name x qty" list.
func (s *orderService) ExportOrders() ([]byte, error) {
	orders, err := s.orderRepo.FindAll()
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	headers := []string{"Order ID", "Customer", "Email", "City", "Country", "Status", "Items", "Total Price", "Created At"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
	}

	for row, order := range orders {
		items := ""
		for i, item := range order.OrderItems {
			if i > 0 {
				items += ", "
			}
			items += fmt.Sprintf("%s x %d", item.Product.Name, item.Quantity)
		}

		values := []interface{}{
			order.ID,
			order.User.Name,
			order.User.Email,
			order.City,
			order.Country,
			string(order.Status),
			items,
			order.TotalPrice,
			order.CreatedAt.Format(time.RFC3339),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		logger.Error("Failed to render order export", err, nil)
		return nil, err
	}

	logger.Info("Orders exported", map[string]interface{}{
		"count": len(orders),
	})
	return buf.Bytes(), nil
}

func (s *orderService) cachedStat(key string) (string, bool) {
	if redis.GetClient() == nil {
		return "", false
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	value, found, err := redis.GetStat(ctx, key)
	if err != nil || !found {
		return "", false
	}
	return value, true
}

func (s *orderService) cacheStat(key, value string) {
	if redis.GetClient() == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := redis.SetStat(ctx, key, value, statsCacheTTL); err != nil {
		logger.Warn("Failed to cache order stat", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}

func (s *orderService) invalidateStats() {
	if redis.GetClient() == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := redis.InvalidateStats(ctx); err != nil {
		logger.Warn("Failed to invalidate cached order stats", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
