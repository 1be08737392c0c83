package repository

import (
	"github.com/ikkim/eshop-admin-backend/internal/app/model"
	"github.com/ikkim/eshop-admin-backend/pkg/logger"
	"gorm.io/gorm"
)

type OrderRepository interface {
	FindAll() ([]model.Order, error)
	FindByID(id uint) (*model.Order, error)
	FindByUserID(userID uint) ([]model.Order, error)
	UpdateStatus(id uint, status model.OrderStatus) error
	Delete(id uint) error
	Count() (int64, error)
	TotalSales() (float64, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// preloadOrder hydrates an order down to each item's product and its category.
func (r *orderRepository) preloadOrder() *gorm.DB {
	return r.db.Preload("OrderItems", func(db *gorm.DB) *gorm.DB {
		return db.Preload("Product", func(pdb *gorm.DB) *gorm.DB {
			return pdb.Preload("Category")
		})
	}).Preload("User")
}

func (r *orderRepository) FindAll() ([]model.Order, error) {
	var orders []model.Order
	if err := r.preloadOrder().Order("created_at DESC").Find(&orders).Error; err != nil {
		logger.Error("Failed to find orders in database", err, nil)
		return nil, err
	}

	logger.Debug("Orders found in database", map[string]interface{}{
		"count": len(orders),
	})
	return orders, nil
}

func (r *orderRepository) FindByID(id uint) (*model.Order, error) {
	logger.Debug("Finding order by ID in database", map[string]interface{}{
		"order_id": id,
	})

	var order model.Order
	if err := r.preloadOrder().First(&order, id).Error; err != nil {
		logger.Error("Failed to find order by ID in database", err, map[string]interface{}{
			"order_id": id,
		})
		return nil, err
	}

	return &order, nil
}

func (r *orderRepository) FindByUserID(userID uint) ([]model.Order, error) {
	logger.Debug("Finding orders by user ID in database", map[string]interface{}{
		"user_id": userID,
	})

	var orders []model.Order
	if err := r.preloadOrder().Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		logger.Error("Failed to find orders by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	return orders, nil
}

func (r *orderRepository) UpdateStatus(id uint, status model.OrderStatus) error {
	logger.Debug("Updating order status in database", map[string]interface{}{
		"order_id": id,
		"status":   status,
	})

	result := r.db.Model(&model.Order{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		logger.Error("Failed to update order status in database", result.Error, map[string]interface{}{
			"order_id": id,
			"status":   status,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// Delete removes an order together with its items in a single transaction.
func (r *orderRepository) Delete(id uint) error {
	logger.Debug("Deleting order from database", map[string]interface{}{
		"order_id": id,
	})

	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&model.Order{}, id)
		if result.Error != nil {
			logger.Error("Failed to delete order from database", result.Error, map[string]interface{}{
				"order_id": id,
			})
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := tx.Where("order_id = ?", id).Delete(&model.OrderItem{}).Error; err != nil {
			logger.Error("Failed to delete order items from database", err, map[string]interface{}{
				"order_id": id,
			})
			return err
		}

		logger.Debug("Order deleted from database", map[string]interface{}{
			"order_id": id,
		})
		return nil
	})
}

func (r *orderRepository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&model.Order{}).Count(&count).Error; err != nil {
		logger.Error("Failed to count orders in database", err, nil)
		return 0, err
	}
	return count, nil
}

// TotalSales sums TotalPrice over every live order.
func (r *orderRepository) TotalSales() (float64, error) {
	var total float64
	if err := r.db.Model(&model.Order{}).
		Select("COALESCE(SUM(total_price), 0)").
		Scan(&total).Error; err != nil {
		logger.Error("Failed to compute total sales in database", err, nil)
		return 0, err
	}
	return total, nil
}
