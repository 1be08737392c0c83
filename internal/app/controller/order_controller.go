package controller

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/eshop-admin-backend/internal/app/model"
	"github.com/ikkim/eshop-admin-backend/internal/app/service"
	"github.com/ikkim/eshop-admin-backend/internal/errors"
	"github.com/ikkim/eshop-admin-backend/internal/middleware"
)

type OrderController struct {
	orderService service.OrderService
}

func NewOrderController(orderService service.OrderService) *OrderController {
	return &OrderController{
		orderService: orderService,
	}
}

type OrderItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,gt=0"`
}

type CreateOrderRequest struct {
	ShippingAddress1 string             `json:"shipping_address1" binding:"required"`
	ShippingAddress2 string             `json:"shipping_address2"`
	City             string             `json:"city" binding:"required"`
	Zip              string             `json:"zip" binding:"required"`
	Country          string             `json:"country" binding:"required"`
	Phone            string             `json:"phone" binding:"required"`
	Items            []OrderItemRequest `json:"items" binding:"required,dive"`
}

type UpdateOrderStatusRequest struct {
	Status model.OrderStatus `json:"status" binding:"required"`
}

// CreateOrder places an order for the authenticated user
// POST /api/v1/orders
func (ctrl *OrderController) CreateOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		errors.Unauthorized(c, "Authentication required")
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid order creation request", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		errors.BadRequest(c, errors.ValidationInvalidInput, "Invalid order data")
		return
	}

	items := make([]service.OrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.OrderItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	order, err := ctrl.orderService.CreateOrder(userID, service.OrderInput{
		ShippingAddress1: req.ShippingAddress1,
		ShippingAddress2: req.ShippingAddress2,
		City:             req.City,
		Zip:              req.Zip,
		Country:          req.Country,
		Phone:            req.Phone,
		Items:            items,
	})
	if err != nil {
		switch {
		case stderrors.Is(err, service.ErrOrderEmpty):
			errors.BadRequest(c, errors.OrderEmpty, "Order must contain at least one item")
		case stderrors.Is(err, service.ErrProductNotFound):
			errors.BadRequest(c, errors.ValidationInvalidRef, "Order references a product that does not exist")
		default:
			log.Error("Failed to create order", err, map[string]interface{}{
				"user_id": userID,
			})
			errors.InternalError(c, "Failed to create order")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"order": order,
	})
}

// GetAllOrders returns all orders, newest first (Admin only)
// GET /api/v1/orders
func (ctrl *OrderController) GetAllOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	orders, err := ctrl.orderService.GetAllOrders()
	if err != nil {
		log.Error("Failed to fetch orders", err, nil)
		errors.InternalError(c, "Failed to fetch orders")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// GetOrderByID returns a fully hydrated order (Admin only)
// GET /api/v1/orders/:id
func (ctrl *OrderController) GetOrderByID(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := ctrl.orderService.GetOrderByID(id)
	if err != nil {
		if stderrors.Is(err, service.ErrOrderNotFound) {
			errors.NotFound(c, errors.ResourceNotFound, "Order not found")
			return
		}
		log.Error("Failed to fetch order", err, map[string]interface{}{
			"order_id": id,
		})
		errors.InternalError(c, "Failed to fetch order")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order": order,
	})
}

// GetUserOrders returns the order history of one user
// GET /api/v1/orders/get/userorders/:userid
func (ctrl *OrderController) GetUserOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := parseIDParam(c, "userid")
	if !ok {
		return
	}

	orders, err := ctrl.orderService.GetUserOrders(userID)
	if err != nil {
		log.Error("Failed to fetch user orders", err, map[string]interface{}{
			"user_id": userID,
		})
		errors.InternalError(c, "Failed to fetch user orders")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// UpdateOrderStatus updates an order's status (Admin only)
// PUT /api/v1/orders/:id
func (ctrl *OrderController) UpdateOrderStatus(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid order status request", map[string]interface{}{
			"order_id": id,
			"error":    err.Error(),
		})
		errors.BadRequest(c, errors.ValidationInvalidInput, "Invalid status data")
		return
	}

	order, err := ctrl.orderService.UpdateOrderStatus(id, req.Status)
	if err != nil {
		switch {
		case stderrors.Is(err, service.ErrOrderNotFound):
			errors.NotFound(c, errors.ResourceNotFound, "Order not found")
		case stderrors.Is(err, service.ErrInvalidOrderStatus):
			errors.BadRequest(c, errors.ValidationInvalidInput, "Unknown order status")
		default:
			log.Error("Failed to update order status", err, map[string]interface{}{
				"order_id": id,
			})
			errors.InternalError(c, "Failed to update order status")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order": order,
	})
}

// DeleteOrder deletes an order and its items (Admin only)
// DELETE /api/v1/orders/:id
func (ctrl *OrderController) DeleteOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.orderService.DeleteOrder(id); err != nil {
		if stderrors.Is(err, service.ErrOrderNotFound) {
			errors.NotFound(c, errors.ResourceNotFound, "Order not found")
			return
		}
		log.Error("Failed to delete order", err, map[string]interface{}{
			"order_id": id,
		})
		errors.InternalError(c, "Failed to delete order")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order deleted successfully",
	})
}

// CountOrders returns the total order count (Admin only)
// GET /api/v1/orders/get/count
func (ctrl *OrderController) CountOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	count, err := ctrl.orderService.CountOrders()
	if err != nil {
		log.Error("Failed to count orders", err, nil)
		errors.InternalError(c, "Failed to count orders")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count": count,
	})
}

// TotalSales returns the revenue summed over all orders (Admin only)
// GET /api/v1/orders/get/totalsales
func (ctrl *OrderController) TotalSales(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	total, err := ctrl.orderService.TotalSales()
	if err != nil {
		log.Error("Failed to compute total sales", err, nil)
		errors.InternalError(c, "Failed to compute total sales")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_sales": total,
	})
}

// ExportOrders streams all orders as a spreadsheet download (Admin only)
// GET /api/v1/orders/get/export
func (ctrl *OrderController) ExportOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	data, err := ctrl.orderService.ExportOrders()
	if err != nil {
		log.Error("Failed to export orders", err, nil)
		errors.InternalError(c, "Failed to export orders")
		return
	}

	filename := fmt.Sprintf("orders-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
