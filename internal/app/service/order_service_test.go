package service

import (
	"bytes"
	"testing"

	"github.com/ikkim/eshop-admin-backend/internal/app/model"
	"github.com/ikkim/eshop-admin-backend/internal/app/repository"
	"github.com/ikkim/eshop-admin-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type orderServiceFixture struct {
	orderService OrderService
	db           *gorm.DB
	user         *model.User
	products     []model.Product
}

func setupOrderServiceTest(t *testing.T) *orderServiceFixture {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	user := &model.User{Name: "Buyer", Email: "buyer@example.com", PasswordHash: "x"}
	require.NoError(t, testDB.Create(user).Error)

	category := &model.Category{Name: "Electronics"}
	require.NoError(t, testDB.Create(category).Error)

	products := []model.Product{
		{Name: "Mouse", Description: "x", Price: 25, CategoryID: category.ID, CountInStock: 10},
		{Name: "Keyboard", Description: "x", Price: 60, CategoryID: category.ID, CountInStock: 10},
	}
	for i := range products {
		require.NoError(t, testDB.Create(&products[i]).Error)
	}

	orderRepo := repository.NewOrderRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)

	return &orderServiceFixture{
		orderService: NewOrderService(orderRepo, productRepo, testDB),
		db:           testDB,
		user:         user,
		products:     products,
	}
}

func testOrderInput(items ...OrderItemInput) OrderInput {
	return OrderInput{
		ShippingAddress1: "1 Main Street",
		City:             "Springfield",
		Zip:              "12345",
		Country:          "USA",
		Phone:            "555-0100",
		Items:            items,
	}
}

func TestOrderService_CreateOrder_TotalFromStoredPrices(t *testing.T) {
	f := setupOrderServiceTest(t)

	order, err := f.orderService.CreateOrder(f.user.ID, testOrderInput(
		OrderItemInput{ProductID: f.products[0].ID, Quantity: 2},
		OrderItemInput{ProductID: f.products[1].ID, Quantity: 1},
	))
	require.NoError(t, err)

	// 2 * 25 + 1 * 60
	assert.Equal(t, 110.0, order.TotalPrice)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	require.Len(t, order.OrderItems, 2)
	assert.Equal(t, "Mouse", order.OrderItems[0].Product.Name)
	assert.Equal(t, f.user.Email, order.User.Email)
}

func TestOrderService_CreateOrder_Empty(t *testing.T) {
	f := setupOrderServiceTest(t)

	order, err := f.orderService.CreateOrder(f.user.ID, testOrderInput())
	assert.ErrorIs(t, err, ErrOrderEmpty)
	assert.Nil(t, order)
}

func TestOrderService_CreateOrder_UnknownProductRollsBack(t *testing.T) {
	f := setupOrderServiceTest(t)

	order, err := f.orderService.CreateOrder(f.user.ID, testOrderInput(
		OrderItemInput{ProductID: f.products[0].ID, Quantity: 1},
		OrderItemInput{ProductID: 9999, Quantity: 1},
	))
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Nil(t, order)

	// Nothing from the failed order may persist
	var orderCount, itemCount int64
	require.NoError(t, f.db.Model(&model.Order{}).Count(&orderCount).Error)
	require.NoError(t, f.db.Model(&model.OrderItem{}).Count(&itemCount).Error)
	assert.Zero(t, orderCount)
	assert.Zero(t, itemCount)
}

func TestOrderService_CreateOrder_NonPositiveQuantity(t *testing.T) {
	f := setupOrderServiceTest(t)

	_, err := f.orderService.CreateOrder(f.user.ID, testOrderInput(
		OrderItemInput{ProductID: f.products[0].ID, Quantity: 0},
	))
	assert.ErrorIs(t, err, ErrOrderEmpty)
}

func TestOrderService_CreateOrder_PriceChangeDoesNotAffectPlacedOrder(t *testing.T) {
	f := setupOrderServiceTest(t)

	order, err := f.orderService.CreateOrder(f.user.ID, testOrderInput(
		OrderItemInput{ProductID: f.products[0].ID, Quantity: 3},
	))
	require.NoError(t, err)
	require.Equal(t, 75.0, order.TotalPrice)

	// Raising the price afterwards leaves the stored total alone
	require.NoError(t, f.db.Model(&model.Product{}).
		Where("id = ?", f.products[0].ID).
		Update("price", 99).Error)

	reloaded, err := f.orderService.GetOrderByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, 75.0, reloaded.TotalPrice)
}

func TestOrderService_GetUserOrders(t *testing.T) {
	f := setupOrderServiceTest(t)

	other := &model.User{Name: "Other", Email: "other@example.com", PasswordHash: "x"}
	require.NoError(t, f.db.Create(other).Error)

	_, err := f.orderService.CreateOrder(f.user.ID, testOrderInput(
		OrderItemInput{ProductID: f.products[0].ID, Quantity: 1},
	))
	require.NoError(t, err)
	_, err = f.orderService.CreateOrder(other.ID, testOrderInput(
		OrderItemInput{ProductID: f.products[1].ID, Quantity: 1},
	))
	require.NoError(t, err)

	orders, err := f.orderService.GetUserOrders(f.user.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, f.user.ID, orders[0].UserID)
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	f := setupOrderServiceTest(t)

	order, err := f.orderService.CreateOrder(f.user.ID, testOrderInput(
		OrderItemInput{ProductID: f.products[0].ID, Quantity: 1},
	))
	require.NoError(t, err)

	updated, err := f.orderService.UpdateOrderStatus(order.ID, model.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusShipped, updated.Status)

	_, err = f.orderService.UpdateOrderStatus(order.ID, model.OrderStatus("teleported"))
	assert.ErrorIs(t, err, ErrInvalidOrderStatus)

	_, err = f.orderService.UpdateOrderStatus(9999, model.OrderStatusShipped)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderService_DeleteOrder(t *testing.T) {
	f := setupOrderServiceTest(t)

	order, err := f.orderService.CreateOrder(f.user.ID, testOrderInput(
		OrderItemInput{ProductID: f.products[0].ID, Quantity: 2},
	))
	require.NoError(t, err)

	require.NoError(t, f.orderService.DeleteOrder(order.ID))

	_, err = f.orderService.GetOrderByID(order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	// Items go with the order
	var itemCount int64
	require.NoError(t, f.db.Model(&model.OrderItem{}).Count(&itemCount).Error)
	assert.Zero(t, itemCount)

	assert.ErrorIs(t, f.orderService.DeleteOrder(order.ID), ErrOrderNotFound)
}

func TestOrderService_CountAndTotalSales(t *testing.T) {
	f := setupOrderServiceTest(t)

	count, err := f.orderService.CountOrders()
	require.NoError(t, err)
	assert.Zero(t, count)

	total, err := f.orderService.TotalSales()
	require.NoError(t, err)
	assert.Zero(t, total)

	_, err = f.orderService.CreateOrder(f.user.ID, testOrderInput(
		OrderItemInput{ProductID: f.products[0].ID, Quantity: 2},
	))
	require.NoError(t, err)
	_, err = f.orderService.CreateOrder(f.user.ID, testOrderInput(
		OrderItemInput{ProductID: f.products[1].ID, Quantity: 1},
	))
	require.NoError(t, err)

	count, err = f.orderService.CountOrders()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	total, err = f.orderService.TotalSales()
	require.NoError(t, err)
	assert.Equal(t, 110.0, total)
}

func TestOrderService_ExportOrders(t *testing.T) {
	f := setupOrderServiceTest(t)

	_, err := f.orderService.CreateOrder(f.user.ID, testOrderInput(
		OrderItemInput{ProductID: f.products[0].ID, Quantity: 2},
		OrderItemInput{ProductID: f.products[1].ID, Quantity: 1},
	))
	require.NoError(t, err)

	data, err := f.orderService.ExportOrders()
	require.NoError(t, err)
	require.NotEmpty(t, data)

	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows(book.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Order ID", rows[0][0])
	assert.Contains(t, rows[1][6], "Mouse x 2")
	assert.Equal(t, "110", rows[1][7])
}
