package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/iudanet/shopapp/internal/models"
	"github.com/iudanet/shopapp/internal/server/storage/sqlite"
	"github.com/iudanet/shopapp/internal/validation"
	"github.com/iudanet/shopapp/pkg/api"
)

type orderFixture struct {
	h       *OrderHandler
	s       *sqlite.Storage
	owner   *models.User
	other   *models.User
	admin   *models.User
	product *models.Product
}

func setupOrderHandler(t *testing.T) *orderFixture {
	t.Helper()

	ctx := context.Background()
	s := setupTestStorage(t)

	newUser := func(phone string, role models.Role) *models.User {
		u := &models.User{FullName: "User " + phone, PhoneNumber: phone, Role: role}
		require.NoError(t, s.CreateUser(ctx, u))
		return u
	}
	userRole := models.Role{ID: 1, Name: models.RoleUser}

	category := &models.Category{Name: "Laptops"}
	require.NoError(t, s.CreateCategory(ctx, category))
	product := &models.Product{Name: "Notebook", Price: 250, CategoryID: category.ID}
	require.NoError(t, s.CreateProduct(ctx, product))

	h := NewOrderHandler(setupTestLogger(), validation.New(), s, s, s)
	h.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }

	return &orderFixture{
		h:       h,
		s:       s,
		owner:   newUser("0911111111", userRole),
		other:   newUser("0922222222", userRole),
		admin:   newUser("0933333333", models.Role{ID: 2, Name: models.RoleAdmin}),
		product: product,
	}
}

func (f *orderFixture) orderRequest(shippingDate string, items ...api.CartItem) api.OrderRequest {
	req := api.OrderRequest{
		UserID:      f.owner.ID,
		FullName:    "Buyer",
		PhoneNumber: "0911111111",
		Address:     "1 Main St",
		CartItems:   items,
		TotalMoney:  1,
	}
	if shippingDate != "" {
		d, _ := time.Parse(api.DateLayout, shippingDate)
		req.ShippingDate = &api.Date{Time: d}
	}
	return req
}

func TestOrderHandler_Create(t *testing.T) {
	f := setupOrderHandler(t)

	tests := []struct {
		name           string
		caller         *models.User
		req            api.OrderRequest
		expectedStatus int
		expectedTotal  float64
	}{
		{
			name:           "total from cart",
			caller:         f.owner,
			req:            f.orderRequest("", api.CartItem{ProductID: f.product.ID, Quantity: 3, Color: "red"}),
			expectedStatus: http.StatusCreated,
			expectedTotal:  750,
		},
		{
			name:           "shipping today is allowed",
			caller:         f.owner,
			req:            f.orderRequest("2026-03-10"),
			expectedStatus: http.StatusCreated,
			expectedTotal:  1,
		},
		{
			name:           "shipping date in the past",
			caller:         f.owner,
			req:            f.orderRequest("2026-03-09"),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown product",
			caller:         f.owner,
			req:            f.orderRequest("", api.CartItem{ProductID: 999, Quantity: 1}),
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "order for another user",
			caller:         f.other,
			req:            f.orderRequest(""),
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "admin orders for a user",
			caller:         f.admin,
			req:            f.orderRequest(""),
			expectedStatus: http.StatusCreated,
			expectedTotal:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			f.h.Create(w, jsonRequest(t, http.MethodPost, "/api/v1/orders", tt.req, tt.caller))

			require.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus != http.StatusCreated {
				return
			}

			var order models.Order
			require.NoError(t, json.NewDecoder(w.Body).Decode(&order))
			assert.Equal(t, tt.expectedTotal, order.TotalMoney)
			assert.Equal(t, models.OrderStatusPending, order.Status)
			assert.True(t, order.Active)
			assert.Equal(t, "1 Main St", order.ShippingAddress)
			assert.False(t, order.ShippingDate.Before(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)))
			assert.Len(t, order.Details, len(tt.req.CartItems))
		})
	}
}

func TestOrderHandler_Access(t *testing.T) {
	f := setupOrderHandler(t)
	ctx := context.Background()

	order := &models.Order{
		UserID: f.owner.ID, PhoneNumber: "0911111111", Address: "a",
		Status: models.OrderStatusPending, OrderDate: f.h.now(), ShippingDate: f.h.now(), Active: true,
	}
	require.NoError(t, f.s.CreateOrder(ctx, order))

	tests := []struct {
		name           string
		caller         *models.User
		expectedStatus int
	}{
		{name: "owner", caller: f.owner, expectedStatus: http.StatusOK},
		{name: "admin", caller: f.admin, expectedStatus: http.StatusOK},
		{name: "other user", caller: f.other, expectedStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := fmt.Sprint(order.ID)
			req := jsonRequest(t, http.MethodGet, "/api/v1/orders/"+id, nil, tt.caller)
			req.SetPathValue("id", id)
			w := httptest.NewRecorder()
			f.h.Get(w, req)
			assert.Equal(t, tt.expectedStatus, w.Code)

			userID := fmt.Sprint(f.owner.ID)
			req = jsonRequest(t, http.MethodGet, "/api/v1/orders/user/"+userID, nil, tt.caller)
			req.SetPathValue("user_id", userID)
			w = httptest.NewRecorder()
			f.h.ByUser(w, req)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestOrderHandler_DeleteHidesFromSearch(t *testing.T) {
	f := setupOrderHandler(t)
	ctx := context.Background()

	order := &models.Order{
		UserID: f.owner.ID, FullName: "Findable", PhoneNumber: "0911111111", Address: "a",
		Status: models.OrderStatusPending, OrderDate: f.h.now(), ShippingDate: f.h.now(), Active: true,
	}
	require.NoError(t, f.s.CreateOrder(ctx, order))

	search := func() api.OrderListResponse {
		w := httptest.NewRecorder()
		f.h.Search(w, httptest.NewRequest(http.MethodGet, "/api/v1/orders/search?keyword=Findable", nil))
		require.Equal(t, http.StatusOK, w.Code)
		var resp api.OrderListResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		return resp
	}
	assert.Equal(t, 1, search().TotalItems)

	id := fmt.Sprint(order.ID)
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/orders/"+id, nil)
	req.SetPathValue("id", id)
	w := httptest.NewRecorder()
	f.h.Delete(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 0, search().TotalItems)

	stored, err := f.s.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)
}

func TestOrdersWorkbook(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	orders := []*models.Order{
		{ID: 1, UserID: 5, FullName: "Alice", PhoneNumber: "0911111111", Status: models.OrderStatusShipped,
			OrderDate: day, ShippingDate: day.AddDate(0, 0, 2), TotalMoney: 99.5},
		{ID: 2, UserID: 6, FullName: "Bob", Status: models.OrderStatusPending, OrderDate: day, ShippingDate: day},
	}

	f, err := ordersWorkbook(orders)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	book, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, exportHeaders, rows[0])
	assert.Equal(t, "Alice", rows[1][2])
	assert.Equal(t, "2026-03-12", rows[1][7])
	assert.Equal(t, "shipped", rows[1][8])
	assert.Equal(t, "99.5", rows[1][10])
	assert.Equal(t, "Bob", rows[2][2])
}
