package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/iudanet/shopapp/internal/models"
	"github.com/iudanet/shopapp/internal/server/storage"
	"github.com/iudanet/shopapp/internal/validation"
	"github.com/iudanet/shopapp/pkg/api"
)

// errForbidden ответ на чужой ресурс
var errForbidden = errors.New("you can only access your own orders")

// OrderHandler обрабатывает запросы заказов
type OrderHandler struct {
	base
	orders   storage.OrderStorage
	products storage.ProductStorage
	users    storage.UserStorage
	now      func() time.Time
}

// NewOrderHandler создает новый handler для заказов
func NewOrderHandler(
	logger *slog.Logger,
	validate *validation.Validator,
	orders storage.OrderStorage,
	products storage.ProductStorage,
	users storage.UserStorage,
) *OrderHandler {
	return &OrderHandler{
		base:     base{logger: logger, validate: validate},
		orders:   orders,
		products: products,
		users:    users,
		now:      time.Now,
	}
}

// today начало текущего дня в UTC
func (h *OrderHandler) today() time.Time {
	return api.NewDate(h.now().UTC()).Time
}

// canAccess владелец или администратор
func canAccess(caller *models.User, ownerID int64) bool {
	return caller.ID == ownerID || caller.IsAdmin()
}

// Create обрабатывает POST /api/v1/orders.
// Позиции корзины превращаются в позиции заказа по текущей цене товара.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, ok := UserFromContext(ctx)
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.OrderRequest
	if !h.decode(w, r, &req) {
		return
	}

	if !canAccess(caller, req.UserID) {
		h.sendError(w, errForbidden.Error(), http.StatusForbidden)
		return
	}

	if _, err := h.users.GetUserByID(ctx, req.UserID); err != nil {
		h.storageError(ctx, w, err, "get user")
		return
	}

	shippingDate := h.today()
	if req.ShippingDate != nil && !req.ShippingDate.IsZero() {
		if req.ShippingDate.Before(shippingDate) {
			h.sendError(w, "shipping date must be at least today", http.StatusBadRequest)
			return
		}
		shippingDate = req.ShippingDate.Time
	}

	details, total, err := h.cartDetails(r, req.CartItems)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			h.sendError(w, err.Error(), http.StatusNotFound)
			return
		}
		h.storageError(ctx, w, err, "resolve cart")
		return
	}
	if len(details) == 0 {
		total = req.TotalMoney
	}

	order := &models.Order{
		UserID:          req.UserID,
		FullName:        req.FullName,
		Email:           req.Email,
		PhoneNumber:     req.PhoneNumber,
		Address:         req.Address,
		Note:            req.Note,
		Status:          models.OrderStatusPending,
		OrderDate:       h.now(),
		ShippingDate:    shippingDate,
		ShippingMethod:  req.ShippingMethod,
		ShippingAddress: req.ShippingAddress,
		TrackingNumber:  req.TrackingNumber,
		PaymentMethod:   req.PaymentMethod,
		TotalMoney:      total,
		Active:          true,
		Details:         details,
	}
	if order.ShippingAddress == "" {
		order.ShippingAddress = order.Address
	}

	if err := h.orders.CreateOrder(ctx, order); err != nil {
		h.storageError(ctx, w, err, "create order")
		return
	}

	h.logger.InfoContext(ctx, "order created",
		slog.Int64("order_id", order.ID),
		slog.Int64("user_id", order.UserID),
		slog.Int("items", len(order.Details)))

	h.sendJSON(w, order, http.StatusCreated)
}

// cartDetails загружает товары корзины и считает позиции и сумму заказа
func (h *OrderHandler) cartDetails(r *http.Request, items []api.CartItem) ([]models.OrderDetail, float64, error) {
	if len(items) == 0 {
		return nil, 0, nil
	}

	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	products, err := h.products.GetProductsByIDs(r.Context(), ids)
	if err != nil {
		return nil, 0, err
	}
	byID := make(map[int64]*models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	details := make([]models.OrderDetail, 0, len(items))
	var total float64
	for _, item := range items {
		product, ok := byID[item.ProductID]
		if !ok {
			return nil, 0, fmt.Errorf("%w: id %d", storage.ErrProductNotFound, item.ProductID)
		}
		lineTotal := product.Price * float64(item.Quantity)
		details = append(details, models.OrderDetail{
			ProductID:        product.ID,
			Price:            product.Price,
			NumberOfProducts: item.Quantity,
			TotalMoney:       lineTotal,
			Color:            item.Color,
		})
		total += lineTotal
	}

	return details, total, nil
}

// Get обрабатывает GET /api/v1/orders/{id}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, ok := UserFromContext(ctx)
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	order, err := h.orders.GetOrder(ctx, id)
	if err != nil {
		h.storageError(ctx, w, err, "get order")
		return
	}
	if !canAccess(caller, order.UserID) {
		h.sendError(w, errForbidden.Error(), http.StatusForbidden)
		return
	}

	h.sendJSON(w, order, http.StatusOK)
}

// ByUser обрабатывает GET /api/v1/orders/user/{user_id}
func (h *OrderHandler) ByUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, ok := UserFromContext(ctx)
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	userID, err := pathID(r, "user_id")
	if err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !canAccess(caller, userID) {
		h.sendError(w, errForbidden.Error(), http.StatusForbidden)
		return
	}

	orders, err := h.orders.GetUserOrders(ctx, userID)
	if err != nil {
		h.storageError(ctx, w, err, "get user orders")
		return
	}

	h.sendJSON(w, orders, http.StatusOK)
}

// Update обрабатывает PUT /api/v1/orders/{id}. Позиции заказа не меняются.
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r, "id")
	if err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req api.OrderRequest
	if !h.decode(w, r, &req) {
		return
	}

	order, err := h.orders.GetOrder(ctx, id)
	if err != nil {
		h.storageError(ctx, w, err, "get order")
		return
	}

	if req.UserID != order.UserID {
		if _, err := h.users.GetUserByID(ctx, req.UserID); err != nil {
			h.storageError(ctx, w, err, "get user")
			return
		}
		order.UserID = req.UserID
	}

	order.FullName = req.FullName
	order.Email = req.Email
	order.PhoneNumber = req.PhoneNumber
	order.Address = req.Address
	order.Note = req.Note
	order.ShippingMethod = req.ShippingMethod
	order.ShippingAddress = req.ShippingAddress
	order.TrackingNumber = req.TrackingNumber
	order.PaymentMethod = req.PaymentMethod
	order.TotalMoney = req.TotalMoney
	if req.Status != "" {
		order.Status = req.Status
	}
	if req.ShippingDate != nil && !req.ShippingDate.IsZero() {
		order.ShippingDate = req.ShippingDate.Time
	}

	if err := h.orders.UpdateOrder(ctx, order); err != nil {
		h.storageError(ctx, w, err, "update order")
		return
	}

	h.logger.InfoContext(ctx, "order updated", slog.Int64("order_id", order.ID), slog.String("status", order.Status))

	h.sendJSON(w, order, http.StatusOK)
}

// Delete обрабатывает DELETE /api/v1/orders/{id} (soft delete)
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r, "id")
	if err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.orders.SoftDeleteOrder(ctx, id); err != nil {
		h.storageError(ctx, w, err, "delete order")
		return
	}

	h.logger.InfoContext(ctx, "order deleted", slog.Int64("order_id", id))

	h.sendJSON(w, api.MessageResponse{Message: "Order deleted successfully"}, http.StatusOK)
}

// Search обрабатывает GET /api/v1/orders/search?keyword=&page=&limit=
func (h *OrderHandler) Search(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)
	keyword := strings.TrimSpace(r.URL.Query().Get("keyword"))

	orders, total, err := h.orders.SearchOrders(r.Context(), keyword, page, limit)
	if err != nil {
		h.storageError(r.Context(), w, err, "search orders")
		return
	}

	h.sendJSON(w, api.OrderListResponse{
		Orders: orders,
		Page:   newPage(total, page, limit),
	}, http.StatusOK)
}
