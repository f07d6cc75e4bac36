package handlers

import (
	"log/slog"
	"net/http"

	"github.com/iudanet/shopapp/internal/models"
	"github.com/iudanet/shopapp/internal/server/storage"
	"github.com/iudanet/shopapp/internal/validation"
	"github.com/iudanet/shopapp/pkg/api"
)

// OrderDetailHandler обрабатывает запросы позиций заказа
type OrderDetailHandler struct {
	base
	orders storage.OrderStorage
}

// NewOrderDetailHandler создает новый handler для позиций заказа
func NewOrderDetailHandler(logger *slog.Logger, validate *validation.Validator, orders storage.OrderStorage) *OrderDetailHandler {
	return &OrderDetailHandler{
		base:   base{logger: logger, validate: validate},
		orders: orders,
	}
}

// Create обрабатывает POST /api/v1/order_details
func (h *OrderDetailHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.OrderDetailRequest
	if !h.decode(w, r, &req) {
		return
	}

	detail := detailFromRequest(&req)
	if err := h.orders.CreateOrderDetail(ctx, detail); err != nil {
		h.storageError(ctx, w, err, "create order detail")
		return
	}

	h.logger.InfoContext(ctx, "order detail created",
		slog.Int64("order_id", detail.OrderID), slog.Int64("detail_id", detail.ID))

	h.sendJSON(w, detail, http.StatusCreated)
}

// Get обрабатывает GET /api/v1/order_details/{id}
func (h *OrderDetailHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	detail, err := h.orders.GetOrderDetail(ctx, id)
	if err != nil {
		h.storageError(ctx, w, err, "get order detail")
		return
	}

	if !h.ownsOrder(w, r, caller, detail.OrderID) {
		return
	}

	h.sendJSON(w, detail, http.StatusOK)
}

// ByOrder обрабатывает GET /api/v1/order_details/order/{order_id}
func (h *OrderDetailHandler) ByOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, ok := UserFromContext(ctx)
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	orderID, err := pathID(r, "order_id")
	if err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if !h.ownsOrder(w, r, caller, orderID) {
		return
	}

	details, err := h.orders.GetOrderDetails(ctx, orderID)
	if err != nil {
		h.storageError(ctx, w, err, "get order details")
		return
	}

	h.sendJSON(w, details, http.StatusOK)
}

// Update обрабатывает PUT /api/v1/order_details/{id}
func (h *OrderDetailHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r, "id")
	if err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req api.OrderDetailRequest
	if !h.decode(w, r, &req) {
		return
	}

	detail := detailFromRequest(&req)
	detail.ID = id
	if err := h.orders.UpdateOrderDetail(ctx, detail); err != nil {
		h.storageError(ctx, w, err, "update order detail")
		return
	}

	h.sendJSON(w, detail, http.StatusOK)
}

// Delete обрабатывает DELETE /api/v1/order_details/{id}
func (h *OrderDetailHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r, "id")
	if err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.orders.DeleteOrderDetail(ctx, id); err != nil {
		h.storageError(ctx, w, err, "delete order detail")
		return
	}

	h.sendJSON(w, api.MessageResponse{Message: "Order detail deleted successfully"}, http.StatusOK)
}

// ownsOrder проверяет доступ к заказу. При отказе ответ уже отправлен.
func (h *OrderDetailHandler) ownsOrder(w http.ResponseWriter, r *http.Request, caller *models.User, orderID int64) bool {
	if caller.IsAdmin() {
		return true
	}

	order, err := h.orders.GetOrder(r.Context(), orderID)
	if err != nil {
		h.storageError(r.Context(), w, err, "get order")
		return false
	}
	if order.UserID != caller.ID {
		h.sendError(w, errForbidden.Error(), http.StatusForbidden)
		return false
	}
	return true
}

// detailFromRequest считает сумму позиции, если она не передана
func detailFromRequest(req *api.OrderDetailRequest) *models.OrderDetail {
	total := req.TotalMoney
	if total == 0 {
		total = req.Price * float64(req.NumberOfProducts)
	}
	return &models.OrderDetail{
		OrderID:          req.OrderID,
		ProductID:        req.ProductID,
		Price:            req.Price,
		NumberOfProducts: req.NumberOfProducts,
		TotalMoney:       total,
		Color:            req.Color,
	}
}
