package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/iudanet/shopapp/internal/server/storage"
	"github.com/iudanet/shopapp/internal/validation"
	"github.com/iudanet/shopapp/pkg/api"
)

// Параметры пагинации по умолчанию
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// maxBodyBytes ограничение на размер JSON тела запроса
const maxBodyBytes = 1 << 20

// base общая часть всех handlers: логгер, валидатор и отправка ответов
type base struct {
	logger   *slog.Logger
	validate *validation.Validator
}

// sendJSON отправляет JSON ответ
func (h *base) sendJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendError отправляет JSON ответ с ошибкой
func (h *base) sendError(w http.ResponseWriter, message string, statusCode int) {
	h.sendJSON(w, api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}, statusCode)
}

// decode читает JSON тело и валидирует его. При ошибке ответ уже отправлен.
func (h *base) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		h.logger.WarnContext(r.Context(), "failed to decode request", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return false
	}

	return true
}

// storageError отвечает на ошибку хранилища: известные ошибки превращаются
// в 4xx, остальные логируются и отдаются как 500
func (h *base) storageError(ctx context.Context, w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, storage.ErrUserNotFound),
		errors.Is(err, storage.ErrRoleNotFound),
		errors.Is(err, storage.ErrCategoryNotFound),
		errors.Is(err, storage.ErrProductNotFound),
		errors.Is(err, storage.ErrOrderNotFound),
		errors.Is(err, storage.ErrOrderDetailNotFound):
		h.sendError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, storage.ErrUserAlreadyExists),
		errors.Is(err, storage.ErrCategoryAlreadyExists),
		errors.Is(err, storage.ErrCategoryInUse):
		h.sendError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, storage.ErrTooManyImages):
		h.sendError(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.ErrorContext(ctx, "failed to "+op, slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
	}
}

// pathID извлекает положительный числовой path parameter
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// pagination читает page (с нуля) и limit из query
func pagination(r *http.Request) (page, limit int) {
	q := r.URL.Query()

	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 0 {
		page = 0
	}

	limit, err = strconv.Atoi(q.Get("limit"))
	if err != nil || limit <= 0 {
		limit = DefaultPageLimit
	}
	limit = min(limit, MaxPageLimit)

	return page, limit
}

// newPage считает количество страниц
func newPage(total, page, limit int) api.Page {
	return api.Page{
		TotalPages: (total + limit - 1) / limit,
		TotalItems: total,
		Page:       page,
		Limit:      limit,
	}
}
