package handlers

import (
	"log/slog"
	"net/http"

	"github.com/iudanet/shopapp/internal/models"
	"github.com/iudanet/shopapp/internal/server/storage"
	"github.com/iudanet/shopapp/internal/validation"
	"github.com/iudanet/shopapp/pkg/api"
)

// CategoryHandler обрабатывает запросы категорий
type CategoryHandler struct {
	base
	categories storage.CategoryStorage
}

// NewCategoryHandler создает новый handler для категорий
func NewCategoryHandler(logger *slog.Logger, validate *validation.Validator, categories storage.CategoryStorage) *CategoryHandler {
	return &CategoryHandler{
		base:       base{logger: logger, validate: validate},
		categories: categories,
	}
}

// List обрабатывает GET /api/v1/categories?page=&limit=
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)

	categories, err := h.categories.ListCategories(r.Context(), page, limit)
	if err != nil {
		h.storageError(r.Context(), w, err, "list categories")
		return
	}

	h.sendJSON(w, categories, http.StatusOK)
}

// Get обрабатывает GET /api/v1/categories/{id}
func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	category, err := h.categories.GetCategory(r.Context(), id)
	if err != nil {
		h.storageError(r.Context(), w, err, "get category")
		return
	}

	h.sendJSON(w, category, http.StatusOK)
}

// Create обрабатывает POST /api/v1/categories
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.CategoryRequest
	if !h.decode(w, r, &req) {
		return
	}

	category := &models.Category{Name: req.Name}
	if err := h.categories.CreateCategory(ctx, category); err != nil {
		h.storageError(ctx, w, err, "create category")
		return
	}

	h.logger.InfoContext(ctx, "category created", slog.Int64("category_id", category.ID))

	h.sendJSON(w, category, http.StatusCreated)
}

// Update обрабатывает PUT /api/v1/categories/{id}
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r, "id")
	if err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req api.CategoryRequest
	if !h.decode(w, r, &req) {
		return
	}

	category := &models.Category{ID: id, Name: req.Name}
	if err := h.categories.UpdateCategory(ctx, category); err != nil {
		h.storageError(ctx, w, err, "update category")
		return
	}

	h.sendJSON(w, category, http.StatusOK)
}

// Delete обрабатывает DELETE /api/v1/categories/{id}
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r, "id")
	if err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.categories.DeleteCategory(ctx, id); err != nil {
		h.storageError(ctx, w, err, "delete category")
		return
	}

	h.logger.InfoContext(ctx, "category deleted", slog.Int64("category_id", id))

	h.sendJSON(w, api.MessageResponse{Message: "Category deleted successfully"}, http.StatusOK)
}
