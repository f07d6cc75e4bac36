package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/iudanet/shopapp/internal/models"
	"github.com/iudanet/shopapp/internal/server/storage"
	"github.com/iudanet/shopapp/internal/server/upload"
	"github.com/iudanet/shopapp/internal/validation"
	"github.com/iudanet/shopapp/pkg/api"
)

// UploadLimits ограничения на загрузку изображений товара
type UploadLimits struct {
	MaxFileSize int64 // байт на файл
	MaxImages   int   // изображений на товар
}

// ProductHandler обрабатывает запросы товаров и их изображений
type ProductHandler struct {
	base
	products storage.ProductStorage
	images   upload.Store
	limits   UploadLimits
	now      func() time.Time
}

// NewProductHandler создает новый handler для товаров
func NewProductHandler(
	logger *slog.Logger,
	validate *validation.Validator,
	products storage.ProductStorage,
	images upload.Store,
	limits UploadLimits,
) *ProductHandler {
	if limits.MaxImages <= 0 {
		limits.MaxImages = models.MaxImagesPerProduct
	}
	return &ProductHandler{
		base:     base{logger: logger, validate: validate},
		products: products,
		images:   images,
		limits:   limits,
		now:      time.Now,
	}
}

// List обрабатывает GET /api/v1/products?keyword=&category_id=&page=&limit=
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)

	filter := storage.ProductFilter{
		Keyword: strings.TrimSpace(r.URL.Query().Get("keyword")),
		Page:    page,
		Limit:   limit,
	}
	if raw := r.URL.Query().Get("category_id"); raw != "" {
		categoryID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || categoryID < 0 {
			h.sendError(w, "invalid category_id", http.StatusBadRequest)
			return
		}
		filter.CategoryID = categoryID
	}

	products, total, err := h.products.SearchProducts(r.Context(), filter)
	if err != nil {
		h.storageError(r.Context(), w, err, "search products")
		return
	}

	h.sendJSON(w, api.ProductListResponse{
		Products: products,
		Page:     newPage(total, page, limit),
	}, http.StatusOK)
}

// ByIDs обрабатывает GET /api/v1/products/by-ids?ids=1,3,5
func (h *ProductHandler) ByIDs(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("ids")
	if raw == "" {
		h.sendError(w, "ids is required", http.StatusBadRequest)
		return
	}

	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id <= 0 {
			h.sendError(w, fmt.Sprintf("invalid product id %q", part), http.StatusBadRequest)
			return
		}
		ids = append(ids, id)
	}

	products, err := h.products.GetProductsByIDs(r.Context(), ids)
	if err != nil {
		h.storageError(r.Context(), w, err, "get products")
		return
	}

	h.sendJSON(w, products, http.StatusOK)
}

// Get обрабатывает GET /api/v1/products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	product, err := h.products.GetProduct(r.Context(), id)
	if err != nil {
		h.storageError(r.Context(), w, err, "get product")
		return
	}

	h.sendJSON(w, product, http.StatusOK)
}

// Create обрабатывает POST /api/v1/products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.ProductRequest
	if !h.decode(w, r, &req) {
		return
	}

	exists, err := h.products.ExistsByName(ctx, req.Name)
	if err != nil {
		h.storageError(ctx, w, err, "check product name")
		return
	}
	if exists {
		h.sendError(w, "product name already exists", http.StatusConflict)
		return
	}

	now := h.now()
	product := &models.Product{
		Name:        req.Name,
		Price:       req.Price,
		Thumbnail:   req.Thumbnail,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.products.CreateProduct(ctx, product); err != nil {
		h.storageError(ctx, w, err, "create product")
		return
	}

	h.logger.InfoContext(ctx, "product created", slog.Int64("product_id", product.ID))

	h.sendJSON(w, product, http.StatusCreated)
}

// Update обрабатывает PUT /api/v1/products/{id}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r, "id")
	if err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req api.ProductRequest
	if !h.decode(w, r, &req) {
		return
	}

	product, err := h.products.GetProduct(ctx, id)
	if err != nil {
		h.storageError(ctx, w, err, "get product")
		return
	}

	product.Name = req.Name
	product.Price = req.Price
	product.Description = req.Description
	product.CategoryID = req.CategoryID
	if req.Thumbnail != "" {
		product.Thumbnail = req.Thumbnail
	}
	product.UpdatedAt = h.now()

	if err := h.products.UpdateProduct(ctx, product); err != nil {
		h.storageError(ctx, w, err, "update product")
		return
	}

	h.sendJSON(w, product, http.StatusOK)
}

// Delete обрабатывает DELETE /api/v1/products/{id}.
// Файлы изображений удаляются после удаления записи.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r, "id")
	if err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	images, err := h.products.GetProductImages(ctx, id)
	if err != nil {
		h.storageError(ctx, w, err, "get product images")
		return
	}

	if err := h.products.DeleteProduct(ctx, id); err != nil {
		h.storageError(ctx, w, err, "delete product")
		return
	}

	for _, image := range images {
		if err := h.images.Delete(ctx, image.ImageURL); err != nil {
			h.logger.WarnContext(ctx, "failed to delete image file",
				slog.String("name", image.ImageURL), slog.Any("error", err))
		}
	}

	h.logger.InfoContext(ctx, "product deleted", slog.Int64("product_id", id))

	h.sendJSON(w, api.MessageResponse{Message: fmt.Sprintf("Product with id = %d deleted successfully", id)}, http.StatusOK)
}

// UploadImages обрабатывает POST /api/v1/products/uploads/{id}.
// Принимает multipart поле "files": не больше MaxImages на товар,
// каждый файл не больше MaxFileSize и с content type image/*. Пустые файлы пропускаются.
func (h *ProductHandler) UploadImages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r, "id")
	if err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	maxBody := h.limits.MaxFileSize*int64(h.limits.MaxImages) + maxBodyBytes
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.sendError(w, "request is too large", http.StatusRequestEntityTooLarge)
			return
		}
		h.sendError(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	files := r.MultipartForm.File["files"]
	if len(files) > h.limits.MaxImages {
		h.sendError(w, fmt.Sprintf("you can only upload maximum %d images", h.limits.MaxImages), http.StatusBadRequest)
		return
	}

	product, err := h.products.GetProduct(ctx, id)
	if err != nil {
		h.storageError(ctx, w, err, "get product")
		return
	}

	accepted := make([]*multipart.FileHeader, 0, len(files))
	for _, fh := range files {
		if fh.Size == 0 {
			continue
		}
		if fh.Size > h.limits.MaxFileSize {
			h.sendError(w, fmt.Sprintf("file %q is too large, maximum size is %d bytes", fh.Filename, h.limits.MaxFileSize),
				http.StatusRequestEntityTooLarge)
			return
		}
		if !strings.HasPrefix(fh.Header.Get("Content-Type"), "image/") {
			h.sendError(w, fmt.Sprintf("file %q must be an image", fh.Filename), http.StatusUnsupportedMediaType)
			return
		}
		accepted = append(accepted, fh)
	}

	// лимит проверяется до сохранения, чтобы не привязать часть файлов
	if len(product.Images)+len(accepted) > h.limits.MaxImages {
		h.sendError(w, fmt.Sprintf("product already has %d images, maximum is %d", len(product.Images), h.limits.MaxImages),
			http.StatusBadRequest)
		return
	}

	images := make([]models.ProductImage, 0, len(accepted))
	for _, fh := range accepted {
		image, err := h.storeImage(r, id, fh)
		if err != nil {
			h.storageError(ctx, w, err, "store image")
			return
		}
		images = append(images, *image)
	}

	h.logger.InfoContext(ctx, "product images uploaded",
		slog.Int64("product_id", id), slog.Int("count", len(images)))

	h.sendJSON(w, api.UploadImagesResponse{Images: images}, http.StatusOK)
}

// storeImage сохраняет файл и привязывает его к товару.
// Если привязать не удалось, файл удаляется.
func (h *ProductHandler) storeImage(r *http.Request, productID int64, fh *multipart.FileHeader) (*models.ProductImage, error) {
	ctx := r.Context()

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	name := upload.NewFileName(fh.Filename)
	if err := h.images.Save(ctx, name, fh.Header.Get("Content-Type"), f); err != nil {
		return nil, fmt.Errorf("failed to save image: %w", err)
	}

	image := &models.ProductImage{ProductID: productID, ImageURL: name}
	if err := h.products.AddProductImage(ctx, image); err != nil {
		if delErr := h.images.Delete(ctx, name); delErr != nil {
			h.logger.WarnContext(ctx, "failed to remove orphan image", slog.String("name", name), slog.Any("error", delErr))
		}
		return nil, err
	}

	return image, nil
}

// Image обрабатывает GET /api/v1/products/images/{name}
func (h *ProductHandler) Image(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := r.PathValue("name")

	if err := upload.ValidName(name); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	rc, contentType, err := h.images.Open(ctx, name)
	if err != nil {
		if errors.Is(err, upload.ErrImageNotFound) {
			h.sendError(w, "image not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to open image", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.WarnContext(ctx, "failed to write image", slog.Any("error", err))
	}
}
