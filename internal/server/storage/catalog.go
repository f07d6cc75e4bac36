package storage

import (
	"context"

	"github.com/iudanet/shopapp/internal/models"
)

// ProductFilter описывает параметры поиска товаров
type ProductFilter struct {
	Keyword    string // ищется в name и description
	CategoryID int64  // 0 - все категории
	Page       int    // с нуля
	Limit      int
}

// CategoryStorage defines interface for category persistence
type CategoryStorage interface {
	// CreateCategory creates a new category and sets category.ID
	// Returns ErrCategoryAlreadyExists on duplicate name
	CreateCategory(ctx context.Context, category *models.Category) error

	// GetCategory retrieves category by ID
	// Returns ErrCategoryNotFound if category doesn't exist
	GetCategory(ctx context.Context, id int64) (*models.Category, error)

	// ListCategories returns a page of categories ordered by ID
	ListCategories(ctx context.Context, page, limit int) ([]*models.Category, error)

	// UpdateCategory renames a category
	// Returns ErrCategoryNotFound if category doesn't exist
	UpdateCategory(ctx context.Context, category *models.Category) error

	// DeleteCategory deletes category by ID
	// Returns ErrCategoryNotFound or ErrCategoryInUse when products still reference it
	DeleteCategory(ctx context.Context, id int64) error
}

// ProductStorage defines interface for product persistence
type ProductStorage interface {
	// CreateProduct creates a new product and sets product.ID
	// Returns ErrCategoryNotFound if category doesn't exist
	CreateProduct(ctx context.Context, product *models.Product) error

	// GetProduct retrieves product with its images
	// Returns ErrProductNotFound if product doesn't exist
	GetProduct(ctx context.Context, id int64) (*models.Product, error)

	// GetProductsByIDs retrieves products by a list of IDs, unknown IDs are skipped
	GetProductsByIDs(ctx context.Context, ids []int64) ([]*models.Product, error)

	// SearchProducts returns a page of products matching the filter and the total count
	SearchProducts(ctx context.Context, filter ProductFilter) ([]*models.Product, int, error)

	// UpdateProduct updates product fields
	// Returns ErrProductNotFound or ErrCategoryNotFound
	UpdateProduct(ctx context.Context, product *models.Product) error

	// DeleteProduct deletes product and its images
	// Returns ErrProductNotFound if product doesn't exist
	DeleteProduct(ctx context.Context, id int64) error

	// ExistsByName reports whether a product with the given name exists
	ExistsByName(ctx context.Context, name string) (bool, error)

	// AddProductImage attaches an image to a product
	// Returns ErrProductNotFound or ErrTooManyImages
	AddProductImage(ctx context.Context, image *models.ProductImage) error

	// GetProductImages retrieves all images of a product
	GetProductImages(ctx context.Context, productID int64) ([]*models.ProductImage, error)
}
