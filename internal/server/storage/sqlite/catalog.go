package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iudanet/shopapp/internal/models"
	"github.com/iudanet/shopapp/internal/server/storage"
)

// CreateCategory creates a new category
func (s *Storage) CreateCategory(ctx context.Context, category *models.Category) error {
	result, err := s.db.ExecContext(ctx, `INSERT INTO categories (name) VALUES (?)`, category.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrCategoryAlreadyExists
		}
		return fmt.Errorf("failed to insert category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get category id: %w", err)
	}
	category.ID = id

	return nil
}

// GetCategory retrieves category by ID
func (s *Storage) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	category := &models.Category{}
	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM categories WHERE id = ?`, id).
		Scan(&category.ID, &category.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return category, nil
}

// ListCategories returns a page of categories
func (s *Storage) ListCategories(ctx context.Context, page, limit int) ([]*models.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name FROM categories ORDER BY id LIMIT ? OFFSET ?`,
		limit, offset(page, limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]*models.Category, 0)
	for rows.Next() {
		category := &models.Category{}
		if err := rows.Scan(&category.ID, &category.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}

	return categories, nil
}

// UpdateCategory renames a category
func (s *Storage) UpdateCategory(ctx context.Context, category *models.Category) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE categories SET name = ? WHERE id = ?`, category.Name, category.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrCategoryAlreadyExists
		}
		return fmt.Errorf("failed to update category: %w", err)
	}

	return expectAffected(result, storage.ErrCategoryNotFound)
}

// DeleteCategory deletes category by ID
func (s *Storage) DeleteCategory(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return storage.ErrCategoryInUse
		}
		return fmt.Errorf("failed to delete category: %w", err)
	}

	return expectAffected(result, storage.ErrCategoryNotFound)
}

// CreateProduct creates a new product
func (s *Storage) CreateProduct(ctx context.Context, product *models.Product) error {
	now := time.Now()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	if product.UpdatedAt.IsZero() {
		product.UpdatedAt = now
	}

	query := `
		INSERT INTO products (name, price, thumbnail, description, category_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		product.Name,
		product.Price,
		product.Thumbnail,
		product.Description,
		product.CategoryID,
		product.CreatedAt.UTC(),
		product.UpdatedAt.UTC(),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return storage.ErrCategoryNotFound
		}
		return fmt.Errorf("failed to insert product: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get product id: %w", err)
	}
	product.ID = id

	return nil
}

const productColumns = `id, name, price, thumbnail, description, category_id, created_at, updated_at`

// GetProduct retrieves product with its images
func (s *Storage) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	product, err := scanProduct(s.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrProductNotFound
		}
		return nil, err
	}

	images, err := s.GetProductImages(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, image := range images {
		product.Images = append(product.Images, *image)
	}

	return product, nil
}

// GetProductsByIDs retrieves products by IDs, unknown IDs are skipped
func (s *Storage) GetProductsByIDs(ctx context.Context, ids []int64) ([]*models.Product, error) {
	products := make([]*models.Product, 0, len(ids))
	if len(ids) == 0 {
		return products, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id IN (`+placeholders+`) ORDER BY id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}

	return products, nil
}

// SearchProducts returns a page of products matching the filter and the total count
func (s *Storage) SearchProducts(ctx context.Context, filter storage.ProductFilter) ([]*models.Product, int, error) {
	where := `WHERE (? = 0 OR category_id = ?) AND (? = '' OR name LIKE ? OR description LIKE ?)`
	pattern := "%" + filter.Keyword + "%"
	args := []any{filter.CategoryID, filter.CategoryID, filter.Keyword, pattern, pattern}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products `+where+` ORDER BY id LIMIT ? OFFSET ?`,
		append(args, filter.Limit, offset(filter.Page, filter.Limit))...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]*models.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate products: %w", err)
	}

	return products, total, nil
}

// UpdateProduct updates product fields
func (s *Storage) UpdateProduct(ctx context.Context, product *models.Product) error {
	product.UpdatedAt = time.Now()

	query := `
		UPDATE products
		SET name = ?, price = ?, thumbnail = ?, description = ?, category_id = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		product.Name,
		product.Price,
		product.Thumbnail,
		product.Description,
		product.CategoryID,
		product.UpdatedAt.UTC(),
		product.ID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return storage.ErrCategoryNotFound
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	return expectAffected(result, storage.ErrProductNotFound)
}

// DeleteProduct deletes product, images are removed by cascade
func (s *Storage) DeleteProduct(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	return expectAffected(result, storage.ErrProductNotFound)
}

// ExistsByName reports whether a product with the given name exists
func (s *Storage) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM products WHERE name = ?)`, name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check product name: %w", err)
	}

	return exists, nil
}

// AddProductImage attaches an image to a product.
// The first image also becomes the product thumbnail.
func (s *Storage) AddProductImage(ctx context.Context, image *models.ProductImage) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var thumbnail string
		err := tx.QueryRowContext(ctx,
			`SELECT thumbnail FROM products WHERE id = ?`, image.ProductID,
		).Scan(&thumbnail)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return storage.ErrProductNotFound
			}
			return fmt.Errorf("failed to get product: %w", err)
		}

		var count int
		err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM product_images WHERE product_id = ?`, image.ProductID,
		).Scan(&count)
		if err != nil {
			return fmt.Errorf("failed to count product images: %w", err)
		}

		if count >= models.MaxImagesPerProduct {
			return storage.ErrTooManyImages
		}

		result, err := tx.ExecContext(ctx,
			`INSERT INTO product_images (product_id, image_url) VALUES (?, ?)`,
			image.ProductID, image.ImageURL,
		)
		if err != nil {
			return fmt.Errorf("failed to insert product image: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get product image id: %w", err)
		}
		image.ID = id

		if thumbnail == "" {
			_, err = tx.ExecContext(ctx,
				`UPDATE products SET thumbnail = ? WHERE id = ?`, image.ImageURL, image.ProductID,
			)
			if err != nil {
				return fmt.Errorf("failed to set thumbnail: %w", err)
			}
		}

		return nil
	})
}

// GetProductImages retrieves all images of a product
func (s *Storage) GetProductImages(ctx context.Context, productID int64) ([]*models.ProductImage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, product_id, image_url FROM product_images WHERE product_id = ? ORDER BY id`,
		productID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query product images: %w", err)
	}
	defer rows.Close()

	images := make([]*models.ProductImage, 0)
	for rows.Next() {
		image := &models.ProductImage{}
		if err := rows.Scan(&image.ID, &image.ProductID, &image.ImageURL); err != nil {
			return nil, fmt.Errorf("failed to scan product image: %w", err)
		}
		images = append(images, image)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate product images: %w", err)
	}

	return images, nil
}

func scanProduct(row rowScanner) (*models.Product, error) {
	product := &models.Product{}
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Price,
		&product.Thumbnail,
		&product.Description,
		&product.CategoryID,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}

	return product, nil
}

func expectAffected(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return notFound
	}

	return nil
}
