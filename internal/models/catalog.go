package models

import "time"

// MaxImagesPerProduct максимальное количество изображений у одного товара
const MaxImagesPerProduct = 5

// Category представляет категорию товаров
type Category struct {
	Name string `json:"name"`
	ID   int64  `json:"id"`
}

// Product представляет товар
type Product struct {
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Name        string         `json:"name"`
	Thumbnail   string         `json:"thumbnail"`
	Description string         `json:"description"`
	Images      []ProductImage `json:"product_images,omitempty"`
	Price       float64        `json:"price"`
	ID          int64          `json:"id"`
	CategoryID  int64          `json:"category_id"`
}

// ProductImage представляет загруженное изображение товара
type ProductImage struct {
	ImageURL  string `json:"image_url"` // имя файла в хранилище изображений
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
}
