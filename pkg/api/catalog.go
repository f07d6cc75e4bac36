package api

import "github.com/iudanet/shopapp/internal/models"

// CategoryRequest представляет запрос на создание/изменение категории
type CategoryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// ProductRequest представляет запрос на создание/изменение товара
type ProductRequest struct {
	Name        string  `json:"name" validate:"required,min=3,max=200"`
	Thumbnail   string  `json:"thumbnail" validate:"max=300"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"gte=0,lte=10000000"`
	CategoryID  int64   `json:"category_id" validate:"gt=0"`
}

// ProductListResponse представляет страницу товаров
type ProductListResponse struct {
	Products []*models.Product `json:"products"`
	Page
}

// UploadImagesResponse представляет результат загрузки изображений
type UploadImagesResponse struct {
	Images []models.ProductImage `json:"product_images"`
}
