package api

import "github.com/iudanet/shopapp/internal/models"

// CartItem позиция корзины при оформлении заказа
type CartItem struct {
	Color     string `json:"color"`
	ProductID int64  `json:"product_id" validate:"gt=0"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

// OrderRequest представляет запрос на создание/изменение заказа
type OrderRequest struct {
	ShippingDate    *Date      `json:"shipping_date,omitempty"`
	FullName        string     `json:"fullname"`
	Email           string     `json:"email" validate:"omitempty,email"`
	PhoneNumber     string     `json:"phone_number" validate:"required,min=5"`
	Address         string     `json:"address" validate:"required"`
	Note            string     `json:"note"`
	Status          string     `json:"status" validate:"omitempty,oneof=pending processing shipped delivered cancelled"`
	ShippingMethod  string     `json:"shipping_method"`
	ShippingAddress string     `json:"shipping_address"`
	TrackingNumber  string     `json:"tracking_number"`
	PaymentMethod   string     `json:"payment_method"`
	CartItems       []CartItem `json:"cart_items" validate:"dive"`
	TotalMoney      float64    `json:"total_money" validate:"gte=0"`
	UserID          int64      `json:"user_id" validate:"gt=0"`
}

// OrderListResponse представляет страницу заказов
type OrderListResponse struct {
	Orders []*models.Order `json:"orders"`
	Page
}

// OrderDetailRequest представляет запрос на создание/изменение позиции заказа
type OrderDetailRequest struct {
	Color            string  `json:"color"`
	Price            float64 `json:"price" validate:"gt=0"`
	TotalMoney       float64 `json:"total_money" validate:"gte=0"`
	OrderID          int64   `json:"order_id" validate:"gt=0"`
	ProductID        int64   `json:"product_id" validate:"gt=0"`
	NumberOfProducts int     `json:"number_of_products" validate:"gt=0"`
}
