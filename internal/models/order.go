package models

import "time"

// Статусы заказа
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// ValidOrderStatus проверяет, что статус входит в допустимый набор
func ValidOrderStatus(status string) bool {
	switch status {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Order представляет заказ пользователя
type Order struct {
	OrderDate       time.Time     `json:"order_date"`
	ShippingDate    time.Time     `json:"shipping_date"`
	FullName        string        `json:"fullname"`
	Email           string        `json:"email"`
	PhoneNumber     string        `json:"phone_number"`
	Address         string        `json:"address"`
	Note            string        `json:"note"`
	Status          string        `json:"status"`
	ShippingMethod  string        `json:"shipping_method"`
	ShippingAddress string        `json:"shipping_address"`
	TrackingNumber  string        `json:"tracking_number"`
	PaymentMethod   string        `json:"payment_method"`
	Details         []OrderDetail `json:"order_details,omitempty"`
	TotalMoney      float64       `json:"total_money"`
	ID              int64         `json:"id"`
	UserID          int64         `json:"user_id"`
	Active          bool          `json:"active"` // false после soft delete
}

// OrderDetail представляет позицию заказа
type OrderDetail struct {
	Color            string  `json:"color"`
	Price            float64 `json:"price"`
	TotalMoney       float64 `json:"total_money"`
	ID               int64   `json:"id"`
	OrderID          int64   `json:"order_id"`
	ProductID        int64   `json:"product_id"`
	NumberOfProducts int     `json:"number_of_products"`
}
