package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iudanet/shopapp/internal/models"
	"github.com/iudanet/shopapp/internal/server/storage"
)

const orderColumns = `
	id, user_id, fullname, email, phone_number, address, note, order_date, status,
	total_money, shipping_method, shipping_address, shipping_date, tracking_number,
	payment_method, active`

const orderDetailColumns = `id, order_id, product_id, price, number_of_products, total_money, color`

// CreateOrder stores an order together with its details
func (s *Storage) CreateOrder(ctx context.Context, order *models.Order) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO orders (user_id, fullname, email, phone_number, address, note, order_date,
				status, total_money, shipping_method, shipping_address, shipping_date,
				tracking_number, payment_method, active)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`

		result, err := tx.ExecContext(ctx, query,
			order.UserID,
			order.FullName,
			order.Email,
			order.PhoneNumber,
			order.Address,
			order.Note,
			order.OrderDate.UTC(),
			order.Status,
			order.TotalMoney,
			order.ShippingMethod,
			order.ShippingAddress,
			order.ShippingDate.UTC(),
			order.TrackingNumber,
			order.PaymentMethod,
			order.Active,
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return storage.ErrUserNotFound
			}
			return fmt.Errorf("failed to insert order: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get order id: %w", err)
		}
		order.ID = id

		for i := range order.Details {
			order.Details[i].OrderID = id
			if err := insertOrderDetail(ctx, tx, &order.Details[i]); err != nil {
				return err
			}
		}

		return nil
	})
}

// GetOrder retrieves order with its details
func (s *Storage) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	order, err := scanOrder(s.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrOrderNotFound
		}
		return nil, err
	}

	details, err := s.GetOrderDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, detail := range details {
		order.Details = append(order.Details, *detail)
	}

	return order, nil
}

// GetUserOrders retrieves all orders of a user
func (s *Storage) GetUserOrders(ctx context.Context, userID int64) ([]*models.Order, error) {
	return s.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = ? ORDER BY id`, userID,
	)
}

// SearchOrders returns a page of active orders matching keyword and the total count
func (s *Storage) SearchOrders(ctx context.Context, keyword string, page, limit int) ([]*models.Order, int, error) {
	where := `WHERE active = 1 AND (? = '' OR fullname LIKE ? OR address LIKE ? OR note LIKE ? OR email LIKE ?)`
	pattern := "%" + keyword + "%"
	args := []any{keyword, pattern, pattern, pattern, pattern}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	orders, err := s.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders `+where+` ORDER BY id LIMIT ? OFFSET ?`,
		append(args, limit, offset(page, limit))...,
	)
	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// ListActiveOrders returns all active orders
func (s *Storage) ListActiveOrders(ctx context.Context) ([]*models.Order, error) {
	return s.queryOrders(ctx, `SELECT `+orderColumns+` FROM orders WHERE active = 1 ORDER BY id`)
}

// UpdateOrder updates order fields
func (s *Storage) UpdateOrder(ctx context.Context, order *models.Order) error {
	query := `
		UPDATE orders
		SET user_id = ?, fullname = ?, email = ?, phone_number = ?, address = ?, note = ?,
			status = ?, total_money = ?, shipping_method = ?, shipping_address = ?,
			shipping_date = ?, tracking_number = ?, payment_method = ?, active = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		order.UserID,
		order.FullName,
		order.Email,
		order.PhoneNumber,
		order.Address,
		order.Note,
		order.Status,
		order.TotalMoney,
		order.ShippingMethod,
		order.ShippingAddress,
		order.ShippingDate.UTC(),
		order.TrackingNumber,
		order.PaymentMethod,
		order.Active,
		order.ID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return storage.ErrUserNotFound
		}
		return fmt.Errorf("failed to update order: %w", err)
	}

	return expectAffected(result, storage.ErrOrderNotFound)
}

// SoftDeleteOrder marks order inactive
func (s *Storage) SoftDeleteOrder(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `UPDATE orders SET active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	return expectAffected(result, storage.ErrOrderNotFound)
}

// CreateOrderDetail creates a single order detail
func (s *Storage) CreateOrderDetail(ctx context.Context, detail *models.OrderDetail) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := checkDetailRefs(ctx, tx, detail); err != nil {
			return err
		}
		return insertOrderDetail(ctx, tx, detail)
	})
}

// GetOrderDetail retrieves order detail by ID
func (s *Storage) GetOrderDetail(ctx context.Context, id int64) (*models.OrderDetail, error) {
	detail, err := scanOrderDetail(s.db.QueryRowContext(ctx,
		`SELECT `+orderDetailColumns+` FROM order_details WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrOrderDetailNotFound
		}
		return nil, err
	}

	return detail, nil
}

// GetOrderDetails retrieves all details of an order
func (s *Storage) GetOrderDetails(ctx context.Context, orderID int64) ([]*models.OrderDetail, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+orderDetailColumns+` FROM order_details WHERE order_id = ? ORDER BY id`, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query order details: %w", err)
	}
	defer rows.Close()

	details := make([]*models.OrderDetail, 0)
	for rows.Next() {
		detail, err := scanOrderDetail(rows)
		if err != nil {
			return nil, err
		}
		details = append(details, detail)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order details: %w", err)
	}

	return details, nil
}

// UpdateOrderDetail updates a single order detail
func (s *Storage) UpdateOrderDetail(ctx context.Context, detail *models.OrderDetail) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := checkDetailRefs(ctx, tx, detail); err != nil {
			return err
		}

		query := `
			UPDATE order_details
			SET order_id = ?, product_id = ?, price = ?, number_of_products = ?, total_money = ?, color = ?
			WHERE id = ?
		`

		result, err := tx.ExecContext(ctx, query,
			detail.OrderID,
			detail.ProductID,
			detail.Price,
			detail.NumberOfProducts,
			detail.TotalMoney,
			detail.Color,
			detail.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update order detail: %w", err)
		}

		return expectAffected(result, storage.ErrOrderDetailNotFound)
	})
}

// DeleteOrderDetail deletes order detail by ID
func (s *Storage) DeleteOrderDetail(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM order_details WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order detail: %w", err)
	}

	return expectAffected(result, storage.ErrOrderDetailNotFound)
}

func (s *Storage) queryOrders(ctx context.Context, query string, args ...any) ([]*models.Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]*models.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}

	return orders, nil
}

func checkDetailRefs(ctx context.Context, tx *sql.Tx, detail *models.OrderDetail) error {
	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE id = ?)`, detail.OrderID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check order: %w", err)
	}
	if !exists {
		return storage.ErrOrderNotFound
	}

	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM products WHERE id = ?)`, detail.ProductID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check product: %w", err)
	}
	if !exists {
		return storage.ErrProductNotFound
	}

	return nil
}

func insertOrderDetail(ctx context.Context, tx *sql.Tx, detail *models.OrderDetail) error {
	query := `
		INSERT INTO order_details (order_id, product_id, price, number_of_products, total_money, color)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := tx.ExecContext(ctx, query,
		detail.OrderID,
		detail.ProductID,
		detail.Price,
		detail.NumberOfProducts,
		detail.TotalMoney,
		detail.Color,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return storage.ErrProductNotFound
		}
		return fmt.Errorf("failed to insert order detail: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get order detail id: %w", err)
	}
	detail.ID = id

	return nil
}

func scanOrder(row rowScanner) (*models.Order, error) {
	order := &models.Order{}
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.FullName,
		&order.Email,
		&order.PhoneNumber,
		&order.Address,
		&order.Note,
		&order.OrderDate,
		&order.Status,
		&order.TotalMoney,
		&order.ShippingMethod,
		&order.ShippingAddress,
		&order.ShippingDate,
		&order.TrackingNumber,
		&order.PaymentMethod,
		&order.Active,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}

	return order, nil
}

func scanOrderDetail(row rowScanner) (*models.OrderDetail, error) {
	detail := &models.OrderDetail{}
	err := row.Scan(
		&detail.ID,
		&detail.OrderID,
		&detail.ProductID,
		&detail.Price,
		&detail.NumberOfProducts,
		&detail.TotalMoney,
		&detail.Color,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan order detail: %w", err)
	}

	return detail, nil
}
