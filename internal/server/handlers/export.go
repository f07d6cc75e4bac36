package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/xuri/excelize/v2"

	"github.com/iudanet/shopapp/internal/models"
)

const (
	exportSheet       = "Orders"
	xlsxContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportDateLayout  = "2006-01-02"
	exportStampLayout = "20060102_150405"
)

var exportHeaders = []string{
	"ID", "User ID", "Full name", "Phone", "Email", "Address",
	"Order date", "Shipping date", "Status", "Payment method", "Total",
}

// Export обрабатывает GET /api/v1/orders/export: активные заказы в xlsx
func (h *OrderHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orders, err := h.orders.ListActiveOrders(ctx)
	if err != nil {
		h.storageError(ctx, w, err, "list orders")
		return
	}

	f, err := ordersWorkbook(orders)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to build workbook", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=\"orders_%s.xlsx\"", h.now().Format(exportStampLayout)))

	if err := f.Write(w); err != nil {
		h.logger.ErrorContext(ctx, "failed to write workbook", slog.Any("error", err))
		return
	}

	h.logger.InfoContext(ctx, "orders exported", slog.Int("count", len(orders)))
}

// ordersWorkbook строит книгу с одним листом заказов
func ordersWorkbook(orders []*models.Order) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	if err := f.SetSheetRow(exportSheet, "A1", &exportHeaders); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, o := range orders {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		row := []any{
			o.ID, o.UserID, o.FullName, o.PhoneNumber, o.Email, o.Address,
			o.OrderDate.Format(exportDateLayout), o.ShippingDate.Format(exportDateLayout),
			o.Status, o.PaymentMethod, o.TotalMoney,
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write order %d: %w", o.ID, err)
		}
	}

	_ = f.SetColWidth(exportSheet, "C", "C", 25)
	_ = f.SetColWidth(exportSheet, "F", "F", 40)
	_ = f.SetColWidth(exportSheet, "G", "H", 14)

	return f, nil
}
