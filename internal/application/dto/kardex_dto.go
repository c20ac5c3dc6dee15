package dto

import (
	"time"

	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

// CreateMovementRequest entrada para registrar un movimiento de kardex.
// Quantity llega como número del formulario; debe ser entero positivo.
type CreateMovementRequest struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Kind      string  `json:"kind" validate:"required,oneof=entrada salida"`
	Quantity  float64 `json:"quantity" validate:"required,gt=0"`
	Detail    string  `json:"detail" validate:"omitempty,max=255"`
}

// MovementResponse movimiento registrado.
type MovementResponse struct {
	ID        int64     `json:"id"`
	Date      time.Time `json:"date"`
	Kind      string    `json:"kind"`
	Quantity  int64     `json:"quantity"`
	ProductID int64     `json:"product_id"`
	CompanyID int64     `json:"company_id"`
	UserID    int64     `json:"user_id"`
	Detail    string    `json:"detail"`
	Status    int       `json:"status"`
}

// KardexEntryResponse fila del kardex con el saldo del producto tras el movimiento.
type KardexEntryResponse struct {
	MovementResponse
	ProductDescription string `json:"product_description"`
	UserName           string `json:"user_name"`
	Balance            int64  `json:"balance"`
}

// StockLineResponse stock derivado de un producto.
type StockLineResponse struct {
	ProductID    int64  `json:"product_id"`
	Description  string `json:"description"`
	Stock        int64  `json:"stock"`
	MinStock     int64  `json:"min_stock"`
	BelowMinimum bool   `json:"below_minimum"`
}

// LedgerResponse kardex completo de la empresa con el stock por producto.
type LedgerResponse struct {
	Company *CompanyResponse      `json:"company"`
	Entries []KardexEntryResponse `json:"entries"`
	Stock   []StockLineResponse   `json:"stock"`
}

// MovementResultResponse movimiento registrado con el kardex y el stock releídos tras la escritura.
type MovementResultResponse struct {
	Movement MovementResponse      `json:"movement"`
	Entries  []KardexEntryResponse `json:"entries"`
	Stock    []StockLineResponse   `json:"stock"`
}

// NewMovementResponse mapea un movimiento.
func NewMovementResponse(m entity.Movement) MovementResponse {
	return MovementResponse{
		ID:        m.ID,
		Date:      m.Date,
		Kind:      string(m.Kind),
		Quantity:  m.Quantity,
		ProductID: m.ProductID,
		CompanyID: m.CompanyID,
		UserID:    m.UserID,
		Detail:    m.Detail,
		Status:    m.Status,
	}
}

// NewKardexEntries mapea las filas del kardex.
func NewKardexEntries(entries []entity.KardexEntry) []KardexEntryResponse {
	out := make([]KardexEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, KardexEntryResponse{
			MovementResponse:   NewMovementResponse(e.Movement),
			ProductDescription: e.ProductDescription,
			UserName:           e.UserName,
			Balance:            e.Balance,
		})
	}
	return out
}
