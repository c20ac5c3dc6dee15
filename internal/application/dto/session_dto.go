package dto

import "time"

// OpenDialogRequest abre el diálogo de captura para un tipo de movimiento.
type OpenDialogRequest struct {
	Kind string `json:"kind" validate:"required,oneof=entrada salida"`
}

// UpdateDialogRequest campos del diálogo; los ausentes no cambian.
type UpdateDialogRequest struct {
	ProductID *int64   `json:"product_id" validate:"omitempty,gt=0"`
	Quantity  *float64 `json:"quantity"`
	Query     *string  `json:"query" validate:"omitempty,max=100"`
}

// DialogResponse estado del diálogo de captura.
type DialogResponse struct {
	Open      bool   `json:"open"`
	Kind      string `json:"kind,omitempty"`
	ProductID int64  `json:"product_id,omitempty"`
	Quantity  int64  `json:"quantity,omitempty"`
	Query     string `json:"query,omitempty"`
	Error     string `json:"error,omitempty"`
}

// NotificationResponse notificación visible de la sesión.
type NotificationResponse struct {
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Visible  bool   `json:"visible"`
}

// SessionResponse foto de una sesión de kardex.
type SessionResponse struct {
	ID              string                `json:"id"`
	Phase           string                `json:"phase"`
	Outcome         string                `json:"outcome,omitempty"`
	Company         *CompanyResponse      `json:"company"`
	Entries         []KardexEntryResponse `json:"entries"`
	Stock           []StockLineResponse   `json:"stock"`
	Messages        []MessageResponse     `json:"messages"`
	Loading         bool                  `json:"loading"`
	Error           string                `json:"error,omitempty"`
	Dialog          DialogResponse        `json:"dialog"`
	Notification    NotificationResponse  `json:"notification"`
	CatalogLoadedAt *time.Time            `json:"catalog_loaded_at,omitempty"`
}
