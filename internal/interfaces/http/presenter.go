package http

import (
	"github.com/jhoicas/Kardex-api/internal/application/dto"
	"github.com/jhoicas/Kardex-api/internal/application/kardex"
)

func stockLines(lines []kardex.StockLine) []dto.StockLineResponse {
	out := make([]dto.StockLineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, dto.StockLineResponse{
			ProductID:    l.Product.ID,
			Description:  l.Product.Description,
			Stock:        l.Stock,
			MinStock:     l.Product.MinStock,
			BelowMinimum: l.BelowMinimum,
		})
	}
	return out
}

func sessionResponse(id string, v kardex.View) dto.SessionResponse {
	out := dto.SessionResponse{
		ID:       id,
		Phase:    string(v.Phase),
		Outcome:  string(v.Outcome),
		Company:  dto.NewCompanyResponse(v.Company),
		Entries:  dto.NewKardexEntries(v.Ledger),
		Stock:    stockLines(v.Stock),
		Messages: dto.NewMessageResponses(v.Messages),
		Loading:  v.Loading,
		Error:    v.Error,
		Dialog: dto.DialogResponse{
			Open:      v.Dialog.Open,
			Kind:      string(v.Dialog.Kind),
			ProductID: v.Dialog.ProductID,
			Quantity:  v.Dialog.Quantity,
			Query:     v.Dialog.Query,
			Error:     v.Dialog.Error,
		},
		Notification: dto.NotificationResponse{
			Message:  v.Notification.Message,
			Severity: string(v.Notification.Severity),
			Visible:  v.Notification.Visible,
		},
	}
	if !v.CatalogLoadedAt.IsZero() {
		at := v.CatalogLoadedAt
		out.CatalogLoadedAt = &at
	}
	return out
}
