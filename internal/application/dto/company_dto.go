package dto

import "github.com/jhoicas/Kardex-api/internal/domain/entity"

// CompanyResponse empresa resuelta para el usuario.
type CompanyResponse struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	CurrencySymbol string `json:"currency_symbol"`
}

// NewCompanyResponse mapea la entidad; nil devuelve nil.
func NewCompanyResponse(c *entity.Company) *CompanyResponse {
	if c == nil {
		return nil
	}
	return &CompanyResponse{ID: c.ID, Name: c.Name, CurrencySymbol: c.CurrencySymbol}
}
