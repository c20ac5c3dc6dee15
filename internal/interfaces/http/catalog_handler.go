package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Kardex-api/internal/application/dto"
	"github.com/jhoicas/Kardex-api/internal/application/kardex"
)

// CatalogHandler expone el catálogo de la empresa (protegido).
type CatalogHandler struct {
	resolver kardex.SessionResolver
	catalog  kardex.CatalogLoader
}

// NewCatalogHandler construye el handler.
func NewCatalogHandler(resolver kardex.SessionResolver, catalog kardex.CatalogLoader) *CatalogHandler {
	return &CatalogHandler{resolver: resolver, catalog: catalog}
}

// Get godoc
// @Summary      Catálogo de productos, marcas y categorías
// @Tags         catalog
// @Security     Bearer
// @Produce      json
// @Param        q    query  string  false  "Filtro por descripción (sin distinguir mayúsculas)"
// @Success      200  {object}  dto.CatalogResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/catalog [get]
func (h *CatalogHandler) Get(c *fiber.Ctx) error {
	sc, err := h.resolver.Resolve(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	snap, err := h.catalog.Load(c.UserContext(), sc.CompanyID())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.CatalogResponse{
		Products:   dto.NewProductResponses(snap.DetailsOf(snap.Filter(c.Query("q")))),
		Brands:     dto.NewBrandResponses(snap.Brands),
		Categories: dto.NewCategoryResponses(snap.Categories),
		LoadedAt:   snap.LoadedAt,
	})
}
