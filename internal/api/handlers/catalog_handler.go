package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"newsdesk/portal/internal/api/middleware"
	"newsdesk/portal/internal/models"
	"newsdesk/portal/internal/services"
	"newsdesk/portal/internal/storage"
)

// CatalogHandler serves the newspaper and booklet catalog.
type CatalogHandler struct {
	catalog services.ICatalogService
	uploads imageUploads
}

func NewCatalogHandler(catalog services.ICatalogService, storage storage.IS3Storage, queue ImageQueue) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, uploads: imageUploads{storage: storage, queue: queue}}
}

type catalogRequest struct {
	Name        *string  `json:"name" binding:"omitempty,min=1"`
	Language    *string  `json:"language"`
	Publisher   *string  `json:"publisher"`
	Price       *float64 `json:"price" binding:"omitempty,gte=0"`
	Description *string  `json:"description"`
	Active      *bool    `json:"active"`
}

func (r catalogRequest) input() services.CatalogInput {
	return services.CatalogInput{
		Name:        r.Name,
		Language:    r.Language,
		Publisher:   r.Publisher,
		Price:       r.Price,
		Description: r.Description,
		Active:      r.Active,
	}
}

func kindParam(c *gin.Context) (models.CatalogKind, bool) {
	kind, ok := models.ParseCatalogKind(c.Param("kind"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Unknown catalog"})
		return "", false
	}
	return kind, true
}

// List handles GET /api/catalog/:kind. Admins also see inactive items.
func (h *CatalogHandler) List(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	activeOnly := true
	if p, ok := middleware.PrincipalFrom(c); ok && p.Role == models.RoleAdmin {
		activeOnly = c.Query("active") == "true"
	}
	items, err := h.catalog.List(c.Request.Context(), kind, activeOnly)
	if err != nil {
		respondError(c, err, "Failed to list catalog")
		return
	}
	respond(c, http.StatusOK, gin.H{"items": items})
}

// Get handles GET /api/catalog/:kind/:id
func (h *CatalogHandler) Get(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	item, err := h.catalog.Get(c.Request.Context(), kind, id)
	if err != nil {
		respondError(c, err, "Failed to retrieve item")
		return
	}
	respond(c, http.StatusOK, gin.H{"item": item})
}

// Create handles POST /api/admin/catalog/:kind
func (h *CatalogHandler) Create(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	var req catalogRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.catalog.Create(c.Request.Context(), kind, req.input())
	if err != nil {
		respondError(c, err, "Failed to create item")
		return
	}
	respond(c, http.StatusCreated, gin.H{"item": item})
}

// Update handles PATCH /api/admin/catalog/:kind/:id
func (h *CatalogHandler) Update(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req catalogRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.catalog.Update(c.Request.Context(), kind, id, req.input())
	if err != nil {
		respondError(c, err, "Failed to update item")
		return
	}
	respond(c, http.StatusOK, gin.H{"item": item})
}

// Delete handles DELETE /api/admin/catalog/:kind/:id
func (h *CatalogHandler) Delete(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.Delete(c.Request.Context(), kind, id); err != nil {
		respondError(c, err, "Failed to delete item")
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Deleted"})
}

// ImageUploadURL handles POST /api/admin/catalog/:kind/:id/image/upload-url
func (h *CatalogHandler) ImageUploadURL(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if _, err := h.catalog.Get(c.Request.Context(), kind, id); err != nil {
		respondError(c, err, "Failed to retrieve item")
		return
	}
	h.uploads.presign(c, string(kind), id)
}

// ConfirmImage handles POST /api/admin/catalog/:kind/:id/image
func (h *CatalogHandler) ConfirmImage(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	h.uploads.confirm(c, string(kind), id)
}
