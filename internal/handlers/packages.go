package handlers

import (
	"net/http"
	"strconv"

	apperrors "tourism/internal/errors"
	"tourism/internal/models"
	"tourism/internal/money"

	"github.com/gin-gonic/gin"
)

const maxPageSize = 20

// Packages handlers

// CreatePackage - POST /api/packages
// Создать туристический пакет
func (h *Handlers) CreatePackage(c *gin.Context) {
	var req models.CreatePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingFailed(c, err)
		return
	}

	response, err := h.services.Packages.Create(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err, "create package")
		return
	}

	c.JSON(http.StatusCreated, response)
}

// UpdatePackage - PUT /api/packages/:id
// Изменить описание и цену пакета
func (h *Handlers) UpdatePackage(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdatePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingFailed(c, err)
		return
	}

	pkg, err := h.services.Packages.Update(c.Request.Context(), id, &req)
	if err != nil {
		handleServiceError(c, err, "update package")
		return
	}

	c.JSON(http.StatusOK, pkg)
}

// GetPackage - GET /api/packages/:id
func (h *Handlers) GetPackage(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	pkg, err := h.services.Packages.Get(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "get package")
		return
	}

	c.JSON(http.StatusOK, pkg)
}

// DeletePackage - DELETE /api/packages/:id
// Удалить пакет без бронирований
func (h *Handlers) DeletePackage(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.services.Packages.Delete(c.Request.Context(), id); err != nil {
		handleServiceError(c, err, "delete package")
		return
	}

	c.Status(http.StatusNoContent)
}

// ListPackages - GET /api/packages
// Поиск пакетов
func (h *Handlers) ListPackages(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	var fields []apperrors.FieldError
	if page < 1 {
		fields = append(fields, apperrors.FieldError{Field: "page", Message: "page must be >= 1"})
	}
	if pageSize < 1 || pageSize > maxPageSize {
		fields = append(fields, apperrors.FieldError{Field: "pageSize", Message: "pageSize must be between 1 and 20"})
	}

	filter := models.PackageFilter{
		Query:    c.Query("query"),
		Location: c.Query("location"),
		Page:     page,
		PageSize: pageSize,
	}

	for _, p := range []struct {
		name string
		dst  **money.Amount
	}{
		{"min_price", &filter.MinPrice},
		{"max_price", &filter.MaxPrice},
	} {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		amount, err := money.Parse(raw)
		if err != nil || amount.IsNegative() {
			fields = append(fields, apperrors.FieldError{Field: p.name, Message: p.name + " must be a non-negative amount"})
			continue
		}
		*p.dst = &amount
	}

	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MaxPrice < *filter.MinPrice {
		fields = append(fields, apperrors.FieldError{Field: "max_price", Message: "max_price must not be below min_price"})
	}

	if len(fields) > 0 {
		validationFailed(c, fields)
		return
	}

	response, err := h.services.Packages.Search(c.Request.Context(), filter)
	if err != nil {
		handleServiceError(c, err, "list packages")
		return
	}

	c.JSON(http.StatusOK, response)
}
