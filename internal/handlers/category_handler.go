package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"anggaran/internal/models"
	"anggaran/internal/services"
)

// CategoryHandler handles category-related requests.
type CategoryHandler struct {
	categoryService services.CategoryServicer
	auditService    services.AuditServicer
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(categoryService services.CategoryServicer, auditService services.AuditServicer) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService, auditService: auditService}
}

// CreateCategoryRequest represents the request payload for creating a category.
type CreateCategoryRequest struct {
	Name string              `json:"name" binding:"required,min=1,max=150"`
	Code string              `json:"code" binding:"required,min=1,max=20"`
	Kind models.CategoryKind `json:"kind" binding:"required,category_kind"`
}

// UpdateCategoryRequest represents the request payload for updating a category.
// Code and kind are only accepted while no item references the category.
type UpdateCategoryRequest struct {
	Name *string              `json:"name" binding:"omitempty,min=1,max=150"`
	Code *string              `json:"code" binding:"omitempty,min=1,max=20"`
	Kind *models.CategoryKind `json:"kind" binding:"omitempty,category_kind"`
}

// CreateCategory handles the creation of a new category.
// @Summary     Create a category
// @Description Register a top-level budget partition
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateCategoryRequest true "Category details"
// @Success     201 {object} response.Envelope{data=models.Category} "Category created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     409 {object} ErrorResponse "Duplicate code"
// @Router      /categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithBindError(c, err)
		return
	}

	category, err := h.categoryService.CreateCategory(req.Name, req.Code, req.Kind)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor, "CREATE_CATEGORY", "category", category.ID, c.ClientIP(),
		map[string]interface{}{"name": category.Name, "code": category.Code, "kind": category.Kind})

	respond(c, http.StatusCreated, category, "Category created")
}

// ListCategories handles listing categories.
// @Summary     List categories
// @Description List categories ordered by code
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       active query bool false "Only active categories"
// @Success     200 {object} response.Envelope{data=[]models.Category} "Categories"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /categories [get]
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	active, err := parseBoolQuery(c, "active")
	if err != nil {
		respondWithError(c, err)
		return
	}

	categories, err := h.categoryService.ListCategories(active != nil && *active)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusOK, categories, "Categories retrieved")
}

// GetCategory handles fetching a single category.
// @Summary     Get a category
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Category ID"
// @Success     200 {object} response.Envelope{data=models.Category} "Category"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /categories/{id} [get]
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	category, err := h.categoryService.GetCategoryByID(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusOK, category, "Category retrieved")
}

// UpdateCategory handles a partial category update.
// @Summary     Update a category
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                true "Category ID"
// @Param       request body UpdateCategoryRequest true "Fields to change"
// @Success     200 {object} response.Envelope{data=models.Category} "Category updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Code or kind locked by items"
// @Router      /categories/{id} [patch]
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithBindError(c, err)
		return
	}

	category, err := h.categoryService.UpdateCategory(c.Param("id"), req.Name, req.Code, req.Kind)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor, "UPDATE_CATEGORY", "category", category.ID, c.ClientIP(),
		map[string]interface{}{"name": category.Name, "code": category.Code, "kind": category.Kind})

	respond(c, http.StatusOK, category, "Category updated")
}

// DeactivateCategory handles soft-deactivating a category.
// @Summary     Deactivate a category
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Category ID"
// @Success     200 {object} response.Envelope{data=models.Category} "Category deactivated"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Category has active items"
// @Router      /categories/{id}/deactivate [patch]
func (h *CategoryHandler) DeactivateCategory(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	category, err := h.categoryService.DeactivateCategory(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor, "DEACTIVATE_CATEGORY", "category", category.ID, c.ClientIP(), nil)

	respond(c, http.StatusOK, category, "Category deactivated")
}

// DeleteCategory handles hard-deleting an unreferenced category.
// @Summary     Delete a category
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Category ID"
// @Success     200 {object} MessageResponse "Category deleted"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Category still has items"
// @Router      /categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id := c.Param("id")
	if err := h.categoryService.DeleteCategory(id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor, "DELETE_CATEGORY", "category", id, c.ClientIP(), nil)

	respond(c, http.StatusOK, nil, "Category deleted")
}
