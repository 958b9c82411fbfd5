package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"anggaran/internal/services"
)

// Fields an item update may clear.
const (
	clearTargetFrequency = "targetFrequency"
	clearUnitLabel       = "unitLabel"
	clearUnitAmount      = "unitAmount"
)

// ItemHandler handles budget item requests.
type ItemHandler struct {
	itemService  services.ItemServicer
	auditService services.AuditServicer
}

// NewItemHandler creates a new ItemHandler.
func NewItemHandler(itemService services.ItemServicer, auditService services.AuditServicer) *ItemHandler {
	return &ItemHandler{itemService: itemService, auditService: auditService}
}

// CreateItemRequest represents the request payload for creating an item.
type CreateItemRequest struct {
	CategoryID      string           `json:"categoryId" binding:"required"`
	ParentID        *string          `json:"parentId"`
	Code            string           `json:"code" binding:"required,max=50,item_code"`
	Name            string           `json:"name" binding:"required,max=255"`
	Order           *int             `json:"order" binding:"omitempty,gte=1"`
	TargetFrequency *int             `json:"targetFrequency" binding:"omitempty,gte=0"`
	UnitLabel       *string          `json:"unitLabel" binding:"omitempty,max=50"`
	UnitAmount      *decimal.Decimal `json:"unitAmount" swaggertype:"string" binding:"omitempty,gte=0,money"`
}

// UpdateItemRequest represents a partial item update. Fields listed in
// Clear are set to null.
type UpdateItemRequest struct {
	Name            *string          `json:"name" binding:"omitempty,min=1,max=255"`
	Code            *string          `json:"code" binding:"omitempty,max=50,item_code"`
	Order           *int             `json:"order" binding:"omitempty,gte=1"`
	TargetFrequency *int             `json:"targetFrequency" binding:"omitempty,gte=0"`
	UnitLabel       *string          `json:"unitLabel" binding:"omitempty,max=50"`
	UnitAmount      *decimal.Decimal `json:"unitAmount" swaggertype:"string" binding:"omitempty,gte=0,money"`
	IsActive        *bool            `json:"isActive"`
	Clear           []string         `json:"clear" binding:"omitempty,dive,oneof=targetFrequency unitLabel unitAmount"`
}

// MoveItemRequest re-parents an item. A null parentId moves it to the root.
type MoveItemRequest struct {
	ParentID *string `json:"parentId"`
}

// CreateItem handles the creation of a budget item.
// @Summary     Create an item
// @Description Insert a node into a category's budget tree
// @Tags        items
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateItemRequest true "Item details"
// @Success     201 {object} response.Envelope{data=models.Item} "Item created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Category or parent not found"
// @Failure     409 {object} ErrorResponse "Duplicate code"
// @Router      /items [post]
func (h *ItemHandler) CreateItem(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithBindError(c, err)
		return
	}

	item, err := h.itemService.CreateItem(services.CreateItemInput{
		CategoryID:      req.CategoryID,
		ParentID:        req.ParentID,
		Code:            req.Code,
		Name:            req.Name,
		Order:           req.Order,
		TargetFrequency: req.TargetFrequency,
		UnitLabel:       req.UnitLabel,
		UnitAmount:      req.UnitAmount,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor, "CREATE_ITEM", "item", item.ID, c.ClientIP(),
		map[string]interface{}{"code": item.Code, "name": item.Name, "parentId": item.ParentID, "order": item.Order})

	respond(c, http.StatusCreated, item, "Item created")
}

// ListItems handles listing items as a flat, tree-ordered array.
// @Summary     List items
// @Description List items ordered by category, level, parent and order
// @Tags        items
// @Produce     json
// @Security    BearerAuth
// @Param       categoryId query string false "Filter by category"
// @Param       periodId   query string false "Only items adopted by this period"
// @Success     200 {object} response.Envelope{data=[]models.Item} "Items"
// @Router      /items [get]
func (h *ItemHandler) ListItems(c *gin.Context) {
	items, err := h.itemService.ListItems(services.ItemFilter{
		CategoryID: optionalQuery(c, "categoryId"),
		PeriodID:   optionalQuery(c, "periodId"),
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusOK, items, "Items retrieved")
}

// GetItem handles fetching a single item.
// @Summary     Get an item
// @Tags        items
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Item ID"
// @Success     200 {object} response.Envelope{data=models.Item} "Item"
// @Failure     404 {object} ErrorResponse "Item not found"
// @Router      /items/{id} [get]
func (h *ItemHandler) GetItem(c *gin.Context) {
	item, err := h.itemService.GetItemByID(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusOK, item, "Item retrieved")
}

// GetSubtree handles fetching an item with all its descendants.
// @Summary     Get an item subtree
// @Description The item followed by its descendants, depth-first in sibling order
// @Tags        items
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Item ID"
// @Success     200 {object} response.Envelope{data=[]models.Item} "Subtree"
// @Failure     404 {object} ErrorResponse "Item not found"
// @Router      /items/{id}/subtree [get]
func (h *ItemHandler) GetSubtree(c *gin.Context) {
	items, err := h.itemService.GetSubtree(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusOK, items, "Subtree retrieved")
}

// UpdateItem handles a partial item update.
// @Summary     Update an item
// @Tags        items
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string            true "Item ID"
// @Param       request body UpdateItemRequest true "Fields to change"
// @Success     200 {object} response.Envelope{data=models.Item} "Item updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Item not found"
// @Failure     409 {object} ErrorResponse "Duplicate code"
// @Router      /items/{id} [patch]
func (h *ItemHandler) UpdateItem(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithBindError(c, err)
		return
	}

	input := services.UpdateItemInput{
		Name:            req.Name,
		Code:            req.Code,
		Order:           req.Order,
		TargetFrequency: req.TargetFrequency,
		UnitLabel:       req.UnitLabel,
		UnitAmount:      req.UnitAmount,
		IsActive:        req.IsActive,
	}
	for _, field := range req.Clear {
		switch field {
		case clearTargetFrequency:
			input.ClearTargetFrequency = true
		case clearUnitLabel:
			input.ClearUnitLabel = true
		case clearUnitAmount:
			input.ClearUnitAmount = true
		}
	}

	item, err := h.itemService.UpdateItem(c.Param("id"), input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor, "UPDATE_ITEM", "item", item.ID, c.ClientIP(),
		map[string]interface{}{"code": item.Code, "order": item.Order, "isActive": item.IsActive, "cleared": req.Clear})

	respond(c, http.StatusOK, item, "Item updated")
}

// MoveItem handles re-parenting an item.
// @Summary     Move an item
// @Description Re-parent an item; it is appended after its new siblings and its subtree is re-levelled
// @Tags        items
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string          true "Item ID"
// @Param       request body MoveItemRequest true "New parent"
// @Success     200 {object} response.Envelope{data=models.Item} "Item moved"
// @Failure     400 {object} ErrorResponse "Cycle, depth or category violation"
// @Failure     404 {object} ErrorResponse "Item or parent not found"
// @Router      /items/{id}/move [patch]
func (h *ItemHandler) MoveItem(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req MoveItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithBindError(c, err)
		return
	}

	item, err := h.itemService.MoveItem(c.Param("id"), req.ParentID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor, "MOVE_ITEM", "item", item.ID, c.ClientIP(),
		map[string]interface{}{"parentId": item.ParentID, "level": item.Level, "order": item.Order})

	respond(c, http.StatusOK, item, "Item moved")
}

// DeleteItem handles hard-deleting an unreferenced item.
// @Summary     Delete an item
// @Tags        items
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Item ID"
// @Success     200 {object} MessageResponse "Item deleted"
// @Failure     404 {object} ErrorResponse "Item not found"
// @Failure     409 {object} ErrorResponse "Item has dependents"
// @Router      /items/{id} [delete]
func (h *ItemHandler) DeleteItem(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id := c.Param("id")
	if err := h.itemService.DeleteItem(id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor, "DELETE_ITEM", "item", id, c.ClientIP(), nil)

	respond(c, http.StatusOK, nil, "Item deleted")
}
