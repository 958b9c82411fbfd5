package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "anggaran/internal/errors"
	"anggaran/internal/models"
	"anggaran/internal/services"
)

// PeriodHandler handles budget period requests.
type PeriodHandler struct {
	periodService      services.PeriodServicer
	aggregationService services.AggregationServicer
	auditService       services.AuditServicer
}

// NewPeriodHandler creates a new PeriodHandler.
func NewPeriodHandler(periodService services.PeriodServicer, aggregationService services.AggregationServicer, auditService services.AuditServicer) *PeriodHandler {
	return &PeriodHandler{
		periodService:      periodService,
		aggregationService: aggregationService,
		auditService:       auditService,
	}
}

// CreatePeriodRequest represents the request payload for creating a period.
type CreatePeriodRequest struct {
	Name         string `json:"name" binding:"required,min=1,max=150"`
	Year         int    `json:"year" binding:"required,gte=1900,lte=9999"`
	StartDate    string `json:"startDate" binding:"required" example:"2025-01-01"`
	EndDate      string `json:"endDate" binding:"required" example:"2025-12-31"`
	AutoPopulate bool   `json:"autoPopulate"`
}

// PeriodActivation is the activate response: the period plus whether
// another period is ACTIVE at the same time.
type PeriodActivation struct {
	*models.Period
	OtherActive bool `json:"otherActive"`
}

// PopulateResult reports how many budget entries a populate created.
type PopulateResult struct {
	PeriodID string `json:"periodId"`
	Created  int    `json:"created"`
}

// RollupResult is the rolled-up view of one item within a period.
type RollupResult struct {
	ItemID      string                 `json:"itemId"`
	TargetTotal decimal.Decimal        `json:"targetTotal" swaggertype:"string"`
	ActualTotal decimal.Decimal        `json:"actualTotal" swaggertype:"string"`
	Nodes       []services.EntryRollup `json:"nodes"`
}

// CreatePeriod handles the creation of a budget period.
// @Summary     Create a period
// @Description Create a DRAFT period, optionally snapshotting the item tree in the same transaction
// @Tags        periods
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreatePeriodRequest true "Period details"
// @Success     201 {object} response.Envelope{data=models.Period} "Period created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /periods [post]
func (h *PeriodHandler) CreatePeriod(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithBindError(c, err)
		return
	}
	startDate, err := parseDate("startDate", req.StartDate)
	if err != nil {
		respondWithError(c, err)
		return
	}
	endDate, err := parseDate("endDate", req.EndDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	period, err := h.periodService.CreatePeriod(services.CreatePeriodInput{
		Name:         req.Name,
		Year:         req.Year,
		StartDate:    startDate,
		EndDate:      endDate,
		AutoPopulate: req.AutoPopulate,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor, "CREATE_PERIOD", "period", period.ID, c.ClientIP(),
		map[string]interface{}{"name": period.Name, "year": period.Year, "autoPopulate": req.AutoPopulate})

	respond(c, http.StatusCreated, period, "Period created")
}

// ListPeriods handles listing periods, newest first.
// @Summary     List periods
// @Tags        periods
// @Produce     json
// @Security    BearerAuth
// @Param       status query string false "DRAFT, ACTIVE or CLOSED"
// @Param       year   query int    false "Fiscal year"
// @Success     200 {object} response.Envelope{data=[]models.Period} "Periods"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /periods [get]
func (h *PeriodHandler) ListPeriods(c *gin.Context) {
	var filter services.PeriodFilter
	if v := c.Query("status"); v != "" {
		status := models.PeriodStatus(v)
		if status != models.PeriodStatusDraft && status != models.PeriodStatusActive && status != models.PeriodStatusClosed {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "status must be DRAFT, ACTIVE or CLOSED"))
			return
		}
		filter.Status = &status
	}
	if v := c.Query("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "year must be a number"))
			return
		}
		filter.Year = &year
	}

	periods, err := h.periodService.ListPeriods(filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusOK, periods, "Periods retrieved")
}

// GetPeriod handles fetching a single period.
// @Summary     Get a period
// @Tags        periods
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Period ID"
// @Success     200 {object} response.Envelope{data=models.Period} "Period"
// @Failure     404 {object} ErrorResponse "Period not found"
// @Router      /periods/{id} [get]
func (h *PeriodHandler) GetPeriod(c *gin.Context) {
	period, err := h.periodService.GetPeriodByID(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusOK, period, "Period retrieved")
}

// PopulatePeriod handles snapshotting the active item tree into a period.
// @Summary     Populate a period
// @Description Copy every active item into the period's budget entries. Rejected once entries exist.
// @Tags        periods
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Period ID"
// @Success     201 {object} response.Envelope{data=PopulateResult} "Entries created"
// @Failure     404 {object} ErrorResponse "Period not found"
// @Failure     409 {object} ErrorResponse "Already populated or closed"
// @Router      /periods/{id}/populate [post]
func (h *PeriodHandler) PopulatePeriod(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id := c.Param("id")
	created, err := h.periodService.AutoPopulate(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor, "POPULATE_PERIOD", "period", id, c.ClientIP(),
		map[string]interface{}{"created": created})

	respond(c, http.StatusCreated, PopulateResult{PeriodID: id, Created: created}, "Period populated")
}

// ActivatePeriod handles the DRAFT to ACTIVE transition.
// @Summary     Activate a period
// @Tags        periods
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Period ID"
// @Success     200 {object} response.Envelope{data=PeriodActivation} "Period activated"
// @Failure     404 {object} ErrorResponse "Period not found"
// @Failure     409 {object} ErrorResponse "Invalid transition"
// @Router      /periods/{id}/activate [patch]
func (h *PeriodHandler) ActivatePeriod(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	period, err := h.periodService.Activate(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	otherActive, err := h.periodService.HasOtherActivePeriod(period.ID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor, "ACTIVATE_PERIOD", "period", period.ID, c.ClientIP(),
		map[string]interface{}{"otherActive": otherActive})

	respond(c, http.StatusOK, PeriodActivation{Period: period, OtherActive: otherActive}, "Period activated")
}

// ClosePeriod handles the ACTIVE to CLOSED transition.
// @Summary     Close a period
// @Description Closing freezes the period's transactions
// @Tags        periods
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Period ID"
// @Success     200 {object} response.Envelope{data=models.Period} "Period closed"
// @Failure     404 {object} ErrorResponse "Period not found"
// @Failure     409 {object} ErrorResponse "Invalid transition"
// @Router      /periods/{id}/close [patch]
func (h *PeriodHandler) ClosePeriod(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	period, err := h.periodService.Close(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor, "CLOSE_PERIOD", "period", period.ID, c.ClientIP(), nil)

	respond(c, http.StatusOK, period, "Period closed")
}

// ListBudgetEntries handles listing a period's entries with rolled-up totals.
// @Summary     List budget entries
// @Description Entries in depth-first tree order, each with targetTotal and actualTotal
// @Tags        periods
// @Produce     json
// @Security    BearerAuth
// @Param       id         path  string true  "Period ID"
// @Param       categoryId query string false "Filter by category"
// @Success     200 {object} response.Envelope{data=[]services.EntryRollup} "Budget entries"
// @Failure     404 {object} ErrorResponse "Period not found"
// @Router      /periods/{id}/budget-entries [get]
func (h *PeriodHandler) ListBudgetEntries(c *gin.Context) {
	entries, err := h.periodService.ListBudgetEntries(c.Param("id"), optionalQuery(c, "categoryId"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusOK, entries, "Budget entries retrieved")
}

// GetRollup handles the rolled-up totals of one item's subtree.
// @Summary     Roll up an item
// @Tags        periods
// @Produce     json
// @Security    BearerAuth
// @Param       id     path string true "Period ID"
// @Param       itemId path string true "Item ID"
// @Success     200 {object} response.Envelope{data=RollupResult} "Rollup"
// @Failure     404 {object} ErrorResponse "Period or item not found"
// @Router      /periods/{id}/rollup/{itemId} [get]
func (h *PeriodHandler) GetRollup(c *gin.Context) {
	itemID := c.Param("itemId")
	nodes, err := h.aggregationService.RollupSubtree(c.Param("id"), itemID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result := RollupResult{ItemID: itemID, TargetTotal: decimal.Zero, ActualTotal: decimal.Zero, Nodes: nodes}
	if len(nodes) > 0 {
		result.TargetTotal = nodes[0].TargetTotal
		result.ActualTotal = nodes[0].ActualTotal
	}

	respond(c, http.StatusOK, result, "Rollup computed")
}
