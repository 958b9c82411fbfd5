package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"anggaran/internal/models"
	"anggaran/internal/pagination"
	"anggaran/internal/services"
)

// TransactionHandler handles ledger requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, auditService: auditService}
}

// PostTransactionRequest represents the request payload for posting a transaction.
type PostTransactionRequest struct {
	PeriodID string                 `json:"periodId" binding:"required"`
	ItemID   string                 `json:"itemId" binding:"required"`
	Date     string                 `json:"date" binding:"required" example:"2025-02-01"`
	Amount   decimal.Decimal        `json:"amount" swaggertype:"string" binding:"required,gt=0,money"`
	Kind     models.TransactionKind `json:"kind" binding:"required,transaction_kind"`
	Note     string                 `json:"note" binding:"max=1000"`
}

// UpdateTransactionRequest represents a partial transaction update.
type UpdateTransactionRequest struct {
	Date   *string          `json:"date" example:"2025-02-01"`
	Amount *decimal.Decimal `json:"amount" swaggertype:"string" binding:"omitempty,gt=0,money"`
	Note   *string          `json:"note" binding:"omitempty,max=1000"`
}

// PostTransaction handles posting an actual movement to the ledger.
// @Summary     Post a transaction
// @Description Record a receipt or expenditure against an item adopted by an open period
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body PostTransactionRequest true "Transaction details"
// @Success     201 {object} response.Envelope{data=models.Transaction} "Transaction posted"
// @Failure     400 {object} ErrorResponse "Invalid input, kind mismatch or date outside period"
// @Failure     404 {object} ErrorResponse "Period or item not found"
// @Failure     409 {object} ErrorResponse "Period closed"
// @Router      /transactions [post]
func (h *TransactionHandler) PostTransaction(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req PostTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithBindError(c, err)
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	txn, err := h.transactionService.PostTransaction(services.PostTransactionInput{
		PeriodID: req.PeriodID,
		ItemID:   req.ItemID,
		Date:     date,
		Amount:   req.Amount,
		Kind:     req.Kind,
		Note:     req.Note,
		Actor:    actor,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor, "POST_TRANSACTION", "transaction", txn.ID, c.ClientIP(),
		map[string]interface{}{"periodId": txn.PeriodID, "itemId": txn.ItemID, "amount": txn.Amount.String(), "kind": txn.Kind})

	respond(c, http.StatusCreated, txn, "Transaction posted")
}

// ListTransactions handles listing ledger entries.
// @Summary     List transactions
// @Description Paginated transactions, newest first
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       periodId      query string false "Filter by period"
// @Param       itemId        query string false "Filter by item"
// @Param       includeVoided query bool   false "Include voided transactions"
// @Param       page          query int    false "Page number (default 1)"
// @Param       page_size     query int    false "Items per page (default 50, max 200)"
// @Success     200 {object} response.Envelope{data=pagination.PageResponse[models.Transaction]} "Transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithBindError(c, err)
		return
	}
	includeVoided, err := parseBoolQuery(c, "includeVoided")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.ListTransactions(services.TransactionFilter{
		PeriodID:      optionalQuery(c, "periodId"),
		ItemID:        optionalQuery(c, "itemId"),
		IncludeVoided: includeVoided != nil && *includeVoided,
	}, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusOK, result, "Transactions retrieved")
}

// GetTransaction handles fetching a single transaction.
// @Summary     Get a transaction
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} response.Envelope{data=models.Transaction} "Transaction"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	txn, err := h.transactionService.GetTransactionByID(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	respond(c, http.StatusOK, txn, "Transaction retrieved")
}

// UpdateTransaction handles editing a transaction of an open period.
// @Summary     Update a transaction
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                   true "Transaction ID"
// @Param       request body UpdateTransactionRequest true "Fields to change"
// @Success     200 {object} response.Envelope{data=models.Transaction} "Transaction updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     409 {object} ErrorResponse "Period closed or transaction voided"
// @Router      /transactions/{id} [patch]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithBindError(c, err)
		return
	}

	input := services.UpdateTransactionInput{Amount: req.Amount, Note: req.Note}
	if req.Date != nil {
		var date time.Time
		if date, err = parseDate("date", *req.Date); err != nil {
			respondWithError(c, err)
			return
		}
		input.Date = &date
	}

	txn, err := h.transactionService.UpdateTransaction(c.Param("id"), input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor, "UPDATE_TRANSACTION", "transaction", txn.ID, c.ClientIP(),
		map[string]interface{}{"amount": txn.Amount.String(), "date": txn.Date.Format(dateLayout)})

	respond(c, http.StatusOK, txn, "Transaction updated")
}

// VoidTransaction handles voiding a transaction.
// @Summary     Void a transaction
// @Description The transaction stays in the ledger but no longer counts toward actuals
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} response.Envelope{data=models.Transaction} "Transaction voided"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     409 {object} ErrorResponse "Period closed or already voided"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) VoidTransaction(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	txn, err := h.transactionService.VoidTransaction(c.Param("id"), actor)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor, "VOID_TRANSACTION", "transaction", txn.ID, c.ClientIP(), nil)

	respond(c, http.StatusOK, txn, "Transaction voided")
}
