package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/edusuite/backend/internal/data"
	"github.com/edusuite/backend/internal/finance"
	"github.com/edusuite/backend/internal/models"
)

type FeeHandler struct {
	manager *data.Manager
}

func NewFeeHandler(manager *data.Manager) *FeeHandler {
	return &FeeHandler{manager: manager}
}

type FeeHeadRequest struct {
	Name          string  `json:"name" binding:"required"`
	DefaultAmount float64 `json:"defaultAmount" binding:"required,gt=0"`
}

// @Summary Create a fee head
// @Tags fees
// @Success 201
// @Router /api/v1/fee-heads [post]
func (h *FeeHandler) CreateHead(c *gin.Context) {
	var req FeeHeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dc, ok := dataContext(c, h.manager)
	if !ok {
		return
	}
	created, err := dc.CreateFeeHead(c.Request.Context(), models.FeeHead{
		Name:          req.Name,
		DefaultAmount: req.DefaultAmount,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create fee head"})
		return
	}
	c.JSON(http.StatusCreated, created)
}

// @Summary Update a fee head
// @Tags fees
// @Success 200
// @Router /api/v1/fee-heads/{id} [put]
func (h *FeeHandler) UpdateHead(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req FeeHeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dc, ok := dataContext(c, h.manager)
	if !ok {
		return
	}

	existing, found := dc.Store().FeeHeads.Get(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Fee head not found"})
		return
	}
	existing.Name = req.Name
	existing.DefaultAmount = req.DefaultAmount

	updated, err := dc.UpdateFeeHead(c.Request.Context(), existing)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update fee head"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// @Summary Delete a fee head
// @Tags fees
// @Success 200
// @Router /api/v1/fee-heads/{id} [delete]
func (h *FeeHandler) DeleteHead(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	dc, ok := dataContext(c, h.manager)
	if !ok {
		return
	}
	if err := dc.DeleteFeeHead(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete fee head"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Fee head deleted"})
}

type GenerateChallansBody struct {
	Month      int             `json:"month" binding:"required,min=1,max=12"`
	Year       int             `json:"year" binding:"required,min=2000"`
	Selections []SelectionBody `json:"feeHeadSelections"`
	StudentIDs []uuid.UUID     `json:"studentIds"`
	DueDate    *time.Time      `json:"dueDate"`
}

type SelectionBody struct {
	FeeHeadID uuid.UUID `json:"feeHeadId" binding:"required"`
	Amount    float64   `json:"amount" binding:"required,gt=0"`
}

// @Summary Generate challans for a month
// @Tags fees
// @Success 200
// @Router /api/v1/challans/generate [post]
func (h *FeeHandler) GenerateChallans(c *gin.Context) {
	var body GenerateChallansBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dc, ok := dataContext(c, h.manager)
	if !ok {
		return
	}

	selections := make([]finance.Selection, 0, len(body.Selections))
	for _, sel := range body.Selections {
		selections = append(selections, finance.Selection{FeeHeadID: sel.FeeHeadID, Amount: sel.Amount})
	}

	created, err := dc.GenerateChallansForMonth(c.Request.Context(), data.GenerateChallansRequest{
		Month:      body.Month,
		Year:       body.Year,
		Selections: selections,
		StudentIDs: body.StudentIDs,
		DueDate:    body.DueDate,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate challans"})
		return
	}
	if created == 0 {
		c.JSON(http.StatusOK, gin.H{"created": 0, "message": "All targeted students already have challans for this month"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": created})
}

type PaymentRequest struct {
	Amount   float64    `json:"amount" binding:"required,gt=0"`
	Discount float64    `json:"discount" binding:"gte=0"`
	PaidDate *time.Time `json:"paidDate"`
}

// @Summary Record a payment against a challan
// @Tags fees
// @Success 200
// @Router /api/v1/challans/{id}/payment [post]
func (h *FeeHandler) RecordPayment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dc, ok := dataContext(c, h.manager)
	if !ok {
		return
	}

	paidDate := time.Now().UTC()
	if req.PaidDate != nil {
		paidDate = *req.PaidDate
	}
	updated, err := dc.RecordFeePayment(c.Request.Context(), id, req.Amount, req.Discount, paidDate)
	if err != nil {
		if errors.Is(err, data.ErrUnknownChallan) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Challan not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// @Summary Cancel a challan
// @Tags fees
// @Success 200
// @Router /api/v1/challans/{id}/cancel [post]
func (h *FeeHandler) CancelChallan(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	dc, ok := dataContext(c, h.manager)
	if !ok {
		return
	}
	updated, err := dc.CancelChallan(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, data.ErrUnknownChallan) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Challan not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel challan"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// @Summary Delete a challan
// @Tags fees
// @Success 200
// @Router /api/v1/challans/{id} [delete]
func (h *FeeHandler) DeleteChallan(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	dc, ok := dataContext(c, h.manager)
	if !ok {
		return
	}
	if err := dc.DeleteChallan(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete challan"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Challan deleted"})
}

// @Summary Students with outstanding balances
// @Tags fees
// @Success 200
// @Router /api/v1/fees/defaulters [get]
func (h *FeeHandler) Defaulters(c *gin.Context) {
	dc, ok := dataContext(c, h.manager)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"defaulters": dc.Defaulters()})
}
