package data

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/edusuite/backend/internal/finance"
	"github.com/edusuite/backend/internal/models"
	"github.com/edusuite/backend/internal/rowstore"
)

// paymentWriteTimeout bounds the payment write so a slow backend fails
// the request instead of hanging the counter clerk.
const paymentWriteTimeout = 15 * time.Second

// GenerateChallansRequest describes one billing run.
type GenerateChallansRequest struct {
	Month      int                 `json:"month" binding:"required,min=1,max=12"`
	Year       int                 `json:"year" binding:"required,min=2000"`
	Selections []finance.Selection `json:"feeHeadSelections"`
	StudentIDs []uuid.UUID         `json:"studentIds"`
	DueDate    *time.Time          `json:"dueDate"`
}

// GenerateChallansForMonth creates challans for every targeted active
// student who does not already hold a non-cancelled challan for the
// period. It returns the number actually created; zero with a nil
// error means there was nothing to do.
func (c *Context) GenerateChallansForMonth(ctx context.Context, req GenerateChallansRequest) (int, error) {
	school, err := c.requireTenant()
	if err != nil {
		return 0, err
	}
	if req.Month < 1 || req.Month > 12 {
		return 0, fmt.Errorf("month %d out of range", req.Month)
	}

	targeted := make(map[uuid.UUID]bool, len(req.StudentIDs))
	for _, id := range req.StudentIDs {
		targeted[id] = true
	}

	// Students already holding a live challan for the period are skipped.
	covered := make(map[uuid.UUID]bool)
	taken := make(map[string]bool)
	for _, ch := range c.store.FeeChallans.All() {
		taken[ch.ChallanNumber] = true
		if ch.Month == req.Month && ch.Year == req.Year && ch.Status != models.ChallanCancelled {
			covered[ch.StudentID] = true
		}
	}

	dueDate := finance.DefaultDueDate(req.Year, req.Month)
	if req.DueDate != nil {
		dueDate = *req.DueDate
	}
	heads := c.store.FeeHeads.All()

	rows := make([]rowstore.Row, 0)
	for _, student := range c.store.Students.All() {
		if student.Status != models.StudentActive {
			continue
		}
		if len(targeted) > 0 && !targeted[student.ID] {
			continue
		}
		if covered[student.ID] {
			continue
		}

		items := finance.ComposeFeeItems(student.FeeStructure, req.Selections, heads)
		if len(items) == 0 {
			continue
		}
		previous := 0.0
		if student.OpeningBalance > 0 {
			previous = student.OpeningBalance
		}
		number := finance.ChallanNumber(req.Year, req.Month, taken)
		taken[number] = true

		row, err := insertRow(models.FeeChallan{
			SchoolID:        school,
			StudentID:       student.ID,
			ClassID:         student.ClassID,
			Month:           req.Month,
			Year:            req.Year,
			ChallanNumber:   number,
			DueDate:         dueDate,
			Status:          models.ChallanUnpaid,
			FeeItems:        items,
			PreviousBalance: previous,
			TotalAmount:     finance.ItemsTotal(items) + previous,
		})
		if err != nil {
			return 0, err
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return 0, nil
	}

	echoed, err := c.client.Insert(ctx, rowstore.TableFeeChallans, rows)
	if err != nil {
		return 0, err
	}
	created, err := fromRows[models.FeeChallan](echoed)
	if err != nil {
		return 0, err
	}
	c.store.FeeChallans.UpsertAll(created)
	c.logActivity(ctx, "Challans Generated",
		fmt.Sprintf("Generated %d fee challans for %02d/%d", len(created), req.Month, req.Year))

	for _, ch := range created {
		if student, ok := c.store.Students.Get(ch.StudentID); ok {
			c.notify(ctx, c.studentAudience(student),
				"Fee challan "+ch.ChallanNumber+" has been issued for {name}.",
				student.Name, models.NotifyFee, &ch.ID)
		}
	}
	return len(created), nil
}

// RecordFeePayment applies a payment to a cached challan, re-derives
// its status, and persists the change under a bounded deadline.
func (c *Context) RecordFeePayment(ctx context.Context, challanID uuid.UUID, amount, discount float64, paidDate time.Time) (models.FeeChallan, error) {
	challan, ok := c.store.FeeChallans.Get(challanID)
	if !ok {
		return models.FeeChallan{}, ErrUnknownChallan
	}
	if challan.Status == models.ChallanCancelled {
		return models.FeeChallan{}, fmt.Errorf("challan %s is cancelled", challan.ChallanNumber)
	}
	if amount <= 0 {
		return models.FeeChallan{}, fmt.Errorf("payment amount must be positive")
	}

	newPaid := challan.PaidAmount + amount
	status := finance.DeriveStatus(newPaid, discount, challan.TotalAmount)

	wctx, cancel := context.WithTimeout(ctx, paymentWriteTimeout)
	defer cancel()
	echoed, err := c.client.UpdateByID(wctx, rowstore.TableFeeChallans, challanID.String(), rowstore.Row{
		"paid_amount": newPaid,
		"discount":    discount,
		"status":      status,
		"paid_date":   paidDate,
	})
	if err != nil {
		return models.FeeChallan{}, err
	}
	updated, err := fromRow[models.FeeChallan](echoed)
	if err != nil {
		return models.FeeChallan{}, err
	}
	c.store.FeeChallans.Upsert(updated)
	c.logActivity(ctx, "Payment Recorded",
		fmt.Sprintf("Recorded payment of %.2f on challan %s (now %s)", amount, updated.ChallanNumber, updated.Status))
	return updated, nil
}

// CancelChallan is terminal. The paid amount stays on the row for
// audit, but the challan drops out of every balance computation.
func (c *Context) CancelChallan(ctx context.Context, challanID uuid.UUID) (models.FeeChallan, error) {
	challan, ok := c.store.FeeChallans.Get(challanID)
	if !ok {
		return models.FeeChallan{}, ErrUnknownChallan
	}
	echoed, err := c.client.UpdateByID(ctx, rowstore.TableFeeChallans, challanID.String(), rowstore.Row{
		"status": models.ChallanCancelled,
	})
	if err != nil {
		return models.FeeChallan{}, err
	}
	updated, err := fromRow[models.FeeChallan](echoed)
	if err != nil {
		return models.FeeChallan{}, err
	}
	c.store.FeeChallans.Upsert(updated)
	c.logActivity(ctx, "Challan Cancelled", fmt.Sprintf("Cancelled challan %s", challan.ChallanNumber))
	return updated, nil
}

func (c *Context) DeleteChallan(ctx context.Context, challanID uuid.UUID) error {
	if err := c.client.DeleteByID(ctx, rowstore.TableFeeChallans, challanID.String()); err != nil {
		return err
	}
	c.store.FeeChallans.Remove(challanID)
	c.logActivity(ctx, "Challan Deleted", fmt.Sprintf("Deleted challan %s", challanID))
	return nil
}

// OutstandingBalanceFor computes a student's balance from the cache.
func (c *Context) OutstandingBalanceFor(studentID uuid.UUID) (float64, error) {
	student, ok := c.store.Students.Get(studentID)
	if !ok {
		return 0, fmt.Errorf("student %s not loaded", studentID)
	}
	return finance.OutstandingBalance(student, c.store.FeeChallans.All()), nil
}

// Defaulter pairs a student with their positive outstanding balance.
type Defaulter struct {
	Student models.Student `json:"student"`
	Balance float64        `json:"balance"`
}

// Defaulters lists active students whose outstanding balance is
// positive, using the same formula the dashboard and profile views use.
func (c *Context) Defaulters() []Defaulter {
	challans := c.store.FeeChallans.All()
	var out []Defaulter
	for _, student := range c.store.Students.All() {
		if student.Status != models.StudentActive {
			continue
		}
		if bal := finance.OutstandingBalance(student, challans); bal > 0 {
			out = append(out, Defaulter{Student: student, Balance: bal})
		}
	}
	return out
}
