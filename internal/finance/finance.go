// Package finance holds the pure money rules of the system: challan
// status derivation, outstanding balances, fee-item composition and
// challan numbering. Nothing in here touches the backend.
package finance

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/edusuite/backend/internal/models"
)

// DeriveStatus computes a challan's payment status from its amounts.
// Cancellation is a terminal state set explicitly elsewhere; it never
// comes out of this derivation.
func DeriveStatus(paidAmount, discount, totalAmount float64) string {
	switch {
	case paidAmount+discount >= totalAmount:
		return models.ChallanPaid
	case paidAmount > 0:
		return models.ChallanPartial
	default:
		return models.ChallanUnpaid
	}
}

// OutstandingBalance computes a student's balance from their opening
// balance and challan history. Cancelled challans are excluded entirely,
// whatever their paid amounts say. The previous-balance snapshot folded
// into each challan's total is subtracted back out so the opening
// balance is only counted once.
func OutstandingBalance(student models.Student, challans []models.FeeChallan) float64 {
	balance := student.OpeningBalance
	for _, ch := range challans {
		if ch.StudentID != student.ID || ch.Status == models.ChallanCancelled {
			continue
		}
		balance += ch.TotalAmount - ch.PreviousBalance
		balance -= ch.PaidAmount
		balance -= ch.Discount
	}
	return balance
}

// Selection is a caller-chosen fee head and the amount to bill for it.
type Selection struct {
	FeeHeadID uuid.UUID
	Amount    float64
}

// ComposeFeeItems builds a challan's line items. The student's personal
// overrides come first; selections are appended only when no override
// already covers the same fee head name, so an override always wins and
// a fee head never appears twice.
func ComposeFeeItems(overrides models.FeeOverrideList, selections []Selection, heads []models.FeeHead) []models.ChallanItem {
	names := make(map[uuid.UUID]string, len(heads))
	for _, h := range heads {
		names[h.ID] = h.Name
	}

	items := make([]models.ChallanItem, 0, len(overrides)+len(selections))
	seen := make(map[string]bool)
	for _, o := range overrides {
		name := names[o.FeeHeadID]
		if name == "" {
			name = "Fee"
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		items = append(items, models.ChallanItem{Description: name, Amount: o.Amount})
	}
	for _, sel := range selections {
		name := names[sel.FeeHeadID]
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		items = append(items, models.ChallanItem{Description: name, Amount: sel.Amount})
	}
	return items
}

// ItemsTotal sums a challan's line items.
func ItemsTotal(items []models.ChallanItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Amount
	}
	return total
}

// ChallanNumber generates a human-readable challan number of the form
// CHN-YYYYMM-NNNN. The suffix is random; callers pass the set of numbers
// already in use and the generator retries on collision, widening the
// suffix when a width is exhausted.
func ChallanNumber(year, month int, taken map[string]bool) string {
	prefix := fmt.Sprintf("CHN-%d%02d", year, month)
	for width := 4; width <= 9; width++ {
		limit := pow10(width)
		for attempt := 0; attempt < 100; attempt++ {
			n := fmt.Sprintf("%s-%0*d", prefix, width, rand.Intn(limit))
			if !taken[n] {
				return n
			}
		}
	}
	// Practically unreachable; fall back to a unique opaque suffix.
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString()[:8])
}

func pow10(n int) int {
	out := 1
	for i := 0; i < n; i++ {
		out *= 10
	}
	return out
}

// DefaultDueDate is the 10th of the challan's target month.
func DefaultDueDate(year, month int) time.Time {
	return time.Date(year, time.Month(month), 10, 0, 0, 0, 0, time.UTC)
}
