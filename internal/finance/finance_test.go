package finance

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/edusuite/backend/internal/models"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name     string
		paid     float64
		discount float64
		total    float64
		expected string
	}{
		{"Untouched", 0, 0, 5000, models.ChallanUnpaid},
		{"Partial Payment", 2000, 0, 5000, models.ChallanPartial},
		{"Partial With Discount", 2000, 500, 5000, models.ChallanPartial},
		{"Exactly Covered", 4500, 500, 5000, models.ChallanPaid},
		{"Overpaid", 6000, 0, 5000, models.ChallanPaid},
		{"Discount Alone Covers", 0, 5000, 5000, models.ChallanPaid},
		{"Zero Total", 0, 0, 0, models.ChallanPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveStatus(tt.paid, tt.discount, tt.total)
			if got != tt.expected {
				t.Errorf("DeriveStatus(%v, %v, %v) = %s, want %s", tt.paid, tt.discount, tt.total, got, tt.expected)
			}
		})
	}
}

func TestOutstandingBalance(t *testing.T) {
	studentID := uuid.New()
	student := models.Student{
		BaseModel:      models.BaseModel{ID: studentID},
		OpeningBalance: 1000,
	}

	challans := []models.FeeChallan{
		{
			StudentID:       studentID,
			TotalAmount:     5000,
			PreviousBalance: 1000,
			PaidAmount:      2000,
			Discount:        500,
			Status:          models.ChallanPartial,
		},
	}

	// 1000 + (5000-1000) - 2000 - 500 = 2500
	if got := OutstandingBalance(student, challans); got != 2500 {
		t.Errorf("expected balance 2500, got %v", got)
	}
}

func TestOutstandingBalanceExcludesCancelled(t *testing.T) {
	studentID := uuid.New()
	student := models.Student{BaseModel: models.BaseModel{ID: studentID}, OpeningBalance: 0}

	challans := []models.FeeChallan{
		{StudentID: studentID, TotalAmount: 3000, PaidAmount: 0, Status: models.ChallanUnpaid},
		// Cancelled after a partial payment: excluded despite its amounts.
		{StudentID: studentID, TotalAmount: 9000, PaidAmount: 4000, Status: models.ChallanCancelled},
		// Another student's challan never counts.
		{StudentID: uuid.New(), TotalAmount: 7000, Status: models.ChallanUnpaid},
	}

	if got := OutstandingBalance(student, challans); got != 3000 {
		t.Errorf("expected balance 3000, got %v", got)
	}
}

func TestOutstandingBalanceSubviewInvariant(t *testing.T) {
	studentID := uuid.New()
	student := models.Student{BaseModel: models.BaseModel{ID: studentID}, OpeningBalance: 500}

	all := []models.FeeChallan{
		{StudentID: studentID, TotalAmount: 2000, PreviousBalance: 500, PaidAmount: 1000, Status: models.ChallanPartial},
		{StudentID: uuid.New(), TotalAmount: 8000, Status: models.ChallanUnpaid},
	}

	// The formula must give the same answer over the full list and over
	// a view filtered to the student's own challans.
	var own []models.FeeChallan
	for _, ch := range all {
		if ch.StudentID == studentID {
			own = append(own, ch)
		}
	}

	full := OutstandingBalance(student, all)
	filtered := OutstandingBalance(student, own)
	if full != filtered {
		t.Errorf("balance differs by subview: full=%v filtered=%v", full, filtered)
	}
	if full != 1000 {
		t.Errorf("expected balance 1000, got %v", full)
	}
}

func TestComposeFeeItems(t *testing.T) {
	tuition := models.FeeHead{BaseModel: models.BaseModel{ID: uuid.New()}, Name: "Tuition", DefaultAmount: 5000}
	transport := models.FeeHead{BaseModel: models.BaseModel{ID: uuid.New()}, Name: "Transport", DefaultAmount: 1500}
	heads := []models.FeeHead{tuition, transport}

	overrides := models.FeeOverrideList{{FeeHeadID: tuition.ID, Amount: 4000}}
	selections := []Selection{
		{FeeHeadID: tuition.ID, Amount: 5000},   // already overridden, must not duplicate
		{FeeHeadID: transport.ID, Amount: 1500},
	}

	items := ComposeFeeItems(overrides, selections, heads)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d: %+v", len(items), items)
	}
	if items[0].Description != "Tuition" || items[0].Amount != 4000 {
		t.Errorf("override should win for Tuition, got %+v", items[0])
	}
	if items[1].Description != "Transport" || items[1].Amount != 1500 {
		t.Errorf("expected Transport selection, got %+v", items[1])
	}
	if ItemsTotal(items) != 5500 {
		t.Errorf("expected total 5500, got %v", ItemsTotal(items))
	}
}

func TestChallanNumberFormat(t *testing.T) {
	n := ChallanNumber(2026, 3, nil)
	if !strings.HasPrefix(n, "CHN-202603-") {
		t.Errorf("unexpected prefix: %s", n)
	}
	suffix := strings.TrimPrefix(n, "CHN-202603-")
	if len(suffix) != 4 {
		t.Errorf("expected 4-digit suffix, got %q", suffix)
	}
}

func TestChallanNumberAvoidsCollisions(t *testing.T) {
	taken := make(map[string]bool)
	for i := 0; i < 200; i++ {
		n := ChallanNumber(2026, 1, taken)
		if taken[n] {
			t.Fatalf("generated duplicate challan number %s", n)
		}
		taken[n] = true
	}
}

func TestDefaultDueDate(t *testing.T) {
	due := DefaultDueDate(2026, 2)
	if due.Year() != 2026 || due.Month() != 2 || due.Day() != 10 {
		t.Errorf("expected 2026-02-10, got %v", due)
	}
}
