package store

import (
	"testing"

	"github.com/google/uuid"

	"github.com/edusuite/backend/internal/models"
)

func TestUpsertPatchesByID(t *testing.T) {
	s := New()
	id := uuid.New()

	s.Students.Replace([]models.Student{
		{BaseModel: models.BaseModel{ID: id}, Name: "Asha", Status: models.StudentActive},
	})

	s.Students.Upsert(models.Student{BaseModel: models.BaseModel{ID: id}, Name: "Asha", Status: models.StudentLeft})
	if s.Students.Len() != 1 {
		t.Fatalf("expected 1 student after patch, got %d", s.Students.Len())
	}
	got, ok := s.Students.Get(id)
	if !ok || got.Status != models.StudentLeft {
		t.Errorf("expected patched status Left, got %+v", got)
	}

	s.Students.Upsert(models.Student{BaseModel: models.BaseModel{ID: uuid.New()}, Name: "Bilal"})
	if s.Students.Len() != 2 {
		t.Errorf("expected append for unknown id, got %d rows", s.Students.Len())
	}
}

func TestRemove(t *testing.T) {
	s := New()
	a, b := uuid.New(), uuid.New()
	s.Classes.Replace([]models.Class{
		{BaseModel: models.BaseModel{ID: a}, Name: "Grade 1"},
		{BaseModel: models.BaseModel{ID: b}, Name: "Grade 2"},
	})

	s.Classes.Remove(a)
	if s.Classes.Len() != 1 {
		t.Fatalf("expected 1 class, got %d", s.Classes.Len())
	}
	if _, ok := s.Classes.Get(a); ok {
		t.Errorf("removed class still present")
	}
}

func TestAllReturnsCopy(t *testing.T) {
	s := New()
	s.FeeHeads.Replace([]models.FeeHead{{Name: "Tuition", DefaultAmount: 5000}})

	snapshot := s.FeeHeads.All()
	snapshot[0].Name = "mutated"

	fresh := s.FeeHeads.All()
	if fresh[0].Name != "Tuition" {
		t.Errorf("All() leaked internal slice: %q", fresh[0].Name)
	}
}

func TestPrependCaps(t *testing.T) {
	s := New()
	for i := 0; i < 5; i++ {
		s.ActivityLogs.Prepend(models.ActivityLog{ID: uuid.New(), Action: "x"}, 3)
	}
	if s.ActivityLogs.Len() != 3 {
		t.Errorf("expected cap at 3, got %d", s.ActivityLogs.Len())
	}
}

func TestResetClearsEverything(t *testing.T) {
	s := New()
	s.Schools.Replace([]models.School{{Name: "A"}})
	s.Notifications.Replace([]models.Notification{{ID: uuid.New()}})

	s.Reset()
	if s.Schools.Len() != 0 || s.Notifications.Len() != 0 {
		t.Errorf("Reset left rows behind")
	}
}
