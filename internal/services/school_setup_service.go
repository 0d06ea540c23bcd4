package services

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/edusuite/backend/internal/models"
)

type SchoolSetupService struct {
	db   *gorm.DB
	auth *AuthService
}

func NewSchoolSetupService(db *gorm.DB, auth *AuthService) *SchoolSetupService {
	return &SchoolSetupService{db: db, auth: auth}
}

// defaultFeeHeads are seeded for every new school so challan generation
// works out of the box. Amounts are placeholders the admin adjusts.
var defaultFeeHeads = []struct {
	Name   string
	Amount float64
}{
	{"Tuition Fee", 5000},
	{"Admission Fee", 10000},
	{"Exam Fee", 1000},
	{"Transport Fee", 1500},
}

var defaultClasses = []string{
	"Nursery", "KG", "Grade 1", "Grade 2", "Grade 3", "Grade 4", "Grade 5",
}

// SetupSchool provisions a new school with its default fee heads, a
// starter class ladder and an admin account, all in one transaction.
func (s *SchoolSetupService) SetupSchool(school *models.School, adminEmail, adminPassword string) (*models.User, error) {
	var admin *models.User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(school).Error; err != nil {
			return fmt.Errorf("create school: %w", err)
		}
		if err := s.createFeeHeads(tx, school.ID); err != nil {
			return fmt.Errorf("seed fee heads: %w", err)
		}
		if err := s.createClasses(tx, school.ID); err != nil {
			return fmt.Errorf("seed classes: %w", err)
		}

		created, err := s.createAdmin(tx, school, adminEmail, adminPassword)
		if err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		admin = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return admin, nil
}

func (s *SchoolSetupService) createFeeHeads(tx *gorm.DB, schoolID uuid.UUID) error {
	for _, head := range defaultFeeHeads {
		var existing models.FeeHead
		err := tx.Where("school_id = ? AND name = ?", schoolID, head.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		if err := tx.Create(&models.FeeHead{
			SchoolID:      schoolID,
			Name:          head.Name,
			DefaultAmount: head.Amount,
		}).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *SchoolSetupService) createClasses(tx *gorm.DB, schoolID uuid.UUID) error {
	for i, name := range defaultClasses {
		var existing models.Class
		err := tx.Where("school_id = ? AND name = ?", schoolID, name).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		if err := tx.Create(&models.Class{
			SchoolID:  schoolID,
			Name:      name,
			SortOrder: i,
		}).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *SchoolSetupService) createAdmin(tx *gorm.DB, school *models.School, email, password string) (*models.User, error) {
	if email == "" {
		email = fmt.Sprintf("admin@%s.example.com", slugify(school.Name))
	}
	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	admin := &models.User{
		SchoolID:     &school.ID,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Name:         fmt.Sprintf("%s Administrator", school.Name),
		Status:       models.UserActive,
	}
	if err := tx.Create(admin).Error; err != nil {
		return nil, err
	}
	return admin, nil
}

// AssignTeacherToClass sets a class's teacher after checking both sides
// live in the same school.
func (s *SchoolSetupService) AssignTeacherToClass(teacherID, classID uuid.UUID) error {
	var teacher models.User
	var class models.Class

	if err := s.db.First(&teacher, "id = ? AND role = ?", teacherID, models.RoleTeacher).Error; err != nil {
		return fmt.Errorf("teacher not found: %w", err)
	}
	if err := s.db.First(&class, "id = ?", classID).Error; err != nil {
		return fmt.Errorf("class not found: %w", err)
	}
	if teacher.SchoolID == nil || *teacher.SchoolID != class.SchoolID {
		return fmt.Errorf("teacher and class must belong to the same school")
	}

	class.TeacherID = &teacherID
	if err := s.db.Save(&class).Error; err != nil {
		return fmt.Errorf("failed to assign teacher to class: %w", err)
	}
	return nil
}

func slugify(name string) string {
	slug := ""
	for _, char := range name {
		switch {
		case char == ' ':
			slug += "-"
		case char >= 'A' && char <= 'Z':
			slug += string(char + 32)
		case (char >= 'a' && char <= 'z') || (char >= '0' && char <= '9'):
			slug += string(char)
		}
	}
	return slug
}
