package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/edusuite/backend/internal/data"
	"github.com/edusuite/backend/internal/models"
)

type StudentHandler struct {
	manager *data.Manager
}

func NewStudentHandler(manager *data.Manager) *StudentHandler {
	return &StudentHandler{manager: manager}
}

type StudentRequest struct {
	ClassID         uuid.UUID              `json:"classId" binding:"required"`
	UserID          *uuid.UUID             `json:"userId"`
	Name            string                 `json:"name" binding:"required"`
	RollNumber      string                 `json:"rollNumber"`
	FatherName      string                 `json:"fatherName"`
	DateOfBirth     *time.Time             `json:"dateOfBirth"`
	DateOfAdmission *time.Time             `json:"dateOfAdmission"`
	ContactNumber   string                 `json:"contactNumber"`
	Address         string                 `json:"address"`
	OpeningBalance  float64                `json:"openingBalance"`
	FeeStructure    models.FeeOverrideList `json:"feeStructure"`
}

func (r StudentRequest) model() models.Student {
	return models.Student{
		ClassID:         r.ClassID,
		UserID:          r.UserID,
		Name:            r.Name,
		RollNumber:      r.RollNumber,
		FatherName:      r.FatherName,
		DateOfBirth:     r.DateOfBirth,
		DateOfAdmission: r.DateOfAdmission,
		ContactNumber:   r.ContactNumber,
		Address:         r.Address,
		OpeningBalance:  r.OpeningBalance,
		FeeStructure:    r.FeeStructure,
	}
}

// @Summary Admit a student
// @Tags students
// @Success 201
// @Router /api/v1/students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req StudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dc, ok := dataContext(c, h.manager)
	if !ok {
		return
	}
	created, err := dc.CreateStudent(c.Request.Context(), req.model())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to admit student"})
		return
	}
	c.JSON(http.StatusCreated, created)
}

// @Summary Update a student
// @Tags students
// @Success 200
// @Router /api/v1/students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req StudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dc, ok := dataContext(c, h.manager)
	if !ok {
		return
	}

	existing, found := dc.Store().Students.Get(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
		return
	}
	incoming := req.model()
	incoming.BaseModel = existing.BaseModel
	incoming.SchoolID = existing.SchoolID
	incoming.Status = existing.Status
	incoming.DateOfLeaving = existing.DateOfLeaving
	incoming.ReasonForLeaving = existing.ReasonForLeaving
	incoming.Conduct = existing.Conduct

	updated, err := dc.UpdateStudent(c.Request.Context(), incoming)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update student"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// @Summary Delete a student
// @Tags students
// @Success 200
// @Router /api/v1/students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	dc, ok := dataContext(c, h.manager)
	if !ok {
		return
	}
	if err := dc.DeleteStudent(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete student"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Student deleted"})
}

type BulkCreateStudentsRequest struct {
	Students []StudentRequest `json:"students" binding:"required,dive"`
}

// @Summary Import students in bulk
// @Tags students
// @Success 201
// @Router /api/v1/students/bulk [post]
func (h *StudentHandler) BulkCreate(c *gin.Context) {
	var req BulkCreateStudentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dc, ok := dataContext(c, h.manager)
	if !ok {
		return
	}

	students := make([]models.Student, 0, len(req.Students))
	for _, entry := range req.Students {
		students = append(students, entry.model())
	}
	created, err := dc.BulkCreateStudents(c.Request.Context(), students)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to import students"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"created": len(created), "students": created})
}

type LeavingCertificateRequest struct {
	DateOfLeaving    time.Time `json:"dateOfLeaving" binding:"required"`
	ReasonForLeaving string    `json:"reasonForLeaving" binding:"required"`
	Conduct          string    `json:"conduct" binding:"required"`
}

// @Summary Issue or reissue a leaving certificate
// @Tags students
// @Success 200
// @Router /api/v1/students/{id}/leaving-certificate [post]
func (h *StudentHandler) IssueLeavingCertificate(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req LeavingCertificateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dc, ok := dataContext(c, h.manager)
	if !ok {
		return
	}

	updated, err := dc.IssueLeavingCertificate(c.Request.Context(), id, data.LeavingDetails{
		DateOfLeaving:    req.DateOfLeaving,
		ReasonForLeaving: req.ReasonForLeaving,
		Conduct:          req.Conduct,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue leaving certificate"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// @Summary Outstanding balance for a student
// @Tags students
// @Success 200
// @Router /api/v1/students/{id}/balance [get]
func (h *StudentHandler) Balance(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	dc, ok := dataContext(c, h.manager)
	if !ok {
		return
	}
	balance, err := dc.OutstandingBalanceFor(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"studentId": id, "balance": balance})
}
