package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/curaflow/curaflow-api/internal/domain/patient"
	"github.com/curaflow/curaflow-api/internal/middleware"
	"github.com/curaflow/curaflow-api/internal/service"
)

type PatientHandler struct {
	svc *service.PatientService
}

func NewPatientHandler(svc *service.PatientService) *PatientHandler {
	return &PatientHandler{svc: svc}
}

type createPatientRequest struct {
	FirstName         string                    `json:"first_name" binding:"required"`
	LastName          string                    `json:"last_name" binding:"required"`
	DateOfBirth       time.Time                 `json:"date_of_birth" binding:"required"`
	Gender            string                    `json:"gender" binding:"required"`
	Phone             string                    `json:"phone"`
	Email             string                    `json:"email"`
	Address           string                    `json:"address"`
	City              string                    `json:"city"`
	EmergencyContact  *patient.EmergencyContact `json:"emergency_contact"`
	Allergies         []string                  `json:"allergies"`
	ChronicConditions []string                  `json:"chronic_conditions"`
	Notes             string                    `json:"notes"`
}

func (h *PatientHandler) Create(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	var req createPatientRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.svc.CreatePatient(c.Request.Context(), &patient.CreatePatientCommand{
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		DateOfBirth:       req.DateOfBirth,
		Gender:            patient.Gender(req.Gender),
		Phone:             req.Phone,
		Email:             req.Email,
		Address:           req.Address,
		City:              req.City,
		EmergencyContact:  req.EmergencyContact,
		Allergies:         req.Allergies,
		ChronicConditions: req.ChronicConditions,
		DoctorID:          claims.UserID,
		Notes:             req.Notes,
		CreatedBy:         claims.UserID,
	}, claims.UserID, string(claims.Role), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, p)
}

func (h *PatientHandler) Get(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	p, err := h.svc.GetPatient(c.Request.Context(), id, claims.UserID, string(claims.Role), claims.PatientID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, p)
}

type updatePatientRequest struct {
	FirstName         *string                   `json:"first_name"`
	LastName          *string                   `json:"last_name"`
	Gender            *string                   `json:"gender"`
	Phone             *string                   `json:"phone"`
	Email             *string                   `json:"email"`
	Address           *string                   `json:"address"`
	City              *string                   `json:"city"`
	EmergencyContact  *patient.EmergencyContact `json:"emergency_contact"`
	Allergies         *[]string                 `json:"allergies"`
	ChronicConditions *[]string                 `json:"chronic_conditions"`
	Notes             *string                   `json:"notes"`
}

func (h *PatientHandler) Update(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updatePatientRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &patient.UpdatePatientCommand{
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Phone:             req.Phone,
		Email:             req.Email,
		Address:           req.Address,
		City:              req.City,
		EmergencyContact:  req.EmergencyContact,
		Allergies:         req.Allergies,
		ChronicConditions: req.ChronicConditions,
		Notes:             req.Notes,
		UpdatedBy:         claims.UserID,
	}
	if req.Gender != nil {
		g := patient.Gender(*req.Gender)
		cmd.Gender = &g
	}

	p, err := h.svc.UpdatePatient(c.Request.Context(), id, cmd, claims.UserID, string(claims.Role), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, p)
}

func (h *PatientHandler) Deactivate(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeactivatePatient(c.Request.Context(), id, claims.UserID, string(claims.Role), c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"message": "patient deactivated"})
}

func (h *PatientHandler) List(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	q := &patient.ListPatientsQuery{
		Search:   c.Query("search"),
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}
	if raw := c.Query("status"); raw != "" {
		status := patient.Status(raw)
		q.Status = &status
	}

	paged, err := h.svc.ListPatients(c.Request.Context(), q, claims.UserID, string(claims.Role))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, paged)
}
