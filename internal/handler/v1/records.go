package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/curaflow/curaflow-api/internal/domain/record"
	"github.com/curaflow/curaflow-api/internal/middleware"
	"github.com/curaflow/curaflow-api/internal/service"
)

type RecordHandler struct {
	svc *service.RecordService
}

func NewRecordHandler(svc *service.RecordService) *RecordHandler {
	return &RecordHandler{svc: svc}
}

type createRecordRequest struct {
	PatientID     string     `json:"patient_id" binding:"required,uuid"`
	AppointmentID *uuid.UUID `json:"appointment_id"`
	Type          string     `json:"type" binding:"required"`
	Diagnoses     []string   `json:"diagnoses"`
	Notes         string     `json:"notes"`
}

func (h *RecordHandler) Create(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	var req createRecordRequest
	if !bindJSON(c, &req) {
		return
	}
	patientID, ok := parseBodyUUID(c, req.PatientID, "patient_id")
	if !ok {
		return
	}

	r, err := h.svc.CreateRecord(c.Request.Context(), &record.CreateRecordCommand{
		PatientID:     patientID,
		AppointmentID: req.AppointmentID,
		DoctorID:      claims.UserID,
		Type:          record.RecordType(req.Type),
		Diagnoses:     req.Diagnoses,
		Notes:         req.Notes,
		CreatedBy:     claims.UserID,
	}, claims.UserID, string(claims.Role), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, r)
}

func (h *RecordHandler) Get(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	r, err := h.svc.GetRecord(c.Request.Context(), id, claims.UserID, string(claims.Role), claims.PatientID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, r)
}

type addAddendumRequest struct {
	Content string `json:"content" binding:"required"`
}

func (h *RecordHandler) AddAddendum(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req addAddendumRequest
	if !bindJSON(c, &req) {
		return
	}

	a, err := h.svc.AddAddendum(c.Request.Context(), &record.AddAddendumCommand{
		RecordID:  id,
		Content:   req.Content,
		CreatedBy: claims.UserID,
	}, claims.UserID, string(claims.Role), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, a)
}

func (h *RecordHandler) List(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	q := &record.ListRecordsQuery{
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}
	if raw := c.Query("patient_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			q.PatientID = &id
		}
	}
	if raw := c.Query("type"); raw != "" {
		t := record.RecordType(raw)
		q.Type = &t
	}

	paged, err := h.svc.ListRecords(c.Request.Context(), q, claims.UserID, string(claims.Role), claims.PatientID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, paged)
}
