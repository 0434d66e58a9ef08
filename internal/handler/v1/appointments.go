package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/curaflow/curaflow-api/internal/domain/appointment"
	"github.com/curaflow/curaflow-api/internal/domain/prescription"
	"github.com/curaflow/curaflow-api/internal/middleware"
	"github.com/curaflow/curaflow-api/internal/service"
)

type AppointmentHandler struct {
	svc *service.AppointmentService
}

func NewAppointmentHandler(svc *service.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{svc: svc}
}

type scheduleAppointmentRequest struct {
	PatientID      string    `json:"patient_id" binding:"required,uuid"`
	ScheduledAt    time.Time `json:"scheduled_at" binding:"required"`
	PatientRemarks string    `json:"patient_remarks"`
}

func (h *AppointmentHandler) Schedule(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	var req scheduleAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}
	patientID, ok := parseBodyUUID(c, req.PatientID, "patient_id")
	if !ok {
		return
	}

	a, err := h.svc.ScheduleAppointment(c.Request.Context(), &appointment.CreateAppointmentCommand{
		PatientID:      patientID,
		DoctorID:       claims.UserID,
		ScheduledAt:    req.ScheduledAt,
		PatientRemarks: req.PatientRemarks,
		CreatedBy:      claims.UserID,
	}, claims.UserID, string(claims.Role), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, a)
}

func (h *AppointmentHandler) Get(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	a, err := h.svc.GetAppointment(c.Request.Context(), id, claims.UserID, string(claims.Role), claims.PatientID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, a)
}

type updateAppointmentRequest struct {
	ScheduledAt    *time.Time           `json:"scheduled_at"`
	PatientRemarks *string              `json:"patient_remarks"`
	DoctorRemarks  *string              `json:"doctor_remarks"`
	PainSeverity   *string              `json:"pain_severity"`
	Symptoms       *[]string            `json:"symptoms"`
	FollowUpDate   *time.Time           `json:"follow_up_date"`
	Prescriptions  *[]prescription.Line `json:"prescriptions"`
}

func (h *AppointmentHandler) Update(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updateAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &appointment.UpdateAppointmentCommand{
		ScheduledAt:    req.ScheduledAt,
		PatientRemarks: req.PatientRemarks,
		DoctorRemarks:  req.DoctorRemarks,
		Symptoms:       req.Symptoms,
		FollowUpDate:   req.FollowUpDate,
		Prescriptions:  req.Prescriptions,
		UpdatedBy:      claims.UserID,
	}
	if req.PainSeverity != nil {
		p := appointment.PainSeverity(*req.PainSeverity)
		cmd.PainSeverity = &p
	}

	a, err := h.svc.UpdateAppointment(c.Request.Context(), id, cmd, claims.UserID, string(claims.Role), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, a)
}

type completeAppointmentRequest struct {
	DoctorRemarks string              `json:"doctor_remarks"`
	PainSeverity  *string             `json:"pain_severity"`
	Symptoms      []string            `json:"symptoms"`
	FollowUpDate  *time.Time          `json:"follow_up_date"`
	Prescriptions []prescription.Line `json:"prescriptions"`
}

// Complete finalizes the appointment: the submitted field set is persisted
// and prescribed stock is decremented in the same transaction.
func (h *AppointmentHandler) Complete(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req completeAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &appointment.CompleteAppointmentCommand{
		DoctorRemarks: req.DoctorRemarks,
		Symptoms:      req.Symptoms,
		FollowUpDate:  req.FollowUpDate,
		Prescriptions: req.Prescriptions,
		CompletedBy:   claims.UserID,
	}
	if req.PainSeverity != nil {
		p := appointment.PainSeverity(*req.PainSeverity)
		cmd.PainSeverity = &p
	}

	a, err := h.svc.CompleteAppointment(c.Request.Context(), id, cmd, claims.UserID, string(claims.Role), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, a)
}

type cancelAppointmentRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req cancelAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	a, err := h.svc.CancelAppointment(c.Request.Context(), id, &appointment.CancelAppointmentCommand{
		Reason:      req.Reason,
		CancelledBy: claims.UserID,
	}, claims.UserID, string(claims.Role), claims.PatientID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, a)
}

func (h *AppointmentHandler) List(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	q := &appointment.ListAppointmentsQuery{
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}
	if raw := c.Query("status"); raw != "" {
		status := appointment.AppointmentStatus(raw)
		q.Status = &status
	}
	if from, ok := parseQueryTime(c, "date_from"); ok {
		q.DateFrom = from
	}
	if to, ok := parseQueryTime(c, "date_to"); ok {
		q.DateTo = to
	}

	paged, err := h.svc.ListAppointments(c.Request.Context(), q, claims.UserID, string(claims.Role), claims.PatientID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, paged)
}
