package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/curaflow/curaflow-api/internal/domain/medicine"
	"github.com/curaflow/curaflow-api/internal/domain/prescription"
	"github.com/curaflow/curaflow-api/internal/middleware"
	"github.com/curaflow/curaflow-api/internal/service"
)

type MedicineHandler struct {
	svc *service.MedicineService
}

func NewMedicineHandler(svc *service.MedicineService) *MedicineHandler {
	return &MedicineHandler{svc: svc}
}

type createMedicineRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Stock       int    `json:"stock"`
}

func (h *MedicineHandler) Create(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	var req createMedicineRequest
	if !bindJSON(c, &req) {
		return
	}

	m, err := h.svc.CreateMedicine(c.Request.Context(), &medicine.CreateMedicineCommand{
		DoctorID:    claims.UserID,
		Name:        req.Name,
		Description: req.Description,
		Stock:       req.Stock,
	}, claims.UserID, string(claims.Role), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, m)
}

func (h *MedicineHandler) Get(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	m, err := h.svc.GetMedicine(c.Request.Context(), id, claims.UserID, string(claims.Role))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, m)
}

type updateMedicineRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Stock       *int    `json:"stock"`
}

func (h *MedicineHandler) Update(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updateMedicineRequest
	if !bindJSON(c, &req) {
		return
	}

	m, err := h.svc.UpdateMedicine(c.Request.Context(), id, &medicine.UpdateMedicineCommand{
		Name:        req.Name,
		Description: req.Description,
		Stock:       req.Stock,
	}, claims.UserID, string(claims.Role), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, m)
}

func (h *MedicineHandler) Delete(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteMedicine(c.Request.Context(), id, claims.UserID, string(claims.Role), c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"message": "medicine deleted"})
}

func (h *MedicineHandler) List(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	q := &medicine.ListMedicinesQuery{
		Search:   c.Query("search"),
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}

	paged, err := h.svc.ListMedicines(c.Request.Context(), q, claims.UserID, string(claims.Role))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, paged)
}

type availabilityRequest struct {
	Lines []prescription.Line `json:"lines" binding:"required"`
}

// Availability returns the display stock for every line of an in-progress
// prescription form. The client calls this as lines change; nothing is
// reserved or written.
func (h *MedicineHandler) Availability(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	var req availabilityRequest
	if !bindJSON(c, &req) {
		return
	}

	lines, err := h.svc.CheckAvailability(c.Request.Context(), req.Lines, claims.UserID, string(claims.Role))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, lines)
}
