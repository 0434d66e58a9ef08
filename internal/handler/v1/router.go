package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/curaflow/curaflow-api/internal/domain"
	"github.com/curaflow/curaflow-api/internal/middleware"
	"github.com/curaflow/curaflow-api/pkg/auth"
)

type Handlers struct {
	Auth         *AuthHandler
	Patients     *PatientHandler
	Medicines    *MedicineHandler
	Appointments *AppointmentHandler
	Records      *RecordHandler
}

// RegisterRoutes mounts all v1 endpoints on the router.
func RegisterRoutes(r *gin.Engine, h Handlers, jwtManager *auth.JWTManager) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)
		authGroup.POST("/change-password", middleware.Authenticate(jwtManager), h.Auth.ChangePassword)
	}

	authed := api.Group("")
	authed.Use(middleware.Authenticate(jwtManager))

	clinicians := middleware.RequireRoles(domain.RoleDoctor, domain.RoleAdmin)

	patients := authed.Group("/patients")
	{
		patients.POST("", clinicians, h.Patients.Create)
		patients.GET("", clinicians, h.Patients.List)
		patients.GET("/:id", h.Patients.Get)
		patients.PATCH("/:id", clinicians, h.Patients.Update)
		patients.DELETE("/:id", clinicians, h.Patients.Deactivate)
	}

	medicines := authed.Group("/medicines")
	medicines.Use(clinicians)
	{
		medicines.POST("", h.Medicines.Create)
		medicines.GET("", h.Medicines.List)
		medicines.POST("/availability", h.Medicines.Availability)
		medicines.GET("/:id", h.Medicines.Get)
		medicines.PATCH("/:id", h.Medicines.Update)
		medicines.DELETE("/:id", h.Medicines.Delete)
	}

	appointments := authed.Group("/appointments")
	{
		appointments.POST("", clinicians, h.Appointments.Schedule)
		appointments.GET("", h.Appointments.List)
		appointments.GET("/:id", h.Appointments.Get)
		appointments.PATCH("/:id", clinicians, h.Appointments.Update)
		appointments.POST("/:id/complete", clinicians, h.Appointments.Complete)
		appointments.POST("/:id/cancel", h.Appointments.Cancel)
	}

	records := authed.Group("/records")
	{
		records.POST("", clinicians, h.Records.Create)
		records.GET("", h.Records.List)
		records.GET("/:id", h.Records.Get)
		records.POST("/:id/addenda", clinicians, h.Records.AddAddendum)
	}
}
