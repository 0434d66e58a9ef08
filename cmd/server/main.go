package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/curaflow/curaflow-api/internal/config"
	"github.com/curaflow/curaflow-api/internal/domain/medicine"
	v1 "github.com/curaflow/curaflow-api/internal/handler/v1"
	"github.com/curaflow/curaflow-api/internal/middleware"
	"github.com/curaflow/curaflow-api/internal/repository"
	"github.com/curaflow/curaflow-api/internal/service"
	"github.com/curaflow/curaflow-api/pkg/auth"
	"github.com/curaflow/curaflow-api/pkg/database"
	"github.com/curaflow/curaflow-api/pkg/logger"
	"github.com/curaflow/curaflow-api/pkg/metrics"
	"github.com/curaflow/curaflow-api/pkg/tracer"
)

func main() {
	// .env is optional; real deployments inject environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	tp, err := tracer.Init(cfg.Tracing)
	if err != nil {
		zlog.Fatal("initializing tracer", zap.Error(err))
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			zlog.Warn("tracer shutdown", zap.Error(err))
		}
	}()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		zlog.Fatal("connecting to database", zap.Error(err))
	}
	if err := database.Migrate(db, zlog); err != nil {
		zlog.Fatal("running migrations", zap.Error(err))
	}

	collector := metrics.NewCollector("curaflow")

	// Repositories
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	patientRepo := repository.NewPatientRepository(db)
	medicineRepo := repository.NewMedicineRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	recordRepo := repository.NewRecordRepository(db)
	uow := repository.NewUnitOfWork(db)

	// Services
	auditSvc := service.NewAuditService(auditRepo, collector, zlog)

	var deliverer service.Deliverer
	if cfg.Inventory.NotifyWebhookURL != "" {
		deliverer = service.NewWebhookDeliverer(cfg.Inventory.NotifyWebhookURL)
	} else {
		deliverer = service.NewLogDeliverer(zlog)
	}
	notifySvc := service.NewNotifyService(deliverer, collector, zlog)

	jwtManager := auth.NewJWTManager(cfg.JWT)
	authSvc := service.NewAuthService(userRepo, jwtManager, auditSvc, zlog)
	patientSvc := service.NewPatientService(patientRepo, auditSvc, collector, zlog)
	medicineSvc := service.NewMedicineService(medicineRepo, auditSvc, zlog)

	alertCfg := medicine.AlertConfig{
		Threshold: cfg.Inventory.LowStockThreshold,
		Enabled:   cfg.Inventory.LowStockAlerts,
	}
	appointmentSvc := service.NewAppointmentService(
		appointmentRepo, patientRepo, uow, notifySvc, auditSvc, collector, alertCfg, zlog,
	)
	recordSvc := service.NewRecordService(recordRepo, patientRepo, auditSvc, zlog)

	// HTTP
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(zlog))
	router.Use(middleware.Metrics(collector))

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = cfg.CORS.AllowedOrigins
	corsCfg.AllowMethods = cfg.CORS.AllowedMethods
	corsCfg.AllowHeaders = cfg.CORS.AllowedHeaders
	corsCfg.MaxAge = cfg.CORS.MaxAge
	corsCfg.AllowCredentials = true
	router.Use(cors.New(corsCfg))

	router.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	v1.RegisterRoutes(router, v1.Handlers{
		Auth:         v1.NewAuthHandler(authSvc),
		Patients:     v1.NewPatientHandler(patientSvc),
		Medicines:    v1.NewMedicineHandler(medicineSvc),
		Appointments: v1.NewAppointmentHandler(appointmentSvc),
		Records:      v1.NewRecordHandler(recordSvc),
	}, jwtManager)

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		zlog.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("server shutdown", zap.Error(err))
	}

	// Drain async workers after the server stops accepting requests.
	notifySvc.Shutdown()
	auditSvc.Shutdown()

	zlog.Info("shutdown complete")
}
