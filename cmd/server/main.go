package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"interview_booking_app_go/config"
	"interview_booking_app_go/db"
	"interview_booking_app_go/handlers"
	"interview_booking_app_go/logger"
	"interview_booking_app_go/models"
	"interview_booking_app_go/services"
	"interview_booking_app_go/services/jobs"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

func main() {
	// Load configuration
	cfg := config.Load()

	slog.SetDefault(logger.New(cfg))

	if err := services.ConfigureScheduling(cfg.AppTimezone, cfg.AllowWeekendBookings); err != nil {
		log.Fatalf("Invalid scheduling configuration: %v", err)
	}

	// Initialize database
	if err := db.Initialize(cfg); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.AutoMigrate(
		&models.User{},
		&models.TimeSlotConfig{},
		&models.TimeSlot{},
		&models.BlockedDate{},
		&models.Booking{},
		&models.Document{},
		&models.EmailTemplate{},
		&models.EmailLog{},
		&models.EmailCampaign{},
		&models.AuditLog{},
		&models.PasswordResetToken{},
	); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	if err := services.CreateDefaultTimeSlotConfigs(db.DB); err != nil {
		log.Fatalf("Failed to seed weekly schedule: %v", err)
	}

	services.InitMailer(cfg)
	services.InitializeStorage(cfg)
	services.ConfigurePDF(cfg.ChromePath)

	// Bulk email campaigns run in the background
	dispatcher := services.NewBulkEmailDispatcher(db.DB, nil, cfg.AppURL)
	runner := services.NewCampaignRunner(db.DB, dispatcher)
	handlers.SetCampaignRunner(runner)

	scheduler, err := jobs.StartScheduler(db.DB, runner)
	if err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewValidator()
	e.HTTPErrorHandler = handlers.HTTPErrorHandler

	// Middleware
	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"ip", v.RemoteIP,
			}
			if v.Error != nil {
				slog.Warn("request", append(attrs, "error", v.Error.Error())...)
			} else {
				slog.Info("request", attrs...)
			}
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echomiddleware.BodyLimit("12M"))

	// Make config available to handlers
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("config", cfg)
			return next(c)
		}
	})

	// Locally stored uploads
	e.Static(services.LocalURLPrefix, cfg.UploadDir)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	handlers.RegisterRoutes(e, cfg)

	// Graceful shutdown setup
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-quit
	slog.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
	<-scheduler.Stop().Done()
	if err := runner.Shutdown(ctx); err != nil {
		slog.Error("campaigns did not stop in time", "error", err)
	}
	slog.Info("server stopped")
}
