package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/config"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/verification"
	appHTTP "github.com/cmlabs-hris/hris-attendance-go/internal/handler/http"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/biometric"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/holiday"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/storage"
	"github.com/cmlabs-hris/hris-attendance-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/hris-attendance-go/internal/service/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/service/file"
	reportService "github.com/cmlabs-hris/hris-attendance-go/internal/service/report"
	scheduleService "github.com/cmlabs-hris/hris-attendance-go/internal/service/schedule"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading config: ", err)
	}

	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.App.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		log.Fatal("Error connecting to database: ", err)
	}
	defer db.Close()

	if err := postgresql.Migrate(ctx, db); err != nil {
		log.Fatal("Error applying schema: ", err)
	}

	employeeRepo := postgresql.NewEmployeeRepository(db)
	employeeScheduleAssignmentRepo := postgresql.NewEmployeeScheduleAssignmentRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	keyLocker := postgresql.NewKeyLocker(db, cfg.App.LockTimeout)

	calendar := holiday.Chain{postgresql.NewHolidayCalendar(db)}
	if cfg.Holiday.CalendarFile != "" {
		fileCalendar, err := holiday.LoadFile(cfg.Holiday.CalendarFile)
		if err != nil {
			log.Fatal("Failed to load holiday calendar: ", err)
		}
		calendar = append(calendar, fileCalendar)
	}

	verifier := newVerifier(cfg.Verify)

	fileStorage, err := storage.NewLocalStorage(cfg.Storage.BasePath, cfg.Storage.BaseURL)
	if err != nil {
		log.Fatal("Failed to initialize local storage: ", err)
	}
	fileService := file.NewFileService(fileStorage)

	JWTService, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	if err != nil {
		log.Fatal("Failed to initialize JWT service: ", err)
	}

	resolver := scheduleService.NewResolver(employeeScheduleAssignmentRepo)
	attendanceSvc := attendanceService.NewAttendanceService(
		employeeRepo,
		attendanceRepo,
		keyLocker,
		resolver,
		calendar,
		verifier,
		fileService,
	)
	reportSvc := reportService.NewReportService(attendanceRepo, calendar, cfg.Report.MaxRangeDays, cfg.Report.Workers)

	scheduler := cron.NewScheduler()
	cron.NewAttendanceJobs(reportSvc, cfg.App.SweepInterval).RegisterJobs(scheduler)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc)
	reportHandler := appHTTP.NewReportHandler(reportSvc)

	router := appHTTP.NewRouter(JWTService, attendanceHandler, reportHandler, appHTTP.RouterOptions{
		AppEnv:     cfg.App.Env,
		LogLevel:   logLevel,
		UploadsDir: cfg.Storage.BasePath,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server running", "addr", server.Addr, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
}

// newVerifier routes each sample type to its configured provider. Sample
// types without a provider are rejected as unsupported.
func newVerifier(cfg config.VerifyConfig) *biometric.Router {
	router := biometric.NewRouter()

	switch cfg.FaceProvider {
	case "cloud":
		router.Handle(verification.SampleTypeFace, biometric.CloudFaceProvider, biometric.NewCloudFaceVerifier(biometric.CloudFaceConfig{
			BaseURL:      cfg.CloudBaseURL,
			TokenURL:     cfg.CloudTokenURL,
			ClientID:     cfg.CloudClientID,
			ClientSecret: cfg.CloudClientSecret,
			Scopes:       cfg.CloudScopes,
			Threshold:    cfg.CloudThreshold,
			Timeout:      cfg.Timeout,
		}))
	case "local":
		router.Handle(verification.SampleTypeFace, biometric.LocalFaceProvider, biometric.NewLocalFaceVerifier(biometric.LocalFaceConfig{
			BaseURL:     cfg.LocalBaseURL,
			MaxDistance: cfg.LocalMaxDistance,
			Timeout:     cfg.Timeout,
		}))
	}

	if cfg.FingerprintBaseURL != "" {
		router.Handle(verification.SampleTypeFingerprint, biometric.FingerprintProvider, biometric.NewFingerprintVerifier(biometric.FingerprintConfig{
			BaseURL: cfg.FingerprintBaseURL,
			APIKey:  cfg.FingerprintAPIKey,
			Timeout: cfg.Timeout,
		}))
	}

	return router
}
