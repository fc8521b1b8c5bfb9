package routes

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/certitax/certitax/internal/auth"
	"github.com/certitax/certitax/internal/certificate"
	"github.com/certitax/certitax/internal/config"
	"github.com/certitax/certitax/internal/identity"
	"github.com/certitax/certitax/internal/mailer"
	"github.com/certitax/certitax/internal/middleware"
	"github.com/certitax/certitax/internal/otp"
	"github.com/certitax/certitax/internal/report"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Memory fallbacks only exist for dev and tests.
	if !isDev(d.Cfg.AppEnv) {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	var identityRepo identity.Repository
	if d.DB != nil {
		identityRepo = identity.NewPostgresRepository(d.DB)
	} else {
		identityRepo = identity.NewMemoryRepository()
	}
	identitySvc := identity.NewService(identityRepo, d.Cfg.AutoProvisionProfile)

	var otpStore otp.Store
	if d.Cache != nil {
		otpStore = otp.NewRedisStore(d.Cache, d.Cfg.OTPMaxAttempts)
	} else {
		otpStore = otp.NewMemoryStore(d.Cfg.OTPMaxAttempts)
	}
	var mail mailer.Mailer
	if d.Cfg.SMTPHost != "" {
		mail = mailer.NewSMTP(d.Cfg.SMTPHost, d.Cfg.SMTPPort, d.Cfg.SMTPUser, d.Cfg.SMTPPassword, d.Cfg.MailFrom)
	} else {
		mail = mailer.NewLogMailer(d.Logger)
	}
	otpSvc := otp.NewService(otpStore, mail, d.Cfg.OTPTTL, d.Logger)

	authSvc := auth.NewService(d.Cfg, identitySvc, identityRepo, otpSvc, d.Logger)
	authHandler := auth.NewHandler(authSvc)

	blobs, err := certificate.NewDiskStore(d.Cfg.StorageDir)
	if err != nil {
		return err
	}
	var certRepo certificate.Repository
	if d.DB != nil {
		certRepo = certificate.NewPostgresRepository(d.DB)
	} else {
		certRepo = certificate.NewMemoryRepository()
	}
	certSvc := certificate.NewService(certRepo, blobs, d.Logger)
	certHandler := certificate.NewHandler(certSvc)

	var reportRepo report.Repository
	if d.DB != nil {
		reportRepo = report.NewPostgresRepository(d.DB)
	} else {
		reportRepo = report.NewMemoryRepository()
	}
	reportHandler := report.NewHandler(report.NewService(reportRepo))

	userHandler := identity.NewHandler(identitySvc)

	api := app.Group("/api")

	rateLimiter := middleware.LoginRateLimit(d.Cache, 5)
	RegisterAuthRoutes(api, authHandler, rateLimiter)

	authenticated := api.Group("", middleware.Authenticate(d.Cfg, identityRepo))
	RegisterCertificateRoutes(authenticated, certHandler)
	RegisterReportRoutes(authenticated, reportHandler)
	RegisterAdminRoutes(authenticated, userHandler)

	return nil
}

func isDev(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}
