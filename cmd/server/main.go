package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"member-care.backend/internal/config"
	"member-care.backend/internal/infrastructure/gateway"
	"member-care.backend/internal/infrastructure/repositories"
	"member-care.backend/internal/interfaces/http/handlers"
	"member-care.backend/internal/usecases"
	"member-care.backend/pkg/crypto"
	"member-care.backend/pkg/jwt"
	"member-care.backend/pkg/logger"
	"member-care.backend/pkg/redis"
)

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	}
	runServer = func(r *gin.Engine, port string) error { return r.Run(":" + port) }
	getStdDB  = func(db *gorm.DB) (*sql.DB, error) { return db.DB() }
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	// Load .env file
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load and validate configuration; missing payment or encryption
	// secrets must stop startup
	cfg := loadCfg()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Initialize Logger
	initLog(cfg.Server.Env)
	logger.Info(context.Background(), "Logger initialized", zap.String("env", cfg.Server.Env))

	// Initialize Redis
	if err := initRedis(cfg.Redis.URL, cfg.Redis.Password); err != nil {
		logger.Error(context.Background(), "Failed to initialize Redis", zap.Error(err))
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	logger.Info(context.Background(), "Redis initialized")

	// Set Gin mode
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database using GORM
	db, err := openDB(cfg.Database.URL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := getStdDB(db)
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		log.Printf("⚠️ Database not available: %v (endpoints will return errors)", err)
	} else {
		log.Println("✅ Connected to PostgreSQL via GORM")
	}

	// Initialize services
	jwtService := jwt.NewJWTService(
		cfg.JWT.Secret,
		cfg.JWT.AccessExpiry,
		cfg.JWT.RefreshExpiry,
	)
	medicalCipher, err := crypto.NewCipher(cfg.Security.MedicalDataKey)
	if err != nil {
		return fmt.Errorf("failed to initialize medical data cipher: %w", err)
	}

	// Initialize repositories
	memberRepo := repositories.NewMemberRepository(db)
	uow := repositories.NewUnitOfWork(db)

	// Initialize payment gateway client
	stripeClient := gateway.NewStripeClient(
		cfg.Stripe.SecretKey,
		cfg.Stripe.BasePriceID,
		cfg.Stripe.ChildPriceID,
		cfg.App.BaseURL,
		cfg.Stripe.APIBaseURL,
	)

	// Initialize usecases
	registrationUsecase := usecases.NewRegistrationUsecase(memberRepo, stripeClient, medicalCipher, jwtService)
	membershipUsecase := usecases.NewMembershipUsecase(memberRepo, stripeClient, medicalCipher)
	certificateUsecase := usecases.NewCertificateUsecase(memberRepo)
	reconcilerUsecase := usecases.NewReconcilerUsecase(memberRepo, stripeClient, uow)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(registrationUsecase)
	memberHandler := handlers.NewMemberHandler(registrationUsecase, membershipUsecase)
	certificateHandler := handlers.NewCertificateHandler(certificateUsecase)
	webhookHandler := handlers.NewWebhookHandler(reconcilerUsecase, cfg.Stripe.WebhookSecret)

	// Initialize router
	r := newRouter(routeDeps{
		authHandler:        authHandler,
		memberHandler:      memberHandler,
		certificateHandler: certificateHandler,
		webhookHandler:     webhookHandler,
		jwtService:         jwtService,
		dbPinger:           sqlDB,
	})

	log.Printf("🚀 Member Care Backend starting on port %s", cfg.Server.Port)
	log.Printf("📚 API: http://localhost:%s/api/v1", cfg.Server.Port)
	log.Printf("❤️ Health: http://localhost:%s/health", cfg.Server.Port)

	if err := runServer(r, cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
