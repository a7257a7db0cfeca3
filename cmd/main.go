package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	goredis "github.com/redis/go-redis/v9"

	"github.com/velora-beauty/velora-server/internal/api/http/router"
	httpServer "github.com/velora-beauty/velora-server/internal/api/http/server"
	"github.com/velora-beauty/velora-server/internal/config"
	"github.com/velora-beauty/velora-server/internal/logger"
	"github.com/velora-beauty/velora-server/internal/mail"
	"github.com/velora-beauty/velora-server/internal/model"
	"github.com/velora-beauty/velora-server/internal/rate"
	"github.com/velora-beauty/velora-server/internal/repository/postgres"
	redisrepo "github.com/velora-beauty/velora-server/internal/repository/redis"
	"github.com/velora-beauty/velora-server/internal/server"
	"github.com/velora-beauty/velora-server/internal/service"
	storage "github.com/velora-beauty/velora-server/internal/storage/minio"
	"github.com/velora-beauty/velora-server/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	redisClient := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	userRepo := postgres.NewUserRepository(db)
	adminRepo := postgres.NewAdminRepository(db)
	refreshTokenRepo := postgres.NewRefreshTokenRepository(db)
	resetRepo := postgres.NewPasswordResetRepository(db)
	otpRepo := redisrepo.NewOTPRepository(redisClient)

	tokenManager := token.NewJWT(token.Config{
		AccessSecret:  cfg.JWT.AccessSecret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		Issuer:        cfg.JWT.Issuer,
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
	})
	tokenService := service.NewTokenService(tokenManager, refreshTokenRepo, logger)
	limiter := rate.New(redisClient, logger)

	customerCfg := service.AudienceConfig{
		Audience:    model.AudienceCustomer,
		Store:       userRepo,
		Permissions: service.CustomerPermissions,
		LoginMax:    cfg.Rate.LoginMax,
		LoginWindow: cfg.Rate.LoginWindow,
		ResetMax:    cfg.Rate.ResetMax,
		ResetWindow: cfg.Rate.ResetWindow,
	}
	adminCfg := service.AudienceConfig{
		Audience:    model.AudienceAdmin,
		Store:       adminRepo,
		Permissions: service.AdminPermissions,
		LoginMax:    cfg.Rate.LoginMax,
		LoginWindow: cfg.Rate.LoginWindow,
		ResetMax:    cfg.Rate.ResetMax,
		ResetWindow: cfg.Rate.ResetWindow,
	}

	var mailer model.Mailer
	if cfg.SMTP.Host != "" {
		mailer = mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	} else {
		mailer = mail.NewLogMailer(logger)
	}

	exposeOTP := cfg.DebugExposeOTP && !cfg.IsProduction()

	customerAuth := service.NewAuth(customerCfg, tokenService, limiter, logger)
	adminAuth := service.NewAuth(adminCfg, tokenService, limiter, logger)
	customerReset := service.NewReset(customerCfg, otpRepo, resetRepo, mailer, limiter, logger, exposeOTP)
	adminReset := service.NewReset(adminCfg, otpRepo, resetRepo, mailer, limiter, logger, exposeOTP)

	minioClient, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
	})
	if err != nil {
		logger.Fatal("failed to create minio client", "error", err)
	}
	storageClient, err := storage.NewClient(ctx, minioClient, cfg.Storage.Bucket)
	if err != nil {
		logger.Fatal("failed to initialize storage client", "error", err)
	}

	secureCookies := cfg.HTTP.EnableTLS || cfg.IsProduction()
	r := router.New(customerAuth, customerReset, adminAuth, adminReset, storageClient, secureCookies, logger)
	apiServer := httpServer.NewHTTPServer(r.Register(), fmt.Sprintf(":%s", cfg.HTTP.Port))

	var sl model.SecurityLayer
	if cfg.HTTP.EnableTLS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address())
		if err := s.Start(sl); err != nil {
			logger.Error("failed to start server", "error", err)
		}
	}(apiServer)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", apiServer.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
