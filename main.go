package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/storage/memory/v2"
	"github.com/gofiber/storage/redis/v3"
	"github.com/khanghh/klms/internal/audit"
	"github.com/khanghh/klms/internal/auth"
	"github.com/khanghh/klms/internal/common"
	"github.com/khanghh/klms/internal/config"
	"github.com/khanghh/klms/internal/database"
	"github.com/khanghh/klms/internal/employees"
	"github.com/khanghh/klms/internal/handlers/api"
	"github.com/khanghh/klms/internal/mail"
	"github.com/khanghh/klms/internal/middlewares"
	"github.com/khanghh/klms/internal/sessions"
	"github.com/khanghh/klms/internal/store"
	"github.com/khanghh/klms/internal/token"
	"github.com/khanghh/klms/params"
	goredis "github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"
)

var (
	app       *cli.App
	gitCommit string
	gitDate   string
	gitTag    string
)

var (
	configFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "YAML config file",
		Value: "config.yaml",
	}
	debugFlag = &cli.BoolFlag{
		Name:  "debug",
		Usage: "Enable debug logging",
	}
)

func init() {
	app = cli.NewApp()
	app.EnableBashCompletion = true
	app.Usage = "klms - session and access control core of the learning platform"
	app.Flags = []cli.Flag{
		configFileFlag,
		debugFlag,
	}
	app.Commands = []*cli.Command{
		{
			Name:   "serve",
			Usage:  "Run the API server",
			Action: run,
		},
		employeeCommand,
		sessionCommand,
		{
			Name: "version",
			Action: func(ctx *cli.Context) error {
				fmt.Println(params.VersionWithCommit(gitCommit, gitDate))
				return nil
			},
		},
	}
	app.Action = run
}

func mustInitLogger(debug bool) {
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))
}

func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(ctx.String(configFileFlag.Name))
	if err != nil {
		slog.Error("Could not load config file.", "error", err)
		return nil, err
	}
	cfg.Debug = cfg.Debug || ctx.IsSet(debugFlag.Name)
	mustInitLogger(cfg.Debug)
	return cfg, nil
}

func mustInitDatabase(dbConfig config.DatabaseConfig, debug bool) *gorm.DB {
	db, err := database.Open(dbConfig, debug)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		slog.Error("Database migration failed", "error", err)
		os.Exit(1)
	}
	return db
}

// mustInitStorage returns the shared key-value storage and, when redis backs it, the redis client for health checks.
func mustInitStorage(redisCfg config.RedisConfig) (store.Storage, goredis.UniversalClient) {
	if redisCfg.URL == "" {
		slog.Warn("Redis not configured, using in-memory storage for rate limits and login lockouts")
		return memory.New(), nil
	}
	redisStorage := redis.New(redis.Config{
		URL:           redisCfg.URL,
		PoolSize:      redisCfg.PoolSize,
		IsClusterMode: redisCfg.ClusterMode,
	})
	return redisStorage, redisStorage.Conn()
}

func mustInitJWTSecret(cfg *config.Config) string {
	if cfg.JWTSecret != "" {
		return cfg.JWTSecret
	}
	secret, err := common.GenerateSecret(32)
	if err != nil {
		slog.Error("Failed to generate jwt secret", "error", err)
		os.Exit(1)
	}
	slog.Warn("jwtSecret not set, using an ephemeral secret; sessions will not survive a restart")
	return secret
}

func mustInitMailSender(mailCfg config.MailConfig) mail.MailSender {
	switch mailCfg.Backend {
	case "", "log":
		return mail.LogMailSender{}
	case "smtp":
		sender, err := mail.NewSMTPMailSender(mailCfg.SMTP, mailCfg.From)
		if err != nil {
			slog.Error("Failed to initialize smtp mail sender", "error", err)
			os.Exit(1)
		}
		return sender
	}
	slog.Error("Unsupported mail sender backend", "backend", mailCfg.Backend)
	os.Exit(1)
	return nil
}

func orDefault[T comparable](val, def T) T {
	var zero T
	if val == zero {
		return def
	}
	return val
}

func run(ctx *cli.Context) error {
	config, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	db := mustInitDatabase(config.Database, config.Debug)
	storage, rdb := mustInitStorage(config.Redis)
	defer storage.Close()
	mailSender := mustInitMailSender(config.Mail)
	alertNotifier := mail.NewAlertNotifier(mailSender, config.Mail.AlertTo)
	defer alertNotifier.Wait()

	// repositories
	var (
		sessionRepo  = sessions.NewSessionRepository(db)
		employeeRepo = employees.NewEmployeeRepository(db)
		auditRepo    = audit.NewAuditLogRepository(db)
	)

	// services
	var (
		tokenIssuer     = token.NewIssuer(mustInitJWTSecret(config), nil)
		sessionManager  = sessions.NewManager(sessionRepo, tokenIssuer)
		employeeService = employees.NewEmployeeService(employeeRepo, sessionManager)
		auditRecorder   = audit.NewRecorder(auditRepo, audit.WithNotifier(alertNotifier))
		loginService    = auth.NewLoginService(employeeService, sessionManager, tokenIssuer, auditRecorder, storage)
	)

	router := fiber.New(fiber.Config{
		Prefork:       false,
		CaseSensitive: true,
		BodyLimit:     params.ServerBodyLimit,
		IdleTimeout:   params.ServerIdleTimeout,
		ReadTimeout:   params.ServerReadTimeout,
		WriteTimeout:  params.ServerWriteTimeout,
		ErrorHandler:  middlewares.ErrorHandler,
	})

	router.Use(recover.New())
	router.Use(logger.New())
	router.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(config.AllowOrigins, ", "),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	api.SetupRoutes(router, api.Dependencies{
		Verifier:         tokenIssuer,
		Sessions:         sessionManager,
		Employees:        employeeService,
		LoginService:     loginService,
		AuditLogs:        auditRecorder,
		Recorder:         auditRecorder,
		RateLimitStorage: store.StorageWithPrefix(storage, params.RateLimitKeyPrefix),
		RateLimitMax:     orDefault(config.RateLimit.Max, params.LoginRateLimitMax),
		RateLimitWindow:  orDefault(config.RateLimit.Window, params.LoginRateLimitWindow),
	})

	sigCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-sigCtx.Done()
		slog.Info("Shutting down")
		if err := router.Shutdown(); err != nil {
			slog.Error("Server shutdown failed", "error", err)
		}
	}()

	healthCheckCtx, term := context.WithCancel(ctx.Context)
	done := make(chan struct{})
	go common.StartHealthCheckServer(healthCheckCtx, done, db, rdb)
	defer func() {
		term()
		<-done
	}()
	return router.Listen(config.ListenAddr)
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
