package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/term"

	"academydb/internal/api"
	"academydb/internal/config"
	"academydb/internal/core"
	"academydb/internal/data"
	"academydb/internal/logger"
	"academydb/internal/service"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "create-admin":
			handleCreateAdmin(os.Args[2:])
			return
		case "reset-password":
			handleResetPassword(os.Args[2:])
			return
		case "help", "--help", "-h":
			printHelp()
			return
		default:
			fmt.Printf("Unknown command: %s\n", os.Args[1])
			printHelp()
			os.Exit(1)
		}
	}

	startServer()
}

func printHelp() {
	fmt.Println("MultiDB Academy Server")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  academydb                                  Start the server")
	fmt.Println("  academydb create-admin -u <name> -e <email>  Create an admin account (interactive)")
	fmt.Println("  academydb reset-password -e <email>          Reset a user password (interactive)")
	fmt.Println("  academydb help                             Show this help")
}

func handleCreateAdmin(args []string) {
	fs := flag.NewFlagSet("create-admin", flag.ExitOnError)
	userName := fs.String("u", "", "Display name")
	email := fs.String("e", "", "Email")
	fs.Parse(args)

	if *userName == "" || *email == "" {
		fmt.Println("Usage: academydb create-admin -u <name> -e <email>")
		os.Exit(1)
	}

	password := promptPassword()
	authSvc := mustAuthService()

	if _, err := authSvc.Register(*userName, *email, core.RoleAdmin, password); err != nil {
		fmt.Printf("Failed to create admin: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Admin account '%s' created.\n", *email)
}

func handleResetPassword(args []string) {
	fs := flag.NewFlagSet("reset-password", flag.ExitOnError)
	email := fs.String("e", "", "Email of the account to reset")
	fs.Parse(args)

	if *email == "" {
		fmt.Println("Usage: academydb reset-password -e <email>")
		os.Exit(1)
	}

	password := promptPassword()
	authSvc := mustAuthService()

	if err := authSvc.ResetPassword(*email, password); err != nil {
		fmt.Printf("Failed to reset password: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Password for '%s' has been reset successfully.\n", *email)
}

// promptPassword reads and confirms a hidden password from the terminal.
func promptPassword() string {
	fmt.Print("New password: ")
	passBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Printf("Failed to read password: %v\n", err)
		os.Exit(1)
	}
	password := string(passBytes)

	fmt.Print("Confirm password: ")
	confirmBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Printf("Failed to read password: %v\n", err)
		os.Exit(1)
	}

	if password != string(confirmBytes) {
		fmt.Println("Passwords do not match.")
		os.Exit(1)
	}
	if password == "" {
		fmt.Println("Password cannot be empty.")
		os.Exit(1)
	}
	return password
}

// mustAuthService wires the minimal dependencies the CLI subcommands need.
func mustAuthService() *service.AuthService {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	db, err := data.InitDB(cfg.DBPath)
	if err != nil {
		fmt.Printf("Failed to init database: %v\n", err)
		os.Exit(1)
	}

	userRepo := data.NewUserRepo(db)
	tokens := service.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	return service.NewAuthService(userRepo, tokens)
}

func startServer() {
	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\nCheck .env file or JWT_SECRET environment variable.\n", err)
		os.Exit(1)
	}

	// 2. Initialize Logger
	if err := logger.Init("logs"); err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	logger.Info.Println("Starting MultiDB Academy server...")

	// 3. Initialize DB
	db, err := data.InitDB(cfg.DBPath)
	if err != nil {
		logger.Error.Fatalf("Failed to init database: %v", err)
	}
	defer db.Close()

	// 4. Initialize Repos
	userRepo := data.NewUserRepo(db)
	instRepo := data.NewInstanceRepo(db)
	queryRepo := data.NewQueryRepo(db)

	// 5. Initialize Services
	cryptoSvc, err := service.NewEncryptionService(cfg.AcademyKey)
	if err != nil {
		logger.Error.Fatalf("Failed to init crypto service: %v", err)
	}

	tokens := service.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	authSvc := service.NewAuthService(userRepo, tokens)
	instSvc := service.NewInstanceService(instRepo, userRepo, cryptoSvc, cfg.SupportedDrivers)

	var backend core.QueryBackend
	if cfg.ExecutorMode == config.ExecutorMock {
		logger.Info.Println("Query executor: mock backend")
		backend = service.NewMockExecutor()
	} else {
		backend = service.NewLiveExecutor(cryptoSvc)
	}
	querySvc := service.NewQueryService(instRepo, queryRepo, backend)

	// 6. Initialize Handlers
	authMw := api.NewAuthMiddleware(tokens, userRepo)
	authHandler := api.NewAuthHandler(authSvc, tokens, cfg.AcademyKey)
	apiHandler := api.NewHandler(instSvc, querySvc, authMw)

	// 7. Start Server
	r := chi.NewRouter()
	r.Use(api.LoggingMiddleware)

	loginLimiter := api.NewRateLimiter(5, 3) // 5 req/min, burst 3 (brute force protection)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.With(loginLimiter.Middleware).Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.Post("/revoke", authHandler.Revoke)
		})

		r.Mount("/", apiHandler.Routes())
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	// Graceful shutdown channel
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info.Printf("Server listening on port %d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error.Fatalf("Server startup failed: %v", err)
		}
	}()

	<-stop
	logger.Info.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error.Printf("Server shutdown error: %v", err)
	}
	logger.Info.Println("Server stopped")
}
