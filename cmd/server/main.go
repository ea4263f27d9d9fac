package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ifuryst/postpilot/internal/agent"
	"github.com/ifuryst/postpilot/internal/config"
	"github.com/ifuryst/postpilot/internal/server"
	"github.com/ifuryst/postpilot/internal/service"
	"github.com/ifuryst/postpilot/pkg/logger"
)

var (
	configPath  string
	logLevel    string
	accountName string
	version     = "0.1.0"
	gitCommit   = "unknown"
	buildTime   = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "postpilot",
	Short: "PostPilot - LinkedIn post scheduling server",
	Long:  `PostPilot stores scheduled LinkedIn posts, detects when they are due and pushes them to connected publishing agents over a websocket.`,
	RunE:  runServer,
}

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Run a publishing agent against a PostPilot server",
	Long:  `The agent is configured from POSTPILOT_* environment variables and publishes due posts through an HTTP bridge.`,
	RunE:  runAgent,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("PostPilot %s\n", version)
		fmt.Printf("Git commit: %s\n", gitCommit)
		fmt.Printf("Build time: %s\n", buildTime)
	},
}

var totpCmd = &cobra.Command{
	Use:   "totp-secret",
	Short: "Generate a TOTP secret for auth.totp_secret",
	RunE: func(cmd *cobra.Command, args []string) error {
		auth := service.NewAuthService(zap.NewNop(), "")
		secret, err := auth.GenerateSecret(accountName)
		if err != nil {
			return err
		}
		url, err := auth.GenerateQRCode("PostPilot", accountName, secret)
		if err != nil {
			return err
		}
		fmt.Printf("Secret: %s\n", secret)
		fmt.Printf("URL:    %s\n", url)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/server.yaml", "config file path")
	agentCmd.Flags().StringVar(&logLevel, "log-level", "info", "agent log level")
	totpCmd.Flags().StringVar(&accountName, "account", "admin", "account name shown in the authenticator app")
	rootCmd.AddCommand(versionCmd, agentCmd, totpCmd)
}

func runServer(*cobra.Command, []string) error {
	// Load configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	appLogger, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting PostPilot server", zap.String("version", version))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Create server
	srv, err := server.NewServer(ctx, cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	select {
	case <-ctx.Done():
		appLogger.Info("Shutting down server...")
	case err := <-errCh:
		if err != nil {
			appLogger.Error("Server failed", zap.Error(err))
		}
	}

	// Graceful shutdown
	if err := srv.Shutdown(context.Background()); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	appLogger.Info("Server exited")
	return nil
}

func runAgent(*cobra.Command, []string) error {
	cfg, err := agent.LoadConfig()
	if err != nil {
		return err
	}

	appLogger, err := logger.NewLogger(logger.Config{Level: logLevel})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Sync()

	bridge := agent.NewHTTPBridge(cfg.PublisherURL, cfg.PublisherTimeout, appLogger.Named("bridge"))
	a, err := agent.New(cfg, bridge, appLogger, agent.WithOutreach(bridge, bridge))
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	appLogger.Info("Starting PostPilot agent",
		zap.String("version", version),
		zap.String("server", cfg.ServerURL))
	return a.Run(ctx)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
