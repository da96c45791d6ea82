package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuemby/storefront/pkg/api"
	"github.com/cuemby/storefront/pkg/config"
	"github.com/cuemby/storefront/pkg/engine"
	"github.com/cuemby/storefront/pkg/helm"
	"github.com/cuemby/storefront/pkg/kubectl"
	"github.com/cuemby/storefront/pkg/log"
	"github.com/cuemby/storefront/pkg/oplock"
	"github.com/cuemby/storefront/pkg/provisioner"
	"github.com/cuemby/storefront/pkg/reconciler"
	"github.com/cuemby/storefront/pkg/registry"
	"github.com/cuemby/storefront/pkg/storage"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Storefront - multi-tenant e-commerce store control plane",
	Long: `Storefront provisions and manages isolated e-commerce stores on
Kubernetes. Each store gets its own namespace, database, and ingress
route, deployed from a Helm chart and exposed through a REST API.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Storefront version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.AddCommand(serverCmd)
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the control plane server",
	Long: `Start the Storefront control plane: the REST API, the background
provisioner, and the startup reconciler. Configuration is read from the
environment (PORT, DB_PATH, HELM_CHART_PATH, BASE_DOMAIN, ...).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: cfg.IsProduction(),
	})
	logger := log.WithComponent("main")
	logger.Info().
		Str("version", Version).
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Msg("starting storefront control plane")

	store, err := storage.NewBoltStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open store database: %w", err)
	}
	defer store.Close()

	reg := registry.NewRegistry(store)

	engines := engine.NewRegistry()
	engines.Register(engine.NewWooCommerce(engine.WooCommerceConfig{
		ChartPath:  cfg.HelmChartPath,
		BaseDomain: cfg.BaseDomain,
		AdminUser:  cfg.WPAdminUser,
		AdminEmail: cfg.WPAdminEmail,
	}))
	engines.Register(engine.NewMedusa())

	deployer := helm.NewClient(helm.Config{
		Kubeconfig: cfg.Kubeconfig,
		Timeout:    cfg.ProvisionTimeout,
	})
	cluster := kubectl.NewClient(kubectl.Config{
		Kubeconfig: cfg.Kubeconfig,
	})

	prov := provisioner.New(provisioner.Config{
		Registry: reg,
		Engines:  engines,
		Deployer: deployer,
		Cluster:  cluster,
		Lock:     oplock.New(),
		Timeout:  cfg.ProvisionTimeout,
	})

	server := api.NewServer(*cfg, reg, engines, prov)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// Recovery runs after the listener is up so health checks answer
	// during a slow reconciliation
	go func() {
		if err := reconciler.New(reg, engines, cluster).Run(context.Background()); err != nil {
			logger.Error().Err(err).Msg("startup reconciliation failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		if err != nil {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("storefront stopped")
	return nil
}
