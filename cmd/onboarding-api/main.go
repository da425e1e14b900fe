package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"erate-tracker/internal/api"
	"erate-tracker/internal/common/auth"
	"erate-tracker/internal/common/aws"
	"erate-tracker/internal/common/camunda"
	"erate-tracker/internal/common/config"
	"erate-tracker/internal/common/database"
	"erate-tracker/internal/common/logger"
	"erate-tracker/internal/common/observability"

	we "erate-tracker/internal/workers/communication/welcome-email"
	co "erate-tracker/internal/workers/onboarding/complete-onboarding"
	dr "erate-tracker/internal/workers/onboarding/discover-records"
	np "erate-tracker/internal/workers/onboarding/notification-preferences"
	pv "erate-tracker/internal/workers/onboarding/phone-verification"
	ss "erate-tracker/internal/workers/onboarding/save-selection"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting onboarding API...", zap.String("environment", cfg.App.Environment))

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}
	defer obs.Shutdown(context.Background())

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redisClient.Close()
	zapLog.Info("Redis connected successfully")

	// --- Zeebe (optional) ---
	var zeebe *camunda.Client
	if cfg.Camunda.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
				GatewayAddress:         cfg.Camunda.BrokerAddress,
				UsePlaintextConnection: true,
				ConnectionTimeout:      10 * time.Second,
				RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
			})
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		defer zeebe.Close()
		zapLog.Info("Zeebe client connected successfully")
	}

	// --- External services ---
	keycloak := auth.NewKeycloakClient(
		cfg.Auth.Keycloak.URL,
		cfg.Auth.Keycloak.Realm,
		cfg.Auth.Keycloak.ClientID,
		cfg.Auth.Keycloak.ClientSecret,
	)

	snsClient, err := aws.NewSNSClient(ctx, cfg.Integrations.AWS.Region)
	if err != nil {
		zapLog.Fatal("sns client init failed", zap.Error(err))
	}

	// --- Onboarding endpoints ---
	discoverCfg := dr.FromAppConfig(cfg)
	discoverHandler := dr.NewHandler(discoverCfg,
		dr.NewService(dr.ServiceDependencies{Logger: log}, discoverCfg, pg.GetDB(), esClient.Client), log)

	selectionCfg := ss.DefaultConfig()
	selectionHandler := ss.NewHandler(selectionCfg,
		ss.NewService(ss.ServiceDependencies{Logger: log}, selectionCfg, pg.GetDB()), log)

	prefsCfg := np.DefaultConfig()
	prefsHandler := np.NewHandler(prefsCfg,
		np.NewService(np.ServiceDependencies{Logger: log}, prefsCfg, pg.GetDB()), log)

	phoneCfg := pv.FromAppConfig(cfg)
	phoneHandler := pv.NewHandler(phoneCfg,
		pv.NewService(pv.ServiceDependencies{Logger: log, SNS: snsClient}, phoneCfg, pg.GetDB(), redisClient.GetClient()), log)

	completeCfg := co.FromAppConfig(cfg)
	completeDeps := co.ServiceDependencies{Logger: log}
	if zeebe != nil {
		completeDeps.Processes = zeebe
	}
	completeHandler := co.NewHandler(completeCfg, co.NewService(completeDeps, completeCfg, pg.GetDB()), log)

	for name, v := range map[string]interface{ Validate() error }{
		"discover-records":         discoverCfg,
		"save-selection":           selectionCfg,
		"notification-preferences": prefsCfg,
		"phone-verification":       phoneCfg,
		"complete-onboarding":      completeCfg,
	} {
		if err := v.Validate(); err != nil {
			zapLog.Fatal("invalid endpoint config", zap.String("endpoint", name), zap.Error(err))
		}
	}

	// --- Welcome email worker ---
	var welcomeWorker *camunda.CamundaWorker
	weCfg := we.FromAppConfig(cfg)
	if zeebe != nil && weCfg.Enabled {
		weDeps := we.ServiceDependencies{Logger: log}
		if weCfg.SESEnabled {
			sesClient, err := aws.NewSESClient(ctx, cfg.Integrations.AWS.Region)
			if err != nil {
				zapLog.Fatal("ses client init failed", zap.Error(err))
			}
			weDeps.SES = sesClient
		}
		if err := weCfg.Validate(); err != nil {
			zapLog.Fatal("invalid welcome-email config", zap.Error(err))
		}
		welcomeWorker = we.NewHandler(weCfg, we.NewService(weDeps, weCfg), log).Register(zeebe.GetClient())
	}

	checks := map[string]func(context.Context) error{
		"postgres":      pg.Ping,
		"elasticsearch": esClient.Ping,
		"redis":         redisClient.Ping,
	}
	if zeebe != nil {
		checks["zeebe"] = zeebe.HealthCheck
	}

	server := api.NewServer(cfg.Server, api.Dependencies{
		Auth:          keycloak,
		Observability: obs,
		Logger:        log,
		Checks:        checks,
	}, api.Routes{
		Records:     discoverHandler,
		Selection:   selectionHandler,
		Preferences: prefsHandler,
		SendCode:    http.HandlerFunc(phoneHandler.Send),
		VerifyCode:  http.HandlerFunc(phoneHandler.Verify),
		Complete:    completeHandler,
	})

	go func() {
		if err := server.Start(); err != nil {
			zapLog.Fatal("API server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")

	if err := server.Shutdown(context.Background()); err != nil {
		zapLog.Error("Error shutting down API server", zap.Error(err))
	}
	if welcomeWorker != nil {
		welcomeWorker.Stop()
	}

	zapLog.Info("Onboarding API stopped gracefully")
}
