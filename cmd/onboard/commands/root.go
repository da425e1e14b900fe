// Package commands is the terminal front end of the onboarding wizard.
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"erate-tracker/internal/apiclient"
	"erate-tracker/internal/common/config"
	apphttp "erate-tracker/internal/common/http"
	"erate-tracker/internal/common/logger"
	"erate-tracker/internal/models"
	"erate-tracker/internal/onboarding"
)

var (
	configPath string
	baseURL    string
	role       string
	verbose    bool
)

func Execute() error {
	root := &cobra.Command{
		Use:           "onboard",
		Short:         "Walk a new E-Rate Tracker account through onboarding",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadClient(configPath)
			if err != nil {
				return err
			}
			if baseURL != "" {
				cfg.Client.BaseURL = baseURL
			}
			if role != "" {
				cfg.Client.Role = role
			}

			r, err := models.ParseRole(cfg.Client.Role)
			if err != nil {
				return err
			}

			level := "warn"
			if verbose {
				level = "debug"
			}
			log := logger.NewZapAdapter(logger.New(level, "console", "stderr"))

			api := apiclient.New(cfg.Client.BaseURL,
				apphttp.StaticToken(cfg.Client.Token),
				config.GetDuration(cfg.Client.Timeout))

			w, err := onboarding.New(api, r,
				onboarding.WithLogger(log),
				onboarding.WithDestinations(roleDestinations(cfg.Onboarding.Destinations)),
			)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s := newSession(w, cmd.InOrStdin(), cmd.OutOrStdout(),
				time.Duration(cfg.Client.TickSeconds)*time.Second)
			return s.Run(ctx)
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default searches ./configs)")
	root.PersistentFlags().StringVar(&baseURL, "base-url", "", "onboarding API base URL, overrides client.base_url")
	root.PersistentFlags().StringVar(&role, "role", "", "account role, overrides client.role")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log API calls to stderr")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errText.Sprint("error: "), err)
		return err
	}
	return nil
}

func roleDestinations(in map[string]string) map[models.Role]string {
	out := make(map[models.Role]string, len(in))
	for k, v := range in {
		if r, err := models.ParseRole(k); err == nil {
			out[r] = v
		}
	}
	return out
}
