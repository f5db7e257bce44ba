package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yigit/facultycredits/internal/app/models"
	"github.com/yigit/facultycredits/internal/bootstrap"
	"github.com/yigit/facultycredits/internal/config"
	"github.com/yigit/facultycredits/internal/pkg/academicyear"
	"github.com/yigit/facultycredits/internal/pkg/logger"
	"github.com/yigit/facultycredits/internal/server"
)

var defaultConfigPath = filepath.Join("configs", "config.yaml")

type rootOptions struct {
	configPath string
}

// newRootCommand builds the CLI. Running it without a subcommand serves the API.
func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "facultycredits",
		Short:         "Faculty performance-credit ledger",
		Long:          "Records faculty achievements and remarks, drives their approval and appeal workflow and reports balances",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "path to the YAML config file")

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and seed the default catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), opts)
		},
	})
	cmd.AddCommand(newTokenCommand(opts))
	cmd.AddCommand(newYearsCommand())

	return cmd
}

func runServe(ctx context.Context, opts *rootOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := server.NewServer(ctx, opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server execution failed: %w", err)
	}
	logger.Info().Msg("Application finished gracefully.")
	return nil
}

func runMigrate(ctx context.Context, opts *rootOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(opts.configPath)
	if err != nil {
		return err
	}
	database, err := bootstrap.SetupDatabase(ctx, cfg, lgr)
	if err != nil {
		return err
	}
	return database.Close()
}

type tokenOptions struct {
	userID int64
	role   string
	ttl    time.Duration
}

// newTokenCommand issues a signed token for local testing. Production tokens
// come from the institution's identity provider.
func newTokenCommand(root *rootOptions) *cobra.Command {
	opts := &tokenOptions{}
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(root.configPath)
			if err != nil {
				return err
			}
			return issueToken(cmd.OutOrStdout(), cfg, opts)
		},
	}
	cmd.Flags().Int64Var(&opts.userID, "user", 0, "user id carried by the token")
	cmd.Flags().StringVar(&opts.role, "role", string(models.RoleFaculty), "FACULTY or ADMIN")
	cmd.Flags().DurationVar(&opts.ttl, "ttl", 0, "token lifetime (defaults to jwt.access_token_expiration)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func issueToken(out io.Writer, cfg *config.Config, opts *tokenOptions) error {
	actor := models.Actor{ID: opts.userID, Role: models.RoleType(opts.role)}
	if actor.ID <= 0 || !actor.Role.Valid() {
		return fmt.Errorf("invalid actor: user %d role %q", opts.userID, opts.role)
	}
	if opts.ttl > 0 {
		cfg.JWT.AccessTokenExpiration = opts.ttl.String()
	}

	token, expiresAt, err := bootstrap.NewJWTService(cfg).GenerateAccessToken(actor)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}
	_, err = fmt.Fprintf(out, "%s\n# expires %s\n", token, expiresAt.Format(time.RFC3339))
	return err
}

func newYearsCommand() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "years",
		Short: "Print the selectable academic years, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printYears(cmd.OutOrStdout(), time.Now(), count)
		},
	}
	cmd.Flags().IntVar(&count, "count", academicyear.DefaultOptionCount, "number of years")
	return cmd
}

func printYears(out io.Writer, now time.Time, count int) error {
	for _, year := range academicyear.Options(now, count) {
		if _, err := fmt.Fprintln(out, year); err != nil {
			return err
		}
	}
	return nil
}
