package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gorm.io/gorm"

	"github.com/noah-isme/horas-api/internal/config"
	"github.com/noah-isme/horas-api/internal/database"
	"github.com/noah-isme/horas-api/internal/repository"
	"github.com/noah-isme/horas-api/internal/service"
	"github.com/noah-isme/horas-api/internal/utils"
)

var readPasswordFunc = func() ([]byte, error) {
	return term.ReadPassword(int(os.Stdin.Fd()))
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type app struct {
	cfg    config.Config
	db     *gorm.DB
	logger zerolog.Logger
}

func loadApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	return &app{cfg: cfg, db: db, logger: logger}, nil
}

func (a *app) progressService() service.ProgressService {
	return service.NewProgressService(
		repository.NewStudentRepository(a.db),
		repository.NewActivityListRepository(a.db),
		repository.NewActivityRepository(a.db),
		nil,
		a.cfg.ProgressCacheTTL,
		service.NewLogProgressPublisher(a.logger),
		a.logger,
	)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Maintenance tasks for the complementary hours API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newMigrateCmd())
	root.AddCommand(newAddUserCmd())
	root.AddCommand(newRecomputeCmd())
	return root
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			if err := database.Migrate(a.db); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func newAddUserCmd() *cobra.Command {
	var input service.UserInput

	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create or update a coordinator or monitor account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := promptPassword(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			input.Password = password

			a, err := loadApp()
			if err != nil {
				return err
			}
			auth := service.NewAuthService(repository.NewUserRepository(a.db), utils.NewValidator(nil), a.cfg.JWTSecret, a.cfg.JWTTTL, a.logger)
			user, err := auth.UpsertUser(context.Background(), input)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "saved %s <%s> as %s (id=%d)\n", user.Name, user.Email, user.Role, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&input.Name, "name", "", "full name")
	cmd.Flags().StringVar(&input.Email, "email", "", "login e-mail")
	cmd.Flags().StringVar(&input.Role, "role", "monitor", "coordinator|monitor")
	cmd.Flags().StringVar(&input.CPF, "cpf", "", "CPF, also accepted as login identifier (optional)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func promptPassword(out io.Writer) (string, error) {
	_, _ = fmt.Fprint(out, "Enter password: ")
	first, err := readPasswordFunc()
	_, _ = fmt.Fprintln(out)
	if err != nil {
		return "", err
	}
	_, _ = fmt.Fprint(out, "Confirm password: ")
	second, err := readPasswordFunc()
	_, _ = fmt.Fprintln(out)
	if err != nil {
		return "", err
	}

	password := strings.TrimSpace(string(first))
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	if password != strings.TrimSpace(string(second)) {
		return "", errors.New("passwords do not match")
	}
	return password, nil
}

func newRecomputeCmd() *cobra.Command {
	var listID uint

	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Recompute cached totals and status for every student",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			progress := a.progressService()

			var refreshed int
			if listID > 0 {
				refreshed, err = progress.RefreshList(context.Background(), listID)
			} else {
				refreshed, err = progress.RefreshAll(context.Background())
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "recomputed %d students\n", refreshed)
			return nil
		},
	}
	cmd.Flags().UintVar(&listID, "list-id", 0, "only recompute students of this activity list")
	return cmd
}
