// Package cli は timesheetctl のコマンド群です。
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ogurasousui/codex-timesheet/internal/app"
	"github.com/ogurasousui/codex-timesheet/internal/core/calendar"
	"github.com/ogurasousui/codex-timesheet/internal/core/legacy"
	"github.com/ogurasousui/codex-timesheet/internal/core/report"
	"github.com/ogurasousui/codex-timesheet/internal/platform/config"
	pg "github.com/ogurasousui/codex-timesheet/internal/platform/db/postgres"
)

// LegacyImporter は旧 CSV の取り込みを行います。
type LegacyImporter interface {
	Import(ctx context.Context, rows []legacy.Row) (*legacy.Result, error)
}

// Deps はコマンドが利用するユースケースです。
type Deps struct {
	Reports  report.UseCase
	Calendar calendar.UseCase
	Importer LegacyImporter
	// Region は holidays generate で --region が省略された場合の地域です。
	Region string
	Close  func()
}

// Connector は設定ファイルのパスから Deps を構築します。
type Connector func(ctx context.Context, configPath string) (*Deps, error)

// NewRootCmd はルートコマンドを構築します。connect はサブコマンドの実行時に初めて呼び出されます。
func NewRootCmd(connect Connector) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "timesheetctl",
		Short:         "Maintenance commands for the timesheet database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (defaults to CONFIG_PATH env or assets/local.yaml)")

	withDeps := func(run func(cmd *cobra.Command, args []string, deps *Deps) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			deps, err := connect(cmd.Context(), effectiveConfigPath(configPath))
			if err != nil {
				return err
			}
			if deps.Close != nil {
				defer deps.Close()
			}
			return run(cmd, args, deps)
		}
	}

	root.AddCommand(
		newYearsCmd(withDeps),
		newPivotCmd(withDeps),
		newExportCmd(withDeps),
		newHolidaysCmd(withDeps),
		newImportCmd(withDeps),
	)
	return root
}

type depsRunner func(run func(cmd *cobra.Command, args []string, deps *Deps) error) func(*cobra.Command, []string) error

// Execute は PostgreSQL に接続するルートコマンドを実行します。
func Execute() error {
	root := NewRootCmd(connectPostgres)
	if err := root.ExecuteContext(context.Background()); err != nil {
		_, _ = fmt.Fprintln(root.ErrOrStderr(), Warning("error: "+err.Error()))
		return err
	}
	return nil
}

func effectiveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		return env
	}
	return "assets/local.yaml"
}

func connectPostgres(ctx context.Context, configPath string) (*Deps, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	pool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	svc := app.New(pool, app.Options{})
	return &Deps{
		Reports:  svc.Reports,
		Calendar: svc.Calendar,
		Importer: svc.Importer,
		Region:   cfg.Holidays.Region,
		Close:    pool.Close,
	}, nil
}
