package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kentavrex/topfit/internal/service"
)

func newExportCmd(logger func() (*zap.Logger, error)) *cobra.Command {
	var (
		userID int64
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a user's 30-day statistics to an xlsx file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := logger()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			a, err := newApp(log)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := service.NewReportService(a.stats, a.users).MonthlyReport(cmd.Context(), userID)
			if err != nil {
				return err
			}

			if out == "" {
				out = fmt.Sprintf("topfit-%d.xlsx", userID)
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			if err := report.WriteXLSX(f); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			log.Info("report written", zap.Int64("user_id", userID), zap.String("path", out))
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "Telegram user id")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
