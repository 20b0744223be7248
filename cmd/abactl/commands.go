package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/aba-tracker-api/internal/models"
	"github.com/noah-isme/aba-tracker-api/internal/service"
)

type backupRunner interface {
	Export(ctx context.Context, accountID string) (*models.Backup, error)
	Decode(r io.Reader) (*models.Backup, error)
	Import(ctx context.Context, accountID string, doc *models.Backup, mode models.ImportMode) (*models.ImportResult, error)
}

type milestoneSource interface {
	Milestones(ctx context.Context, accountID string, filter models.AnalyticsFilter) ([]models.Milestone, bool, error)
}

// runtime is what commands need from an opened application.
type runtime struct {
	Backup    backupRunner
	Analytics milestoneSource
	Migrate   func(ctx context.Context) ([]string, error)
	Close     func()
}

type opener func(ctx context.Context) (*runtime, error)

func newRootCmd(open opener) *cobra.Command {
	root := &cobra.Command{
		Use:           "abactl",
		Short:         "Operator tooling for the ABA tracker",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(migrateCmd(open))
	root.AddCommand(backupCmd(open))
	root.AddCommand(analyticsCmd(open))
	return root
}

// withRuntime opens the runtime for one command invocation.
func withRuntime(cmd *cobra.Command, open opener, fn func(ctx context.Context, rt *runtime) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := open(ctx)
	if err != nil {
		return err
	}
	if rt.Close != nil {
		defer rt.Close()
	}
	return fn(ctx, rt)
}

func migrateCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, open, func(ctx context.Context, rt *runtime) error {
				applied, err := rt.Migrate(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(applied) == 0 {
					fmt.Fprintln(out, "schema is up to date")
					return nil
				}
				for _, v := range applied {
					fmt.Fprintf(out, "applied %s\n", v)
				}
				return nil
			})
		},
	}
}

func backupCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export or import an account backup",
	}
	cmd.AddCommand(backupExportCmd(open))
	cmd.AddCommand(backupImportCmd(open))
	return cmd
}

func backupExportCmd(open opener) *cobra.Command {
	var accountID, outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write an account's version 2 backup as JSON",
		Example: `  abactl backup export --account 6f1c... --out backup.json
  abactl backup export --account 6f1c... > backup.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, open, func(ctx context.Context, rt *runtime) error {
				doc, err := rt.Backup.Export(ctx, accountID)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if outPath != "" && outPath != "-" {
					f, err := os.Create(outPath)
					if err != nil {
						return fmt.Errorf("create %s: %w", outPath, err)
					}
					defer f.Close()
					w = f
				}
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				if err := enc.Encode(doc); err != nil {
					return fmt.Errorf("write backup: %w", err)
				}
				if outPath != "" && outPath != "-" {
					fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d behaviors, %d reinforcers, %d crisis protocols, %d profiles to %s\n",
						len(doc.Data.Behaviors), len(doc.Data.Reinforcers), len(doc.Data.CrisisProtocols), len(doc.Data.Profiles), outPath)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&accountID, "account", "", "account id to export")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}

func backupImportCmd(open opener) *cobra.Command {
	var accountID, filePath, rawMode string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load a backup file into an account",
		Long: `Load a version 1 or 2 backup into an account.

merge upserts records by id and keeps everything else.
replace deletes the account's records first.
Invalid documents are rejected before anything is written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode, err := service.ParseImportMode(rawMode)
			if err != nil {
				return err
			}
			var in io.Reader = cmd.InOrStdin()
			if filePath != "-" {
				f, err := os.Open(filePath)
				if err != nil {
					return fmt.Errorf("open %s: %w", filePath, err)
				}
				defer f.Close()
				in = f
			}
			return withRuntime(cmd, open, func(ctx context.Context, rt *runtime) error {
				doc, err := rt.Backup.Decode(in)
				if err != nil {
					return err
				}
				result, err := rt.Backup.Import(ctx, accountID, doc, mode)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported v%d backup (%s): %d behaviors, %d reinforcers, %d crisis protocols, %d profiles\n",
					result.Version, result.Mode, result.Behaviors, result.Reinforcers, result.CrisisProtocols, result.Profiles)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&accountID, "account", "", "account id to import into")
	cmd.Flags().StringVarP(&filePath, "file", "f", "", "backup file, or - for stdin")
	cmd.Flags().StringVar(&rawMode, "mode", string(models.ImportMerge), "merge or replace")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func analyticsCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Inspect behavior analytics",
	}
	cmd.AddCommand(milestonesCmd(open))
	return cmd
}

func milestonesCmd(open opener) *cobra.Command {
	var (
		accountID string
		filter    models.AnalyticsFilter
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "milestones",
		Short: "List progress milestones for an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, open, func(ctx context.Context, rt *runtime) error {
				milestones, _, err := rt.Analytics.Milestones(ctx, accountID, filter)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(milestones)
				}
				if len(milestones) == 0 {
					fmt.Fprintln(out, "no milestones")
					return nil
				}
				for _, m := range milestones {
					week := m.Week
					if week == "" {
						week = m.DetectedAt.Format(time.DateOnly)
					}
					fmt.Fprintf(out, "%-10s %-22s %s\n", week, m.Type, m.Title)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&accountID, "account", "", "account id")
	cmd.Flags().StringVar(&filter.ProfileID, "profile", "", "restrict to one profile")
	cmd.Flags().StringVar(&filter.DateFrom, "from", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&filter.DateTo, "to", "", "last day (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}
