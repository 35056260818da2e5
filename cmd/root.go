package main

import (
	"errors"
	"fmt"

	"OwaraiArchive/internal/rank"
	"OwaraiArchive/internal/service"
	"OwaraiArchive/internal/store"
	"OwaraiArchive/internal/utils/csvutil"

	"github.com/spf13/cobra"
)

type importOptions struct {
	configPath string
	noReset    bool
	append     bool
}

// newRootCmd 根命令即导入；其余功能为子命令
func newRootCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:           "owarai-archive",
		Short:         "Import seed CSVs into the awards SQLite archive and publish it atomically",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default: ./config/config.yaml if present)")
	cmd.Flags().BoolVar(&opts.noReset, "no-reset", false, "Do nothing and exit 0 (keeps the published store)")
	cmd.Flags().BoolVar(&opts.append, "append", false, "Upsert on top of the published store instead of rebuilding")

	cmd.AddCommand(newServeCmd(&opts.configPath))
	cmd.AddCommand(newConvertScoresCmd(&opts.configPath))
	cmd.AddCommand(newSyncComediansCmd(&opts.configPath))
	return cmd
}

func runImport(cmd *cobra.Command, opts importOptions) error {
	if opts.noReset && opts.append {
		return withCode(exitUsage, errors.New("--no-reset 与 --append 不能同时指定"))
	}
	cfg, log, err := setup(opts.configPath)
	if err != nil {
		return err
	}
	table, err := rank.Lookup(cfg.Import.RankTable)
	if err != nil {
		return withCode(exitUsage, err)
	}

	publisher := store.NewPublisher(cfg.Paths.DBPath, cfg.Paths.TmpPath, log)
	loader := service.NewLoader(csvutil.DirSource{Dir: cfg.Paths.SeedDir}, publisher, log, service.LoaderOptions{
		RankTable: table,
		Overrides: cfg.Overrides(),
	})

	if opts.noReset {
		loader.Skip().Print(cmd.OutOrStdout())
		return nil
	}

	mode := store.ModeReset
	if opts.append {
		mode = store.ModeAppend
	}
	summary, err := loader.Run(cmd.Context(), mode)
	if err != nil {
		return withCode(importExitCode(err), fmt.Errorf("导入失败: %w", err))
	}
	summary.Print(cmd.OutOrStdout())
	return nil
}
