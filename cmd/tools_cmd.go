package main

import (
	"fmt"
	"os"
	"path/filepath"

	"OwaraiArchive/internal/interfaces"
	"OwaraiArchive/internal/service"
	"OwaraiArchive/internal/utils/csvutil"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newConvertScoresCmd(configPath *string) *cobra.Command {
	var in, out string

	cmd := &cobra.Command{
		Use:   "convert-scores",
		Short: "Convert wide scores (seat_1..seat_N columns) into judge_scores.csv",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(*configPath)
			if err != nil {
				return err
			}
			if in == "" {
				in = filepath.Join(cfg.Paths.SeedDir, "scores_wide.csv")
			}
			if out == "" {
				out = filepath.Join(cfg.Paths.SeedDir, interfaces.JudgeScoresCSV)
			}

			wide, err := csvutil.ReadFile(filepath.Base(in), in)
			if err != nil {
				return withCode(exitValidation, err)
			}
			if wide.Missing {
				return withCode(exitUsage, fmt.Errorf("输入文件不存在: %s", in))
			}
			rows, err := service.ConvertWideScores(wide)
			if err != nil {
				return withCode(exitValidation, fmt.Errorf("%s: %w", in, err))
			}
			if err := writeCSV(out, service.JudgeScoresHeader, rows); err != nil {
				return err
			}
			log.WithFields(logrus.Fields{"in": in, "out": out, "rows": len(rows)}).Info("个票转换完成")
			return nil
		},
	}

	cmd.Flags().StringVar(&in, "in", "", "Wide scores CSV (default: <seed_dir>/scores_wide.csv)")
	cmd.Flags().StringVar(&out, "out", "", "Output CSV (default: <seed_dir>/judge_scores.csv)")
	return cmd
}

func newSyncComediansCmd(configPath *string) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "sync-comedians",
		Short: "Append comedians seen in final_results.csv to comedians.csv and report spelling variants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(*configPath)
			if err != nil {
				return err
			}
			src := csvutil.DirSource{Dir: cfg.Paths.SeedDir}
			comedians, err := src.Table(interfaces.ComediansCSV)
			if err != nil {
				return withCode(exitValidation, err)
			}
			results, err := src.Table(interfaces.FinalResultsCSV)
			if err != nil {
				return withCode(exitValidation, err)
			}

			rep := service.SyncComedians(comedians, results)
			for _, g := range rep.Strong {
				log.WithFields(logrus.Fields{"note": g.Note, "key": g.Key, "names": g.Names}).Warn("表记摇摆候补（强）")
			}
			for _, p := range rep.Weak {
				log.WithFields(logrus.Fields{"note": p.Note, "a": p.A, "b": p.B, "distance": p.Distance}).Warn("表记摇摆候补（弱）")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "inserted=%d reading_filled=%d strong=%d weak=%d\n",
				rep.Inserted, rep.ReadingFilled, len(rep.Strong), len(rep.Weak))
			if dryRun {
				return nil
			}
			return writeCSV(filepath.Join(cfg.Paths.SeedDir, interfaces.ComediansCSV), rep.Header, rep.Rows)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report only; do not rewrite comedians.csv")
	return cmd
}

// writeCSV 先写同目录临时文件再改名，中途失败不会留下半个文件
func writeCSV(path string, header []string, rows [][]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return withCode(exitDB, fmt.Errorf("创建临时文件失败: %w", err))
	}
	defer os.Remove(tmp.Name())

	if err := csvutil.Write(tmp, header, rows); err != nil {
		tmp.Close()
		return withCode(exitDB, fmt.Errorf("写入%s失败: %w", path, err))
	}
	if err := tmp.Close(); err != nil {
		return withCode(exitDB, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return withCode(exitDB, fmt.Errorf("替换%s失败: %w", path, err))
	}
	return nil
}
