package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"legendastv/internal/logging"
	"legendastv/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var raw bool
	var day string
	var filter logs.Filter

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the daily log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			when := time.Now()
			if day != "" {
				when, err = time.ParseInLocation("2006-01-02", day, time.Local)
				if err != nil {
					return fmt.Errorf("invalid --date %q: want YYYY-MM-DD", day)
				}
			}
			path := logging.DailyLogPath(cfg.Paths.LogDir, when)
			out := cmd.OutOrStdout()

			emit := func(batch []string) {
				for _, line := range batch {
					if !filter.Match(line) {
						continue
					}
					if !raw {
						line = logs.Format(line)
					}
					fmt.Fprintln(out, line)
				}
			}

			result, err := logs.Tail(cmd.Context(), path, logs.TailOptions{Offset: -1, Limit: lines})
			if err != nil {
				return err
			}
			emit(result.Lines)
			if !follow {
				return nil
			}
			offset := result.Offset
			for {
				result, err := logs.Tail(cmd.Context(), path, logs.TailOptions{Offset: offset, Follow: true, Wait: 5 * time.Second})
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				}
				emit(result.Lines)
				offset = result.Offset
			}
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Lines to show from the end of the file")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print JSON lines as written")
	cmd.Flags().StringVar(&day, "date", "", "Day to read (YYYY-MM-DD, defaults to today)")
	cmd.Flags().StringVar(&filter.Level, "level", "", "Minimum level (debug, info, warn, error)")
	cmd.Flags().StringVar(&filter.CorrelationID, "request", "", "Only lines for this request id")
	cmd.Flags().StringVar(&filter.Video, "video", "", "Only lines whose video path contains this text")
	cmd.Flags().StringVar(&filter.Provider, "provider", "", "Only lines from this catalog")
	return cmd
}
