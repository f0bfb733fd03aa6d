package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"legendastv/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var status string
	var video string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past resolutions",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			records, err := store.List(cmd.Context(), history.Filter{Status: status, VideoPath: video, Limit: limit})
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, records)
			}
			if len(records) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No resolutions recorded in %s\n", store.Path())
				return nil
			}
			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				detail := rec.OutputPath
				if rec.Error != "" {
					detail = rec.Error
				}
				rows = append(rows, []string{
					strconv.FormatInt(rec.ID, 10),
					rec.FinishedAt.Local().Format("2006-01-02 15:04"),
					rec.Status,
					rec.Title,
					rec.Provider,
					rec.SubtitleRelease,
					detail,
				})
			}
			printTable(cmd.OutOrStdout(), []string{"ID", "Finished", "Status", "Title", "Provider", "Release", "Detail"}, rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft})
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Only show one status (done, not_found, failed, skipped)")
	cmd.Flags().StringVar(&video, "video", "", "Only show resolutions of this video path")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum rows (0 for all)")

	cmd.AddCommand(newHistoryPruneCommand(ctx))
	return cmd
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete resolutions older than the given age",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			if days <= 0 {
				return errors.New("--days must be positive")
			}
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			removed, err := store.Prune(cmd.Context(), time.Now().AddDate(0, 0, -days))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d resolution(s)\n", removed)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 90, "Age in days above which records are deleted")
	return cmd
}
