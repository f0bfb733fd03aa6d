package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCleanCommand(ctx *commandContext) *cobra.Command {
	var noRenumber bool

	cmd := &cobra.Command{
		Use:   "clean <subtitle.srt>...",
		Short: "Remove advertisement cues from SRT files in place",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cleaner, err := ctx.newCleaner()
			if err != nil {
				return err
			}
			cleaner.Renumber = !noRenumber
			out := cmd.OutOrStdout()
			for _, path := range args {
				stats, err := cleaner.CleanFile(path)
				if err != nil {
					return fmt.Errorf("clean %s: %w", path, err)
				}
				note := ""
				if stats.Transcoded {
					note = " (converted from windows-1252)"
				}
				fmt.Fprintf(out, "%s: removed %d cue(s)%s\n", path, stats.RemovedCues, note)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&noRenumber, "no-renumber", false, "Keep the original cue numbers")
	return cmd
}
