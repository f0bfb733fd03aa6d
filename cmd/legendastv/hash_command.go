package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"legendastv/internal/subtitles/opensubtitles"
)

func newHashCommand(ctx *commandContext) *cobra.Command {
	var lookup bool

	cmd := &cobra.Command{
		Use:         "hash <video>",
		Short:       "Print the OpenSubtitles content hash of a video",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			sum, err := opensubtitles.Hash(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !lookup {
				fmt.Fprintln(out, sum)
				return nil
			}

			session, err := ctx.openSession(cmd.Context())
			if err != nil {
				return err
			}
			if session.Lookup == nil {
				return errors.New("content hash lookup requires opensubtitles.enabled and opensubtitles.hash_lookup")
			}
			titles, err := session.Lookup.LookupByContentHash(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{"hash": sum, "titles": titles})
			}
			fmt.Fprintln(out, sum)
			if len(titles) == 0 {
				fmt.Fprintln(out, "No titles matched the hash")
				return nil
			}
			rows := make([][]string, 0, len(titles))
			for _, t := range titles {
				rows = append(rows, []string{t.ID, t.Title, t.Year, t.Type.String(), seasonLabel(t.Season)})
			}
			printTable(out, []string{"ID", "Title", "Year", "Type", "Season"}, rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignRight})
			return nil
		},
	}
	cmd.Flags().BoolVar(&lookup, "lookup", false, "Also identify the video through OpenSubtitles")
	return cmd
}
