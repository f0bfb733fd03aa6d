package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"legendastv/internal/logging"
	"legendastv/internal/media"
	"legendastv/internal/subtitles"
)

func newRankCommand(ctx *commandContext) *cobra.Command {
	var providerName string
	var limit int

	cmd := &cobra.Command{
		Use:   "rank <video>",
		Short: "Show how titles and subtitles would be ranked for a video",
		Long: "Rank runs the search and ranking steps of resolve without downloading anything, " +
			"printing the guessed query, the scored title candidates and the scored subtitles.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			session, err := ctx.singleSession(cmd, providerName)
			if err != nil {
				return err
			}
			resolver := subtitles.NewResolver(subtitles.OptionsFromConfig(cfg),
				subtitles.WithLogger(logging.NewComponentLogger(logger, "rank")))

			plan, err := resolver.Plan(cmd.Context(), session, session.Providers[0], args[0])
			if err != nil {
				return err
			}
			scoredSubs := plan.Subtitles
			if limit > 0 && len(scoredSubs) > limit {
				scoredSubs = scoredSubs[:limit]
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{
					"query":     plan.Query,
					"titles":    plan.Titles,
					"search":    plan.Search,
					"subtitles": scoredSubs,
				})
			}
			out := cmd.OutOrStdout()
			printQuery(out, plan.Query)
			printScoredTitles(out, plan.Titles)
			if plan.Search.TitleID != "" {
				fmt.Fprintf(out, "Searching subtitles for title %s\n", plan.Search.TitleID)
			} else {
				fmt.Fprintf(out, "Searching subtitles by release %q\n", plan.Search.Text)
			}
			printScoredSubtitles(out, scoredSubs)
			return nil
		},
	}
	cmd.Flags().StringVarP(&providerName, "provider", "p", "", "Catalog to query (defaults to the first configured provider)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum subtitles to show (0 for all)")
	return cmd
}

func printQuery(out io.Writer, q media.Query) {
	fmt.Fprintf(out, "Title:   %s\n", q.Title)
	fmt.Fprintf(out, "Year:    %s\n", q.Year)
	fmt.Fprintf(out, "Release: %s\n", q.Release)
	fmt.Fprintf(out, "Type:    %s\n", q.Type)
	if q.IsEpisode() {
		fmt.Fprintf(out, "Episode: S%02dE%02d\n", q.Season, q.Episode)
	}
	fmt.Fprintln(out)
}

func printScoredTitles(out io.Writer, scored []media.ScoredTitle) {
	if len(scored) == 0 {
		fmt.Fprintln(out, "No titles found")
		return
	}
	rows := make([][]string, 0, len(scored))
	for _, s := range scored {
		rows = append(rows, []string{
			s.ID,
			s.Title,
			s.Year,
			strconv.FormatFloat(s.Similarity, 'f', 3, 64),
			strconv.FormatFloat(s.Score, 'f', 2, 64),
			strings.Join(s.Reasons, "; "),
		})
	}
	printTable(out, []string{"ID", "Title", "Year", "Similarity", "Score", "Reasons"}, rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignLeft})
}

func printScoredSubtitles(out io.Writer, scored []media.ScoredSubtitle) {
	if len(scored) == 0 {
		fmt.Fprintln(out, "No subtitles found")
		return
	}
	rows := make([][]string, 0, len(scored))
	for _, s := range scored {
		rows = append(rows, []string{
			s.ID,
			s.Release,
			strconv.FormatFloat(s.Score, 'f', 2, 64),
			flags(s.SubtitleCandidate),
			strings.Join(s.Reasons, "; "),
		})
	}
	printTable(out, []string{"ID", "Release", "Score", "Flags", "Reasons"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft})
}
