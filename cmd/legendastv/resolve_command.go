package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"legendastv/internal/fileutil"
	"legendastv/internal/subtitles"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var jobs int
	var overwrite bool
	var clean bool

	cmd := &cobra.Command{
		Use:   "resolve <video|directory>...",
		Short: "Download the best subtitle for each video",
		Long: "Resolve guesses each video's title from its path, searches the configured catalogs, " +
			"downloads the best ranked subtitle and writes it next to the video as <name>.srt. " +
			"Directories are scanned recursively for video files.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("overwrite") {
				cfg.Resolver.Overwrite = overwrite
			}
			if cmd.Flags().Changed("clean") {
				cfg.Resolver.CleanSubtitles = clean
			}
			if !cmd.Flags().Changed("jobs") {
				jobs = cfg.Resolver.Jobs
			}

			var videos []string
			for _, arg := range args {
				found, err := fileutil.FindVideos(arg)
				if err != nil {
					return err
				}
				videos = append(videos, found...)
			}
			if len(videos) == 0 {
				return errors.New("no video files found")
			}

			lock := flock.New(cfg.LockPath())
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire lock %s: %w", cfg.LockPath(), err)
			}
			if !locked {
				return fmt.Errorf("another legendastv run holds %s", cfg.LockPath())
			}
			defer lock.Unlock()

			session, err := ctx.openSession(cmd.Context())
			if err != nil {
				return err
			}
			resolver, err := ctx.newResolver()
			if err != nil {
				return err
			}

			summary := resolver.ResolveAll(cmd.Context(), session, videos, jobs)
			if ctx.jsonOutput() {
				if err := writeJSON(cmd, summaryView(summary)); err != nil {
					return err
				}
			} else {
				printSummary(cmd.OutOrStdout(), summary)
			}
			if err := cmd.Context().Err(); err != nil {
				return err
			}
			if summary.Failed > 0 {
				return fmt.Errorf("%d of %d videos failed", summary.Failed, len(videos))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&jobs, "jobs", "j", 1, "Videos resolved in parallel (defaults to resolver.jobs)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace existing subtitles")
	cmd.Flags().BoolVar(&clean, "clean", false, "Strip ads from downloaded subtitles")
	return cmd
}

type resultView struct {
	Video     string  `json:"video"`
	Status    string  `json:"status"`
	Provider  string  `json:"provider,omitempty"`
	Title     string  `json:"title,omitempty"`
	TitleID   string  `json:"title_id,omitempty"`
	Release   string  `json:"release,omitempty"`
	Score     float64 `json:"score,omitempty"`
	Subtitle  string  `json:"subtitle,omitempty"`
	Cleaned   int     `json:"removed_cues,omitempty"`
	Error     string  `json:"error,omitempty"`
	RequestID string  `json:"request_id,omitempty"`
}

type summaryJSON struct {
	Results  []resultView `json:"results"`
	Resolved int          `json:"resolved"`
	NotFound int          `json:"not_found"`
	Skipped  int          `json:"skipped"`
	Failed   int          `json:"failed"`
	Seconds  float64      `json:"duration_seconds"`
}

func summaryView(summary subtitles.BatchSummary) summaryJSON {
	out := summaryJSON{
		Results:  make([]resultView, 0, len(summary.Results)),
		Resolved: summary.Resolved,
		NotFound: summary.NotFound,
		Skipped:  summary.Skipped,
		Failed:   summary.Failed,
		Seconds:  summary.Duration.Seconds(),
	}
	for _, res := range summary.Results {
		out.Results = append(out.Results, toResultView(res))
	}
	return out
}

func toResultView(res subtitles.Result) resultView {
	view := resultView{
		Video:     res.VideoPath,
		Status:    string(res.Status),
		Provider:  res.Provider,
		Subtitle:  res.SubtitlePath,
		Cleaned:   res.Cleaned.RemovedCues,
		RequestID: res.RequestID,
	}
	if res.Title != nil {
		view.Title = res.Title.Title
		view.TitleID = res.Title.ID
	}
	if res.Subtitle != nil {
		view.Release = res.Subtitle.Release
		view.Score = res.Subtitle.Score
	}
	if res.Err != nil {
		view.Error = res.Err.Error()
	}
	return view
}

func printSummary(out io.Writer, summary subtitles.BatchSummary) {
	rows := make([][]string, 0, len(summary.Results))
	for _, res := range summary.Results {
		detail := res.SubtitlePath
		switch {
		case res.Err != nil:
			detail = res.Err.Error()
		case res.Status == subtitles.StatusNotFound:
			detail = "no subtitle found"
		}
		release, score := "", ""
		if res.Subtitle != nil {
			release = res.Subtitle.Release
			score = strconv.FormatFloat(res.Subtitle.Score, 'f', 2, 64)
		}
		rows = append(rows, []string{filepath.Base(res.VideoPath), string(res.Status), res.Provider, release, score, detail})
	}
	printTable(out, []string{"Video", "Status", "Provider", "Release", "Score", "Detail"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft})
	fmt.Fprintf(out, "%d saved, %d missing, %d skipped, %d failed in %s\n",
		summary.Resolved, summary.NotFound, summary.Skipped, summary.Failed, summary.Duration.Round(time.Millisecond))
}
