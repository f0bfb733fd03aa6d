package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"legendastv/internal/catalog"
	"legendastv/internal/language"
	"legendastv/internal/media"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "Query a subtitle catalog directly",
	}
	searchCmd.AddCommand(newSearchTitlesCommand(ctx))
	searchCmd.AddCommand(newSearchSubtitlesCommand(ctx))
	return searchCmd
}

func newSearchTitlesCommand(ctx *commandContext) *cobra.Command {
	var providerName string

	cmd := &cobra.Command{
		Use:   "titles <text>",
		Short: "List catalog titles matching text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			provider, err := ctx.singleProvider(cmd, providerName)
			if err != nil {
				return err
			}
			titles, err := provider.SearchTitles(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, titles)
			}
			if len(titles) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No titles found")
				return nil
			}
			rows := make([][]string, 0, len(titles))
			for _, t := range titles {
				rows = append(rows, []string{t.ID, t.Title, t.LocalizedTitle, t.Year, t.Type.String(), seasonLabel(t.Season)})
			}
			printTable(cmd.OutOrStdout(), []string{"ID", "Title", "Localized", "Year", "Type", "Season"}, rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignRight})
			return nil
		},
	}
	cmd.Flags().StringVarP(&providerName, "provider", "p", "", "Catalog to query (defaults to the first configured provider)")
	return cmd
}

func newSearchSubtitlesCommand(ctx *commandContext) *cobra.Command {
	var providerName string
	var titleID string
	var lang string
	var episode bool

	cmd := &cobra.Command{
		Use:   "subtitles [release text]",
		Short: "List subtitles for a title id or release text",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			text := strings.TrimSpace(strings.Join(args, " "))
			if titleID == "" && text == "" {
				return errors.New("either --title-id or release text is required")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			provider, err := ctx.singleProvider(cmd, providerName)
			if err != nil {
				return err
			}
			q := catalog.SubtitleQuery{TitleID: titleID, Text: text, Language: lang}
			if q.Language == "" {
				q.Language = cfg.LegendasTV.Language
			}
			if titleID != "" {
				q.Text = ""
			}
			if episode {
				q.Type = media.Episode
			}
			subs, err := provider.SearchSubtitles(cmd.Context(), q)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, subs)
			}
			if len(subs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No subtitles found")
				return nil
			}
			rows := make([][]string, 0, len(subs))
			for _, s := range subs {
				rows = append(rows, []string{
					s.ID,
					s.Release,
					language.DisplayName(s.Language),
					s.UserName,
					formatDate(s),
					strconv.Itoa(s.Downloads),
					formatRating(s.Rating),
					flags(s),
				})
			}
			printTable(cmd.OutOrStdout(), []string{"ID", "Release", "Lang", "Uploader", "Date", "Downloads", "Rating", "Flags"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft})
			return nil
		},
	}
	cmd.Flags().StringVarP(&providerName, "provider", "p", "", "Catalog to query (defaults to the first configured provider)")
	cmd.Flags().StringVarP(&titleID, "title-id", "t", "", "Catalog title id (from search titles)")
	cmd.Flags().StringVarP(&lang, "language", "l", "", "Subtitle language (defaults to legendastv.language)")
	cmd.Flags().BoolVar(&episode, "episode", false, "Treat the query as a TV episode")
	return cmd
}

// singleProvider opens a session holding only the named provider, or the
// first configured one.
func (c *commandContext) singleProvider(cmd *cobra.Command, name string) (catalog.Provider, error) {
	session, err := c.singleSession(cmd, name)
	if err != nil {
		return nil, err
	}
	return session.Providers[0], nil
}

// singleSession opens a session holding only the named provider, or the
// first configured one when name is empty.
func (c *commandContext) singleSession(cmd *cobra.Command, name string) (*catalog.Session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = cfg.Resolver.Providers[0]
	}
	return c.openSession(cmd.Context(), name)
}

func seasonLabel(season int) string {
	if season <= 0 {
		return ""
	}
	return media.SeasonOrdinal(season)
}

func formatDate(s media.SubtitleCandidate) string {
	if s.Date.IsZero() {
		return ""
	}
	return s.Date.Format("2006-01-02")
}

func formatRating(rating *int) string {
	if rating == nil {
		return "-"
	}
	return strconv.Itoa(*rating)
}

func flags(s media.SubtitleCandidate) string {
	var out []string
	if s.Highlighted {
		out = append(out, "highlighted")
	}
	if s.Pack {
		out = append(out, "pack")
	}
	return strings.Join(out, ",")
}
