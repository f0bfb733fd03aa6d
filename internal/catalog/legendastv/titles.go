package legendastv

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"legendastv/internal/logging"
	"legendastv/internal/media"
)

var (
	yearPattern   = regexp.MustCompile(`(?:19|20)\d{2}`)
	seasonPattern = regexp.MustCompile(`(?i)(\d{1,2})\s*(?:ª|º|°|st|nd|rd|th)?\s*(?:temporada|season)`)
)

// flexString accepts JSON strings and numbers.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(data)
	return nil
}

type titleEntry struct {
	Filme struct {
		ID       flexString `json:"id_filme"`
		Name     string     `json:"dsc_nome"`
		NameBR   string     `json:"dsc_nome_br"`
		Image    string     `json:"dsc_imagen"`
		Released flexString `json:"dsc_data_lancamento"`
		Kind     string     `json:"tipo"`
	} `json:"Filme"`
}

// SearchTitles queries the title index. Each hit keeps the original title
// and the Brazilian title; series entries carry their season number.
func (c *Client) SearchTitles(ctx context.Context, text string) ([]media.TitleCandidate, error) {
	body, err := c.fetch(ctx, "GET", "/util/busca_titulo/"+quote(text), nil)
	if err != nil {
		return nil, err
	}
	titles, err := parseTitles(body)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("titles found",
		logging.String("query", text),
		logging.Int("count", len(titles)),
	)
	for _, t := range titles {
		c.cachePoster(ctx, t.ThumbnailRef)
	}
	return titles, nil
}

func parseTitles(body []byte) ([]media.TitleCandidate, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}
	var entries []titleEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("decode title search: %w", err)
	}
	titles := make([]media.TitleCandidate, 0, len(entries))
	for _, e := range entries {
		item := e.Filme
		id := strings.TrimSpace(string(item.ID))
		if id == "" {
			continue
		}
		candidate := media.TitleCandidate{
			ID:             id,
			Title:          strings.TrimSpace(item.Name),
			LocalizedTitle: strings.TrimSpace(item.NameBR),
			Year:           yearPattern.FindString(string(item.Released)),
			Type:           kindOf(item.Kind),
			Raw:            e,
		}
		if image := strings.TrimSpace(item.Image); image != "" {
			candidate.ThumbnailRef = "/img/poster/" + image
		}
		if season := seasonOf(candidate.Title, candidate.LocalizedTitle); season > 0 {
			candidate.Season = season
			if candidate.Type == media.Unknown {
				candidate.Type = media.Series
			}
		}
		titles = append(titles, candidate)
	}
	return titles, nil
}

func kindOf(value string) media.MediaType {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "M":
		return media.Movie
	case "S":
		return media.Series
	default:
		return media.ParseMediaType(value)
	}
}

func seasonOf(titles ...string) int {
	for _, title := range titles {
		if m := seasonPattern.FindStringSubmatch(title); m != nil {
			season, err := strconv.Atoi(m[1])
			if err == nil {
				return season
			}
		}
	}
	return 0
}
