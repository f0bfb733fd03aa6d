package legendastv

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"legendastv/internal/catalog"
	"legendastv/internal/language"
	"legendastv/internal/logging"
	"legendastv/internal/media"
)

const dateLayout = "02/01/2006 - 15:04"

var (
	statsPattern = regexp.MustCompile(`(\d+)\s+downloads?,\s*nota\s*(\d*)`)
	datePattern  = regexp.MustCompile(`\d{2}/\d{2}/\d{4}\s*-\s*\d{2}:\d{2}`)
	flagPattern  = regexp.MustCompile(`idioma/\w+_(\w+)\.`)
	siteLocation = time.FixedZone("BRT", -3*60*60)
)

// SearchSubtitles lists every subtitle for a title id or free text search,
// following "load more" links up to the configured page limit.
func (c *Client) SearchSubtitles(ctx context.Context, q catalog.SubtitleQuery) ([]media.SubtitleCandidate, error) {
	ref, err := c.searchPath(q)
	if err != nil {
		return nil, err
	}

	var subtitles []media.SubtitleCandidate
	for page := 1; ref != "" && page <= c.maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		body, err := c.fetch(ctx, "GET", ref, nil)
		if err != nil {
			return nil, err
		}
		found, next, err := parseSubtitlePage(body)
		if err != nil {
			return nil, err
		}
		c.logger.Debug("subtitle page loaded",
			logging.String("url", ref),
			logging.Int("page", page),
			logging.Int("count", len(found)),
		)
		for _, sub := range found {
			c.cachePoster(ctx, sub.flag)
			subtitles = append(subtitles, sub.SubtitleCandidate)
		}
		ref = next
	}
	return subtitles, nil
}

func (c *Client) searchPath(q catalog.SubtitleQuery) (string, error) {
	var b strings.Builder
	b.WriteString("/util/carrega_legendas_busca")
	switch {
	case strings.TrimSpace(q.TitleID) != "":
		b.WriteString("/id_filme:" + url.PathEscape(strings.TrimSpace(q.TitleID)))
	case strings.TrimSpace(q.Text) != "":
		b.WriteString("/termo:" + quote(q.Text))
	default:
		return "", fmt.Errorf("legendastv: subtitle search needs a title id or text")
	}
	lang := q.Language
	if lang == "" {
		lang = c.language
	}
	if lang != "" {
		id, ok := language.LegendasTVID(lang)
		if !ok {
			return "", fmt.Errorf("legendastv: unsupported language %q", lang)
		}
		if id > 0 {
			b.WriteString("/id_idioma:" + strconv.Itoa(id))
		}
	}
	return b.String(), nil
}

type listedSubtitle struct {
	media.SubtitleCandidate
	flag string
}

// parseSubtitlePage extracts the subtitle entries (article > div) and the
// next page link from one listing page.
func parseSubtitlePage(body []byte) ([]listedSubtitle, string, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, "", fmt.Errorf("parse subtitle listing: %w", err)
	}

	var subs []listedSubtitle
	next := ""
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Article:
				for child := n.FirstChild; child != nil; child = child.NextSibling {
					if child.Type == html.ElementNode && child.DataAtom == atom.Div {
						if sub, ok := parseSubtitleEntry(child); ok {
							subs = append(subs, sub)
						}
					}
				}
			case atom.A:
				if next == "" && hasClass(n, "load_more") {
					next = attr(n, "href")
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return subs, next, nil
}

// parseSubtitleEntry reads one listing row:
//
//	<div class="pack|destaque|">
//	  <p><a href="/download/<hash>/<title>/<slug>">release</a></p>
//	  <p class="data">N downloads, nota R, enviado por <a>user</a> em dd/mm/yyyy - HH:MM</p>
//	  <img src="/img/idioma/icon_brazil.png">
//	</div>
func parseSubtitleEntry(div *html.Node) (listedSubtitle, bool) {
	link := findFirst(div, func(n *html.Node) bool { return n.DataAtom == atom.A })
	if link == nil {
		return listedSubtitle{}, false
	}
	parts := strings.Split(attr(link, "href"), "/")
	if len(parts) < 4 || parts[1] != "download" || parts[2] == "" {
		return listedSubtitle{}, false
	}

	class := strings.TrimSpace(attr(div, "class"))
	sub := listedSubtitle{}
	sub.ID = parts[2]
	sub.Title = unescapeSegment(parts[3])
	sub.Release = strings.TrimSpace(textContent(link))
	sub.Pack = class == "pack"
	sub.Highlighted = class == "destaque"
	if sub.Pack && strings.HasPrefix(sub.Release, "(p)") {
		sub.Release = strings.TrimSpace(sub.Release[3:])
	}

	if data := findFirst(div, func(n *html.Node) bool { return n.DataAtom == atom.P && hasClass(n, "data") }); data != nil {
		line := strings.Join(strings.Fields(textContent(data)), " ")
		if m := statsPattern.FindStringSubmatch(line); m != nil {
			sub.Downloads, _ = strconv.Atoi(m[1])
			if m[2] != "" {
				if rating, err := strconv.Atoi(m[2]); err == nil {
					sub.Rating = media.Rating(rating)
				}
			}
		}
		if user := findFirst(data, func(n *html.Node) bool { return n.DataAtom == atom.A }); user != nil {
			sub.UserName = strings.TrimSpace(textContent(user))
		}
		if m := datePattern.FindString(line); m != "" {
			if when, err := time.ParseInLocation(dateLayout, strings.Join(strings.Fields(m), " "), siteLocation); err == nil {
				sub.Date = when
			}
		}
	}

	for child := div.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode && child.DataAtom == atom.Img {
			sub.flag = attr(child, "src")
			if m := flagPattern.FindStringSubmatch(sub.flag); m != nil {
				sub.Language = language.FromLegendasTVFlag(m[1])
			}
			break
		}
	}
	return sub, true
}

func unescapeSegment(segment string) string {
	if decoded, err := url.PathUnescape(segment); err == nil {
		segment = decoded
	}
	return strings.TrimSpace(segment)
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode && match(child) {
			return child
		}
		if found := findFirst(child, match); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			collect(child)
		}
	}
	collect(n)
	return b.String()
}
