package legendastv

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"legendastv/internal/cache"
	"legendastv/internal/logging"
)

// Download saves the archive for subtitle hash id into destDir. The file
// name comes from the response (Content-Disposition, then the final URL)
// and falls back to the hash.
func (c *Client) Download(ctx context.Context, id, destDir string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.New("legendastv: empty subtitle id")
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}

	var target string
	err := c.limiter.Do(ctx, func() error {
		resp, err := c.do(ctx, http.MethodGet, "/downloadarquivo/"+id, nil)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		target = filepath.Join(destDir, downloadName(resp, id))
		return cache.WriteFileAtomic(target, resp.Body, 0o644)
	})
	if err != nil {
		return "", err
	}
	c.logger.Debug("archive downloaded",
		logging.String("subtitle_id", id),
		logging.String("path", target),
	)
	return target, nil
}

func downloadName(resp *http.Response, fallback string) string {
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		if name := safeName(params["filename"]); name != "" {
			return name
		}
	}
	if resp.Request != nil && resp.Request.URL != nil {
		if name := safeName(path.Base(resp.Request.URL.Path)); name != "" && strings.Contains(name, ".") {
			return name
		}
	}
	return safeName(fallback)
}

func safeName(name string) string {
	name = filepath.Base(strings.TrimSpace(strings.ReplaceAll(name, "\\", "/")))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}

// cachePoster stores a site image (poster or flag) under the poster
// directory. Failures only cost the image.
func (c *Client) cachePoster(ctx context.Context, ref string) {
	if c.posterDir == "" || strings.TrimSpace(ref) == "" {
		return
	}
	name := safeName(path.Base(ref))
	if name == "" {
		return
	}
	target := filepath.Join(c.posterDir, name)
	if _, err := os.Stat(target); err == nil {
		return
	}
	if err := os.MkdirAll(c.posterDir, 0o755); err != nil {
		return
	}
	resp, err := c.do(ctx, http.MethodGet, ref, nil)
	if err != nil {
		c.logger.Debug("poster download failed", logging.String("ref", ref), logging.Error(err))
		return
	}
	defer resp.Body.Close()
	if err := cache.WriteFileAtomic(target, resp.Body, 0o644); err != nil {
		c.logger.Debug("poster store failed", logging.String("ref", ref), logging.Error(err))
	}
}

// PosterPath returns the cached location of ref, or "" when it is not
// cached.
func (c *Client) PosterPath(ref string) string {
	if c.posterDir == "" || ref == "" {
		return ""
	}
	target := filepath.Join(c.posterDir, safeName(path.Base(ref)))
	if _, err := os.Stat(target); err != nil {
		return ""
	}
	return target
}
