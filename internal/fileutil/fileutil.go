// Package fileutil locates video files and derives their subtitle paths.
package fileutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// VideoExtensions lists the container extensions treated as videos.
var VideoExtensions = []string{
	"3g2", "3gp", "3gp2", "asf", "avi", "divx", "flv", "m2ts", "m4v", "mk3d",
	"mkv", "mov", "mp4", "mpeg", "mpg", "ogm", "ogv", "rm", "rmvb", "ts",
	"vob", "webm", "wmv",
}

// IsVideo reports whether path has a known video extension.
func IsVideo(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	return ext != "" && slices.Contains(VideoExtensions, ext)
}

// FindVideos returns the videos at root. A file root is returned as is
// when it is a video; directories are walked recursively, skipping hidden
// entries. Results are sorted.
func FindVideos(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		if IsVideo(root) {
			return []string{root}, nil
		}
		return nil, nil
	}

	var videos []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && IsVideo(path) {
			videos = append(videos, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	slices.Sort(videos)
	return videos, nil
}

// SubtitlePath returns the sibling .srt path for videoPath.
func SubtitlePath(videoPath string) string {
	return strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + ".srt"
}

// Exists reports whether path names an existing regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
