package ranking

import (
	"errors"
	"path/filepath"
	"strings"

	"legendastv/internal/media"
	"legendastv/internal/textmatch"
)

// ErrNoSubtitleFound is returned by ChooseFile when an archive produced no
// subtitle files.
var ErrNoSubtitleFound = errors.New("no subtitle file found")

// ChooseFile picks the subtitle file from an extracted archive that best fits
// the video at videoPath. For episodes a file carrying the queried episode
// number wins outright; otherwise names are compared against either the
// video's directory or file name, whichever resembles the archive contents
// more.
func ChooseFile(q media.Query, videoPath string, files []string) (string, error) {
	switch len(files) {
	case 0:
		return "", ErrNoSubtitleFound
	case 1:
		return files[0], nil
	}

	entries := ArchiveEntries(files)
	reference := chooseReference(videoPath, entries[0].NormalizedBase)

	if q.IsEpisode() {
		var matching []media.ArchiveEntry
		for _, entry := range entries {
			marker, ok := media.FindEpisodeMarker(entry.NormalizedBase)
			if ok && marker.Episode == q.Episode {
				matching = append(matching, entry)
			}
		}
		if len(matching) > 0 {
			return bestEntry(reference, matching)
		}
	}
	return bestEntry(reference, entries)
}

// ArchiveEntries pairs each path with its normalized base name.
func ArchiveEntries(files []string) []media.ArchiveEntry {
	entries := make([]media.ArchiveEntry, 0, len(files))
	for _, path := range files {
		base := filepath.Base(path)
		base = strings.TrimSuffix(base, filepath.Ext(base))
		entries = append(entries, media.ArchiveEntry{Path: path, NormalizedBase: textmatch.Normalize(base)})
	}
	return entries
}

// chooseReference decides once whether the video's directory name or file
// name is compared against archive entries. The file name wins ties.
func chooseReference(videoPath, sample string) string {
	dirRef := textmatch.Normalize(filepath.Base(filepath.Dir(videoPath)))
	base := filepath.Base(videoPath)
	fileRef := textmatch.Normalize(strings.TrimSuffix(base, filepath.Ext(base)))
	if textmatch.Similarity(dirRef, sample, true) > textmatch.Similarity(fileRef, sample, true) {
		return dirRef
	}
	return fileRef
}

func bestEntry(reference string, entries []media.ArchiveEntry) (string, error) {
	match, err := textmatch.ChooseBestByKey(reference, entries, func(e media.ArchiveEntry) string {
		return e.NormalizedBase
	}, true)
	if err != nil {
		return "", ErrNoSubtitleFound
	}
	return match.Best.Path, nil
}
