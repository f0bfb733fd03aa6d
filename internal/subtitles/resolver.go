package subtitles

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"legendastv/internal/archive"
	"legendastv/internal/cache"
	"legendastv/internal/catalog"
	"legendastv/internal/config"
	"legendastv/internal/fileutil"
	"legendastv/internal/history"
	"legendastv/internal/identification"
	"legendastv/internal/logging"
	"legendastv/internal/media"
	"legendastv/internal/notifications"
	"legendastv/internal/ranking"
	"legendastv/internal/services"
	"legendastv/internal/textmatch"
)

// HistoryRecorder stores finished resolutions.
type HistoryRecorder interface {
	Add(ctx context.Context, rec history.Record) (int64, error)
}

// Options tune a Resolver. Zero values fall back to the stock defaults.
type Options struct {
	Similarity      float64
	Extensions      []string
	TitleWeights    ranking.TitleWeights
	SubtitleWeights ranking.SubtitleWeights
	CleanSubtitles  bool
	KeepArchives    bool
	Overwrite       bool
	// ScratchDir holds per-request download and extraction directories.
	ScratchDir string
}

// OptionsFromConfig maps the loaded configuration onto resolver options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Similarity:      cfg.Matching.Similarity,
		Extensions:      cfg.Matching.Extensions,
		TitleWeights:    cfg.TitleWeights(),
		SubtitleWeights: cfg.SubtitleWeights(),
		CleanSubtitles:  cfg.Resolver.CleanSubtitles,
		KeepArchives:    cfg.Resolver.KeepArchives,
		Overwrite:       cfg.Resolver.Overwrite,
		ScratchDir:      filepath.Join(cfg.Paths.CacheDir, "scratch"),
	}
}

// Resolver finds and places the best subtitle for video files.
type Resolver struct {
	opts     Options
	logger   *slog.Logger
	notifier notifications.Service
	history  HistoryRecorder
	archives *cache.Archives
	cleaner  *Cleaner
	now      func() time.Time
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithLogger sets the resolver logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithNotifier routes progress narration to svc.
func WithNotifier(svc notifications.Service) Option {
	return func(r *Resolver) {
		if svc != nil {
			r.notifier = svc
		}
	}
}

// WithHistory records every finished resolution in rec.
func WithHistory(rec HistoryRecorder) Option {
	return func(r *Resolver) {
		r.history = rec
	}
}

// WithArchiveCache keeps downloaded archives in archives when
// Options.KeepArchives is set.
func WithArchiveCache(archives *cache.Archives) Option {
	return func(r *Resolver) {
		r.archives = archives
	}
}

// WithCleaner overrides the cleaner used when Options.CleanSubtitles is set.
func WithCleaner(c *Cleaner) Option {
	return func(r *Resolver) {
		if c != nil {
			r.cleaner = c
		}
	}
}

// WithClock injects the time source used for recency ranking and
// timestamps (used in tests).
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// NewResolver builds a resolver.
func NewResolver(opts Options, options ...Option) *Resolver {
	if opts.Similarity <= 0 {
		opts.Similarity = ranking.DefaultAcceptThreshold
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = []string{"srt"}
	}
	if opts.TitleWeights == (ranking.TitleWeights{}) {
		opts.TitleWeights = ranking.DefaultTitleWeights()
	}
	if opts.SubtitleWeights == (ranking.SubtitleWeights{}) {
		opts.SubtitleWeights = ranking.DefaultSubtitleWeights()
	}
	if strings.TrimSpace(opts.ScratchDir) == "" {
		opts.ScratchDir = filepath.Join(os.TempDir(), "legendastv")
	}
	r := &Resolver{
		opts:     opts,
		logger:   logging.NewNop(),
		notifier: noopNotifier{},
		cleaner:  &Cleaner{Renumber: true},
		now:      time.Now,
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Resolve finds the best subtitle for videoPath using the providers of
// session, in order, and places it next to the video. The returned error is
// non-nil only for StatusFailed and equals Result.Err.
func (r *Resolver) Resolve(ctx context.Context, session *catalog.Session, videoPath string) (Result, error) {
	requestID, ok := services.RequestIDFromContext(ctx)
	if !ok {
		requestID = uuid.NewString()
		ctx = services.WithRequestID(ctx, requestID)
	}
	ctx = services.WithVideo(ctx, videoPath)

	result := Result{RequestID: requestID, VideoPath: videoPath, StartedAt: r.now()}
	result = r.resolve(ctx, session, result)
	result.FinishedAt = r.now()

	r.narrateOutcome(ctx, result)
	r.record(ctx, session, result)
	return result, result.Err
}

func (r *Resolver) resolve(ctx context.Context, session *catalog.Session, result Result) Result {
	logger := logging.WithContext(ctx, r.logger)
	if session == nil || len(session.Providers) == 0 {
		result.Status = StatusFailed
		result.Err = services.Wrap(services.ErrConfiguration, "resolve", "open session", "no catalog providers configured", nil)
		return result
	}

	output := fileutil.SubtitlePath(result.VideoPath)
	if !r.opts.Overwrite && fileutil.Exists(output) {
		logger.Info("subtitle already present; skipping",
			logging.Args(append(logging.DecisionAttrs("overwrite", "skip", "overwrite disabled"),
				logging.String("subtitle", output),
			)...)...,
		)
		result.Status = StatusSkipped
		result.SubtitlePath = output
		return result
	}

	q := r.query(ctx, session, result.VideoPath)
	result.Query = q

	scratch := filepath.Join(r.opts.ScratchDir, result.RequestID)
	defer os.RemoveAll(scratch)

	for i, provider := range session.Providers {
		attempt := r.resolveWith(ctx, session.Language, provider, q, result, scratch)
		last := i == len(session.Providers)-1
		if attempt.Status == StatusDone || last || errors.Is(attempt.Err, context.Canceled) {
			return attempt
		}
		if attempt.Status != StatusNotFound && !errors.Is(attempt.Err, catalog.ErrProviderUnavailable) {
			return attempt
		}
		next := session.Providers[i+1].Name()
		logging.WarnWithContext(logger, "provider gave no subtitle; trying next provider", "provider_fallback",
			logging.String(logging.FieldProvider, provider.Name()),
			logging.String("next_provider", next),
			logging.String("status", string(attempt.Status)),
			logging.String(logging.FieldErrorHint, "check provider availability or credentials"),
			logging.String(logging.FieldImpact, "resolution continues with the next catalog"),
		)
		if attempt.Err != nil {
			r.notify(ctx, notifications.EventError, notifications.Payload{
				"context": provider.Name(),
				"error":   attempt.Err,
			})
		}
	}
	return result
}

// Plan runs the search and ranking steps of Resolve for videoPath on p and
// stops before downloading. The query is guessed and enriched exactly as
// Resolve does it.
func (r *Resolver) Plan(ctx context.Context, session *catalog.Session, p catalog.Provider, videoPath string) (Plan, error) {
	if p == nil {
		return Plan{}, services.Wrap(services.ErrConfiguration, "plan", "open session", "no catalog provider given", nil)
	}
	ctx = services.WithVideo(ctx, videoPath)
	lang := ""
	if session != nil {
		lang = session.Language
	}
	return r.plan(ctx, lang, p, r.query(ctx, session, videoPath))
}

// query guesses the query for videoPath and enriches it from the session's
// content hash lookup.
func (r *Resolver) query(ctx context.Context, session *catalog.Session, videoPath string) media.Query {
	q := identification.GuessFromPath(videoPath)
	logging.WithContext(services.WithStage(ctx, StageGuessQuery), r.logger).Debug("query guessed",
		logging.String("title", q.Title),
		logging.String("year", q.Year),
		logging.String("release", q.Release),
		logging.String("type", q.Type.String()),
		logging.Int("season", q.Season),
		logging.Int("episode", q.Episode),
	)
	return r.enrich(ctx, session, q, videoPath)
}

// plan searches titles, picks the subtitle query and ranks the eligible
// subtitles. The returned error wraps a subtitle search failure.
func (r *Resolver) plan(ctx context.Context, lang string, p catalog.Provider, q media.Query) (Plan, error) {
	search, titles, confirmed := r.subtitleQuery(ctx, lang, p, q)
	plan := Plan{Query: q, Titles: titles, Title: confirmed, Search: search}

	subs, err := p.SearchSubtitles(services.WithStage(ctx, StageSearchSubtitles), search)
	if err != nil {
		return plan, services.Wrap(services.ErrTransient, StageSearchSubtitles, p.Name(), "subtitle search failed", err)
	}
	plan.Found = len(subs)

	filtered := ranking.FilterByEpisode(q, subs)
	logging.WithContext(services.WithStage(ctx, StageFilterEpisode), r.logger).Debug("subtitles filtered",
		logging.Int("found", len(subs)),
		logging.Int("eligible", len(filtered)),
	)
	plan.Subtitles = ranking.RankSubtitles(plan.RankQuery(), filtered, r.opts.SubtitleWeights, r.now())
	return plan, nil
}

// enrich consults the session's content hash lookup once. Lookup failures
// are logged and ignored.
func (r *Resolver) enrich(ctx context.Context, session *catalog.Session, q media.Query, videoPath string) media.Query {
	if session == nil || session.Lookup == nil {
		return q
	}
	ctx = services.WithStage(ctx, StageEnrichQuery)
	logger := logging.WithContext(ctx, r.logger)

	candidates, err := session.Lookup.LookupByContentHash(ctx, videoPath)
	if err != nil {
		logger.Debug("content hash lookup failed", logging.Error(err))
		return q
	}
	candidates = slices.DeleteFunc(slices.Clone(candidates), func(c media.TitleCandidate) bool {
		if c.Type == media.Series {
			return true
		}
		return q.Type != media.Unknown && c.Type != media.Unknown && c.Type != q.Type
	})
	if len(candidates) == 0 {
		return q
	}
	reference := strings.TrimSpace(q.Title + " " + q.Year)
	match, err := textmatch.ChooseBestByKey(reference, candidates, func(c media.TitleCandidate) string {
		return strings.TrimSpace(c.Title + " " + c.Year)
	}, true)
	if err != nil {
		return q
	}
	enriched := q.Enrich(match.Best)
	logger.Info("query enriched from content hash",
		logging.String("title", enriched.Title),
		logging.String("year", enriched.Year),
		logging.Float64("similarity", match.Similarity),
	)
	return enriched
}

func (r *Resolver) resolveWith(ctx context.Context, lang string, p catalog.Provider, q media.Query, base Result, scratch string) Result {
	result := base
	result.Provider = p.Name()
	providerScratch := filepath.Join(scratch, p.Name())

	plan, err := r.plan(ctx, lang, p, q)
	result.Title = plan.Title
	if err != nil {
		return failed(result, err)
	}
	result.Candidates = len(plan.Subtitles)
	if len(plan.Subtitles) == 0 {
		result.Status = StatusNotFound
		return result
	}

	ranked := plan.Subtitles
	best := ranked[0]
	result.Subtitle = &best
	logging.WithContext(services.WithStage(ctx, StageRankSubtitles), r.logger).Info("subtitle selected",
		logging.Args(append(logging.DecisionAttrs("subtitle_selection", best.ID, strings.Join(best.Reasons, "; ")),
			logging.String("release", best.Release),
			logging.Float64("score", best.Score),
			logging.Int("candidates", len(ranked)),
		)...)...,
	)

	r.notify(ctx, notifications.EventDownloading, notifications.Payload{"release": firstNonEmpty(best.Release, best.Title)})
	downloadCtx := services.WithStage(ctx, StageDownload)
	archivePath, err := r.fetchArchive(downloadCtx, p, best.ID, providerScratch)
	if err != nil {
		return failed(result, services.Wrap(services.ErrTransient, StageDownload, p.Name(), "download failed", err))
	}
	if r.archives != nil && r.opts.KeepArchives {
		result.ArchivePath = archivePath
	}

	files, err := r.extract(archivePath, filepath.Join(providerScratch, "extracted"))
	if err != nil {
		return failed(result, services.Wrap(services.ErrValidation, StageExtract, filepath.Base(archivePath), "extraction failed", err))
	}

	chosen, err := ranking.ChooseFile(q, result.VideoPath, files)
	if err != nil {
		return failed(result, services.Wrap(services.ErrValidation, StageSelectFile, filepath.Base(archivePath),
			"archive holds no usable subtitle", fmt.Errorf("%w: %w", archive.ErrArchiveCorrupt, err)))
	}
	logging.WithContext(services.WithStage(ctx, StageSelectFile), r.logger).Debug("archive file chosen",
		logging.String("file", filepath.Base(chosen)),
		logging.Int("files", len(files)),
	)

	output := fileutil.SubtitlePath(result.VideoPath)
	stats, err := r.place(chosen, output)
	if err != nil {
		return failed(result, services.Wrap(services.ErrExternalTool, StagePlace, output, "could not write subtitle", err))
	}
	result.Cleaned = stats
	result.SubtitlePath = output
	result.Status = StatusDone
	logging.WithContext(services.WithStage(ctx, StagePlace), r.logger).Info("subtitle placed",
		logging.String("subtitle", output),
		logging.Int("removed_cues", stats.RemovedCues),
	)
	return result
}

// subtitleQuery searches titles and returns the subtitle query to run: by
// confirmed title when one passes the gate, by release name otherwise.
func (r *Resolver) subtitleQuery(ctx context.Context, lang string, p catalog.Provider, q media.Query) (catalog.SubtitleQuery, []media.ScoredTitle, *media.ScoredTitle) {
	ctx = services.WithStage(ctx, StageSearchTitles)
	logger := logging.WithContext(ctx, r.logger).With(logging.String(logging.FieldProvider, p.Name()))
	r.notify(ctx, notifications.EventSearchingTitles, notifications.Payload{"title": q.Title, "season": q.Season})

	reason := ""
	var scored []media.ScoredTitle
	titles, err := p.SearchTitles(ctx, q.Title)
	switch {
	case err != nil:
		logging.WarnWithContext(logger, "title search failed; falling back to release search", "title_search_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check network connectivity and provider status"),
			logging.String(logging.FieldImpact, "subtitles are searched by release name"),
		)
		reason = "title search failed"
	case len(titles) == 0:
		reason = "no titles found"
	default:
		scored = ranking.RankTitles(q, titles, r.opts.TitleWeights)
		confirmLogger := logging.WithContext(services.WithStage(ctx, StageConfirmTitle), r.logger)
		if ranking.Accept(scored, r.opts.Similarity) {
			best := scored[0]
			confirmLogger.Info("title confirmed",
				logging.Args(append(logging.DecisionAttrs("title_gate", "accepted", strings.Join(best.Reasons, "; ")),
					logging.String("title_id", best.ID),
					logging.String("title", best.Title),
					logging.Float64("similarity", best.Similarity),
					logging.Float64("score", best.Score),
				)...)...,
			)
			r.notify(ctx, notifications.EventTitleConfirmed, notifications.Payload{"title": best.Title, "year": best.Year})
			return catalog.SubtitleQuery{TitleID: best.ID, Language: lang, Type: best.Type}, scored, &best
		}
		confirmLogger.Info("title gate rejected candidates",
			logging.Args(append(logging.DecisionAttrs("title_gate", "rejected", ErrNoMatchConfident.Error()),
				logging.Float64("top_similarity", scored[0].Similarity),
				logging.Float64("threshold", r.opts.Similarity),
			)...)...,
		)
		reason = ErrNoMatchConfident.Error()
	}

	release := firstNonEmpty(q.Release, q.Title)
	r.notify(ctx, notifications.EventReleaseFallback, notifications.Payload{"release": release, "reason": reason})
	return catalog.SubtitleQuery{Text: release, Language: lang, Type: q.Type}, scored, nil
}

// fetchArchive downloads the archive for id, going through the archive
// cache when archives are kept.
func (r *Resolver) fetchArchive(ctx context.Context, p catalog.Provider, id, scratch string) (string, error) {
	keep := r.archives != nil && r.opts.KeepArchives
	if keep && r.archives.Has(p.Name(), id) {
		logging.WithContext(ctx, r.logger).Debug("archive cache hit", logging.String("subtitle_id", id))
		return r.archives.Path(p.Name(), id), nil
	}
	path, err := p.Download(ctx, id, filepath.Join(scratch, "download"))
	if err != nil {
		return "", err
	}
	if keep {
		return r.archives.Store(p.Name(), id, path)
	}
	return path, nil
}

// extract unpacks the archive into dest. Downloads that are not archives
// are accepted as a single subtitle file when they carry a wanted
// extension or look like SRT text.
func (r *Resolver) extract(archivePath, dest string) ([]string, error) {
	kind, err := archive.Sniff(archivePath)
	if err != nil {
		return nil, err
	}
	if kind != archive.Unsupported {
		return archive.Extract(archivePath, archive.Options{Dest: dest, Extensions: r.opts.Extensions, Keep: true})
	}
	if r.wantedExtension(archivePath) || looksLikeSRT(archivePath) {
		return []string{archivePath}, nil
	}
	return nil, fmt.Errorf("%s: %w", filepath.Base(archivePath), archive.ErrUnsupported)
}

func (r *Resolver) wantedExtension(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return false
	}
	for _, want := range r.opts.Extensions {
		if strings.EqualFold(strings.TrimPrefix(want, "."), ext) {
			return true
		}
	}
	return false
}

func looksLikeSRT(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	head := make([]byte, 4096)
	n, _ := io.ReadFull(f, head)
	return bytes.Contains(head[:n], []byte("-->"))
}

// place writes the chosen subtitle to output through a temporary file in
// the video directory.
func (r *Resolver) place(chosen, output string) (CleanStats, error) {
	data, err := os.ReadFile(chosen)
	if err != nil {
		return CleanStats{}, fmt.Errorf("read subtitle: %w", err)
	}
	var stats CleanStats
	if r.opts.CleanSubtitles {
		data, stats = r.cleaner.Clean(data)
	}
	if err := cache.WriteFileAtomic(output, bytes.NewReader(data), 0o644); err != nil {
		return CleanStats{}, err
	}
	return stats, nil
}

func (r *Resolver) narrateOutcome(ctx context.Context, result Result) {
	logger := logging.WithContext(ctx, r.logger)
	switch result.Status {
	case StatusDone:
		r.notify(ctx, notifications.EventSubtitleSaved, notifications.Payload{"path": result.SubtitlePath})
	case StatusNotFound:
		logger.Info("no subtitle found",
			logging.String(logging.FieldProvider, result.Provider),
			logging.String("release", result.Query.Release),
		)
		r.notify(ctx, notifications.EventSubtitleNotFound, notifications.Payload{"video": filepath.Base(result.VideoPath)})
	case StatusFailed:
		if errors.Is(result.Err, context.Canceled) {
			return
		}
		logging.ErrorWithContext(logger, "subtitle resolution failed", "resolution_failed",
			logging.Error(result.Err),
			logging.String(logging.FieldProvider, result.Provider),
			logging.String(logging.FieldErrorHint, failureHint(result.Err)),
		)
		r.notify(ctx, notifications.EventError, notifications.Payload{
			"context": filepath.Base(result.VideoPath),
			"error":   result.Err,
		})
	}
}

func failureHint(err error) string {
	switch {
	case errors.Is(err, catalog.ErrProviderUnavailable):
		return "check network connectivity, provider status and credentials"
	case errors.Is(err, archive.ErrArchiveCorrupt):
		return "the downloaded archive is unusable; try again later or pick another subtitle"
	case errors.Is(err, services.ErrConfiguration):
		return "review resolver.providers in config.toml"
	default:
		return "check logs for details"
	}
}

func (r *Resolver) record(ctx context.Context, session *catalog.Session, result Result) {
	if r.history == nil {
		return
	}
	rec := history.Record{
		RequestID:  result.RequestID,
		VideoPath:  result.VideoPath,
		Status:     string(result.Status),
		Title:      result.Query.Title,
		Year:       result.Query.Year,
		Season:     result.Query.Season,
		Episode:    result.Query.Episode,
		Provider:   result.Provider,
		OutputPath: result.SubtitlePath,
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
	}
	if session != nil {
		rec.SessionID = session.ID
	}
	if result.Subtitle != nil {
		rec.SubtitleID = result.Subtitle.ID
		rec.SubtitleRelease = result.Subtitle.Release
		rec.Score = result.Subtitle.Score
	}
	if result.Err != nil {
		rec.Error = result.Err.Error()
	}
	if _, err := r.history.Add(context.WithoutCancel(ctx), rec); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, r.logger), "history record failed", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.history_db permissions"),
			logging.String(logging.FieldImpact, "resolution is missing from legendastv history"),
		)
	}
}

func (r *Resolver) notify(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if err := r.notifier.Publish(ctx, event, payload); err != nil {
		logging.WithContext(ctx, r.logger).Debug("notification failed",
			logging.String("event", string(event)),
			logging.Error(err),
		)
	}
}

func failed(result Result, err error) Result {
	result.Status = StatusFailed
	result.Err = err
	return result
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

type noopNotifier struct{}

func (noopNotifier) Publish(context.Context, notifications.Event, notifications.Payload) error {
	return nil
}
