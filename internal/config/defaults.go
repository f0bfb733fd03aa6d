package config

const (
	defaultLogRetentionDays        = 30
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
	defaultLegendasTVBaseURL       = "http://legendas.tv"
	defaultLegendasTVLanguage      = "pb"
	defaultRequestTimeout          = 30
	defaultMaxPages                = 10
	defaultOpenSubtitlesBaseURL    = "https://api.opensubtitles.com/api/v1"
	defaultOpenSubtitlesUserAgent  = "legendastv/dev"
	defaultSimilarity              = 0.7
	defaultResponseTTLHours        = 24
	defaultJobs                    = 1
	defaultNotifyRequestTimeout    = 10
	defaultNtfyServer              = "https://ntfy.sh"
	defaultRatingNeutral           = 0.8
	defaultRecencyWindowDays       = 90
	defaultTitleYearWeight         = 3
	defaultTitleTypeWeight         = 2
	defaultTitleSimilarityWeight   = 10
	defaultSubtitleTitleWeight     = 10
	defaultSubtitleReleaseWeight   = 5
	defaultSubtitleHighlightWeight = 3
	defaultSubtitlePackWeight      = 1
	defaultSubtitleRatingWeight    = 1
	defaultSubtitleRecencyWeight   = 1
	providerLegendasTV             = "legendastv"
	providerOpenSubtitles          = "opensubtitles"
)

// Default returns a Config populated with repository defaults. Directory
// defaults are resolved against the XDG base directories during Load.
func Default() Config {
	return Config{
		LegendasTV: LegendasTV{
			Enabled:        true,
			BaseURL:        defaultLegendasTVBaseURL,
			Language:       defaultLegendasTVLanguage,
			RequestTimeout: defaultRequestTimeout,
			MaxPages:       defaultMaxPages,
		},
		OpenSubtitles: OpenSubtitles{
			BaseURL:        defaultOpenSubtitlesBaseURL,
			UserAgent:      defaultOpenSubtitlesUserAgent,
			Languages:      []string{"pb"},
			HashLookup:     true,
			RequestTimeout: defaultRequestTimeout,
		},
		Matching: Matching{
			Similarity: defaultSimilarity,
			Extensions: []string{"srt"},
		},
		Ranking: Ranking{
			TitleYear:         defaultTitleYearWeight,
			TitleType:         defaultTitleTypeWeight,
			TitleSimilarity:   defaultTitleSimilarityWeight,
			SubtitleTitle:     defaultSubtitleTitleWeight,
			SubtitleRelease:   defaultSubtitleReleaseWeight,
			SubtitleHighlight: defaultSubtitleHighlightWeight,
			SubtitlePack:      defaultSubtitlePackWeight,
			SubtitleRating:    defaultSubtitleRatingWeight,
			SubtitleRecency:   defaultSubtitleRecencyWeight,
			RatingNeutral:     defaultRatingNeutral,
			RecencyWindowDays: defaultRecencyWindowDays,
		},
		Resolver: Resolver{
			Providers: []string{providerLegendasTV},
			Jobs:      defaultJobs,
		},
		Cache: Cache{
			Enabled:          true,
			ResponseTTLHours: defaultResponseTTLHours,
		},
		Notifications: Notifications{
			NtfyServer:     defaultNtfyServer,
			RequestTimeout: defaultNotifyRequestTimeout,
			Progress:       true,
			Errors:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
