package language

import "strings"

type entry struct {
	code2   string   // short code (ISO 639-1, plus "pb")
	code3   string   // ISO 639-2 primary (3-letter)
	alt3    string   // ISO 639-2 alternate (e.g. "fre" vs "fra")
	display string   // Human-readable name
	words   []string // Full word forms (e.g. "english")
	ltvID   int      // Legendas.TV id_idioma, 0 when unsupported
	ltvFlag string   // Legendas.TV flag icon name
	osCode  string   // OpenSubtitles REST language tag
}

var languages = []entry{
	{"pb", "pob", "", "Brazilian Portuguese", []string{"brazilian"}, 1, "brazil", "pt-BR"},
	{"en", "eng", "", "English", []string{"english"}, 2, "usa", "en"},
	{"es", "spa", "", "Spanish", []string{"spanish"}, 3, "es", "es"},
	{"fr", "fra", "fre", "French", []string{"french"}, 4, "fr", "fr"},
	{"de", "deu", "ger", "German", []string{"german"}, 5, "de", "de"},
	{"ja", "jpn", "", "Japanese", []string{"japanese"}, 6, "japao", "ja"},
	{"da", "dan", "", "Danish", []string{"danish"}, 7, "denmark", "da"},
	{"no", "nor", "", "Norwegian", []string{"norwegian"}, 8, "norway", "no"},
	{"sv", "swe", "", "Swedish", []string{"swedish"}, 9, "sweden", "sv"},
	{"pt", "por", "", "Portuguese", []string{"portuguese"}, 10, "pt", "pt-PT"},
	{"ar", "ara", "", "Arabic", []string{"arabic"}, 11, "arabian", "ar"},
	{"cs", "ces", "cze", "Czech", []string{"czech"}, 12, "czech", "cs"},
	{"zh", "zho", "chi", "Chinese", []string{"chinese"}, 13, "china", "zh-CN"},
	{"ko", "kor", "", "Korean", []string{"korean"}, 14, "korean", "ko"},
	{"bg", "bul", "", "Bulgarian", []string{"bulgarian"}, 15, "be", "bg"},
	{"it", "ita", "", "Italian", []string{"italian"}, 16, "it", "it"},
	{"pl", "pol", "", "Polish", []string{"polish"}, 17, "poland", "pl"},
	{"ru", "rus", "", "Russian", []string{"russian"}, 0, "", "ru"},
	{"nl", "nld", "dut", "Dutch", []string{"dutch"}, 0, "", "nl"},
	{"fi", "fin", "", "Finnish", []string{"finnish"}, 0, "", "fi"},
}

var (
	byCode2  map[string]*entry
	byCode3  map[string]*entry
	byWord   map[string]*entry
	byFlag   map[string]*entry
	byOSCode map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages))
	byFlag = make(map[string]*entry, len(languages))
	byOSCode = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		for _, w := range e.words {
			byWord[w] = e
		}
		if e.ltvFlag != "" {
			byFlag[e.ltvFlag] = e
		}
		byOSCode[strings.ToLower(e.osCode)] = e
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	if e, ok := byOSCode[code]; ok {
		return e
	}
	return nil
}

// ToISO2 converts any recognized language code or word to its short code.
// Returns empty string for unrecognized input.
// If the input is already a 2-letter code (even if unknown), it passes through.
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if e := lookup(code); e != nil {
		return e.code2
	}
	if len(code) == 2 {
		return code
	}
	return ""
}

// DisplayName returns a human-readable language name for any recognized code.
// Returns "Unknown" for empty input, or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	if e := lookup(code); e != nil {
		return e.display
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

// LegendasTVID returns the numeric Legendas.TV language id for code. The
// special value "all" maps to 0 with ok=true, meaning no language filter.
func LegendasTVID(code string) (int, bool) {
	if strings.EqualFold(strings.TrimSpace(code), "all") {
		return 0, true
	}
	e := lookup(code)
	if e == nil || e.ltvID == 0 {
		return 0, false
	}
	return e.ltvID, true
}

// FromLegendasTVFlag maps a Legendas.TV flag icon name ("brazil", "usa")
// to a short code. Unknown flags are returned unchanged.
func FromLegendasTVFlag(flag string) string {
	flag = strings.ToLower(strings.TrimSpace(flag))
	if e, ok := byFlag[flag]; ok {
		return e.code2
	}
	return flag
}

// OpenSubtitlesCode returns the OpenSubtitles REST language tag for code.
func OpenSubtitlesCode(code string) string {
	if e := lookup(code); e != nil {
		return e.osCode
	}
	return strings.ToLower(strings.TrimSpace(code))
}

// NormalizeList deduplicates and normalizes a list of language codes to
// short codes.
func NormalizeList(languages []string) []string {
	if len(languages) == 0 {
		return nil
	}
	normalized := make([]string, 0, len(languages))
	seen := make(map[string]struct{}, len(languages))
	for _, lang := range languages {
		trimmed := strings.ToLower(strings.TrimSpace(lang))
		if trimmed == "" {
			continue
		}
		if len(trimmed) > 2 {
			if mapped := ToISO2(trimmed); mapped != "" {
				trimmed = mapped
			}
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		normalized = append(normalized, trimmed)
	}
	return normalized
}
