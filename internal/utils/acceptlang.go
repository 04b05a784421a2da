package utils

import (
	"sort"
	"strconv"
	"strings"
)

// SupportedLocales are the locales the CLI has messages for.
var SupportedLocales = []string{"en", "zh"}

// normalizeTag turns POSIX and BCP 47 forms ("zh_CN.UTF-8", "en-US") into a lower-case tag.
func normalizeTag(tag string) string {
	t := strings.TrimSpace(tag)
	if i := strings.IndexAny(t, ".@"); i >= 0 {
		t = t[:i]
	}
	return strings.ToLower(strings.ReplaceAll(t, "_", "-"))
}

// DetermineLocale picks a supported locale from an explicit setting, then an
// Accept-Language style list, then def. Region subtags fall back to their base language.
func DetermineLocale(explicit, acceptLang string, supported []string, def string) string {
	sup := map[string]bool{}
	for _, s := range supported {
		sup[strings.ToLower(s)] = true
	}
	pick := func(tag string) (string, bool) {
		l := normalizeTag(tag)
		if l == "" || l == "c" || l == "posix" {
			return "", false
		}
		if sup[l] {
			return l, true
		}
		if i := strings.Index(l, "-"); i > 0 && sup[l[:i]] {
			return l[:i], true
		}
		return "", false
	}

	if v, ok := pick(explicit); ok {
		return v
	}

	type cand struct {
		lang string
		q    float64
	}
	var cands []cand
	for _, part := range strings.Split(acceptLang, ",") {
		lang, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		q := 1.0
		if k, v, ok := strings.Cut(params, "="); ok && strings.TrimSpace(k) == "q" {
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				q = f
			}
		}
		if l, ok := pick(lang); ok && q > 0 {
			cands = append(cands, cand{lang: l, q: q})
		}
	}
	if len(cands) > 0 {
		sort.SliceStable(cands, func(i, j int) bool { return cands[i].q > cands[j].q })
		return cands[0].lang
	}
	if v, ok := pick(def); ok {
		return v
	}
	if len(supported) > 0 {
		return strings.ToLower(supported[0])
	}
	return "en"
}

// SystemLocale resolves the locale from the usual POSIX environment variables.
func SystemLocale() string {
	return DetermineLocale(FirstEnv("LC_ALL", "LC_MESSAGES", "LANG"), "", SupportedLocales, "en")
}
