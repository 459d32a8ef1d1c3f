package value

import (
	"regexp"
	"strconv"
	"strings"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`) //nolint:gochecknoglobals

const fallbackSlug = "deal"

// BaseSlug приводит название к нижнему регистру, заменяет прочие символы
// одним дефисом и обрезает дефисы по краям.
func BaseSlug(title string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(title), "-")
	slug = strings.Trim(slug, "-")

	if slug == "" {
		return fallbackSlug
	}

	return slug
}

// SlugCandidate возвращает n-й вариант слага: базовый для 0,
// затем base-1, base-2 и далее.
func SlugCandidate(base string, n int) string {
	if n == 0 {
		return base
	}

	return base + "-" + strconv.Itoa(n)
}
