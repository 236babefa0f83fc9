package pipeline

import (
	"regexp"
	"strconv"
	"strings"

	"moviebase/internal"
)

var (
	reParenGroup = regexp.MustCompile(`\s*\(([^)]*)\)`)
	reYearGroup  = regexp.MustCompile(`^\d{4}$`)
	reSpaces     = regexp.MustCompile(`\s+`)
)

// Normalizer rewrites raw dataset titles into the search form the lookup
// service expects: parenthetical alternate titles removed, an embedded
// four-digit year extracted, and a trailing ", The"-style article moved
// to the front. The recognized article set comes from configuration.
type Normalizer struct {
	articles []string
}

func NewNormalizer(articles []string) *Normalizer {
	out := make([]string, 0, len(articles))
	for _, a := range articles {
		a = strings.TrimSpace(a)
		if a != "" {
			out = append(out, a)
		}
	}
	return &Normalizer{articles: out}
}

func (n *Normalizer) Normalize(rawTitle string) internal.TitleQuery {
	title := strings.TrimSpace(rawTitle)

	var year *int
	for _, m := range reParenGroup.FindAllStringSubmatch(title, -1) {
		inner := strings.TrimSpace(m[1])
		if reYearGroup.MatchString(inner) {
			if parsed, err := strconv.Atoi(inner); err == nil {
				y := parsed
				year = &y
			}
		}
	}
	title = reParenGroup.ReplaceAllString(title, " ")
	title = collapse(title)

	for _, article := range n.articles {
		suffix := ", " + article
		if len(title) <= len(suffix) {
			continue
		}
		if strings.EqualFold(title[len(title)-len(suffix):], suffix) {
			title = article + " " + strings.TrimSpace(title[:len(title)-len(suffix)])
			break
		}
	}

	return internal.TitleQuery{Title: collapse(title), Year: year}
}

func collapse(s string) string {
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.Trim(s, ", ")
}
