package compose

import (
	"fmt"
	"strconv"
	"strings"
)

// PageRange selects output pages by 1-based number. The textual form is a
// comma list of numbers and spans: "1,3-5,8-" keeps pages 1, 3 through 5,
// and everything from 8 on.
type PageRange struct {
	spans []span
}

type span struct {
	lo, hi int // hi 0 means open-ended
}

// ParsePageRange parses the textual form. An empty string selects all
// pages.
func ParsePageRange(s string) (*PageRange, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	pr := &PageRange{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		lo, hi, err := parseSpan(part)
		if err != nil {
			return nil, err
		}
		pr.spans = append(pr.spans, span{lo, hi})
	}
	return pr, nil
}

func parseSpan(part string) (int, int, error) {
	if part == "" {
		return 0, 0, fmt.Errorf("page range: empty element")
	}
	dash := strings.IndexByte(part, '-')
	if dash < 0 {
		n, err := parsePage(part)
		return n, n, err
	}
	lo, err := parsePage(part[:dash])
	if err != nil {
		return 0, 0, err
	}
	rest := part[dash+1:]
	if rest == "" {
		return lo, 0, nil
	}
	hi, err := parsePage(rest)
	if err != nil {
		return 0, 0, err
	}
	if hi < lo {
		return 0, 0, fmt.Errorf("page range: %q is inverted", part)
	}
	return lo, hi, nil
}

func parsePage(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("page range: bad page number %q", s)
	}
	return n, nil
}

// Contains reports whether page n is selected. A nil range selects every
// page.
func (pr *PageRange) Contains(n int) bool {
	if pr == nil {
		return true
	}
	for _, sp := range pr.spans {
		if n >= sp.lo && (sp.hi == 0 || n <= sp.hi) {
			return true
		}
	}
	return false
}
