// Package sanitize implements the text sanitizer: compatibility-form
// Unicode normalization, removal of zero-width/BOM/NUL code points,
// and whitespace collapse. It is pure, total, and idempotent.
package sanitize

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

const (
	nul  = "\x00"
	bom  = "﻿"
	zwsp = "​"
	zwnj = "‌"
	zwj  = "‍"
)

// Text normalizes raw input to NFKC, strips NUL/BOM/zero-width code
// points, collapses every run of whitespace (including newlines) to a
// single space, and trims the result. Text(Text(x)) == Text(x) for
// all x.
func Text(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFKC.String(s)
	s = strings.ReplaceAll(s, nul, "")
	s = strings.ReplaceAll(s, bom, "")
	s = strings.ReplaceAll(s, zwsp, "")
	s = strings.ReplaceAll(s, zwnj, "")
	s = strings.ReplaceAll(s, zwj, "")
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
