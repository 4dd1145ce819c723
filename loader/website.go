package loader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/krira-ai/ragcore"
	"github.com/krira-ai/ragcore/sanitize"
)

const websiteFetchTimeout = 15 * time.Second

var websiteUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0 Safari/537.36"

// loadFromURLs fetches each URL (trying the supplied scheme first,
// then the opposite, then both if none was supplied), strips HTML to
// visible text, and concatenates successful fetches. Per-URL failures
// are tolerated as long as at least one URL yields text; if all fail
// the aggregated errors are returned.
func loadFromURLs(ctx context.Context, urls []string) (string, error) {
	client := &http.Client{Timeout: websiteFetchTimeout}

	var contents []string
	var failures []string

	for _, raw := range urls {
		candidates := schemeCandidates(raw)

		var text string
		var lastErr error
		for _, candidate := range candidates {
			t, err := fetchVisibleText(ctx, client, candidate)
			if err != nil {
				lastErr = err
				slog.Warn("loader: failed to fetch URL", "url", candidate, "error", err)
				continue
			}
			if t != "" {
				text = t
				slog.Info("loader: fetched URL content", "url", candidate, "chars", len(t))
				break
			}
		}

		if text != "" {
			contents = append(contents, text)
		} else {
			reason := "no textual content"
			if lastErr != nil {
				reason = lastErr.Error()
			}
			failures = append(failures, fmt.Sprintf("%s: %s", raw, reason))
		}
	}

	if len(contents) == 0 {
		if len(failures) > 0 {
			summary := strings.Join(failures[:min(3, len(failures))], "; ")
			if len(failures) > 3 {
				summary += fmt.Sprintf(" (and %d more errors)", len(failures)-3)
			}
			return "", ragcore.NewError(ragcore.KindUpstream, "unable to retrieve content from provided URLs: "+summary)
		}
		return "", ragcore.NewError(ragcore.KindUpstream, "no content retrieved from provided URLs")
	}

	if len(failures) > 0 {
		summary := strings.Join(failures[:min(2, len(failures))], "; ")
		if len(failures) > 2 {
			summary += fmt.Sprintf(" (and %d more failed)", len(failures)-2)
		}
		slog.Warn("loader: some URLs failed to load", "failures", summary)
	}

	return strings.Join(contents, "\n\n"), nil
}

// schemeCandidates builds the scheme-fallback list spec.md §4.2
// requires: the supplied scheme first, then the opposite; both
// prepended when no scheme is present.
func schemeCandidates(raw string) []string {
	switch {
	case strings.HasPrefix(raw, "https://"):
		return []string{raw, "http://" + strings.TrimPrefix(raw, "https://")}
	case strings.HasPrefix(raw, "http://"):
		return []string{raw, "https://" + strings.TrimPrefix(raw, "http://")}
	default:
		return []string{"https://" + raw, "http://" + raw}
	}
}

func fetchVisibleText(ctx context.Context, client *http.Client, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", websiteUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	text, err := visibleText(strings.NewReader(string(body)))
	if err != nil {
		return "", err
	}
	return sanitize.Text(text), nil
}

// visibleText strips HTML markup and returns the concatenation of
// visible text nodes, skipping <script> and <style> content.
func visibleText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style) {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return b.String(), nil
}
