package trends

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"SocialFactory/internal/ports"
)

// Scanner implements TrendAnalyzer by scraping a trends page instead of
// calling an LLM. Installs without a generation API key fall back to it.
type Scanner struct {
	url    string
	client *http.Client
}

var _ ports.TrendAnalyzer = (*Scanner)(nil)

// NewScanner wires an HTTP client; a nil client gets a sane default.
func NewScanner(url string, client *http.Client) *Scanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Scanner{url: url, client: client}
}

// AnalyzeTrend fetches the trends page and extracts headlines related to the
// topic, plus hashtag candidates from the page's tag elements.
func (s *Scanner) AnalyzeTrend(ctx context.Context, topic string) (ports.TrendInsight, error) {
	if s.url == "" {
		return ports.TrendInsight{}, fmt.Errorf("trends url not configured")
	}

	doc, err := s.fetchDocument(ctx, s.url)
	if err != nil {
		return ports.TrendInsight{}, err
	}

	insight := extractInsight(doc, topic)
	if insight.Summary == "" {
		insight.Summary = fmt.Sprintf("No current trend entries matched %q", topic)
	}
	return insight, nil
}

func (s *Scanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "SocialFactory/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("trends page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func extractInsight(doc *goquery.Document, topic string) ports.TrendInsight {
	var insight ports.TrendInsight
	needle := strings.ToLower(topic)

	doc.Find(".trend-item, article, li.trend").Each(func(i int, sel *goquery.Selection) {
		title := strings.TrimSpace(sel.Find(".trend-title, h2, h3").First().Text())
		if title == "" {
			title = strings.TrimSpace(sel.Text())
		}
		if title == "" {
			return
		}
		if strings.Contains(strings.ToLower(title), needle) {
			insight.Angles = append(insight.Angles, title)
		}
	})

	doc.Find(".hashtag, .tag").Each(func(i int, sel *goquery.Selection) {
		tag := strings.TrimSpace(strings.TrimPrefix(sel.Text(), "#"))
		if tag != "" {
			insight.Hashtags = append(insight.Hashtags, tag)
		}
	})

	if len(insight.Angles) > 0 {
		insight.Summary = fmt.Sprintf("Trending angles for %q: %s", topic, strings.Join(insight.Angles, "; "))
	}
	return insight
}
