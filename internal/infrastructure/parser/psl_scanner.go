package parser

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"HeatwaveScanner/internal/domain"
	"HeatwaveScanner/internal/scanner"
)

const (
	// Some NOAA endpoints reject default Go clients, so present a browser agent.
	browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	unknownDate = "unknown_date"
)

var (
	discussionTitleExpr = regexp.MustCompile(`(?i)Global Marine Heatwave Forecast Discussion`)
	forecastDateExpr    = regexp.MustCompile(`[A-Za-z]+ \d{4}`)
)

// PSLScanner extracts the forecast discussion from the NOAA PSL marine
// heatwaves page. The page carries two h5 headings naming the forecast
// initial time and period, followed by the discussion prose under an h3.
type PSLScanner struct {
	client *http.Client
	now    func() time.Time
}

// NewPSLScanner wires an HTTP client; the timeout defaults to 60 seconds.
func NewPSLScanner(client *http.Client) *PSLScanner {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &PSLScanner{client: client, now: time.Now}
}

// Name identifies the strategy inside the registry.
func (s *PSLScanner) Name() string {
	return "noaa-psl"
}

// Scan fetches the configured page and extracts the discussion sections.
func (s *PSLScanner) Scan(ctx context.Context, req scanner.Request) (domain.Discussion, error) {
	if req.URL == "" {
		return domain.Discussion{}, fmt.Errorf("no url provided for source %s", req.SourceName)
	}

	doc, err := s.fetchDocument(ctx, req.URL)
	if err != nil {
		return domain.Discussion{}, fmt.Errorf("source %s: %w", req.SourceName, err)
	}

	discussion, err := extractDiscussion(doc)
	if err != nil {
		return domain.Discussion{}, fmt.Errorf("source %s: %w", req.SourceName, err)
	}

	discussion.Source = req.SourceName
	discussion.SourceURL = req.URL
	discussion.ExtractedAt = s.now().UTC()
	return discussion, nil
}

func (s *PSLScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("noaa psl returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func extractDiscussion(doc *goquery.Document) (domain.Discussion, error) {
	var initialHeading, periodHeading *goquery.Selection

	doc.Find("h5").Each(func(_ int, h5 *goquery.Selection) {
		text := strings.ToLower(h5.Text())
		switch {
		case strings.Contains(text, "forecast initial time"):
			initialHeading = h5
		case strings.Contains(text, "forecast period"):
			periodHeading = h5
		}
	})

	discussionHeading := doc.Find("h3").FilterFunction(func(_ int, h3 *goquery.Selection) bool {
		return discussionTitleExpr.MatchString(h3.Text())
	}).First()

	if initialHeading == nil || periodHeading == nil || discussionHeading.Length() == 0 {
		return domain.Discussion{}, fmt.Errorf("required discussion sections not found")
	}

	var parts []string

	initialText := strings.TrimSpace(initialHeading.Text())
	if initialText != "" {
		parts = append(parts, "##### "+initialText+"\n\n")
	}

	periodText := strings.TrimSpace(periodHeading.Text())
	if periodText != "" {
		parts = append(parts, "##### "+periodText+"\n\n")
	}

	// Walk element siblings from the discussion heading down to the basin
	// panels, converting each block to Markdown along the way.
	for sel := discussionHeading; sel.Length() > 0; sel = sel.Next() {
		if sel.Is("div.basinDiv") {
			break
		}
		if md := renderMarkdown(sel); strings.TrimSpace(md) != "" {
			parts = append(parts, md)
		}
	}

	return domain.Discussion{
		ForecastDate:   forecastDate(initialHeading),
		ForecastPeriod: forecastPeriod(periodHeading),
		Markdown:       strings.TrimSpace(strings.Join(parts, "")),
	}, nil
}

// renderMarkdown converts a single HTML element into a Markdown fragment.
func renderMarkdown(sel *goquery.Selection) string {
	switch goquery.NodeName(sel) {
	case "h3":
		return "### " + strings.TrimSpace(sel.Text()) + "\n\n"
	case "h4":
		return "#### " + strings.TrimSpace(sel.Text()) + "\n\n"
	case "h5":
		return "##### " + strings.TrimSpace(sel.Text()) + "\n\n"
	case "p":
		if text := strings.TrimSpace(sel.Text()); text != "" {
			return text + "\n\n"
		}
		return ""
	case "li":
		if text := strings.TrimSpace(sel.Text()); text != "" {
			return "- " + text + "\n"
		}
		return ""
	case "ul", "ol":
		var items []string
		sel.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
			if text := strings.TrimSpace(li.Text()); text != "" {
				items = append(items, "- "+text)
			}
		})
		if len(items) > 0 {
			return strings.Join(items, "\n") + "\n\n"
		}
		return ""
	default:
		if text := strings.TrimSpace(sel.Text()); text != "" {
			return text + "\n\n"
		}
		return ""
	}
}

func forecastDate(heading *goquery.Selection) string {
	if strong := strings.TrimSpace(heading.Find("strong").First().Text()); strong != "" {
		return underscored(strong)
	}
	if match := forecastDateExpr.FindString(heading.Text()); match != "" {
		return underscored(match)
	}
	return unknownDate
}

func forecastPeriod(heading *goquery.Selection) string {
	if strong := strings.TrimSpace(heading.Find("strong").First().Text()); strong != "" {
		return underscored(strong)
	}
	text := strings.TrimSpace(heading.Text())
	text = strings.TrimSpace(strings.ReplaceAll(text, "Forecast period", ""))
	return underscored(strings.Join(strings.Fields(text), " "))
}

func underscored(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), " ", "_")
}
