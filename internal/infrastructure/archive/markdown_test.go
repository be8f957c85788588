package archive

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"HeatwaveScanner/internal/domain"
)

func sampleDiscussion() domain.Discussion {
	return domain.Discussion{
		Source:         "noaa-psl",
		SourceURL:      "https://psl.noaa.gov/marine-heatwaves/#report",
		ForecastDate:   "August_2026",
		ForecastPeriod: "September_2026_-_April_2027",
		Markdown:       "##### Forecast Initial time: August 2026\n\nWarm anomalies persist in the northeast Pacific.",
		ExtractedAt:    time.Date(2026, time.August, 30, 12, 30, 0, 0, time.UTC),
	}
}

func TestRenderDocument(t *testing.T) {
	t.Parallel()

	rendered, err := RenderDocument(sampleDiscussion())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(rendered, "---\n"), "must start with front matter")
	assert.Contains(t, rendered, "title: Marine Heatwave Forecast Discussion")
	assert.Contains(t, rendered, "source: https://psl.noaa.gov/marine-heatwaves/#report")
	assert.Contains(t, rendered, "2026-08-30T12:30:00Z")
	assert.Contains(t, rendered, "# Marine Heatwave Forecast Discussion")
	assert.Contains(t, rendered, "**Source:** [https://psl.noaa.gov/marine-heatwaves/#report](https://psl.noaa.gov/marine-heatwaves/#report)")
	assert.Contains(t, rendered, "Warm anomalies persist")
}

func TestRenderParseRoundTrip(t *testing.T) {
	t.Parallel()

	discussion := sampleDiscussion()
	rendered, err := RenderDocument(discussion)
	require.NoError(t, err)

	doc, err := ParseDocument([]byte(rendered), "data/"+FileName(discussion.ForecastDate))
	require.NoError(t, err)

	assert.Equal(t, domain.DocumentTitle, doc.Title)
	assert.Equal(t, discussion.SourceURL, doc.SourceURL)
	assert.Equal(t, "August_2026", doc.ForecastDate)
	assert.True(t, discussion.ExtractedAt.Equal(doc.ExtractedAt))
	assert.Contains(t, doc.Body, "Warm anomalies persist")
}

func TestParseDocumentRejectsBadInput(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"no front matter":     "# Heading\n\nbody\n",
		"unterminated header": "---\ntitle: x\n",
		"bad timestamp":       "---\ntitle: x\nsource: y\nextracted: yesterday\n---\n\nbody\n",
	}

	for name, raw := range cases {
		raw := raw
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseDocument([]byte(raw), "bad.md")
			assert.Error(t, err)
		})
	}
}
