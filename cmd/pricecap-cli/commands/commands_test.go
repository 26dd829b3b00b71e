package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raul-padua/agentic-product-price-scrapping/models"
)

func TestWriteOutput(t *testing.T) {
	title := "Phone"
	res := models.RunResult{URL: "https://a.com/p", OK: true, Data: &models.CaptureData{
		ProductRecord: models.ProductRecord{Title: &title, Promotions: []string{"10% off"}},
	}}

	var buf bytes.Buffer
	require.NoError(t, writeOutput(&buf, "json", res))
	assert.Contains(t, buf.String(), `"title": "Phone"`)

	buf.Reset()
	require.NoError(t, writeOutput(&buf, "yaml", res))
	assert.Contains(t, buf.String(), "url: https://a.com/p")
	assert.Contains(t, buf.String(), "title: Phone")
	assert.Contains(t, buf.String(), "- 10% off")

	assert.Error(t, writeOutput(&buf, "xml", res))
}

func TestStripScreenshots(t *testing.T) {
	results := []models.RunResult{
		{OK: true, Data: &models.CaptureData{ScreenshotBase64: "abc"}},
		{OK: false},
	}
	stripScreenshots(results)
	assert.Empty(t, results[0].Data.ScreenshotBase64)
}

func TestCaptureRejectsBadURL(t *testing.T) {
	rootCmd.SetArgs([]string{"capture", "not a url"})
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid URL")
}
