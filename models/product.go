package models

// Price is the raw and normalized price of a product page.
// Value is set only when Raw parsed; Currency only from an explicit
// signal or a conservative inference.
type Price struct {
	Raw      *string  `json:"raw"`
	Value    *float64 `json:"value"`
	Currency *string  `json:"currency"`
}

// ProductRecord is the structured output of field extraction.
type ProductRecord struct {
	Title      *string  `json:"title"`
	Price      Price    `json:"price"`
	Promotions []string `json:"promotions"`
}

// EmptyRecord returns a record with every field nulled.
func EmptyRecord() ProductRecord {
	return ProductRecord{Promotions: []string{}}
}

// Capture methods reported in CaptureData.
const (
	CaptureMethodBrowser = "browser"
	CaptureMethodStatic  = "static"
	CaptureMethodUpload  = "upload"
)

// CaptureData is a product record plus the screenshot it was captured with.
type CaptureData struct {
	ProductRecord

	// ScreenshotBase64 is the full-page screenshot, empty for static captures.
	ScreenshotBase64 string `json:"screenshot_base64,omitempty"`
	ScreenshotMime   string `json:"screenshot_mime,omitempty"`

	FinalURL      string `json:"final_url,omitempty"`
	CaptureMethod string `json:"capture_method,omitempty"`
}

// RefinedSummary is the normalized summary returned by the refine service.
type RefinedSummary struct {
	Title         *string  `json:"title"`
	PriceValue    *float64 `json:"price_value"`
	PriceCurrency *string  `json:"price_currency"`
	HasDiscount   *bool    `json:"has_discount"`
	PromoSummary  *string  `json:"promo_summary"`
}

// RunResult is the per-URL outcome of the capture pipeline.
type RunResult struct {
	URL       string          `json:"url"`
	OK        bool            `json:"ok"`
	Error     *string         `json:"error,omitempty"`
	ErrorCode string          `json:"error_code,omitempty"`
	Data      *CaptureData    `json:"data,omitempty"`
	Refined   *RefinedSummary `json:"refined"`
}

// StrPtr returns a pointer to s, or nil when s is empty.
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
