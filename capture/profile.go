package capture

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

const (
	viewportWidth  = 1366
	viewportHeight = 768

	macChromeUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"
)

// Geolocation pins navigator.geolocation to fixed coordinates.
type Geolocation struct {
	Latitude  float64
	Longitude float64
}

// DismissAction is one best-effort attempt to close a consent or geo dialog.
// Selector picks candidate elements; TextPattern, a JS regex literal such as
// "/accept/i", additionally filters them by text.
type DismissAction struct {
	Selector    string
	TextPattern string
	Timeout     time.Duration
}

// LocaleProfile is the fingerprint a capture presents to the target site.
type LocaleProfile struct {
	Name           string
	Languages      []string // navigator.languages; the first is navigator.language
	AcceptLanguage string
	UserAgent      string
	Platform       string // navigator.platform
	Timezone       string
	Geolocation    *Geolocation
	Dismissals     []DismissAction
}

// ProfileEnUS is the default profile.
var ProfileEnUS = LocaleProfile{
	Name:           "en-US",
	Languages:      []string{"en-US", "en"},
	AcceptLanguage: "en-US,en;q=0.9",
	UserAgent:      macChromeUA,
	Platform:       "MacIntel",
	Dismissals: []DismissAction{
		{Selector: "button", TextPattern: "/accept/i", Timeout: 3 * time.Second},
		{Selector: "button", TextPattern: "/accept all/i", Timeout: 3 * time.Second},
		{Selector: "button", TextPattern: "/allow all cookies/i", Timeout: 3 * time.Second},
		{Selector: `[data-dismiss],[aria-label="Close"]`, Timeout: 3 * time.Second},
		{Selector: "button", TextPattern: "/continue/i", Timeout: 2 * time.Second},
	},
}

// ProfileBR targets Brazilian storefronts, several of which geo-fence
// visitors outside the country.
var ProfileBR = LocaleProfile{
	Name:           "pt-BR",
	Languages:      []string{"pt-BR", "pt", "en-US", "en"},
	AcceptLanguage: "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7",
	UserAgent:      macChromeUA,
	Platform:       "MacIntel",
	Timezone:       "America/Sao_Paulo",
	Geolocation:    &Geolocation{Latitude: -23.5505, Longitude: -46.6333},
	Dismissals: []DismissAction{
		{Selector: "button", TextPattern: "/aceitar/i", Timeout: 3 * time.Second},
		{Selector: "button", TextPattern: "/permitir todos os cookies/i", Timeout: 3 * time.Second},
		{Selector: `[data-dismiss-geo],[aria-label="Fechar"]`, Timeout: 3 * time.Second},
		{Selector: "button", TextPattern: "/agora não/i", Timeout: 2 * time.Second},
		{Selector: "button", TextPattern: "/continuar/i", Timeout: 2 * time.Second},
	},
}

// ProfileFor returns the profile named name, or ProfileEnUS.
func ProfileFor(name string) LocaleProfile {
	switch strings.ToLower(strings.ReplaceAll(name, "_", "-")) {
	case "pt-br", "br":
		return ProfileBR
	default:
		return ProfileEnUS
	}
}

// LangFlag is the value for Chrome's --lang flag.
func (lp LocaleProfile) LangFlag() string {
	return strings.Join(lp.Languages, ",")
}

func (lp LocaleProfile) language() string {
	if len(lp.Languages) == 0 {
		return "en-US"
	}
	return lp.Languages[0]
}

// Script returns the on-new-document hardening script. It pins the navigator
// properties headless Chrome gives away and restores window.chrome.runtime.
func (lp LocaleProfile) Script() string {
	lang, _ := json.Marshal(lp.language())
	langs, _ := json.Marshal(lp.Languages)
	platform, _ := json.Marshal(lp.Platform)

	return fmt.Sprintf(`(() => {
  const pin = (obj, key, value) => {
    try { Object.defineProperty(obj, key, { get: () => value, configurable: true }); } catch (e) {}
  };
  pin(navigator, 'webdriver', undefined);
  pin(navigator, 'language', %s);
  pin(navigator, 'languages', %s);
  pin(navigator, 'platform', %s);
  pin(navigator, 'vendor', 'Google Inc.');
  pin(navigator, 'plugins', [1, 2, 3, 4, 5]);
  window.chrome = window.chrome || {};
  window.chrome.runtime = window.chrome.runtime || {};
})();`, lang, langs, platform)
}

// apply installs the profile on page. It must run before navigation:
// on-new-document scripts and overrides only affect later loads.
func (lp LocaleProfile) apply(page *rod.Page, targetURL string) error {
	if _, err := page.EvalOnNewDocument(lp.Script()); err != nil {
		return fmt.Errorf("inject hardening script: %w", err)
	}

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      lp.UserAgent,
		AcceptLanguage: lp.AcceptLanguage,
		Platform:       lp.Platform,
	}); err != nil {
		return fmt.Errorf("override user agent: %w", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             viewportWidth,
		Height:            viewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		return fmt.Errorf("set viewport: %w", err)
	}

	if err := (proto.NetworkSetExtraHTTPHeaders{
		Headers: toHeadersMap(map[string]string{"Accept-Language": lp.AcceptLanguage}),
	}).Call(page); err != nil {
		return fmt.Errorf("set extra headers: %w", err)
	}

	// Locale, timezone and geolocation are refinements; a browser that
	// rejects them still captures.
	_ = proto.EmulationSetLocaleOverride{Locale: lp.language()}.Call(page)
	if lp.Timezone != "" {
		_ = proto.EmulationSetTimezoneOverride{TimezoneID: lp.Timezone}.Call(page)
	}
	if lp.Geolocation != nil {
		lat, lon, acc := lp.Geolocation.Latitude, lp.Geolocation.Longitude, 100.0
		_ = proto.EmulationSetGeolocationOverride{Latitude: &lat, Longitude: &lon, Accuracy: &acc}.Call(page)
		if u, err := url.Parse(targetURL); err == nil && u.Host != "" {
			_ = proto.BrowserGrantPermissions{
				Permissions: []proto.BrowserPermissionType{proto.BrowserPermissionTypeGeolocation},
				Origin:      u.Scheme + "://" + u.Host,
			}.Call(page.Browser())
		}
	}
	return nil
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
