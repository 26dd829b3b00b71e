package capture

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	tls2 "github.com/refraction-networking/utls"
	xproxy "golang.org/x/net/proxy"

	"github.com/raul-padua/agentic-product-price-scrapping/models"
)

const maxStaticBody = 10 * 1024 * 1024

// StaticFetcher retrieves pages over plain HTTP with a Chrome TLS
// fingerprint (utls). It renders no JavaScript and takes no screenshot, so
// it only serves as a fallback when the browser runtime is unavailable.
type StaticFetcher struct {
	proxy   string
	profile LocaleProfile
	timeout time.Duration
}

// NewStaticFetcher creates a fetcher. proxy may be empty.
func NewStaticFetcher(proxy string, profile LocaleProfile, timeout time.Duration) *StaticFetcher {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &StaticFetcher{proxy: proxy, profile: profile, timeout: timeout}
}

// Fetch downloads targetURL. Pages that are an empty JavaScript shell are
// rejected with CAPTURE_FAILED since nothing could be extracted from them.
func (f *StaticFetcher) Fetch(ctx context.Context, targetURL string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialTLSChrome(ctx, network, addr, f.proxy)
		},
	}
	if f.proxy != "" {
		proxyURL, err := url.Parse(f.proxy)
		if err == nil && (proxyURL.Scheme == "http" || proxyURL.Scheme == "https") {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	client := &http.Client{Transport: transport}
	defer client.CloseIdleConnections()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, models.Invalid(fmt.Sprintf("invalid url %q", targetURL))
	}
	req.Header.Set("User-Agent", f.profile.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", f.profile.AcceptLanguage)
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := client.Do(req)
	if err != nil {
		return nil, categorizeError(err, "static fetch failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, models.NewUpstreamError(models.ErrCodeNavigation, resp.StatusCode,
			fmt.Sprintf("static fetch: HTTP %d for %s", resp.StatusCode, targetURL))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxStaticBody))
	if err != nil {
		return nil, categorizeError(err, "static fetch: read body")
	}

	page, err := inspectPage(body)
	if err != nil {
		return nil, models.NewPipelineError(models.ErrCodeCapture, "static fetch: parse body", err)
	}
	if page.needsBrowser() {
		return nil, models.NewPipelineError(models.ErrCodeCapture,
			"page requires JavaScript rendering and no browser is available", nil)
	}

	return &Result{
		HTML:     string(body),
		FinalURL: resp.Request.URL.String(),
		Title:    page.title,
		Method:   models.CaptureMethodStatic,
	}, nil
}

// dialTLSChrome establishes a TLS connection using a Chrome fingerprint via
// utls. ALPN is limited to http/1.1 because net/http cannot speak h2 over a
// custom DialTLSContext connection.
func dialTLSChrome(ctx context.Context, network, addr, proxy string) (net.Conn, error) {
	var dialer xproxy.ContextDialer = &net.Dialer{}
	if proxy != "" {
		if proxyURL, err := url.Parse(proxy); err == nil && (proxyURL.Scheme == "socks5" || proxyURL.Scheme == "socks5h") {
			var auth *xproxy.Auth
			if proxyURL.User != nil {
				pass, _ := proxyURL.User.Password()
				auth = &xproxy.Auth{User: proxyURL.User.Username(), Password: pass}
			}
			socks, err := xproxy.SOCKS5("tcp", proxyURL.Host, auth, &net.Dialer{})
			if err != nil {
				return nil, fmt.Errorf("socks5 dialer: %w", err)
			}
			if cd, ok := socks.(xproxy.ContextDialer); ok {
				dialer = cd
			}
		}
	}

	rawConn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	spec, err := tls2.UTLSIdToSpec(tls2.HelloChrome_Auto)
	if err != nil {
		rawConn.Close()
		return nil, fmt.Errorf("utls spec: %w", err)
	}
	for _, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls2.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
		}
	}

	host, _, _ := net.SplitHostPort(addr)
	tlsConn := tls2.UClient(rawConn, &tls2.Config{ServerName: host}, tls2.HelloCustom)
	if err := tlsConn.ApplyPreset(&spec); err != nil {
		rawConn.Close()
		return nil, fmt.Errorf("utls preset: %w", err)
	}
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		rawConn.Close()
		return nil, err
	}
	return tlsConn, nil
}

// jsRequired matches the "please enable JavaScript" notices client-rendered
// storefronts put in <noscript>.
var jsRequired = regexp.MustCompile(`(enable|activate|turn on|requires?)\s+javascript`)

// staticPage is what one parse of a fetched body says about its usefulness.
type staticPage struct {
	title      string
	textLen    int // runes of visible body text, whitespace collapsed
	scripts    int
	emptyMount bool
	jsNotice   bool
}

func inspectPage(body []byte) (staticPage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return staticPage{}, err
	}

	p := staticPage{
		title:    strings.TrimSpace(doc.Find("title").First().Text()),
		scripts:  doc.Find("script").Length(),
		jsNotice: jsRequired.MatchString(strings.ToLower(doc.Find("noscript").Text())),
	}
	doc.Find("div#root, div#app, div#__next").EachWithBreak(func(_ int, m *goquery.Selection) bool {
		p.emptyMount = m.Children().Length() == 0 && strings.TrimSpace(m.Text()) == ""
		return !p.emptyMount
	})

	doc.Find("body script, body style, body noscript, body template").Remove()
	p.textLen = len([]rune(strings.Join(strings.Fields(doc.Find("body").Text()), " ")))
	return p, nil
}

// needsBrowser reports whether the page is a JavaScript shell with nothing
// for the extractor to read.
func (p staticPage) needsBrowser() bool {
	if p.textLen < 200 || p.emptyMount || p.jsNotice {
		return true
	}
	return p.scripts > 10 && p.textLen < 500
}
