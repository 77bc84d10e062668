package scraper

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"mime"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
)

const (
	ctxKeyBody        = "body"
	ctxKeyStatus      = "status"
	ctxKeyContentType = "contentType"
	ctxKeyRequested   = "requested"
)

var ErrNoUserAgents = errors.New("no user agents configured")

// FetchError wraps anything that kept a page from being retrieved: network
// failures, timeouts, non-2xx responses and undecodable bodies.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// StatusError is returned (inside a FetchError) for responses outside 2xx.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Fetcher downloads pages one at a time, pausing after every request.
type Fetcher struct {
	colly       *colly.Collector
	userAgents  []string
	delay       time.Duration
	randomDelay time.Duration
}

func NewFetcher(cfg Config) (*Fetcher, error) {
	if len(cfg.UserAgents) == 0 {
		return nil, ErrNoUserAgents
	}

	f := &Fetcher{
		colly: colly.NewCollector(
			colly.AllowURLRevisit(),
			colly.ParseHTTPErrorResponse(),
			colly.MaxBodySize(0),
		),
		userAgents:  append([]string(nil), cfg.UserAgents...),
		delay:       cfg.Delay,
		randomDelay: cfg.RandomDelay,
	}

	// every request stands alone, like a fresh browser
	f.colly.DisableCookies()

	if cfg.Timeout > 0 {
		f.colly.SetRequestTimeout(cfg.Timeout)
	}

	if err := f.colly.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       cfg.Delay,
		RandomDelay: cfg.RandomDelay,
	}); err != nil {
		return nil, err
	}

	f.colly.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", f.userAgent())
		r.Ctx.Put(ctxKeyRequested, "1")
	})

	// colly converts declared charsets itself; keep the bytes raw so that
	// decodeBody can prefer the detected encoding.
	f.colly.OnResponseHeaders(func(r *colly.Response) {
		ct := r.Headers.Get("Content-Type")
		r.Ctx.Put(ctxKeyContentType, ct)
		if ct == "" {
			return
		}
		if mediaType, _, err := mime.ParseMediaType(ct); err == nil {
			r.Headers.Set("Content-Type", mediaType)
		} else {
			r.Headers.Del("Content-Type")
		}
	})

	// Extraction needs the first match per selector and the raw markup of
	// the whole document, so OnHTML is not used; the body is handed back to
	// Fetch and parsed by the Extractor.
	f.colly.OnResponse(func(r *colly.Response) {
		r.Ctx.Put(ctxKeyStatus, r.StatusCode)
		r.Ctx.Put(ctxKeyBody, r.Body)
	})

	return f, nil
}

// Fetch performs a GET and returns the body as UTF-8 text. Errors are always
// *FetchError.
func (f *Fetcher) Fetch(url string) (string, error) {
	ctx := colly.NewContext()
	if err := f.colly.Request(http.MethodGet, url, nil, ctx, nil); err != nil {
		if ctx.Get(ctxKeyRequested) == "" {
			// rejected before reaching the limit rule
			f.pause()
		}
		return "", &FetchError{URL: url, Err: err}
	}

	status, _ := ctx.GetAny(ctxKeyStatus).(int)
	if status < 200 || status > 299 {
		return "", &FetchError{URL: url, Err: &StatusError{StatusCode: status}}
	}

	body, _ := ctx.GetAny(ctxKeyBody).([]byte)
	text, err := decodeBody(body, ctx.Get(ctxKeyContentType))
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}
	return text, nil
}

// pause sleeps like colly's LimitRule does after a request.
func (f *Fetcher) pause() {
	d := f.delay
	if f.randomDelay > 0 {
		d += rand.N(f.randomDelay)
	}
	time.Sleep(d)
}

func (f *Fetcher) userAgent() string {
	return f.userAgents[rand.IntN(len(f.userAgents))]
}
