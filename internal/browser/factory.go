// Package browser builds short-lived stealth Chrome contexts for the site
// scrapers. Every batch gets a fresh context with a randomized fingerprint,
// an optional per-batch proxy session, and aggressive request blocking; the
// context is destroyed after one or two queries.
package browser

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/blake-leads/enrich-cli/internal/config"
	"github.com/blake-leads/enrich-cli/internal/proxy"
)

// Factory creates stealth browser sessions. The proxy pool is shared and
// read-only; each session claims its own upstream session token.
type Factory struct {
	cfg  config.BrowserConfig
	pool *proxy.Pool
}

// NewFactory builds a session factory.
func NewFactory(cfg config.BrowserConfig, pool *proxy.Pool) *Factory {
	if pool == nil {
		pool = &proxy.Pool{}
	}
	return &Factory{cfg: cfg, pool: pool}
}

// Session is one owned browser context. It is never shared across queries
// from different batches and must be released with Close on every path.
type Session struct {
	ctx           context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc

	fp  Fingerprint
	cfg config.BrowserConfig
}

// NewSession constructs a fresh browser context. The caller owns the
// returned session and must call Close.
func (f *Factory) NewSession(parent context.Context) (*Session, error) {
	fp := NewFingerprint()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", f.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-plugins-discovery", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("lang", fp.Locale),
		chromedp.WindowSize(fp.Width, fp.Height),
		chromedp.UserAgent(fp.UserAgent),
	)

	px, proxied := f.pool.Session()
	if proxied {
		opts = append(opts, chromedp.ProxyServer(fmt.Sprintf("http://%s:%s", px.Host, px.Port)))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	s := &Session{
		ctx:           browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
		fp:            fp,
		cfg:           f.cfg,
	}

	// Request interception: drop heavy resources and tracker hosts, and
	// answer proxy auth challenges with the per-batch credential.
	chromedp.ListenTarget(browserCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *fetch.EventRequestPaused:
			go func() {
				exec := executor(browserCtx)
				if shouldBlock(e.ResourceType, e.Request.URL) {
					_ = fetch.FailRequest(e.RequestID, blockReason).Do(exec)
					return
				}
				_ = fetch.ContinueRequest(e.RequestID).Do(exec)
			}()
		case *fetch.EventAuthRequired:
			go func() {
				exec := executor(browserCtx)
				resp := &fetch.AuthChallengeResponse{
					Response: fetch.AuthChallengeResponseResponseDefault,
				}
				if proxied && e.AuthChallenge != nil && e.AuthChallenge.Source == fetch.AuthChallengeSourceProxy {
					resp = &fetch.AuthChallengeResponse{
						Response: fetch.AuthChallengeResponseResponseProvideCredentials,
						Username: px.User,
						Password: px.Pass,
					}
				}
				_ = fetch.ContinueWithAuth(e.RequestID, resp).Do(exec)
			}()
		}
	})

	init := chromedp.Tasks{
		fetch.Enable().WithHandleAuthRequests(proxied),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
			return err
		}),
		emulation.SetGeolocationOverride().
			WithLatitude(fp.Latitude).
			WithLongitude(fp.Longitude).
			WithAccuracy(50),
		emulation.SetTimezoneOverride(fp.Timezone),
	}

	initCtx, cancel := context.WithTimeout(browserCtx, s.opTimeout())
	defer cancel()
	if err := chromedp.Run(initCtx, init); err != nil {
		s.Close()
		return nil, eris.Wrap(err, "browser: init context")
	}

	zap.L().Debug("browser session created",
		zap.Int("viewport_w", fp.Width),
		zap.Int("viewport_h", fp.Height),
		zap.String("timezone", fp.Timezone),
		zap.Bool("proxied", proxied),
	)

	return s, nil
}

// Close tears the session down in order: pages, context, browser process,
// then a short settle sleep and a GC pass to release the CDP buffers.
func (s *Session) Close() {
	if s.cancelBrowser != nil {
		s.cancelBrowser()
		s.cancelBrowser = nil
	}
	if s.cancelAlloc != nil {
		s.cancelAlloc()
		s.cancelAlloc = nil
	}
	time.Sleep(250 * time.Millisecond)
	runtime.GC()
}

func executor(ctx context.Context) context.Context {
	c := chromedp.FromContext(ctx)
	return cdp.WithExecutor(ctx, c.Target)
}

func (s *Session) opTimeout() time.Duration {
	return msOrDefault(s.cfg.OperationTimeoutMS, 15000)
}

func (s *Session) navTimeout() time.Duration {
	return msOrDefault(s.cfg.NavTimeoutMS, 15000)
}

func (s *Session) selectorTimeout() time.Duration {
	return msOrDefault(s.cfg.SelectorTimeoutMS, 3000)
}

func (s *Session) consentTimeout() time.Duration {
	return msOrDefault(s.cfg.ConsentTimeoutMS, 5000)
}

func msOrDefault(ms, def int) time.Duration {
	if ms <= 0 {
		ms = def
	}
	return time.Duration(ms) * time.Millisecond
}
