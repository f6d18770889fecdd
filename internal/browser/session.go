package browser

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/rotisserie/eris"
)

// Navigate loads a URL and waits for the document body.
func (s *Session) Navigate(url string) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.navTimeout())
	defer cancel()
	err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return eris.Wrapf(err, "browser: navigate %s", url)
	}
	return nil
}

// Reload refreshes the current page.
func (s *Session) Reload() error {
	ctx, cancel := context.WithTimeout(s.ctx, s.navTimeout())
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.Reload(), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return eris.Wrap(err, "browser: reload")
	}
	return nil
}

// Location returns the current page URL.
func (s *Session) Location() (string, error) {
	ctx, cancel := context.WithTimeout(s.ctx, s.opTimeout())
	defer cancel()
	var url string
	if err := chromedp.Run(ctx, chromedp.Location(&url)); err != nil {
		return "", eris.Wrap(err, "browser: location")
	}
	return url, nil
}

// WaitVisible waits for a selector within the element timeout.
func (s *Session) WaitVisible(sel string) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.selectorTimeout())
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.WaitVisible(sel, chromedp.ByQuery)); err != nil {
		return eris.Wrapf(err, "browser: wait for %s", sel)
	}
	return nil
}

// Click clicks the first element matching the selector.
func (s *Session) Click(sel string) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.selectorTimeout())
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.Click(sel, chromedp.ByQuery)); err != nil {
		return eris.Wrapf(err, "browser: click %s", sel)
	}
	return nil
}

// TypeHuman clears a field and types text with per-character pauses.
func (s *Session) TypeHuman(sel, text string) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.opTimeout())
	defer cancel()

	if err := chromedp.Run(ctx,
		chromedp.WaitVisible(sel, chromedp.ByQuery),
		chromedp.Click(sel, chromedp.ByQuery),
		chromedp.SetValue(sel, "", chromedp.ByQuery),
	); err != nil {
		return eris.Wrapf(err, "browser: focus %s", sel)
	}

	for _, r := range text {
		if err := chromedp.Run(ctx, chromedp.SendKeys(sel, string(r), chromedp.ByQuery)); err != nil {
			return eris.Wrapf(err, "browser: type into %s", sel)
		}
		time.Sleep(time.Duration(40+rand.IntN(90)) * time.Millisecond)
	}
	return nil
}

// SetValue sets a form value directly, used for select dropdowns.
func (s *Session) SetValue(sel, value string) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.selectorTimeout())
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.SetValue(sel, value, chromedp.ByQuery)); err != nil {
		return eris.Wrapf(err, "browser: set value on %s", sel)
	}
	return nil
}

// PressEnter sends the Enter key to an element, submitting its form.
func (s *Session) PressEnter(sel string) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.selectorTimeout())
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.SendKeys(sel, kb.Enter, chromedp.ByQuery)); err != nil {
		return eris.Wrapf(err, "browser: press enter on %s", sel)
	}
	return nil
}

// Text returns the inner text of the first matching element.
func (s *Session) Text(sel string) (string, error) {
	ctx, cancel := context.WithTimeout(s.ctx, s.selectorTimeout())
	defer cancel()
	var out string
	if err := chromedp.Run(ctx, chromedp.Text(sel, &out, chromedp.ByQuery)); err != nil {
		return "", eris.Wrapf(err, "browser: text of %s", sel)
	}
	return out, nil
}

// BodyText returns the full visible text of the page.
func (s *Session) BodyText() (string, error) {
	ctx, cancel := context.WithTimeout(s.ctx, s.opTimeout())
	defer cancel()
	var out string
	if err := chromedp.Run(ctx, chromedp.Text("body", &out, chromedp.ByQuery)); err != nil {
		return "", eris.Wrap(err, "browser: body text")
	}
	return out, nil
}

// Evaluate runs a JavaScript expression and unmarshals the result.
func (s *Session) Evaluate(expr string, out interface{}) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.opTimeout())
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.Evaluate(expr, out)); err != nil {
		return eris.Wrap(err, "browser: evaluate")
	}
	return nil
}

// consentClickScript clicks the first visible agree-style button.
const consentClickScript = `
(() => {
  const labels = ['I AGREE', 'AGREE', 'ACCEPT', 'ACCEPT ALL', 'GOT IT'];
  const nodes = document.querySelectorAll('button, a, [role="button"]');
  for (const el of nodes) {
    const text = (el.innerText || '').trim().toUpperCase();
    if (labels.includes(text) && el.offsetParent !== null) {
      el.click();
      return true;
    }
  }
  return false;
})()
`

// AcceptConsent clicks an I-AGREE-class button when one is visible. Not
// finding one is not an error.
func (s *Session) AcceptConsent() bool {
	ctx, cancel := context.WithTimeout(s.ctx, s.consentTimeout())
	defer cancel()
	var clicked bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(consentClickScript, &clicked)); err != nil {
		return false
	}
	if clicked {
		time.Sleep(time.Duration(300+rand.IntN(400)) * time.Millisecond)
	}
	return clicked
}

// MouseJitter dispatches a couple of small mouse movements so the session
// does not look frozen between form fields.
func (s *Session) MouseJitter() {
	ctx, cancel := context.WithTimeout(s.ctx, s.selectorTimeout())
	defer cancel()
	x := float64(100 + rand.IntN(s.fp.Width/2))
	y := float64(100 + rand.IntN(s.fp.Height/2))
	for i := 0; i < 2+rand.IntN(3); i++ {
		x += float64(rand.IntN(60) - 30)
		y += float64(rand.IntN(40) - 20)
		_ = chromedp.Run(ctx, chromedp.ActionFunc(func(c context.Context) error {
			return input.DispatchMouseEvent(input.MouseMoved, x, y).Do(c)
		}))
		time.Sleep(time.Duration(30+rand.IntN(80)) * time.Millisecond)
	}
}

// Pause sleeps for a human-scale random interval inside a query.
func Pause(minMS, maxMS int) {
	if maxMS <= minMS {
		time.Sleep(time.Duration(minMS) * time.Millisecond)
		return
	}
	time.Sleep(time.Duration(minMS+rand.IntN(maxMS-minMS)) * time.Millisecond)
}
