package peoplesearch

import (
	"context"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/blake-leads/enrich-cli/internal/browser"
	"github.com/blake-leads/enrich-cli/internal/config"
	"github.com/blake-leads/enrich-cli/internal/model"
)

// Form selectors on the people-search site.
const (
	firstNameSel = `input[name="name_first"]`
	lastNameSel  = `input[name="name_last"]`
	citySel      = `input[name="city"]`
	stateSel     = `select[name="state"]`
)

// cardTextsScript collects the visible text of every person card. Older
// pages mark cards with a stable class; newer pages use anonymous divs that
// hold a name heading plus a labeled section, so the fallback keeps only the
// innermost qualifying div.
const cardTextsScript = `
(() => {
  let nodes = Array.from(document.querySelectorAll('.card.card-block, .people-list .card'));
  if (nodes.length === 0) {
    const qualifies = d =>
      d.querySelector('h2, h3') !== null &&
      /Last Known (Phone Numbers|Address)/.test(d.innerText || '');
    nodes = Array.from(document.querySelectorAll('div')).filter(d =>
      qualifies(d) && !Array.from(d.querySelectorAll('div')).some(qualifies));
  }
  return nodes.map(n => n.innerText || '');
})()
`

// Query is one person lookup. First and last name come from the cleaned
// owner name; SearchFormat is the standardized "street, CITY" address.
type Query struct {
	OriginalIndex int
	FirstName     string
	LastName      string
	City          string
	State         string
	SearchFormat  string
}

// Result pairs a phone record with its lookup status.
type Result struct {
	Record model.PhoneRecord
	Status model.LookupStatus
}

// Scraper performs name-and-address phone lookups.
type Scraper struct {
	factory *browser.Factory
	cfg     config.ScrapeConfig
}

// NewScraper builds a people-search scraper on a browser factory.
func NewScraper(factory *browser.Factory, cfg config.ScrapeConfig) *Scraper {
	return &Scraper{factory: factory, cfg: cfg}
}

// Run looks up phones for every query. Failures are recorded per query and
// never abort the batch.
func (s *Scraper) Run(ctx context.Context, queries []Query, perContext int) ([]Result, error) {
	var mu sync.Mutex
	results := make(map[int]Result, len(queries))
	record := func(idx int, r Result) {
		mu.Lock()
		results[idx] = r
		mu.Unlock()
	}

	err := browser.RunShards(ctx, s.factory, queries, s.cfg.Concurrency, perContext, s.cfg.MinDelayMS, s.cfg.MaxDelayMS,
		func(session *browser.Session, q Query) error {
			rec, status, err := s.lookupPhones(session, q)
			if err != nil {
				return err
			}
			record(q.OriginalIndex, Result{Record: rec, Status: status})
			return nil
		},
		func(q Query, err error) {
			zap.L().Warn("phone lookup failed",
				zap.Int("original_index", q.OriginalIndex),
				zap.String("name", q.FirstName+" "+q.LastName),
				zap.Error(err),
			)
			record(q.OriginalIndex, Result{
				Record: model.PhoneRecord{OriginalIndex: q.OriginalIndex},
				Status: model.LookupError,
			})
		},
	)
	if err != nil {
		return nil, eris.Wrap(err, "peoplesearch: run batches")
	}

	out := make([]Result, 0, len(queries))
	for _, q := range queries {
		if r, ok := results[q.OriginalIndex]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// lookupPhones submits the search form and parses result cards. A 404
// result page earns one retry with the city left blank, since the site's
// city index lags its person index.
func (s *Scraper) lookupPhones(session *browser.Session, q Query) (model.PhoneRecord, model.LookupStatus, error) {
	rec := model.PhoneRecord{OriginalIndex: q.OriginalIndex}

	city := q.City
	for attempt := 0; ; attempt++ {
		if err := s.submit(session, q, city); err != nil {
			return rec, model.LookupError, err
		}

		body, err := session.BodyText()
		if err != nil {
			return rec, model.LookupError, err
		}
		if is404(body) {
			if attempt == 0 && city != "" {
				zap.L().Debug("people search 404, retrying without city",
					zap.Int("original_index", q.OriginalIndex))
				city = ""
				continue
			}
			return rec, model.LookupNotFound, nil
		}
		break
	}

	var cards []string
	if err := session.Evaluate(cardTextsScript, &cards); err != nil {
		return rec, model.LookupError, err
	}

	for _, card := range cards {
		addr, conf, ok := MatchCard(card, q.FirstName, q.LastName, q.SearchFormat)
		if !ok {
			continue
		}
		parsed, ok := ParseCard(card, q.OriginalIndex, addr, conf)
		if !ok {
			continue
		}
		zap.L().Info("phones found",
			zap.Int("original_index", q.OriginalIndex),
			zap.Int("phones", len(parsed.AllPhones)),
			zap.Int("address_confidence", conf),
		)
		return parsed, model.LookupFound, nil
	}

	return rec, model.LookupNotFound, nil
}

func (s *Scraper) submit(session *browser.Session, q Query, city string) error {
	if err := session.Navigate(s.cfg.PeopleSearchURL); err != nil {
		return err
	}
	session.AcceptConsent()

	if err := session.WaitVisible(lastNameSel); err != nil {
		if rerr := session.Reload(); rerr != nil {
			return err
		}
		if err := session.WaitVisible(lastNameSel); err != nil {
			return err
		}
	}

	session.MouseJitter()
	if err := session.TypeHuman(firstNameSel, q.FirstName); err != nil {
		return err
	}
	if err := session.TypeHuman(lastNameSel, q.LastName); err != nil {
		return err
	}
	if city != "" {
		if err := session.TypeHuman(citySel, city); err != nil {
			return err
		}
	}
	if q.State != "" {
		if err := session.SetValue(stateSel, strings.ToUpper(q.State)); err != nil {
			return err
		}
	}
	browser.Pause(200, 600)
	if err := session.PressEnter(lastNameSel); err != nil {
		return err
	}
	browser.Pause(800, 1500)
	return nil
}

// is404 recognizes the site's empty-result pages by their headings. A bare
// "404" substring is not enough: result cards legitimately contain those
// digits in house numbers.
func is404(body string) bool {
	upper := strings.ToUpper(body)
	for _, marker := range []string{
		"404 - PAGE NOT FOUND",
		"404 PAGE NOT FOUND",
		"ERROR 404",
		"404 ERROR",
		"PAGE NOT FOUND",
		"NO RESULTS FOUND",
		"COULD NOT FIND",
	} {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}
