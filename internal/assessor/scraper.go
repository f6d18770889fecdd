package assessor

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

// queryState enumerates the per-query state machine.
type queryState int

const (
	stateInit queryState = iota
	stateLoaded
	stateSubmitted
	stateParcel
	stateResults
	stateNotFound
	stateError
)

// Site selectors. The assessor search page has one search box and renders
// either a parcel record, a result list, or a no-match banner.
const (
	searchInputSel = `input[name="txtField"]`
	resultRowSel   = `table.searchResults tr td a`
	noMatchText    = "No Records Found"
)

// Result pairs an owner record with its lookup status.
type Result struct {
	Record model.OwnerRecord
	Status model.LookupStatus
}

// Scraper performs reverse-address owner lookups.
type Scraper struct {
	factory *browser.Factory
	cfg     config.ScrapeConfig
}

// NewScraper builds an assessor scraper on a browser factory.
func NewScraper(factory *browser.Factory, cfg config.ScrapeConfig) *Scraper {
	return &Scraper{factory: factory, cfg: cfg}
}

// Run looks up owners for every staged row. Rows outside the jurisdiction
// are recorded as skipped without touching the site; query failures are
// recorded as errors and never abort the batch.
func (s *Scraper) Run(ctx context.Context, rows []model.StandardizedRow, perContext int) ([]Result, error) {
	var mu sync.Mutex
	results := make(map[int]Result, len(rows))
	record := func(idx int, r Result) {
		mu.Lock()
		results[idx] = r
		mu.Unlock()
	}

	var queries []model.StandardizedRow
	for _, row := range rows {
		if !row.Eligible {
			results[row.OriginalIndex] = Result{
				Record: model.OwnerRecord{OriginalIndex: row.OriginalIndex},
				Status: model.LookupSkipped,
			}
			zap.L().Info("row outside jurisdiction, skipped",
				zap.Int("original_index", row.OriginalIndex),
				zap.String("city", row.City),
			)
			continue
		}
		if row.SearchFormat == "" {
			results[row.OriginalIndex] = Result{
				Record: model.OwnerRecord{OriginalIndex: row.OriginalIndex},
				Status: model.LookupNotFound,
			}
			continue
		}
		queries = append(queries, row)
	}

	err := browser.RunShards(ctx, s.factory, queries, s.cfg.Concurrency, perContext, s.cfg.MinDelayMS, s.cfg.MaxDelayMS,
		func(session *browser.Session, row model.StandardizedRow) error {
			rec, status, err := s.lookupOwner(session, row)
			if err != nil {
				return err
			}
			record(row.OriginalIndex, Result{Record: rec, Status: status})
			return nil
		},
		func(row model.StandardizedRow, err error) {
			zap.L().Warn("owner lookup failed",
				zap.Int("original_index", row.OriginalIndex),
				zap.String("query", row.SearchFormat),
				zap.Error(err),
			)
			record(row.OriginalIndex, Result{
				Record: model.OwnerRecord{OriginalIndex: row.OriginalIndex},
				Status: model.LookupError,
			})
		},
	)
	if err != nil {
		return nil, eris.Wrap(err, "assessor: run batches")
	}

	out := make([]Result, 0, len(rows))
	for _, row := range rows {
		if r, ok := results[row.OriginalIndex]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// lookupOwner drives one query through the page state machine. A
// navigation or selector timeout earns one page reload before the error
// propagates for the fresh-context retry.
func (s *Scraper) lookupOwner(session *browser.Session, row model.StandardizedRow) (model.OwnerRecord, model.LookupStatus, error) {
	rec := model.OwnerRecord{OriginalIndex: row.OriginalIndex}

	state := stateInit
	reloaded := false
	var body string

	for {
		switch state {
		case stateInit:
			if err := session.Navigate(s.cfg.AssessorURL); err != nil {
				return rec, model.LookupError, err
			}
			session.AcceptConsent()
			state = stateLoaded

		case stateLoaded:
			if err := session.WaitVisible(searchInputSel); err != nil {
				if !reloaded {
					reloaded = true
					if rerr := session.Reload(); rerr == nil {
						continue
					}
				}
				return rec, model.LookupError, err
			}
			session.MouseJitter()
			if err := session.TypeHuman(searchInputSel, row.SearchFormat); err != nil {
				return rec, model.LookupError, err
			}
			browser.Pause(200, 600)
			if err := session.PressEnter(searchInputSel); err != nil {
				return rec, model.LookupError, err
			}
			state = stateSubmitted

		case stateSubmitted:
			browser.Pause(800, 1500)
			text, err := session.BodyText()
			if err != nil {
				if !reloaded {
					reloaded = true
					if rerr := session.Reload(); rerr == nil {
						state = stateLoaded
						continue
					}
				}
				return rec, model.LookupError, err
			}
			body = text
			switch {
			case strings.Contains(body, "Property Owner"):
				state = stateParcel
			case strings.Contains(body, noMatchText):
				state = stateNotFound
			default:
				state = stateResults
			}

		case stateResults:
			// A list page: the first hit is the parcel for the queried
			// address, since the query already carries house number and city.
			if err := session.Click(resultRowSel); err != nil {
				state = stateNotFound
				continue
			}
			browser.Pause(800, 1500)
			text, err := session.BodyText()
			if err != nil {
				return rec, model.LookupError, err
			}
			body = text
			if !strings.Contains(body, "Property Owner") {
				state = stateNotFound
				continue
			}
			state = stateParcel

		case stateParcel:
			owners := SplitOwners(ExtractOwnerText(body))
			if len(owners) == 0 {
				return rec, model.LookupNotFound, nil
			}
			rec.Owners = owners
			zap.L().Info("owner found",
				zap.Int("original_index", row.OriginalIndex),
				zap.Int("owners", len(owners)),
			)
			return rec, model.LookupFound, nil

		case stateNotFound:
			return rec, model.LookupNotFound, nil

		default:
			return rec, model.LookupError, eris.New("assessor: invalid state")
		}
	}
}
