package workers

import (
	"context"
	"errors"
	"fmt"

	"inmo_scrooper/config"
	"inmo_scrooper/identity"
	"inmo_scrooper/location"
	"inmo_scrooper/logging"
	"inmo_scrooper/models"
	"inmo_scrooper/services"
	"inmo_scrooper/storage"
)

// Searcher is the part of services.SearchService the watcher uses. Execute
// skips the cache so every pass sees fresh upstream data.
type Searcher interface {
	Prepare(f models.SearchFilter) models.SearchFilter
	Execute(ctx context.Context, f models.SearchFilter) (models.SearchResult, *models.SearchRun)
}

type watch struct {
	name   string
	filter models.SearchFilter
}

// Watcher re-runs saved searches and reports listings it has not seen before.
type Watcher struct {
	searcher  Searcher
	store     storage.Store
	watches   []watch
	notify    NotifyFunc
	triggerCh chan struct{}
}

// NewWatcher parses each saved search query. Queries that do not name an
// operation, a property type and a location are skipped with a warning.
func NewWatcher(searcher Searcher, resolver *location.Resolver, store storage.Store, saved []config.SavedSearch) *Watcher {
	w := &Watcher{
		searcher:  searcher,
		store:     store,
		notify:    LogNotifier,
		triggerCh: make(chan struct{}, 1),
	}
	for _, s := range saved {
		f := services.ParseQuery(resolver, s.Query)
		if err := services.CheckComplete(f); err != nil {
			logging.Warnf("watcher", "Warning: skipping saved search %q: %v", s.Name, err)
			continue
		}
		w.watches = append(w.watches, watch{name: s.Name, filter: searcher.Prepare(f)})
	}
	return w
}

func (w *Watcher) SetNotifier(fn NotifyFunc) {
	w.notify = fn
}

// Searches returns the names of the active saved searches.
func (w *Watcher) Searches() []string {
	names := make([]string, len(w.watches))
	for i, wt := range w.watches {
		names[i] = wt.name
	}
	return names
}

// Trigger causes the worker to run immediately
func (w *Watcher) Trigger() {
	select {
	case w.triggerCh <- struct{}{}:
	default:
	}
}

// Run serves triggers until ctx is done. Passes never overlap.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			logging.Infof("watcher", "Watcher stopping")
			return
		case <-w.triggerCh:
			if err := w.RunAll(ctx); err != nil {
				logging.Errorf("watcher", "Pass finished with errors: %v", err)
			}
		}
	}
}

// RunAll executes every saved search once.
func (w *Watcher) RunAll(ctx context.Context) error {
	var errs []error
	var totalNew int
	for _, wt := range w.watches {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		n, err := w.runOne(ctx, wt)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", wt.name, err))
			continue
		}
		totalNew += n
	}
	logging.Infof("watcher", "Pass complete: %d searches, %d new listings", len(w.watches), totalNew)
	return errors.Join(errs...)
}

func (w *Watcher) runOne(ctx context.Context, wt watch) (int, error) {
	result, run := w.searcher.Execute(ctx, wt.filter)
	run.Source = "watcher:" + wt.name

	byID := make(map[string]models.PositionedListing, len(result.Listings))
	ids := make([]string, 0, len(result.Listings))
	for _, l := range result.Listings {
		id := listingKey(l.Listing)
		if _, dup := byID[id]; !dup {
			byID[id] = l
			ids = append(ids, id)
		}
	}

	fresh, err := w.store.MarkSeen(ctx, wt.name, ids)
	if err != nil {
		run.Status = models.RunStatusFailed
		if rerr := w.store.RecordRun(ctx, run); rerr != nil {
			logging.Warnf("watcher", "Warning: failed to record run %s: %v", run.ID, rerr)
		}
		return 0, fmt.Errorf("mark seen: %w", err)
	}

	run.ListingsNew = len(fresh)
	if err := w.store.RecordRun(ctx, run); err != nil {
		return len(fresh), fmt.Errorf("record run: %w", err)
	}

	if len(fresh) > 0 {
		listings := make([]models.PositionedListing, 0, len(fresh))
		for _, id := range fresh {
			listings = append(listings, byID[id])
		}
		w.notify(wt.name, listings)
	}
	logging.Debugf("watcher", "%s: %d found, %d new (tier %d)", wt.name, run.ListingsFound, run.ListingsNew, run.Tier)
	return len(fresh), nil
}

// listingKey falls back to the URL, then to a content fingerprint.
func listingKey(l models.Listing) string {
	if l.ID != nil {
		return *l.ID
	}
	if l.URL != nil {
		return *l.URL
	}
	return "fp:" + identity.Fingerprint(l)
}
