package services

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/karlseguin/ccache/v3"
	"inmo_scrooper/config"
	"inmo_scrooper/location"
	"inmo_scrooper/logging"
	"inmo_scrooper/models"
	"inmo_scrooper/scraper"
	"inmo_scrooper/storage"
)

// SearchService is the entry point shared by the CLI, the chat loop and the
// watcher. It canonicalises filters, caches non-empty results and records
// every upstream search in the store.
type SearchService struct {
	orchestrator *scraper.Orchestrator
	resolver     *location.Resolver
	store        storage.Store
	cache        *ccache.Cache[*models.SearchResult]
	ttl          time.Duration
	source       string
}

func NewSearchService(orchestrator *scraper.Orchestrator, resolver *location.Resolver, store storage.Store, cacheCfg config.CacheConfig, source string) *SearchService {
	if store == nil {
		store = storage.NewMemoryStore()
	}
	maxSize := cacheCfg.MaxSize
	if maxSize <= 0 {
		maxSize = 500
	}
	return &SearchService{
		orchestrator: orchestrator,
		resolver:     resolver,
		store:        store,
		cache:        ccache.New(ccache.Configure[*models.SearchResult]().MaxSize(maxSize)),
		ttl:          cacheCfg.TTL,
		source:       source,
	}
}

func (s *SearchService) Close() {
	s.cache.Stop()
}

func (s *SearchService) Store() storage.Store {
	return s.store
}

// Prepare fills the defaults a direct search falls back to (sale, any type,
// the capital) and turns the location into a catalog slug when possible.
func (s *SearchService) Prepare(f models.SearchFilter) models.SearchFilter {
	if f.Operation == "" {
		f.Operation = models.OperationSale
	}
	if f.PropertyType == "" {
		f.PropertyType = models.PropertyAny
	}
	f.Location = s.canonicalLocation(f.Location)
	f.Page = f.EffectivePage()
	return f
}

func (s *SearchService) canonicalLocation(loc string) string {
	c := s.resolver.Catalog()
	slug := location.Slugify(loc)
	if slug == "" {
		return c.Capital()
	}
	if c.Known(slug) {
		return slug
	}
	// "San Lorenzo, Central" or "barrio villa morra"
	if resolved, ok := s.resolver.Resolve(strings.ReplaceAll(slug, "-", " ")); ok {
		return resolved
	}
	return slug
}

// Search runs a filter through the cache and, on a miss, the orchestrator.
func (s *SearchService) Search(ctx context.Context, f models.SearchFilter) models.SearchResult {
	f = s.Prepare(f)
	key := cacheKey(f)

	if item := s.cache.Get(key); item != nil && !item.Expired() {
		logging.Debugf("search", "Cache hit for %s", Describe(f))
		return item.Value().Clone()
	}

	result, run := s.Execute(ctx, f)
	if err := s.store.RecordRun(ctx, run); err != nil {
		logging.Warnf("search", "Warning: failed to record run %s: %v", run.ID, err)
	}
	// empty results are usually upstream trouble, so they are not cached
	if result.Total > 0 && s.ttl > 0 {
		cached := result.Clone()
		s.cache.Set(key, &cached, s.ttl)
	}
	return result
}

// Execute bypasses the cache and returns the finished run without storing it.
// f must already be prepared.
func (s *SearchService) Execute(ctx context.Context, f models.SearchFilter) (models.SearchResult, *models.SearchRun) {
	run := models.NewSearchRun(s.source, Describe(f))
	result, report := s.orchestrator.Search(ctx, f)
	run.Finish(report.LastPath(), report.Tier, result.Total)
	return result, run
}

// SearchText merges what the message mentions onto prev and searches once the
// filter is complete. Otherwise the outcome lists what is still missing.
func (s *SearchService) SearchText(ctx context.Context, prev models.SearchFilter, text string) models.SearchOutcome {
	f := models.MergeFilter(prev, ParseQuery(s.resolver, text))
	out := models.SearchOutcome{Filter: f, Missing: f.Missing()}
	if out.Insufficient() {
		return out
	}
	result := s.Search(ctx, f)
	out.Result = &result
	return out
}

// Describe renders a filter for logs and run records.
func Describe(f models.SearchFilter) string {
	parts := []string{string(f.Operation), string(f.PropertyType), f.Location}
	if f.PriceMin != nil {
		parts = append(parts, fmt.Sprintf("desde=%.0f", *f.PriceMin))
	}
	if f.PriceMax != nil {
		parts = append(parts, fmt.Sprintf("hasta=%.0f", *f.PriceMax))
	}
	if f.Bedrooms != nil {
		parts = append(parts, fmt.Sprintf("dorm=%d", *f.Bedrooms))
	}
	if f.Bathrooms != nil {
		parts = append(parts, fmt.Sprintf("banos=%d", *f.Bathrooms))
	}
	if f.Page > 1 {
		parts = append(parts, fmt.Sprintf("pagina=%d", f.Page))
	}
	return strings.Join(parts, " ")
}

func cacheKey(f models.SearchFilter) string {
	data, _ := json.Marshal(f)
	return fmt.Sprintf("search:%x", md5.Sum(data))
}
