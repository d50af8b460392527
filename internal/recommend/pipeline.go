package recommend

import (
	"context"
	"sync"

	"github.com/justyntemme/bookscout/internal/logger"
	"github.com/justyntemme/bookscout/internal/metrics"
	"github.com/justyntemme/bookscout/internal/models"
)

// maxResults caps how many search docs one run enriches.
const maxResults = 10

// Provider is the search backend the pipeline draws from.
type Provider interface {
	Search(ctx context.Context, genre, year string) ([]models.BookSummary, error)
	WorkDetail(ctx context.Context, id string) (*models.BookDetail, error)
}

// CoverResolver maps a cover id to the URL the frontend should load. It is
// called with 0 when a doc has no cover, and must return the placeholder
// asset path in that case.
type CoverResolver func(coverID int) string

// Pipeline turns a search query into an enriched recommendation list.
type Pipeline struct {
	provider Provider
	covers   CoverResolver
}

// NewPipeline creates a pipeline over the given provider.
func NewPipeline(provider Provider, covers CoverResolver) *Pipeline {
	return &Pipeline{
		provider: provider,
		covers:   covers,
	}
}

// Run performs one search plus a concurrent detail fan-out. The returned
// slice preserves search-result order no matter which detail lookups finish
// first. A failed detail lookup leaves its item un-enriched; only a failed
// search fails the run.
func (p *Pipeline) Run(ctx context.Context, query models.SearchQuery) ([]models.Recommendation, error) {
	docs, err := p.provider.Search(ctx, query.Genre, query.Year)
	if err != nil {
		return nil, err
	}
	if len(docs) > maxResults {
		docs = docs[:maxResults]
	}

	recs := make([]models.Recommendation, len(docs))
	var wg sync.WaitGroup
	for i, doc := range docs {
		recs[i] = models.Recommendation{
			ID:               doc.ID,
			Title:            doc.Title,
			Authors:          doc.Authors,
			FirstPublishYear: doc.FirstPublishYear,
			CoverID:          doc.CoverID,
			CoverURL:         p.covers(doc.CoverID),
		}

		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			detail, err := p.provider.WorkDetail(ctx, id)
			if err != nil {
				logger.For(ctx).WithError(err).WithField("work", id).Warn("detail lookup failed")
				metrics.DetailFailuresTotal.Inc()
				return
			}
			// Each goroutine owns exactly one index.
			recs[i].PageCount = detail.PageCount
			recs[i].Description = detail.Description
		}(i, doc.ID)
	}
	wg.Wait()

	return recs, nil
}
