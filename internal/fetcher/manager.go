package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"OpportunityRadar/internal/domain"
	"OpportunityRadar/internal/ports"
	"OpportunityRadar/internal/scanner"
	"OpportunityRadar/internal/scoring"
)

// Manager runs fetch cycles: fan-out over enabled sources through a bounded
// worker pool, score and insert the results, and collect a per-batch
// summary. A batch never fails atomically; individual source failures are
// recorded and the rest continue.
type Manager struct {
	sources       ports.SourceStore
	opportunities ports.OpportunityStore
	adapters      *scanner.Registry
	scorer        *scoring.Scorer
	logger        *slog.Logger
	concurrency   int

	cron      *cron.Cron
	mu        sync.Mutex
	isRunning bool
}

// Summary describes the outcome of one fetch batch.
type Summary struct {
	Sources   int
	Succeeded int
	Failed    int
	Inserted  int
	Duplicate int
	Errors    []string
}

// sourceResult is what one worker reports back for one source.
type sourceResult struct {
	name      string
	inserted  int
	duplicate int
	err       error
}

// Deps wires all collaborators into the manager.
type Deps struct {
	Sources       ports.SourceStore
	Opportunities ports.OpportunityStore
	Adapters      *scanner.Registry
	Scorer        *scoring.Scorer
	Logger        *slog.Logger
	Concurrency   int
}

// NewManager constructs the fetch orchestrator.
func NewManager(deps Deps) *Manager {
	concurrency := deps.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	return &Manager{
		sources:       deps.Sources,
		opportunities: deps.Opportunities,
		adapters:      deps.Adapters,
		scorer:        deps.Scorer,
		logger:        deps.Logger,
		concurrency:   concurrency,
		cron:          cron.New(),
	}
}

// Start schedules periodic fetches and kicks off one initial run in the
// background.
func (m *Manager) Start(interval time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isRunning {
		return nil
	}

	spec := fmt.Sprintf("@every %s", interval)
	if _, err := m.cron.AddFunc(spec, func() {
		summary := m.FetchAll(context.Background())
		m.info("scheduled fetch finished", "succeeded", summary.Succeeded, "failed", summary.Failed, "inserted", summary.Inserted)
	}); err != nil {
		return fmt.Errorf("schedule fetch job: %w", err)
	}

	m.cron.Start()
	m.isRunning = true
	m.info("fetch scheduler started", "interval", interval)

	go func() {
		summary := m.FetchAll(context.Background())
		m.info("initial fetch finished", "succeeded", summary.Succeeded, "failed", summary.Failed, "inserted", summary.Inserted)
	}()

	return nil
}

// Stop halts the scheduler and waits for a running cycle to finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isRunning {
		return
	}

	ctx := m.cron.Stop()
	<-ctx.Done()
	m.isRunning = false
	m.info("fetch scheduler stopped")
}

// FetchAll snapshots the enabled sources and fetches them concurrently,
// bounded by the configured worker limit. A source disabled mid-cycle
// completes in flight but is excluded from the next snapshot.
func (m *Manager) FetchAll(ctx context.Context) Summary {
	enabled, err := m.sources.Enabled(ctx)
	if err != nil {
		m.warn("cannot list enabled sources", "error", err)
		return Summary{Errors: []string{fmt.Sprintf("list sources: %v", err)}}
	}

	summary := Summary{Sources: len(enabled)}
	if len(enabled) == 0 {
		return summary
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, m.concurrency)
	results := make(chan sourceResult, len(enabled))

	for _, src := range enabled {
		wg.Add(1)
		go func(src domain.Source) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results <- m.fetchSource(ctx, src)
		}(src)
	}

	wg.Wait()
	close(results)

	for res := range results {
		if res.err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", res.name, res.err))
			m.warn("source fetch failed", "source", res.name, "error", res.err)
			continue
		}
		summary.Succeeded++
		summary.Inserted += res.inserted
		summary.Duplicate += res.duplicate
	}

	return summary
}

// fetchSource runs one adapter and feeds its items through scoring and the
// deduplicating insert.
func (m *Manager) fetchSource(ctx context.Context, src domain.Source) sourceResult {
	res := sourceResult{name: src.Name}

	adapter, err := m.adapters.Resolve(src.Type)
	if err != nil {
		res.err = err
		return res
	}

	items, err := adapter.Fetch(ctx, src)
	if err != nil {
		res.err = fmt.Errorf("fetch: %w", err)
		return res
	}

	now := time.Now().UTC()
	for _, item := range items {
		scored := m.scorer.Score(item.Title, item.Body)

		opp := domain.Opportunity{
			SourceID:    src.ID,
			Title:       item.Title,
			Description: item.Body,
			SourceType:  src.Type,
			SourceURL:   item.URL,
			ExternalID:  item.ExternalID,
			Score:       scored.Score,
			Signals:     scored.Signals,
			DetectedAt:  now,
		}

		inserted, err := m.opportunities.Insert(ctx, &opp)
		if err != nil {
			m.warn("cannot save opportunity", "source", src.Name, "title", item.Title, "error", err)
			continue
		}
		if inserted {
			res.inserted++
		} else {
			res.duplicate++
		}
	}

	m.debug("source fetched", "source", src.Name, "items", len(items), "inserted", res.inserted)
	return res
}

// Status reports the batch outcome keyword for API responses.
func (s Summary) Status() string {
	switch {
	case s.Sources == 0:
		return "ok"
	case s.Failed == 0:
		return "ok"
	case s.Succeeded == 0:
		return "failed"
	default:
		return "partial"
	}
}

// Message renders the human-readable batch summary.
func (s Summary) Message() string {
	if s.Sources == 0 {
		return "no enabled sources to fetch"
	}
	return fmt.Sprintf("fetched %d/%d sources, %d new opportunities, %d failed",
		s.Succeeded, s.Sources, s.Inserted, s.Failed)
}

func (m *Manager) debug(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Debug(msg, args...)
	}
}

func (m *Manager) info(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Info(msg, args...)
	}
}

func (m *Manager) warn(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Warn(msg, args...)
	}
}
