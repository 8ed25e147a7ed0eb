package services

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"co2-bunny/internal/core"
	"co2-bunny/internal/features/impact/database"
	"co2-bunny/internal/features/impact/migrations"
	"co2-bunny/internal/features/impact/models"
)

type fakeProviders struct {
	transferCalls atomic.Int32
	hostingCalls  atomic.Int32
	green         bool
	transferErr   error
	hostingErr    error
	delay         time.Duration

	// gate, when set, holds transfer lookups until it is closed or the
	// lookup context ends. started is closed by the first lookup.
	gate      chan struct{}
	started   chan struct{}
	startOnce sync.Once
}

func (p *fakeProviders) FetchTransferMetrics(ctx context.Context, url string) (*models.TransferMetrics, error) {
	p.transferCalls.Add(1)
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	if p.gate != nil {
		p.startOnce.Do(func() { close(p.started) })
		select {
		case <-p.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.transferErr != nil {
		return nil, p.transferErr
	}
	return &models.TransferMetrics{
		URL:                url,
		DataTransferKB:     512,
		EnergyUsedKWh:      0.0003,
		CarbonEmissions:    models.CarbonEmissions{Grid: 0.2, Renewable: 0.17},
		GreenRating:        "B",
		CleanerThanPercent: 64,
	}, nil
}

func (p *fakeProviders) FetchHostingMetrics(ctx context.Context, url string) (*models.HostingMetrics, error) {
	p.hostingCalls.Add(1)
	if p.hostingErr != nil {
		return nil, p.hostingErr
	}
	metrics := &models.HostingMetrics{
		URL:                  url,
		GreenHosting:         p.green,
		Provider:             "Unknown",
		SustainabilityReport: "No sustainability report available",
	}
	if p.green {
		metrics.Provider = "Green Host Ltd"
		metrics.CarbonSavingsGrams = 10
	}
	return metrics, nil
}

func (p *fakeProviders) calls() int32 {
	return p.transferCalls.Load() + p.hostingCalls.Load()
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	aggregator *Aggregator
	history    *History
	store      *database.AnalysisStore
	providers  *fakeProviders
	clock      *testClock
}

func setup(t *testing.T, providers *fakeProviders) *fixture {
	t.Helper()

	logger := core.NewDiscardLogger()
	db, err := core.OpenDatabase(":memory:", logger)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := migrations.NewManager(db, logger).Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	clock := &testClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := database.NewAnalysisStore(db).WithClock(clock.Now)

	return &fixture{
		aggregator: NewAggregator(logger, core.NewMetrics(), store, providers, 24*time.Hour),
		history:    NewHistory(logger, store),
		store:      store,
		providers:  providers,
		clock:      clock,
	}
}

func (f *fixture) count(t *testing.T) int {
	t.Helper()
	n, err := f.store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	return n
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCalculateGreenHost(t *testing.T) {
	f := setup(t, &fakeProviders{green: true})

	result, err := f.aggregator.Calculate(context.Background(), "example.com", "100000")
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	if result.Cached || result.Message != "" {
		t.Errorf("expected a fresh result, got cached=%v message=%q", result.Cached, result.Message)
	}
	if !almostEqual(result.TotalAnnualEmissionsKg, 29.99) {
		t.Errorf("TotalAnnualEmissionsKg = %v, want 29.99", result.TotalAnnualEmissionsKg)
	}
	if result.CarbonPerViewG != 0.3 || result.AnnualPageViews != 100000 {
		t.Errorf("unexpected traffic fields: %+v", result.WebsiteAnalysis)
	}
	if !result.GreenHosting || result.Provider != "Green Host Ltd" {
		t.Errorf("unexpected hosting fields: %+v", result.WebsiteAnalysis)
	}
	if result.DataTransferKB != 512 || result.CarbonEmissionsG.Grid != 0.2 {
		t.Errorf("unexpected transfer fields: %+v", result.WebsiteAnalysis)
	}
	if result.ID == "" || result.CreatedAt.IsZero() {
		t.Errorf("expected stored identity, got %+v", result.WebsiteAnalysis)
	}
	if f.count(t) != 1 {
		t.Errorf("expected one stored row, got %d", f.count(t))
	}
}

func TestCalculateTotals(t *testing.T) {
	tests := []struct {
		name  string
		green bool
		views string
		want  float64
	}{
		{"grey host", false, "100000", 30.0},
		{"green host", true, "100000", 29.99},
		{"zero views grey", false, "0", 0},
		{"zero views green goes negative", true, "0", -0.01},
		{"numeric string with spaces", false, " 1000 ", 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t, &fakeProviders{green: tt.green})

			result, err := f.aggregator.Calculate(context.Background(), "example.com", tt.views)
			if err != nil {
				t.Fatalf("Calculate failed: %v", err)
			}
			if !almostEqual(result.TotalAnnualEmissionsKg, tt.want) {
				t.Errorf("TotalAnnualEmissionsKg = %v, want %v", result.TotalAnnualEmissionsKg, tt.want)
			}
		})
	}
}

func TestCalculateUsesCacheWithinWindow(t *testing.T) {
	f := setup(t, &fakeProviders{green: true})
	ctx := context.Background()

	first, err := f.aggregator.Calculate(ctx, "example.com", "100000")
	if err != nil {
		t.Fatalf("first Calculate failed: %v", err)
	}

	f.clock.Advance(23 * time.Hour)

	second, err := f.aggregator.Calculate(ctx, "example.com", "100000")
	if err != nil {
		t.Fatalf("second Calculate failed: %v", err)
	}

	if !second.Cached {
		t.Fatal("expected a cache hit")
	}
	if second.Message != "Using cached analysis from the last 24 hours" {
		t.Errorf("Message = %q", second.Message)
	}
	if second.ID != first.ID || second.TotalAnnualEmissionsKg != first.TotalAnnualEmissionsKg {
		t.Errorf("cached result differs: %+v vs %+v", second.WebsiteAnalysis, first.WebsiteAnalysis)
	}
	if f.providers.calls() != 2 {
		t.Errorf("expected 2 provider calls in total, got %d", f.providers.calls())
	}
	if f.count(t) != 1 {
		t.Errorf("expected one stored row, got %d", f.count(t))
	}
}

func TestCalculateRecomputesAfterWindow(t *testing.T) {
	f := setup(t, &fakeProviders{})
	ctx := context.Background()

	first, err := f.aggregator.Calculate(ctx, "example.com", "100000")
	if err != nil {
		t.Fatalf("first Calculate failed: %v", err)
	}

	f.clock.Advance(25 * time.Hour)

	second, err := f.aggregator.Calculate(ctx, "example.com", "100000")
	if err != nil {
		t.Fatalf("second Calculate failed: %v", err)
	}

	if second.Cached || second.ID == first.ID {
		t.Errorf("expected a new analysis after the window, got %+v", second)
	}
	if f.count(t) != 2 {
		t.Errorf("expected two stored rows, got %d", f.count(t))
	}
}

func TestCalculateCacheKeyIsExact(t *testing.T) {
	f := setup(t, &fakeProviders{})
	ctx := context.Background()

	for _, input := range []struct{ url, views string }{
		{"example.com", "100000"},
		{"example.com", "100001"},
		{"https://example.com", "100000"},
	} {
		result, err := f.aggregator.Calculate(ctx, input.url, input.views)
		if err != nil {
			t.Fatalf("Calculate(%q, %q) failed: %v", input.url, input.views, err)
		}
		if result.Cached {
			t.Errorf("Calculate(%q, %q) unexpectedly hit the cache", input.url, input.views)
		}
	}

	if f.count(t) != 3 {
		t.Errorf("expected three stored rows, got %d", f.count(t))
	}
}

func TestCalculateRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		url   string
		views string
	}{
		{"negative views", "example.com", "-5"},
		{"non-numeric views", "example.com", "abc"},
		{"missing views", "example.com", ""},
		{"fractional views", "example.com", "10.5"},
		{"infinite views", "example.com", "Inf"},
		{"missing url", "", "100"},
		{"blank url", "   ", "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t, &fakeProviders{})

			_, err := f.aggregator.Calculate(context.Background(), tt.url, tt.views)
			if !core.IsCode(err, core.ErrCodeValidation) {
				t.Fatalf("error = %v, want validation error", err)
			}
			if f.providers.calls() != 0 {
				t.Errorf("expected no provider calls, got %d", f.providers.calls())
			}
			if f.count(t) != 0 {
				t.Errorf("expected no stored rows, got %d", f.count(t))
			}
		})
	}
}

func TestCalculateProviderFailurePersistsNothing(t *testing.T) {
	tests := []struct {
		name      string
		providers *fakeProviders
	}{
		{"transfer fails", &fakeProviders{transferErr: core.NewUpstreamError("websitecarbon returned status 500", nil)}},
		{"hosting fails", &fakeProviders{hostingErr: core.NewUpstreamError("greenweb returned status 500", nil)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t, tt.providers)

			_, err := f.aggregator.Calculate(context.Background(), "example.com", "100000")
			if !core.IsCode(err, core.ErrCodeUpstream) {
				t.Fatalf("error = %v, want upstream error", err)
			}
			if f.count(t) != 0 {
				t.Errorf("expected no stored rows, got %d", f.count(t))
			}
		})
	}
}

func TestCalculateCoalescesConcurrentRequests(t *testing.T) {
	f := setup(t, &fakeProviders{delay: 50 * time.Millisecond})

	const callers = 5
	var wg sync.WaitGroup
	ids := make([]string, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := f.aggregator.Calculate(context.Background(), "example.com", "100000")
			errs[i] = err
			if result != nil {
				ids[i] = result.ID
			}
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("caller %d failed: %v", i, err)
		}
		if ids[i] != ids[0] {
			t.Errorf("caller %d got id %s, want %s", i, ids[i], ids[0])
		}
	}
	if f.count(t) != 1 {
		t.Errorf("expected one stored row, got %d", f.count(t))
	}
}

func TestCalculateSharedWorkSurvivesCallerCancel(t *testing.T) {
	providers := &fakeProviders{gate: make(chan struct{}), started: make(chan struct{})}
	f := setup(t, providers)

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()

	errA := make(chan error, 1)
	go func() {
		_, err := f.aggregator.Calculate(ctxA, "example.com", "100000")
		errA <- err
	}()
	<-providers.started

	type outcome struct {
		result *models.CalculationResult
		err    error
	}
	doneB := make(chan outcome, 1)
	go func() {
		result, err := f.aggregator.Calculate(context.Background(), "example.com", "100000")
		doneB <- outcome{result, err}
	}()

	// Let the second caller join the in-flight calculation
	time.Sleep(50 * time.Millisecond)
	cancelA()

	if err := <-errA; !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled caller error = %v, want context.Canceled", err)
	}

	close(providers.gate)
	b := <-doneB
	if b.err != nil {
		t.Fatalf("second caller failed: %v", b.err)
	}
	if b.result == nil || b.result.ID == "" {
		t.Fatalf("second caller got no analysis: %+v", b.result)
	}
	if f.count(t) != 1 {
		t.Errorf("expected one stored row, got %d", f.count(t))
	}
	if providers.transferCalls.Load() != 1 {
		t.Errorf("expected one transfer lookup, got %d", providers.transferCalls.Load())
	}
}

// failingInsertStore fails every Insert while fail is set
type failingInsertStore struct {
	*database.AnalysisStore
	fail atomic.Bool
}

func (s *failingInsertStore) Insert(ctx context.Context, analysis *models.WebsiteAnalysis) (*models.WebsiteAnalysis, error) {
	if s.fail.Load() {
		return nil, core.NewDatabaseError("failed to insert analysis", errors.New("disk I/O error"))
	}
	return s.AnalysisStore.Insert(ctx, analysis)
}

func TestCalculateStoreFailurePersistsNothing(t *testing.T) {
	f := setup(t, &fakeProviders{green: true})

	store := &failingInsertStore{AnalysisStore: f.store}
	store.fail.Store(true)
	aggregator := NewAggregator(core.NewDiscardLogger(), nil, store, f.providers, 24*time.Hour)

	_, err := aggregator.Calculate(context.Background(), "example.com", "100000")
	if !core.IsCode(err, core.ErrCodeDatabase) {
		t.Fatalf("error = %v, want database error", err)
	}
	if f.count(t) != 0 {
		t.Fatalf("expected no stored rows, got %d", f.count(t))
	}

	store.fail.Store(false)
	result, err := aggregator.Calculate(context.Background(), "example.com", "100000")
	if err != nil {
		t.Fatalf("Calculate after recovery failed: %v", err)
	}
	if result.Cached || result.Message != "" {
		t.Errorf("expected a fresh analysis after the failed write, got cached=%v message=%q", result.Cached, result.Message)
	}
	if f.providers.calls() != 4 {
		t.Errorf("expected the providers to be called again, got %d calls", f.providers.calls())
	}
	if f.count(t) != 1 {
		t.Errorf("expected one stored row, got %d", f.count(t))
	}
}

func TestSingleMetricOperations(t *testing.T) {
	f := setup(t, &fakeProviders{green: true})
	ctx := context.Background()

	transfer, err := f.aggregator.DataTransfer(ctx, "example.com")
	if err != nil {
		t.Fatalf("DataTransfer failed: %v", err)
	}
	if transfer.CleanerThan() != "64%" {
		t.Errorf("CleanerThan = %q, want 64%%", transfer.CleanerThan())
	}

	hosting, err := f.aggregator.EnergySource(ctx, "example.com")
	if err != nil {
		t.Fatalf("EnergySource failed: %v", err)
	}
	if hosting.CarbonSavingsGrams != 10 {
		t.Errorf("CarbonSavingsGrams = %v, want 10", hosting.CarbonSavingsGrams)
	}

	estimate, err := f.aggregator.Traffic("example.com", "100000")
	if err != nil {
		t.Fatalf("Traffic failed: %v", err)
	}
	if !almostEqual(estimate.TotalAnnualEmissionsKg, 30) {
		t.Errorf("TotalAnnualEmissionsKg = %v, want 30", estimate.TotalAnnualEmissionsKg)
	}

	if _, err := f.aggregator.DataTransfer(ctx, ""); !core.IsCode(err, core.ErrCodeValidation) {
		t.Errorf("DataTransfer(\"\") error = %v, want validation error", err)
	}
	if _, err := f.aggregator.Traffic("example.com", "abc"); !core.IsCode(err, core.ErrCodeValidation) {
		t.Errorf("Traffic(abc) error = %v, want validation error", err)
	}

	if f.count(t) != 0 {
		t.Errorf("single-metric operations must not store rows, got %d", f.count(t))
	}
}

func TestDescribeWindow(t *testing.T) {
	tests := map[time.Duration]string{
		24 * time.Hour:   "24 hours",
		time.Hour:        "hour",
		90 * time.Minute: "1h30m0s",
	}
	for window, want := range tests {
		if got := describeWindow(window); got != want {
			t.Errorf("describeWindow(%v) = %q, want %q", window, got, want)
		}
	}
}

func TestUpstreamErrorUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	f := setup(t, &fakeProviders{transferErr: core.NewUpstreamError("Error contacting websitecarbon", cause)})

	_, err := f.aggregator.Calculate(context.Background(), "example.com", "1")
	if !errors.Is(err, cause) {
		t.Errorf("expected the provider cause to be preserved, got %v", err)
	}
}
