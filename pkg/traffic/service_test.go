package traffic

import (
	"context"
	"net/http"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/jojapi/border-gates/internal/testutil"
	"github.com/jojapi/border-gates/pkg/cache"
	"github.com/jojapi/border-gates/pkg/gates"
	"github.com/jojapi/border-gates/pkg/scraper"
)

var fixtureRows = [][]string{
	{"Kapıkule", "Bulgaria", "Normal", "30-45 min", "2024-12-15 14:30"},
	{"Hamzabeyli", "Bulgaria", "Busy", "60-90 min", "2024-12-15 14:25"},
}

// fakeFetcher serves canned HTML or a canned error, counting calls.
type fakeFetcher struct {
	mu    sync.Mutex
	html  []byte
	err   error
	calls int
	block chan struct{} // when set, Fetch waits on it
}

func (f *fakeFetcher) Fetch(ctx context.Context, r gates.DateRange) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	html, err := f.html, f.err
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}
	return html, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testRange(t *testing.T) gates.DateRange {
	t.Helper()
	r, err := gates.ParseRange("01-12-2024", "31-12-2024")
	if err != nil {
		t.Fatalf("ParseRange failed: %v", err)
	}
	return r
}

func newTestService(t *testing.T, fetcher Fetcher) *Service {
	t.Helper()
	return NewService(fetcher, cache.NewMemory(cache.DefaultConfig()))
}

func wantMatrix() gates.Matrix {
	return gates.Matrix{
		{"Kapıkule", "Bulgaria", "Normal", "30-45 min", "2024-12-15 14:30"},
		{"Hamzabeyli", "Bulgaria", "Busy", "60-90 min", "2024-12-15 14:25"},
	}
}

func TestService_LiveThenCache(t *testing.T) {
	fetcher := &fakeFetcher{html: []byte(testutil.BuildPage(fixtureRows))}
	svc := newTestService(t, fetcher)
	ctx := context.Background()

	first, err := svc.Get(ctx, testRange(t), nil)
	if err != nil {
		t.Fatalf("first Get failed: %v", err)
	}
	if first.Source != SourceLive {
		t.Errorf("first source = %q, want %q", first.Source, SourceLive)
	}
	if !reflect.DeepEqual(first.Gates, wantMatrix()) {
		t.Errorf("first matrix = %v, want %v", first.Gates, wantMatrix())
	}

	second, err := svc.Get(ctx, testRange(t), nil)
	if err != nil {
		t.Fatalf("second Get failed: %v", err)
	}
	if second.Source != SourceCache {
		t.Errorf("second source = %q, want %q", second.Source, SourceCache)
	}
	if !reflect.DeepEqual(second.Gates, first.Gates) {
		t.Errorf("cached matrix differs from live one")
	}

	if fetcher.callCount() != 1 {
		t.Errorf("upstream fetched %d times, want 1", fetcher.callCount())
	}
}

func TestService_FilterCaseInsensitive(t *testing.T) {
	fetcher := &fakeFetcher{html: []byte(testutil.BuildPage(fixtureRows))}
	svc := newTestService(t, fetcher)

	result, err := svc.Get(context.Background(), testRange(t), []string{"hamzabeyli"})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(result.Gates) != 1 || result.Gates[0][0] != "Hamzabeyli" {
		t.Errorf("filtered matrix = %v, want only the Hamzabeyli row", result.Gates)
	}
}

func TestService_FilterBakedIntoCacheKey(t *testing.T) {
	fetcher := &fakeFetcher{html: []byte(testutil.BuildPage(fixtureRows))}
	svc := newTestService(t, fetcher)
	ctx := context.Background()

	if _, err := svc.Get(ctx, testRange(t), []string{"Hamzabeyli"}); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	// Same filter set under different order and case hits the same entry.
	result, err := svc.Get(ctx, testRange(t), []string{"HAMZABEYLI"})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if result.Source != SourceCache {
		t.Errorf("source = %q, want cache hit for equivalent filter", result.Source)
	}

	// A different filter set misses and refetches.
	if _, err := svc.Get(ctx, testRange(t), nil); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if fetcher.callCount() != 2 {
		t.Errorf("upstream fetched %d times, want 2", fetcher.callCount())
	}
}

func TestService_InvalidRange(t *testing.T) {
	fetcher := &fakeFetcher{html: []byte(testutil.BuildPage(fixtureRows))}
	svc := newTestService(t, fetcher)

	inverted := gates.DateRange{
		Start: time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
	}

	_, err := svc.Get(context.Background(), inverted, nil)
	if CodeOf(err) != CodeInvalidDateRange {
		t.Errorf("expected INVALID_DATE_RANGE, got %v", err)
	}
	if fetcher.callCount() != 0 {
		t.Error("invalid range must not reach the upstream")
	}
}

func TestService_UpstreamUnavailable_NothingCached(t *testing.T) {
	fetcher := &fakeFetcher{
		err: &scraper.Error{Kind: scraper.KindUpstreamStatus, StatusCode: http.StatusServiceUnavailable, Message: "503 Service Unavailable"},
	}
	store := cache.NewMemory(cache.DefaultConfig())
	svc := NewService(fetcher, store)
	ctx := context.Background()

	_, err := svc.Get(ctx, testRange(t), nil)
	if CodeOf(err) != CodeDataSourceError {
		t.Fatalf("expected DATA_SOURCE_ERROR, got %v", err)
	}

	stats, statsErr := store.Stats(ctx)
	if statsErr != nil {
		t.Fatalf("Stats failed: %v", statsErr)
	}
	if stats.Entries != 0 {
		t.Errorf("failed fetch created %d cache entries, want 0", stats.Entries)
	}

	// The failure is terminal per request, not sticky: a later success fetches again.
	fetcher.mu.Lock()
	fetcher.err = nil
	fetcher.html = []byte(testutil.BuildPage(fixtureRows))
	fetcher.mu.Unlock()

	result, err := svc.Get(ctx, testRange(t), nil)
	if err != nil {
		t.Fatalf("Get after recovery failed: %v", err)
	}
	if result.Source != SourceLive {
		t.Errorf("source = %q, want live after recovery", result.Source)
	}
}

func TestService_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"timeout", &scraper.Error{Kind: scraper.KindTimeout}, CodeDataSourceError},
		{"transport", &scraper.Error{Kind: scraper.KindTransport}, CodeDataSourceError},
		{"bad status", &scraper.Error{Kind: scraper.KindUpstreamStatus, StatusCode: 502}, CodeDataSourceError},
		{"unexpected", context.Canceled, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, &fakeFetcher{err: tt.err})
			_, err := svc.Get(context.Background(), testRange(t), nil)
			if CodeOf(err) != tt.want {
				t.Errorf("code = %v, want %v (err: %v)", CodeOf(err), tt.want, err)
			}
		})
	}
}

func TestService_ParseFailures(t *testing.T) {
	tests := []struct {
		name string
		html string
		want Code
	}{
		{"no table", "<html><body><p>down</p></body></html>", CodeDataSourceError},
		{"empty table", "<html><body><table><tr><th>Kapı</th></tr></table></body></html>", CodeNoDataFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, &fakeFetcher{html: []byte(tt.html)})
			_, err := svc.Get(context.Background(), testRange(t), nil)
			if CodeOf(err) != tt.want {
				t.Errorf("code = %v, want %v (err: %v)", CodeOf(err), tt.want, err)
			}
		})
	}
}

func TestService_SingleFlight(t *testing.T) {
	release := make(chan struct{})
	fetcher := &fakeFetcher{
		html:  []byte(testutil.BuildPage(fixtureRows)),
		block: release,
	}
	svc := newTestService(t, fetcher)
	ctx := context.Background()

	const concurrent = 5
	var wg sync.WaitGroup
	results := make([]*Result, concurrent)
	errs := make([]error, concurrent)

	for i := 0; i < concurrent; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Get(ctx, testRange(t), nil)
		}(i)
	}

	// Give all goroutines time to join the in-flight fetch, then release it.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < concurrent; i++ {
		if errs[i] != nil {
			t.Fatalf("request %d failed: %v", i, errs[i])
		}
		if !reflect.DeepEqual(results[i].Gates, wantMatrix()) {
			t.Errorf("request %d matrix = %v, want %v", i, results[i].Gates, wantMatrix())
		}
	}

	if got := fetcher.callCount(); got != 1 {
		t.Errorf("upstream fetched %d times under concurrency, want 1", got)
	}
}

func TestService_ResultsAreIsolated(t *testing.T) {
	fetcher := &fakeFetcher{html: []byte(testutil.BuildPage(fixtureRows))}
	svc := newTestService(t, fetcher)
	ctx := context.Background()

	first, err := svc.Get(ctx, testRange(t), nil)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	first.Gates[0][0] = "mutated"

	second, err := svc.Get(ctx, testRange(t), nil)
	if err != nil {
		t.Fatalf("second Get failed: %v", err)
	}
	if second.Gates[0][0] != "Kapıkule" {
		t.Error("mutation of a returned matrix leaked into the cache")
	}
}

// End-to-end over the real scraper client and mock upstream.
func TestService_EndToEnd(t *testing.T) {
	upstream := testutil.NewMockUpstream()
	defer upstream.Close()
	upstream.SetRows(fixtureRows)

	client, err := scraper.New(scraper.Config{
		UpstreamURL: upstream.URL(),
		Timeout:     5 * time.Second,
	})
	if err != nil {
		t.Fatalf("scraper.New failed: %v", err)
	}
	svc := NewService(client, cache.NewMemory(cache.DefaultConfig()))
	ctx := context.Background()

	live, err := svc.Get(ctx, testRange(t), nil)
	if err != nil {
		t.Fatalf("live Get failed: %v", err)
	}
	if live.Source != SourceLive || len(live.Gates) != 2 {
		t.Errorf("live = %+v, want 2 rows from live source", live)
	}

	cached, err := svc.Get(ctx, testRange(t), nil)
	if err != nil {
		t.Fatalf("cached Get failed: %v", err)
	}
	if cached.Source != SourceCache {
		t.Errorf("source = %q, want cache", cached.Source)
	}
	if !reflect.DeepEqual(cached.Gates, live.Gates) {
		t.Error("cached content differs from live content")
	}
	if upstream.Requests() != 1 {
		t.Errorf("upstream saw %d requests, want 1", upstream.Requests())
	}

	upstream.SetStatus(http.StatusServiceUnavailable)
	otherRange, err := gates.ParseRange("01-11-2024", "30-11-2024")
	if err != nil {
		t.Fatalf("ParseRange failed: %v", err)
	}
	_, err = svc.Get(ctx, otherRange, nil)
	if CodeOf(err) != CodeDataSourceError {
		t.Errorf("expected DATA_SOURCE_ERROR on 503, got %v", err)
	}
}
