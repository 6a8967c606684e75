package eligibility

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/arb-hedger/internal/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testMapping() map[string][]string {
	return map[string][]string{
		"us-nj": {"draftkings", "fanduel", "betmgm", "caesars"},
		"us-ny": {"draftkings", "fanduel", "caesars"},
		"us-pa": {"fanduel", "betmgm", "caesars"},
		"us-xx": {"pointsbet"},
	}
}

func newTestFilter() *Filter {
	return NewFilter(NewRegistry(testMapping()), NewTTLCache(time.Minute, newFakeClock()), nil)
}

func TestEligibleBookmakersIntersection(t *testing.T) {
	f := newTestFilter()

	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{"single", []string{"us-ny"}, []string{"caesars", "draftkings", "fanduel"}},
		{"two", []string{"us-nj", "us-ny"}, []string{"caesars", "draftkings", "fanduel"}},
		{"three", []string{"us-nj", "us-ny", "us-pa"}, []string{"caesars", "fanduel"}},
		{"duplicates and case", []string{"US-PA", "us-pa", " us-nj "}, []string{"betmgm", "caesars", "fanduel"}},
		{"disjoint", []string{"us-ny", "us-xx"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.EligibleBookmakers(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEligibleBookmakersCommutative(t *testing.T) {
	f := NewFilter(NewRegistry(testMapping()), nil, nil)

	a, err := f.EligibleBookmakers([]string{"us-nj", "us-pa", "us-ny"})
	require.NoError(t, err)
	b, err := f.EligibleBookmakers([]string{"us-ny", "us-nj", "us-pa"})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEligibleBookmakersSubsetOfEveryJurisdiction(t *testing.T) {
	f := newTestFilter()
	input := []string{"us-nj", "us-pa"}

	got, err := f.EligibleBookmakers(input)
	require.NoError(t, err)

	snap := f.Snapshot()
	for _, j := range input {
		books, ok := snap.Bookmakers(j)
		require.True(t, ok)
		for _, b := range got {
			assert.Contains(t, books, b)
		}
	}
}

func TestEligibleBookmakersInvalidInput(t *testing.T) {
	f := newTestFilter()

	_, err := f.EligibleBookmakers(nil)
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = f.EligibleBookmakers([]string{"", "  "})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = f.EligibleBookmakers([]string{"us-nj", "zz-unknown"})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestCachedResultIsACopy(t *testing.T) {
	f := newTestFilter()

	first, err := f.EligibleBookmakers([]string{"us-ny"})
	require.NoError(t, err)
	first[0] = "mutated"

	second, err := f.EligibleBookmakers([]string{"us-ny"})
	require.NoError(t, err)
	assert.Equal(t, "caesars", second[0])
}

func TestPublishInvalidatesCachedResults(t *testing.T) {
	reg := NewRegistry(testMapping())
	f := NewFilter(reg, NewTTLCache(time.Hour, newFakeClock()), nil)

	before, err := f.EligibleBookmakers([]string{"us-ny"})
	require.NoError(t, err)
	assert.Len(t, before, 3)

	reg.Publish(map[string][]string{"us-ny": {"fanduel"}})

	after, err := f.EligibleBookmakers([]string{"us-ny"})
	require.NoError(t, err)
	assert.Equal(t, []string{"fanduel"}, after)
}

func TestRegistrySnapshotsAreImmutable(t *testing.T) {
	mapping := testMapping()
	reg := NewRegistry(mapping)
	snap := reg.Snapshot()

	mapping["us-ny"] = append(mapping["us-ny"], "newbook")
	books, _ := snap.Bookmakers("us-ny")
	assert.NotContains(t, books, "newbook")

	next := reg.Publish(mapping)
	assert.Equal(t, snap.Version()+1, next.Version())
	books, _ = snap.Bookmakers("us-ny")
	assert.NotContains(t, books, "newbook")
}

func TestSnapshotReverseLookup(t *testing.T) {
	snap := NewRegistry(testMapping()).Snapshot()

	assert.Equal(t, []string{"us-nj", "us-ny"}, snap.JurisdictionsFor("DraftKings"))
	assert.Empty(t, snap.JurisdictionsFor("unknown"))
	assert.Equal(t, []string{"us-nj", "us-ny", "us-pa", "us-xx"}, snap.Jurisdictions())
}

func TestConcurrentReadsDuringPublish(t *testing.T) {
	reg := NewRegistry(testMapping())
	f := NewFilter(reg, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 0; n < 200; n++ {
				got, err := f.EligibleBookmakers([]string{"us-ny", "us-pa"})
				assert.NoError(t, err)
				assert.NotNil(t, got)
			}
		}()
	}
	for n := 0; n < 50; n++ {
		reg.Publish(testMapping())
	}
	wg.Wait()
}
