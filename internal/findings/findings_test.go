package findings

import (
	"encoding/json"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxvaer/confscan/internal/scanner"
)

func result(u string, class scanner.Classification) scanner.Result {
	return scanner.Result{URL: u, Class: class, StatusCode: 200, ContentLength: 42, Reason: "size 42"}
}

func TestRecordCountsEveryClass(t *testing.T) {
	a := NewAggregator("http://t", nil)
	a.Record(result("http://t/a", scanner.NotFound))
	a.Record(result("http://t/b", scanner.NotFound))
	a.Record(result("http://t/c", scanner.Suppressed))
	a.Record(result("http://t/d", scanner.Error))
	_, added := a.Record(result("http://t/e", scanner.Sensitive))
	assert.True(t, added)

	r := a.Report(false)
	assert.Equal(t, 2, r.Counts[scanner.NotFound])
	assert.Equal(t, 1, r.Counts[scanner.Suppressed])
	assert.Equal(t, 1, r.Counts[scanner.Error])
	assert.Equal(t, 1, r.Counts[scanner.Sensitive])
	assert.Equal(t, 1, r.Total())
	assert.Equal(t, "http://t", r.Target)
	assert.False(t, r.Interrupted)
}

func TestRecordDeduplicatesByNormalizedURL(t *testing.T) {
	var events []Event
	a := NewAggregator("http://t", SinkFunc(func(e Event) { events = append(events, e) }))

	_, added := a.Record(result("HTTP://T/backup/", scanner.Sensitive))
	require.True(t, added)
	_, added = a.Record(result("http://t/backup", scanner.Sensitive))
	assert.False(t, added)
	_, added = a.Record(result("http://t/backup", scanner.Forbidden))
	assert.False(t, added, "forbidden must not downgrade a sensitive finding")

	assert.Equal(t, 1, a.Len())
	require.Len(t, events, 1)
	assert.Equal(t, "http://t/backup", events[0].URL)
	assert.Equal(t, "size 42", events[0].Evidence)
}

func TestForbiddenUpgradedToSensitive(t *testing.T) {
	var events []Event
	a := NewAggregator("http://t", SinkFunc(func(e Event) { events = append(events, e) }))

	a.Record(result("http://t/.git/config", scanner.Forbidden))
	f, changed := a.Record(result("http://t/.git/config", scanner.Sensitive))
	require.True(t, changed)
	assert.Equal(t, scanner.Sensitive, f.Class)

	require.Len(t, events, 2)
	assert.False(t, events[0].Upgraded)
	assert.True(t, events[1].Upgraded)

	r := a.Report(false)
	assert.Len(t, r.Sensitive, 1)
	assert.Empty(t, r.Forbidden)
}

func TestReportIndependentOfRecordOrder(t *testing.T) {
	inputs := []scanner.Result{
		result("http://t/.env", scanner.Sensitive),
		result("http://t/.git/config", scanner.Forbidden),
		result("http://t/.git/config", scanner.Sensitive),
		result("http://t/admin/", scanner.Forbidden),
		result("http://t/admin", scanner.Forbidden),
		result("http://t/backup.zip", scanner.Sensitive),
		result("http://t/nope", scanner.NotFound),
	}

	want := NewAggregator("http://t", nil)
	for _, r := range inputs {
		want.Record(r)
	}
	expected := want.Report(false)

	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 20; i++ {
		shuffled := append([]scanner.Result(nil), inputs...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		a := NewAggregator("http://t", nil)
		for _, r := range shuffled {
			a.Record(r)
		}
		got := a.Report(false)
		assert.Equal(t, expected.Sensitive, got.Sensitive)
		assert.Equal(t, expected.Forbidden, got.Forbidden)
		assert.Equal(t, expected.Counts, got.Counts)
	}
}

func TestReportSortedAndGrouped(t *testing.T) {
	a := NewAggregator("http://t", nil)
	a.Record(result("http://t/z.sql", scanner.Sensitive))
	a.Record(result("http://t/b/", scanner.Forbidden))
	a.Record(result("http://t/a.env", scanner.Sensitive))
	a.Record(result("http://t/a/", scanner.Forbidden))

	r := a.Report(true)
	require.Len(t, r.Sensitive, 2)
	require.Len(t, r.Forbidden, 2)
	assert.Equal(t, "http://t/a.env", r.Sensitive[0].URL)
	assert.Equal(t, "http://t/z.sql", r.Sensitive[1].URL)
	assert.Equal(t, "http://t/a", r.Forbidden[0].URL)
	assert.Empty(t, r.Forbidden[0].Evidence)
	assert.True(t, r.Interrupted)
	assert.GreaterOrEqual(t, int64(r.Elapsed), int64(0))
}

func TestRecordConcurrent(t *testing.T) {
	var mu sync.Mutex
	emitted := 0
	a := NewAggregator("http://t", SinkFunc(func(Event) {
		mu.Lock()
		emitted++
		mu.Unlock()
	}))

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				a.Record(result("http://t/same", scanner.Sensitive))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, a.Len())
	assert.Equal(t, 1, emitted)
	assert.Equal(t, 800, a.Report(false).Counts[scanner.Sensitive])
}

func TestReportJSONUsesClassNames(t *testing.T) {
	a := NewAggregator("http://t", nil)
	a.Record(result("http://t/.env", scanner.Sensitive))
	a.Record(result("http://t/x", scanner.NotFound))

	data, err := json.Marshal(a.Report(false))
	require.NoError(t, err)
	s := string(data)
	assert.Contains(t, s, `"class":"sensitive"`)
	assert.Contains(t, s, `"not-found":1`)
}

func TestMultiSink(t *testing.T) {
	var a, b int
	m := MultiSink{SinkFunc(func(Event) { a++ }), SinkFunc(func(Event) { b++ })}
	m.Emit(Event{})
	assert.Equal(t, 1, a)
	assert.Equal(t, 1, b)
}
