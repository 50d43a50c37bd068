//go:build test

package suggest

import (
	"fmt"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/bastiangx/mentionserve/pkg/query"
	"github.com/charmbracelet/log"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

var typedQueries = [][]string{
	{"@j", "@jo", "@joh", "@john", "@joh", "@jo"},
	{"@d", "@do", "@dor", "@dora"},
	{"smit", "smith"},
	{"@", "@z", "@ze", "@zed"},
}

func leakReceiver(t *testing.T) *IndexReceiver {
	t.Helper()
	r := NewIndexReceiver(10, 64)
	people := NewIndex("people")
	company := NewIndex("company")
	for i := 0; i < 500; i++ {
		if err := people.Add(Entry{ID: i, Text: fmt.Sprintf("John Doe %d", i), Weight: i % 7}); err != nil {
			t.Fatal(err)
		}
		if err := company.Add(Entry{ID: i, Text: fmt.Sprintf("Dora Smith %d", i), Weight: i % 5}); err != nil {
			t.Fatal(err)
		}
	}
	r.SetIndex(people)
	r.SetIndex(company)
	return r
}

func TestReceiverGoroutineLeak(t *testing.T) {
	for _, iterations := range []int{100, 1000} {
		t.Run(fmt.Sprintf("iterations_%d", iterations), func(t *testing.T) {
			r := leakReceiver(t)

			runtime.GC()
			baseline := runtime.NumGoroutine()

			var mu sync.Mutex
			agg := NewAggregator(KeywordRank(BucketOrder("people", "company")))
			listener := ResultListenerFunc(func(bucket string, result Result) {
				mu.Lock()
				defer mu.Unlock()
				agg.Receive(bucket, result)
			})

			for i := 0; i < iterations; i++ {
				for _, typed := range typedQueries {
					for _, s := range typed {
						token := query.NewQueryToken(s)
						if s[0] == '@' {
							token = query.NewExplicitQueryToken(s, '@')
						}
						mu.Lock()
						agg.Begin(token)
						mu.Unlock()
						buckets := r.OnQueryReceived(token, listener)
						mu.Lock()
						agg.Expect(buckets...)
						mu.Unlock()
					}
				}
			}
			r.Wait()
			time.Sleep(10 * time.Millisecond)
			runtime.GC()

			delta := runtime.NumGoroutine() - baseline
			t.Logf("iterations=%d goroutine_delta=%d stats=%v", iterations, delta, r.Stats())
			if delta > 2 {
				t.Errorf("goroutine leak detected: %d goroutines leaked", delta)
			}
		})
	}
}

func TestResultCacheMemoryBound(t *testing.T) {
	c := NewResultCache(32)
	var baseline, final runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&baseline)

	for i := 0; i < 20000; i++ {
		c.Put("people", fmt.Sprintf("k%d", i), []Entry{{ID: i, Text: "x"}})
	}

	runtime.GC()
	runtime.ReadMemStats(&final)
	if n := c.Stats()["cacheEntries"]; n != 32 {
		t.Errorf("cacheEntries = %d, want 32", n)
	}
	t.Logf("heap delta=%d bytes", int64(final.HeapAlloc)-int64(baseline.HeapAlloc))
}
