package domain_test

import (
	"sync"
	"testing"

	"github.com/samirrijal/mapdraw/internal/core/domain"
)

func TestNextSeq_StrictlyIncreasing(t *testing.T) {
	prev := domain.NextSeq()
	for i := 0; i < 1000; i++ {
		next := domain.NextSeq()
		if next <= prev {
			t.Fatalf("seq went from %d to %d", prev, next)
		}
		prev = next
	}
}

func TestNextSeq_UniqueAcrossGoroutines(t *testing.T) {
	const workers, per = 8, 200
	var (
		mu   sync.Mutex
		seen = make(map[int64]bool, workers*per)
		wg   sync.WaitGroup
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < per; i++ {
				n := domain.NextSeq()
				mu.Lock()
				if seen[n] {
					t.Errorf("duplicate seq %d", n)
				}
				seen[n] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
}
