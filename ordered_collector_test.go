package asyncq

import (
	"testing"
	"time"
)

func TestOrderedCollectorEmitsContiguousPrefix(t *testing.T) {
	events := make(chan completionEvent[int], 4)
	results := make(chan completionEvent[int], 4)
	c := newOrderedCollector[int](events, results)
	go c.run(4)

	// Deliver out of order: 2, 0, 1, 3.
	events <- completionEvent[int]{idx: 2, val: 20}
	events <- completionEvent[int]{idx: 0, val: 0}
	events <- completionEvent[int]{idx: 1, val: 10}
	events <- completionEvent[int]{idx: 3, val: 30}
	close(events)

	want := []int{0, 10, 20, 30}
	for i, w := range want {
		select {
		case ev := <-results:
			if ev.val != w {
				t.Fatalf("result %d: got %d, want %d", i, ev.val, w)
			}
		case <-time.After(time.Second):
			t.Fatalf("result %d: never arrived", i)
		}
	}
}
