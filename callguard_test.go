package asyncq

import "testing"

func TestCallGuardBeginEnd(t *testing.T) {
	var g callGuard
	g.begin()
	g.end()
	g.assertNoOutstanding()
}

func TestCallGuardDoubleBeginPanics(t *testing.T) {
	var g callGuard
	g.begin()
	defer g.end()

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("begin while outstanding: expected panic, got none")
		}
	}()
	g.begin()
}

func TestCallGuardAssertNoOutstandingPanics(t *testing.T) {
	var g callGuard
	g.begin()
	defer g.end()

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("assertNoOutstanding with a pending operation: expected panic, got none")
		}
	}()
	g.assertNoOutstanding()
}
