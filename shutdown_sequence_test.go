package asyncq

import "testing"

func TestShutdownSequenceRunsBothStepsInOrder(t *testing.T) {
	var order []string
	s := newShutdownSequence(
		func() { order = append(order, "stop") },
		func() { order = append(order, "drain") },
	)
	s.run()

	if len(order) != 2 || order[0] != "stop" || order[1] != "drain" {
		t.Fatalf("run: got order %v, want [stop drain]", order)
	}
}

func TestShutdownSequenceRunIsIdempotent(t *testing.T) {
	calls := 0
	s := newShutdownSequence(
		func() { calls++ },
		func() { calls++ },
	)
	s.run()
	s.run()
	if calls != 2 {
		t.Fatalf("run called twice: got %d total step invocations, want 2", calls)
	}
}

func TestShutdownSequenceNilStepsAllowed(t *testing.T) {
	s := newShutdownSequence(nil, nil)
	s.run()
}
