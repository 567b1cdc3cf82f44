package asyncq

import "sync/atomic"

// ChannelProvider is an ordered sequence of one or more connections with
// an atomic round-robin counter. SelectNext returns connection
// counter.fetch_add(1) mod length.
type ChannelProvider[C any] struct {
	channels []C
	counter  atomic.Uint64
}

// NewChannelProvider constructs a ChannelProvider over one or more
// connections. It panics if channels is empty — round-robin over zero
// connections has no sensible definition.
func NewChannelProvider[C any](channels ...C) *ChannelProvider[C] {
	if len(channels) == 0 {
		panic(ErrNoChannels)
	}
	return &ChannelProvider[C]{channels: channels}
}

// SelectNext returns the next connection in round-robin order.
func (p *ChannelProvider[C]) SelectNext() C {
	n := p.counter.Add(1) - 1
	return p.channels[n%uint64(len(p.channels))]
}

// Len returns the number of connections.
func (p *ChannelProvider[C]) Len() int { return len(p.channels) }
