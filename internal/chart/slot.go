package chart

import "sync"

// Instance is one drawn chart. Once released it must not be shown again.
type Instance struct {
	Plot Plot
	Text string

	mu       sync.Mutex
	released bool
}

func NewInstance(plot Plot, text string) *Instance {
	return &Instance{Plot: plot, Text: text}
}

func (i *Instance) Release() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.released = true
}

func (i *Instance) Released() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.released
}

// Slot owns at most one live chart. Draw releases the previous instance
// before building its replacement, so a redraw never leaves two charts alive.
type Slot struct {
	mu      sync.Mutex
	current *Instance
	drawn   int
}

func NewSlot() *Slot {
	return &Slot{}
}

// Draw releases the current chart and stores the one returned by build. If
// build fails the slot stays empty.
func (s *Slot) Draw(build func() (*Instance, error)) (*Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.releaseLocked()
	inst, err := build()
	if err != nil {
		return nil, err
	}
	s.current = inst
	s.drawn++
	return inst, nil
}

// Release drops the current chart, if any. Safe to call repeatedly.
func (s *Slot) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked()
}

func (s *Slot) releaseLocked() {
	if s.current != nil {
		s.current.Release()
		s.current = nil
	}
}

func (s *Slot) Current() *Instance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Live is 1 while a chart is shown and 0 otherwise.
func (s *Slot) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return 0
	}
	return 1
}

// Drawn counts successful draws over the slot's lifetime.
func (s *Slot) Drawn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drawn
}
