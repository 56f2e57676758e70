// Package haptics is the delivery boundary for vibration pulses. The round
// engine decides who feels what and when; rendering a pulse on a device is
// someone else's problem behind the Engine interface.
package haptics

import (
	"context"
	"sync"
)

// Engine delivers one discrete pulse to one player's device. seq is
// 1-based, total is the full pulse count of the round so clients can
// render progress without being told the truth early.
type Engine interface {
	DeliverPulse(ctx context.Context, roomCode, playerID string, seq, total int) error
}

// Nop drops every pulse. Used when no realtime transport is wired.
type Nop struct{}

func (Nop) DeliverPulse(ctx context.Context, roomCode, playerID string, seq, total int) error {
	return nil
}

// Recorder counts deliveries per player. Test double.
type Recorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func NewRecorder() *Recorder {
	return &Recorder{counts: make(map[string]int)}
}

func (r *Recorder) DeliverPulse(ctx context.Context, roomCode, playerID string, seq, total int) error {
	r.mu.Lock()
	r.counts[playerID]++
	r.mu.Unlock()
	return nil
}

// Count returns how many pulses the player has received.
func (r *Recorder) Count(playerID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[playerID]
}
