// Package channel is the slow-control collaborator: named process
// channels that can be read and written. The network protocol to the
// control system lives behind these interfaces; this package only ships
// an in-memory backend and a rate-limited writer.
package channel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

var ErrUnknownChannel = errors.New("channel: unknown channel")

type Reader interface {
	Read(ctx context.Context, name string) (float64, error)
}

type Writer interface {
	Write(ctx context.Context, name string, value float64) error
}

type ReadWriter interface {
	Reader
	Writer
}

// Memory is an in-process channel table. Only channels present at
// construction can be read or written.
type Memory struct {
	mu     sync.Mutex
	values map[string]float64
	writes int
}

func NewMemory(initial map[string]float64) *Memory {
	values := make(map[string]float64, len(initial))
	for k, v := range initial {
		values[k] = v
	}
	return &Memory{values: values}
}

func (m *Memory) Read(ctx context.Context, name string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[name]
	if !ok {
		return 0, fmt.Errorf("read %q: %w", name, ErrUnknownChannel)
	}
	return v, nil
}

func (m *Memory) Write(ctx context.Context, name string, value float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[name]; !ok {
		return fmt.Errorf("write %q: %w", name, ErrUnknownChannel)
	}
	m.values[name] = value
	m.writes++
	return nil
}

// Set changes a channel without counting as an actuator write. Tests use
// it to play the part of the plant.
func (m *Memory) Set(name string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[name] = value
}

func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Throttled enforces a minimum interval between consecutive writes to the
// wrapped channels. Reads pass straight through.
type Throttled struct {
	ReadWriter
	limiter *rate.Limiter
}

func NewThrottled(rw ReadWriter, minInterval time.Duration) *Throttled {
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	return &Throttled{ReadWriter: rw, limiter: rate.NewLimiter(limit, 1)}
}

func (t *Throttled) Write(ctx context.Context, name string, value float64) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("write %q: %w", name, err)
	}
	return t.ReadWriter.Write(ctx, name, value)
}
