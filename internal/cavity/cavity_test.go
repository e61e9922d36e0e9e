package cavity

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/san-kum/tempctrl/internal/channel"
)

type recorder struct{ msgs []string }

func (r *recorder) Warn(msg string, _ ...any) { r.msgs = append(r.msgs, msg) }

func newBench(t *testing.T, actuator float64) (*Env, *channel.Memory, *recorder) {
	t.Helper()
	ch := DefaultChannels()
	mem := channel.NewMemory(map[string]float64{
		ch.Transmitted: 0.2,
		ch.Reflected:   0.9,
		ch.Actuator:    actuator,
		ch.LockSwitch:  0,
	})
	cfg := DefaultConfig()
	cfg.Settle = 0
	cfg.WriteInterval = 0
	rec := &recorder{}
	cfg.Warner = rec
	env, err := New(cfg, mem)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return env, mem, rec
}

func TestResetReadsChannels(t *testing.T) {
	g := NewWithT(t)
	env, mem, _ := newBench(t, 3.5)
	mem.Set(DefaultChannels().LockSwitch, 1)

	obs, err := env.Reset(context.Background())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(obs[0]).To(Equal(0.2))
	g.Expect(obs[1]).To(Equal(0.9))
	g.Expect(env.Actuator()).To(Equal(3.5))

	sw, _ := mem.Read(context.Background(), DefaultChannels().LockSwitch)
	g.Expect(sw).To(Equal(0.0))
}

func TestStepMovesActuator(t *testing.T) {
	g := NewWithT(t)
	env, mem, _ := newBench(t, 3.5)
	ctx := context.Background()
	_, err := env.Reset(ctx)
	g.Expect(err).NotTo(HaveOccurred())

	// raise with the lock enabled
	tr, err := env.Step(ctx, 5)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(tr.Done).To(BeFalse())
	g.Expect(tr.Reward).To(Equal(0.0))
	g.Expect(env.Actuator()).To(BeNumerically("~", 3.51, 1e-12))

	act, _ := mem.Read(ctx, DefaultChannels().Actuator)
	g.Expect(act).To(BeNumerically("~", 3.51, 1e-12))
	sw, _ := mem.Read(ctx, DefaultChannels().LockSwitch)
	g.Expect(sw).To(Equal(1.0))

	// lower with the lock disabled
	_, err = env.Step(ctx, 0)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(env.Actuator()).To(BeNumerically("~", 3.50, 1e-12))
	sw, _ = mem.Read(ctx, DefaultChannels().LockSwitch)
	g.Expect(sw).To(Equal(0.0))
}

func TestLockEndsEpisode(t *testing.T) {
	g := NewWithT(t)
	env, mem, rec := newBench(t, 3.5)
	ctx := context.Background()
	_, _ = env.Reset(ctx)

	mem.Set(DefaultChannels().Transmitted, 2.4)
	tr, err := env.Step(ctx, 3)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(tr.Done).To(BeTrue())
	g.Expect(tr.Reward).To(Equal(1.0))
	g.Expect(tr.Info["locked"]).To(Equal(true))

	tr, err = env.Step(ctx, 3)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(tr.Reward).To(Equal(0.0))
	g.Expect(rec.msgs).To(HaveLen(1))

	n, ok := env.StepsBeyondDone()
	g.Expect(ok).To(BeTrue())
	g.Expect(n).To(Equal(1))
}

func TestActuatorBoundEndsEpisode(t *testing.T) {
	g := NewWithT(t)
	env, mem, _ := newBench(t, 3.8)
	ctx := context.Background()
	_, _ = env.Reset(ctx)
	writes := mem.Writes()

	tr, err := env.Step(ctx, 4)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(tr.Done).To(BeTrue())
	g.Expect(tr.Reward).To(Equal(0.0))
	g.Expect(tr.Info["out_of_range"]).To(Equal(true))
	g.Expect(env.Actuator()).To(Equal(3.8))
	g.Expect(mem.Writes()).To(Equal(writes))
}

func TestInvalidAction(t *testing.T) {
	env, _, _ := newBench(t, 3.5)
	for _, a := range []float64{-1, 6, 2.5} {
		if _, err := env.Step(context.Background(), a); !errors.Is(err, ErrInvalidAction) {
			t.Errorf("action %v: expected ErrInvalidAction, got %v", a, err)
		}
	}
}

func TestSettleHonoursContext(t *testing.T) {
	g := NewWithT(t)
	ch := DefaultChannels()
	mem := channel.NewMemory(map[string]float64{
		ch.Transmitted: 0, ch.Reflected: 0, ch.Actuator: 3.5, ch.LockSwitch: 0,
	})
	cfg := DefaultConfig()
	cfg.Settle = time.Hour
	cfg.WriteInterval = 0
	env, err := New(cfg, mem)
	g.Expect(err).NotTo(HaveOccurred())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = env.Reset(ctx)
	g.Expect(errors.Is(err, context.DeadlineExceeded)).To(BeTrue())
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ActuatorLow = 4
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
	cfg = DefaultConfig()
	cfg.ActuatorStep = 0
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}
