package thermal_test

import (
	"context"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/tempctrl/internal/gym"
	"github.com/san-kum/tempctrl/internal/physics"
	"github.com/san-kum/tempctrl/internal/reward"
	"github.com/san-kum/tempctrl/internal/thermal"
)

type warnings struct {
	messages []string
}

func (w *warnings) Warn(msg string, args ...any) {
	w.messages = append(w.messages, fmt.Sprint(msg, args))
}

type trace struct {
	obs     []gym.Observation
	rewards []float64
	dones   []bool
}

func rollout(env *thermal.Env, actions []float64) trace {
	var tr trace
	obs, err := env.Reset(context.Background())
	Expect(err).NotTo(HaveOccurred())
	tr.obs = append(tr.obs, obs)
	for _, a := range actions {
		step, err := env.Step(context.Background(), a)
		Expect(err).NotTo(HaveOccurred())
		tr.obs = append(tr.obs, step.Observation)
		tr.rewards = append(tr.rewards, step.Reward)
		tr.dones = append(tr.dones, step.Done)
	}
	return tr
}

var _ = Describe("Env", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("determinism", func() {
		build := func(ambient physics.Ambient) *thermal.Env {
			cfg := thermal.DefaultConfig()
			cfg.Ambient = ambient
			cfg.Seed = 42
			env, err := thermal.New(cfg)
			Expect(err).NotTo(HaveOccurred())
			return env
		}

		actions := []float64{0, 199, 150, 3, 77, 199, 199, 0, 12, 180}

		It("replays identical traces for identical seeds", func() {
			a := rollout(build(physics.NewSineRandomAmbient()), actions)
			b := rollout(build(physics.NewSineRandomAmbient()), actions)
			Expect(a).To(Equal(b))
		})

		It("diverges for different seeds", func() {
			a := build(physics.NewRandomAmbient())
			b := build(physics.NewRandomAmbient())
			b.Seed(43)
			Expect(rollout(a, actions).obs[0]).NotTo(Equal(rollout(b, actions).obs[0]))
		})
	})

	Describe("termination", func() {
		var (
			env  *thermal.Env
			warn *warnings
		)

		BeforeEach(func() {
			warn = &warnings{}
			cfg := thermal.DefaultConfig()
			cfg.Ambient = physics.NewConstantAmbient()
			cfg.Reward = reward.NewConstant(1)
			cfg.InitLow, cfg.InitHigh = 60, 60
			cfg.Warner = warn
			var err error
			env, err = thermal.New(cfg)
			Expect(err).NotTo(HaveOccurred())
		})

		It("is done once the can leaves the bounds and still pays the terminal step", func() {
			tr, err := env.Step(ctx, 199)
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Observation[0]).To(BeNumerically(">", 60))
			Expect(tr.Done).To(BeTrue())
			Expect(tr.Reward).To(Equal(1.0))
			Expect(tr.Info).To(BeEmpty())

			n, ok := env.StepsBeyondDone()
			Expect(ok).To(BeTrue())
			Expect(n).To(Equal(0))
		})

		It("pays nothing after done and warns exactly once", func() {
			_, err := env.Step(ctx, 199)
			Expect(err).NotTo(HaveOccurred())

			for i := 1; i <= 5; i++ {
				tr, err := env.Step(ctx, 199)
				Expect(err).NotTo(HaveOccurred())
				Expect(tr.Reward).To(BeZero())
				n, _ := env.StepsBeyondDone()
				Expect(n).To(Equal(i))
			}
			Expect(warn.messages).To(HaveLen(1))
		})

		It("starts over after reset", func() {
			_, _ = env.Step(ctx, 199)
			_, _ = env.Step(ctx, 199)

			obs, err := env.Reset(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(obs[0]).To(Equal(60.0))
			_, ok := env.StepsBeyondDone()
			Expect(ok).To(BeFalse())
			Expect(env.ElapsedSteps()).To(BeZero())
		})
	})

	Describe("rewards", func() {
		It("scores the post-step temperature with the configured policy", func() {
			cfg := thermal.DefaultConfig()
			cfg.Ambient = physics.NewConstantAmbient()
			cfg.InitLow, cfg.InitHigh = 44, 44
			cfg.Reward = reward.NewWindow(45, 10)
			env, err := thermal.New(cfg)
			Expect(err).NotTo(HaveOccurred())

			p := physics.VacCanParams()
			hold := p.HoldingPower(44, physics.StandardAmbient)
			action := env.Encoding().Action(hold, 0)

			tr, err := env.Step(ctx, action)
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Observation[0]).To(BeNumerically("~", 44, 0.1))
			Expect(tr.Reward).To(Equal(0.1))
		})
	})
})
