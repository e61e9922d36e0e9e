package gym

import (
	"fmt"
	"testing"

	. "github.com/onsi/gomega"
)

type recordingWarner struct {
	messages []string
}

func (r *recordingWarner) Warn(msg string, args ...any) {
	r.messages = append(r.messages, fmt.Sprint(msg, args))
}

func TestEpisode_Lifecycle(t *testing.T) {
	g := NewWithT(t)
	warn := &recordingWarner{}
	ep := NewEpisode(warn)

	_, ok := ep.StepsBeyondDone()
	g.Expect(ok).To(BeFalse())

	g.Expect(ep.Advance()).To(Equal(1))
	ep.Finish(false)
	g.Expect(ep.Terminated()).To(BeFalse())

	g.Expect(ep.Advance()).To(Equal(2))
	ep.Finish(true)
	g.Expect(ep.Terminated()).To(BeTrue())

	n, ok := ep.StepsBeyondDone()
	g.Expect(ok).To(BeTrue())
	g.Expect(n).To(Equal(0))

	for i := 1; i <= 3; i++ {
		ep.Advance()
		ep.AfterDone()
		ep.Finish(true)
		n, _ = ep.StepsBeyondDone()
		g.Expect(n).To(Equal(i))
	}
	g.Expect(warn.messages).To(HaveLen(1))
	g.Expect(warn.messages[0]).To(ContainSubstring("without reset"))

	ep.Reset()
	_, ok = ep.StepsBeyondDone()
	g.Expect(ok).To(BeFalse())
	g.Expect(ep.Elapsed()).To(Equal(0))
}

func TestEpisode_DefaultWarner(t *testing.T) {
	ep := NewEpisode(nil)
	ep.Finish(true)
	ep.AfterDone()
	if n, _ := ep.StepsBeyondDone(); n != 1 {
		t.Errorf("expected 1 step beyond done, got %d", n)
	}
}

func TestObservation_Clone(t *testing.T) {
	obs := Observation{21, 20}
	c := obs.Clone()
	c[0] = 99
	if obs[0] != 21 {
		t.Error("Clone shares memory with the original")
	}
}
