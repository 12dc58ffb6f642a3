package navguard

// Guard combines a dirtiness policy with the submitted latch and the exit
// prompt. One guard belongs to one form instance; it is discarded with it.
type Guard struct {
	policy DirtinessPolicy
	state  func() FormState

	submitted  bool
	showPrompt bool
}

// NewGuard builds a guard over a live state supplier. The supplier is
// re-evaluated on every query, so dirtiness always reflects current input.
func NewGuard(policy DirtinessPolicy, state func() FormState) *Guard {
	return &Guard{policy: policy, state: state}
}

func (g *Guard) Dirty() bool {
	return g.policy.Dirty(g.state())
}

// Blocked is the single predicate all three exit vectors consult.
func (g *Guard) Blocked() bool {
	return g.Dirty() && !g.submitted
}

// MarkSubmitted latches the guard off for the rest of the instance's life.
// There is no way back: a successful submit, "exit without saving", and
// "save and exit" all disarm permanently.
func (g *Guard) MarkSubmitted() {
	g.submitted = true
}

func (g *Guard) Submitted() bool {
	return g.submitted
}

// OpenPrompt shows the exit-confirmation surface.
func (g *Guard) OpenPrompt() {
	g.showPrompt = true
}

func (g *Guard) DismissPrompt() {
	g.showPrompt = false
}

func (g *Guard) PromptVisible() bool {
	return g.showPrompt
}
