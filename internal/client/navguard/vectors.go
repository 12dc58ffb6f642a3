package navguard

// The three exit vectors share the guard's Blocked predicate but hook into
// different host mechanisms, so each gets its own thin adapter.

// RouteVector adapts the guard to the in-app navigation gate. The returned
// Blocker opens the confirmation surface when an exit must be stopped, and
// reports the blocked destination through onBlock so exit resolution can
// resume that navigation instead of guessing one.
func RouteVector(g *Guard, onBlock func(target string)) Blocker {
	return func(target string) bool {
		if !g.Blocked() {
			return false
		}
		if onBlock != nil {
			onBlock(target)
		}
		g.OpenPrompt()
		return true
	}
}

// BackVector absorbs host back navigation. Arm pushes one synthetic history
// entry the first time the form turns dirty, so a single back press lands on
// the absorber instead of leaving. Each subsequent pop while still blocked
// re-pushes the absorber and raises the prompt.
type BackVector struct {
	guard *Guard
	push  func()

	armed bool
}

func NewBackVector(guard *Guard, push func()) *BackVector {
	return &BackVector{guard: guard, push: push}
}

// Arm installs the absorbing entry once the form is dirty. Safe to call on
// every render; it only pushes once.
func (b *BackVector) Arm() {
	if b.armed || !b.guard.Dirty() {
		return
	}
	b.push()
	b.armed = true
}

// OnPop handles a back navigation landing on the absorber. It reports
// whether the exit may proceed; when blocked it re-pushes the absorber and
// opens the prompt, cancelling the native back.
func (b *BackVector) OnPop() bool {
	if !b.guard.Blocked() {
		return true
	}
	b.push()
	b.guard.OpenPrompt()
	return false
}

// UnloadVector is the tab-close/reload hook. The host shows its own native
// prompt; the app only answers whether one is needed.
type UnloadVector struct {
	guard *Guard
}

func NewUnloadVector(guard *Guard) *UnloadVector {
	return &UnloadVector{guard: guard}
}

func (u *UnloadVector) ShouldPrompt() bool {
	return u.guard.Blocked()
}
