package lifecycle

// Stack collects release actions for objects created during one step.
//
//	var rollback lifecycle.Stack
//	defer rollback.Unwind()
//	... create objects, rollback.Push(release) after each ...
//	rollback.Disarm()
type Stack struct {
	actions []func()
}

// Push records a release action.
func (s *Stack) Push(release func()) {
	s.actions = append(s.actions, release)
}

// Unwind runs the recorded actions newest first and forgets them.
func (s *Stack) Unwind() {
	for i := len(s.actions) - 1; i >= 0; i-- {
		s.actions[i]()
	}
	s.actions = nil
}

// Disarm forgets the recorded actions without running them; the objects now
// belong to someone else.
func (s *Stack) Disarm() {
	s.actions = nil
}

// Len is the number of pending release actions.
func (s *Stack) Len() int {
	return len(s.actions)
}

// Replace builds a successor to current and releases current only after the
// successor exists. If build fails, current is returned untouched together
// with the error, so there is never a moment with neither alive.
func Replace[T comparable](current T, build func(previous T) (T, error), release func(T)) (T, error) {
	next, err := build(current)
	if err != nil {
		return current, err
	}

	var zero T
	if current != zero {
		release(current)
	}
	return next, nil
}
