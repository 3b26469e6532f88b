package automaton

// Wrapper automata reserve state 0 for "done" and shift inner states by one,
// so wrappers nest without sharing sentinels.
const done = 0

func wrap(inner int) int   { return inner + 1 }
func unwrap(state int) int { return state - 1 }

// startsWith matches keys that have a prefix accepted by the inner automaton.
type startsWith struct {
	inner Automaton
}

// StartsWith returns an automaton matching every key with a prefix matched by a.
func StartsWith(a Automaton) Automaton {
	return startsWith{inner: a}
}

func (s startsWith) Start() int {
	st := s.inner.Start()
	if s.inner.IsMatch(st) {
		return done
	}
	return wrap(st)
}

func (s startsWith) Accept(state int, b byte) (int, bool) {
	if state == done {
		return done, true
	}
	next, ok := s.inner.Accept(unwrap(state), b)
	if !ok {
		return 0, false
	}
	if s.inner.IsMatch(next) {
		return done, true
	}
	return wrap(next), true
}

func (s startsWith) IsMatch(state int) bool {
	return state == done
}

func (s startsWith) CanMatch(state int) bool {
	return state == done || s.inner.CanMatch(unwrap(state))
}

// complement matches exactly the keys the inner automaton rejects.
type complement struct {
	inner Automaton
}

// Complement returns an automaton matching every key a does not match.
func Complement(a Automaton) Automaton {
	return complement{inner: a}
}

func (c complement) Start() int {
	st := c.inner.Start()
	if !c.inner.CanMatch(st) {
		return done
	}
	return wrap(st)
}

func (c complement) Accept(state int, b byte) (int, bool) {
	if state == done {
		return done, true
	}
	next, ok := c.inner.Accept(unwrap(state), b)
	if !ok || !c.inner.CanMatch(next) {
		// The inner automaton can never match below here.
		return done, true
	}
	return wrap(next), true
}

func (c complement) IsMatch(state int) bool {
	return state == done || !c.inner.IsMatch(unwrap(state))
}

func (complement) CanMatch(int) bool { return true }
