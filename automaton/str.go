package automaton

// Str matches exactly one key. The state is the number of bytes matched.
type Str []byte

var _ Automaton = Str(nil)

func (s Str) Start() int { return 0 }

func (s Str) Accept(state int, b byte) (int, bool) {
	if state < len(s) && s[state] == b {
		return state + 1, true
	}
	return 0, false
}

func (s Str) IsMatch(state int) bool { return state == len(s) }

func (s Str) CanMatch(state int) bool { return state <= len(s) }

// Prefix matches every key that starts with the prefix, including the prefix
// itself.
type Prefix []byte

var _ Automaton = Prefix(nil)

func (p Prefix) Start() int { return 0 }

func (p Prefix) Accept(state int, b byte) (int, bool) {
	if state == len(p) {
		return state, true
	}
	if p[state] == b {
		return state + 1, true
	}
	return 0, false
}

func (p Prefix) IsMatch(state int) bool { return state == len(p) }

func (p Prefix) CanMatch(int) bool { return true }

// AlwaysMatch accepts every key.
type AlwaysMatch struct{}

var _ Automaton = AlwaysMatch{}

func (AlwaysMatch) Start() int                   { return 0 }
func (AlwaysMatch) Accept(int, byte) (int, bool) { return 0, true }
func (AlwaysMatch) IsMatch(int) bool             { return true }
func (AlwaysMatch) CanMatch(int) bool            { return true }
