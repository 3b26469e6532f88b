// Package automaton defines the query automata driven by transducer
// traversals.
//
// An [Automaton] is a deterministic machine over bytes. States are
// non-negative ints owned by the automaton; traversals only store them and
// hand them back. Accept returns ok=false for a dead state, which prunes the
// whole subtree below the current transducer node.
//
// Implementations in this package:
//
//   - [Str]: matches exactly one key
//   - [Prefix]: matches every key starting with a prefix
//   - [AlwaysMatch]: matches everything
//   - [Range]: lexicographic bounds, conjunction of a lower and an upper bound
//   - [StartsWith] and [Complement]: combinators over another automaton
//
// Fuzzy and pattern queries live in the levenshtein and regex packages and
// report construction failures as [*CompileError].
package automaton
