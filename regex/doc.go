// Package regex compiles regular expressions into byte automata for
// transducer search.
//
// Patterns use Go's RE2 syntax with Perl flags, including Unicode classes
// such as \pL. Matching is anchored on both ends: a key matches when the
// whole key is in the language of the pattern, so "fo+" matches "foo" but
// not "food". ^, $, \A and \z are accepted and have no further effect.
// Multi-line anchors and word boundaries cannot be decided on a single key
// and are rejected with automaton.ErrUnsupported.
//
// Compilation runs eagerly:
//
//  1. regexp/syntax parses and simplifies the pattern.
//  2. A Thompson NFA over bytes is built; code point ranges are split into
//     UTF-8 byte-range sequences so only valid UTF-8 can match.
//  3. Subset construction yields a DFA over byte equivalence classes. NFA
//     state sets are roaring bitmaps.
package regex
