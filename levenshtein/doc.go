// Package levenshtein builds byte-level automata matching every key within a
// bounded edit distance of a query.
//
// Distances are counted in Unicode scalar values: a multi-byte character
// costs one edit, and keys that are not valid UTF-8 never match. The
// automaton is compiled eagerly in two steps:
//
//  1. A character-level DFA whose states are rows of the edit-distance
//     table, every cell capped at maxDistance+1. Cells further than
//     maxDistance from the diagonal are always capped, so a row is
//     effectively the diagonal band and the number of distinct rows stays
//     small.
//  2. Expansion of that DFA into a byte DFA that consumes whole UTF-8
//     sequences, with shared states for characters absent from the query.
//
//	lev, err := levenshtein.New("foo", 1)
//	if err != nil { ... }
//	stream := set.Search(lev).Into()
package levenshtein
