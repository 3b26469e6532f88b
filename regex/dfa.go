package regex

import (
	"encoding/binary"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/fst/automaton"
)

// byteClasses partitions bytes so that every NFA range either contains all
// bytes of a class or none of them.
type byteClasses struct {
	class [256]uint8
	reps  []byte // one representative byte per class
}

func newByteClasses(n *nfa) byteClasses {
	var boundary [257]bool
	boundary[0] = true
	for _, in := range n.insts {
		if in.op == opRange {
			boundary[in.lo] = true
			boundary[int(in.hi)+1] = true
		}
	}

	var bc byteClasses
	cls := -1
	for b := 0; b < 256; b++ {
		if boundary[b] {
			cls++
			bc.reps = append(bc.reps, byte(b))
		}
		bc.class[b] = uint8(cls)
	}
	return bc
}

// dfa is the determinized automaton. State 0 is dead.
type dfa struct {
	start    int32
	classes  byteClasses
	trans    []int32 // [state*numClasses + class]
	match    []bool
	canMatch []bool
}

func (d *dfa) numClasses() int { return len(d.classes.reps) }

func (d *dfa) numStates() int { return len(d.match) }

func (d *dfa) next(state int, b byte) int32 {
	return d.trans[state*d.numClasses()+int(d.classes.class[b])]
}

type determinizer struct {
	n      *nfa
	limit  int
	d      *dfa
	index  map[string]int32
	sets   []*roaring.Bitmap
	keyBuf []byte
	stack  []uint32
}

func determinize(n *nfa, limit int) (*dfa, error) {
	dt := &determinizer{
		n:     n,
		limit: limit,
		d:     &dfa{classes: newByteClasses(n)},
		index: make(map[string]int32),
	}

	// dead state
	dt.push(roaring.New())

	start, err := dt.state(dt.closure([]uint32{uint32(n.start)}, true))
	if err != nil {
		return nil, err
	}
	dt.d.start = start

	nc := dt.d.numClasses()
	for s := 1; s < len(dt.sets); s++ {
		set := dt.sets[s]
		for c, rep := range dt.d.classes.reps {
			var targets []uint32
			it := set.Iterator()
			for it.HasNext() {
				in := n.insts[it.Next()]
				if in.op == opRange && in.lo <= rep && rep <= in.hi {
					targets = append(targets, uint32(in.out))
				}
			}

			id, err := dt.state(dt.closure(targets, false))
			if err != nil {
				return nil, err
			}
			dt.d.trans[s*nc+c] = id
		}
	}

	dt.computeCanMatch()
	return dt.d, nil
}

func (dt *determinizer) push(set *roaring.Bitmap) int32 {
	id := int32(len(dt.sets))
	dt.sets = append(dt.sets, set)
	dt.d.trans = append(dt.d.trans, make([]int32, dt.d.numClasses())...)

	matched := false
	it := set.Iterator()
	for it.HasNext() {
		if dt.n.insts[it.Next()].op == opMatch {
			matched = true
			break
		}
	}
	dt.d.match = append(dt.d.match, matched)
	return id
}

// state returns the DFA state for set, creating it when new.
func (dt *determinizer) state(set *roaring.Bitmap) (int32, error) {
	if set.IsEmpty() {
		return 0, nil
	}

	dt.keyBuf = dt.keyBuf[:0]
	it := set.Iterator()
	for it.HasNext() {
		dt.keyBuf = binary.AppendUvarint(dt.keyBuf, uint64(it.Next()))
	}

	if id, ok := dt.index[string(dt.keyBuf)]; ok {
		return id, nil
	}
	if dt.limit > 0 && len(dt.sets) > dt.limit {
		return 0, automaton.ErrTooLarge
	}

	id := dt.push(set)
	dt.index[string(dt.keyBuf)] = id
	return id, nil
}

// closure follows empty edges from pcs and keeps range and match
// instructions. atStart is set only before the first input byte. An end
// assertion that can reach the match without input adds the match itself.
func (dt *determinizer) closure(pcs []uint32, atStart bool) *roaring.Bitmap {
	set := roaring.New()
	seen := roaring.New()

	dt.stack = append(dt.stack[:0], pcs...)
	for len(dt.stack) > 0 {
		pc := dt.stack[len(dt.stack)-1]
		dt.stack = dt.stack[:len(dt.stack)-1]

		if !seen.CheckedAdd(pc) {
			continue
		}

		in := dt.n.insts[pc]
		switch in.op {
		case opSplit:
			dt.stack = append(dt.stack, uint32(in.alt), uint32(in.out))
		case opBeginText:
			if atStart {
				dt.stack = append(dt.stack, uint32(in.out))
			}
		case opEndText:
			if dt.matchesAtEnd(in.out, atStart) {
				set.Add(uint32(dt.n.match))
			}
		case opRange, opMatch:
			set.Add(pc)
		}
	}

	return set
}

// matchesAtEnd reports whether pc reaches the match without consuming input.
func (dt *determinizer) matchesAtEnd(pc int, atStart bool) bool {
	seen := roaring.New()
	stack := []int{pc}
	for len(stack) > 0 {
		pc := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !seen.CheckedAdd(uint32(pc)) {
			continue
		}

		in := dt.n.insts[pc]
		switch in.op {
		case opMatch:
			return true
		case opSplit:
			stack = append(stack, in.alt, in.out)
		case opEndText:
			stack = append(stack, in.out)
		case opBeginText:
			if atStart {
				stack = append(stack, in.out)
			}
		}
	}
	return false
}

// computeCanMatch marks every state from which a match state is reachable.
func (dt *determinizer) computeCanMatch() {
	d := dt.d
	nc := d.numClasses()
	ns := d.numStates()

	reverse := make([][]int32, ns)
	for s := 1; s < ns; s++ {
		for c := 0; c < nc; c++ {
			if t := d.trans[s*nc+c]; t != 0 {
				reverse[t] = append(reverse[t], int32(s))
			}
		}
	}

	d.canMatch = make([]bool, ns)
	var queue []int32
	for s := 1; s < ns; s++ {
		if d.match[s] {
			d.canMatch[s] = true
			queue = append(queue, int32(s))
		}
	}
	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		for _, s := range reverse[t] {
			if !d.canMatch[s] {
				d.canMatch[s] = true
				queue = append(queue, s)
			}
		}
	}
}
