package fst

import (
	"encoding/binary"
	"slices"
)

// Transition is an outgoing edge of a node.
type Transition struct {
	// Label is the input byte.
	Label byte
	// Output is added to the key's value when the edge is taken.
	Output uint64
	// Addr is the address of the target node.
	Addr uint64
}

// Node is a read-only view of one node record. It slices the serialized
// buffer and is only valid while the FST is open.
type Node struct {
	body      []byte
	addr      uint64
	final     bool
	finalOut  uint64
	ntrans    int
	outWidth  int
	addrWidth int
	labels    int
}

// decodeNode reads the record at addr. body is the serialized FST without
// its trailer. Targets are checked against the postorder layout.
func decodeNode(body []byte, addr uint64) (Node, error) {
	if addr < headerSize || addr >= uint64(len(body)) {
		return Node{}, corrupt("node address %d out of range", addr)
	}

	p := body[addr:]
	flags := p[0]
	if flags&^(flagFinal|flagFinalOutput) != 0 {
		return Node{}, corrupt("node %d: unknown flags %#x", addr, flags)
	}
	pos := 1

	ntrans, n := binary.Uvarint(p[pos:])
	if n <= 0 || ntrans > 256 {
		return Node{}, corrupt("node %d: bad transition count", addr)
	}
	pos += n

	if pos >= len(p) {
		return Node{}, corrupt("node %d: truncated", addr)
	}
	sizes := p[pos]
	pos++
	outWidth, addrWidth := int(sizes>>4), int(sizes&0x0f)
	if outWidth > 8 || addrWidth > 8 {
		return Node{}, corrupt("node %d: bad widths %#x", addr, sizes)
	}

	nd := Node{
		body:      body,
		addr:      addr,
		final:     flags&flagFinal != 0,
		ntrans:    int(ntrans),
		outWidth:  outWidth,
		addrWidth: addrWidth,
	}

	if flags&flagFinalOutput != 0 {
		if flags&flagFinal == 0 {
			return Node{}, corrupt("node %d: output on non-final node", addr)
		}
		v, n := binary.Uvarint(p[pos:])
		if n <= 0 {
			return Node{}, corrupt("node %d: bad final output", addr)
		}
		nd.finalOut = v
		pos += n
	}

	need := nd.ntrans * (1 + outWidth + addrWidth)
	if need > len(p)-pos {
		return Node{}, corrupt("node %d: truncated", addr)
	}
	nd.labels = int(addr) + pos

	labels := nd.labelBytes()
	for i := 0; i < nd.ntrans; i++ {
		if i > 0 && labels[i] <= labels[i-1] {
			return Node{}, corrupt("node %d: labels not ascending", addr)
		}
		if t := nd.target(i); t < headerSize || t >= addr {
			return Node{}, corrupt("node %d: target %d violates layout", addr, t)
		}
	}
	return nd, nil
}

func readUint(b []byte, width int) uint64 {
	var v uint64
	for i := 0; i < width; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}

func (n Node) labelBytes() []byte {
	return n.body[n.labels : n.labels+n.ntrans]
}

func (n Node) output(i int) uint64 {
	off := n.labels + n.ntrans + i*n.outWidth
	return readUint(n.body[off:], n.outWidth)
}

func (n Node) target(i int) uint64 {
	off := n.labels + n.ntrans*(1+n.outWidth) + i*n.addrWidth
	return readUint(n.body[off:], n.addrWidth)
}

// Addr returns the node's address.
func (n Node) Addr() uint64 { return n.addr }

// IsFinal reports whether a key ends at this node.
func (n Node) IsFinal() bool { return n.final }

// FinalOutput is added to the value of a key ending at this node.
func (n Node) FinalOutput() uint64 { return n.finalOut }

// NumTransitions returns the number of outgoing transitions.
func (n Node) NumTransitions() int { return n.ntrans }

// Transition returns the i-th transition in ascending label order.
// It panics if i is out of range.
func (n Node) Transition(i int) Transition {
	if i < 0 || i >= n.ntrans {
		panic("fst: transition index out of range")
	}
	return Transition{
		Label:  n.body[n.labels+i],
		Output: n.output(i),
		Addr:   n.target(i),
	}
}

// Transitions returns all transitions in ascending label order.
func (n Node) Transitions() []Transition {
	ts := make([]Transition, n.ntrans)
	for i := range ts {
		ts[i] = n.Transition(i)
	}
	return ts
}

// FindTransition returns the index of the transition labeled b.
func (n Node) FindTransition(b byte) (int, bool) {
	return slices.BinarySearch(n.labelBytes(), b)
}

// lowerBound returns the index of the first transition with label >= b.
func (n Node) lowerBound(b byte) int {
	i, _ := slices.BinarySearch(n.labelBytes(), b)
	return i
}
