package fst

import (
	"encoding/binary"
	"math/bits"
)

// builderTransition is a transition of a node that is still being built.
type builderTransition struct {
	label byte
	out   uint64
	addr  uint64
}

type builderNode struct {
	final    bool
	finalOut uint64
	trans    []builderTransition
}

func (n *builderNode) reset() {
	n.final = false
	n.finalOut = 0
	n.trans = n.trans[:0]
}

// byteWidth is the number of bytes needed to store v.
func byteWidth(v uint64) int {
	return (bits.Len64(v) + 7) / 8
}

func appendUint(dst []byte, v uint64, width int) []byte {
	for i := 0; i < width; i++ {
		dst = append(dst, byte(v>>(8*i)))
	}
	return dst
}

// appendNode appends the record of n. The encoding depends only on the
// node's content, so it doubles as the registry key.
func appendNode(dst []byte, n *builderNode) []byte {
	var maxOut, maxAddr uint64
	for _, t := range n.trans {
		maxOut = max(maxOut, t.out)
		maxAddr = max(maxAddr, t.addr)
	}
	outWidth, addrWidth := byteWidth(maxOut), byteWidth(maxAddr)

	var flags byte
	if n.final {
		flags |= flagFinal
		if n.finalOut != 0 {
			flags |= flagFinalOutput
		}
	}

	dst = append(dst, flags)
	dst = binary.AppendUvarint(dst, uint64(len(n.trans)))
	dst = append(dst, byte(outWidth<<4|addrWidth))
	if flags&flagFinalOutput != 0 {
		dst = binary.AppendUvarint(dst, n.finalOut)
	}
	for _, t := range n.trans {
		dst = append(dst, t.label)
	}
	for _, t := range n.trans {
		dst = appendUint(dst, t.out, outWidth)
	}
	for _, t := range n.trans {
		dst = appendUint(dst, t.addr, addrWidth)
	}
	return dst
}
