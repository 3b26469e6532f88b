//go:build unix

package mmap

import (
	"os"

	"golang.org/x/sys/unix"
)

func osMap(f *os.File, size int) ([]byte, func([]byte) error, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, err
	}
	return data, unix.Munmap, nil
}

var madvise = [...]int{
	AdviceNormal:     unix.MADV_NORMAL,
	AdviceSequential: unix.MADV_SEQUENTIAL,
	AdviceRandom:     unix.MADV_RANDOM,
	AdviceWillNeed:   unix.MADV_WILLNEED,
}

func osAdvise(data []byte, advice Advice) error {
	if int(advice) >= len(madvise) {
		advice = AdviceNormal
	}
	// EINVAL only reports an unaligned range; the hint is optional.
	if err := unix.Madvise(data, madvise[advice]); err != nil && err != unix.EINVAL {
		return err
	}
	return nil
}
