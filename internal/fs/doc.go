// Package fs abstracts the local filesystem so that builders and blob stores
// can be exercised against injected I/O failures.
//
//   - [FileSystem] / [File]: the operations the fst writers need
//   - [LocalFS]: the os-backed implementation ([Default])
//   - [FaultyFS]: wraps another FileSystem and fails writes, syncs or closes
//     on demand
//
// Tests swap in a FaultyFS to check that a failing sink surfaces as an error
// instead of a silently truncated file:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".fst", fs.Fault{FailAfterBytes: 64})
//
// Operations here take no context.Context; local syscalls are not
// interruptible. Remote storage lives in the blobstore package.
package fs
