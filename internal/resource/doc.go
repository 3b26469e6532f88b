// Package resource budgets the memory and write bandwidth a build may use.
//
// A [Controller] combines a weighted semaphore for memory (non-blocking,
// callers decide what to do when a reservation is refused) with a token
// bucket for I/O bytes. A nil *Controller is valid and imposes no limits,
// which lets call sites skip nil checks.
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:   64 << 20,
//	    IOLimitBytesPerSec: 32 << 20,
//	})
//	w := resource.NewRateLimitedWriter(ctx, file, rc)
package resource
