// Package cache provides the LRU caches used while building and reading
// transducers.
//
// [LRU] is a generic, cost-aware LRU. The builder uses it as its bounded
// node registry (canonical node encoding -> address); eviction only costs
// minimality, never correctness. Reserved bytes can be charged against a
// [resource.Controller]; when the controller refuses, the entry is skipped.
//
// [LRUBlockCache] and [ShardedLRUBlockCache] cache immutable blob blocks for
// the caching blob store. The sharded variant spreads keys over 64 shards
// to keep lock contention low under parallel readers.
package cache
