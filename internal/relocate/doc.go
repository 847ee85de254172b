// Package relocate classifies path references found in embedded project
// descriptors and computes their relocated form. A reference that climbs
// more than one directory level above its anchor is treated as SDK content
// and mapped under the relocation subdirectory; the single-level ../config
// reference and plain local paths each get their own handling. Resolution
// and mapping are pure string computations so the same reference always
// maps to the same destination.
package relocate
