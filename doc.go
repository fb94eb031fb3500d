// Package rwguard provides a non-blocking reader/writer lock over a small
// caller-owned byte region.
//
// A Region is the lock descriptor. Shared and Exclusive are the handles that
// carry the permission to read, or to read and write, the region. All three
// are fixed-size values owned by the caller; the lock itself never
// allocates and never waits.
package rwguard
