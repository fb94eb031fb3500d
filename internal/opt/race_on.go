//go:build race

package opt

// Race_ reports whether the race detector is enabled.
// Stress tests shrink their loop counts under it.
const Race_ = true
