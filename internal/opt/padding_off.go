//go:build (amd64 || 386 || arm || mips || mipsle || wasm) && !rwguard_disable_padding && !rwguard_enable_padding

package opt

// PadLine_ is the boundary PaddedRegion rounds up to.
// Padding is disabled by default for:
// - amd64
// - 32-bit architectures (386, arm, mips, mipsle, wasm)
//
// A value of 1 disables padding.
const PadLine_ uintptr = 1
