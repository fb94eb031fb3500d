//go:build rwguard_disable_padding

package opt

// PadLine_ is force-disabled via the rwguard_disable_padding build tag.
// Use: go build -tags=rwguard_disable_padding
const PadLine_ uintptr = 1
