//go:build rwguard_enable_padding && !rwguard_disable_padding

package opt

// PadLine_ is force-enabled via the rwguard_enable_padding build tag.
// Use: go build -tags=rwguard_enable_padding
const PadLine_ = CacheLineSize_
