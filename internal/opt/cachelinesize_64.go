//go:build sequex_cachelinesize_64

package opt

// CacheLineSize is forced to 64 bytes via the sequex_cachelinesize_64
// build tag.
// Use: go build -tags=sequex_cachelinesize_64
const CacheLineSize = 64
