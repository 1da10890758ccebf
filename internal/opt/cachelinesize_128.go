//go:build sequex_cachelinesize_128

package opt

// CacheLineSize is forced to 128 bytes via the sequex_cachelinesize_128
// build tag (e.g. for Apple Silicon's 128-byte lines when cross-building).
// Use: go build -tags=sequex_cachelinesize_128
const CacheLineSize = 128
