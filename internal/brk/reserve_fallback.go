//go:build !unix && !windows

package brk

// reserve allocates the whole reservation from the Go heap when no virtual
// memory API is available.
func reserve(limit int) ([]byte, commitFunc, releaseFunc, error) {
	return make([]byte, limit), nil, nil, nil
}
