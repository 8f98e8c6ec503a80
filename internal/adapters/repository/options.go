package repository

// defaultBestN is the number of races counted toward season totals until
// the setting is changed.
const defaultBestN = 5

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithBestN sets the initial best-N setting.
func WithBestN(n int) Option {
	return func(s *MemStore) {
		if n > 0 {
			s.bestN = n
		}
	}
}
