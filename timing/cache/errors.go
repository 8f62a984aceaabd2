package cache

import "fmt"

// ConfigError reports a cache configuration the model cannot build.
type ConfigError struct {
	Config Config
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid cache configuration (index=%d, block=%d, assoc=%d): %s",
		e.Config.IndexBits, e.Config.BlockWords, e.Config.Associativity, e.Reason)
}

// InvariantViolation reports that a set had no eviction victim, which means
// its recency bookkeeping is corrupted.
type InvariantViolation struct {
	Index uint32
	Tag   uint32
	Set   Set
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("no LRU victim in set 0x%x for tag 0x%x: %+v",
		e.Index, e.Tag, e.Set)
}
