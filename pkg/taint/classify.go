// Package taint implements the syscall-correlated taint boundary: a
// narrow, best-effort heuristic that marks the guest program's file of
// interest and emits source/sink records for the downstream data-flow
// stage. It is deliberately a single-descriptor heuristic — one source,
// one sink, most recent match wins — not a general file tracker.
package taint

import (
	"path/filepath"
	"strings"
)

// ClassifierOptions stores the exclusion lists used to decide whether
// an opened path is interesting
type ClassifierOptions struct {
	// ExcludePrefixes are path prefixes never considered interesting
	// (system and library directories)
	ExcludePrefixes []string

	// NoisyFiles are file names excluded wherever they appear
	// (configuration files many programs touch on startup)
	NoisyFiles []string
}

// DefaultClassifierOptions returns the default exclusion lists. The
// defaults assume a program opens one file of interest for reading and
// one for writing, and that anything under the system directories is
// startup noise.
func DefaultClassifierOptions() ClassifierOptions {
	return ClassifierOptions{
		ExcludePrefixes: []string{"/etc", "/lib", "/proc", "/dev", "/usr"},
		NoisyFiles:      []string{"openssl.cnf", "xpdfrc"},
	}
}

// Classifier decides, per opened path, whether the file is interesting
// enough to become the taint source or sink.
type Classifier struct {
	options ClassifierOptions
}

// NewClassifier creates a classifier with the given options.
func NewClassifier(options ClassifierOptions) *Classifier {
	return &Classifier{options: options}
}

// Interesting reports whether the path survives the exclusion lists.
// Classification by exclusion can misfire — that degrades trace
// usefulness but is not an error condition.
func (c *Classifier) Interesting(path string) bool {
	for _, prefix := range c.options.ExcludePrefixes {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	base := filepath.Base(path)
	for _, noisy := range c.options.NoisyFiles {
		if strings.Contains(base, noisy) {
			return false
		}
	}
	return true
}
