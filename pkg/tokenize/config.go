package tokenize

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig is wrapped by every error returned from Config.Validate.
var ErrInvalidConfig = errors.New("invalid tokenizer config")

// Config holds the tokenizer options. A WordTokenizer keeps its own copy, so
// changing a Config after construction has no effect on it.
type Config struct {
	// LineSeparator delimits lines; tokens never span it.
	LineSeparator string `toml:"line_separator"`
	// MinimumImplicitLength is how many letters/digits a bare word needs
	// before it is suggestable.
	MinimumImplicitLength int `toml:"minimum_implicit_length"`
	// MaxKeywords is how many words may follow an explicit char and still
	// count as one query.
	MaxKeywords int `toml:"max_keywords"`
	// ExplicitChars is the set of trigger characters, e.g. "@".
	ExplicitChars string `toml:"explicit_chars"`
	// WordBreakChars is the set of characters delimiting words.
	WordBreakChars string `toml:"word_break_chars"`
}

// DefaultConfig returns the tokenizer defaults.
func DefaultConfig() Config {
	return Config{
		LineSeparator:         "\n",
		MinimumImplicitLength: 4,
		MaxKeywords:           1,
		ExplicitChars:         "@",
		WordBreakChars:        " .\n",
	}
}

// Validate checks the option constraints.
func (c Config) Validate() error {
	if c.LineSeparator == "" {
		return fmt.Errorf("%w: line separator must not be empty", ErrInvalidConfig)
	}
	if c.MinimumImplicitLength < 1 {
		return fmt.Errorf("%w: minimum implicit length must be >= 1, got %d", ErrInvalidConfig, c.MinimumImplicitLength)
	}
	if c.MaxKeywords < 1 {
		return fmt.Errorf("%w: max keywords must be >= 1, got %d", ErrInvalidConfig, c.MaxKeywords)
	}
	for i := 0; i < len(c.ExplicitChars); i++ {
		if strings.IndexByte(c.WordBreakChars, c.ExplicitChars[i]) >= 0 {
			return fmt.Errorf("%w: %q is both an explicit and a word-break char", ErrInvalidConfig, c.ExplicitChars[i])
		}
	}
	return nil
}

// IsExplicitChar reports whether c is a configured trigger character.
func (c Config) IsExplicitChar(ch byte) bool {
	return strings.IndexByte(c.ExplicitChars, ch) >= 0
}

// IsWordBreakChar reports whether c is a configured word-break character.
func (c Config) IsWordBreakChar(ch byte) bool {
	return strings.IndexByte(c.WordBreakChars, ch) >= 0
}

func (c Config) containsExplicitChar(s string) bool {
	return strings.ContainsAny(s, c.ExplicitChars)
}

func (c Config) containsWordBreakChar(s string) bool {
	return strings.ContainsAny(s, c.WordBreakChars)
}
