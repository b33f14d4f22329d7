// internal/models/rules.go
package models

import (
	"fmt"
	"strings"
)

// Difficulty sets the base number of passes through the stock.
type Difficulty int

const (
	Easy   Difficulty = 1
	Medium Difficulty = 2
	Hard   Difficulty = 3
)

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	}
	return fmt.Sprintf("difficulty(%d)", int(d))
}

// ParseDifficulty accepts the names or the numbers 1-3.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy", "1":
		return Easy, nil
	case "medium", "2", "":
		return Medium, nil
	case "hard", "3":
		return Hard, nil
	}
	return 0, fmt.Errorf("unknown difficulty %q", s)
}

func (d Difficulty) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Difficulty) UnmarshalText(b []byte) error {
	v, err := ParseDifficulty(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Rules captures the game options the engine consumes. Both fields only
// affect how many times the stock may be redealt.
type Rules struct {
	DrawCount  int        `json:"drawCount" toml:"draw_count"`
	Difficulty Difficulty `json:"difficulty" toml:"difficulty"`
}

// DefaultRules is draw one on medium, the original program's defaults.
func DefaultRules() Rules {
	return Rules{DrawCount: 1, Difficulty: Medium}
}

func (r Rules) Validate() error {
	if r.DrawCount != 1 && r.DrawCount != 3 {
		return fmt.Errorf("drawCount must be 1 or 3, got %d", r.DrawCount)
	}
	if r.Difficulty < Easy || r.Difficulty > Hard {
		return fmt.Errorf("invalid difficulty %d", int(r.Difficulty))
	}
	return nil
}

// ThroughLimit is the number of passes through the stock allowed:
// easy 3, medium 2, hard 1, plus one when drawing three.
func (r Rules) ThroughLimit() int {
	var limit int
	switch r.Difficulty {
	case Easy:
		limit = 3
	case Medium:
		limit = 2
	default:
		limit = 1
	}
	if r.DrawCount == 3 {
		limit++
	}
	return limit
}
