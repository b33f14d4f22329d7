// internal/models/card.go
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidOrdinal is returned when an ordinal does not name one of the 52 cards.
var ErrInvalidOrdinal = errors.New("invalid card ordinal")

// Suit of a playing card. The declaration order fixes the ordinal offsets.
type Suit int

const (
	Spades Suit = iota
	Clubs
	Hearts
	Diamonds
)

// Suits lists every suit in ordinal order.
var Suits = [4]Suit{Spades, Clubs, Hearts, Diamonds}

// Color is derived from the suit.
type Color int

const (
	Black Color = iota
	Red
)

func (c Color) String() string {
	if c == Red {
		return "red"
	}
	return "black"
}

// Offset is the value added to a rank to form the card's ordinal.
func (s Suit) Offset() int { return int(s) * 13 }

func (s Suit) Color() Color {
	if s == Hearts || s == Diamonds {
		return Red
	}
	return Black
}

// Letter is the one-character code used in card short codes.
func (s Suit) Letter() string {
	switch s {
	case Spades:
		return "S"
	case Clubs:
		return "C"
	case Hearts:
		return "H"
	case Diamonds:
		return "D"
	}
	return "?"
}

func (s Suit) String() string {
	switch s {
	case Spades:
		return "Spades"
	case Clubs:
		return "Clubs"
	case Hearts:
		return "Hearts"
	case Diamonds:
		return "Diamonds"
	}
	return "Invalid"
}

func (s Suit) Valid() bool { return s >= Spades && s <= Diamonds }

// Rank runs from Ace (1) to King (13).
type Rank int

const (
	Ace   Rank = 1
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
)

func (r Rank) Valid() bool { return r >= Ace && r <= King }

var rankLetters = map[Rank]string{
	1: "A", 2: "2", 3: "3", 4: "4", 5: "5", 6: "6", 7: "7",
	8: "8", 9: "9", 10: "T", 11: "J", 12: "Q", 13: "K",
}

// Letter is the one-character code used in card short codes ("T" for ten).
func (r Rank) Letter() string {
	if l, ok := rankLetters[r]; ok {
		return l
	}
	return "?"
}

// Origin tags where a card most recently came from. Only OriginStock has
// meaning to the rules: the waste accepts nothing else.
type Origin string

const (
	OriginNone  Origin = ""
	OriginStock Origin = "Deck"
)

// Card is a value: suit and rank are fixed at construction, the display
// fields travel with each copy.
type Card struct {
	suit Suit
	rank Rank

	FaceUp      bool
	Highlighted bool
	Origin      Origin
}

// NewCard builds a face-up card. It returns ErrInvalidOrdinal for an
// out-of-range suit or rank.
func NewCard(suit Suit, rank Rank) (Card, error) {
	if !suit.Valid() || !rank.Valid() {
		return Card{}, fmt.Errorf("%w: suit %d rank %d", ErrInvalidOrdinal, suit, rank)
	}
	return Card{suit: suit, rank: rank, FaceUp: true}, nil
}

// MustCard is NewCard for literals known to be valid.
func MustCard(suit Suit, rank Rank) Card {
	c, err := NewCard(suit, rank)
	if err != nil {
		panic(err)
	}
	return c
}

// CardFromOrdinal reverses Ordinal.
func CardFromOrdinal(n int) (Card, error) {
	if n < 1 || n > 52 {
		return Card{}, fmt.Errorf("%w: %d", ErrInvalidOrdinal, n)
	}
	return NewCard(Suit((n-1)/13), Rank((n-1)%13+1))
}

func (c Card) Suit() Suit   { return c.suit }
func (c Card) Rank() Rank   { return c.rank }
func (c Card) Color() Color { return c.suit.Color() }

// Ordinal is unique per suit and rank, 1 through 52. The zero Card has ordinal 0.
func (c Card) Ordinal() int {
	if !c.rank.Valid() {
		return 0
	}
	return c.suit.Offset() + int(c.rank)
}

// IsZero reports whether c is the zero value rather than a real card.
func (c Card) IsZero() bool { return !c.rank.Valid() }

// Same reports whether two cards share suit and rank; display state is ignored.
func (c Card) Same(o Card) bool { return c.suit == o.suit && c.rank == o.rank }

// String returns the short code, e.g. "QH" or "TS".
func (c Card) String() string {
	if c.IsZero() {
		return "--"
	}
	return c.rank.Letter() + c.suit.Letter()
}

// Name returns the long form, e.g. "Queen of Hearts".
func (c Card) Name() string {
	var rank string
	switch c.rank {
	case Ace:
		rank = "Ace"
	case Jack:
		rank = "Jack"
	case Queen:
		rank = "Queen"
	case King:
		rank = "King"
	default:
		rank = fmt.Sprintf("%d", c.rank)
	}
	return rank + " of " + c.suit.String()
}

// ParseCard reads a short code such as "AS", "10d" or "th".
func ParseCard(s string) (Card, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) < 2 {
		return Card{}, fmt.Errorf("%w: %q", ErrInvalidOrdinal, s)
	}
	rankPart, suitPart := s[:len(s)-1], s[len(s)-1:]
	if rankPart == "10" {
		rankPart = "T"
	}

	var suit Suit = -1
	for _, st := range Suits {
		if st.Letter() == suitPart {
			suit = st
		}
	}
	var rank Rank
	for r, l := range rankLetters {
		if l == rankPart {
			rank = r
		}
	}
	if suit < 0 || rank == 0 {
		return Card{}, fmt.Errorf("%w: %q", ErrInvalidOrdinal, s)
	}
	return NewCard(suit, rank)
}

type cardJSON struct {
	Code        string `json:"card"`
	Ordinal     int    `json:"ordinal"`
	FaceUp      bool   `json:"faceUp"`
	Highlighted bool   `json:"highlighted,omitempty"`
	Origin      Origin `json:"origin,omitempty"`
}

func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(cardJSON{
		Code:        c.String(),
		Ordinal:     c.Ordinal(),
		FaceUp:      c.FaceUp,
		Highlighted: c.Highlighted,
		Origin:      c.Origin,
	})
}

func (c *Card) UnmarshalJSON(b []byte) error {
	var raw cardJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	var (
		parsed Card
		err    error
	)
	if raw.Ordinal != 0 {
		parsed, err = CardFromOrdinal(raw.Ordinal)
	} else {
		parsed, err = ParseCard(raw.Code)
	}
	if err != nil {
		return err
	}
	parsed.FaceUp = raw.FaceUp
	parsed.Highlighted = raw.Highlighted
	parsed.Origin = raw.Origin
	*c = parsed
	return nil
}
