package cards

import (
	"fmt"
	"strconv"
	"strings"

	appErr "callbreak-service/pkg/errors"
)

// Card tokens are the magnitude followed by one suit letter, e.g. "10S", "AD", "KC".

type Suit int

const (
	Spades Suit = iota
	Clubs
	Diamonds
	Hearts
)

// Trump always wins a trick when present.
const Trump = Spades

type Magnitude int

const (
	Jack  Magnitude = 11
	Queen Magnitude = 12
	King  Magnitude = 13
	// Ace outranks every other face within its suit.
	Ace Magnitude = 100
)

type Card struct {
	Magnitude Magnitude
	Suit      Suit
}

var suitChars = map[Suit]byte{
	Spades:   'S',
	Clubs:    'C',
	Diamonds: 'D',
	Hearts:   'H',
}

var faceNames = map[Magnitude]string{
	Jack:  "J",
	Queen: "Q",
	King:  "K",
	Ace:   "A",
}

func suitFromChar(ch byte) (Suit, bool) {
	switch ch {
	case 'S', 's':
		return Spades, true
	case 'C', 'c':
		return Clubs, true
	case 'D', 'd':
		return Diamonds, true
	case 'H', 'h':
		return Hearts, true
	}
	return 0, false
}

func magnitudeFromString(s string) (Magnitude, bool) {
	switch strings.ToUpper(s) {
	case "A":
		return Ace, true
	case "J":
		return Jack, true
	case "Q":
		return Queen, true
	case "K":
		return King, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 2 || n > 10 {
		return 0, false
	}
	return Magnitude(n), true
}

// Parse decodes a card token. Input is case-insensitive.
func Parse(token string) (Card, error) {
	if len(token) != 2 && len(token) != 3 {
		return Card{}, fmt.Errorf("%w: %q", appErr.ErrMalformedCard, token)
	}
	suit, ok := suitFromChar(token[len(token)-1])
	if !ok {
		return Card{}, fmt.Errorf("%w: bad suit in %q", appErr.ErrMalformedCard, token)
	}
	mag, ok := magnitudeFromString(token[:len(token)-1])
	if !ok {
		return Card{}, fmt.Errorf("%w: bad magnitude in %q", appErr.ErrMalformedCard, token)
	}
	return Card{Magnitude: mag, Suit: suit}, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(token string) Card {
	c, err := Parse(token)
	if err != nil {
		panic(err)
	}
	return c
}

// Format encodes c in its canonical uppercase form.
func Format(c Card) (string, error) {
	var mag string
	switch {
	case c.Magnitude >= 2 && c.Magnitude <= 10:
		mag = strconv.Itoa(int(c.Magnitude))
	default:
		name, ok := faceNames[c.Magnitude]
		if !ok {
			return "", fmt.Errorf("%w: %d", appErr.ErrInvalidMagnitude, c.Magnitude)
		}
		mag = name
	}
	ch, ok := suitChars[c.Suit]
	if !ok {
		return "", fmt.Errorf("%w: %d", appErr.ErrInvalidSuit, c.Suit)
	}
	return mag + string(ch), nil
}

func (c Card) String() string {
	s, err := Format(c)
	if err != nil {
		return "??"
	}
	return s
}

func (c Card) Valid() bool {
	_, err := Format(c)
	return err == nil
}
