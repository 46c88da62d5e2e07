package cards

import "strings"

// Hand is an unordered collection of cards, serialized as comma-joined tokens.
type Hand []Card

// ParseHand decodes a serialized hand. The empty string is an empty hand.
func ParseHand(s string) (Hand, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Hand{}, nil
	}
	parts := strings.Split(s, ",")
	hand := make(Hand, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		c, err := Parse(part)
		if err != nil {
			return nil, err
		}
		hand = append(hand, c)
	}
	return hand, nil
}

func (h Hand) String() string {
	tokens := make([]string, len(h))
	for i, c := range h {
		tokens[i] = c.String()
	}
	return strings.Join(tokens, ",")
}

func (h Hand) Contains(c Card) bool {
	return h.indexOf(c) >= 0
}

// Remove returns a copy of h without c. The receiver is not modified.
func (h Hand) Remove(c Card) (Hand, bool) {
	idx := h.indexOf(c)
	if idx < 0 {
		return h, false
	}
	out := make(Hand, 0, len(h)-1)
	out = append(out, h[:idx]...)
	out = append(out, h[idx+1:]...)
	return out, true
}

func (h Hand) indexOf(c Card) int {
	for i, held := range h {
		if held == c {
			return i
		}
	}
	return -1
}
