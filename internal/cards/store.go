// Package cards parses study material and owns the card records of a session.
package cards

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vytor/scholarsrs/internal/errors"
	"github.com/vytor/scholarsrs/internal/models"
)

// Delimiter separates a question from its answer on an input line.
const Delimiter = "::"

// Pair is one raw question/answer record.
type Pair struct {
	Question string
	Answer   string
}

// Parse splits rawText into pairs. Blank lines are ignored; every other line
// must contain exactly one delimiter with non-empty sides. Returned line
// numbers are 1-based over the non-blank lines.
func Parse(rawText string) (pairs []Pair, invalidLines []int) {
	lineNo := 0
	for _, raw := range strings.Split(rawText, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		lineNo++

		parts := strings.Split(line, Delimiter)
		if len(parts) != 2 {
			invalidLines = append(invalidLines, lineNo)
			continue
		}
		q, a := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if q == "" || a == "" {
			invalidLines = append(invalidLines, lineNo)
			continue
		}
		pairs = append(pairs, Pair{Question: q, Answer: a})
	}
	return pairs, invalidLines
}

// Store holds every card of a session, indexed by id, and their response
// history.
type Store struct {
	cards   []*models.Card
	history map[int][]models.Response
}

// NewStore creates cards with sequential ids from 0 in input order.
func NewStore(pairs []Pair) (*Store, error) {
	s := &Store{history: make(map[int][]models.Response)}
	for i, p := range pairs {
		q, a := strings.TrimSpace(p.Question), strings.TrimSpace(p.Answer)
		if q == "" || a == "" {
			return nil, errors.NewValidationError("cards", fmt.Sprintf("entry %d needs both a question and an answer", i+1))
		}
		s.cards = append(s.cards, models.NewCard(len(s.cards), q, a))
	}
	if len(s.cards) == 0 {
		return nil, errors.NewValidationError("cards", "no valid entries found, use format Question::Answer")
	}
	return s, nil
}

// FromText parses rawText and builds a store from it. When nothing valid
// remains the error names the offending lines.
func FromText(rawText string) (*Store, error) {
	pairs, invalid := Parse(rawText)
	if len(pairs) == 0 {
		if len(invalid) == 0 {
			return nil, errors.NewValidationError("questions", "please provide your study material")
		}
		nums := make([]string, len(invalid))
		for i, n := range invalid {
			nums[i] = strconv.Itoa(n)
		}
		return nil, errors.NewValidationError("questions",
			fmt.Sprintf("no valid entries found, check lines: %s; use format Question::Answer", strings.Join(nums, ", ")))
	}
	return NewStore(pairs)
}

// Len returns the number of cards.
func (s *Store) Len() int {
	return len(s.cards)
}

// All returns the cards in id order. The slice is a copy; the cards are not.
func (s *Store) All() []*models.Card {
	out := make([]*models.Card, len(s.cards))
	copy(out, s.cards)
	return out
}

// Get looks a card up by id.
func (s *Store) Get(id int) (*models.Card, bool) {
	if id < 0 || id >= len(s.cards) {
		return nil, false
	}
	return s.cards[id], true
}

// RecordResponse appends a verdict to the card's history.
func (s *Store) RecordResponse(id int, r models.Response) {
	if _, ok := s.Get(id); !ok {
		return
	}
	s.history[id] = append(s.history[id], r)
}

// History returns a copy of the card's recorded verdicts.
func (s *Store) History(id int) []models.Response {
	h := s.history[id]
	out := make([]models.Response, len(h))
	copy(out, h)
	return out
}

// Reset drops every card and all history.
func (s *Store) Reset() {
	s.cards = nil
	s.history = make(map[int][]models.Response)
}
