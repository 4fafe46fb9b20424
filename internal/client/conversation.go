// Package client implements the consumer side of the search API: the SSE
// stream consumer, the frame reducer that reconstructs UI state, and the
// conversation memory that derives the context string for follow-up turns.
package client

import (
	"fmt"
	"strings"
)

const (
	maxTurns   = 5
	minWordLen = 3
)

// Turn is one question/answer exchange.
type Turn struct {
	Question string
	Answer   string
}

// Conversation accumulates turns and derives the context string sent with
// each new question. Memory is bounded and client-owned; the server keeps no
// conversational state.
type Conversation struct {
	turns []Turn
}

// Push records a completed turn, evicting the oldest beyond the cap.
func (c *Conversation) Push(question, answer string) {
	c.turns = append(c.turns, Turn{Question: question, Answer: answer})
	if len(c.turns) > maxTurns {
		c.turns = c.turns[len(c.turns)-maxTurns:]
	}
}

// Context returns the prior turns formatted as Q:/A: pairs.
func (c *Conversation) Context() string {
	if len(c.turns) == 0 {
		return ""
	}
	parts := make([]string, len(c.turns))
	for i, t := range c.turns {
		parts[i] = fmt.Sprintf("Q: %s\nA: %s", t.Question, t.Answer)
	}
	return strings.Join(parts, "\n\n")
}

// Observe checks a new query against the most recent turn and clears the
// conversation when they share no significant vocabulary. Lexical overlap
// only, no semantic similarity.
func (c *Conversation) Observe(query string) {
	if len(c.turns) == 0 {
		return
	}

	last := c.turns[len(c.turns)-1]
	prior := significantWords(last.Question + " " + last.Answer)
	for w := range significantWords(query) {
		if prior[w] {
			return
		}
	}
	c.Reset()
}

// Reset clears the conversation wholesale ("new search").
func (c *Conversation) Reset() {
	c.turns = nil
}

// Len returns the number of retained turns.
func (c *Conversation) Len() int {
	return len(c.turns)
}

func significantWords(s string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,!?;:\"'()[]")
		if len(w) >= minWordLen {
			words[w] = true
		}
	}
	return words
}
