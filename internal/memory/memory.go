package memory

import (
	"fmt"
	"strings"
)

// maxTurns bounds the rolling transcript; the oldest turn drops on overflow.
const maxTurns = 8

// flattenTurns is how many of the most recent turns AsText renders.
const flattenTurns = 6

// Turn is one (question, answer) exchange.
type Turn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Memory is a bounded rolling transcript of conversation turns. It is owned
// by exactly one session and is never read concurrently with a write.
type Memory struct {
	turns []Turn
}

// New creates an empty Memory.
func New() *Memory {
	return &Memory{}
}

// Restore creates a Memory from previously persisted turns, keeping only the
// most recent maxTurns.
func Restore(turns []Turn) *Memory {
	m := &Memory{}
	for _, t := range turns {
		m.Add(t.Question, t.Answer)
	}
	return m
}

// Add appends a turn, dropping the oldest when the bound is exceeded.
func (m *Memory) Add(question, answer string) {
	m.turns = append(m.turns, Turn{Question: question, Answer: answer})
	if len(m.turns) > maxTurns {
		m.turns = m.turns[len(m.turns)-maxTurns:]
	}
}

// Turns returns a copy of the transcript in insertion order.
func (m *Memory) Turns() []Turn {
	out := make([]Turn, len(m.turns))
	copy(out, m.turns)
	return out
}

// Len returns the number of retained turns.
func (m *Memory) Len() int { return len(m.turns) }

// AsText flattens the most recent turns into prompt-ready text. An empty
// transcript yields an empty string.
func (m *Memory) AsText() string {
	if len(m.turns) == 0 {
		return ""
	}
	start := 0
	if len(m.turns) > flattenTurns {
		start = len(m.turns) - flattenTurns
	}
	var b strings.Builder
	for _, t := range m.turns[start:] {
		fmt.Fprintf(&b, "User: %s\n", t.Question)
		fmt.Fprintf(&b, "Assistant: %s\n", t.Answer)
	}
	return strings.TrimRight(b.String(), "\n")
}
