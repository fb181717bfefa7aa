package browser

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Prompter asks the user a blocking yes/no question
type Prompter interface {
	Confirm(ctx context.Context, message string) bool
}

// Notifier shows the user a blocking message
type Notifier interface {
	Alert(ctx context.Context, message string)
}

// ScriptedPrompter answers prompts from a fixed list and records them.
// Once the answers run out it declines.
type ScriptedPrompter struct {
	mu       sync.Mutex
	answers  []bool
	Messages []string
}

// NewScriptedPrompter creates a prompter that gives answers in order
func NewScriptedPrompter(answers ...bool) *ScriptedPrompter {
	return &ScriptedPrompter{answers: answers}
}

// Confirm implements Prompter
func (p *ScriptedPrompter) Confirm(_ context.Context, message string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Messages = append(p.Messages, message)
	if len(p.answers) == 0 {
		return false
	}
	answer := p.answers[0]
	p.answers = p.answers[1:]
	return answer
}

// RecordingNotifier keeps every alert it is shown
type RecordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

// Alert implements Notifier
func (n *RecordingNotifier) Alert(_ context.Context, message string) {
	n.mu.Lock()
	n.messages = append(n.messages, message)
	n.mu.Unlock()
}

// Messages returns a copy of the alerts shown so far
func (n *RecordingNotifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.messages))
	copy(out, n.messages)
	return out
}

// TerminalPrompter asks on a terminal. Only "s", "sim", "y" and "yes"
// (any case) confirm; anything else, including EOF, declines.
type TerminalPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminalPrompter creates a prompter reading answers from in
func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{in: bufio.NewReader(in), out: out}
}

// Confirm implements Prompter
func (p *TerminalPrompter) Confirm(ctx context.Context, message string) bool {
	if ctx.Err() != nil {
		return false
	}
	fmt.Fprintf(p.out, "%s [s/N] ", message)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(p.out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "s", "sim", "y", "yes":
		return true
	}
	return false
}

// AutoPrompter confirms every prompt, echoing it to out
type AutoPrompter struct {
	out io.Writer
}

// NewAutoPrompter creates a prompter that always confirms
func NewAutoPrompter(out io.Writer) *AutoPrompter {
	return &AutoPrompter{out: out}
}

// Confirm implements Prompter
func (p *AutoPrompter) Confirm(_ context.Context, message string) bool {
	fmt.Fprintf(p.out, "%s [s/N] s\n", message)
	return true
}

// TerminalNotifier prints alerts to a terminal
type TerminalNotifier struct {
	out io.Writer
}

// NewTerminalNotifier creates a notifier writing to out
func NewTerminalNotifier(out io.Writer) *TerminalNotifier {
	return &TerminalNotifier{out: out}
}

// Alert implements Notifier
func (n *TerminalNotifier) Alert(_ context.Context, message string) {
	fmt.Fprintf(n.out, "! %s\n", message)
}
