package secrets

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// TerminalPrompter asks the user directly on stdin/stdout. It refuses to
// block when stdin is not a terminal, returning an error instead — the
// resolution for running Ask/AskPassword/FromFile(ask) in a headless CI
// context rather than hanging forever.
type TerminalPrompter struct {
	In  *os.File
	Out io.Writer

	// AutoOverride, when set, makes ShouldOverride answer yes without
	// prompting. NewTerminalPrompter leaves it unset.
	AutoOverride bool
}

// NewTerminalPrompter builds a TerminalPrompter reading stdin and writing
// to stdout.
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{In: os.Stdin, Out: os.Stdout}
}

func (p *TerminalPrompter) requireInteractive() error {
	if !term.IsTerminal(int(p.In.Fd())) {
		return fmt.Errorf("secrets: prompt requires an interactive terminal but stdin is not one")
	}
	return nil
}

func (p *TerminalPrompter) Ask(prompt string) (string, error) {
	if err := p.requireInteractive(); err != nil {
		return "", err
	}
	fmt.Fprintf(p.Out, "%s: ", prompt)
	reader := bufio.NewReader(p.In)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("secrets: failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (p *TerminalPrompter) AskPassword(prompt string) (string, error) {
	if err := p.requireInteractive(); err != nil {
		return "", err
	}
	fmt.Fprintf(p.Out, "%s: ", prompt)
	raw, err := term.ReadPassword(int(p.In.Fd()))
	fmt.Fprintln(p.Out)
	if err != nil {
		return "", fmt.Errorf("secrets: failed to read password: %w", err)
	}
	return string(raw), nil
}

func (p *TerminalPrompter) ShouldOverride(component, secret string) bool {
	if p.AutoOverride {
		return true
	}
	if term.IsTerminal(int(p.In.Fd())) {
		answer, err := p.Ask(fmt.Sprintf("%s.%s already set, override?", component, secret) + " [y/N]")
		if err == nil {
			return strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes")
		}
	}
	return false
}

var _ Prompter = (*TerminalPrompter)(nil)

// NonInteractivePrompter never blocks: Ask/AskPassword return the
// pre-supplied answer for a prompt, or an error when there is none, and
// ShouldOverride always answers no. For scripted use (e.g. tests,
// `secrets init --non-interactive`).
type NonInteractivePrompter struct {
	Answers map[string]string // prompt -> answer
}

func (p *NonInteractivePrompter) Ask(prompt string) (string, error) {
	if v, ok := p.Answers[prompt]; ok {
		return v, nil
	}
	return "", fmt.Errorf("secrets: no answer supplied for prompt %q in non-interactive mode", prompt)
}

func (p *NonInteractivePrompter) AskPassword(prompt string) (string, error) {
	return p.Ask(prompt)
}

func (p *NonInteractivePrompter) ShouldOverride(component, secret string) bool {
	return false
}

var _ Prompter = (*NonInteractivePrompter)(nil)
