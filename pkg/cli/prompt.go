// Package cli provides interactive terminal prompt helpers for CLI wizards.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// Clear is the answer that wipes a field rather than keeping or replacing
// its current value.
const Clear = "-"

// Prompter handles interactive terminal prompts. Every method reports
// ok=false when the user cancels with EOF (Ctrl-D); err is reserved for real
// read failures and is never set on a plain cancel.
type Prompter struct {
	In      io.Reader
	Out     io.Writer
	scanner *bufio.Scanner
	hinted  bool
}

// DefaultPrompter returns a Prompter connected to stdin/stdout.
func DefaultPrompter() *Prompter {
	return &Prompter{In: os.Stdin, Out: os.Stdout}
}

func (p *Prompter) scan() *bufio.Scanner {
	if p.scanner == nil {
		p.scanner = bufio.NewScanner(p.In)
	}
	return p.scanner
}

// readLine reads a single trimmed line.
func (p *Prompter) readLine() (string, bool, error) {
	sc := p.scan()
	if sc.Scan() {
		return strings.TrimSpace(sc.Text()), true, nil
	}
	if err := sc.Err(); err != nil {
		return "", false, err
	}
	return "", false, nil
}

// keepClearHint explains the keep/clear convention the first time a prompt
// shows a current value.
func (p *Prompter) keepClearHint() {
	if p.hinted {
		return
	}
	p.hinted = true
	_, _ = fmt.Fprintf(p.Out, "  (Enter keeps the shown value, %s clears it)\n", Clear)
}

// resolve applies the keep/clear convention to a submitted line.
func (p *Prompter) resolve(line, current string) string {
	switch line {
	case "":
		return current
	case Clear:
		return ""
	}
	return line
}

// Ask prints a question and reads one line. A non-empty current value is
// shown in brackets: Enter keeps it, Clear empties it.
func (p *Prompter) Ask(question, current string) (string, bool, error) {
	if current != "" {
		p.keepClearHint()
		_, _ = fmt.Fprintf(p.Out, "%s [%s]: ", question, current)
	} else {
		_, _ = fmt.Fprintf(p.Out, "%s: ", question)
	}
	line, ok, err := p.readLine()
	if !ok {
		return "", false, err
	}
	return p.resolve(line, current), true, nil
}

// AskSecret reads a value without echoing when stdin is a real terminal.
// Falls back to a plain read otherwise (tests, piped input). The current
// value is never printed raw; display is its masked form.
func (p *Prompter) AskSecret(question, display, current string) (string, bool, error) {
	if current != "" {
		p.keepClearHint()
		_, _ = fmt.Fprintf(p.Out, "%s [%s]: ", question, display)
	} else {
		_, _ = fmt.Fprintf(p.Out, "%s: ", question)
	}

	if f, isFile := p.In.(*os.File); isFile && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(p.Out) // newline after hidden input
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", false, nil
			}
			return "", false, err
		}
		return p.resolve(strings.TrimSpace(string(b)), current), true, nil
	}

	line, ok, err := p.readLine()
	if !ok {
		return "", false, err
	}
	return p.resolve(line, current), true, nil
}

// AskLines reads a multi-line value terminated by a blank line. Lines keep
// their leading whitespace. EOF before any content cancels; EOF after
// content ends the block like a blank line would.
func (p *Prompter) AskLines(question string) (string, bool, error) {
	_, _ = fmt.Fprintf(p.Out, "%s (finish with a blank line):\n", question)
	var lines []string
	sc := p.scan()
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			return strings.Join(lines, "\n"), true, nil
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return "", false, err
	}
	if len(lines) == 0 {
		return "", false, nil
	}
	return strings.Join(lines, "\n"), true, nil
}

// Choose presents a numbered list of options and returns the selected index.
func (p *Prompter) Choose(question string, options []string, defaultIdx int) (int, bool, error) {
	_, _ = fmt.Fprintf(p.Out, "%s\n", question)
	for i, opt := range options {
		marker := "  "
		if i == defaultIdx {
			marker = "> "
		}
		_, _ = fmt.Fprintf(p.Out, "%s%d) %s\n", marker, i+1, opt)
	}

	for {
		_, _ = fmt.Fprintf(p.Out, "Choice [%d]: ", defaultIdx+1)
		line, ok, err := p.readLine()
		if !ok {
			return 0, false, err
		}
		if line == "" {
			return defaultIdx, true, nil
		}
		n, err := strconv.Atoi(line)
		if err == nil && n >= 1 && n <= len(options) {
			return n - 1, true, nil
		}
		_, _ = fmt.Fprintf(p.Out, "  Please enter a number between 1 and %d.\n", len(options))
	}
}

// Confirm asks a yes/no question.
func (p *Prompter) Confirm(question string, defaultYes bool) (bool, bool, error) {
	hint := "y/N"
	if defaultYes {
		hint = "Y/n"
	}
	_, _ = fmt.Fprintf(p.Out, "%s [%s]: ", question, hint)
	line, ok, err := p.readLine()
	if !ok {
		return false, false, err
	}
	if line == "" {
		return defaultYes, true, nil
	}
	return strings.HasPrefix(strings.ToLower(line), "y"), true, nil
}
