package scheduler

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"market-watcher/internal/watchlist"
)

// Prompter collects Manager-mode input from the operator.
type Prompter interface {
	Choose(cfg *watchlist.Config) (Op, error)
	Symbol(question string) (string, error)
	Notify(msg string)
}

var (
	menuTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8c00be"))
	menuNoteStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00f5d4"))
)

// LinePrompter reads answers line by line.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewLinePrompter builds a prompter on the given streams.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(in), out: out}
}

// Choose shows the menu until a valid choice is entered.
func (p *LinePrompter) Choose(cfg *watchlist.Config) (Op, error) {
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, menuTitleStyle.Render("--- MANAGER MODE ---"))
	for _, item := range menu {
		fmt.Fprintf(p.out, "[%s] %s\n", item.key, item.op.Label(cfg))
	}

	keys := make([]string, len(menu))
	for i, item := range menu {
		keys[i] = item.key
	}

	for {
		fmt.Fprintf(p.out, "\nSelect Option [%s] (5): ", strings.Join(keys, "/"))
		line, err := p.readLine()
		if err != nil {
			return 0, err
		}
		if op, ok := ParseOp(line); ok {
			return op, nil
		}
		fmt.Fprintln(p.out, "Please select one of the available options")
	}
}

// Symbol asks question and returns the raw answer.
func (p *LinePrompter) Symbol(question string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", question)
	return p.readLine()
}

// Notify prints an operator-facing message.
func (p *LinePrompter) Notify(msg string) {
	fmt.Fprintln(p.out, menuNoteStyle.Render(msg))
}

func (p *LinePrompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

var _ Prompter = (*LinePrompter)(nil)
