package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"micros-shell/internal/domain"
)

const choosePrompt = "Choose a device index: "

// linePrompter lists the options and reads the chosen index from a line.
type linePrompter struct {
	out      io.Writer
	readLine func(prompt string) (string, error)
}

var _ domain.Prompter = (*linePrompter)(nil)

func newLinePrompter(out io.Writer) *linePrompter {
	return &linePrompter{out: out, readLine: readlineOnce}
}

func (p *linePrompter) Choose(options []string) (int, error) {
	for _, o := range options {
		fmt.Fprintln(p.out, o)
	}
	line, err := p.readLine(choosePrompt)
	if err != nil {
		return -1, err
	}
	idx, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return -1, fmt.Errorf("%w: %q", domain.ErrInvalidSelection, line)
	}
	return idx, nil
}

func readlineOnce(prompt string) (string, error) {
	rl, err := readline.NewEx(&readline.Config{Prompt: prompt, InterruptPrompt: "^C"})
	if err != nil {
		return "", err
	}
	defer rl.Close()
	return rl.Readline()
}
