package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// askYesNo prints prompt on out and reads one answer line from in.
// An empty line, "y" or "yes" (any case) accepts; everything else
// declines. A read error declines too, so a closed stdin never
// confirms anything.
func askYesNo(in *bufio.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "", "y", "yes":
		return true
	default:
		return false
	}
}

// confirm asks a yes/no question on stdout, defaulting to yes.
func (c *CLI) confirm(prompt string) bool {
	return askYesNo(c.stdin, os.Stdout, prompt)
}
