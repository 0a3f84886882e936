package main

import (
	"bufio"
	"fmt"
	"strings"
)

func printPrompt() {
	fmt.Print("bgldb > ")
}

// readInput reads one line of REPL input, trimming the trailing newline
// the way the shell's own command/statement parsers expect.
func readInput(reader *bufio.Reader) (string, error) {
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// MetaCommandResult reports whether a "." line was a recognized shell
// command rather than a store statement.
type MetaCommandResult int

const (
	MetaCommandSuccess MetaCommandResult = iota
	MetaCommandUnrecognizedCommand
	MetaCommandExit
)

// handleMetaCommand recognizes the shell's own "." commands, as opposed
// to a statement against the store. Callers only invoke it once they've
// seen the "." prefix.
func handleMetaCommand(line string) MetaCommandResult {
	switch strings.TrimSpace(line) {
	case ".exit":
		return MetaCommandExit
	case ".help", ".stats":
		return MetaCommandSuccess
	default:
		return MetaCommandUnrecognizedCommand
	}
}
