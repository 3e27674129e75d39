// Package input collects raw candidate guid lines for classification.
package input

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// IsStdinPiped checks if stdin is being piped to the program
func IsStdinPiped() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// Candidates reads raw guid lines from path, or from piped stdin when path is
// empty. Lines are returned untrimmed, including blanks and comments;
// filtering is the classifier's job.
func Candidates(path string) ([]string, error) {
	if path == "" {
		if !IsStdinPiped() {
			return nil, fmt.Errorf("no input file given and nothing piped to stdin")
		}
		return scanLines(os.Stdin)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening guid list: %w", err)
	}
	defer file.Close()
	return scanLines(file)
}

func scanLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading guid list: %w", err)
	}
	return lines, nil
}
