package verify

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// IOPrompter reads prompt responses from an io.Reader.
type IOPrompter struct {
	reader *bufio.Reader
	writer io.Writer
}

// NewIOPrompter constructs a prompter from the provided reader and writer.
func NewIOPrompter(input io.Reader, output io.Writer) *IOPrompter {
	return &IOPrompter{reader: bufio.NewReader(input), writer: output}
}

// Ask writes the prompt and returns the trimmed response line.
func (prompter *IOPrompter) Ask(prompt string) (string, error) {
	if prompter.writer != nil {
		if _, writeError := io.WriteString(prompter.writer, prompt); writeError != nil {
			return "", writeError
		}
	}

	response, readError := prompter.reader.ReadString('\n')
	if readError != nil && !errors.Is(readError, io.EOF) {
		return "", readError
	}
	return strings.TrimSpace(response), nil
}

// Confirm interprets affirmative responses (y/yes).
func (prompter *IOPrompter) Confirm(prompt string) (bool, error) {
	response, askError := prompter.Ask(prompt)
	if askError != nil {
		return false, askError
	}

	switch strings.ToLower(response) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
