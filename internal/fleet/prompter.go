package fleet

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// IOMessagePrompter reads a single line of input after writing a prompt.
type IOMessagePrompter struct {
	reader *bufio.Reader
	writer io.Writer
}

// NewIOMessagePrompter constructs a prompter from the provided reader and writer.
func NewIOMessagePrompter(input io.Reader, output io.Writer) *IOMessagePrompter {
	return &IOMessagePrompter{reader: bufio.NewReader(input), writer: output}
}

// Prompt writes prompt and returns the trimmed line that follows. End of input yields what was read so far.
func (prompter *IOMessagePrompter) Prompt(prompt string) (string, error) {
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
