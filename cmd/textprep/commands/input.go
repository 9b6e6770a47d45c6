package commands

import (
	"fmt"
	"io"
	"os"
)

// input is one text to process and where it came from.
type input struct {
	Source string
	Text   string
}

// readInputs reads every path in args; "-" or no args at all means stdin.
func readInputs(args []string, stdin io.Reader) ([]input, error) {
	if len(args) == 0 {
		args = []string{"-"}
	}

	inputs := make([]input, 0, len(args))
	stdinUsed := false
	for _, path := range args {
		if path == "-" {
			if stdinUsed {
				return nil, fmt.Errorf("stdin given more than once")
			}
			stdinUsed = true

			data, err := io.ReadAll(stdin)
			if err != nil {
				return nil, fmt.Errorf("read stdin: %w", err)
			}
			inputs = append(inputs, input{Source: "-", Text: string(data)})
			continue
		}

		data, err := os.ReadFile(path) //#nosec G304
		if err != nil {
			return nil, fmt.Errorf("read input: %w", err)
		}
		inputs = append(inputs, input{Source: path, Text: string(data)})
	}
	return inputs, nil
}
