package cidr

import (
	"bufio"
	"errors"
	"io"
	"os"
)

var (
	ErrOpenOutput  = errors.New("failed to open block list for writing")
	ErrWriteOutput = errors.New("failed to write block list")
)

// Write emits one block per line in the order given.
func Write(writer io.Writer, blocks []Block) error {
	buffered := bufio.NewWriter(writer)

	for _, block := range blocks {
		if _, errWrite := buffered.WriteString(block.String() + "\n"); errWrite != nil {
			return errors.Join(errWrite, ErrWriteOutput)
		}
	}

	if errFlush := buffered.Flush(); errFlush != nil {
		return errors.Join(errFlush, ErrWriteOutput)
	}

	return nil
}

// WriteFile overwrites path with the rendered block list.
func WriteFile(path string, blocks []Block) error {
	outFile, errCreate := os.Create(path)
	if errCreate != nil {
		return errors.Join(errCreate, ErrOpenOutput)
	}

	if errWrite := Write(outFile, blocks); errWrite != nil {
		_ = outFile.Close()

		return errWrite
	}

	if errClose := outFile.Close(); errClose != nil {
		return errors.Join(errClose, ErrWriteOutput)
	}

	return nil
}
