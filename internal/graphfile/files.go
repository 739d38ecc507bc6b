package graphfile

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/specialistvlad/proxygraph/internal/ctxlog"
	"github.com/specialistvlad/proxygraph/internal/gerrors"
)

// Stream names select the process streams instead of a file.
const (
	StdinName  = "stdin"
	StdoutName = "stdout"
)

// Files resolves file names to documents. Streams use StreamFormat.
type Files struct {
	Stdin        io.Reader
	Stdout       io.Writer
	StreamFormat Format
}

// DefaultFiles binds the process streams with HCL as the stream format.
func DefaultFiles() Files {
	return Files{Stdin: os.Stdin, Stdout: os.Stdout, StreamFormat: FormatHCL}
}

func (fs Files) streamFormat() Format {
	if fs.StreamFormat == "" {
		return FormatHCL
	}
	return fs.StreamFormat
}

// Read loads the document stored in name.
func (fs Files) Read(ctx context.Context, name string) (*Document, error) {
	logger := ctxlog.FromContext(ctx)
	if name == StdinName {
		if fs.Stdin == nil {
			return nil, fmt.Errorf("read stdin: no input stream: %w", gerrors.ErrIO)
		}
		logger.Debug("Reading graph from stream.", "format", fs.streamFormat())
		return Decode(ctx, fs.Stdin, name, fs.streamFormat())
	}

	f, compressed, err := FormatFor(name)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %w", name, gerrors.ErrIO, err)
	}
	defer file.Close()

	logger.Debug("Reading graph file.", "path", name, "format", f, "compressed", compressed)
	return decodeFramed(ctx, file, name, f, compressed)
}

// Write stores doc in name, replacing an existing file.
func (fs Files) Write(ctx context.Context, name string, doc *Document) error {
	logger := ctxlog.FromContext(ctx)
	if name == StdoutName {
		if fs.Stdout == nil {
			return fmt.Errorf("write stdout: no output stream: %w", gerrors.ErrIO)
		}
		logger.Debug("Writing graph to stream.", "format", fs.streamFormat())
		return Encode(ctx, fs.Stdout, doc, fs.streamFormat())
	}

	f, compressed, err := FormatFor(name)
	if err != nil {
		return err
	}
	file, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("write %s: %w: %w", name, gerrors.ErrIO, err)
	}
	logger.Debug("Writing graph file.", "path", name, "format", f, "compressed", compressed)
	if err := encodeFramed(ctx, file, doc, f, compressed); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("write %s: %w: %w", name, gerrors.ErrIO, err)
	}
	return nil
}
