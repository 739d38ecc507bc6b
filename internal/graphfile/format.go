package graphfile

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/specialistvlad/proxygraph/internal/gerrors"
	"gopkg.in/yaml.v3"
)

// Format names a textual graph encoding.
type Format string

const (
	FormatHCL  Format = "hcl"
	FormatYAML Format = "yaml"
	FormatDOT  Format = "dot"
)

const zstdSuffix = ".zst"

// ParseFormat accepts "hcl", "yaml", "yml", "dot" and "gv".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "hcl":
		return FormatHCL, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "dot", "gv":
		return FormatDOT, nil
	}
	return "", fmt.Errorf("graph file format %q: %w", s, gerrors.ErrInvalidFormat)
}

// FormatFor derives the format of a file from its extension. compressed
// reports a trailing ".zst".
func FormatFor(path string) (f Format, compressed bool, err error) {
	if strings.HasSuffix(path, zstdSuffix) {
		compressed = true
		path = strings.TrimSuffix(path, zstdSuffix)
	}
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", false, fmt.Errorf("file %q has no extension: %w", path, gerrors.ErrInvalidFormat)
	}
	f, err = ParseFormat(ext)
	return f, compressed, err
}

// Encode writes doc to w in format f.
func Encode(ctx context.Context, w io.Writer, doc *Document, f Format) error {
	var data []byte
	var err error
	switch f {
	case FormatHCL:
		data, err = encodeHCL(doc)
	case FormatYAML:
		data, err = yaml.Marshal(doc)
	case FormatDOT:
		data, err = encodeDOT(doc)
	default:
		return fmt.Errorf("encode %q: %w", f, gerrors.ErrInvalidFormat)
	}
	if err != nil {
		return fmt.Errorf("write failed: %w: %w", gerrors.ErrIO, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write failed: %w: %w", gerrors.ErrIO, err)
	}
	return nil
}

// Decode reads one document in format f. name is used in diagnostics only.
func Decode(ctx context.Context, r io.Reader, name string, f Format) (*Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %w", name, gerrors.ErrIO, err)
	}
	var doc *Document
	switch f {
	case FormatHCL:
		doc, err = decodeHCL(src, name)
	case FormatYAML:
		doc = &Document{}
		err = yaml.Unmarshal(src, doc)
	case FormatDOT:
		return nil, fmt.Errorf("read %s: dot input is not supported: %w", name, gerrors.ErrInvalidFormat)
	default:
		return nil, fmt.Errorf("decode %q: %w", f, gerrors.ErrInvalidFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("parse failed for %s: %w: %w", name, gerrors.ErrIO, err)
	}
	if doc.Name == "" {
		return nil, fmt.Errorf("parse failed for %s: graph has no name: %w", name, gerrors.ErrIO)
	}
	return doc, nil
}

// Compress frames data with zstd.
func Compress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

// Decompress removes zstd framing.
func Decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(data, nil)
}

// decodeFramed reads a document that may be zstd framed.
func decodeFramed(ctx context.Context, r io.Reader, name string, f Format, compressed bool) (*Document, error) {
	if !compressed {
		return Decode(ctx, r, name, f)
	}
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %w", name, gerrors.ErrIO, err)
	}
	defer dec.Close()
	return Decode(ctx, dec, name, f)
}

// encodeFramed writes a document, adding zstd framing when compressed.
func encodeFramed(ctx context.Context, w io.Writer, doc *Document, f Format, compressed bool) error {
	if !compressed {
		return Encode(ctx, w, doc, f)
	}
	var buf bytes.Buffer
	if err := Encode(ctx, &buf, doc, f); err != nil {
		return err
	}
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("write failed: %w: %w", gerrors.ErrIO, err)
	}
	if _, err := enc.Write(buf.Bytes()); err != nil {
		enc.Close()
		return fmt.Errorf("write failed: %w: %w", gerrors.ErrIO, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("write failed: %w: %w", gerrors.ErrIO, err)
	}
	return nil
}
