package csv

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// ErrMissingColumn is returned when a required column is absent from the header
	ErrMissingColumn = errors.New("missing required column")
	// ErrEmptyInput is returned when the input has no header row
	ErrEmptyInput = errors.New("input has no header row")
)

// Supported input encodings
const (
	EncodingLatin1      = "latin1"
	EncodingWindows1252 = "windows-1252"
	EncodingCP850       = "cp850"
	EncodingUTF8        = "utf-8"
)

// Options controls how delimited files are decoded
type Options struct {
	// Delimiter separates fields, ';' when zero
	Delimiter rune
	// Encoding of the file bytes, latin1 when empty
	Encoding string
	// DecimalComma accepts "12,5" as 12.5 in numeric cells
	DecimalComma bool
}

// DefaultOptions returns the options of the usual planning export: ';' and Latin-1
func DefaultOptions() Options {
	return Options{Delimiter: ';', Encoding: EncodingLatin1}
}

// Loader handles loading planning data from delimited files
type Loader struct {
	options  Options
	encoding encoding.Encoding
	logger   *zap.Logger
}

// NewLoader creates a new delimited-file loader
func NewLoader(options Options, logger *zap.Logger) (*Loader, error) {
	if options.Delimiter == 0 {
		options.Delimiter = ';'
	}
	if options.Delimiter == '"' || options.Delimiter == '\n' || options.Delimiter == '\r' {
		return nil, fmt.Errorf("invalid delimiter %q", options.Delimiter)
	}
	if options.Encoding == "" {
		options.Encoding = EncodingLatin1
	}
	enc, err := lookupEncoding(options.Encoding)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Loader{options: options, encoding: enc, logger: logger}, nil
}

// Options returns the effective loader options
func (l *Loader) Options() Options {
	return l.options
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case EncodingLatin1, "iso-8859-1", "iso8859-1", "latin-1":
		return charmap.ISO8859_1, nil
	case EncodingWindows1252, "cp1252":
		return charmap.Windows1252, nil
	case EncodingCP850, "ibm850":
		return charmap.CodePage850, nil
	case EncodingUTF8, "utf8":
		return xunicode.UTF8BOM, nil
	default:
		return nil, fmt.Errorf("unsupported encoding: %s (expected: latin1, windows-1252, cp850 or utf-8)", name)
	}
}

// readRecords decodes and parses every record of r, header included
func (l *Loader) readRecords(r io.Reader) ([][]string, error) {
	decoded := transform.NewReader(bufio.NewReader(r), l.encoding.NewDecoder())

	reader := csv.NewReader(decoded)
	reader.Comma = l.options.Delimiter
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse delimited text: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyInput
	}

	for i := range records[0] {
		records[0][i] = strings.TrimSpace(records[0][i])
	}
	return records, nil
}

func openFile(filename, kind string) (*os.File, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", kind, filename, err)
	}
	return file, nil
}

func foldAccents() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// normalizeHeader folds a column name for alias matching: "Référence " -> "reference"
func normalizeHeader(name string) string {
	folded, _, err := transform.String(foldAccents(), strings.TrimSpace(name))
	if err != nil {
		folded = name
	}
	folded = strings.ToLower(folded)
	folded = strings.NewReplacer(" ", "_", "-", "_", "'", "_").Replace(folded)
	return folded
}

// cell returns field i of record, or "" when the record is short
func cell(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}
