package contact

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	// ErrMissingColumns indicates the header row lacks a required column
	ErrMissingColumns = errors.New("CSV file must contain columns: " + strings.Join(RequiredColumns, ", "))

	// ErrInvalidEncoding indicates the input is not valid UTF-8
	ErrInvalidEncoding = errors.New("CSV file is not valid UTF-8")

	// ErrEmptyFile indicates the input has no header row
	ErrEmptyFile = errors.New("CSV file is empty")
)

// header maps the required column names to their index in a record
type header map[string]int

func parseHeader(fields []string) (header, error) {
	idx := make(header, len(fields))
	for i, f := range fields {
		// a repeated column name resolves to its last occurrence
		idx[f] = i
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w (missing: %s; found columns: %s)",
			ErrMissingColumns, strings.Join(missing, ", "), strings.Join(fields, ", "))
	}
	return idx, nil
}

func (h header) get(record []string, col string) string {
	i := h[col]
	if i >= len(record) {
		return ""
	}
	return record[i]
}

// Read parses contacts from CSV data. Only failures affecting the whole
// input are returned as errors; bad rows are collected in Result.Skipped.
func Read(r io.Reader) (*Result, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV data: %w", err)
	}
	if !utf8.Valid(raw) {
		return nil, ErrInvalidEncoding
	}

	data, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode CSV data: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	fields, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols, err := parseHeader(fields)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for row := 2; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", row, err)
		}

		if allEmpty(record) {
			continue
		}

		c, issue := parseRow(cols, record, row)
		if issue != nil {
			result.Skipped = append(result.Skipped, *issue)
			continue
		}
		result.Contacts = append(result.Contacts, c)
	}

	return result, nil
}

func parseRow(cols header, record []string, row int) (Contact, *RowIssue) {
	var missing []string
	values := make(map[string]string, len(RequiredColumns))
	for _, col := range RequiredColumns {
		v := strings.TrimSpace(cols.get(record, col))
		if v == "" {
			missing = append(missing, col)
		}
		values[col] = v
	}
	if len(missing) > 0 {
		return Contact{}, &RowIssue{Row: row, Reason: ReasonMissingFields, Missing: missing}
	}

	c := Contact{
		Name:    values[ColumnName],
		Email:   strings.ToLower(values[ColumnEmail]),
		Company: values[ColumnCompany],
	}
	if !ValidEmail(c.Email) {
		return Contact{}, &RowIssue{Row: row, Reason: ReasonInvalidEmail, Email: c.Email}
	}
	return c, nil
}

func allEmpty(record []string) bool {
	for _, f := range record {
		if f != "" {
			return false
		}
	}
	return true
}

// Load reads the contact file at path. It never fails: a missing file,
// a bad header or a read error is logged and yields no contacts.
func Load(ctx context.Context, path string) []Contact {
	logger := zerolog.Ctx(ctx).With().Str("csv_file", path).Logger()

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Error().Msg("CSV file not found")
		} else {
			logger.Error().Err(err).Msg("Error reading CSV file")
		}
		return nil
	}
	defer f.Close()

	result, err := Read(f)
	if err != nil {
		logger.Error().Err(err).Msg("Error reading CSV file")
		return nil
	}

	for _, issue := range result.Skipped {
		logger.Warn().Int("row", issue.Row).Msg(issue.String())
	}

	logger.Info().
		Int("loaded", len(result.Contacts)).
		Int("skipped", len(result.Skipped)).
		Msgf("Successfully loaded %d HR contacts from CSV", len(result.Contacts))

	return result.Contacts
}
