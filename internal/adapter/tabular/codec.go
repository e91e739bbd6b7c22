// Package tabular reads and writes the ledger as a spreadsheet-friendly CSV
// file: UTF-8 with a byte order mark, one header row, one row per entry.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/iho/giftledger/internal/domain"
)

// TimeLayout is the timestamp format used in exported files.
const TimeLayout = "2006-01-02 15:04:05"

var (
	ErrMissingColumn = errors.New("missing required column")
	ErrMalformedRow  = errors.New("malformed row")
	ErrDuplicateSeq  = errors.New("duplicate sequence number")
)

type column int

const (
	colSeq column = iota
	colName
	colAffiliation
	colAmount
	colNote
	colCreatedAt
	colRunningTotal
	colUnknown
)

// EnglishHeaders is the header row for the "en" header set.
var EnglishHeaders = []string{"No", "Name", "Affiliation", "Amount", "Note", "CreatedAt", "RunningTotal"}

// KoreanHeaders returns the header row for the "ko" header set. unit is shown
// next to the amount columns, e.g. 금액(만원).
func KoreanHeaders(unit string) []string {
	withUnit := func(label string) string {
		if unit == "" {
			return label
		}
		return fmt.Sprintf("%s(%s)", label, unit)
	}

	return []string{"No", "이름", "소속", withUnit("금액"), "비고", "입력시간", withUnit("누적계")}
}

// Codec converts between entries and CSV.
type Codec struct {
	headers []string
	loc     *time.Location
}

// NewCodec creates a codec writing the given header row. Timestamps are
// rendered and parsed in loc (time.Local when nil).
func NewCodec(headers []string, loc *time.Location) *Codec {
	if loc == nil {
		loc = time.Local
	}
	if len(headers) != len(EnglishHeaders) {
		headers = EnglishHeaders
	}

	return &Codec{headers: headers, loc: loc}
}

// Encode writes a BOM, the header row and one row per entry, in the order given.
func (c *Codec) Encode(w io.Writer, rows []domain.TotaledEntry) error {
	tw := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	cw := csv.NewWriter(tw)

	if err := cw.Write(c.headers); err != nil {
		return err
	}

	for _, row := range rows {
		e := row.Entry
		record := []string{
			strconv.FormatInt(e.Seq, 10),
			e.Name,
			e.Affiliation,
			e.Amount.String(),
			e.Note,
			formatTime(e.CreatedAt, c.loc),
			row.RunningTotal.String(),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	return tw.Close()
}

// Decode reads entries written by Encode, with either header set and with or
// without a BOM. Columns are matched by header name; the running total
// column is ignored. An empty input yields no entries.
func (c *Codec) Decode(r io.Reader) ([]*domain.Entry, error) {
	cr := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRow, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	index := make(map[column]int)
	for i, h := range records[0] {
		if col := columnOf(h); col != colUnknown {
			if _, dup := index[col]; !dup {
				index[col] = i
			}
		}
	}

	for _, required := range []column{colSeq, colName, colAmount} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, EnglishHeaders[required])
		}
	}

	seen := make(map[int64]bool, len(records)-1)
	entries := make([]*domain.Entry, 0, len(records)-1)

	for i, record := range records[1:] {
		line := i + 2
		if isBlank(record) {
			continue
		}

		get := func(col column) string {
			idx, ok := index[col]
			if !ok || idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}

		seq, err := strconv.ParseInt(get(colSeq), 10, 64)
		if err != nil || seq <= 0 {
			return nil, fmt.Errorf("%w: line %d: bad sequence number %q", ErrMalformedRow, line, get(colSeq))
		}
		if seen[seq] {
			return nil, fmt.Errorf("%w: line %d: %d", ErrDuplicateSeq, line, seq)
		}
		seen[seq] = true

		amount, err := decimal.NewFromString(get(colAmount))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: bad amount %q", ErrMalformedRow, line, get(colAmount))
		}
		if err := domain.ValidateAmount(amount); err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedRow, line, err)
		}

		createdAt, err := parseTime(get(colCreatedAt), c.loc)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: bad timestamp %q", ErrMalformedRow, line, get(colCreatedAt))
		}

		entry := &domain.Entry{
			Seq:         seq,
			Name:        get(colName),
			Affiliation: get(colAffiliation),
			Amount:      amount,
			Note:        get(colNote),
			CreatedAt:   createdAt,
		}
		entry.Normalize()

		entries = append(entries, entry)
	}

	return entries, nil
}

func columnOf(header string) column {
	h := strings.TrimSpace(header)

	switch strings.ToLower(h) {
	case "no", "seq", "번호":
		return colSeq
	case "name", "이름":
		return colName
	case "affiliation", "소속":
		return colAffiliation
	case "amount":
		return colAmount
	case "note", "비고":
		return colNote
	case "createdat", "created_at", "입력시간":
		return colCreatedAt
	case "runningtotal", "running_total":
		return colRunningTotal
	}

	switch {
	case strings.HasPrefix(h, "금액"):
		return colAmount
	case strings.HasPrefix(h, "누적계"):
		return colRunningTotal
	}

	return colUnknown
}

func formatTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format(TimeLayout)
}

func parseTime(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(TimeLayout, s, loc)
}

func isBlank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
