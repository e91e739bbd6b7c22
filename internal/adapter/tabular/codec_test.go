package tabular

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/giftledger/internal/domain"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

func sampleRows() []domain.TotaledEntry {
	at := time.Date(2024, 5, 18, 11, 30, 15, 0, time.UTC)
	first := &domain.Entry{Seq: 1, Name: "김철수", Affiliation: "회사", Amount: decimal.NewFromInt(5), Note: "-", CreatedAt: at}
	second := &domain.Entry{Seq: 3, Name: "Lee, Jr.", Affiliation: "-", Amount: decimal.RequireFromString("10.5"), Note: "\"VIP\"", CreatedAt: at.Add(time.Minute)}

	return domain.RunningTotals([]*domain.Entry{second, first})
}

func TestEncodeKoreanHeaders(t *testing.T) {
	codec := NewCodec(KoreanHeaders("만원"), time.UTC)

	var buf bytes.Buffer
	require.NoError(t, codec.Encode(&buf, sampleRows()))

	out := buf.Bytes()
	require.True(t, bytes.HasPrefix(out, bom), "expected UTF-8 BOM prefix")

	lines := strings.Split(strings.TrimSuffix(string(out[len(bom):]), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "No,이름,소속,금액(만원),비고,입력시간,누적계(만원)", lines[0])
	assert.Equal(t, "1,김철수,회사,5,-,2024-05-18 11:30:15,5", lines[1])
	assert.Equal(t, `3,"Lee, Jr.",-,10.5,"""VIP""",2024-05-18 11:31:15,15.5`, lines[2])
}

func TestEncodeEmptyLedgerWritesHeaderOnly(t *testing.T) {
	codec := NewCodec(EnglishHeaders, time.UTC)

	var buf bytes.Buffer
	require.NoError(t, codec.Encode(&buf, nil))

	assert.Equal(t, string(bom)+"No,Name,Affiliation,Amount,Note,CreatedAt,RunningTotal\n", buf.String())
}

func TestEncodeUsesConfiguredLocation(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)
	codec := NewCodec(EnglishHeaders, seoul)

	var buf bytes.Buffer
	require.NoError(t, codec.Encode(&buf, sampleRows()[:1]))

	assert.Contains(t, buf.String(), "2024-05-18 20:30:15")
}

func TestKoreanHeadersWithoutUnit(t *testing.T) {
	h := KoreanHeaders("")
	assert.Equal(t, "금액", h[3])
	assert.Equal(t, "누적계", h[6])
}

func TestDecodeReadsWhatEncodeWrites(t *testing.T) {
	for _, headers := range [][]string{EnglishHeaders, KoreanHeaders("만원"), KoreanHeaders("원")} {
		codec := NewCodec(headers, time.UTC)
		rows := sampleRows()

		var buf bytes.Buffer
		require.NoError(t, codec.Encode(&buf, rows))

		entries, err := codec.Decode(&buf)
		require.NoError(t, err)
		require.Len(t, entries, len(rows))

		for i, e := range entries {
			assert.True(t, e.SameContent(rows[i].Entry), "entry %d differs: %+v vs %+v", i, e, rows[i].Entry)
		}
	}
}

func TestDecodeWithoutBOMAndExtraColumns(t *testing.T) {
	input := "삭제,No,이름,소속,금액(만원),비고\nfalse,2,Park,,7,\n\n"
	codec := NewCodec(nil, time.UTC)

	entries, err := codec.Decode(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, int64(2), e.Seq)
	assert.Equal(t, "Park", e.Name)
	assert.Equal(t, domain.Placeholder, e.Affiliation)
	assert.Equal(t, domain.Placeholder, e.Note)
	assert.True(t, e.Amount.Equal(decimal.NewFromInt(7)))
	assert.True(t, e.CreatedAt.IsZero())
}

func TestDecodeEmptyInput(t *testing.T) {
	codec := NewCodec(nil, time.UTC)

	entries, err := codec.Decode(bytes.NewReader(bom))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "missing amount column", input: "No,Name\n1,Kim\n", wantErr: ErrMissingColumn},
		{name: "bad sequence", input: "No,Name,Amount\nx,Kim,5\n", wantErr: ErrMalformedRow},
		{name: "bad amount", input: "No,Name,Amount\n1,Kim,five\n", wantErr: ErrMalformedRow},
		{name: "bad timestamp", input: "No,Name,Amount,CreatedAt\n1,Kim,5,yesterday\n", wantErr: ErrMalformedRow},
		{name: "negative amount", input: "No,Name,Amount\n1,Kim,-5\n", wantErr: domain.ErrNegativeAmount},
		{name: "negative amount is malformed", input: "No,Name,Amount\n1,Kim,-5\n", wantErr: ErrMalformedRow},
		{name: "oversized amount", input: "No,Name,Amount\n1,Kim,1000000001\n", wantErr: domain.ErrAmountTooLarge},
		{name: "duplicate seq", input: "No,Name,Amount\n1,Kim,5\n1,Lee,6\n", wantErr: ErrDuplicateSeq},
		{name: "unbalanced quote", input: "No,Name,Amount\n1,\"Kim,5\n", wantErr: ErrMalformedRow},
	}

	codec := NewCodec(nil, time.UTC)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Decode(strings.NewReader(tt.input))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
