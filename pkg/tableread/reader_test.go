package tableread

import (
	"context"
	"fmt"
	"strings"
	"testing"

	apperrors "github.com/ignitionstack/rfcbridge/pkg/errors"
	"github.com/ignitionstack/rfcbridge/pkg/metadata"
	"github.com/ignitionstack/rfcbridge/pkg/rfc"
	"github.com/ignitionstack/rfcbridge/pkg/rfc/rfctest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func t000Fields() rfc.Result {
	return rfctest.FieldInfo(
		rfctest.Field("MANDT", "C", 3, true, 1),
		rfctest.Field("MTEXT", "C", 25, false, 2),
		rfctest.Field("ORT01", "C", 25, false, 3),
		rfctest.Field("MWAER", "C", 5, false, 4),
		rfctest.Field("BUKRS", "C", 4, false, 5),
	)
}

// wideFields returns n fields named F01..Fnn of the given width.
func wideFields(n, width int) rfc.Result {
	rows := make([]map[string]any, 0, n)
	for i := 1; i <= n; i++ {
		rows = append(rows, rfctest.Field(fmt.Sprintf("F%02d", i), "C", width, false, i))
	}
	return rfctest.FieldInfo(rows...)
}

func requestedFields(p rfc.Params) []string {
	var names []string
	for _, f := range rfc.Table(p, "FIELDS") {
		names = append(names, rfc.String(f, "FIELDNAME"))
	}
	return names
}

// echoRows answers RFC_READ_TABLE with n rows whose values are
// "<field>-<row>" for each requested field.
func echoRows(n int) rfctest.Handler {
	return func(p rfc.Params) (rfc.Result, error) {
		fields := requestedFields(p)
		lines := make([]string, 0, n)
		for i := 0; i < n; i++ {
			values := make([]string, len(fields))
			for j, f := range fields {
				values[j] = fmt.Sprintf("%s-%d", f, i)
			}
			lines = append(lines, strings.Join(values, rfc.String(p, "DELIMITER")))
		}
		return rfctest.Rows(lines...), nil
	}
}

func structureOf(t *testing.T, r *Reader, fields rfc.Result) *metadata.TableStructure {
	t.Helper()
	fake := rfctest.NewFakeCaller().Respond(fnFieldInfo, fields)
	s := New(fake, r.opts).GetTableStructure(context.Background(), "ZTAB")
	require.True(t, s.StructureAvailable)
	return s
}

func TestNewAppliesDefaults(t *testing.T) {
	r := New(nil, Options{})
	assert.Equal(t, DefaultBufferSize-DefaultSafetyMargin, r.Budget())

	r = New(nil, Options{BufferSize: 1024, SafetyMargin: 100})
	assert.Equal(t, 924, r.Budget())

	r = New(nil, Options{SafetyMargin: 512})
	assert.Equal(t, DefaultBufferSize-DefaultSafetyMargin, r.Budget())
}

func TestSelectFieldsAutoPrefersKeysThenNarrow(t *testing.T) {
	r := New(nil, Options{})
	selected, size := r.SelectFields(structureOf(t, r, t000Fields()), nil)

	assert.Equal(t, []string{"MANDT", "BUKRS", "MWAER", "MTEXT", "ORT01"}, selected)
	assert.Equal(t, 62, size)
}

func TestSelectFieldsAutoStaysWithinBudget(t *testing.T) {
	r := New(nil, Options{})
	selected, size := r.SelectFields(structureOf(t, r, wideFields(10, 100)), nil)

	assert.Equal(t, []string{"F01", "F02", "F03", "F04"}, selected)
	assert.Equal(t, 400, size)
	assert.LessOrEqual(t, size, DefaultBufferSize-DefaultSafetyMargin)
}

func TestSelectFieldsAutoAlwaysPicksOne(t *testing.T) {
	r := New(nil, Options{})
	selected, size := r.SelectFields(structureOf(t, r, wideFields(2, 600)), nil)

	assert.Equal(t, []string{"F01"}, selected)
	assert.Equal(t, 600, size)
}

func TestSelectFieldsRequested(t *testing.T) {
	r := New(nil, Options{})
	s := structureOf(t, r, wideFields(6, 200))

	selected, size := r.SelectFields(s, []string{"f03", "NOPE", "F01", "F02"})
	assert.Equal(t, []string{"F03", "F01"}, selected)
	assert.Equal(t, 400, size)

	// Nothing usable falls back to automatic selection.
	selected, _ = r.SelectFields(s, []string{"NOPE"})
	assert.Equal(t, []string{"F01", "F02"}, selected)
}

func TestSelectFieldsWithoutStructure(t *testing.T) {
	r := New(nil, Options{})
	selected, size := r.SelectFields(&metadata.TableStructure{TableName: "ZTAB"}, []string{"A"})
	assert.Equal(t, []string{FallbackField}, selected)
	assert.Equal(t, FallbackFieldSize, size)
}

func TestSelectFieldsNeverExceedsBuffer(t *testing.T) {
	r := New(nil, Options{})
	for _, width := range []int{1, 7, 33, 100, 250, 511} {
		s := structureOf(t, r, wideFields(12, width))
		selected, size := r.SelectFields(s, nil)
		assert.NotEmpty(t, selected, "width %d", width)
		assert.LessOrEqual(t, size, DefaultBufferSize, "width %d", width)

		selected, size = r.SelectFields(s, []string{"F12", "F11", "F10", "F09", "F08"})
		assert.NotEmpty(t, selected, "width %d", width)
		assert.LessOrEqual(t, size, DefaultBufferSize, "width %d", width)
	}
}

func TestGetTableStructureFailure(t *testing.T) {
	fake := rfctest.NewFakeCaller().Fail(fnFieldInfo, rfc.NewError(rfc.KindABAP, rfc.KeyNotFound, ""))
	s := New(fake, Options{}).GetTableStructure(context.Background(), "zmissing")

	assert.Equal(t, "ZMISSING", s.TableName)
	assert.False(t, s.StructureAvailable)
	assert.Contains(t, s.Error, "NOT_FOUND")
}

func TestReadTableSafeT000(t *testing.T) {
	fake := rfctest.NewFakeCaller().
		Respond(fnFieldInfo, t000Fields()).
		Respond(fnReadTable, rfctest.Rows(
			"000|0001|EUR |SAP AG    |Walldorf",
			"001|1000|USD |Auslieferung|Palo Alto",
		))
	r := New(fake, Options{})

	res, err := r.ReadTableSafe(context.Background(), Request{Table: "t000"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, MethodSafe, res.Method)
	assert.Equal(t, "T000", res.TableName)
	assert.Equal(t, 2, res.RowCount)
	assert.Equal(t, "MANDT", res.SelectedFields[0])
	assert.Equal(t, map[string]string{
		"MANDT": "000", "BUKRS": "0001", "MWAER": "EUR", "MTEXT": "SAP AG", "ORT01": "Walldorf",
	}, res.Rows[0])

	call := fake.CallsTo(fnReadTable)[0]
	assert.Equal(t, "T000", call.Params["QUERY_TABLE"])
	assert.Equal(t, "|", call.Params["DELIMITER"])
	assert.Equal(t, DefaultMaxRows, call.Params["ROWCOUNT"])
	assert.NotContains(t, call.Params, "OPTIONS")
}

func TestReadTableSafeRowsWithoutDelimiter(t *testing.T) {
	fake := rfctest.NewFakeCaller().
		Respond(fnFieldInfo, t000Fields()).
		Respond(fnReadTable, rfctest.Rows("000 "))
	r := New(fake, Options{})

	res, err := r.ReadTableSafe(context.Background(), Request{Table: "T000", Fields: []string{"MANDT"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"MANDT": "000"}, res.Rows[0])

	res, err = r.ReadTableSafe(context.Background(), Request{Table: "T000", Fields: []string{"MANDT", "BUKRS"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{RawColumn: "000 "}, res.Rows[0])
}

func TestReadTableSafeSplitsLongConditions(t *testing.T) {
	fake := rfctest.NewFakeCaller().
		Respond(fnFieldInfo, t000Fields()).
		Respond(fnReadTable, rfctest.Rows())
	r := New(fake, Options{})

	where := "MTEXT = 'A very long company name with spaces' AND ORT01 = 'Some City Name' AND MWAER = 'EUR'"
	_, err := r.ReadTableSafe(context.Background(), Request{Table: "T000", Where: []string{where}, MaxRows: 5})
	require.NoError(t, err)

	call := fake.CallsTo(fnReadTable)[0]
	assert.Equal(t, 5, call.Params["ROWCOUNT"])
	lines := rfc.Table(call.Params, "OPTIONS")
	require.Greater(t, len(lines), 1)

	var parts []string
	for _, line := range lines {
		text := rfc.String(line, "TEXT")
		assert.LessOrEqual(t, len(text), rfc.OptionLineWidth)
		parts = append(parts, text)
	}
	assert.Equal(t, where, strings.Join(parts, " "))
}

func TestReadTableSafeRetriesOnceOnBufferOverflow(t *testing.T) {
	fake := rfctest.NewFakeCaller().
		Respond(fnFieldInfo, rfctest.FieldInfo(
			rfctest.Field("GJAHR", "N", 4, true, 3),
			rfctest.Field("MANDT", "C", 3, true, 1),
			rfctest.Field("BUKRS", "C", 4, true, 2),
			rfctest.Field("SGTXT", "C", 50, false, 4),
		))
	attempts := 0
	fake.Handle(fnReadTable, func(p rfc.Params) (rfc.Result, error) {
		attempts++
		if attempts == 1 {
			return nil, rfc.NewError(rfc.KindABAP, rfc.KeyDataBufferExceeded, "")
		}
		return echoRows(2)(p)
	})
	r := New(fake, Options{})

	res, err := r.ReadTableSafe(context.Background(), Request{Table: "BKPF"})
	require.NoError(t, err)
	assert.Equal(t, MethodMinimal, res.Method)
	assert.Equal(t, []string{"MANDT", "BUKRS"}, res.SelectedFields)
	assert.Equal(t, "BUKRS-1", res.Rows[1]["BUKRS"])
	assert.Equal(t, 2, attempts)
}

func TestReadTableSafeGivesUpAfterOneRetry(t *testing.T) {
	fake := rfctest.NewFakeCaller().
		Respond(fnFieldInfo, wideFields(3, 30)).
		Fail(fnReadTable, rfc.NewError(rfc.KindABAP, "", "RFC_READ_TABLE raised DATA_BUFFER_EXCEEDED"))
	r := New(fake, Options{})

	res, err := r.ReadTableSafe(context.Background(), Request{Table: "ZWIDE"})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindBufferExceeded))

	assert.False(t, res.Success)
	assert.Equal(t, apperrors.KindBufferExceeded, res.ErrorCode)
	assert.Equal(t, "Table has very wide rows. Try specifying specific narrow fields.", res.SuggestedRemedy)
	assert.Contains(t, res.OriginalError, "DATA_BUFFER_EXCEEDED")
	assert.Equal(t, []string{"F01"}, res.SelectedFields)
	assert.Len(t, fake.CallsTo(fnReadTable), 2)
}

func TestReadTableSafeOtherErrorsAreNotRetried(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind apperrors.Kind
	}{
		{"missing table", rfc.NewError(rfc.KindABAP, rfc.KeyTableNotAvailable, ""), apperrors.KindNotFound},
		{"connection", rfc.NewError(rfc.KindCommunication, "", "partner not reached"), apperrors.KindConnection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := rfctest.NewFakeCaller().
				Respond(fnFieldInfo, t000Fields()).
				Fail(fnReadTable, tt.err)

			res, err := New(fake, Options{}).ReadTableSafe(context.Background(), Request{Table: "T000"})
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, tt.kind))
			assert.Equal(t, tt.kind, res.ErrorCode)
			assert.Len(t, fake.CallsTo(fnReadTable), 1)
		})
	}
}

func TestReadTableSafeRequiresTable(t *testing.T) {
	res, err := New(rfctest.NewFakeCaller(), Options{}).ReadTableSafe(context.Background(), Request{})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindInvalidRequest, res.ErrorCode)
}

func TestReadTableIterativeMergesByRow(t *testing.T) {
	fake := rfctest.NewFakeCaller().
		Respond(fnFieldInfo, wideFields(10, 100)).
		Handle(fnReadTable, echoRows(3))
	r := New(fake, Options{})

	var all []string
	for i := 1; i <= 10; i++ {
		all = append(all, fmt.Sprintf("F%02d", i))
	}

	res, err := r.ReadTableIterative(context.Background(), Request{Table: "ZWIDE", Fields: all})
	require.NoError(t, err)
	assert.Equal(t, MethodIterative, res.Method)
	assert.Equal(t, 3, res.ChunkCount)
	assert.Equal(t, [][]string{all[0:4], all[4:8], all[8:10]}, res.FieldChunks)
	assert.Len(t, fake.CallsTo(fnReadTable), 3)

	require.Equal(t, 3, res.RowCount)
	for i, row := range res.Rows {
		assert.Len(t, row, 10)
		for _, f := range all {
			assert.Equal(t, fmt.Sprintf("%s-%d", f, i), row[f])
		}
	}
}

func TestReadTableIterativeOversizeFieldGetsOwnChunk(t *testing.T) {
	fake := rfctest.NewFakeCaller().
		Respond(fnFieldInfo, rfctest.FieldInfo(
			rfctest.Field("ID", "C", 10, true, 1),
			rfctest.Field("BLOB", "C", 600, false, 2),
			rfctest.Field("NAME", "C", 40, false, 3),
		)).
		Handle(fnReadTable, echoRows(1))

	res, err := New(fake, Options{}).ReadTableIterative(context.Background(), Request{
		Table:  "ZBLOB",
		Fields: []string{"ID", "BLOB", "GHOST", "NAME"},
	})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"ID"}, {"BLOB"}, {"NAME"}}, res.FieldChunks)
	assert.Equal(t, "BLOB-0", res.Rows[0]["BLOB"])
}

func TestReadTableIterativeAbortsOnChunkFailure(t *testing.T) {
	fake := rfctest.NewFakeCaller().Respond(fnFieldInfo, wideFields(10, 100))
	calls := 0
	fake.Handle(fnReadTable, func(p rfc.Params) (rfc.Result, error) {
		calls++
		if calls == 2 {
			return nil, rfc.NewError(rfc.KindCommunication, "", "connection lost")
		}
		return echoRows(2)(p)
	})

	res, err := New(fake, Options{}).ReadTableIterative(context.Background(), Request{
		Table:  "ZWIDE",
		Fields: []string{"F01", "F02", "F03", "F04", "F05", "F06", "F07", "F08", "F09"},
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindConnection))
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "chunk 2 failed")
	require.Len(t, res.ChunkResults, 2)
	assert.True(t, res.ChunkResults[0].Success)
	assert.False(t, res.ChunkResults[1].Success)
	assert.Equal(t, 2, res.RowCount)
	assert.Equal(t, 2, calls)
}

func TestReadTableIterativeFailsWhenChunkIsNarrowed(t *testing.T) {
	fake := rfctest.NewFakeCaller().Respond(fnFieldInfo, rfctest.FieldInfo(
		rfctest.Field("MANDT", "C", 3, true, 1),
		rfctest.Field("A", "C", 200, false, 2),
		rfctest.Field("B", "C", 200, false, 3),
		rfctest.Field("C", "C", 200, false, 4),
	))
	calls := 0
	fake.Handle(fnReadTable, func(p rfc.Params) (rfc.Result, error) {
		calls++
		if calls == 2 {
			return nil, rfc.NewError(rfc.KindABAP, rfc.KeyDataBufferExceeded, "")
		}
		return echoRows(1)(p)
	})

	res, err := New(fake, Options{}).ReadTableIterative(context.Background(), Request{
		Table:  "ZABC",
		Fields: []string{"A", "B", "C"},
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindBufferExceeded))
	assert.False(t, res.Success)
	assert.Equal(t, apperrors.KindBufferExceeded, res.ErrorCode)
	assert.Contains(t, res.Error, "chunk 2 failed")
	assert.Equal(t, [][]string{{"A", "B"}, {"C"}}, res.FieldChunks)
	require.Len(t, res.ChunkResults, 2)
	assert.Equal(t, MethodMinimal, res.ChunkResults[1].Method)

	require.Len(t, res.Rows, 1)
	assert.Equal(t, "A-0", res.Rows[0]["A"])
	assert.NotContains(t, res.Rows[0], "C")
}

func TestReadTableIterativeWithoutFieldsUsesSafeRead(t *testing.T) {
	fake := rfctest.NewFakeCaller().
		Respond(fnFieldInfo, t000Fields()).
		Handle(fnReadTable, echoRows(1))

	res, err := New(fake, Options{}).ReadTableIterative(context.Background(), Request{Table: "T000"})
	require.NoError(t, err)
	assert.Equal(t, MethodSafe, res.Method)
	assert.Zero(t, res.ChunkCount)
}

func TestReadTableIterativeWithoutValidFields(t *testing.T) {
	fake := rfctest.NewFakeCaller().Respond(fnFieldInfo, t000Fields())

	res, err := New(fake, Options{}).ReadTableIterative(context.Background(), Request{Table: "T000", Fields: []string{"NOPE"}})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindInvalidRequest, res.ErrorCode)
	assert.Empty(t, fake.CallsTo(fnReadTable))
}
