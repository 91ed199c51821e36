package tableread

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/ignitionstack/rfcbridge/pkg/errors"
	"github.com/ignitionstack/rfcbridge/pkg/metadata"
	"github.com/ignitionstack/rfcbridge/pkg/rfc"
	"go.uber.org/zap"
)

// Read methods reported in Result.Method.
const (
	MethodSafe      = "safe"
	MethodMinimal   = "minimal_retry"
	MethodIterative = "iterative"
)

// RawColumn holds rows that came back without a delimiter when several
// fields were selected.
const RawColumn = "raw"

// Request describes one table read.
type Request struct {
	Table     string   `json:"table"`
	Fields    []string `json:"fields,omitempty"`
	Where     []string `json:"where,omitempty"`
	MaxRows   int      `json:"max_rows,omitempty"`
	Delimiter string   `json:"delimiter,omitempty"`
}

// Result is the outcome of a read. On failure Success is false and the
// error fields are set; the rows gathered so far are kept.
type Result struct {
	Success             bool                `json:"success"`
	TableName           string              `json:"table_name"`
	Method              string              `json:"method,omitempty"`
	SelectedFields      []string            `json:"selected_fields,omitempty"`
	EstimatedBufferSize int                 `json:"estimated_buffer_size"`
	Rows                []map[string]string `json:"rows"`
	RowCount            int                 `json:"row_count"`

	ErrorCode       apperrors.Kind `json:"error_code,omitempty"`
	Error           string         `json:"error,omitempty"`
	SuggestedRemedy string         `json:"suggested_remedy,omitempty"`
	OriginalError   string         `json:"original_error,omitempty"`

	FieldChunks  [][]string `json:"field_chunks,omitempty"`
	ChunkCount   int        `json:"chunk_count,omitempty"`
	ChunkResults []*Result  `json:"chunk_results,omitempty"`
}

// ReadTableSafe reads req.Table with a buffer-safe field selection. On a
// buffer overflow it retries exactly once with a minimal field set.
//
// The returned Result is never nil. The error is a *errors.DomainError
// whose kind matches Result.ErrorCode, and is nil iff Result.Success.
func (r *Reader) ReadTableSafe(ctx context.Context, req Request) (*Result, error) {
	req, derr := r.normalize(req)
	if derr != nil {
		return r.failure(req.Table, derr), derr
	}

	structure := r.GetTableStructure(ctx, req.Table)
	selected, estimate := r.SelectFields(structure, req.Fields)
	return r.execute(ctx, req, structure, selected, estimate)
}

func (r *Reader) execute(ctx context.Context, req Request, structure *metadata.TableStructure, selected []string, estimate int) (*Result, error) {
	result, err := r.readOnce(ctx, req, selected, estimate)
	if err == nil {
		result.Method = MethodSafe
		return result, nil
	}

	if !rfc.IsBufferExceeded(err) {
		return r.callFailure(req.Table, selected, estimate, err)
	}

	minimal := minimalFields(structure)
	r.logger.Warn("buffer exceeded, retrying with minimal fields",
		zap.String("table", req.Table),
		zap.Strings("fields", minimal))

	retry, retryErr := r.readOnce(ctx, req, minimal, fieldSize(structure, minimal))
	if retryErr == nil {
		retry.Method = MethodMinimal
		return retry, nil
	}

	derr := apperrors.Wrap(apperrors.KindBufferExceeded, "buffer exceeded and retry failed", retryErr).
		WithSubject(req.Table)
	res := r.failure(req.Table, derr)
	res.SelectedFields = minimal
	res.EstimatedBufferSize = fieldSize(structure, minimal)
	res.Error = fmt.Sprintf("buffer exceeded and retry failed: %v", retryErr)
	res.OriginalError = err.Error()
	return res, derr
}

// readOnce issues a single RFC_READ_TABLE call and parses its rows.
func (r *Reader) readOnce(ctx context.Context, req Request, selected []string, estimate int) (*Result, error) {
	params := rfc.Params{
		"QUERY_TABLE": req.Table,
		"DELIMITER":   req.Delimiter,
		"ROWCOUNT":    req.MaxRows,
		"FIELDS":      rfc.FieldList(selected),
	}
	if options := rfc.OptionLines(req.Where); len(options) > 0 {
		params["OPTIONS"] = options
	}

	raw, err := r.caller.Call(ctx, fnReadTable, params)
	if err != nil {
		return nil, err
	}

	rows := parseRows(rfc.Table(raw, "DATA"), selected, req.Delimiter)
	r.logger.Debug("read table",
		zap.String("table", req.Table),
		zap.Int("fields", len(selected)),
		zap.Int("rows", len(rows)))

	return &Result{
		Success:             true,
		TableName:           req.Table,
		SelectedFields:      selected,
		EstimatedBufferSize: estimate,
		Rows:                rows,
		RowCount:            len(rows),
	}, nil
}

// parseRows maps each delimited WA line positionally onto selected.
func parseRows(data []map[string]any, selected []string, delimiter string) []map[string]string {
	rows := make([]map[string]string, 0, len(data))
	for _, line := range data {
		wa := rfc.String(line, "WA")
		row := make(map[string]string, len(selected))
		switch {
		case strings.Contains(wa, delimiter):
			for i, value := range strings.Split(wa, delimiter) {
				if i < len(selected) {
					row[selected[i]] = strings.TrimSpace(value)
				}
			}
		case len(selected) == 1:
			row[selected[0]] = strings.TrimSpace(wa)
		default:
			row[RawColumn] = wa
		}
		rows = append(rows, row)
	}
	return rows
}

func (r *Reader) normalize(req Request) (Request, *apperrors.DomainError) {
	req.Table = strings.ToUpper(strings.TrimSpace(req.Table))
	if req.Table == "" {
		return req, apperrors.New(apperrors.KindInvalidRequest, "table name is required")
	}
	if req.MaxRows <= 0 {
		req.MaxRows = r.opts.DefaultMaxRows
	}
	if req.Delimiter == "" {
		req.Delimiter = r.opts.Delimiter
	}
	return req, nil
}

func (r *Reader) callFailure(table string, selected []string, estimate int, err error) (*Result, error) {
	var derr *apperrors.DomainError
	if rfc.HasKey(err, rfc.KeyTableNotAvailable) {
		derr = apperrors.Wrap(apperrors.KindNotFound, "table not available", err).WithSubject(table)
	} else {
		derr = apperrors.Connection(table, err)
	}
	r.logger.Error("table read failed", zap.String("table", table), zap.Error(err))

	res := r.failure(table, derr)
	res.SelectedFields = selected
	res.EstimatedBufferSize = estimate
	return res, derr
}

func (r *Reader) failure(table string, derr *apperrors.DomainError) *Result {
	return &Result{
		TableName:       table,
		Rows:            []map[string]string{},
		ErrorCode:       derr.ErrKind,
		Error:           derr.Error(),
		SuggestedRemedy: derr.Remedy,
	}
}
