package tableread

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/ignitionstack/rfcbridge/pkg/errors"
	"github.com/ignitionstack/rfcbridge/pkg/metadata"
	"go.uber.org/zap"
)

// ReadTableIterative reads all of req.Fields by splitting them into chunks
// that each fit the buffer, reading every chunk with the same conditions and
// merging the rows by position. A failing chunk aborts the read; the chunk
// results gathered so far are returned with the failure.
func (r *Reader) ReadTableIterative(ctx context.Context, req Request) (*Result, error) {
	if len(req.Fields) == 0 {
		return r.ReadTableSafe(ctx, req)
	}

	req, derr := r.normalize(req)
	if derr != nil {
		return r.failure(req.Table, derr), derr
	}

	structure := r.GetTableStructure(ctx, req.Table)
	if !structure.StructureAvailable {
		r.logger.Warn("cannot split read without table structure, reading directly",
			zap.String("table", req.Table))
		selected, estimate := r.SelectFields(structure, req.Fields)
		return r.execute(ctx, req, structure, selected, estimate)
	}

	chunks := r.chunkFields(structure, req.Fields)
	if len(chunks) == 0 {
		derr := apperrors.New(apperrors.KindInvalidRequest, "no valid fields found for iterative read").
			WithSubject(req.Table)
		return r.failure(req.Table, derr), derr
	}

	r.logger.Debug("reading table in chunks",
		zap.String("table", req.Table),
		zap.Int("chunks", len(chunks)))

	var merged []map[string]string
	results := make([]*Result, 0, len(chunks))
	for i, chunk := range chunks {
		chunkReq := req
		chunkReq.Fields = chunk

		res, err := r.execute(ctx, chunkReq, structure, chunk, fieldSize(structure, chunk))
		results = append(results, res)
		if err == nil && res.Method == MethodMinimal {
			// The retry read other fields than the chunk asked for.
			err = apperrors.New(apperrors.KindBufferExceeded, "chunk exceeded the buffer").
				WithSubject(req.Table)
		}
		if err != nil {
			derr := apperrors.Wrap(apperrors.KindOf(err), fmt.Sprintf("chunk %d failed", i+1), err).WithSubject(req.Table)
			out := r.failure(req.Table, derr)
			out.Method = MethodIterative
			out.SuggestedRemedy = apperrors.RemedyOf(err)
			out.Error = fmt.Sprintf("chunk %d failed: %v", i+1, err)
			out.FieldChunks = chunks
			out.ChunkCount = len(chunks)
			out.ChunkResults = results
			out.Rows = merged
			if out.Rows == nil {
				out.Rows = []map[string]string{}
			}
			out.RowCount = len(out.Rows)
			return out, derr
		}

		if i == 0 {
			merged = cloneRows(res.Rows)
			continue
		}
		for j, row := range merged {
			if j >= len(res.Rows) {
				break
			}
			for k, v := range res.Rows[j] {
				row[k] = v
			}
		}
	}

	var selected []string
	for _, chunk := range chunks {
		selected = append(selected, chunk...)
	}
	return &Result{
		Success:             true,
		TableName:           req.Table,
		Method:              MethodIterative,
		SelectedFields:      selected,
		EstimatedBufferSize: fieldSize(structure, selected),
		Rows:                merged,
		RowCount:            len(merged),
		FieldChunks:         chunks,
		ChunkCount:          len(chunks),
		ChunkResults:        results,
	}, nil
}

// chunkFields packs fields in order into chunks no wider than the budget.
// Unknown fields are skipped; a field wider than the budget gets a chunk of
// its own.
func (r *Reader) chunkFields(structure *metadata.TableStructure, fields []string) [][]string {
	var chunks [][]string
	var current []string
	size := 0

	for _, raw := range fields {
		name := strings.ToUpper(strings.TrimSpace(raw))
		field, ok := structure.Fields[name]
		if !ok {
			r.logger.Warn("field not found in table structure",
				zap.String("table", structure.TableName),
				zap.String("field", name))
			continue
		}
		if len(current) > 0 && size+field.Length > r.Budget() {
			chunks = append(chunks, current)
			current, size = nil, 0
		}
		current = append(current, name)
		size += field.Length
	}
	if len(current) > 0 {
		chunks = append(chunks, current)
	}
	return chunks
}

func cloneRows(rows []map[string]string) []map[string]string {
	out := make([]map[string]string, len(rows))
	for i, row := range rows {
		cp := make(map[string]string, len(row))
		for k, v := range row {
			cp[k] = v
		}
		out[i] = cp
	}
	return out
}
