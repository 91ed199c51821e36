// Package tableread reads table rows through RFC_READ_TABLE without
// overrunning the backend's fixed row-transfer buffer.
package tableread

import (
	"context"
	"sort"
	"strings"

	"github.com/ignitionstack/rfcbridge/pkg/mapping"
	"github.com/ignitionstack/rfcbridge/pkg/metadata"
	"github.com/ignitionstack/rfcbridge/pkg/rfc"
	"go.uber.org/zap"
)

const (
	// DefaultBufferSize is the row-transfer limit of RFC_READ_TABLE.
	DefaultBufferSize = 512
	// DefaultSafetyMargin is kept free in automatic field selection.
	DefaultSafetyMargin = 50
	DefaultMaxRows      = 100
	DefaultDelimiter    = "|"

	// FallbackField is read when a table's structure is unknown. Nearly
	// every client-dependent table has it.
	FallbackField     = "MANDT"
	FallbackFieldSize = 50
)

const (
	fnReadTable = "RFC_READ_TABLE"
	fnFieldInfo = "DDIF_FIELDINFO_GET"
)

// Options configures a Reader. Zero values select the defaults.
type Options struct {
	BufferSize     int
	SafetyMargin   int
	DefaultMaxRows int
	Delimiter      string
	// Language is the backend language code used for field texts.
	Language string
	Logger   *zap.Logger
}

// Reader performs buffer-safe table reads.
type Reader struct {
	caller rfc.Caller
	opts   Options
	logger *zap.Logger
}

// New creates a Reader issuing calls through caller.
func New(caller rfc.Caller, opts Options) *Reader {
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}
	if opts.SafetyMargin <= 0 || opts.SafetyMargin >= opts.BufferSize {
		opts.SafetyMargin = DefaultSafetyMargin
	}
	if opts.DefaultMaxRows <= 0 {
		opts.DefaultMaxRows = DefaultMaxRows
	}
	if opts.Delimiter == "" {
		opts.Delimiter = DefaultDelimiter
	}
	if opts.Language == "" {
		opts.Language = mapping.DefaultLanguage
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{caller: caller, opts: opts, logger: logger}
}

// Budget is the size automatic selection and chunking stay within.
func (r *Reader) Budget() int {
	return r.opts.BufferSize - r.opts.SafetyMargin
}

// GetTableStructure reads the field catalog of table. Failures are reported
// in the result, never as an error.
func (r *Reader) GetTableStructure(ctx context.Context, table string) *metadata.TableStructure {
	table = strings.ToUpper(strings.TrimSpace(table))
	structure := &metadata.TableStructure{TableName: table, Fields: map[string]metadata.FieldMetadata{}}

	result, err := r.caller.Call(ctx, fnFieldInfo, rfc.Params{
		"TABNAME": table,
		"LANGU":   r.opts.Language,
	})
	if err != nil {
		r.logger.Warn("could not get table structure", zap.String("table", table), zap.Error(err))
		structure.Error = err.Error()
		return structure
	}

	structure.Fields = metadata.FieldsFromResult(result)
	structure.StructureAvailable = len(structure.Fields) > 0
	return structure
}

// SelectFields picks the fields to read and estimates their row width.
//
// Requested fields are taken in the given order and cut off at the first one
// that would overrun the buffer; names missing from the structure are
// skipped. Without requested fields, or when none of them exist, key fields
// come first, then the narrowest, while they fit the budget. At least one
// field is always selected.
func (r *Reader) SelectFields(structure *metadata.TableStructure, requested []string) ([]string, int) {
	if structure == nil || !structure.StructureAvailable {
		return []string{FallbackField}, FallbackFieldSize
	}
	fields := structure.Fields

	if len(requested) > 0 {
		var selected []string
		total := 0
		for _, raw := range requested {
			name := strings.ToUpper(strings.TrimSpace(raw))
			field, ok := fields[name]
			if !ok {
				r.logger.Warn("field not found in table structure",
					zap.String("table", structure.TableName),
					zap.String("field", name))
				continue
			}
			if total+field.Length > r.opts.BufferSize {
				r.logger.Warn("field would exceed buffer limit, dropping remaining fields",
					zap.String("table", structure.TableName),
					zap.String("field", name),
					zap.Int("length", field.Length),
					zap.Int("selected_size", total))
				break
			}
			selected = append(selected, name)
			total += field.Length
		}
		if len(selected) > 0 {
			return selected, total
		}
		r.logger.Warn("no requested field usable, selecting automatically",
			zap.String("table", structure.TableName))
	}

	ordered := autoOrder(fields)
	var selected []string
	total := 0
	for _, name := range ordered {
		size := fields[name].Length
		if total+size > r.Budget() {
			break
		}
		selected = append(selected, name)
		total += size
	}
	if len(selected) == 0 && len(ordered) > 0 {
		selected = []string{ordered[0]}
		total = fields[ordered[0]].Length
	}
	return selected, total
}

// minimalFields is the narrow set used for the single retry after a buffer
// overflow: the first two key fields, else the shortest field, else the
// fallback field.
func minimalFields(structure *metadata.TableStructure) []string {
	if structure == nil || !structure.StructureAvailable {
		return []string{FallbackField}
	}

	var keys []string
	for _, name := range metadata.SortedByPosition(structure.Fields) {
		if structure.Fields[name].KeyField {
			keys = append(keys, name)
			if len(keys) == 2 {
				return keys
			}
		}
	}
	if len(keys) > 0 {
		return keys
	}

	shortest := ""
	for name, field := range structure.Fields {
		if shortest == "" {
			shortest = name
			continue
		}
		best := structure.Fields[shortest]
		if field.Length < best.Length || (field.Length == best.Length && name < shortest) {
			shortest = name
		}
	}
	if shortest == "" {
		return []string{FallbackField}
	}
	return []string{shortest}
}

// autoOrder sorts field names key fields first, then by length, then by name.
func autoOrder(fields map[string]metadata.FieldMetadata) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := fields[names[i]], fields[names[j]]
		if a.KeyField != b.KeyField {
			return a.KeyField
		}
		if a.Length != b.Length {
			return a.Length < b.Length
		}
		return names[i] < names[j]
	})
	return names
}

func fieldSize(structure *metadata.TableStructure, names []string) int {
	if structure == nil || !structure.StructureAvailable {
		return FallbackFieldSize * len(names)
	}
	total := 0
	for _, name := range names {
		if field, ok := structure.Fields[name]; ok {
			total += field.Length
		} else {
			total += metadata.DefaultFieldLength
		}
	}
	return total
}
