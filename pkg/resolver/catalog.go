package resolver

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/ignitionstack/rfcbridge/pkg/errors"
	"github.com/ignitionstack/rfcbridge/pkg/mapping"
	"github.com/ignitionstack/rfcbridge/pkg/metadata"
	"github.com/ignitionstack/rfcbridge/pkg/rfc"
	"go.uber.org/zap"
)

// DefaultListRows bounds ListFunctions when no limit is given.
const DefaultListRows = 200

var catalogFields = []string{"STEXT", "AREA", "APPL", "DEVCLASS", "FREEDATE"}

// catalogEntry reads the INFO_FUNCT row of an active remote-enabled function.
func (r *Resolver) catalogEntry(ctx context.Context, name string) (*metadata.FunctionMetadata, error) {
	condition := fmt.Sprintf("FUNCNAME = %s AND ACTIVE = 'X' AND FMODE = 'R'", rfc.Quote(name))

	result, err := r.caller.Call(ctx, fnReadTable, rfc.Params{
		"QUERY_TABLE": catalogTable,
		"DELIMITER":   fieldDelimiter,
		"FIELDS":      rfc.FieldList(catalogFields),
		"OPTIONS":     rfc.OptionLines([]string{condition}),
	})
	if err != nil {
		r.logger.Error("catalog lookup failed", zap.String("function", name), zap.Error(err))
		return nil, apperrors.Connection(name, err)
	}

	rows := rfc.Table(result, "DATA")
	if len(rows) == 0 {
		return nil, apperrors.NotFound(name, "function is not an active remote-enabled function")
	}

	cols := splitRow(rfc.String(rows[0], "WA"), len(catalogFields))
	return &metadata.FunctionMetadata{
		Name:        name,
		Description: cols[0],
		Area:        cols[1],
		Application: cols[2],
		DevClass:    cols[3],
		ReleaseDate: cols[4],
	}, nil
}

// interfaceParams fetches the PARAMS table in language, retrying once in the
// default language. It returns the language that succeeded.
func (r *Resolver) interfaceParams(ctx context.Context, name, language string, category mapping.VersionCategory) ([]map[string]any, string, error) {
	params, err := r.callInterface(ctx, name, language, category)
	if err == nil {
		return params, language, nil
	}
	if language == r.defaultLanguage {
		r.logger.Error("interface lookup failed", zap.String("function", name), zap.Error(err))
		return nil, "", interfaceError(name, err)
	}

	r.logger.Warn("interface lookup failed, retrying in default language",
		zap.String("function", name),
		zap.String("language", language),
		zap.String("fallback", r.defaultLanguage),
		zap.Error(err))

	params, err = r.callInterface(ctx, name, r.defaultLanguage, category)
	if err != nil {
		r.logger.Error("interface lookup failed", zap.String("function", name), zap.Error(err))
		return nil, "", interfaceError(name, err)
	}
	return params, r.defaultLanguage, nil
}

func (r *Resolver) callInterface(ctx context.Context, name, language string, category mapping.VersionCategory) ([]map[string]any, error) {
	result, err := r.caller.Call(ctx, fnInterface, rfc.Params{
		"FUNCNAME": name,
		"LANGUAGE": r.languages.Map(language, category),
	})
	if err != nil {
		return nil, err
	}
	return rfc.Table(result, "PARAMS"), nil
}

func interfaceError(name string, err error) error {
	if rfc.HasKey(err, rfc.KeyFuNotFound) || rfc.HasKey(err, rfc.KeyNotFound) {
		return apperrors.Wrap(apperrors.KindNotFound, "function interface not found", err).WithSubject(name)
	}
	return apperrors.Connection(name, err)
}

// ListFunctions lists remote-enabled functions whose name matches mask, where
// '*' is a wildcard, optionally restricted to one development class.
func (r *Resolver) ListFunctions(ctx context.Context, mask, devClass string, maxRows int) ([]metadata.FunctionSummary, error) {
	if maxRows <= 0 {
		maxRows = DefaultListRows
	}

	conditions := []string{nameCondition(mask)}
	if dc := strings.ToUpper(strings.TrimSpace(devClass)); dc != "" {
		conditions = append(conditions, "DEVCLASS = "+rfc.Quote(dc))
	}
	conditions = append(conditions, "FMODE = 'R'")

	result, err := r.caller.Call(ctx, fnReadTable, rfc.Params{
		"QUERY_TABLE": catalogTable,
		"DELIMITER":   fieldDelimiter,
		"ROWCOUNT":    maxRows,
		"FIELDS":      rfc.FieldList([]string{"FUNCNAME", "DEVCLASS", "STEXT"}),
		"OPTIONS":     rfc.OptionLines([]string{strings.Join(conditions, " AND ")}),
	})
	if err != nil {
		r.logger.Error("function listing failed", zap.String("mask", mask), zap.Error(err))
		return nil, apperrors.Connection(catalogTable, err)
	}

	rows := rfc.Table(result, "DATA")
	out := make([]metadata.FunctionSummary, 0, len(rows))
	for _, row := range rows {
		cols := splitRow(rfc.String(row, "WA"), 3)
		if cols[0] == "" {
			continue
		}
		out = append(out, metadata.FunctionSummary{Name: cols[0], DevClass: cols[1], Description: cols[2]})
	}
	return out, nil
}

func nameCondition(mask string) string {
	mask = strings.ToUpper(strings.TrimSpace(mask))
	if mask == "" {
		mask = "*"
	}
	if strings.Contains(mask, "*") {
		return "FUNCNAME LIKE " + rfc.Quote(strings.ReplaceAll(mask, "*", "%"))
	}
	return "FUNCNAME = " + rfc.Quote(mask)
}

// splitRow splits a delimited WA line into exactly n trimmed columns.
func splitRow(line string, n int) []string {
	parts := strings.Split(line, fieldDelimiter)
	cols := make([]string, n)
	for i := 0; i < n && i < len(parts); i++ {
		cols[i] = strings.TrimSpace(parts[i])
	}
	return cols
}
