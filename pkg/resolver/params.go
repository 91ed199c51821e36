package resolver

import (
	"context"
	"fmt"

	apperrors "github.com/ignitionstack/rfcbridge/pkg/errors"
	"github.com/ignitionstack/rfcbridge/pkg/mapping"
	"github.com/ignitionstack/rfcbridge/pkg/metadata"
	"github.com/ignitionstack/rfcbridge/pkg/rfc"
	"go.uber.org/zap"
)

// Parameter classes of RFC_GET_FUNCTION_INTERFACE_US.
const (
	classImport    = "I"
	classExport    = "E"
	classTable     = "T"
	classChanging  = "C"
	classException = "X"
)

// expandParameters sorts every PARAMS row into md's inputs, outputs and
// tables. Changing parameters land in both inputs and outputs; exceptions
// are dropped.
func (r *Resolver) expandParameters(ctx context.Context, md *metadata.FunctionMetadata, params []map[string]any, category mapping.VersionCategory) {
	md.Inputs = make(map[string]metadata.ParameterMetadata)
	md.Outputs = make(map[string]metadata.ParameterMetadata)
	md.Tables = make(map[string]metadata.ParameterMetadata)

	for _, row := range params {
		name := rfc.TrimmedString(row, "PARAMETER")
		class := rfc.TrimmedString(row, "PARAMCLASS")
		if name == "" || class == classException {
			continue
		}

		param, partial := r.parameterMetadata(ctx, md.Name, row, category)
		if text := rfc.TrimmedString(row, "PARAMTEXT"); text != "" {
			param.Description = text
		}
		if def := rfc.TrimmedString(row, "DEFAULT"); def != "" {
			param.Default = def
		}
		param.Optional = rfc.Flag(row, "OPTIONAL")

		switch class {
		case classImport:
			md.Inputs[name] = param
		case classExport:
			md.Outputs[name] = param
		case classTable:
			md.Tables[name] = param
		case classChanging:
			md.Inputs[name] = param.Clone()
			md.Outputs[name] = param.Clone()
		default:
			r.logger.Debug("skipping parameter of unknown class",
				zap.String("function", md.Name),
				zap.String("parameter", name),
				zap.String("class", class))
			continue
		}
		if partial {
			md.PartialParameters = append(md.PartialParameters, name)
		}
	}
}

// parameterMetadata resolves one PARAMS row. When a sub-lookup fails the
// returned record is a placeholder and partial is true.
func (r *Resolver) parameterMetadata(ctx context.Context, function string, row map[string]any, category mapping.VersionCategory) (param metadata.ParameterMetadata, partial bool) {
	exid := rfc.TrimmedString(row, "EXID")
	if exid == "" {
		exid = mapping.TypeAny
	}
	length := rfc.Int(row, "INTLENGTH", 0)
	decimals := rfc.Int(row, "DECIMALS", 0)
	tabname := rfc.TrimmedString(row, "TABNAME")
	fieldname := rfc.TrimmedString(row, "FIELDNAME")
	class := rfc.TrimmedString(row, "PARAMCLASS")

	base := metadata.ParameterMetadata{SAPType: exid, Length: length, Decimals: decimals}

	if tabname == "" {
		base.Type = mapping.MapPrimitiveType(exid, length, decimals)
		return base, false
	}

	degrade := func(err error) (metadata.ParameterMetadata, bool) {
		name := rfc.TrimmedString(row, "PARAMETER")
		r.logger.Warn("parameter lookup failed, using placeholder",
			zap.String("function", function),
			zap.String("parameter", name),
			zap.Error(apperrors.Wrap(apperrors.KindPartialMetadata, "parameter lookup failed", err).WithSubject(function+"."+name)))
		return metadata.ParameterMetadata{
			Type:        mapping.TypeAny,
			SAPType:     exid,
			Description: rfc.TrimmedString(row, "PARAMTEXT"),
		}, true
	}

	if fieldname == "" && class != classTable && exid != "u" {
		description, err := r.dataElementText(ctx, tabname, category)
		if err != nil {
			return degrade(err)
		}
		base.Type = mapping.MapPrimitiveType(exid, length, decimals)
		base.Description = description
		base.DataElement = tabname
		return base, false
	}

	fields, err := r.fieldInfo(ctx, tabname, fieldname, category)
	if err != nil {
		return degrade(err)
	}

	switch {
	case class == classTable:
		base.Type = "TABLE"
		base.DataElement = tabname
		base.Fields = fields
	case fieldname != "":
		field, ok := fields[fieldname]
		if !ok {
			return degrade(fmt.Errorf("field %s not in %s", fieldname, tabname))
		}
		base.Type = field.Type
		base.SAPType = field.SAPType
		base.Length = field.Length
		base.Decimals = field.Decimals
		base.Description = field.Description
		base.DataElement = field.DataElement
	default:
		base.Type = "STRUCTURE"
		base.DataElement = tabname
		base.Fields = fields
	}
	return base, false
}

// fieldInfo reads the field catalog of table, or of one field when field is
// set.
func (r *Resolver) fieldInfo(ctx context.Context, table, field string, category mapping.VersionCategory) (map[string]metadata.FieldMetadata, error) {
	result, err := r.caller.Call(ctx, fnFieldInfo, rfc.Params{
		"TABNAME":   table,
		"FIELDNAME": field,
		"LANGU":     r.languages.Map(r.defaultLanguage, category),
	})
	if err != nil {
		return nil, err
	}
	return metadata.FieldsFromResult(result), nil
}

// dataElementText returns the first non-blank of DDTEXT, REPTEXT and
// SCRTEXT_L of a data element.
func (r *Resolver) dataElementText(ctx context.Context, element string, category mapping.VersionCategory) (string, error) {
	condition := fmt.Sprintf("DDLANGUAGE = %s AND ROLLNAME = %s",
		rfc.Quote(r.languages.Map(r.defaultLanguage, category)), rfc.Quote(element))

	result, err := r.caller.Call(ctx, fnReadTable, rfc.Params{
		"QUERY_TABLE": dataElementTab,
		"DELIMITER":   fieldDelimiter,
		"FIELDS":      rfc.FieldList([]string{"DDTEXT", "REPTEXT", "SCRTEXT_L"}),
		"OPTIONS":     rfc.OptionLines([]string{condition}),
	})
	if err != nil {
		return "", err
	}

	rows := rfc.Table(result, "DATA")
	if len(rows) == 0 {
		return "", nil
	}
	for _, text := range splitRow(rfc.String(rows[0], "WA"), 3) {
		if text != "" {
			return text, nil
		}
	}
	return "", nil
}
