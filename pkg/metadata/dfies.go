package metadata

import (
	"sort"

	"github.com/ignitionstack/rfcbridge/pkg/mapping"
	"github.com/ignitionstack/rfcbridge/pkg/rfc"
)

// DefaultFieldLength is assumed when the field catalog omits LENG.
const DefaultFieldLength = 20

// descriptionFields lists DFIES text columns from most to least preferred.
var descriptionFields = []string{"FIELDTEXT", "REPTEXT", "SCRTEXT_L", "SCRTEXT_M", "SCRTEXT_S"}

// BestDescription returns the first non-blank text of a DFIES row.
func BestDescription(row map[string]any) string {
	for _, key := range descriptionFields {
		if text := rfc.TrimmedString(row, key); text != "" {
			return text
		}
	}
	return ""
}

// FieldFromDFIES decodes one DFIES_TAB row.
func FieldFromDFIES(row map[string]any) FieldMetadata {
	sapType := rfc.TrimmedString(row, "INTTYPE")
	if sapType == "" {
		sapType = mapping.TypeAny
	}
	length := rfc.Int(row, "LENG", DefaultFieldLength)
	decimals := rfc.Int(row, "DECIMALS", 0)

	return FieldMetadata{
		Type:        mapping.MapPrimitiveType(sapType, length, decimals),
		SAPType:     sapType,
		Length:      length,
		Decimals:    decimals,
		Position:    rfc.Int(row, "POSITION", 0),
		Description: BestDescription(row),
		KeyField:    rfc.Flag(row, "KEYFLAG"),
		DataElement: rfc.TrimmedString(row, "ROLLNAME"),
		Domain:      rfc.TrimmedString(row, "DOMNAME"),
		CheckTable:  rfc.TrimmedString(row, "CHECKTABLE"),
	}
}

// FieldsFromResult decodes the DFIES_TAB of a DDIF_FIELDINFO_GET result.
func FieldsFromResult(result rfc.Result) map[string]FieldMetadata {
	fields := make(map[string]FieldMetadata)
	for _, row := range rfc.Table(result, "DFIES_TAB") {
		name := rfc.TrimmedString(row, "FIELDNAME")
		if name == "" {
			continue
		}
		fields[name] = FieldFromDFIES(row)
	}
	return fields
}

// SortedByPosition returns field names in catalog order, ties by name.
func SortedByPosition(fields map[string]FieldMetadata) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := fields[names[i]], fields[names[j]]
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		return names[i] < names[j]
	})
	return names
}
