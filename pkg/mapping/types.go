// Package mapping translates backend primitive codes, language codes and
// release strings into their canonical forms.
package mapping

import "fmt"

// TypeAny is returned for primitive codes without a known mapping.
const TypeAny = "ANY"

// MapPrimitiveType maps a single-character ABAP primitive code to a canonical
// type string. Length and decimals are embedded where the type carries them.
func MapPrimitiveType(code string, length, decimals int) string {
	switch code {
	case "C":
		return fmt.Sprintf("CHAR(%d)", length)
	case "N":
		return fmt.Sprintf("NUMC(%d)", length)
	case "D":
		return "DATE"
	case "T":
		return "TIME"
	case "X":
		return fmt.Sprintf("XSTRING(%d)", length)
	case "I":
		return fmt.Sprintf("INT(%d)", length)
	case "P":
		if decimals > 0 {
			return fmt.Sprintf("DECIMAL(%d,%d)", length, decimals)
		}
		return fmt.Sprintf("DECIMAL(%d)", length)
	case "F":
		return "FLOAT"
	case "S":
		return "STRING"
	case "G":
		return "XSTRING"
	case "u", "v":
		return "STRUCTURE"
	case "h":
		return "TABLE"
	}
	return TypeAny
}
