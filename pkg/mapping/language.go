package mapping

import (
	"strings"

	"go.uber.org/zap"
)

// DefaultLanguage is the backend code used when an ISO code is unknown.
const DefaultLanguage = "E"

var isoToBackend = map[string]string{
	"EN": "E",
	"DE": "D",
	"PL": "L",
	"FR": "F",
	"ES": "S",
	"IT": "I",
	"RU": "R",
	"JA": "J",
	"ZH": "C",
	"PT": "P",
	"NL": "N",
	"DA": "K",
	"SV": "V",
	"NO": "O",
	"FI": "U",
	"CS": "Q",
	"HU": "H",
	"TR": "T",
	"AR": "A",
	"HE": "W",
	"TH": "B",
	"KO": "M",
}

// LanguageMapper converts ISO 639-1 codes into single-character backend codes.
type LanguageMapper struct {
	logger *zap.Logger
}

// NewLanguageMapper creates a mapper that reports unknown codes to logger.
func NewLanguageMapper(logger *zap.Logger) *LanguageMapper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LanguageMapper{logger: logger}
}

// Map returns the backend language code for iso on a system of the given
// category. Unknown codes fall back to English.
//
// Each category family has its own branch. They agree today; newer releases
// accept two-letter codes natively and may diverge here later.
func (m *LanguageMapper) Map(iso string, category VersionCategory) string {
	code := strings.ToUpper(strings.TrimSpace(iso))
	if len(code) > 2 {
		code = code[:2]
	}

	switch {
	case category.IsLegacy():
		return m.lookup(code, category, "single-letter")
	case category.IsECC():
		return m.lookup(code, category, "single-letter (recommended)")
	default:
		return m.lookup(code, category, "single-letter (compatibility mode)")
	}
}

func (m *LanguageMapper) lookup(code string, category VersionCategory, mode string) string {
	backend, ok := isoToBackend[code]
	if !ok {
		m.logger.Warn("unknown language code, falling back to English",
			zap.String("language", code),
			zap.String("category", string(category)),
			zap.String("fallback", DefaultLanguage))
		return DefaultLanguage
	}
	m.logger.Debug("mapped language code",
		zap.String("language", code),
		zap.String("backend_code", backend),
		zap.String("category", string(category)),
		zap.String("mode", mode))
	return backend
}

// MapLanguage maps iso without logging.
func MapLanguage(iso string, category VersionCategory) string {
	return NewLanguageMapper(nil).Map(iso, category)
}

// KnownLanguage reports whether iso has a backend mapping.
func KnownLanguage(iso string) bool {
	code := strings.ToUpper(strings.TrimSpace(iso))
	if len(code) > 2 {
		code = code[:2]
	}
	_, ok := isoToBackend[code]
	return ok
}
