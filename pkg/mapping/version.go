package mapping

import "strings"

// VersionCategory buckets backend releases by their language and type handling.
type VersionCategory string

const (
	CategoryR3_45    VersionCategory = "R/3 4.5"
	CategoryR3_46    VersionCategory = "R/3 4.6"
	CategoryR3_47    VersionCategory = "R/3 4.7"
	CategoryECC60    VersionCategory = "ECC 6.0/6.1"
	CategoryECC60EHP VersionCategory = "ECC 6.0 EHP"
	CategoryS4HANA10 VersionCategory = "S/4HANA 1.0"
	CategoryS4HANA20 VersionCategory = "S/4HANA 2.0"
	CategoryUnknown  VersionCategory = "Unknown/Newer"
)

// CategoryMostStrict is assumed when the release cannot be determined.
const CategoryMostStrict = CategoryR3_45

var releasePrefixes = []struct {
	prefix   string
	category VersionCategory
}{
	{"45", CategoryR3_45},
	{"46", CategoryR3_46},
	{"47", CategoryR3_47},
	{"60", CategoryECC60},
	{"61", CategoryECC60},
	{"70", CategoryECC60EHP},
	{"75", CategoryS4HANA10},
	{"76", CategoryS4HANA20},
}

// CategorizeRelease buckets a release string such as "45B" or "750".
func CategorizeRelease(release string) VersionCategory {
	release = strings.TrimSpace(release)
	for _, p := range releasePrefixes {
		if strings.HasPrefix(release, p.prefix) {
			return p.category
		}
	}
	return CategoryUnknown
}

// IsLegacy reports whether c is an R/3 4.x release.
func (c VersionCategory) IsLegacy() bool {
	return c == CategoryR3_45 || c == CategoryR3_46 || c == CategoryR3_47
}

// IsECC reports whether c is an ECC 6.x release.
func (c VersionCategory) IsECC() bool {
	return c == CategoryECC60 || c == CategoryECC60EHP
}
