package files

import (
	"chakrals/internal/shared/uri"
)

// Category partitions watched files into the pipeline's three buckets.
// Anything that is neither source code nor a dependency manifest is
// dropped before it reaches the tracker or the analyzer.
type Category int

const (
	CategoryOther Category = iota
	CategorySource
	CategoryManifest
)

func (c Category) String() string {
	switch c {
	case CategorySource:
		return "source"
	case CategoryManifest:
		return "manifest"
	default:
		return "other"
	}
}

// Language identifies the grammar used to parse a source file.
type Language string

const (
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
)

type Classification struct {
	Category Category
	Language Language // set only for CategorySource
}

var extensions = map[string]Classification{
	".js":   {Category: CategorySource, Language: LangJavaScript},
	".jsx":  {Category: CategorySource, Language: LangJavaScript},
	".mjs":  {Category: CategorySource, Language: LangJavaScript},
	".cjs":  {Category: CategorySource, Language: LangJavaScript},
	".ts":   {Category: CategorySource, Language: LangTypeScript},
	".mts":  {Category: CategorySource, Language: LangTypeScript},
	".cts":  {Category: CategorySource, Language: LangTypeScript},
	".tsx":  {Category: CategorySource, Language: LangTSX},
	".json": {Category: CategoryManifest},
}

// Classify maps a document URI (or plain path) to its category. Unknown
// extensions classify as CategoryOther.
func Classify(docURI string) Classification {
	if c, ok := extensions[uri.Ext(docURI)]; ok {
		return c
	}
	return Classification{Category: CategoryOther}
}

// IsSource reports whether the URI names a JS- or TS-family source file.
func IsSource(docURI string) bool {
	return Classify(docURI).Category == CategorySource
}

// IsManifest reports whether the URI names a dependency manifest.
func IsManifest(docURI string) bool {
	return Classify(docURI).Category == CategoryManifest
}
