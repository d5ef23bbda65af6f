package files

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		uri      string
		category Category
		language Language
	}{
		{"file:///app/src/App.jsx", CategorySource, LangJavaScript},
		{"file:///app/src/index.js", CategorySource, LangJavaScript},
		{"file:///app/src/worker.mjs", CategorySource, LangJavaScript},
		{"file:///app/src/legacy.cjs", CategorySource, LangJavaScript},
		{"file:///app/src/util.ts", CategorySource, LangTypeScript},
		{"file:///app/src/util.mts", CategorySource, LangTypeScript},
		{"file:///app/src/util.cts", CategorySource, LangTypeScript},
		{"file:///app/src/App.tsx", CategorySource, LangTSX},
		{"file:///app/package.json", CategoryManifest, ""},
		{"file:///app/README.md", CategoryOther, ""},
		{"file:///app/styles.css", CategoryOther, ""},
		{"file:///app/Makefile", CategoryOther, ""},
	}

	for _, tc := range cases {
		got := Classify(tc.uri)
		if got.Category != tc.category {
			t.Errorf("%s: expected category %v, got %v", tc.uri, tc.category, got.Category)
		}
		if got.Language != tc.language {
			t.Errorf("%s: expected language %q, got %q", tc.uri, tc.language, got.Language)
		}
	}
}

func TestClassifyCaseInsensitive(t *testing.T) {
	if !IsSource("file:///app/App.TSX") {
		t.Error("expected uppercase extension to classify as source")
	}
	if !IsManifest("file:///app/PACKAGE.JSON") {
		t.Error("expected uppercase .JSON to classify as manifest")
	}
}
