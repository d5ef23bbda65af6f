package analyzer

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"chakrals/internal/engine/files"
)

// loadGrammars binds the compiled-in grammars. The classifier only ever
// emits these three languages.
func loadGrammars() map[files.Language]*sitter.Language {
	return map[files.Language]*sitter.Language{
		files.LangJavaScript: sitter.NewLanguage(tree_sitter_javascript.Language()),
		files.LangTypeScript: sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
		files.LangTSX:        sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()),
	}
}
