package parser

import (
	"path/filepath"
	"strings"
)

// Language identifies the grammar family used to parse a file.
type Language int

const (
	// LanguageTypeScript covers .ts/.mts/.cts and, with the TSX grammar, .tsx
	LanguageTypeScript Language = iota
	// LanguageJavaScript covers .js/.jsx/.mjs/.cjs (the JS grammar accepts JSX)
	LanguageJavaScript
	// LanguageUnknown is returned for anything else
	LanguageUnknown
)

// String returns the lowercase language name.
func (l Language) String() string {
	switch l {
	case LanguageTypeScript:
		return "typescript"
	case LanguageJavaScript:
		return "javascript"
	default:
		return "unknown"
	}
}

var extensionLanguages = map[string]Language{
	".ts":  LanguageTypeScript,
	".mts": LanguageTypeScript,
	".cts": LanguageTypeScript,
	".tsx": LanguageTypeScript,
	".js":  LanguageJavaScript,
	".jsx": LanguageJavaScript,
	".mjs": LanguageJavaScript,
	".cjs": LanguageJavaScript,
}

// DetectLanguage maps a file path to its grammar family by extension.
func DetectLanguage(filePath string) Language {
	if lang, ok := extensionLanguages[strings.ToLower(filepath.Ext(filePath))]; ok {
		return lang
	}
	return LanguageUnknown
}

// IsTSXFile reports whether the file needs the TSX grammar.
func IsTSXFile(filePath string) bool {
	return strings.ToLower(filepath.Ext(filePath)) == ".tsx"
}

// IsSupportedFile reports whether the path has a parseable extension.
func IsSupportedFile(filePath string) bool {
	return DetectLanguage(filePath) != LanguageUnknown
}

// SupportedExtensions returns every recognised extension, including the dot.
func SupportedExtensions() []string {
	return []string{".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx", ".mts", ".cts"}
}
