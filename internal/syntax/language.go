package syntax

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// ErrUnsupportedLanguage is returned for files outside the JS/TS family.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Language represents a supported source dialect
type Language string

const (
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
	LanguageTSX        Language = "tsx"
)

// DetectLanguage detects the dialect based on file extension
func DetectLanguage(filePath string) Language {
	ext := strings.ToLower(filepath.Ext(filePath))

	switch ext {
	case ".js", ".jsx", ".mjs", ".cjs":
		return LanguageJavaScript
	case ".ts", ".mts", ".cts":
		return LanguageTypeScript
	case ".tsx":
		return LanguageTSX
	default:
		return ""
	}
}

// SupportedExtensions returns all supported file extensions
func SupportedExtensions() []string {
	return []string{
		".js", ".jsx", ".mjs", ".cjs",
		".ts", ".mts", ".cts", ".tsx",
	}
}

// IsSupportedFile checks if a file is supported based on its extension
func IsSupportedFile(filePath string) bool {
	return DetectLanguage(filePath) != ""
}

// CheckSupported wraps ErrUnsupportedLanguage for files outside the family.
func CheckSupported(filePath string) error {
	if !IsSupportedFile(filePath) {
		return fmt.Errorf("%w: %s", ErrUnsupportedLanguage, filePath)
	}
	return nil
}

func grammar(lang Language) *sitter.Language {
	switch lang {
	case LanguageJavaScript:
		return javascript.GetLanguage()
	case LanguageTypeScript:
		return typescript.GetLanguage()
	case LanguageTSX:
		return tsx.GetLanguage()
	default:
		return nil
	}
}
