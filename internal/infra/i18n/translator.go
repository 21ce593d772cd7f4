package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"

	"gopkg.in/yaml.v3"
)

//go:embed locales
var LocalesFS embed.FS

// Translator resolves message keys to operator-language strings. Every
// user-facing error body goes through here; unknown keys fall back to
// the key itself so a missing translation is visible, not fatal.
type Translator struct {
	translations map[string]string
}

func NewTranslator(fsys fs.FS, langCode string) (*Translator, error) {
	filePath := path.Join("locales", fmt.Sprintf("%s.yaml", langCode))
	data, err := fs.ReadFile(fsys, filePath)
	if err != nil {
		return nil, fmt.Errorf("read translation file %s: %w", filePath, err)
	}

	var translations map[string]string
	if err := yaml.Unmarshal(data, &translations); err != nil {
		return nil, fmt.Errorf("parse translation file: %w", err)
	}
	return &Translator{translations: translations}, nil
}

func (t *Translator) T(key string, args ...interface{}) string {
	format, ok := t.translations[key]
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}
