// internal/i18n/i18n.go
package i18n

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// DefaultLocales lists the locale files loaded from the locales directory.
var DefaultLocales = []string{"en.json", "pt_BR.json"}

type I18n struct {
	mu           sync.RWMutex
	translations map[string]map[string]string
	defaultLang  string
}

var instance *I18n
var once sync.Once

func New(defaultLang string) *I18n {
	if defaultLang == "" {
		defaultLang = "en"
	}
	return &I18n{
		translations: make(map[string]map[string]string),
		defaultLang:  defaultLang,
	}
}

// Initialize loads the global translator once.
func Initialize(localesPath, defaultLang string) error {
	var err error
	once.Do(func() {
		instance = New(defaultLang)
		err = instance.LoadTranslations(localesPath)
	})
	return err
}

func (i *I18n) LoadTranslations(localesPath string) error {
	for _, file := range DefaultLocales {
		lang := strings.TrimSuffix(file, ".json")
		filePath := filepath.Join(localesPath, file)

		data, err := os.ReadFile(filePath)
		if err != nil {
			return fmt.Errorf("failed to read locale file %s: %w", filePath, err)
		}

		if err := i.Add(lang, data); err != nil {
			return fmt.Errorf("failed to unmarshal locale file %s: %w", filePath, err)
		}
	}

	return nil
}

// Add registers the translations of one language from a flat JSON object.
func (i *I18n) Add(lang string, data []byte) error {
	var translations map[string]string
	if err := json.Unmarshal(data, &translations); err != nil {
		return err
	}

	i.mu.Lock()
	i.translations[lang] = translations
	i.mu.Unlock()
	return nil
}

func (i *I18n) T(lang, key string, args ...interface{}) string {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if text, ok := i.lookup(lang, key); ok {
		return format(text, args)
	}

	if lang != i.defaultLang {
		if text, ok := i.lookup(i.defaultLang, key); ok {
			return format(text, args)
		}
	}

	return key
}

// Has reports whether key is translated in lang or the default language.
func (i *I18n) Has(lang, key string) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if _, ok := i.lookup(lang, key); ok {
		return true
	}
	_, ok := i.lookup(i.defaultLang, key)
	return ok
}

func (i *I18n) lookup(lang, key string) (string, bool) {
	translations, exists := i.translations[lang]
	if !exists {
		return "", false
	}
	text, exists := translations[key]
	return text, exists
}

func format(text string, args []interface{}) string {
	if len(args) > 0 {
		return fmt.Sprintf(text, args...)
	}
	return text
}

// Global functions
func T(lang, key string, args ...interface{}) string {
	if instance != nil {
		return instance.T(lang, key, args...)
	}
	return key
}

func Has(lang, key string) bool {
	if instance != nil {
		return instance.Has(lang, key)
	}
	return false
}

func GetSupportedLanguages() []string {
	if instance == nil {
		return []string{"en"}
	}

	instance.mu.RLock()
	defer instance.mu.RUnlock()

	langs := make([]string, 0, len(instance.translations))
	for lang := range instance.translations {
		langs = append(langs, lang)
	}
	return langs
}
