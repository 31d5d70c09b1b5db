package locales

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"estatehub/internal/logger"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed *.json
var localeFS embed.FS

var (
	mu              sync.RWMutex
	bundle          *i18n.Bundle
	defaultLanguage = language.English
	log             = logger.New("I18N")
)

// Init loads the embedded message files. It is safe to call more than once.
func Init(defaultLangCode string) error {
	tag, err := language.Parse(defaultLangCode)
	if err != nil {
		log.Warn("failed to parse default language %q: %v, falling back to English", defaultLangCode, err)
		tag = language.English
	}

	b := i18n.NewBundle(tag)
	b.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir(".")
	if err != nil {
		return fmt.Errorf("read embedded locales: %w", err)
	}

	loaded := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		if _, err := b.LoadMessageFileFS(localeFS, e.Name()); err != nil {
			log.Warn("failed to load message file %s: %v", e.Name(), err)
			continue
		}
		loaded++
	}
	if loaded == 0 {
		return fmt.Errorf("no message files loaded")
	}

	mu.Lock()
	bundle, defaultLanguage = b, tag
	mu.Unlock()

	log.Info("i18n bundle initialized with %d file(s), default language %s", loaded, tag)
	return nil
}

func getBundle() *i18n.Bundle {
	mu.RLock()
	b := bundle
	mu.RUnlock()
	if b == nil {
		if err := Init(language.English.String()); err != nil {
			log.Warn("lazy i18n init failed: %v", err)
		}
		mu.RLock()
		b = bundle
		mu.RUnlock()
	}
	return b
}

// NewLocalizer accepts language tags or a raw Accept-Language header.
func NewLocalizer(langPrefs ...string) *i18n.Localizer {
	return i18n.NewLocalizer(getBundle(), langPrefs...)
}

// Message localizes msgID, falling back to English and then to the ID itself.
func Message(localizer *i18n.Localizer, msgID string, templateData map[string]interface{}) string {
	cfg := &i18n.LocalizeConfig{MessageID: msgID, TemplateData: templateData}

	msg, err := localizer.Localize(cfg)
	if err == nil {
		return msg
	}

	english := i18n.NewLocalizer(getBundle(), language.English.String())
	if msg, err := english.Localize(cfg); err == nil {
		return msg
	}

	log.Warn("no translation for message %q", msgID)
	return msgID
}

// Translate is shorthand for Message(NewLocalizer(acceptLanguage), msgID, nil).
func Translate(acceptLanguage, msgID string) string {
	return Message(NewLocalizer(acceptLanguage), msgID, nil)
}
