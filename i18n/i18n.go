// Package i18n provides the t(key) lookup used for user-facing text.
package i18n

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// DefaultLanguage is used when a key is missing in the selected language.
const DefaultLanguage = "ru"

//go:embed catalog.yaml
var catalogYAML []byte

// Translator resolves a message key to localized text.
type Translator interface {
	T(key string) string
}

// Catalog holds the messages of every supported language.
type Catalog struct {
	messages map[string]map[string]string
}

var (
	defaultCatalog     *Catalog
	defaultCatalogOnce sync.Once
)

// Default returns the embedded catalog.
func Default() *Catalog {
	defaultCatalogOnce.Do(func() {
		c, err := Parse(catalogYAML)
		if err != nil {
			// the embedded catalog is part of the build
			panic(err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Parse reads a catalog of the form language -> key -> text.
func Parse(data []byte) (*Catalog, error) {
	messages := map[string]map[string]string{}
	if err := yaml.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("[i18n.Parse] %w", err)
	}
	return &Catalog{messages: messages}, nil
}

// Languages returns the catalog languages, sorted.
func (c *Catalog) Languages() []string {
	langs := make([]string, 0, len(c.messages))
	for l := range c.messages {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}

// Translator returns a Translator for lang. Unknown languages fall back to DefaultLanguage.
func (c *Catalog) Translator(lang string) Translator {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if _, ok := c.messages[lang]; !ok {
		log.Debug().Str("language", lang).Msg("unsupported language, using default")
		lang = DefaultLanguage
	}
	return &translator{catalog: c, lang: lang}
}

type translator struct {
	catalog *Catalog
	lang    string
}

// T looks key up in the selected language, then the default language, then returns key itself.
func (t *translator) T(key string) string {
	if msg, ok := t.catalog.messages[t.lang][key]; ok {
		return msg
	}
	if msg, ok := t.catalog.messages[DefaultLanguage][key]; ok {
		return msg
	}
	return key
}

// Func adapts a plain function to Translator.
type Func func(key string) string

func (f Func) T(key string) string {
	return f(key)
}
