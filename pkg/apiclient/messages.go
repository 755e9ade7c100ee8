package apiclient

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Message ids understood by the catalog.
const (
	MsgNetworkError        = "network_error"
	MsgUnauthorized        = "unauthorized"
	MsgPermissionError     = "permission_error"
	MsgBusinessError       = "business_error"
	MsgInsufficientBalance = "insufficient_balance"
	MsgNotFound            = "not_found"
	MsgServiceUnavailable  = "service_unavailable"
	MsgServiceTimeout      = "service_timeout"
	MsgServerError         = "server_error"
	MsgUnknownError        = "unknown_error"
)

// DefaultLocale is used when no locale is configured or the requested one is not bundled.
const DefaultLocale = "zh"

//go:embed locales/*.yaml
var localeFS embed.FS

var bundledLocales = []string{"locales/zh.yaml", "locales/en.yaml"}

// Catalog resolves user-facing messages for each error kind.
type Catalog struct {
	locale    string
	localizer *i18n.Localizer
}

// NewCatalog loads the bundled catalogs plus optional override files and
// returns a catalog for locale. Override file names must carry a language
// tag, e.g. messages.en.yaml.
func NewCatalog(locale string, overrideFiles ...string) (*Catalog, error) {
	bundle := i18n.NewBundle(language.Chinese)
	bundle.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)
	bundle.RegisterUnmarshalFunc("yml", yaml.Unmarshal)

	for _, path := range bundledLocales {
		if _, err := bundle.LoadMessageFileFS(localeFS, path); err != nil {
			return nil, fmt.Errorf("load bundled messages %s: %w", path, err)
		}
	}
	for _, path := range overrideFiles {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		if _, err := bundle.LoadMessageFile(path); err != nil {
			return nil, fmt.Errorf("load messages file %s: %w", path, err)
		}
	}

	locale = strings.TrimSpace(locale)
	if locale == "" {
		locale = DefaultLocale
	}
	return &Catalog{
		locale:    locale,
		localizer: i18n.NewLocalizer(bundle, locale),
	}, nil
}

var (
	defaultCatalogOnce sync.Once
	defaultCatalog     *Catalog
)

// DefaultCatalog returns the bundled catalog for DefaultLocale.
func DefaultCatalog() *Catalog {
	defaultCatalogOnce.Do(func() {
		c, err := NewCatalog(DefaultLocale)
		if err != nil {
			panic(fmt.Sprintf("apiclient: bundled messages are invalid: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Locale returns the locale the catalog was built for.
func (c *Catalog) Locale() string {
	if c == nil {
		return DefaultLocale
	}
	return c.locale
}

// Message returns the localized text for id, or id itself when no catalog has it.
func (c *Catalog) Message(id string) string {
	if c == nil || c.localizer == nil {
		c = DefaultCatalog()
	}
	msg, err := c.localizer.Localize(&i18n.LocalizeConfig{MessageID: id})
	if err != nil || msg == "" {
		return id
	}
	return msg
}
