// Package symbols normalizes user-typed tickers and keeps the set of tradable USDT pairs.
package symbols

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

type Coin struct {
	Symbol string `yaml:"symbol" json:"symbol"`
	Name   string `yaml:"name" json:"name"`
}

type catalog struct {
	Popular []Coin            `yaml:"popular"`
	Aliases map[string]string `yaml:"aliases"`
}

var loadCatalog = sync.OnceValue(func() catalog {
	c, err := parseCatalog(catalogYAML)
	if err != nil {
		panic(err)
	}
	return c
})

func parseCatalog(data []byte) (catalog, error) {
	var c catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return catalog{}, fmt.Errorf("parse symbol catalog: %w", err)
	}
	aliases := make(map[string]string, len(c.Aliases))
	for k, v := range c.Aliases {
		aliases[strings.ToUpper(k)] = strings.ToUpper(v)
	}
	c.Aliases = aliases
	return c, nil
}

// Popular returns the coins suggested by /popular, in catalog order.
func Popular() []Coin {
	return append([]Coin(nil), loadCatalog().Popular...)
}

var quoteSuffixes = []string{"/USDT", "-USDT", "USDT", "/USD", "-USD", "USD"}

// Normalize turns "btc/usdt", " Bitcoin " or "XBT" into the base ticker "BTC".
func Normalize(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	for _, suffix := range quoteSuffixes {
		if trimmed, ok := strings.CutSuffix(s, suffix); ok && trimmed != "" {
			s = trimmed
			break
		}
	}
	if alias, ok := loadCatalog().Aliases[s]; ok {
		return alias
	}
	return s
}
