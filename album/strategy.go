package album

import (
	"fmt"
	"net/url"
	"strings"
)

// Strategy maps an album url to the url actually requested, e.g. by routing it through a relay.
type Strategy struct {
	Name      string
	Transform func(target string) string
}

const (
	urlPlaceholder = "{url}"
	directName     = "direct"
)

// DefaultStrategyTemplates are the public relays, tried in order.
var DefaultStrategyTemplates = []string{
	"https://corsproxy.io/?{url}",
	"https://api.allorigins.win/raw?url={url}",
	"https://api.codetabs.com/v1/proxy?quest={url}",
}

// Direct requests the album url as is.
func Direct() Strategy {
	return Strategy{
		Name:      directName,
		Transform: func(target string) string { return target },
	}
}

// Relay substitutes the query-escaped target for {url} in template.
func Relay(template string) Strategy {
	name := template
	if u, err := url.Parse(template); err == nil && u.Host != "" {
		name = u.Host
	}
	return Strategy{
		Name: name,
		Transform: func(target string) string {
			return strings.ReplaceAll(template, urlPlaceholder, url.QueryEscape(target))
		},
	}
}

// ParseStrategies builds strategies from templates. "direct" means no relay.
func ParseStrategies(templates []string) ([]Strategy, error) {
	strategies := make([]Strategy, 0, len(templates))
	for _, tmpl := range templates {
		tmpl = strings.TrimSpace(tmpl)
		switch {
		case tmpl == "":
			continue
		case tmpl == directName:
			strategies = append(strategies, Direct())
		case strings.Contains(tmpl, urlPlaceholder):
			strategies = append(strategies, Relay(tmpl))
		default:
			return nil, fmt.Errorf("fetch strategy %q has no %s placeholder", tmpl, urlPlaceholder)
		}
	}
	if len(strategies) == 0 {
		return nil, fmt.Errorf("at least one fetch strategy is required")
	}
	return strategies, nil
}
