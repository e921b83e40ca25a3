// Package intent pattern-matches user messages against static keyword tables
// to short-circuit generation for known question categories.
package intent

import (
	_ "embed"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var tablesYAML []byte

// SubService groups the keyword keys that all map to one service detail block.
type SubService struct {
	Keys   []string `yaml:"keys"`
	Detail string   `yaml:"detail"`
}

// Tables holds the static keyword tables. They are a data asset, not an
// algorithm: edits to tables.yaml need no code change.
type Tables struct {
	RestrictedTokens     []string     `yaml:"restricted_tokens"`
	RestrictedResponse   string       `yaml:"restricted_response"`
	ServicesListPatterns []string     `yaml:"services_list_patterns"`
	ServicesListText     string       `yaml:"services_list_text"`
	ServicesListFollowUp string       `yaml:"services_list_follow_up"`
	LeadKeywords         []string     `yaml:"lead_keywords"`
	PricingResponse      string       `yaml:"pricing_contact_response"`
	SubServices          []SubService `yaml:"sub_services"`
}

// LoadTables parses the embedded keyword tables.
func LoadTables() (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(tablesYAML, &t); err != nil {
		return nil, eris.Wrap(err, "intent: parse tables")
	}
	if len(t.SubServices) == 0 {
		return nil, eris.New("intent: tables have no sub-services")
	}
	return &t, nil
}
