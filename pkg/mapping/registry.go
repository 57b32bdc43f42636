// Package mapping implements confidence-scored field mapping: a fixed
// registry of canonical banking field archetypes, pattern and fuzzy matching
// of source column names against it, and the scoring pass that turns matches
// into ranked suggestions.
package mapping

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// TypeFamily groups declared column types into the coarse families the
// scorer compares against.
type TypeFamily string

const (
	TypeFamilyString   TypeFamily = "string"
	TypeFamilyNumeric  TypeFamily = "numeric"
	TypeFamilyTemporal TypeFamily = "temporal"
)

// FieldArchetype is one canonical field definition. Archetypes are built once
// at startup and never mutated; concurrent reads need no synchronization.
type FieldArchetype struct {
	CanonicalName   string
	Pattern         *regexp.Regexp
	Aliases         []string // participate in fuzzy matching alongside the canonical name
	BaseConfidence  float64
	RequiresMasking bool
	BusinessConcept string
	ComplianceTags  []string
	TypeFamily      TypeFamily
}

// ImpliesIdentifier reports whether the archetype names an identifier field.
// Identifier archetypes are penalized on nullable columns and boosted at
// ordinal position 1.
func (a *FieldArchetype) ImpliesIdentifier() bool {
	return strings.HasSuffix(a.CanonicalName, "_ID") || strings.HasSuffix(a.CanonicalName, "_NUMBER")
}

// TargetFieldName renders the archetype as a lowercase hyphen-separated
// target field name, e.g. ACCOUNT_NUMBER -> account-number.
func (a *FieldArchetype) TargetFieldName() string {
	return strings.ReplaceAll(strings.ToLower(a.CanonicalName), "_", "-")
}

// Registry holds the archetype table. It is immutable after construction.
type Registry struct {
	archetypes []FieldArchetype
}

// Archetypes returns the registry entries. The returned slice is shared;
// callers must treat it as read-only.
func (r *Registry) Archetypes() []FieldArchetype {
	return r.archetypes
}

// Len returns the number of registered archetypes.
func (r *Registry) Len() int {
	return len(r.archetypes)
}

// Lookup returns the archetype with the given canonical name.
func (r *Registry) Lookup(canonicalName string) (*FieldArchetype, bool) {
	for i := range r.archetypes {
		if r.archetypes[i].CanonicalName == canonicalName {
			return &r.archetypes[i], true
		}
	}
	return nil, false
}

// BuiltinRegistry constructs the registry of shipped archetypes.
func BuiltinRegistry() *Registry {
	return &Registry{archetypes: []FieldArchetype{
		{
			CanonicalName:   "ACCOUNT_NUMBER",
			Pattern:         regexp.MustCompile(`(?i)^account[_-]?(number|num|no)$`),
			Aliases:         []string{"acct_num", "account_no"},
			BaseConfidence:  0.95,
			RequiresMasking: true,
			BusinessConcept: "account",
			ComplianceTags:  []string{"PII", "GLBA"},
			TypeFamily:      TypeFamilyString,
		},
		{
			CanonicalName:   "ROUTING_NUMBER",
			Pattern:         regexp.MustCompile(`(?i)^(routing|aba)[_-]?(number|num|no)$`),
			Aliases:         []string{"routing_no", "aba_num"},
			BaseConfidence:  0.95,
			RequiresMasking: true,
			BusinessConcept: "account",
			ComplianceTags:  []string{"PII", "NACHA"},
			TypeFamily:      TypeFamilyString,
		},
		{
			CanonicalName:   "TRANSACTION_ID",
			Pattern:         regexp.MustCompile(`(?i)^(transaction|txn|trans)[_-]?id$`),
			Aliases:         []string{"txn_id", "trans_id"},
			BaseConfidence:  0.9,
			RequiresMasking: false,
			BusinessConcept: "transaction",
			ComplianceTags:  []string{"SOX"},
			TypeFamily:      TypeFamilyString,
		},
		{
			CanonicalName:   "AMOUNT",
			Pattern:         regexp.MustCompile(`(?i)^(amount|amt)([_-]?(value|total))?$`),
			Aliases:         []string{"amt", "total_amount"},
			BaseConfidence:  0.85,
			RequiresMasking: false,
			BusinessConcept: "transaction",
			ComplianceTags:  []string{"SOX"},
			TypeFamily:      TypeFamilyNumeric,
		},
		{
			CanonicalName:   "DATE",
			Pattern:         regexp.MustCompile(`(?i)^((value|post|posting|effective|trade)[_-]?)?(date|dt)$`),
			Aliases:         []string{"posting_date", "value_date"},
			BaseConfidence:  0.8,
			RequiresMasking: false,
			BusinessConcept: "transaction",
			ComplianceTags:  nil,
			TypeFamily:      TypeFamilyTemporal,
		},
		{
			CanonicalName:   "CURRENCY",
			Pattern:         regexp.MustCompile(`(?i)^(currency|ccy)([_-]?code)?$`),
			Aliases:         []string{"ccy", "currency_code"},
			BaseConfidence:  0.85,
			RequiresMasking: false,
			BusinessConcept: "transaction",
			ComplianceTags:  []string{"ISO4217"},
			TypeFamily:      TypeFamilyString,
		},
		{
			CanonicalName:   "CUSTOMER_ID",
			Pattern:         regexp.MustCompile(`(?i)^(customer|cust|client)[_-]?id$`),
			Aliases:         []string{"cust_id", "client_id"},
			BaseConfidence:  0.9,
			RequiresMasking: true,
			BusinessConcept: "customer",
			ComplianceTags:  []string{"PII"},
			TypeFamily:      TypeFamilyString,
		},
		{
			CanonicalName:   "RISK_SCORE",
			Pattern:         regexp.MustCompile(`(?i)^risk[_-]?(score|rating)$`),
			Aliases:         []string{"risk_rating"},
			BaseConfidence:  0.85,
			RequiresMasking: false,
			BusinessConcept: "customer",
			ComplianceTags:  []string{"FCRA"},
			TypeFamily:      TypeFamilyNumeric,
		},
		{
			CanonicalName:   "INTEREST_RATE",
			Pattern:         regexp.MustCompile(`(?i)^(interest|int)[_-]?rate$`),
			Aliases:         []string{"int_rate", "apr"},
			BaseConfidence:  0.85,
			RequiresMasking: false,
			BusinessConcept: "account",
			ComplianceTags:  nil,
			TypeFamily:      TypeFamilyNumeric,
		},
	}}
}

// archetypeSpec is the YAML shape for overlay registry entries.
type archetypeSpec struct {
	Name            string   `yaml:"name"`
	Pattern         string   `yaml:"pattern"`
	Aliases         []string `yaml:"aliases"`
	BaseConfidence  float64  `yaml:"base_confidence"`
	RequiresMasking bool     `yaml:"requires_masking"`
	BusinessConcept string   `yaml:"business_concept"`
	ComplianceTags  []string `yaml:"compliance_tags"`
	TypeFamily      string   `yaml:"type_family"`
}

type registryOverlay struct {
	Archetypes []archetypeSpec `yaml:"archetypes"`
}

// LoadRegistry builds the builtin registry plus any archetypes declared in
// the YAML overlay at path. An empty path returns the builtins unchanged.
// Overlay entries may not redefine a builtin canonical name.
func LoadRegistry(path string) (*Registry, error) {
	base := BuiltinRegistry()
	if path == "" {
		return base, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read archetype overlay: %w", err)
	}

	var overlay registryOverlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("parse archetype overlay: %w", err)
	}

	merged := make([]FieldArchetype, len(base.archetypes), len(base.archetypes)+len(overlay.Archetypes))
	copy(merged, base.archetypes)

	for _, spec := range overlay.Archetypes {
		if _, exists := base.Lookup(spec.Name); exists {
			return nil, fmt.Errorf("overlay archetype %q redefines a builtin", spec.Name)
		}
		pattern, err := regexp.Compile(spec.Pattern)
		if err != nil {
			return nil, fmt.Errorf("overlay archetype %q: invalid pattern: %w", spec.Name, err)
		}
		family := TypeFamily(spec.TypeFamily)
		switch family {
		case TypeFamilyString, TypeFamilyNumeric, TypeFamilyTemporal:
		default:
			return nil, fmt.Errorf("overlay archetype %q: unknown type family %q", spec.Name, spec.TypeFamily)
		}
		if spec.BaseConfidence <= 0 || spec.BaseConfidence > 1 {
			return nil, fmt.Errorf("overlay archetype %q: base confidence %v outside (0,1]", spec.Name, spec.BaseConfidence)
		}
		merged = append(merged, FieldArchetype{
			CanonicalName:   spec.Name,
			Pattern:         pattern,
			Aliases:         spec.Aliases,
			BaseConfidence:  spec.BaseConfidence,
			RequiresMasking: spec.RequiresMasking,
			BusinessConcept: spec.BusinessConcept,
			ComplianceTags:  spec.ComplianceTags,
			TypeFamily:      family,
		})
	}

	return &Registry{archetypes: merged}, nil
}
