// Package mapping resolves an exercise identity to the muscle groups it trains.
package mapping

import (
	"strings"

	"example.com/physique/internal/muscle"
)

// Mapping lists the primary and secondary muscles stimulated by an exercise.
type Mapping struct {
	Primary   []muscle.ID `json:"primary"`
	Secondary []muscle.ID `json:"secondary"`
}

// Empty reports whether the mapping contributes nothing to scoring.
func (m Mapping) Empty() bool {
	return len(m.Primary) == 0 && len(m.Secondary) == 0
}

func (m Mapping) clone() Mapping {
	out := Mapping{
		Primary:   make([]muscle.ID, len(m.Primary)),
		Secondary: make([]muscle.ID, len(m.Secondary)),
	}
	copy(out.Primary, m.Primary)
	copy(out.Secondary, m.Secondary)
	return out
}

// Query is a normalised exercise identity.
type Query struct {
	Name     string
	Target   string
	BodyPart string
}

// NewQuery lower-cases and trims every field.
func NewQuery(name, target, bodyPart string) Query {
	return Query{
		Name:     normalize(name),
		Target:   normalize(target),
		BodyPart: normalize(bodyPart),
	}
}

func normalize(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// Rule is one step of the resolution chain.
type Rule interface {
	Name() string
	Match(q Query) (Mapping, bool)
}

// ExactNameRule matches the exercise name against table keys exactly.
type ExactNameRule struct {
	table []NamedMapping
	index map[string]int
}

// NewExactNameRule builds an exact matcher over table.
func NewExactNameRule(table []NamedMapping) ExactNameRule {
	index := make(map[string]int, len(table))
	for i, entry := range table {
		if _, ok := index[entry.Key]; !ok {
			index[entry.Key] = i
		}
	}
	return ExactNameRule{table: table, index: index}
}

func (r ExactNameRule) Name() string { return "exact_name" }

func (r ExactNameRule) Match(q Query) (Mapping, bool) {
	if q.Name == "" {
		return Mapping{}, false
	}
	i, ok := r.index[q.Name]
	if !ok {
		return Mapping{}, false
	}
	return r.table[i].Mapping, true
}

// PartialNameRule returns the first table entry, in declaration order, whose
// key is contained in the name or contains it. It is not a best-match search.
type PartialNameRule struct {
	table []NamedMapping
}

// NewPartialNameRule builds a substring matcher over table.
func NewPartialNameRule(table []NamedMapping) PartialNameRule {
	return PartialNameRule{table: table}
}

func (r PartialNameRule) Name() string { return "partial_name" }

func (r PartialNameRule) Match(q Query) (Mapping, bool) {
	// "" is contained in every key; a blank name matches nothing here.
	if q.Name == "" {
		return Mapping{}, false
	}
	for _, entry := range r.table {
		if strings.Contains(q.Name, entry.Key) || strings.Contains(entry.Key, q.Name) {
			return entry.Mapping, true
		}
	}
	return Mapping{}, false
}

// TargetRule looks up the anatomical target field.
type TargetRule struct {
	table map[string]Mapping
}

// NewTargetRule builds a target-field matcher.
func NewTargetRule(table map[string]Mapping) TargetRule {
	return TargetRule{table: table}
}

func (r TargetRule) Name() string { return "target" }

func (r TargetRule) Match(q Query) (Mapping, bool) {
	mapping, ok := r.table[q.Target]
	return mapping, ok
}

// BodyPartRule looks up the coarse body-part category.
type BodyPartRule struct {
	table map[string]Mapping
}

// NewBodyPartRule builds a body-part matcher.
func NewBodyPartRule(table map[string]Mapping) BodyPartRule {
	return BodyPartRule{table: table}
}

func (r BodyPartRule) Name() string { return "body_part" }

func (r BodyPartRule) Match(q Query) (Mapping, bool) {
	mapping, ok := r.table[q.BodyPart]
	return mapping, ok
}

// Resolver evaluates rules top-down; the first match wins.
type Resolver struct {
	rules []Rule
}

// NewResolver constructs a resolver over an explicit rule list.
func NewResolver(rules ...Rule) *Resolver {
	return &Resolver{rules: rules}
}

// DefaultRules returns the built-in chain: exact name, partial name, target,
// body part.
func DefaultRules() []Rule {
	return []Rule{
		NewExactNameRule(nameOverrides),
		NewPartialNameRule(nameOverrides),
		NewTargetRule(targetTable),
		NewBodyPartRule(bodyPartTable),
	}
}

var defaultResolver = NewResolver(DefaultRules()...)

// DefaultResolver returns the shared resolver over the built-in tables.
func DefaultResolver() *Resolver { return defaultResolver }

// Resolve returns the mapping for an exercise. Unknown exercises resolve to
// an empty mapping.
func (r *Resolver) Resolve(name, target, bodyPart string) Mapping {
	mapping, _ := r.Explain(name, target, bodyPart)
	return mapping
}

// Explain resolves like Resolve and also names the rule that matched, or ""
// when the default applied.
func (r *Resolver) Explain(name, target, bodyPart string) (Mapping, string) {
	q := NewQuery(name, target, bodyPart)
	for _, rule := range r.rules {
		if mapping, ok := rule.Match(q); ok {
			return mapping.clone(), rule.Name()
		}
	}
	return Mapping{Primary: []muscle.ID{}, Secondary: []muscle.ID{}}, ""
}

// Resolve uses the default resolver.
func Resolve(name, target, bodyPart string) Mapping {
	return defaultResolver.Resolve(name, target, bodyPart)
}
