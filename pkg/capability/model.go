// Package capability describes what a SPARQL endpoint supports.
//
// A Model is an immutable snapshot produced by a service-description fetch
// (or loaded from a file) and handed to the validator. Nothing in the query
// pipeline mutates or fetches it.
package capability

import (
	"strings"
	"time"
)

// ServiceDescriptionNS is the SPARQL 1.1 Service Description vocabulary namespace.
const ServiceDescriptionNS = "http://www.w3.org/ns/sparql-service-description#"

// Supported language IRIs.
const (
	LanguageSPARQL10Query  = ServiceDescriptionNS + "SPARQL10Query"
	LanguageSPARQL11Query  = ServiceDescriptionNS + "SPARQL11Query"
	LanguageSPARQL11Update = ServiceDescriptionNS + "SPARQL11Update"
)

// Feature IRIs.
const (
	FeatureDereferencesURIs    = ServiceDescriptionNS + "DereferencesURIs"
	FeatureUnionDefaultGraph   = ServiceDescriptionNS + "UnionDefaultGraph"
	FeatureRequiresDataset     = ServiceDescriptionNS + "RequiresDataset"
	FeatureEmptyGraphs         = ServiceDescriptionNS + "EmptyGraphs"
	FeatureBasicFederatedQuery = ServiceDescriptionNS + "BasicFederatedQuery"
)

// Model is a read-only snapshot of an endpoint's capabilities.
type Model struct {
	// Available is false when no service description could be obtained.
	Available bool      `json:"available" yaml:"available"`
	Endpoint  string    `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	FetchedAt time.Time `json:"fetched_at,omitempty" yaml:"fetched_at,omitempty"`

	Languages           []string  `json:"languages,omitempty" yaml:"languages,omitempty"`
	Features            []string  `json:"features,omitempty" yaml:"features,omitempty"`
	ResultFormats       []string  `json:"result_formats,omitempty" yaml:"result_formats,omitempty"`
	InputFormats        []string  `json:"input_formats,omitempty" yaml:"input_formats,omitempty"`
	ExtensionFunctions  []string  `json:"extension_functions,omitempty" yaml:"extension_functions,omitempty"`
	ExtensionAggregates []string  `json:"extension_aggregates,omitempty" yaml:"extension_aggregates,omitempty"`
	Datasets            []Dataset `json:"datasets,omitempty" yaml:"datasets,omitempty"`
}

// Dataset describes the default graph and named graphs of one dataset.
type Dataset struct {
	DefaultGraph *Graph  `json:"default_graph,omitempty" yaml:"default_graph,omitempty"`
	NamedGraphs  []Graph `json:"named_graphs,omitempty" yaml:"named_graphs,omitempty"`
}

// Graph carries optional metadata about a graph.
type Graph struct {
	Name             string `json:"name,omitempty" yaml:"name,omitempty"`
	Triples          *int64 `json:"triples,omitempty" yaml:"triples,omitempty"`
	EntailmentRegime string `json:"entailment_regime,omitempty" yaml:"entailment_regime,omitempty"`
}

// Unavailable returns a model that carries no capability data.
func Unavailable(endpoint string) *Model {
	return &Model{Endpoint: endpoint}
}

// IsAvailable reports whether m is non-nil and marked available.
func (m *Model) IsAvailable() bool {
	return m != nil && m.Available
}

// SupportsLanguage reports whether the model lists the language.
// Both full IRIs and local names ("SPARQL11Query") are accepted.
func (m *Model) SupportsLanguage(lang string) bool {
	if m == nil {
		return false
	}
	return containsTerm(m.Languages, lang)
}

// HasFeature reports whether the model lists the feature.
// Both full IRIs and local names ("DereferencesURIs") are accepted.
func (m *Model) HasFeature(feature string) bool {
	if m == nil {
		return false
	}
	return containsTerm(m.Features, feature)
}

// HasExtension reports whether iri is a listed extension function or aggregate.
func (m *Model) HasExtension(iri string) bool {
	if m == nil {
		return false
	}
	for _, f := range m.ExtensionFunctions {
		if f == iri {
			return true
		}
	}
	for _, a := range m.ExtensionAggregates {
		if a == iri {
			return true
		}
	}
	return false
}

// NamedGraphs returns the names of all named graphs across datasets,
// in declaration order and without duplicates.
func (m *Model) NamedGraphs() []string {
	if m == nil {
		return nil
	}
	seen := make(map[string]bool)
	var names []string
	for _, ds := range m.Datasets {
		for _, g := range ds.NamedGraphs {
			if g.Name == "" || seen[g.Name] {
				continue
			}
			seen[g.Name] = true
			names = append(names, g.Name)
		}
	}
	return names
}

// HasNamedGraph reports whether name is a known named graph.
func (m *Model) HasNamedGraph(name string) bool {
	for _, g := range m.NamedGraphs() {
		if g == name {
			return true
		}
	}
	return false
}

// localName returns the part of an IRI after the last '#' or '/'.
func localName(iri string) string {
	if i := strings.LastIndexAny(iri, "#/"); i >= 0 {
		return iri[i+1:]
	}
	return iri
}

func containsTerm(list []string, term string) bool {
	want := localName(term)
	for _, v := range list {
		if v == term || localName(v) == want {
			return true
		}
	}
	return false
}
