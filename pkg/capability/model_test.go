package capability

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile_YAML(t *testing.T) {
	m, err := LoadFile("testdata/dbpedia.yaml")
	require.NoError(t, err)

	assert.True(t, m.IsAvailable())
	assert.Equal(t, "https://dbpedia.org/sparql", m.Endpoint)
	assert.True(t, m.SupportsLanguage(LanguageSPARQL11Query))
	assert.True(t, m.SupportsLanguage("SPARQL11Query"), "local names are accepted")
	assert.False(t, m.SupportsLanguage(LanguageSPARQL11Update))
	assert.True(t, m.HasFeature(FeatureDereferencesURIs))
	assert.True(t, m.HasFeature(FeatureUnionDefaultGraph), "short feature names in the file match full IRIs")
	assert.False(t, m.HasFeature(FeatureBasicFederatedQuery))
	assert.True(t, m.HasExtension("http://www.openlinksw.com/schemas/bif#contains"))

	assert.Equal(t, []string{"http://dbpedia.org", "http://dbpedia.org/resource/classes#"}, m.NamedGraphs())
	require.NotNil(t, m.Datasets[0].NamedGraphs[0].Triples)
	assert.Equal(t, int64(850000), *m.Datasets[0].NamedGraphs[0].Triples)
}

func TestDecode_JSON(t *testing.T) {
	m, err := Decode(strings.NewReader(`{"available": true, "features": ["RequiresDataset"]}`), "json")
	require.NoError(t, err)
	assert.True(t, m.HasFeature(FeatureRequiresDataset))
	assert.Empty(t, m.NamedGraphs())
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode(strings.NewReader(`{`), "json")
	assert.Error(t, err)

	_, err = Decode(strings.NewReader(`a: b`), "toml")
	assert.Error(t, err)
}

func TestNilModel(t *testing.T) {
	var m *Model
	assert.False(t, m.IsAvailable())
	assert.False(t, m.HasFeature(FeatureRequiresDataset))
	assert.False(t, m.HasExtension("x"))
	assert.Nil(t, m.NamedGraphs())
	assert.False(t, Unavailable("http://e").IsAvailable())
}

func TestEncode_RoundTripsThroughDecode(t *testing.T) {
	m, err := LoadFile("testdata/dbpedia.yaml")
	require.NoError(t, err)

	data, err := Encode(m)
	require.NoError(t, err)

	back, err := Decode(strings.NewReader(string(data)), "json")
	require.NoError(t, err)
	assert.Equal(t, m.NamedGraphs(), back.NamedGraphs())
	assert.Equal(t, m.Languages, back.Languages)
}
