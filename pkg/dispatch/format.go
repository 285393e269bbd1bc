package dispatch

import (
	"fmt"
	"strings"
)

// Format is a desired response serialization.
type Format int

// Supported formats. FormatAuto negotiates by query kind.
const (
	FormatAuto Format = iota
	FormatJSON
	FormatXML
	FormatCSV
	FormatTSV
	FormatTurtle
	FormatRDFXML
	FormatJSONLD
	FormatNTriples
)

// MIME types used in Accept headers and for content-type dispatch.
const (
	MIMESPARQLJSON = "application/sparql-results+json"
	MIMESPARQLXML  = "application/sparql-results+xml"
	MIMECSV        = "text/csv"
	MIMETSV        = "text/tab-separated-values"
	MIMETurtle     = "text/turtle"
	MIMERDFXML     = "application/rdf+xml"
	MIMEJSONLD     = "application/ld+json"
	MIMENTriples   = "application/n-triples"
)

// Accept header values used when no explicit format is requested.
const (
	AcceptTabular = MIMESPARQLJSON + ", " + MIMESPARQLXML + ";q=0.9, " + MIMECSV + ";q=0.8, " + MIMETSV + ";q=0.7"
	AcceptGraph   = MIMETurtle + ", " + MIMERDFXML + ";q=0.9, " + MIMEJSONLD + ";q=0.8, " + MIMENTriples + ";q=0.7"
)

var formatNames = map[Format]string{
	FormatAuto:     "auto",
	FormatJSON:     "json",
	FormatXML:      "xml",
	FormatCSV:      "csv",
	FormatTSV:      "tsv",
	FormatTurtle:   "turtle",
	FormatRDFXML:   "rdfxml",
	FormatJSONLD:   "jsonld",
	FormatNTriples: "ntriples",
}

var formatMIME = map[Format]string{
	FormatJSON:     MIMESPARQLJSON,
	FormatXML:      MIMESPARQLXML,
	FormatCSV:      MIMECSV,
	FormatTSV:      MIMETSV,
	FormatTurtle:   MIMETurtle,
	FormatRDFXML:   MIMERDFXML,
	FormatJSONLD:   MIMEJSONLD,
	FormatNTriples: MIMENTriples,
}

// String returns the configuration name of the format.
func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "unknown"
}

// MIMEType returns the media type for an explicit format, or "" for FormatAuto.
func (f Format) MIMEType() string {
	return formatMIME[f]
}

// Set implements pflag.Value.
func (f *Format) Set(s string) error {
	parsed, err := ParseFormat(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Type implements pflag.Value.
func (f *Format) Type() string {
	return "format"
}

// ParseFormat converts a format name to a Format. The empty string is auto.
func ParseFormat(name string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return FormatAuto, nil
	}
	for f, n := range formatNames {
		if n == name {
			return f, nil
		}
	}
	switch name {
	case "ttl":
		return FormatTurtle, nil
	case "nt":
		return FormatNTriples, nil
	case "json-ld":
		return FormatJSONLD, nil
	case "rdf", "rdf/xml":
		return FormatRDFXML, nil
	}
	return FormatAuto, fmt.Errorf("unknown format %q (available: %s)", name, strings.Join(FormatNames(), ", "))
}

// FormatNames returns the canonical format names in declaration order.
func FormatNames() []string {
	names := make([]string, 0, len(formatNames))
	for f := FormatAuto; f <= FormatNTriples; f++ {
		names = append(names, formatNames[f])
	}
	return names
}
