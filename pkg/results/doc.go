// Package results decodes SPARQL endpoint responses into core.ParsedTable.
//
// Supported payloads:
//
//   - SPARQL 1.1 Query Results JSON and XML (SELECT and ASK)
//   - SPARQL 1.1 CSV and TSV
//   - RDF graphs from CONSTRUCT and DESCRIBE: Turtle, N-Triples, N-Quads,
//     RDF/XML and JSON-LD, flattened into subject, predicate, object columns
//
// Large SPARQL JSON binding arrays are handed to a Worker that converts them
// in fixed-size chunks, yields between chunks and reports progress. The
// chunked and direct paths produce identical rows in identical order.
//
// Parse errors are returned as *ParseError; malformed input never panics.
package results
