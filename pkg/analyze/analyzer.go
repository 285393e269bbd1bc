// Package analyze predicts result-size risk from query text before execution.
//
// The analysis is a heuristic over the raw text: it looks for the first
// LIMIT and OFFSET tokens and classifies the query accordingly. The
// endpoint's own parser governs what actually gets returned.
package analyze

import (
	"fmt"
	"regexp"
	"strconv"
)

// Bucket is a coarse result-size class.
type Bucket int

// Size buckets.
const (
	BucketSmall Bucket = iota
	BucketMedium
	BucketLarge
	BucketUnbounded
)

// String returns the bucket name.
func (b Bucket) String() string {
	switch b {
	case BucketSmall:
		return "small"
	case BucketMedium:
		return "medium"
	case BucketLarge:
		return "large"
	default:
		return "unbounded"
	}
}

// Recommendation tells the caller how to consume results.
type Recommendation int

// Recommendations, ordered by increasing risk.
const (
	RecommendSafe Recommendation = iota
	RecommendWarn
	RecommendPreferDownload
)

// String returns the recommendation name.
func (r Recommendation) String() string {
	switch r {
	case RecommendSafe:
		return "safe"
	case RecommendWarn:
		return "warn"
	default:
		return "prefer-download"
	}
}

// Thresholds used by Analyze.
const (
	SmallLimit      = 1_000
	LargeLimit      = 10_000
	DownloadLimit   = 50_000
	LargeOffset     = 10_000
	megabytesPerRow = 0.001
)

// SizeEstimate is the result of Analyze.
type SizeEstimate struct {
	HasLimit          bool           `json:"has_limit"`
	Limit             *int64         `json:"limit,omitempty"`
	HasOffset         bool           `json:"has_offset"`
	Offset            *int64         `json:"offset,omitempty"`
	Bucket            Bucket         `json:"bucket"`
	Recommendation    Recommendation `json:"recommendation"`
	EstimatedMemoryMB *float64       `json:"estimated_memory_mb,omitempty"`
	Warnings          []string       `json:"warnings,omitempty"`
}

var (
	limitRe  = regexp.MustCompile(`(?i)\bLIMIT\s+(\d+)`)
	offsetRe = regexp.MustCompile(`(?i)\bOFFSET\s+(\d+)`)
)

// Analyze classifies query by its LIMIT and OFFSET. It is pure and never panics.
//
// The first occurrence of each token wins, even inside a comment or a
// subquery.
func Analyze(query string) SizeEstimate {
	var est SizeEstimate

	if v, ok := firstInt(limitRe, query); ok {
		est.HasLimit = true
		est.Limit = &v
		mem := float64(v) * megabytesPerRow
		est.EstimatedMemoryMB = &mem
	}
	if v, ok := firstInt(offsetRe, query); ok {
		est.HasOffset = true
		est.Offset = &v
	}

	switch {
	case !est.HasLimit:
		est.Bucket = BucketUnbounded
	case *est.Limit < SmallLimit:
		est.Bucket = BucketSmall
	case *est.Limit < LargeLimit:
		est.Bucket = BucketMedium
	default:
		est.Bucket = BucketLarge
	}

	switch {
	case !est.HasLimit:
		est.Recommendation = RecommendPreferDownload
		est.Warnings = append(est.Warnings,
			"Query has no LIMIT clause - results may be very large. Consider adding LIMIT or downloading results directly.")
	case *est.Limit > DownloadLimit:
		est.Recommendation = RecommendPreferDownload
		est.Warnings = append(est.Warnings,
			fmt.Sprintf("Large LIMIT (%d) may cause performance issues. Consider downloading results directly.", *est.Limit))
	case *est.Limit >= LargeLimit:
		est.Recommendation = RecommendWarn
		est.Warnings = append(est.Warnings,
			fmt.Sprintf("Medium LIMIT (%d) may take time to render.", *est.Limit))
	default:
		est.Recommendation = RecommendSafe
	}

	if est.HasOffset && *est.Offset > LargeOffset {
		est.Warnings = append(est.Warnings,
			fmt.Sprintf("Large OFFSET (%d) may be slow on some endpoints.", *est.Offset))
	}

	return est
}

// ShouldConfirm reports whether the caller should ask before rendering results inline.
func (e SizeEstimate) ShouldConfirm() bool {
	return e.Recommendation == RecommendPreferDownload
}

// Describe returns a one-line human summary of the estimate.
func (e SizeEstimate) Describe() string {
	if !e.HasLimit {
		return fmt.Sprintf("unbounded result (%s)", e.Recommendation)
	}
	s := fmt.Sprintf("%s result, LIMIT %d", e.Bucket, *e.Limit)
	if e.HasOffset {
		s += fmt.Sprintf(" OFFSET %d", *e.Offset)
	}
	if e.EstimatedMemoryMB != nil {
		s += fmt.Sprintf(", ~%.2f MB", *e.EstimatedMemoryMB)
	}
	return s + fmt.Sprintf(" (%s)", e.Recommendation)
}

// firstInt returns the integer captured by the first match of re.
// Values that overflow int64 are treated as absent.
func firstInt(re *regexp.Regexp, query string) (int64, bool) {
	m := re.FindStringSubmatch(query)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
