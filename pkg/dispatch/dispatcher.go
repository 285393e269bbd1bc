package dispatch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/leapstack-labs/leapsparql/pkg/core"
)

// DefaultMaxGetLength is the longest GET URL, in bytes, before falling back to POST.
const DefaultMaxGetLength = 2048

// FormContentType is the body encoding of POST plans.
const FormContentType = "application/x-www-form-urlencoded"

// Header is one HTTP header. Plans keep headers ordered.
type Header struct {
	Name  string
	Value string
}

// Plan is a fully described HTTP request.
type Plan struct {
	Method  string
	URL     string
	Headers []Header
	Body    string
	Kind    core.QueryKind
}

// Header returns the first value of the named header (case-insensitive).
func (p *Plan) Header(name string) string {
	for _, h := range p.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// NewRequest materializes the plan as an *http.Request bound to ctx.
func (p *Plan) NewRequest(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if p.Body != "" {
		body = strings.NewReader(p.Body)
	}
	req, err := http.NewRequestWithContext(ctx, p.Method, p.URL, body)
	if err != nil {
		return nil, &Error{Field: "endpoint", Message: "cannot build request", Err: err}
	}
	for _, h := range p.Headers {
		req.Header.Add(h.Name, h.Value)
	}
	return req, nil
}

// Dispatcher builds plans. The zero value is not usable; call New.
type Dispatcher struct {
	maxGetLength int
	extraHeaders []Header
	userAgent    string
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithMaxGetLength overrides DefaultMaxGetLength. Non-positive values are ignored.
func WithMaxGetLength(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxGetLength = n
		}
	}
}

// WithHeaders appends headers to every plan, after the protocol headers.
func WithHeaders(headers ...Header) Option {
	return func(d *Dispatcher) {
		d.extraHeaders = append(d.extraHeaders, headers...)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(d *Dispatcher) {
		d.userAgent = ua
	}
}

// New creates a dispatcher.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{maxGetLength: DefaultMaxGetLength}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// MaxGetLength returns the configured GET threshold.
func (d *Dispatcher) MaxGetLength() int {
	return d.maxGetLength
}

// BuildPlan builds a plan using a default Dispatcher.
func BuildPlan(query, endpoint string, format Format) (*Plan, error) {
	return New().BuildPlan(query, endpoint, format)
}

// BuildPlan chooses method, body encoding and Accept header for query.
//
// Updates are always POSTed with an update= form body. Read-only queries
// use GET while the encoded URL stays below the length threshold, and a
// form-encoded POST otherwise.
func (d *Dispatcher) BuildPlan(query, endpoint string, format Format) (*Plan, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &Error{Field: "query", Message: "query is empty"}
	}
	base, err := parseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}

	kind := core.DetectQueryKind(query)
	plan := &Plan{Kind: kind}
	accept := acceptFor(kind, format)

	switch {
	case kind == core.KindUpdate:
		plan.Method = http.MethodPost
		plan.URL = base.String()
		plan.Body = url.Values{"update": {query}}.Encode()
	default:
		getURL := withQueryParam(base, "query", query)
		if len(getURL) < d.maxGetLength {
			plan.Method = http.MethodGet
			plan.URL = getURL
		} else {
			plan.Method = http.MethodPost
			plan.URL = base.String()
			plan.Body = url.Values{"query": {query}}.Encode()
		}
	}

	plan.Headers = append(plan.Headers, Header{Name: "Accept", Value: accept})
	if plan.Method == http.MethodPost {
		plan.Headers = append(plan.Headers, Header{Name: "Content-Type", Value: FormContentType})
	}
	if d.userAgent != "" {
		plan.Headers = append(plan.Headers, Header{Name: "User-Agent", Value: d.userAgent})
	}
	plan.Headers = append(plan.Headers, d.extraHeaders...)
	return plan, nil
}

func acceptFor(kind core.QueryKind, format Format) string {
	if mime := format.MIMEType(); mime != "" {
		return mime
	}
	if kind.ReturnsGraph() {
		return AcceptGraph
	}
	return AcceptTabular
}

func parseEndpoint(endpoint string) (*url.URL, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, &Error{Field: "endpoint", Message: "endpoint URL is empty"}
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, &Error{Field: "endpoint", Message: "cannot parse URL", Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &Error{Field: "endpoint", Message: "scheme must be http or https, got " + quoteOrEmpty(u.Scheme)}
	}
	if u.Host == "" {
		return nil, &Error{Field: "endpoint", Message: "URL has no host"}
	}
	return u, nil
}

// withQueryParam appends name=value, keeping any query string the endpoint already has.
func withQueryParam(base *url.URL, name, value string) string {
	param := url.Values{name: {value}}.Encode()
	u := *base
	u.Fragment = ""
	if u.RawQuery == "" {
		u.RawQuery = param
	} else {
		u.RawQuery += "&" + param
	}
	return u.String()
}

func quoteOrEmpty(s string) string {
	if s == "" {
		return "(none)"
	}
	return `"` + s + `"`
}
