package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Request builds one HTTP request fluently and executes it.
type Request interface {
	Get(ctx context.Context, path string) (*Response, error)
	Post(ctx context.Context, path string) (*Response, error)
	Delete(ctx context.Context, path string) (*Response, error)

	SetBody(body any) Request
	SetHeader(key, value string) Request
	SetQueryParam(key, value string) Request
	SetResult(result any) Request
}

// Response carries the raw *http.Response plus its fully read body.
type Response struct {
	*http.Response
	body   []byte
	result any
}

// Body returns the already-read response body.
func (r *Response) Body() []byte { return r.body }

// String returns the body as a string.
func (r *Response) String() string { return string(r.body) }

// IsError reports a 4xx or 5xx status.
func (r *Response) IsError() bool { return r.StatusCode >= 400 }

// IsSuccess reports a status below 400.
func (r *Response) IsSuccess() bool { return !r.IsError() }

// Result returns the decoded result target set via SetResult, or nil when
// decoding did not happen.
func (r *Response) Result() any { return r.result }

type requestBuilder struct {
	httpClient   *http.Client
	requests     metric.Int64Counter
	tracer       trace.Tracer
	providerName string
	baseURL      string

	headers       map[string]string
	query         url.Values
	body          any
	result        any
	traceRequest  bool
	traceResponse bool
}

func (b *requestBuilder) Get(ctx context.Context, path string) (*Response, error) {
	return b.run(ctx, http.MethodGet, path)
}

func (b *requestBuilder) Post(ctx context.Context, path string) (*Response, error) {
	return b.run(ctx, http.MethodPost, path)
}

func (b *requestBuilder) Delete(ctx context.Context, path string) (*Response, error) {
	return b.run(ctx, http.MethodDelete, path)
}

func (b *requestBuilder) SetBody(body any) Request {
	b.body = body
	return b
}

func (b *requestBuilder) SetHeader(key, value string) Request {
	if b.headers == nil {
		b.headers = make(map[string]string)
	}
	b.headers[key] = value
	return b
}

func (b *requestBuilder) SetQueryParam(key, value string) Request {
	if b.query == nil {
		b.query = make(url.Values)
	}
	b.query.Set(key, value)
	return b
}

func (b *requestBuilder) SetResult(result any) Request {
	b.result = result
	return b
}

func (b *requestBuilder) run(ctx context.Context, method, path string) (*Response, error) {
	target := b.resolveURL(path)

	ctx, span := b.tracer.Start(ctx, "http.request", trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.url", target),
		attribute.String("provider", b.providerName),
	))
	defer span.End()

	bodyReader, err := b.encodeBody(span)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "encode body")
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build request")
		return nil, fmt.Errorf("httpclient: build request: %w", err)
	}
	for k, v := range b.headers {
		req.Header.Set(k, v)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		b.noteFailure(ctx, span, err)
		return nil, err
	}

	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		b.noteFailure(ctx, span, err)
		return nil, fmt.Errorf("httpclient: read response: %w", err)
	}
	if b.traceResponse {
		span.AddEvent("response.body", trace.WithAttributes(
			attribute.String("http.response_body", string(raw))))
	}

	out := &Response{Response: resp, body: raw}
	if b.result != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, b.result); err != nil {
			span.RecordError(err)
		} else {
			out.result = b.result
		}
	}

	if out.IsError() {
		span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	}
	b.count(ctx, out.IsSuccess())
	return out, nil
}

// resolveURL joins a relative path onto the configured base URL. Absolute
// URLs pass through untouched.
func (b *requestBuilder) resolveURL(path string) string {
	target := path
	if b.baseURL != "" && !strings.HasPrefix(path, "http") {
		target = strings.TrimSuffix(b.baseURL, "/") + "/" + strings.TrimPrefix(path, "/")
	}
	if len(b.query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + b.query.Encode()
	}
	return target
}

func (b *requestBuilder) encodeBody(span trace.Span) (io.Reader, error) {
	if b.body == nil {
		return nil, nil
	}

	var reader io.Reader
	var logged string
	switch v := b.body.(type) {
	case []byte:
		reader, logged = bytes.NewReader(v), string(v)
	case string:
		reader, logged = strings.NewReader(v), v
	case io.Reader:
		reader = v
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("httpclient: marshal body: %w", err)
		}
		reader, logged = bytes.NewReader(encoded), string(encoded)
		if _, ok := b.headers["Content-Type"]; !ok {
			b.SetHeader("Content-Type", "application/json")
		}
	}

	if b.traceRequest && logged != "" {
		span.AddEvent("request.body", trace.WithAttributes(
			attribute.String("http.request_body", logged)))
	}
	return reader, nil
}

func (b *requestBuilder) noteFailure(ctx context.Context, span trace.Span, err error) {
	span.RecordError(err)
	if errors.Is(err, context.Canceled) {
		span.SetAttributes(attribute.Bool("context.cancelled", true))
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		span.SetAttributes(attribute.Bool("request.timeout", true))
	}
	span.SetStatus(codes.Error, err.Error())
	b.count(ctx, false)
}

func (b *requestBuilder) count(ctx context.Context, success bool) {
	b.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", b.providerName),
		attribute.Bool("success", success),
	))
}
