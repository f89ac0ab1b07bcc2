package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/vyrodovalexey/cookverse-gateway/internal/observability"
	"github.com/vyrodovalexey/cookverse-gateway/internal/pipeline"
)

// DefaultMaxBodyBytes is the largest request body the parser accepts.
const DefaultMaxBodyBytes int64 = 10 << 20

// BodyKind identifies how a request body was decoded.
type BodyKind string

// Body kinds.
const (
	BodyKindJSON BodyKind = "json"
	BodyKindForm BodyKind = "form"
)

// Body is a decoded request body.
type Body struct {
	Kind BodyKind
	Raw  []byte
	// JSON holds the decoded value for BodyKindJSON.
	JSON any
	// Form holds the decoded values for BodyKindForm.
	Form url.Values
}

// Decode unmarshals a JSON body into v.
func (b *Body) Decode(v any) error {
	if b.Kind != BodyKindJSON {
		return fmt.Errorf("body is %s, not json", b.Kind)
	}
	return json.Unmarshal(b.Raw, v)
}

type bodyKey struct{}

// BodyFromContext returns the body decoded by the BodyParser stage.
func BodyFromContext(ctx context.Context) (*Body, bool) {
	b, ok := ctx.Value(bodyKey{}).(*Body)
	return b, ok
}

// BodyParserOption is a functional option for configuring the body parser.
type BodyParserOption func(*bodyParser)

// WithBodyParserMetrics sets the metrics recorder for rejected bodies.
func WithBodyParserMetrics(metrics *observability.Metrics) BodyParserOption {
	return func(p *bodyParser) {
		p.metrics = metrics
	}
}

// WithBodyParserLogger sets the logger for rejected bodies.
func WithBodyParserLogger(logger observability.Logger) BodyParserOption {
	return func(p *bodyParser) {
		p.logger = logger
	}
}

type bodyParser struct {
	maxBytes int64
	metrics  *observability.Metrics
	logger   observability.Logger
}

// BodyParser returns a stage that reads and decodes JSON and
// form-encoded bodies up to maxBytes. Other content types are left
// unread but still capped at maxBytes. The decoded body is available via
// BodyFromContext and r.Body is replaced so it can be read again.
func BodyParser(maxBytes int64, opts ...BodyParserOption) pipeline.Stage {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	p := &bodyParser{
		maxBytes: maxBytes,
		logger:   observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return pipeline.Stage{Name: StageBodyParser, Handle: p.handle}
}

func (p *bodyParser) handle(w http.ResponseWriter, r *http.Request, next pipeline.Next) error {
	if r.Body == nil || r.Body == http.NoBody {
		return next(w, r)
	}

	kind, ok := bodyKindOf(r.Header.Get(HeaderContentType))
	if !ok {
		r.Body = http.MaxBytesReader(w, r.Body, p.maxBytes)
		return next(w, r)
	}

	if r.ContentLength > p.maxBytes {
		return p.reject(r, "too_large", pipeline.Abort(http.StatusRequestEntityTooLarge, MessageEntityTooLarge))
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, p.maxBytes))
	_ = r.Body.Close()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return p.reject(r, "too_large", pipeline.Abort(http.StatusRequestEntityTooLarge, MessageEntityTooLarge))
		}
		return p.reject(r, "unreadable", pipeline.Abort(http.StatusBadRequest, MessageInvalidBody).WithCause(err))
	}

	r.Body = io.NopCloser(bytes.NewReader(raw))
	r.ContentLength = int64(len(raw))

	if len(bytes.TrimSpace(raw)) == 0 {
		return next(w, r)
	}

	body := &Body{Kind: kind, Raw: raw}
	switch kind {
	case BodyKindJSON:
		if err := decodeJSON(raw, &body.JSON); err != nil {
			return p.reject(r, "malformed", pipeline.Abort(http.StatusBadRequest, MessageInvalidBody).WithCause(err))
		}
	case BodyKindForm:
		values, err := url.ParseQuery(string(raw))
		if err != nil {
			return p.reject(r, "malformed", pipeline.Abort(http.StatusBadRequest, MessageInvalidBody).WithCause(err))
		}
		body.Form = values
	}

	return next(w, r.WithContext(context.WithValue(r.Context(), bodyKey{}, body)))
}

func (p *bodyParser) reject(r *http.Request, reason string, abort *pipeline.AbortError) error {
	p.metrics.RecordBodyRejection(reason)
	p.logger.WithContext(r.Context()).Debug("request body rejected",
		observability.String("reason", reason),
		observability.String("path", r.URL.Path),
		observability.Int64("content_length", r.ContentLength),
	)
	return abort
}

// bodyKindOf maps a Content-Type to the decoder that handles it.
func bodyKindOf(contentType string) (BodyKind, bool) {
	if contentType == "" {
		return "", false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", false
	}

	switch {
	case mediaType == ContentTypeJSON, strings.HasSuffix(mediaType, "+json"):
		return BodyKindJSON, true
	case mediaType == ContentTypeFormURLEncoded:
		return BodyKindForm, true
	default:
		return "", false
	}
}

// decodeJSON accepts only a single top-level object or array.
func decodeJSON(raw []byte, v *any) error {
	trimmed := bytes.TrimSpace(raw)
	if trimmed[0] != '{' && trimmed[0] != '[' {
		return errors.New("json body must be an object or array")
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after json value")
	}
	return nil
}
