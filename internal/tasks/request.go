package tasks

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/kiranshivaraju/sharpjobs/internal/sharpapi"
	"github.com/kiranshivaraju/sharpjobs/pkg/models"
)

var (
	ErrUnknownTask     = errors.New("unknown task type")
	ErrMissingField    = errors.New("missing required field")
	ErrUnexpectedField = errors.New("field not accepted by task")
	ErrFileMismatch    = errors.New("file upload does not match task")
	ErrInvalidParams   = errors.New("invalid task parameters")
)

var validate = validator.New()

// Request is a single task submission.
type Request struct {
	Type   Type
	Params map[string]any
	File   *sharpapi.File
}

// Option sets an optional request field.
type Option func(map[string]any)

func setString(key, v string) Option {
	return func(p map[string]any) {
		if v != "" {
			p[key] = v
		}
	}
}

func setInt(key string, v int) Option {
	return func(p map[string]any) {
		if v > 0 {
			p[key] = v
		}
	}
}

// WithLanguage sets the output language, e.g. "English".
func WithLanguage(lang string) Option { return setString(FieldLanguage, lang) }

// WithMaxQuantity caps the number of returned items.
func WithMaxQuantity(n int) Option { return setInt(FieldMaxQuantity, n) }

// WithMaxLength caps the length of generated text.
func WithMaxLength(n int) Option { return setInt(FieldMaxLength, n) }

// WithVoiceTone sets the tone of generated text.
func WithVoiceTone(t models.VoiceTone) Option { return setString(FieldVoiceTone, string(t)) }

// WithContext passes extra guidance to the model.
func WithContext(c string) Option { return setString(FieldContext, c) }

func WithCity(city string) Option { return setString(FieldCity, city) }

func WithCountry(country string) Option { return setString(FieldCountry, country) }

// New builds a request carrying content plus any options. Options left at
// their zero value are not sent.
func New(t Type, content string, opts ...Option) Request {
	params := map[string]any{FieldContent: content}
	for _, opt := range opts {
		opt(params)
	}
	return Request{Type: t, Params: params}
}

// NewWithParams builds a request from an already assembled field map.
func NewWithParams(t Type, params map[string]any) Request {
	if params == nil {
		params = map[string]any{}
	}
	return Request{Type: t, Params: params}
}

// ParseResume builds a resume upload request.
func ParseResume(file *sharpapi.File, opts ...Option) Request {
	params := map[string]any{}
	for _, opt := range opts {
		opt(params)
	}
	return Request{Type: HRParseResume, Params: params, File: file}
}

// Translate builds a translation request. The target language is required.
func Translate(content, language string, opts ...Option) Request {
	r := New(ContentTranslate, content, opts...)
	r.Params[FieldLanguage] = language
	return r
}

// JobDescription validates p and builds the job description request.
func JobDescription(p models.JobDescriptionParameters) (Request, error) {
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return Request{}, fmt.Errorf("%w: %s failed %q", ErrInvalidParams, verrs[0].Field(), verrs[0].Tag())
		}
		return Request{}, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if p.VoiceTone != "" && !p.VoiceTone.Valid() {
		return Request{}, fmt.Errorf("%w: unknown voice tone %q", ErrInvalidParams, p.VoiceTone)
	}
	return Request{Type: HRJobDescription, Params: p.Params()}, nil
}

// Spec returns the catalog entry for the request's type.
func (r Request) Spec() (Spec, error) {
	s, ok := Lookup(r.Type)
	if !ok {
		return Spec{}, fmt.Errorf("%w: %q", ErrUnknownTask, r.Type)
	}
	return s, nil
}

// Validate checks the request against its catalog entry.
func (r Request) Validate() error {
	s, err := r.Spec()
	if err != nil {
		return err
	}

	for _, f := range s.Required {
		if isEmpty(r.Params[f]) {
			return fmt.Errorf("%w: %s requires %q", ErrMissingField, r.Type, f)
		}
	}

	keys := make([]string, 0, len(r.Params))
	for k := range r.Params {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if !s.Allows(k) {
			return fmt.Errorf("%w: %s does not accept %q", ErrUnexpectedField, r.Type, k)
		}
	}

	switch {
	case s.FileUpload && r.File == nil:
		return fmt.Errorf("%w: %s requires a file", ErrFileMismatch, r.Type)
	case !s.FileUpload && r.File != nil:
		return fmt.Errorf("%w: %s does not take a file", ErrFileMismatch, r.Type)
	}
	return nil
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	default:
		return false
	}
}
