// Package tasks describes the SharpAPI task endpoints: their paths, the
// request fields each accepts, and whether a file upload is expected.
package tasks

import (
	"fmt"
	"slices"
)

// Type identifies a task. Its value matches the job type reported by the
// remote service in status responses.
type Type string

const (
	EcommerceReviewSentiment   Type = "ecommerce_review_sentiment"
	EcommerceProductCategories Type = "ecommerce_product_categories"
	EcommerceProductIntro      Type = "ecommerce_product_intro"
	EcommerceThankYouEmail     Type = "ecommerce_thank_you_email"
	HRParseResume              Type = "hr_parse_resume"
	HRJobDescription           Type = "hr_job_description"
	HRRelatedSkills            Type = "hr_related_skills"
	HRRelatedJobPositions      Type = "hr_related_job_positions"
	TTHReviewSentiment         Type = "tth_review_sentiment"
	TTHTAProductCategories     Type = "tth_ta_product_categories"
	TTHHospitalityCategories   Type = "tth_hospitality_product_categories"
	ContentDetectPhones        Type = "content_detect_phones"
	ContentDetectEmails        Type = "content_detect_emails"
	ContentDetectSpam          Type = "content_detect_spam"
	ContentSummarize           Type = "content_summarize"
	ContentKeywords            Type = "content_keywords"
	ContentTranslate           Type = "content_translate"
	ContentParaphrase          Type = "content_paraphrase"
	ContentProofread           Type = "content_proofread"
	SEOGenerateTags            Type = "seo_generate_tags"
)

// Request field names.
const (
	FieldContent     = "content"
	FieldLanguage    = "language"
	FieldMaxQuantity = "max_quantity"
	FieldMaxLength   = "max_length"
	FieldVoiceTone   = "voice_tone"
	FieldContext     = "context"
	FieldCity        = "city"
	FieldCountry     = "country"
)

// Spec describes one task endpoint.
type Spec struct {
	Type       Type     `json:"type"`
	Path       string   `json:"path"`
	Required   []string `json:"required"`
	Optional   []string `json:"optional"`
	FileUpload bool     `json:"file_upload"`
}

// Allows reports whether field may be sent to this task.
func (s Spec) Allows(field string) bool {
	return slices.Contains(s.Required, field) || slices.Contains(s.Optional, field)
}

var (
	content      = []string{FieldContent}
	quantityOpts = []string{FieldLanguage, FieldMaxQuantity, FieldVoiceTone, FieldContext}
	lengthOpts   = []string{FieldLanguage, FieldMaxLength, FieldVoiceTone, FieldContext}
	placeOpts    = []string{FieldCity, FieldCountry, FieldLanguage, FieldMaxQuantity, FieldVoiceTone, FieldContext}
)

var jobDescriptionFields = []string{
	"company_name", "minimum_work_experience", "minimum_education", "employment_type",
	"required_skills", "optional_skills", "country", "remote", "visa_sponsored",
	FieldVoiceTone, FieldContext, FieldLanguage,
}

var catalog = map[Type]Spec{
	EcommerceReviewSentiment:   {Path: "/ecommerce/review_sentiment", Required: content},
	EcommerceProductCategories: {Path: "/ecommerce/product_categories", Required: content, Optional: quantityOpts},
	EcommerceProductIntro:      {Path: "/ecommerce/product_intro", Required: content, Optional: lengthOpts[:3]},
	EcommerceThankYouEmail:     {Path: "/ecommerce/thank_you_email", Required: content, Optional: lengthOpts},

	HRParseResume:         {Path: "/hr/parse_resume", Optional: []string{FieldLanguage}, FileUpload: true},
	HRJobDescription:      {Path: "/hr/job_description", Required: []string{"name"}, Optional: jobDescriptionFields},
	HRRelatedSkills:       {Path: "/hr/related_skills", Required: content, Optional: quantityOpts[:2]},
	HRRelatedJobPositions: {Path: "/hr/related_job_positions", Required: content, Optional: quantityOpts[:2]},

	TTHReviewSentiment:       {Path: "/tth/review_sentiment", Required: content},
	TTHTAProductCategories:   {Path: "/tth/ta_product_categories", Required: content, Optional: placeOpts},
	TTHHospitalityCategories: {Path: "/tth/hospitality_product_categories", Required: content, Optional: placeOpts},

	ContentDetectPhones: {Path: "/content/detect_phones", Required: content},
	ContentDetectEmails: {Path: "/content/detect_emails", Required: content},
	ContentDetectSpam:   {Path: "/content/detect_spam", Required: content},
	ContentSummarize:    {Path: "/content/summarize", Required: content, Optional: lengthOpts},
	ContentKeywords:     {Path: "/content/keywords", Required: content, Optional: quantityOpts},
	ContentTranslate:    {Path: "/content/translate", Required: []string{FieldContent, FieldLanguage}, Optional: []string{FieldVoiceTone, FieldContext}},
	ContentParaphrase:   {Path: "/content/paraphrase", Required: content, Optional: lengthOpts},
	ContentProofread:    {Path: "/content/proofread", Required: content},

	SEOGenerateTags: {Path: "/seo/generate_tags", Required: content, Optional: []string{FieldLanguage, FieldVoiceTone}},
}

// Lookup returns the spec for t.
func Lookup(t Type) (Spec, bool) {
	s, ok := catalog[t]
	if !ok {
		return Spec{}, false
	}
	s.Type = t
	s.Required = slices.Clone(s.Required)
	s.Optional = slices.Clone(s.Optional)
	return s, true
}

// Types returns every known task type in lexical order.
func Types() []Type {
	out := make([]Type, 0, len(catalog))
	for t := range catalog {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// Specs returns the full catalog ordered by type.
func Specs() []Spec {
	types := Types()
	out := make([]Spec, 0, len(types))
	for _, t := range types {
		s, _ := Lookup(t)
		out = append(out, s)
	}
	return out
}

// ParseType converts s to a known Type.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if _, ok := catalog[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTask, s)
	}
	return t, nil
}

func (t Type) String() string { return string(t) }
