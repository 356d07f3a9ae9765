package jobs

import (
	"context"

	"github.com/kiranshivaraju/sharpjobs/internal/sharpapi"
	"github.com/kiranshivaraju/sharpjobs/internal/tasks"
	"github.com/kiranshivaraju/sharpjobs/pkg/models"
)

// Each method below submits one task and returns its status handle. Pass the
// handle to AwaitCompletion to fetch the result.

// --- E-commerce ---

func (s *Service) ProductReviewSentiment(ctx context.Context, review string) (models.JobHandle, error) {
	return s.SubmitJob(ctx, tasks.New(tasks.EcommerceReviewSentiment, review))
}

// ProductCategories accepts WithLanguage, WithMaxQuantity, WithVoiceTone and WithContext.
func (s *Service) ProductCategories(ctx context.Context, productName string, opts ...tasks.Option) (models.JobHandle, error) {
	return s.SubmitJob(ctx, tasks.New(tasks.EcommerceProductCategories, productName, opts...))
}

// ProductIntro accepts WithLanguage, WithMaxLength and WithVoiceTone.
func (s *Service) ProductIntro(ctx context.Context, productData string, opts ...tasks.Option) (models.JobHandle, error) {
	return s.SubmitJob(ctx, tasks.New(tasks.EcommerceProductIntro, productData, opts...))
}

func (s *Service) ThankYouEmail(ctx context.Context, productName string, opts ...tasks.Option) (models.JobHandle, error) {
	return s.SubmitJob(ctx, tasks.New(tasks.EcommerceThankYouEmail, productName, opts...))
}

// --- HR ---

// ParseResume uploads a resume (PDF, DOC, DOCX, TXT or RTF). language may be empty.
func (s *Service) ParseResume(ctx context.Context, file *sharpapi.File, language string) (models.JobHandle, error) {
	return s.SubmitJob(ctx, tasks.ParseResume(file, tasks.WithLanguage(language)))
}

// ParseResumeFile is ParseResume for a file on disk.
func (s *Service) ParseResumeFile(ctx context.Context, path, language string) (models.JobHandle, error) {
	file, closer, err := sharpapi.OpenFile(path)
	if err != nil {
		return "", err
	}
	defer closer.Close()
	return s.ParseResume(ctx, file, language)
}

func (s *Service) JobDescription(ctx context.Context, params models.JobDescriptionParameters) (models.JobHandle, error) {
	req, err := tasks.JobDescription(params)
	if err != nil {
		return "", err
	}
	return s.SubmitJob(ctx, req)
}

func (s *Service) RelatedSkills(ctx context.Context, skillName string, opts ...tasks.Option) (models.JobHandle, error) {
	return s.SubmitJob(ctx, tasks.New(tasks.HRRelatedSkills, skillName, opts...))
}

func (s *Service) RelatedJobPositions(ctx context.Context, positionName string, opts ...tasks.Option) (models.JobHandle, error) {
	return s.SubmitJob(ctx, tasks.New(tasks.HRRelatedJobPositions, positionName, opts...))
}

// --- Travel, tourism & hospitality ---

func (s *Service) TravelReviewSentiment(ctx context.Context, review string) (models.JobHandle, error) {
	return s.SubmitJob(ctx, tasks.New(tasks.TTHReviewSentiment, review))
}

// ToursAndActivitiesProductCategories also accepts WithCity and WithCountry.
func (s *Service) ToursAndActivitiesProductCategories(ctx context.Context, productName string, opts ...tasks.Option) (models.JobHandle, error) {
	return s.SubmitJob(ctx, tasks.New(tasks.TTHTAProductCategories, productName, opts...))
}

func (s *Service) HospitalityProductCategories(ctx context.Context, productName string, opts ...tasks.Option) (models.JobHandle, error) {
	return s.SubmitJob(ctx, tasks.New(tasks.TTHHospitalityCategories, productName, opts...))
}

// --- Content ---

func (s *Service) DetectPhones(ctx context.Context, text string) (models.JobHandle, error) {
	return s.SubmitJob(ctx, tasks.New(tasks.ContentDetectPhones, text))
}

func (s *Service) DetectEmails(ctx context.Context, text string) (models.JobHandle, error) {
	return s.SubmitJob(ctx, tasks.New(tasks.ContentDetectEmails, text))
}

func (s *Service) DetectSpam(ctx context.Context, text string) (models.JobHandle, error) {
	return s.SubmitJob(ctx, tasks.New(tasks.ContentDetectSpam, text))
}

func (s *Service) Summarize(ctx context.Context, text string, opts ...tasks.Option) (models.JobHandle, error) {
	return s.SubmitJob(ctx, tasks.New(tasks.ContentSummarize, text, opts...))
}

func (s *Service) Keywords(ctx context.Context, text string, opts ...tasks.Option) (models.JobHandle, error) {
	return s.SubmitJob(ctx, tasks.New(tasks.ContentKeywords, text, opts...))
}

// Translate requires the target language.
func (s *Service) Translate(ctx context.Context, text, language string, opts ...tasks.Option) (models.JobHandle, error) {
	return s.SubmitJob(ctx, tasks.Translate(text, language, opts...))
}

func (s *Service) Paraphrase(ctx context.Context, text string, opts ...tasks.Option) (models.JobHandle, error) {
	return s.SubmitJob(ctx, tasks.New(tasks.ContentParaphrase, text, opts...))
}

func (s *Service) Proofread(ctx context.Context, text string) (models.JobHandle, error) {
	return s.SubmitJob(ctx, tasks.New(tasks.ContentProofread, text))
}

// --- SEO ---

func (s *Service) SEOTags(ctx context.Context, text string, opts ...tasks.Option) (models.JobHandle, error) {
	return s.SubmitJob(ctx, tasks.New(tasks.SEOGenerateTags, text, opts...))
}
