// Package llm drafts job application emails with a language model.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"

	"github.com/aijobhunter/jobhunter/internal/model"
)

const (
	DefaultModel = "gemini-2.5-flash"

	maxResumeChars      = 12000
	maxDescriptionChars = 6000
)

var ErrEmptyDraft = errors.New("model returned an empty draft")

// Draft is a generated application email.
type Draft struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type Generator struct {
	model  llms.Model
	logger *slog.Logger
}

// NewGemini creates a Generator backed by Google's Gemini API.
func NewGemini(ctx context.Context, apiKey, modelName string, logger *slog.Logger) (*Generator, error) {
	if modelName == "" {
		modelName = DefaultModel
	}
	m, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(modelName),
	)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return NewGenerator(m, logger), nil
}

func NewGenerator(m llms.Model, logger *slog.Logger) *Generator {
	return &Generator{model: m, logger: logger.With("component", "llm")}
}

// DraftApplication writes a cold application email for job from the
// applicant's resume.
func (g *Generator) DraftApplication(ctx context.Context, applicant *model.User, resumeText string, job *model.Job) (*Draft, error) {
	prompt := buildPrompt(applicant, resumeText, job)
	resp, err := llms.GenerateFromSinglePrompt(ctx, g.model, prompt, llms.WithTemperature(0.4))
	if err != nil {
		g.logger.Error("generate draft", "job_id", job.ID, "error", err)
		return nil, fmt.Errorf("generate draft: %w", err)
	}
	d, err := parseDraft(resp)
	if err != nil {
		g.logger.Warn("unparseable draft", "job_id", job.ID, "error", err)
		return nil, err
	}
	return d, nil
}

const applicationPrompt = `You are an expert career coach writing a concise cold email to apply for a job.

### INSTRUCTIONS:
1. Write in the first person as the applicant.
2. Keep the body under 200 words. Highlight the two or three resume points most relevant to the role.
3. Do not invent experience that is not in the resume.
4. End with a polite call to action and the applicant's name.
5. Format the output as valid JSON only. Do not wrap the output in markdown code blocks.

### OUTPUT SCHEMA:
{"subject": "Email subject line", "body": "Plain text email body"}

### APPLICANT:
%s

### JOB:
Title: %s
Company: %s
Location: %s
Description:
%s

### RESUME:
%s
`

func buildPrompt(applicant *model.User, resumeText string, job *model.Job) string {
	name := applicant.DisplayName
	if name == "" {
		name = strings.TrimSpace(applicant.FirstName + " " + applicant.LastName)
	}
	return fmt.Sprintf(applicationPrompt,
		name,
		job.Title,
		job.CompanyName,
		job.Location,
		truncate(job.Description, maxDescriptionChars),
		truncate(resumeText, maxResumeChars),
	)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// cleanJSON strips a markdown code fence around a JSON reply.
func cleanJSON(input string) string {
	clean := strings.TrimSpace(input)
	if strings.HasPrefix(clean, "```json") {
		clean = strings.TrimPrefix(clean, "```json")
	} else if strings.HasPrefix(clean, "```") {
		clean = strings.TrimPrefix(clean, "```")
	}
	clean = strings.TrimLeft(clean, "\r\n")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}

// parseDraft accepts the JSON schema from the prompt, or a plain reply whose
// first line is "Subject: ...".
func parseDraft(resp string) (*Draft, error) {
	clean := cleanJSON(resp)
	if clean == "" {
		return nil, ErrEmptyDraft
	}

	var d Draft
	if err := json.Unmarshal([]byte(clean), &d); err == nil {
		d.Subject = strings.TrimSpace(d.Subject)
		d.Body = strings.TrimSpace(d.Body)
		if d.Body == "" {
			return nil, ErrEmptyDraft
		}
		return &d, nil
	}

	first, rest, _ := strings.Cut(clean, "\n")
	if subj, ok := strings.CutPrefix(strings.TrimSpace(first), "Subject:"); ok {
		d = Draft{Subject: strings.TrimSpace(subj), Body: strings.TrimSpace(rest)}
	} else {
		d = Draft{Body: clean}
	}
	if d.Body == "" {
		return nil, ErrEmptyDraft
	}
	return &d, nil
}
