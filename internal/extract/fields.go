// Package extract turns a consultation transcript into structured patient
// data: the ten free-text fields and the affirmed/negated symptom partition.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/suryansh1j/vaidya/config"
	"github.com/suryansh1j/vaidya/internal/domain/patient"
)

// Answer is one extractive-QA model response.
type Answer struct {
	Text  string  `json:"answer"`
	Score float64 `json:"score"`
}

// QAModel is the extractive question-answering collaborator: a question and
// a context document in, the best answer span out.
type QAModel interface {
	Answer(ctx context.Context, question, doc string) (Answer, error)
}

// HTTPQAClient queries a hosted question-answering inference endpoint.
type HTTPQAClient struct {
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[Answer]
}

func NewHTTPQAClient(cfg config.PipelineConfig) *HTTPQAClient {
	return &HTTPQAClient{
		url:    cfg.QAURL,
		client: &http.Client{Timeout: cfg.RequestTimeout},
		breaker: gobreaker.NewCircuitBreaker[Answer](gobreaker.Settings{
			Name:        "qa-inference",
			MaxRequests: 1,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

type qaRequest struct {
	Question string `json:"question"`
	Context  string `json:"context"`
}

func (c *HTTPQAClient) Answer(ctx context.Context, question, doc string) (Answer, error) {
	return c.breaker.Execute(func() (Answer, error) {
		payload, err := json.Marshal(qaRequest{Question: question, Context: doc})
		if err != nil {
			return Answer{}, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
		if err != nil {
			return Answer{}, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return Answer{}, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return Answer{}, fmt.Errorf("qa inference http %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}

		var ans Answer
		if err := json.NewDecoder(resp.Body).Decode(&ans); err != nil {
			return Answer{}, fmt.Errorf("decoding qa response: %w", err)
		}
		return ans, nil
	})
}

// fieldQuestion pairs a target field with the question asked of the QA
// model. Order is fixed; one question per field.
type fieldQuestion struct {
	question string
	assign   func(*patient.Fields, string)
}

var fieldQuestions = []fieldQuestion{
	{"What is the patient's main complaint?", func(f *patient.Fields, v string) { f.ChiefComplaint = v }},
	{"What is the patient's past medical history?", func(f *patient.Fields, v string) { f.PastMedicalHistory = v }},
	{"What is the patient's family history?", func(f *patient.Fields, v string) { f.FamilyHistory = v }},
	{"Has the patient had any previous surgeries?", func(f *patient.Fields, v string) { f.PreviousSurgeries = v }},
	{"Describe the patient's lifestyle.", func(f *patient.Fields, v string) { f.Lifestyle = v }},
	{"What allergies does the patient have?", func(f *patient.Fields, v string) { f.Allergies = v }},
	{"What medications is the patient currently taking?", func(f *patient.Fields, v string) { f.CurrentMedications = v }},
}

var (
	agePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d{1,3})\s*[-–—]?\s*year[s]?\s*old`),
		regexp.MustCompile(`(?i)aged\s*(\d{1,3})`),
		regexp.MustCompile(`(?i)(\d{1,3})\s*y/o`),
		regexp.MustCompile(`(?i)(\d{1,3})\s*years?\s*of\s*age`),
		regexp.MustCompile(`(?i)(\d{1,3})\s*yo\b`),
	}

	genderPattern = regexp.MustCompile(`(?i)\b(male|female|man|woman|boy|girl)\b`)

	genderLookup = map[string]string{
		"male": "Male", "man": "Male", "boy": "Male",
		"female": "Female", "woman": "Female", "girl": "Female",
	}

	// "Mr. Sharma", "Mrs Jane Doe": honorific followed by a capitalized name
	honorificName = regexp.MustCompile(`\b(?:Mr|Mrs|Miss|Ms|Dr|Prof)\.?\s+([A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z]+)?)`)

	introducedName = regexp.MustCompile(`(?:my name is|patient(?:'s)? name is|this is|patient named?)\s+([A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z]+)?)`)
)

// minAnswerLen drops QA answers too short to be meaningful.
const minAnswerLen = 3

// FieldExtractor fills the ten patient fields from a transcript: name, age
// and gender via lexical heuristics, the remaining seven via one QA query
// each. A failed or empty answer leaves the field absent; per-field failures
// do not abort the extraction.
type FieldExtractor struct {
	qa  QAModel
	log *zap.Logger
}

func NewFieldExtractor(qa QAModel, log *zap.Logger) *FieldExtractor {
	return &FieldExtractor{qa: qa, log: log}
}

func (e *FieldExtractor) Extract(ctx context.Context, transcript string) patient.Fields {
	var fields patient.Fields

	fields.PatientName = extractName(transcript)
	fields.Age = extractAge(transcript)
	fields.Gender = extractGender(transcript)

	for _, fq := range fieldQuestions {
		ans, err := e.qa.Answer(ctx, fq.question, transcript)
		if err != nil {
			e.log.Warn("qa query failed, leaving field absent",
				zap.String("question", fq.question),
				zap.Error(err),
			)
			continue
		}

		text := strings.TrimSpace(ans.Text)
		if len(text) < minAnswerLen {
			continue
		}
		fq.assign(&fields, text)
	}

	if fields.PatientName == "" {
		if ans, err := e.qa.Answer(ctx, "What is the patient's name?", transcript); err == nil {
			if text := strings.TrimSpace(ans.Text); len(text) >= minAnswerLen {
				fields.PatientName = text
			}
		}
	}

	return fields
}

func extractName(transcript string) string {
	if m := honorificName.FindStringSubmatch(transcript); m != nil {
		return m[1]
	}
	if m := introducedName.FindStringSubmatch(transcript); m != nil {
		return m[1]
	}
	return ""
}

func extractAge(transcript string) string {
	for _, p := range agePatterns {
		if m := p.FindStringSubmatch(transcript); m != nil {
			return m[1]
		}
	}
	return ""
}

func extractGender(transcript string) string {
	if m := genderPattern.FindStringSubmatch(transcript); m != nil {
		return genderLookup[strings.ToLower(m[1])]
	}
	return ""
}
