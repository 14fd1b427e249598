package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/google/generative-ai-go/genai"
	"github.com/maxaizer/cv-extractor/internal/entities"
	"github.com/xeipuuv/gojsonschema"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"strings"
)

type Model string

const (
	//Model15Flash is fastest multimodal model with great performance for diverse, repetitive tasks
	Model15Flash Model = "gemini-1.5-flash"
	//Model15Pro is next-generation model with a breakthrough 2 million context window
	Model15Pro Model = "gemini-1.5-pro"
	//Model20Flash is the multimodal successor of 1.5 flash
	Model20Flash Model = "gemini-2.0-flash"
)

const extractionPrompt = "The images are the pages of a résumé, in order. Extract the candidate's data " +
	"into the JSON schema. Use only what is written in the document, leave a field null when it is absent. " +
	"Write dates as YYYY-MM-DD, or YYYY-MM when the day is not given. Languages use ISO 639-1 codes."

var ErrEmptyResponse = errors.New("gemini returned no content")

type generativeModel interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Client extracts CV data from page images. It does not retry: a failed call
// fails the job attempt and the queue decides what happens next.
type Client struct {
	client            *genai.Client
	model             generativeModel
	minuteRateLimiter *rate.Limiter
	dayRateLimiter    *rate.Limiter
}

func NewClient(ctx context.Context, apiKey string, model Model) (*Client, error) {

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	genModel := client.GenerativeModel(string(model))
	genModel.ResponseMIMEType = "application/json"
	genModel.ResponseSchema = responseSchema()
	genModel.SetTemperature(0)

	service := Client{
		client: client,
		model:  genModel,
	}

	return &service, nil
}

func (c *Client) SetMinuteRateLimit(maxRequestsPerMinute float32) {
	if maxRequestsPerMinute <= 0 {
		c.minuteRateLimiter = nil
		return
	}
	c.minuteRateLimiter = rate.NewLimiter(rate.Limit(maxRequestsPerMinute/60), 1)
}

func (c *Client) SetDayRateLimit(maxRequestsPerDay float32) {
	if maxRequestsPerDay <= 0 {
		c.dayRateLimiter = nil
		return
	}
	c.dayRateLimiter = rate.NewLimiter(rate.Limit(maxRequestsPerDay/86400), int(maxRequestsPerDay))
}

func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// ExtractCV sends every page image (base64 PNG) in a single request and
// decodes the structured answer.
func (c *Client) ExtractCV(ctx context.Context, images []string) (*entities.CVSchema, error) {

	if len(images) == 0 {
		return nil, errors.New("no page images to extract from")
	}

	parts := make([]genai.Part, 0, len(images)+1)
	parts = append(parts, genai.Text(extractionPrompt))
	for i, image := range images {
		data, err := base64.StdEncoding.DecodeString(image)
		if err != nil {
			return nil, fmt.Errorf("page %d is not valid base64: %w", i+1, err)
		}
		parts = append(parts, genai.ImageData("png", data))
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	response, err := c.model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, err
	}

	text, err := responseText(response)
	if err != nil {
		return nil, err
	}

	return parseCV(text)
}

func (c *Client) wait(ctx context.Context) error {
	limiters := []*rate.Limiter{c.minuteRateLimiter, c.dayRateLimiter}
	for _, limiter := range limiters {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

func responseText(response *genai.GenerateContentResponse) (string, error) {
	if response == nil {
		return "", ErrEmptyResponse
	}

	var builder strings.Builder
	for _, candidate := range response.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				builder.WriteString(string(text))
			}
		}
		if builder.Len() > 0 {
			break
		}
	}

	if builder.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return builder.String(), nil
}

func parseCV(text string) (*entities.CVSchema, error) {

	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	result, err := cvValidator.Validate(gojsonschema.NewStringLoader(text))
	if err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %w", err)
	}
	if !result.Valid() {
		descriptions := make([]string, 0, len(result.Errors()))
		for _, resultErr := range result.Errors() {
			descriptions = append(descriptions, resultErr.String())
		}
		return nil, fmt.Errorf("response does not match CV schema: %s", strings.Join(descriptions, "; "))
	}

	var cv entities.CVSchema
	if err = json.Unmarshal([]byte(text), &cv); err != nil {
		return nil, fmt.Errorf("error decoding CV response: %w", err)
	}
	return &cv, nil
}
