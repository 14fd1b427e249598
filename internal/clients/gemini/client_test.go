package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"testing"
)

type mockModel struct {
	mock.Mock
}

func (m *mockModel) GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	args := m.Called(ctx, parts)
	response, _ := args.Get(0).(*genai.GenerateContentResponse)
	return response, args.Error(1)
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text(text)}},
		}},
	}
}

func image(content string) string {
	return base64.StdEncoding.EncodeToString([]byte(content))
}

func Test_ExtractCV_ShouldSendEveryPageAndDecodeResponse(t *testing.T) {
	model := &mockModel{}
	model.On("GenerateContent", mock.Anything, mock.MatchedBy(func(parts []genai.Part) bool {
		if len(parts) != 3 {
			return false
		}
		first, ok := parts[1].(genai.Blob)
		return ok && first.MIMEType == "image/png" && string(first.Data) == "page-1"
	})).Return(textResponse(`{
		"description": "Backend developer",
		"skills": [{"name": "Go", "order": 0}, {"name": "SQL", "order": 1}],
		"experiences": [{"title": "Engineer", "company": null, "startDate": "2020-01"}],
		"languages": [{"value": "en", "level": "C1"}]
	}`), nil).Once()

	client := &Client{model: model}

	cv, err := client.ExtractCV(context.Background(), []string{image("page-1"), image("page-2")})
	require.NoError(t, err)

	require.NotNil(t, cv.Description)
	assert.Equal(t, "Backend developer", *cv.Description)
	assert.Nil(t, cv.Department)
	assert.Len(t, cv.Skills, 2)
	assert.Equal(t, "Engineer", cv.Experiences[0].Title)
	assert.Equal(t, "", cv.Experiences[0].Company)
	assert.Nil(t, cv.Formations)
	assert.Equal(t, "en", cv.Languages[0].Value)
	model.AssertExpectations(t)
}

func Test_ExtractCV_ShouldPropagateServiceErrorUnchanged(t *testing.T) {
	serviceErr := errors.New("googleapi: Error 503: overloaded")
	model := &mockModel{}
	model.On("GenerateContent", mock.Anything, mock.Anything).Return(nil, serviceErr).Once()

	client := &Client{model: model}

	_, err := client.ExtractCV(context.Background(), []string{image("page")})
	assert.Same(t, serviceErr, err)
	model.AssertNumberOfCalls(t, "GenerateContent", 1)
}

func Test_ExtractCV_WhenNoImages_ShouldFailWithoutCallingModel(t *testing.T) {
	model := &mockModel{}
	client := &Client{model: model}

	_, err := client.ExtractCV(context.Background(), nil)
	assert.Error(t, err)
	model.AssertNotCalled(t, "GenerateContent", mock.Anything, mock.Anything)
}

func Test_ExtractCV_WhenEmptyResponse_ShouldFail(t *testing.T) {
	model := &mockModel{}
	model.On("GenerateContent", mock.Anything, mock.Anything).
		Return(&genai.GenerateContentResponse{}, nil).Once()

	client := &Client{model: model}

	_, err := client.ExtractCV(context.Background(), []string{image("page")})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func Test_ParseCV_ShouldRejectSchemaViolations(t *testing.T) {
	_, err := parseCV(`{"skills": [{"order": 1}]}`)
	assert.ErrorContains(t, err, "does not match CV schema")

	_, err = parseCV(`{"skills": "Go"}`)
	assert.Error(t, err)

	_, err = parseCV(`not json`)
	assert.Error(t, err)
}

func Test_ParseCV_ShouldAcceptFencedJson(t *testing.T) {
	cv, err := parseCV("```json\n{\"interests\": [{\"name\": \"Chess\"}], \"skills\": []}\n```")
	require.NoError(t, err)
	assert.Equal(t, "Chess", cv.Interests[0].Name)
	assert.NotNil(t, cv.Skills)
	assert.Empty(t, cv.Skills)
}
