package recognize

import (
	"context"
	_ "embed"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

//go:embed prompts/face_check.txt
var faceCheckPrompt string

const chatModel = openai.ChatModelGPT4_1Mini

// FaceCheck is the verdict on a single snapshot.
type FaceCheck struct {
	FacePresent bool   `json:"face_present"`
	Live        bool   `json:"live"`
	Reason      string `json:"reason"`
}

// FaceChecker screens snapshots with a vision model before they reach the
// embedding pipeline. It is optional; a nil checker accepts everything.
type FaceChecker struct {
	client *openai.Client
}

// NewFaceChecker creates a checker backed by the OpenAI API. Returns nil when
// no API key is configured, which disables screening.
func NewFaceChecker(apiKey string) *FaceChecker {
	if apiKey == "" {
		return nil
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &FaceChecker{client: &client}
}

// Check asks the vision model whether the snapshot shows a single live face.
func (f *FaceChecker) Check(ctx context.Context, imageData []byte) (*FaceCheck, error) {
	if f == nil {
		return &FaceCheck{FacePresent: true, Live: true}, nil
	}

	base64Image := base64.StdEncoding.EncodeToString(imageData)
	imageURL := "data:image/jpeg;base64," + base64Image

	resp, err := f.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: chatModel,
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String(faceCheckPrompt),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfArrayOfContentParts: []openai.ChatCompletionContentPartUnionParam{
							openai.TextContentPart("Review this snapshot."),
							openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
								URL:    imageURL,
								Detail: "low",
							}),
						},
					},
				},
			},
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
		MaxTokens: openai.Int(200),
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("no response from OpenAI")
	}

	var check FaceCheck
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &check); err != nil {
		return nil, fmt.Errorf("failed to parse face check JSON: %w", err)
	}

	return &check, nil
}
