package analyzer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/analysis"
	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/llm"
)

// ImageAnalyzer builds one structured call over a vision-capable payload
// (an image, or a rasterized PDF page when the PDF has no text layer).
type ImageAnalyzer struct {
	Client        llm.StructuredClient
	Model         string
	ModelRevision string
}

func (a *ImageAnalyzer) Analyze(ctx context.Context, imageBytes []byte, mimeType string) (*analysis.ImageAnalysis, error) {
	// The adapter abstraction (§4.4) exposes one string user_content slot;
	// images are passed as a data URI so every backend shares one code path
	// regardless of whether it natively supports a separate image part.
	dataURI := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(imageBytes))

	payload, status, err := a.Client.CallStructured(ctx, llm.CallRequest{
		Model:        a.Model,
		SystemPrompt: imageSystemPrompt,
		UserContent:  dataURI,
		SchemaName:   "image_analysis",
		Schema:       json.RawMessage(imageSchemaJSON),
	})
	if err != nil {
		return nil, fmt.Errorf("analyzer: image call (%s): %w", status, err)
	}

	var out analysis.ImageAnalysis
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("analyzer: image payload decode: %w", err)
	}
	return &out, nil
}
