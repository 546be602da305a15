package llm

// Request shape for models/{model}:generateContent.
type providerRequest struct {
	Contents         []providerContent         `json:"contents"`
	GenerationConfig *providerGenerationConfig `json:"generationConfig,omitempty"`
}

type providerContent struct {
	Role  string         `json:"role,omitempty"`
	Parts []providerPart `json:"parts"`
}

type providerPart struct {
	Text       string        `json:"text,omitempty"`
	InlineData *providerBlob `json:"inlineData,omitempty"`
}

type providerBlob struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"` // base64
}

type providerGenerationConfig struct {
	Temperature     *float32 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

type providerCandidate struct {
	Content      providerContent `json:"content"`
	FinishReason string          `json:"finishReason,omitempty"`
}

type providerUsage struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type providerResponse struct {
	Candidates     []providerCandidate `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason,omitempty"`
	} `json:"promptFeedback,omitempty"`
	UsageMetadata *providerUsage `json:"usageMetadata,omitempty"`
	ModelVersion  string         `json:"modelVersion,omitempty"`
}

type providerErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
