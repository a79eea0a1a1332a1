package core

// ChatRequest represents a completion request sent to a backend
type ChatRequest struct {
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
}

// Message represents a single message in the exchange
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResponse represents the completion response
type ChatResponse struct {
	ID       string   `json:"id"`
	Object   string   `json:"object"`
	Model    string   `json:"model"`
	Provider string   `json:"provider"`
	Choices  []Choice `json:"choices"`
	Usage    Usage    `json:"usage"`
	Created  int64    `json:"created"`
}

// Content returns the text of the first choice, or "" when there is none.
func (r *ChatResponse) Content() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// Choice represents a single completion choice
type Choice struct {
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
	Index        int     `json:"index"`
}

// Usage represents token usage information
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// RejectionPayload is a rejected claim-status notification as supplied by the caller.
// MemberID, ClaimNumber, ProviderID and ProviderNPI are PHI or quasi-identifying.
// ErrorCode and ErrorDesc are classification inputs that may carry PHI as free text.
type RejectionPayload struct {
	TransactionID  string                 `json:"transactionId"`
	Payer          string                 `json:"payer"`
	PayerID        string                 `json:"payerId"`
	MemberID       string                 `json:"memberId"`
	ClaimNumber    string                 `json:"claimNumber,omitempty"`
	ProviderID     string                 `json:"providerId,omitempty"`
	ProviderNPI    string                 `json:"providerNpi,omitempty"`
	ErrorCode      string                 `json:"errorCode"`
	ErrorDesc      string                 `json:"errorDesc"`
	StatusCategory string                 `json:"statusCategory,omitempty"`
	ServiceDate    string                 `json:"serviceDate,omitempty"`
	BillAmount     float64                `json:"billAmount,omitempty"`
	AdditionalInfo map[string]interface{} `json:"additionalInfo,omitempty"`
}

// ToMap converts the payload to the generic form walked by the redactor.
// Empty optional fields are omitted.
func (p *RejectionPayload) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"transactionId": p.TransactionID,
		"payer":         p.Payer,
		"payerId":       p.PayerID,
		"memberId":      p.MemberID,
		"errorCode":     p.ErrorCode,
		"errorDesc":     p.ErrorDesc,
	}
	optional := map[string]string{
		"claimNumber":    p.ClaimNumber,
		"providerId":     p.ProviderID,
		"providerNpi":    p.ProviderNPI,
		"statusCategory": p.StatusCategory,
		"serviceDate":    p.ServiceDate,
	}
	for k, v := range optional {
		if v != "" {
			m[k] = v
		}
	}
	if p.BillAmount != 0 {
		m["billAmount"] = p.BillAmount
	}
	if len(p.AdditionalInfo) > 0 {
		m["additionalInfo"] = p.AdditionalInfo
	}
	return m
}

// Resolution modes
const (
	ModeMock = "mock"
	ModeLive = "live"
)

// ResolutionResult is the output of a single resolution attempt.
// Suggestions are already redacted. It is never persisted by the engine.
type ResolutionResult struct {
	TransactionID    string   `json:"transactionId"`
	Suggestions      []string `json:"suggestions"`
	Model            string   `json:"model"`
	Mode             string   `json:"mode"`
	Confidence       float64  `json:"confidence"`
	ProcessingTimeMs int64    `json:"processingTimeMs"`
	TokenCount       int      `json:"tokenCount"`
	Scenario         string   `json:"scenario"`
}
