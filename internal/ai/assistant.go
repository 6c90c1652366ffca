package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	defaultModel     = "gpt-4o"
	defaultMaxTokens = 1024
	apiURL           = "https://api.openai.com/v1/chat/completions"

	// ComposeEmailTool is the name of the one function the model may call.
	ComposeEmailTool = "compose_email"
)

// ToolCall is a structured function call proposed by the model in place
// of free text.
type ToolCall struct {
	Name      string
	Arguments json.RawMessage
}

// Reply is the model's answer to one conversation turn: either plain
// text, or a tool call (possibly accompanied by text).
type Reply struct {
	Text     string
	ToolCall *ToolCall
}

// Assistant talks to the OpenAI chat-completions API, offering the model
// a single email-composition tool alongside the conversation history.
type Assistant struct {
	apiKey    string
	model     string
	maxTokens int
	baseURL   string
	client    *http.Client
}

// New creates an assistant with the given credential and model settings.
func New(apiKey, modelName string, maxTokens int) *Assistant {
	if modelName == "" {
		modelName = defaultModel
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &Assistant{
		apiKey:    apiKey,
		model:     modelName,
		maxTokens: maxTokens,
		baseURL:   apiURL,
		client:    &http.Client{},
	}
}

// Complete sends the ordered conversation plus the compose_email tool
// definition and returns the model's reply. The assistant holds no
// conversation state itself; the caller owns the history and decides
// what to commit.
func (a *Assistant) Complete(ctx context.Context, msgs []Message) (*Reply, error) {
	reqBody := chatRequest{
		Model:      a.model,
		MaxTokens:  a.maxTokens,
		Messages:   buildWireMessages(msgs),
		Tools:      toolDefinitions(),
		ToolChoice: "auto",
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, a.baseURL, bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling model API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("model returned no choices")
	}

	msg := result.Choices[0].Message
	reply := &Reply{Text: msg.Content}

	if len(msg.ToolCalls) > 0 {
		tc := msg.ToolCalls[0]
		reply.ToolCall = &ToolCall{
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		}
	}

	return reply, nil
}

// buildWireMessages prepends the system prompt and converts the
// conversation history into the wire format.
func buildWireMessages(msgs []Message) []chatMessage {
	out := make([]chatMessage, 0, len(msgs)+1)
	out = append(out, chatMessage{
		Role:    "system",
		Content: systemPrompt(),
	})

	for _, m := range msgs {
		out = append(out, chatMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	return out
}

// systemPrompt steers the model toward using the compose_email tool once
// it has collected a recipient, subject, and body from the user.
func systemPrompt() string {
	var sb strings.Builder

	sb.WriteString("You are an email assistant. ")
	sb.WriteString("Help the user write and send emails.\n\n")

	sb.WriteString("When the user has provided enough detail to draft a ")
	sb.WriteString("message (a recipient address, a subject, and what the ")
	sb.WriteString("body should say), call the compose_email function with ")
	sb.WriteString("the complete draft. Include cc and bcc only when the ")
	sb.WriteString("user asked for them.\n\n")

	sb.WriteString("Never claim an email was sent: the application sends ")
	sb.WriteString("mail only after the user explicitly confirms a draft. ")
	sb.WriteString("For anything else, reply in plain text and keep ")
	sb.WriteString("responses concise.")

	return sb.String()
}

// --- OpenAI chat-completions wire types ---

type chatRequest struct {
	Model      string        `json:"model"`
	MaxTokens  int           `json:"max_tokens,omitempty"`
	Messages   []chatMessage `json:"messages"`
	Tools      []chatTool    `json:"tools,omitempty"`
	ToolChoice string        `json:"tool_choice,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatTool struct {
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type toolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Role      string `json:"role"`
			Content   string `json:"content"`
			ToolCalls []struct {
				ID       string `json:"id"`
				Type     string `json:"type"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type apiErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// toolDefinitions declares the single compose_email function.
func toolDefinitions() []chatTool {
	return []chatTool{
		{
			Type: "function",
			Function: toolFunction{
				Name:        ComposeEmailTool,
				Description: "Compose an email based on user instructions",
				Parameters: json.RawMessage(`{
					"type": "object",
					"properties": {
						"to": {
							"type": "string",
							"description": "Recipient's email address"
						},
						"subject": {
							"type": "string",
							"description": "Email subject"
						},
						"body": {
							"type": "string",
							"description": "Email body content"
						},
						"cc": {
							"type": "string",
							"description": "CC recipients, comma-separated"
						},
						"bcc": {
							"type": "string",
							"description": "BCC recipients, comma-separated"
						}
					},
					"required": ["to", "subject", "body"]
				}`),
			},
		},
	}
}
