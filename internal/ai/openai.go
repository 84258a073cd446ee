package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OpenAIProvider talks to an OpenAI-compatible completion endpoint. One
// instance handles text chat; SpeechModel/ImageModel route the audio and
// image calls through the same credentials.
type OpenAIProvider struct {
	BaseURL     string
	APIKey      string
	Model       string
	SpeechModel string
	ImageModel  string
	MaxTokens   int
	Client      *http.Client
}

type openAIMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIAudioOpts struct {
	Voice  string `json:"voice"`
	Format string `json:"format"`
}

type openAIChatReq struct {
	Model      string           `json:"model"`
	Messages   []openAIMsg      `json:"messages"`
	Stream     bool             `json:"stream"`
	MaxTokens  int              `json:"max_completion_tokens,omitempty"`
	Modalities []string         `json:"modalities,omitempty"`
	Audio      *openAIAudioOpts `json:"audio,omitempty"`
}

type openAIChatResp struct {
	Choices []struct {
		Message openAIMsg `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type openAIStreamResp struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
			Audio   *struct {
				Data string `json:"data"`
			} `json:"audio,omitempty"`
		} `json:"delta"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type openAIImageReq struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type openAIImageResp struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewOpenAIProvider(baseURL, apiKey, model, speechModel, imageModel string, maxTokens int) *OpenAIProvider {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAIProvider{
		BaseURL:     baseURL,
		APIKey:      apiKey,
		Model:       model,
		SpeechModel: speechModel,
		ImageModel:  imageModel,
		MaxTokens:   maxTokens,
		Client:      &http.Client{Timeout: 90 * time.Second},
	}
}

func (p *OpenAIProvider) validate() error {
	if p.Client == nil {
		return errors.New("openai: http client is nil")
	}
	if strings.TrimSpace(p.APIKey) == "" {
		return errors.New("openai: api key is required")
	}
	return nil
}

func (p *OpenAIProvider) newRequest(ctx context.Context, path string, body any) (*http.Request, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s%s", strings.TrimRight(p.BaseURL, "/"), path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)
	return req, nil
}

func upstreamStatusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = fmt.Sprintf("status %d", resp.StatusCode)
	}
	return fmt.Errorf("openai: %s", msg)
}

func (p *OpenAIProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	if err := p.validate(); err != nil {
		return "", err
	}
	model := strings.TrimSpace(p.Model)
	if model == "" {
		return "", errors.New("openai: model is required")
	}

	reqBody := openAIChatReq{
		Model:     model,
		Stream:    false,
		MaxTokens: p.MaxTokens,
		Messages: func() []openAIMsg {
			out := make([]openAIMsg, 0, len(messages))
			for _, m := range messages {
				out = append(out, openAIMsg{Role: m.Role, Content: m.Content})
			}
			return out
		}(),
	}

	req, err := p.newRequest(ctx, "/chat/completions", reqBody)
	if err != nil {
		return "", err
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", upstreamStatusError(resp)
	}

	var decoded openAIChatResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return "", errors.New(decoded.Error.Message)
	}
	if len(decoded.Choices) == 0 {
		return "", errors.New("openai: empty response")
	}
	return decoded.Choices[0].Message.Content, nil
}

// StreamChat streams assistant content deltas parsed from the upstream SSE
// body. Both channels are closed when streaming ends.
func (p *OpenAIProvider) StreamChat(ctx context.Context, messages []Message) (<-chan string, <-chan error) {
	reqBody := openAIChatReq{
		Model:     strings.TrimSpace(p.Model),
		Stream:    true,
		MaxTokens: p.MaxTokens,
		Messages: func() []openAIMsg {
			out := make([]openAIMsg, 0, len(messages))
			for _, m := range messages {
				out = append(out, openAIMsg{Role: m.Role, Content: m.Content})
			}
			return out
		}(),
	}
	return p.stream(ctx, reqBody, func(d *openAIStreamResp) string {
		if len(d.Choices) == 0 {
			return ""
		}
		return d.Choices[0].Delta.Content
	})
}

// StreamSpeech asks the audio model to speak text verbatim and streams the
// base64 PCM16 blocks exactly as received.
func (p *OpenAIProvider) StreamSpeech(ctx context.Context, text, voice string) (<-chan string, <-chan error) {
	reqBody := openAIChatReq{
		Model:      strings.TrimSpace(p.SpeechModel),
		Stream:     true,
		Modalities: []string{"text", "audio"},
		Audio:      &openAIAudioOpts{Voice: voice, Format: "pcm16"},
		Messages: []openAIMsg{
			{Role: "system", Content: "You are an assistant that performs text-to-speech."},
			{Role: "user", Content: "Repeat the following text verbatim: " + text},
		},
	}
	return p.stream(ctx, reqBody, func(d *openAIStreamResp) string {
		if len(d.Choices) == 0 || d.Choices[0].Delta.Audio == nil {
			return ""
		}
		return d.Choices[0].Delta.Audio.Data
	})
}

func (p *OpenAIProvider) stream(ctx context.Context, reqBody openAIChatReq, pick func(*openAIStreamResp) string) (<-chan string, <-chan error) {
	chunks := make(chan string, 16)
	errs := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errs)

		if err := p.validate(); err != nil {
			errs <- err
			return
		}
		if reqBody.Model == "" {
			errs <- errors.New("openai: model is required")
			return
		}

		req, err := p.newRequest(ctx, "/chat/completions", reqBody)
		if err != nil {
			errs <- err
			return
		}

		// streaming responses can outlive the default client timeout;
		// ctx bounds the request instead
		httpClient := &http.Client{Transport: p.Client.Transport}

		resp, err := httpClient.Do(req)
		if err != nil {
			errs <- err
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			errs <- upstreamStatusError(resp)
			return
		}

		sc := bufio.NewScanner(resp.Body)
		buf := make([]byte, 0, 64*1024)
		sc.Buffer(buf, 2*1024*1024)

		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" || !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "[DONE]" {
				return
			}
			var decoded openAIStreamResp
			if err := json.Unmarshal([]byte(data), &decoded); err != nil {
				errs <- err
				return
			}
			if decoded.Error != nil && decoded.Error.Message != "" {
				errs <- errors.New(decoded.Error.Message)
				return
			}
			if delta := pick(&decoded); delta != "" {
				select {
				case chunks <- delta:
				case <-ctx.Done():
					errs <- ctx.Err()
					return
				}
			}
		}

		if err := sc.Err(); err != nil {
			errs <- err
			return
		}
	}()

	return chunks, errs
}

// GenerateImage returns the base64 payload of one generated image.
func (p *OpenAIProvider) GenerateImage(ctx context.Context, prompt, size string) (string, error) {
	if err := p.validate(); err != nil {
		return "", err
	}
	model := strings.TrimSpace(p.ImageModel)
	if model == "" {
		return "", errors.New("openai: image model is required")
	}
	if size == "" {
		size = "1024x1024"
	}

	req, err := p.newRequest(ctx, "/images/generations", openAIImageReq{
		Model:  model,
		Prompt: prompt,
		N:      1,
		Size:   size,
	})
	if err != nil {
		return "", err
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", upstreamStatusError(resp)
	}

	var decoded openAIImageResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return "", errors.New(decoded.Error.Message)
	}
	if len(decoded.Data) == 0 {
		return "", errors.New("openai: empty image response")
	}
	return decoded.Data[0].B64JSON, nil
}
