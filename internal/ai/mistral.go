package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/cuongbtq/botmr-be/internal/domain"
)

// MistralTranscriber calls the Mistral audio transcription endpoint.
type MistralTranscriber struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

func NewMistralTranscriber(apiKey, baseURL, model string, client *http.Client) *MistralTranscriber {
	if client == nil {
		client = http.DefaultClient
	}
	return &MistralTranscriber{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  client,
	}
}

type transcriptionResponse struct {
	Text     string `json:"text"`
	Segments []struct {
		Speaker string `json:"speaker"`
		Text    string `json:"text"`
	} `json:"segments"`
}

func (t *MistralTranscriber) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("model", t.model); err != nil {
		return "", err
	}
	if err := writer.WriteField("diarize", "true"); err != nil {
		return "", err
	}

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(audio); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/v1/audio/transcriptions", body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	respBody, err := do(t.client, req)
	if err != nil {
		return "", domain.NewExternalServiceError("mistral", err)
	}

	var apiResp transcriptionResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", domain.NewExternalServiceError("mistral", fmt.Errorf("parsing response: %w", err))
	}

	if len(apiResp.Segments) == 0 {
		return strings.TrimSpace(apiResp.Text), nil
	}

	// Diarized output: one line per speaker turn
	var sb strings.Builder
	current := ""
	for _, seg := range apiResp.Segments {
		speaker := seg.Speaker
		if speaker == "" {
			speaker = "Unknown"
		}
		if speaker != current {
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			current = speaker
			sb.WriteString(speaker + ": ")
		} else {
			sb.WriteString(" ")
		}
		sb.WriteString(strings.TrimSpace(seg.Text))
	}
	return sb.String(), nil
}

// do sends req and returns the body of a 200 response.
func do(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return respBody, nil
}
