// Package comfyui implements the client for a local ComfyUI instance:
// workflow submission, completion polling, and artwork file management.
package comfyui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

const (
	defaultPollInterval = time.Second
	defaultWaitTimeout  = 5 * time.Minute
)

// Client handles ComfyUI API interactions and stores generated artwork under
// a local output directory.
type Client struct {
	baseURL    string
	outputDir  string
	fs         afero.Fs
	httpClient *http.Client
}

// NewClient creates a new ComfyUI client writing artwork below outputDir.
func NewClient(baseURL, outputDir string) *Client {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8080"
	}
	if outputDir == "" {
		outputDir = filepath.Join("artwork", "generated")
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		outputDir: outputDir,
		fs:        afero.NewOsFs(),
		// Image generation is slow; the client timeout must outlast a
		// single queue/history/view call, not the whole generation.
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// History is the execution record of a queued prompt.
type History struct {
	Outputs map[string]NodeOutput `json:"outputs"`
}

// NodeOutput lists the images a workflow node produced.
type NodeOutput struct {
	Images []OutputImage `json:"images"`
}

// OutputImage locates one generated image on the ComfyUI side.
type OutputImage struct {
	Filename  string `json:"filename"`
	Subfolder string `json:"subfolder"`
	Type      string `json:"type"`
}

// IsAvailable reports whether the ComfyUI instance is reachable.
func (c *Client) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/system_stats", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// QueuePrompt submits a workflow and returns the prompt ID.
func (c *Client) QueuePrompt(ctx context.Context, workflow map[string]any) (string, error) {
	payload := map[string]any{
		"prompt":    workflow,
		"client_id": uuid.NewString(),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal workflow: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/prompt", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("comfyui api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("comfyui queue failed: %s - %s", resp.Status, string(respBody))
	}

	var queued struct {
		PromptID string `json:"prompt_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&queued); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return queued.PromptID, nil
}

// GetHistory returns the execution history for a prompt, or nil while the
// prompt has not finished.
func (c *Client) GetHistory(ctx context.Context, promptID string) (*History, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/history/"+url.PathEscape(promptID), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("comfyui api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("comfyui history failed: %s - %s", resp.Status, string(respBody))
	}

	var history map[string]History
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	entry, ok := history[promptID]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

// WaitForCompletion polls until a prompt produces outputs or the timeout
// elapses. Zero intervals fall back to package defaults.
func (c *Client) WaitForCompletion(ctx context.Context, promptID string, pollInterval, timeout time.Duration) (*History, error) {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	if timeout <= 0 {
		timeout = defaultWaitTimeout
	}

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		history, err := c.GetHistory(ctx, promptID)
		if err != nil {
			return nil, err
		}
		if history != nil && len(history.Outputs) > 0 {
			return history, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("prompt %s did not complete within %s", promptID, timeout)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// GetImage downloads a generated image from ComfyUI.
func (c *Client) GetImage(ctx context.Context, filename, subfolder, folderType string) ([]byte, error) {
	if folderType == "" {
		folderType = "output"
	}
	query := url.Values{}
	query.Set("filename", filename)
	query.Set("type", folderType)
	if subfolder != "" {
		query.Set("subfolder", subfolder)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/view?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("comfyui api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("comfyui view failed: %s - %s", resp.Status, string(respBody))
	}
	return io.ReadAll(resp.Body)
}

// sanitizeName keeps artwork filenames safe across filesystems.
func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == ' ':
			return r
		default:
			return '_'
		}
	}, name)
}

// GeneratePoster runs the Flux workflow for a prompt, downloads the first
// output image, and saves it locally. Returns the saved file path and the
// image bytes (for direct upload to the media server).
func (c *Client) GeneratePoster(ctx context.Context, prompt, collectionName string, opts WorkflowOptions) (string, []byte, error) {
	workflow := BuildFluxWorkflow(prompt, opts)

	promptID, err := c.QueuePrompt(ctx, workflow)
	if err != nil {
		return "", nil, err
	}
	history, err := c.WaitForCompletion(ctx, promptID, 0, 0)
	if err != nil {
		return "", nil, err
	}

	for _, output := range history.Outputs {
		if len(output.Images) == 0 {
			continue
		}
		image := output.Images[0]
		data, err := c.GetImage(ctx, image.Filename, image.Subfolder, image.Type)
		if err != nil {
			return "", nil, err
		}

		suffix := promptID
		if len(suffix) > 8 {
			suffix = suffix[:8]
		}
		localName := fmt.Sprintf("%s_%s.png", sanitizeName(collectionName), suffix)
		localPath := filepath.Join(c.outputDir, localName)

		if err := c.fs.MkdirAll(c.outputDir, 0o755); err != nil {
			return "", nil, fmt.Errorf("create artwork dir: %w", err)
		}
		if err := afero.WriteFile(c.fs, localPath, data, 0o644); err != nil {
			return "", nil, fmt.Errorf("save artwork: %w", err)
		}
		return localPath, data, nil
	}

	return "", nil, fmt.Errorf("no image output found in workflow result")
}

// GenerateMultiple generates several poster variations sequentially, each
// with a fresh random seed. Returns the saved file paths.
func (c *Client) GenerateMultiple(ctx context.Context, prompt, collectionName string, count int, opts WorkflowOptions) ([]string, error) {
	if count <= 0 {
		count = 4
	}
	paths := make([]string, 0, count)
	for i := 0; i < count; i++ {
		opts.Seed = 0 // new seed per variation
		path, _, err := c.GeneratePoster(ctx, prompt, collectionName, opts)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
