package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/priceloka/backend/config"
	"github.com/priceloka/backend/pkg/metrics"
)

// Restriction constrains the set of characters an OCR pass may emit.
// Restricting a pass trades recall for precision on a known-shape subfield.
type Restriction int

const (
	RestrictionNone Restriction = iota
	RestrictionAlphabetic
	RestrictionNumeric
)

const (
	alphabeticWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	numericWhitelist    = "0123456789./:%,-"
)

// Whitelist returns the character set the recognition engine is permitted
// to emit, or "" for an unrestricted pass.
func (r Restriction) Whitelist() string {
	switch r {
	case RestrictionAlphabetic:
		return alphabeticWhitelist
	case RestrictionNumeric:
		return numericWhitelist
	default:
		return ""
	}
}

func (r Restriction) String() string {
	switch r {
	case RestrictionAlphabetic:
		return "alphabetic"
	case RestrictionNumeric:
		return "numeric"
	default:
		return "none"
	}
}

// Engine is the text-recognition capability consumed by the extractor.
type Engine interface {
	Recognize(ctx context.Context, img gocv.Mat, restriction Restriction) (string, error)
	Available() bool
}

// TesseractEngine runs a local tesseract binary per pass.
type TesseractEngine struct {
	path      string
	languages string
	timeout   time.Duration
}

func NewTesseractEngine(cfg *config.OCRConfig) (*TesseractEngine, error) {
	path := cfg.TesseractPath
	if path == "" {
		for _, candidate := range []string{"/usr/bin/tesseract", "/usr/local/bin/tesseract"} {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	if path == "" {
		if found, err := exec.LookPath("tesseract"); err == nil {
			path = found
		}
	}
	if path == "" {
		return nil, fmt.Errorf("tesseract binary not found")
	}

	return &TesseractEngine{
		path:      path,
		languages: cfg.Languages,
		timeout:   time.Duration(cfg.TimeoutSeconds) * time.Second,
	}, nil
}

func (e *TesseractEngine) Available() bool {
	_, err := os.Stat(e.path)
	return err == nil
}

// Recognize writes the raster to a temp file and invokes tesseract with the
// pass's character whitelist. The invocation is bounded by the configured
// timeout.
func (e *TesseractEngine) Recognize(ctx context.Context, img gocv.Mat, restriction Restriction) (text string, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOCRPass(restriction.String(), start, err) }()

	tempFile := filepath.Join(os.TempDir(), fmt.Sprintf("ocr_%s.png", uuid.New().String()[:8]))
	defer os.Remove(tempFile)

	if ok := gocv.IMWrite(tempFile, img); !ok {
		return "", fmt.Errorf("failed to write temp image %s", tempFile)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	args := []string{tempFile, "stdout", "-l", e.languages, "--psm", "6"}
	if wl := restriction.Whitelist(); wl != "" {
		args = append(args, "-c", "tessedit_char_whitelist="+wl)
	}

	cmd := exec.CommandContext(ctx, e.path, args...)
	output, runErr := cmd.CombinedOutput()
	if runErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("tesseract timed out after %s: %w", e.timeout, ctx.Err())
		}
		return "", fmt.Errorf("tesseract failed: %w, output: %s", runErr, string(output))
	}

	return strings.TrimSpace(string(output)), nil
}

// RemoteEngine calls an external OCR HTTP service.
type RemoteEngine struct {
	url        string
	httpClient *http.Client
}

type remoteOCRRequest struct {
	ImageBase64   string `json:"imageBase64"`
	CharWhitelist string `json:"charWhitelist,omitempty"`
}

type remoteOCRResponse struct {
	ParsedResults []struct {
		ParsedText string `json:"ParsedText"`
	} `json:"ParsedResults"`
	IsErroredOnProcessing bool   `json:"IsErroredOnProcessing"`
	ErrorMessage          string `json:"ErrorMessage,omitempty"`
}

func NewRemoteEngine(cfg *config.OCRConfig) *RemoteEngine {
	return &RemoteEngine{
		url: cfg.RemoteURL,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

func (e *RemoteEngine) Available() bool {
	return e.url != ""
}

// Recognize posts the raster as base64-encoded PNG. The whitelist rides
// along so a compliant engine can constrain its output; engines that ignore
// it degrade to an unrestricted pass.
func (e *RemoteEngine) Recognize(ctx context.Context, img gocv.Mat, restriction Restriction) (text string, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOCRPass(restriction.String(), start, err) }()

	encoded, err := gocv.IMEncode(gocv.PNGFileExt, img)
	if err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	defer encoded.Close()

	reqBody := remoteOCRRequest{
		ImageBase64:   base64.StdEncoding.EncodeToString(encoded.GetBytes()),
		CharWhitelist: restriction.Whitelist(),
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("OCR engine returned status %d, body: %s", resp.StatusCode, string(body))
	}

	var result remoteOCRResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w, body: %s", err, string(body))
	}

	if result.IsErroredOnProcessing {
		return "", fmt.Errorf("OCR engine rejected input: %s", result.ErrorMessage)
	}

	var parts []string
	for _, r := range result.ParsedResults {
		if r.ParsedText != "" {
			parts = append(parts, r.ParsedText)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n")), nil
}
