package ner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/joseph-ayodele/project-geotagger/internal/dataset"
)

// TextEncoder tokenizes raw text for inference.
type TextEncoder interface {
	EncodeText(text string) (dataset.TextEncoding, error)
}

// TritonTensor is a KServe v2 tensor.
type TritonTensor struct {
	Name     string `json:"name"`
	Shape    []int  `json:"shape"`
	DataType string `json:"datatype"`
	Data     any    `json:"data"`
}

type tritonRequest struct {
	Inputs  []TritonTensor `json:"inputs"`
	Outputs []tritonOutput `json:"outputs,omitempty"`
}

type tritonOutput struct {
	Name string `json:"name"`
}

type tritonResponse struct {
	ModelName string `json:"model_name"`
	Outputs   []struct {
		Name     string    `json:"name"`
		Shape    []int     `json:"shape"`
		DataType string    `json:"datatype"`
		Data     []float64 `json:"data"`
	} `json:"outputs"`
}

// TritonConfig locates a token classification model on a Triton server.
type TritonConfig struct {
	BaseURL string
	Model   string
	Output  string // default "logits"
	Timeout time.Duration
}

// TritonModel serves Predict from a Triton hosted token classifier.
type TritonModel struct {
	cfg    TritonConfig
	enc    TextEncoder
	labels dataset.LabelMap
	http   *http.Client
	logger *slog.Logger
}

func NewTritonModel(cfg TritonConfig, enc TextEncoder, labels dataset.LabelMap, logger *slog.Logger) *TritonModel {
	if cfg.Output == "" {
		cfg.Output = "logits"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TritonModel{cfg: cfg, enc: enc, labels: labels, http: &http.Client{Timeout: cfg.Timeout}, logger: logger}
}

func (m *TritonModel) Predict(ctx context.Context, text string) ([]EntitySpan, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	enc, err := m.enc.EncodeText(text)
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}
	n := len(enc.IDs)
	ids := make([]int64, n)
	mask := make([]int64, n)
	for i := range enc.IDs {
		ids[i] = int64(enc.IDs[i])
		mask[i] = int64(enc.AttentionMask[i])
	}
	req := tritonRequest{
		Inputs: []TritonTensor{
			{Name: "input_ids", Shape: []int{1, n}, DataType: "INT64", Data: ids},
			{Name: "attention_mask", Shape: []int{1, n}, DataType: "INT64", Data: mask},
		},
		Outputs: []tritonOutput{{Name: m.cfg.Output}},
	}
	resp, err := m.infer(ctx, req)
	if err != nil {
		return nil, err
	}

	logits, err := m.pickOutput(resp, n)
	if err != nil {
		return nil, err
	}
	numLabels := m.labels.Len()
	preds := make([]TokenPrediction, n)
	for i := 0; i < n; i++ {
		preds[i] = TokenPrediction{
			Start:   enc.Offsets[i][0],
			End:     enc.Offsets[i][1],
			Special: enc.Special[i],
			Probs:   Softmax(logits[i*numLabels : (i+1)*numLabels]),
		}
	}
	return AggregateSimple(text, preds, m.labels), nil
}

func (m *TritonModel) pickOutput(resp *tritonResponse, n int) ([]float64, error) {
	for _, o := range resp.Outputs {
		if o.Name != m.cfg.Output {
			continue
		}
		want := n * m.labels.Len()
		if len(o.Data) != want {
			return nil, fmt.Errorf("triton output %s: got %d values, want %d (shape %v)", o.Name, len(o.Data), want, o.Shape)
		}
		return o.Data, nil
	}
	return nil, fmt.Errorf("triton response has no %q output", m.cfg.Output)
}

func (m *TritonModel) infer(ctx context.Context, req tritonRequest) (*tritonResponse, error) {
	url := fmt.Sprintf("%s/v2/models/%s/infer", strings.TrimRight(m.cfg.BaseURL, "/"), m.cfg.Model)
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := m.http.Do(httpReq)
	if err != nil {
		m.logger.Error("ner.triton.send_error", "model", m.cfg.Model, "error", err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("triton error %d: %s", resp.StatusCode, string(bodyBytes))
	}
	var out tritonResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode triton response: %w", err)
	}
	m.logger.Debug("ner.triton.ok", "model", m.cfg.Model, "tokens", req.Inputs[0].Shape[1], "elapsed_ms", time.Since(start).Milliseconds())
	return &out, nil
}
