package phones

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/blake-leads/enrich-cli/internal/config"
	"github.com/blake-leads/enrich-cli/internal/resilience"
)

// Label is the line-type classification of a phone number.
type Label string

const (
	LabelMobile   Label = "mobile"
	LabelLandline Label = "landline"
	LabelInvalid  Label = "invalid"
)

// Classifier labels phone numbers as mobile, landline, or invalid.
type Classifier interface {
	Classify(ctx context.Context, numbers []string) ([]Label, error)
}

//go:embed data/areacodes.yaml
var areaCodesYAML []byte

// mobileFirstAreaCodes holds overlay area codes that are assigned almost
// exclusively to mobile lines. Used only when the remote classifier is
// unreachable.
var mobileFirstAreaCodes map[string]bool

func init() {
	var doc struct {
		MobileFirst []string `yaml:"mobile_first_area_codes"`
	}
	if err := yaml.Unmarshal(areaCodesYAML, &doc); err != nil {
		panic("phones: parse embedded area codes: " + err.Error())
	}
	mobileFirstAreaCodes = make(map[string]bool, len(doc.MobileFirst))
	for _, c := range doc.MobileFirst {
		mobileFirstAreaCodes[c] = true
	}
}

// HeuristicClassifier labels numbers by area code alone. It never errors.
type HeuristicClassifier struct{}

// Classify implements Classifier.
func (HeuristicClassifier) Classify(_ context.Context, numbers []string) ([]Label, error) {
	labels := make([]Label, len(numbers))
	for i, n := range numbers {
		code := AreaCode(n)
		switch {
		case code == "":
			labels[i] = LabelInvalid
		case mobileFirstAreaCodes[code]:
			labels[i] = LabelMobile
		default:
			labels[i] = LabelLandline
		}
	}
	return labels, nil
}

// RemoteClassifier calls an HTTP line-type API in bounded batches. Inputs
// larger than the batch size are split; each sub-batch is independent and
// retried on transient failure.
type RemoteClassifier struct {
	cfg     config.ClassifierConfig
	client  *http.Client
	limiter *rate.Limiter
}

// NewRemoteClassifier builds a classifier from configuration.
func NewRemoteClassifier(cfg config.ClassifierConfig) *RemoteClassifier {
	if cfg.BatchSize <= 0 || cfg.BatchSize > 800 {
		cfg.BatchSize = 800
	}
	if cfg.TimeoutSecs <= 0 {
		cfg.TimeoutSecs = 120
	}
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 2
	}
	return &RemoteClassifier{
		cfg:     cfg,
		client:  &http.Client{Timeout: time.Duration(cfg.TimeoutSecs) * time.Second},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

type classifyRequest struct {
	Numbers []string `json:"numbers"`
}

type classifyResponse struct {
	Results []struct {
		Number string `json:"number"`
		Type   string `json:"type"`
	} `json:"results"`
}

// Classify implements Classifier.
func (c *RemoteClassifier) Classify(ctx context.Context, numbers []string) ([]Label, error) {
	labels := make([]Label, 0, len(numbers))
	for start := 0; start < len(numbers); start += c.cfg.BatchSize {
		end := start + c.cfg.BatchSize
		if end > len(numbers) {
			end = len(numbers)
		}
		batch, err := c.classifyBatch(ctx, numbers[start:end])
		if err != nil {
			return nil, err
		}
		labels = append(labels, batch...)
	}
	return labels, nil
}

func (c *RemoteClassifier) classifyBatch(ctx context.Context, numbers []string) ([]Label, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "phones: rate limit wait")
	}

	return resilience.DoVal(ctx, resilience.DefaultRetryConfig(), func(ctx context.Context) ([]Label, error) {
		body, err := json.Marshal(classifyRequest{Numbers: numbers})
		if err != nil {
			return nil, eris.Wrap(err, "phones: marshal request")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
		if err != nil {
			return nil, eris.Wrap(err, "phones: build request")
		}
		req.Header.Set("Content-Type", "application/json")
		if c.cfg.Key != "" {
			req.Header.Set("Authorization", "Bearer "+c.cfg.Key)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, resilience.NewTransientError(eris.Wrap(err, "phones: classifier call"), 0)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			io.Copy(io.Discard, resp.Body)
			return nil, resilience.NewTransientError(eris.Errorf("phones: classifier status %d", resp.StatusCode), resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, eris.Errorf("phones: classifier status %d", resp.StatusCode)
		}

		var parsed classifyResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return nil, eris.Wrap(err, "phones: decode response")
		}
		if len(parsed.Results) != len(numbers) {
			return nil, eris.Errorf("phones: classifier returned %d results for %d numbers", len(parsed.Results), len(numbers))
		}

		labels := make([]Label, len(parsed.Results))
		for i, r := range parsed.Results {
			switch r.Type {
			case "mobile", "voip", "wireless", "cellular":
				labels[i] = LabelMobile
			case "landline", "fixed", "fixed_line":
				labels[i] = LabelLandline
			default:
				labels[i] = LabelInvalid
			}
		}
		return labels, nil
	})
}

// ClassifyWithFallback tries the remote classifier and falls back to the
// area-code heuristic when it fails. The job always gets labels.
func ClassifyWithFallback(ctx context.Context, remote Classifier, numbers []string) []Label {
	if len(numbers) == 0 {
		return nil
	}
	if remote != nil {
		labels, err := remote.Classify(ctx, numbers)
		if err == nil {
			return labels
		}
		zap.L().Warn("remote phone classifier failed, using area-code heuristic",
			zap.Int("numbers", len(numbers)),
			zap.Error(err),
		)
	}
	labels, _ := HeuristicClassifier{}.Classify(ctx, numbers)
	return labels
}
