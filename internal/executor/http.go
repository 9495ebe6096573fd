package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"trust-multisig/internal/model"

	"github.com/fxamacker/cbor"
	"go.uber.org/zap"
)

const (
	contentTypeCBOR = "application/cbor"
	actionsAPI      = "actions"

	defaultTimeout = 10 * time.Second
)

// HTTPExecutor forwards actions to a remote endpoint as canonical CBOR documents.
// Any non-2xx response is a failed action.
type HTTPExecutor struct {
	logger *zap.Logger
	url    string
	client *http.Client
}

func NewHTTPExecutor(logger *zap.Logger, endpoint string) *HTTPExecutor {
	var url string
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		url = fmt.Sprintf("%s/%s", strings.TrimSuffix(endpoint, "/"), actionsAPI)
	} else {
		url = fmt.Sprintf("http://%s/%s", strings.TrimSuffix(endpoint, "/"), actionsAPI)
	}

	return &HTTPExecutor{
		logger: logger,
		url:    url,
		client: &http.Client{Timeout: defaultTimeout},
	}
}

func (e *HTTPExecutor) PerformAction(ctx context.Context, destination model.Address, value uint64, payload []byte) error {
	action := Action{Destination: destination.String(), Value: value, Payload: payload}
	body, err := cbor.Marshal(action, cbor.CanonicalEncOptions())
	if err != nil {
		return errors.New("failed to encode the action: " + err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentTypeCBOR)

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach the action endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		responseBody, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if err != nil {
			responseBody = []byte("failed to read the response body: " + err.Error())
		}
		return fmt.Errorf("action endpoint responded %s: %s", resp.Status, strings.TrimSpace(string(responseBody)))
	}

	e.logger.Debug("action forwarded", zap.String("destination", destination.String()), zap.Uint64("value", value), zap.Int("status", resp.StatusCode))
	return nil
}

// DecodeAction reads an action document as produced by HTTPExecutor.
func DecodeAction(data []byte) (Action, error) {
	var action Action
	if err := cbor.Unmarshal(data, &action); err != nil {
		return Action{}, errors.New("failed to decode the action: " + err.Error())
	}
	return action, nil
}
