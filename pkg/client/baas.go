package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/integrail/chatbot-verify/pkg/client/dto"
)

type baasClient struct {
	baasURL    string
	baasApiKey string
	timeout    time.Duration
	log        *slog.Logger
}

type Client interface {
	RunAsync(ctx context.Context, baasRequest dto.Config) (*dto.BrowserMessageOut, func(), error)
	Message(ctx context.Context, message dto.BrowserMessageIn) (*dto.BrowserMessageOut, error)
}

func NewClient(baasURL, baasKey string, timeout time.Duration, log *slog.Logger) Client {
	return &baasClient{
		baasURL:    strings.TrimSuffix(baasURL, "/"),
		baasApiKey: baasKey,
		timeout:    timeout,
		log:        log,
	}
}

func (o *baasClient) runClient(ctx context.Context, headers map[string]string, endpoint string, timeout string, body any) (*http.Response, error) {
	timeoutDuration := o.timeout
	if dur, err := time.ParseDuration(timeout); err == nil {
		timeoutDuration = dur
	}

	client := &http.Client{Timeout: timeoutDuration}

	baasURL := fmt.Sprintf("%s%s", o.baasURL, endpoint)

	reqBodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal baas request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baasURL, bytes.NewBuffer(reqBodyBytes))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to init request to %s", endpoint)
	}
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", o.baasApiKey))
	req.Header.Add("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Add(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to call %s", endpoint)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, errors.Errorf("failed to call %s: status code %d: %s", endpoint, resp.StatusCode, string(readBytes(resp.Body)))
	}
	return resp, nil
}

func (o *baasClient) Message(ctx context.Context, msg dto.BrowserMessageIn) (*dto.BrowserMessageOut, error) {
	// generate random request ID
	msg.RequestID = lo.RandomString(10, lo.LowerCaseLettersCharset)
	o.log.Debug("sending baas message", "message", msg.Sanitized())

	resp, err := o.runClient(ctx, map[string]string{}, "/api/async/message", msg.Timeout, msg)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to make baas request")
	}
	defer resp.Body.Close()

	baasResponseObjects, err := decodeMessages(readBytes(resp.Body))
	if err != nil {
		return nil, err
	}

	baasResponse, found := lo.Find(baasResponseObjects, func(msgOut dto.BrowserMessageOut) bool {
		return msg.RequestID == msgOut.RequestID
	})
	if !found {
		return nil, errors.Errorf("failed to find message with the same RequestID: %q", msg.RequestID)
	}

	if lo.FromPtr(baasResponse.Meta.Error) != "" {
		return nil, errors.Errorf("baas returned error: %s, baas RequestUID: %q", lo.FromPtr(baasResponse.Meta.Error), baasResponse.Meta.RequestUID)
	}
	return &baasResponse, nil
}

// decodeMessages reads one or more newline separated response objects.
func decodeMessages(respBytes []byte) ([]dto.BrowserMessageOut, error) {
	body := strings.TrimSpace(string(respBytes))
	body = strings.ReplaceAll(body, "}\n{", "},\n{")

	var out []dto.BrowserMessageOut
	if err := json.Unmarshal([]byte("["+body+"]"), &out); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal baas response: %s", body)
	}
	return out, nil
}

func (o *baasClient) RunAsync(ctx context.Context, baasRequest dto.Config) (*dto.BrowserMessageOut, func(), error) {
	// The stream lives as long as the session, so only ctx bounds it.
	resp, err := o.runClient(ctx, map[string]string{
		"Accept": "text/event-stream",
	}, "/api/async/start", "0s", baasRequest)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to make baas request")
	}
	var baasResponse dto.BrowserMessageOut

	reader := bufio.NewReader(resp.Body)

	line, err := reader.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		resp.Body.Close()
		return nil, nil, errors.Wrapf(err, "error reading response")
	}

	line = strings.TrimSpace(line)
	err = json.Unmarshal([]byte(line), &baasResponse)
	if err != nil {
		resp.Body.Close()
		return nil, nil, errors.Wrapf(err, "failed to unmarshal baas response: %s", line)
	}
	if lo.FromPtr(baasResponse.Meta.Error) != "" {
		resp.Body.Close()
		return nil, nil, errors.Errorf("baas returned error: %s, baas RequestUID: %q", lo.FromPtr(baasResponse.Meta.Error), baasResponse.Meta.RequestUID)
	}
	o.log.Debug("baas session started", "sessionID", baasResponse.SessionID)
	return &baasResponse, func() {
		for {
			line, err := reader.ReadString('\n')
			if strings.TrimSpace(line) != "" {
				o.log.Debug("baas session event", "event", strings.TrimSpace(line))
			}
			if err != nil {
				break
			}
		}
		resp.Body.Close()
	}, nil
}

func readBytes(stream io.Reader) []byte {
	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(stream)
	return buf.Bytes()
}
