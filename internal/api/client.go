package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/betbot/botdash/internal/domain"
)

var log = logrus.WithField("module", "api")

// Client issues JSON requests against one base URL.
// No retry and no backoff: the next poll tick is the retry.
type Client struct {
	client *resty.Client
}

// NewClient base URL is fixed for the life of the client. timeout <= 0 keeps the transport default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	baseURL = strings.TrimRight(baseURL, "/")

	client := resty.New().
		SetBaseURL(baseURL).
		SetRetryCount(0).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "botdash")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &Client{client: client}
}

// Get decodes the response body into out (nil to discard).
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post sends body as JSON.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Put sends body as JSON.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	req := c.client.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		log.WithFields(logrus.Fields{"method": method, "path": path}).Debugf("request failed: %v", err)
		return &Error{Kind: KindNetwork, Method: method, Path: path, Message: err.Error(), cause: err}
	}

	raw := resp.Body()
	if !resp.IsSuccess() {
		return &Error{
			Kind:    KindHTTP,
			Status:  resp.StatusCode(),
			Method:  method,
			Path:    path,
			Message: bodyMessage(raw),
		}
	}

	// HTTP 200 也可能是业务失败
	if gjson.GetBytes(raw, "status").String() == string(domain.StatusError) {
		return &Error{
			Kind:    KindApplication,
			Status:  resp.StatusCode(),
			Method:  method,
			Path:    path,
			Message: bodyMessage(raw),
		}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{
			Kind:    KindApplication,
			Status:  resp.StatusCode(),
			Method:  method,
			Path:    path,
			Message: "invalid response body: " + err.Error(),
			cause:   err,
		}
	}
	return nil
}

func bodyMessage(raw []byte) string {
	if !gjson.ValidBytes(raw) {
		return GenericMessage
	}
	if msg := gjson.GetBytes(raw, "message"); msg.Exists() && msg.String() != "" {
		return msg.String()
	}
	return GenericMessage
}
