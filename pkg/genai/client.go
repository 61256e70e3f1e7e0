package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/matzehuels/photostudio/pkg/errors"
	"github.com/matzehuels/photostudio/pkg/httputil"
	"github.com/matzehuels/photostudio/pkg/observability"
)

// Defaults for the Gemini REST API.
const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.5-flash-image"
	DefaultTimeout = 120 * time.Second
)

// maxResponseBytes bounds a single response body (4K images inline as
// base64 are large).
const maxResponseBytes = 64 << 20

// Client calls the Gemini generateContent endpoint.
type Client struct {
	http    *http.Client
	baseURL string
	model   string
	apiKey  string
	limiter *rate.Limiter
	retry   httputil.Policy
	logger  *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithBaseURL points the client at another endpoint, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithModel selects the model.
func WithModel(m string) Option {
	return func(c *Client) { c.model = m }
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithRateLimit allows perMinute requests per minute with a burst of one.
// Zero disables limiting.
func WithRateLimit(perMinute int) Option {
	return func(c *Client) {
		if perMinute <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
	}
}

// WithRetryPolicy replaces the retry policy.
func WithRetryPolicy(p httputil.Policy) Option {
	return func(c *Client) { c.retry = p }
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client authenticated with apiKey.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeUnauthorized, "GEMINI_API_KEY is not set")
	}
	c := &Client{
		http:    &http.Client{Timeout: DefaultTimeout},
		baseURL: DefaultBaseURL,
		model:   DefaultModel,
		apiKey:  apiKey,
		retry:   httputil.DefaultPolicy,
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Edit sends one image with its instruction.
func (c *Client) Edit(ctx context.Context, req EditRequest) (*Image, error) {
	if len(req.Image.Data) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidImage, "no image to edit")
	}
	instruction := req.Instruction
	if instruction == "" {
		var err error
		if instruction, err = req.Mode.Instruction(""); err != nil {
			return nil, err
		}
	}
	return c.generate(ctx, string(req.Mode), []part{inline(req.Image), {Text: instruction}})
}

// Merge sends both portraits with the fixed merge instruction.
func (c *Client) Merge(ctx context.Context, req MergeRequest) (*Image, error) {
	if len(req.First.Data) == 0 || len(req.Second.Data) == 0 {
		return nil, errors.New(errors.ErrCodeMergeIncomplete, "merge needs two photos")
	}
	return c.generate(ctx, "merge", []part{inline(req.First), inline(req.Second), {Text: MergePrompt}})
}

func (c *Client) generate(ctx context.Context, op string, parts []part) (*Image, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.Wrap(errors.ErrCodeRateLimited, err, "waiting for request slot")
		}
	}

	body, err := json.Marshal(generateRequest{Contents: []content{{Parts: parts}}})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode request")
	}

	start := time.Now()
	var resp generateResponse
	err = httputil.Retry(ctx, c.retry, func() error {
		resp = generateResponse{}
		return c.post(ctx, body, &resp)
	})
	c.logger.Debug("gemini request", "op", op, "model", c.model, "duration", time.Since(start).Round(time.Millisecond), "error", err)
	if err != nil {
		return nil, classify(ctx, err)
	}
	return resp.firstImage()
}

func (c *Client) post(ctx context.Context, body []byte, out *generateResponse) error {
	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, req.URL.Host, req.URL.Path)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, req.URL.Host, req.URL.Path, err)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &httputil.RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "gemini request failed")}
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &httputil.RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "read gemini response")}
	}
	if err := checkStatus(resp, data); err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrap(errors.ErrCodeServiceFailure, err, "decode gemini response")
	}
	return nil
}

func checkStatus(resp *http.Response, body []byte) error {
	code := resp.StatusCode
	if code == http.StatusOK {
		return nil
	}
	msg := apiErrorMessage(body)
	switch {
	case code == http.StatusTooManyRequests:
		secs, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return &httputil.RetryableError{
			Err:   &errors.RateLimitedError{RetryAfter: secs, Message: msg},
			After: time.Duration(secs) * time.Second,
		}
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return errors.New(errors.ErrCodeUnauthorized, "gemini rejected the API key: %s", msg)
	case code >= 500:
		return &httputil.RetryableError{Err: errors.New(errors.ErrCodeServiceFailure, "gemini status %d: %s", code, msg)}
	default:
		return errors.New(errors.ErrCodeServiceFailure, "gemini status %d: %s", code, msg)
	}
}

// classify maps transport errors to the error taxonomy.
func classify(ctx context.Context, err error) error {
	var rl *errors.RateLimitedError
	switch {
	case ctx.Err() == context.DeadlineExceeded:
		return errors.Wrap(errors.ErrCodeTimeout, err, "AI service timed out")
	case ctx.Err() != nil:
		return errors.Wrap(errors.ErrCodeServiceFailure, err, "AI request cancelled")
	case stderrors.As(err, &rl):
		return errors.Wrap(errors.ErrCodeRateLimited, rl, "AI service is rate limiting requests")
	case errors.GetCode(err) != "":
		return err
	default:
		return errors.Wrap(errors.ErrCodeServiceFailure, err, "AI request failed")
	}
}

func apiErrorMessage(body []byte) string {
	var e struct {
		Error struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason,omitempty"`
	} `json:"candidates"`
}

func inline(img Image) part {
	mime := img.MimeType
	if mime == "" {
		mime = "image/png"
	}
	return part{InlineData: &inlineData{MimeType: mime, Data: base64.StdEncoding.EncodeToString(img.Data)}}
}

// firstImage returns the first inline image of the first candidate, or nil.
func (r generateResponse) firstImage() (*Image, error) {
	if len(r.Candidates) == 0 {
		return nil, nil
	}
	for _, p := range r.Candidates[0].Content.Parts {
		if p.InlineData == nil {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeServiceFailure, err, "decode returned image")
		}
		return &Image{MimeType: p.InlineData.MimeType, Data: data}, nil
	}
	return nil, nil
}

var _ Service = (*Client)(nil)
