// Package backend implementa o cliente resiliente de serviços upstream:
// composição de URL, repasse de headers, timeout por chamada, retry opcional
// com backoff exponencial e mapeamento de erro para a taxonomia do gateway.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultTimeout = 10 * time.Second

// Client fala com um serviço upstream nomeado. Stateless por chamada; o
// *http.Client (pool de conexões) é compartilhado entre requests e nunca
// fechado no meio de um.
type Client struct {
	// Name identifica o serviço em logs, headers e mensagens de erro.
	Name    string
	BaseURL string

	HTTPClient *http.Client
	Logger     *slog.Logger

	// Timeout por chamada (conexão+leitura). Sobrescrevível com WithTimeout.
	Timeout time.Duration
	// Retries é o número de novas tentativas após falha de transporte.
	// 0 = sem retry (padrão). Erros HTTP do backend nunca são retentados.
	Retries int
	// BackoffFactor é a base do backoff exponencial entre tentativas:
	// espera = BackoffFactor * 2^(tentativa-1).
	BackoffFactor time.Duration
}

func NewClient(name, baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		Name:          name,
		BaseURL:       strings.TrimRight(baseURL, "/"),
		HTTPClient:    httpClient,
		Logger:        logger.With("component", "backend", "service", name),
		Timeout:       defaultTimeout,
		BackoffFactor: 500 * time.Millisecond,
	}
}

// Result é o desfecho bem-sucedido de uma chamada: status 2xx e payload
// JSON bruto. Uma chamada produz exatamente um Result ou um erro
// classificado, nunca os dois.
type Result struct {
	Status  int
	Payload json.RawMessage
}

// Decode desserializa o payload em v.
func (r *Result) Decode(v any) error {
	return json.Unmarshal(r.Payload, v)
}

type callConfig struct {
	query   url.Values
	body    []byte
	headers http.Header
	timeout time.Duration
	forward *http.Request
}

type CallOption func(*callConfig)

// WithQuery anexa query string à URL do backend.
func WithQuery(q url.Values) CallOption {
	return func(c *callConfig) { c.query = q }
}

// WithJSONBody serializa v como corpo JSON.
func WithJSONBody(v any) CallOption {
	return func(c *callConfig) {
		b, err := json.Marshal(v)
		if err == nil {
			c.body = b
		}
	}
}

// WithRawBody repassa um corpo já serializado.
func WithRawBody(b []byte) CallOption {
	return func(c *callConfig) { c.body = b }
}

// WithTimeout sobrescreve o timeout da chamada.
func WithTimeout(d time.Duration) CallOption {
	return func(c *callConfig) { c.timeout = d }
}

// WithForward repassa Authorization e X-Request-ID do request de entrada.
func WithForward(r *http.Request) CallOption {
	return func(c *callConfig) { c.forward = r }
}

// Do executa method path contra o backend e devolve o payload decodificável
// ou um *Error classificado (ver errors.go).
func (c *Client) Do(ctx context.Context, method, path string, opts ...CallOption) (*Result, error) {
	cfg := callConfig{timeout: c.Timeout, headers: http.Header{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.timeout <= 0 {
		cfg.timeout = defaultTimeout
	}

	target := c.BaseURL + "/" + strings.TrimLeft(path, "/")
	if len(cfg.query) > 0 {
		target += "?" + cfg.query.Encode()
	}

	headers := c.outboundHeaders(&cfg)

	attempts := c.Retries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	start := time.Now()

	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := c.doOnce(ctx, method, target, headers, &cfg)
		if err == nil {
			c.Logger.Info("backend call completed",
				"method", method,
				"path", path,
				"status", result.Status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", headers.Get("X-Request-ID"))
			return result, nil
		}

		// só falha de transporte é retentável; erro HTTP classificado sai
		// imediatamente
		var backendErr *Error
		retryable := asTransportError(err, &backendErr)
		if !retryable || attempt == attempts {
			c.Logger.Error("backend call failed",
				"method", method,
				"path", path,
				"attempts", attempt,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", headers.Get("X-Request-ID"),
				"error", err)
			return nil, err
		}

		lastErr = err
		backoff := c.BackoffFactor * (1 << (attempt - 1))
		c.Logger.Warn("backend call failed, retrying",
			"method", method,
			"path", path,
			"attempt", attempt,
			"backoff", backoff,
			"error", err)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, &Error{
				Service: c.Name,
				Kind:    KindServiceUnavailable,
				Detail:  fmt.Sprintf("%s service unavailable: %v", c.Name, ctx.Err()),
			}
		}
	}

	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, method, target string, headers http.Header, cfg *callConfig) (*Result, error) {
	callCtx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	var bodyReader io.Reader
	if cfg.body != nil {
		bodyReader = bytes.NewReader(cfg.body)
	}

	req, err := http.NewRequestWithContext(callCtx, method, target, bodyReader)
	if err != nil {
		return nil, &Error{
			Service: c.Name,
			Kind:    KindServiceUnavailable,
			Detail:  fmt.Sprintf("%s service unavailable: %v", c.Name, err),
		}
	}
	req.Header = headers.Clone()

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &Error{
			Service: c.Name,
			Kind:    KindServiceUnavailable,
			Detail:  fmt.Sprintf("%s service unavailable: %v", c.Name, err),
		}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classifyStatus(c.Name, resp.StatusCode, resp.Body)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{
			Service: c.Name,
			Kind:    KindDecode,
			Status:  resp.StatusCode,
			Detail:  fmt.Sprintf("invalid response from %s service", c.Name),
		}
	}
	if len(payload) > 0 && !json.Valid(payload) {
		return nil, &Error{
			Service: c.Name,
			Kind:    KindDecode,
			Status:  resp.StatusCode,
			Detail:  fmt.Sprintf("invalid response from %s service", c.Name),
		}
	}

	return &Result{Status: resp.StatusCode, Payload: payload}, nil
}

// outboundHeaders monta os headers repassados ao backend: Authorization e
// X-Request-ID do request original (gerando ID se ausente) e o identificador
// do cliente.
func (c *Client) outboundHeaders(cfg *callConfig) http.Header {
	headers := http.Header{}

	requestID := ""
	if cfg.forward != nil {
		if auth := cfg.forward.Header.Get("Authorization"); auth != "" {
			headers.Set("Authorization", auth)
		}
		requestID = cfg.forward.Header.Get("X-Request-ID")
	}
	if requestID == "" {
		requestID = uuid.New().String()
	}
	headers.Set("X-Request-ID", requestID)
	headers.Set("X-Service-Client", c.Name)

	if cfg.body != nil {
		headers.Set("Content-Type", "application/json")
	}

	for k, vs := range cfg.headers {
		for _, v := range vs {
			headers.Add(k, v)
		}
	}
	return headers
}

func asTransportError(err error, target **Error) bool {
	if e, ok := err.(*Error); ok {
		*target = e
		return e.Kind == KindServiceUnavailable
	}
	return false
}
