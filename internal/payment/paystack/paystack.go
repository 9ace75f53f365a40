package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	ErrConfigInvalid    = errors.New("paystack config invalid")
	ErrRequestFailed    = errors.New("paystack request failed")
	ErrResponseInvalid  = errors.New("paystack response invalid")
	ErrSignatureInvalid = errors.New("paystack signature invalid")
	ErrGatewayDeclined  = errors.New("paystack transaction not successful")
)

// 交易状态常量
const (
	ChargeSuccess   = "success"
	ChargeFailed    = "failed"
	ChargeAbandoned = "abandoned"
)

const defaultBaseURL = "https://api.paystack.co"

const defaultTimeout = 20 * time.Second

// Config Paystack 配置
type Config struct {
	BaseURL     string `json:"base_url"`     // 网关地址，默认 https://api.paystack.co
	SecretKey   string `json:"secret_key"`   // sk_ 开头的私钥
	CallbackURL string `json:"callback_url"` // 同步跳转地址
	Timeout     time.Duration
}

// Client Paystack REST 客户端
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// InitializeInput 初始化交易输入
type InitializeInput struct {
	Email       string
	AmountMinor int64  // 最小货币单位金额（kobo）
	Currency    string
	Reference   string
	CallbackURL string
}

// InitializeResult 初始化交易结果
type InitializeResult struct {
	AuthorizationURL string                 // 收银台地址
	AccessCode       string                 // 收银台访问码
	Reference        string                 // 交易引用
	Raw              map[string]interface{} // 原始响应
}

// VerifyResult 交易核验结果
type VerifyResult struct {
	Status          string                 // success / failed / abandoned
	Reference       string                 // 交易引用
	AmountMinor     int64                  // 实付金额（kobo）
	Currency        string                 // 币种
	Channel         string                 // 支付渠道
	GatewayResponse string                 // 网关应答文本
	PaidAt          string                 // 支付时间（网关原文）
	Raw             map[string]interface{} // 原始响应
}

// WebhookEvent 网关推送事件
type WebhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference       string `json:"reference"`
		Status          string `json:"status"`
		Amount          int64  `json:"amount"`
		Currency        string `json:"currency"`
		Channel         string `json:"channel"`
		GatewayResponse string `json:"gateway_response"`
		PaidAt          string `json:"paid_at"`
	} `json:"data"`
}

// NewClient 创建客户端
func NewClient(cfg Config) (*Client, error) {
	cfg.normalize()
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("%w: secret_key is required", ErrConfigInvalid)
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (c *Config) normalize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	c.SecretKey = strings.TrimSpace(c.SecretKey)
	c.CallbackURL = strings.TrimSpace(c.CallbackURL)
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// Initialize 初始化交易，返回收银台地址
func (c *Client) Initialize(ctx context.Context, input InitializeInput) (*InitializeResult, error) {
	if input.Email == "" || input.AmountMinor <= 0 || input.Reference == "" {
		return nil, fmt.Errorf("%w: email, amount and reference are required", ErrConfigInvalid)
	}

	callbackURL := input.CallbackURL
	if callbackURL == "" {
		callbackURL = c.cfg.CallbackURL
	}
	currency := input.Currency
	if currency == "" {
		currency = "NGN"
	}

	params := map[string]interface{}{
		"email":     input.Email,
		"amount":    input.AmountMinor,
		"currency":  currency,
		"reference": input.Reference,
	}
	if callbackURL != "" {
		params["callback_url"] = callbackURL
	}

	respBytes, err := c.do(ctx, http.MethodPost, "/transaction/initialize", params)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
		Data    struct {
			AuthorizationURL string `json:"authorization_url"`
			AccessCode       string `json:"access_code"`
			Reference        string `json:"reference"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if !resp.Status {
		return nil, fmt.Errorf("%w: %s", ErrRequestFailed, resp.Message)
	}
	if resp.Data.AuthorizationURL == "" {
		return nil, fmt.Errorf("%w: missing authorization_url", ErrResponseInvalid)
	}

	var raw map[string]interface{}
	_ = json.Unmarshal(respBytes, &raw)

	return &InitializeResult{
		AuthorizationURL: resp.Data.AuthorizationURL,
		AccessCode:       resp.Data.AccessCode,
		Reference:        resp.Data.Reference,
		Raw:              raw,
	}, nil
}

// Verify 核验交易状态
func (c *Client) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, fmt.Errorf("%w: reference is required", ErrConfigInvalid)
	}

	respBytes, err := c.do(ctx, http.MethodGet, "/transaction/verify/"+reference, nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
		Data    struct {
			Status          string `json:"status"`
			Reference       string `json:"reference"`
			Amount          int64  `json:"amount"`
			Currency        string `json:"currency"`
			Channel         string `json:"channel"`
			GatewayResponse string `json:"gateway_response"`
			PaidAt          string `json:"paid_at"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if !resp.Status {
		return nil, fmt.Errorf("%w: %s", ErrRequestFailed, resp.Message)
	}

	var raw map[string]interface{}
	_ = json.Unmarshal(respBytes, &raw)

	return &VerifyResult{
		Status:          resp.Data.Status,
		Reference:       resp.Data.Reference,
		AmountMinor:     resp.Data.Amount,
		Currency:        resp.Data.Currency,
		Channel:         resp.Data.Channel,
		GatewayResponse: resp.Data.GatewayResponse,
		PaidAt:          resp.Data.PaidAt,
		Raw:             raw,
	}, nil
}

// VerifySignature 校验 webhook 签名（HMAC-SHA512 over raw body）
func (c *Client) VerifySignature(body []byte, signature string) error {
	return VerifySignature(c.cfg.SecretKey, body, signature)
}

// VerifySignature 校验 webhook 签名
func VerifySignature(secretKey string, body []byte, signature string) error {
	signature = strings.TrimSpace(signature)
	if secretKey == "" {
		return ErrConfigInvalid
	}
	if signature == "" {
		return ErrSignatureInvalid
	}
	mac := hmac.New(sha512.New, []byte(secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrSignatureInvalid
	}
	return nil
}

// ParseWebhook 解析 webhook 事件
func ParseWebhook(body []byte) (*WebhookEvent, error) {
	if len(body) == 0 {
		return nil, ErrResponseInvalid
	}
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	return &event, nil
}

func (c *Client) do(ctx context.Context, method, path string, params map[string]interface{}) ([]byte, error) {
	var reader io.Reader
	if params != nil {
		body, err := json.Marshal(params)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: http status %d: %s", ErrRequestFailed, resp.StatusCode, extractErrorDetail(respBytes))
	}
	return respBytes, nil
}

// extractErrorDetail 提取网关错误信息文本，按 message、error、code、meta.reason 顺序取第一个非空字段
func extractErrorDetail(body []byte) string {
	var resp struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Code    string `json:"code"`
		Meta    struct {
			Reason string `json:"reason"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(body, &resp); err == nil {
		for _, detail := range []string{resp.Message, resp.Error, resp.Code, resp.Meta.Reason} {
			if detail != "" {
				return detail
			}
		}
	}
	detail := strings.TrimSpace(string(body))
	if len(detail) > 200 {
		detail = detail[:200]
	}
	return detail
}
