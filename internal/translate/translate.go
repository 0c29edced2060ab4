package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

const (
	// maxAttempts 是翻译请求的尝试上限（含首次）。
	maxAttempts = 3
	// requestTimeout 是单次请求（探活与翻译）的超时。
	requestTimeout = 30 * time.Second
	// baseBackoff 是指数退避的基数：第 n 次失败后等待 baseBackoff << n。
	baseBackoff = time.Second
)

// Client 访问翻译服务（LibreTranslate 兼容接口）。
//
// 约束：
// - Translate 对调用方永不失败：重试耗尽后原样返回输入
// - 重试是显式的 attempt 计数 + 指数退避（1s、2s），不依赖异常控制流
type Client struct {
	BaseURL string
	HTTP    *http.Client

	// sleep 可替换：测试用它记录退避序列而不真正等待。
	sleep func(time.Duration)
}

// New 构造翻译客户端。
func New(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		HTTP:    httpClient,
		sleep:   time.Sleep,
	}
}

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
}

// Translate 把 text 从 source 翻译到 target。
// 任何失败（含超时）都降级为返回原文；第一次尝试前做一次 best-effort 探活。
func (c *Client) Translate(ctx context.Context, text, source, target string) string {
	if err := c.probe(ctx); err != nil {
		log.Printf("[translate] 服务探活失败（继续尝试翻译）：%v", err)
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		got, err := c.attempt(ctx, text, source, target)
		if err == nil {
			return got
		}
		log.Printf("[translate] %q 第 %d/%d 次尝试失败：%v", text, attempt+1, maxAttempts, err)
		if attempt < maxAttempts-1 {
			c.sleep(baseBackoff << attempt)
		}
	}
	return text
}

// probe 对服务根路径做一次探活；失败只记录，不致命。
func (c *Client) probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) attempt(ctx context.Context, text, source, target string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	body, err := json.Marshal(translateRequest{Q: text, Source: source, Target: target, Format: "text"})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/translate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var out translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.TranslatedText) == "" {
		// 响应成功但缺少 translatedText：按约定回退原文（不算失败，不触发重试）。
		return text, nil
	}
	return out.TranslatedText, nil
}
