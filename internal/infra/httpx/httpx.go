package httpx

import (
	"net/http"
	"time"
)

// New 构造查找与翻译两个客户端共用的 HTTP client。
//
// 说明：
// - 连接池全程共享（两个协作方通常是本地服务，连接复用即可，不需要 UA 池/代理策略）
// - 不设置整体 Timeout：单次请求的超时由调用方用 context 控制
//   （查找 15s、翻译 30s 各不相同，不能在 client 层一刀切）
func New() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 8,
			IdleConnTimeout:     60 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}
