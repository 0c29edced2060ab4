package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jvillarreal-dev/filmatch/internal/domain"
)

// defaultTimeout 是单次查询的超时。挂死的查询不允许长期占住并发闸门。
const defaultTimeout = 15 * time.Second

// YearAny 表示查询词中没有年份约束（接受任意年份的候选）。
const YearAny = 0

var yearRE = regexp.MustCompile(`\((\d{4})\)`)

// Client 以单个查询词访问元数据查找服务，并对原始结果做过滤与排序。
//
// 约束：
// - 一次 Search 恰好一个 GET 请求；不做重试（查不到由上层的翻译重试路径兜底）
// - 过滤与排序是纯函数，便于独立测试
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client

	// Timeout 覆盖单次请求的超时；<=0 时取 defaultTimeout。
	Timeout time.Duration
}

// HTTPStatusError 表示查找服务返回了非 2xx 的 HTTP 状态码。
type HTTPStatusError struct {
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// TargetYear 从查询词中提取目标年份（取最后一个括号年份）；
// 没有匹配则返回 YearAny。
func TargetYear(term string) int {
	m := yearRE.FindAllStringSubmatch(term, -1)
	if len(m) == 0 {
		return YearAny
	}
	y, err := strconv.Atoi(m[len(m)-1][1])
	if err != nil {
		return YearAny
	}
	return y
}

// Search 查询 term 并返回过滤、按流行度降序排序后的候选列表（可能为空）。
func (c *Client) Search(ctx context.Context, term string) ([]domain.CandidateMatch, error) {
	if c.HTTP == nil {
		return nil, errors.New("http client 不能为空")
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	u := strings.TrimRight(c.BaseURL, "/") + "/lookup?term=" + url.QueryEscape(term) +
		"&apiKey=" + url.QueryEscape(c.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode}
	}

	var raw []domain.CandidateMatch
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}

	out := filterCandidates(raw, TargetYear(term))
	sortByPopularity(out)
	return out, nil
}

// filterCandidates 只保留“有标识且年份命中”的候选：
// - imdbId 或 tmdbId 至少有一个非空（两者皆缺的候选无条件剔除）
// - 年份命中：主年份或次年份等于 target；target==YearAny 时不限
func filterCandidates(in []domain.CandidateMatch, target int) []domain.CandidateMatch {
	out := make([]domain.CandidateMatch, 0, len(in))
	for _, c := range in {
		if !c.HasID() {
			continue
		}
		if !yearMatches(c, target) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func yearMatches(c domain.CandidateMatch, target int) bool {
	if target == YearAny {
		return true
	}
	if c.Year == target {
		return true
	}
	return c.SecondaryYear != nil && *c.SecondaryYear == target
}

// sortByPopularity 按流行度降序稳定排序；缺失流行度视为最小值（排在最后）。
func sortByPopularity(cs []domain.CandidateMatch) {
	sort.SliceStable(cs, func(i, j int) bool {
		return popularity(cs[i]) > popularity(cs[j])
	})
}

func popularity(c domain.CandidateMatch) float64 {
	if c.Popularity == nil {
		return math.Inf(-1)
	}
	return *c.Popularity
}
