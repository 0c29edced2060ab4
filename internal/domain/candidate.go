package domain

import "strings"

// CandidateMatch 是查找服务返回的一条搜索结果。
// 字段与服务的 JSON 形态一一对应；返回后不可变。
//
// 约束：缺失字段允许为零值/空指针，但结构必须稳定（过滤与排序依赖它）。
type CandidateMatch struct {
	Title         string   `json:"title"`
	Year          int      `json:"year"`
	SecondaryYear *int     `json:"secondaryYear"`
	ImdbID        string   `json:"imdbId"`
	TmdbID        *int64   `json:"tmdbId"`
	Popularity    *float64 `json:"popularity"`
	Images        []Image  `json:"images"`
	RemotePoster  string   `json:"remotePoster"`
}

// Image 是候选携带的一条图片记录。
type Image struct {
	CoverType string `json:"coverType"`
	RemoteURL string `json:"remoteUrl"`
}

// HasID 判断候选是否携带至少一个非空标识（imdbId 或 tmdbId）。
// 两者都缺失的候选无法被下游导入工具消费，必须在过滤阶段剔除。
func (c CandidateMatch) HasID() bool {
	return strings.TrimSpace(c.ImdbID) != "" || c.TmdbID != nil
}

// PosterURL 解析候选的海报地址：
// 1) images 中 coverType=="poster" 且 remoteUrl 非空的第一条
// 2) 回退候选级别的 remotePoster
// 3) 都没有则返回空串
func (c CandidateMatch) PosterURL() string {
	for _, img := range c.Images {
		if strings.EqualFold(img.CoverType, "poster") && strings.TrimSpace(img.RemoteURL) != "" {
			return strings.TrimSpace(img.RemoteURL)
		}
	}
	return strings.TrimSpace(c.RemotePoster)
}
