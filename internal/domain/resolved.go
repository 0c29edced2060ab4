package domain

// ResolvedMovie 是写入 movies.json 的输出投影。
// JSON 字段名是对外稳定契约（下游导入工具按该形态消费），不要改动。
type ResolvedMovie struct {
	Title     string `json:"Title"`
	PosterURL string `json:"Poster_url"`
	ImdbID    string `json:"Imdb_id"`
	TmdbID    int64  `json:"Tmdb_id"`
}

// NewResolvedMovie 把被选中的候选投影为输出形态。
// 每个成功解析的条目恰好调用一次。
func NewResolvedMovie(c CandidateMatch) ResolvedMovie {
	var tmdbID int64
	if c.TmdbID != nil {
		tmdbID = *c.TmdbID
	}
	return ResolvedMovie{
		Title:     c.Title,
		PosterURL: c.PosterURL(),
		ImdbID:    c.ImdbID,
		TmdbID:    tmdbID,
	}
}
