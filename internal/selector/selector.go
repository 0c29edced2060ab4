package selector

import "github.com/jvillarreal-dev/filmatch/internal/domain"

// Outcome 表示对一条标题的匹配裁决。
type Outcome int

const (
	// None 表示过滤后的候选集为空（是否终局由翻译重试路径决定）。
	None Outcome = iota
	// Single 表示恰好一个候选：直接采纳，无歧义标注。
	Single
	// Ambiguous 表示候选多于一个：自动采纳排序后的首个（流行度最高）候选，
	// 同时把原条目标注为待人工复核。自动路径不做交互式消歧。
	Ambiguous
)

// Decide 对已排序的候选序列做裁决；序列非空时返回被采纳的首个候选。
func Decide(candidates []domain.CandidateMatch) (domain.CandidateMatch, Outcome) {
	switch len(candidates) {
	case 0:
		return domain.CandidateMatch{}, None
	case 1:
		return candidates[0], Single
	default:
		return candidates[0], Ambiguous
	}
}
