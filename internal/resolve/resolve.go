package resolve

import (
	"context"
	"log"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/jvillarreal-dev/filmatch/internal/domain"
	"github.com/jvillarreal-dev/filmatch/internal/selector"
)

// DefaultLimit 是并发闸门的缺省容量（同时在途的条目任务上限）。
const DefaultLimit = 5

// Searcher 是查找客户端的最小接口（流水线测试用替身实现）。
type Searcher interface {
	Search(ctx context.Context, term string) ([]domain.CandidateMatch, error)
}

// Translator 是翻译客户端的最小接口。Translate 永不失败（失败降级为原文）。
type Translator interface {
	Translate(ctx context.Context, text, source, target string) string
}

// Pipeline 驱动一次解析流水线：对每个条目并发执行
// “查找 →（为空则翻译后二次查找）→ 裁决”，并聚合三个结果集。
//
// 约束：
// - 每个条目任务先获取并发闸门再开始首次查找，终态时释放（defer 保证所有退出路径）
// - 单个条目的任何失败（包括 panic）只把该条目降级为 unresolved，不影响其余任务
// - 三个结果集并发安全追加；Run 返回前已 join 全部任务，返回值可安全只读
type Pipeline struct {
	Lookup Searcher
	Trans  Translator

	SourceLang string
	TargetLang string

	// Limit 是并发闸门容量；<=0 时取 DefaultLimit。
	Limit int64
}

// Run 并发解析全部条目，等所有任务到达终态后返回聚合结果。
func (p *Pipeline) Run(ctx context.Context, entries []domain.TitleEntry) domain.Result {
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	sem := semaphore.NewWeighted(limit)

	var (
		resolved   bag[domain.ResolvedMovie]
		unresolved bag[string]
		ambiguous  bag[string]
		wg         sync.WaitGroup
	)

	for _, e := range entries {
		wg.Add(1)
		go func(entry domain.TitleEntry) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[resolve] 条目 %q 的任务发生 panic（降级为 unresolved）：%v", entry, r)
					unresolved.append(string(entry))
				}
			}()

			if err := sem.Acquire(ctx, 1); err != nil {
				log.Printf("[resolve] 条目 %q 未能获得并发闸门：%v", entry, err)
				unresolved.append(string(entry))
				return
			}
			defer sem.Release(1)

			p.resolveOne(ctx, entry, &resolved, &unresolved, &ambiguous)
		}(e)
	}
	wg.Wait()

	return domain.Result{
		Resolved:   resolved.drain(),
		Unresolved: unresolved.drain(),
		Ambiguous:  ambiguous.drain(),
	}
}

// resolveOne 执行单个条目的状态机：Lookup1 → TranslateAttempt → Lookup2 → Select。
// 翻译结果与原文（大小写不敏感）相同则跳过二次查找。
func (p *Pipeline) resolveOne(ctx context.Context, entry domain.TitleEntry, resolved *bag[domain.ResolvedMovie], unresolved, ambiguous *bag[string]) {
	term := string(entry)

	cands := p.search(ctx, term)
	if len(cands) == 0 {
		translated := p.Trans.Translate(ctx, term, p.SourceLang, p.TargetLang)
		if !strings.EqualFold(translated, term) {
			log.Printf("[resolve] %q 首次查找为空，改用翻译 %q 重试", term, translated)
			cands = p.search(ctx, translated)
		}
	}

	pick, outcome := selector.Decide(cands)
	switch outcome {
	case selector.None:
		log.Printf("[resolve] 未找到匹配：%q", term)
		unresolved.append(term)
	case selector.Single:
		resolved.append(domain.NewResolvedMovie(pick))
	case selector.Ambiguous:
		log.Printf("[resolve] %q 命中 %d 个候选，采纳流行度最高者并标注 ambiguous", term, len(cands))
		resolved.append(domain.NewResolvedMovie(pick))
		ambiguous.append(term)
	}
}

// search 把查找错误就地降级为空结果（错误只记录，不跨任务边界传播）。
func (p *Pipeline) search(ctx context.Context, term string) []domain.CandidateMatch {
	cands, err := p.Lookup.Search(ctx, term)
	if err != nil {
		log.Printf("[lookup] 查询 %q 失败：%v", term, err)
		return nil
	}
	return cands
}

// bag 是并发安全的 append-only 集合：任务期间只允许 append，
// 全部任务 join 之后由 drain 一次性读出。
type bag[T any] struct {
	mu    sync.Mutex
	items []T
}

func (b *bag[T]) append(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, v)
}

func (b *bag[T]) drain() []T {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.items
	b.items = nil
	return out
}
