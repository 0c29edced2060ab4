package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jvillarreal-dev/filmatch/internal/domain"
)

func floatPtr(v float64) *float64 { return &v }
func int64Ptr(v int64) *int64     { return &v }

// stubSearcher 按 term 返回预置结果；并发安全，记录调用次数。
type stubSearcher struct {
	mu      sync.Mutex
	results map[string][]domain.CandidateMatch
	errs    map[string]error
	calls   map[string]int
	panicOn string
}

func (s *stubSearcher) Search(ctx context.Context, term string) ([]domain.CandidateMatch, error) {
	s.mu.Lock()
	if s.calls == nil {
		s.calls = map[string]int{}
	}
	s.calls[term]++
	s.mu.Unlock()

	if term == s.panicOn && s.panicOn != "" {
		panic("búsqueda rota")
	}
	if err, ok := s.errs[term]; ok {
		return nil, err
	}
	return s.results[term], nil
}

func (s *stubSearcher) callCount(term string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[term]
}

// stubTranslator 按映射表翻译；没有映射时原样返回（等价于翻译失败降级）。
type stubTranslator struct {
	mu      sync.Mutex
	mapping map[string]string
	calls   int32
}

func (t *stubTranslator) Translate(ctx context.Context, text, source, target string) string {
	atomic.AddInt32(&t.calls, 1)
	t.mu.Lock()
	defer t.mu.Unlock()
	if out, ok := t.mapping[text]; ok {
		return out
	}
	return text
}

func newPipeline(s Searcher, tr Translator) *Pipeline {
	return &Pipeline{Lookup: s, Trans: tr, SourceLang: "es", TargetLang: "en"}
}

func TestRun_SingleCandidateResolved(t *testing.T) {
	s := &stubSearcher{results: map[string][]domain.CandidateMatch{
		"The Matrix (1999)": {{Title: "The Matrix", Year: 1999, ImdbID: "tt0133093", TmdbID: int64Ptr(603), Popularity: floatPtr(9.0)}},
	}}
	tr := &stubTranslator{}

	res := newPipeline(s, tr).Run(context.Background(), []domain.TitleEntry{"The Matrix (1999)"})

	if len(res.Resolved) != 1 || res.Resolved[0].ImdbID != "tt0133093" || res.Resolved[0].Title != "The Matrix" {
		t.Fatalf("期望 resolved 含 tt0133093，实际 %+v", res.Resolved)
	}
	if len(res.Unresolved) != 0 || len(res.Ambiguous) != 0 {
		t.Fatalf("期望 unresolved/ambiguous 为空，实际 %v / %v", res.Unresolved, res.Ambiguous)
	}
	if got := atomic.LoadInt32(&tr.calls); got != 0 {
		t.Fatalf("首次查找命中时不应触发翻译，实际 %d 次", got)
	}
}

func TestRun_TranslateRetryPath(t *testing.T) {
	s := &stubSearcher{results: map[string][]domain.CandidateMatch{
		"The Matrix (1999)": {{Title: "The Matrix", Year: 1999, ImdbID: "tt0133093", Popularity: floatPtr(9.0)}},
	}}
	tr := &stubTranslator{mapping: map[string]string{"Matrix, La (1999)": "The Matrix (1999)"}}

	res := newPipeline(s, tr).Run(context.Background(), []domain.TitleEntry{"Matrix, La (1999)"})

	if len(res.Resolved) != 1 || res.Resolved[0].ImdbID != "tt0133093" {
		t.Fatalf("期望翻译重试后解析成功，实际 %+v", res.Resolved)
	}
	if got := atomic.LoadInt32(&tr.calls); got != 1 {
		t.Fatalf("期望恰好 1 次翻译调用，实际 %d 次", got)
	}
	if s.callCount("Matrix, La (1999)") != 1 || s.callCount("The Matrix (1999)") != 1 {
		t.Fatalf("期望原文与译文各查找 1 次，实际 %v", s.calls)
	}
}

func TestRun_TranslationIdenticalSkipsSecondLookup(t *testing.T) {
	s := &stubSearcher{}
	tr := &stubTranslator{mapping: map[string]string{"Tesis (1996)": "TESIS (1996)"}}

	res := newPipeline(s, tr).Run(context.Background(), []domain.TitleEntry{"Tesis (1996)"})

	if len(res.Unresolved) != 1 || res.Unresolved[0] != "Tesis (1996)" {
		t.Fatalf("期望条目进入 unresolved，实际 %v", res.Unresolved)
	}
	// 译文与原文大小写不敏感相同：不允许二次查找。
	if s.callCount("TESIS (1996)") != 0 {
		t.Fatalf("不期望用译文二次查找，实际调用 %v", s.calls)
	}
}

func TestRun_AmbiguousKeepsTopAndFlags(t *testing.T) {
	s := &stubSearcher{results: map[string][]domain.CandidateMatch{
		"Abre los ojos (1997)": {
			{Title: "Abre los ojos", Year: 1997, ImdbID: "tt0118929", Popularity: floatPtr(8.0)},
			{Title: "Open Your Eyes", Year: 1997, ImdbID: "tt9999999", Popularity: floatPtr(5.0)},
		},
	}}
	tr := &stubTranslator{}

	res := newPipeline(s, tr).Run(context.Background(), []domain.TitleEntry{"Abre los ojos (1997)"})

	if len(res.Resolved) != 1 || res.Resolved[0].ImdbID != "tt0118929" {
		t.Fatalf("期望采纳流行度 8.0 的候选，实际 %+v", res.Resolved)
	}
	if len(res.Ambiguous) != 1 || res.Ambiguous[0] != "Abre los ojos (1997)" {
		t.Fatalf("期望 ambiguous 记录原条目，实际 %v", res.Ambiguous)
	}
	if len(res.Unresolved) != 0 {
		t.Fatalf("期望 unresolved 为空，实际 %v", res.Unresolved)
	}
}

func TestRun_BothLookupsEmpty(t *testing.T) {
	s := &stubSearcher{}
	tr := &stubTranslator{mapping: map[string]string{"Desconocida (1950)": "Unknown (1950)"}}

	res := newPipeline(s, tr).Run(context.Background(), []domain.TitleEntry{"Desconocida (1950)"})

	if len(res.Unresolved) != 1 || res.Unresolved[0] != "Desconocida (1950)" {
		t.Fatalf("期望条目进入 unresolved，实际 %v", res.Unresolved)
	}
	if len(res.Resolved) != 0 || len(res.Ambiguous) != 0 {
		t.Fatalf("期望 resolved/ambiguous 为空，实际 %v / %v", res.Resolved, res.Ambiguous)
	}
}

func TestRun_LookupErrorDowngradesToUnresolved(t *testing.T) {
	s := &stubSearcher{errs: map[string]error{"Mala suerte (2000)": errors.New("conexión rechazada")}}
	tr := &stubTranslator{}

	res := newPipeline(s, tr).Run(context.Background(), []domain.TitleEntry{"Mala suerte (2000)"})

	if len(res.Unresolved) != 1 {
		t.Fatalf("期望查找失败降级为 unresolved，实际 %+v", res)
	}
}

func TestRun_PanicDowngradesToUnresolved(t *testing.T) {
	s := &stubSearcher{
		panicOn: "Rota (2001)",
		results: map[string][]domain.CandidateMatch{
			"Buena (2002)": {{Title: "Buena", Year: 2002, ImdbID: "tt1", Popularity: floatPtr(1.0)}},
		},
	}
	tr := &stubTranslator{}

	res := newPipeline(s, tr).Run(context.Background(), []domain.TitleEntry{"Rota (2001)", "Buena (2002)"})

	if len(res.Unresolved) != 1 || res.Unresolved[0] != "Rota (2001)" {
		t.Fatalf("期望 panic 条目进入 unresolved，实际 %v", res.Unresolved)
	}
	if len(res.Resolved) != 1 || res.Resolved[0].Title != "Buena" {
		t.Fatalf("期望兄弟任务不受影响，实际 %+v", res.Resolved)
	}
}

// gateSearcher 记录同时在途的 Search 数量峰值。
type gateSearcher struct {
	inflight int32
	max      int32
}

func (g *gateSearcher) Search(ctx context.Context, term string) ([]domain.CandidateMatch, error) {
	cur := atomic.AddInt32(&g.inflight, 1)
	for {
		old := atomic.LoadInt32(&g.max)
		if cur <= old || atomic.CompareAndSwapInt32(&g.max, old, cur) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	atomic.AddInt32(&g.inflight, -1)
	return []domain.CandidateMatch{{Title: term, ImdbID: "tt1", Popularity: floatPtr(1.0)}}, nil
}

func TestRun_ConcurrencyBound(t *testing.T) {
	g := &gateSearcher{}
	p := &Pipeline{Lookup: g, Trans: &stubTranslator{}, Limit: 5}

	entries := make([]domain.TitleEntry, 0, 40)
	for i := 0; i < 40; i++ {
		entries = append(entries, domain.TitleEntry(fmt.Sprintf("Película %02d (19%02d)", i, i+10)))
	}
	res := p.Run(context.Background(), entries)

	if got := atomic.LoadInt32(&g.max); got > 5 {
		t.Fatalf("并发闸门失效：峰值 %d > 5", got)
	}
	if len(res.Resolved) != len(entries) {
		t.Fatalf("期望全部条目解析成功，实际 %d/%d", len(res.Resolved), len(entries))
	}
}

func TestRun_DisjointSets(t *testing.T) {
	s := &stubSearcher{results: map[string][]domain.CandidateMatch{
		"Uno (1991)": {{Title: "Uno", Year: 1991, ImdbID: "tt1", Popularity: floatPtr(2.0)}},
		"Dos (1992)": {
			{Title: "Dos", Year: 1992, ImdbID: "tt2", Popularity: floatPtr(3.0)},
			{Title: "Dos bis", Year: 1992, ImdbID: "tt3", Popularity: floatPtr(1.0)},
		},
	}}
	tr := &stubTranslator{}
	entries := []domain.TitleEntry{"Uno (1991)", "Dos (1992)", "Tres (1993)"}

	res := newPipeline(s, tr).Run(context.Background(), entries)

	if len(res.Resolved)+len(res.Unresolved) != len(entries) {
		t.Fatalf("resolved+unresolved 应覆盖全部条目：%d+%d != %d", len(res.Resolved), len(res.Unresolved), len(entries))
	}
	for _, a := range res.Ambiguous {
		if strings.HasPrefix(a, "Tres") {
			t.Fatalf("ambiguous 条目必须同时产出 ResolvedMovie，实际含 %q", a)
		}
	}
	if len(res.Ambiguous) != 1 || res.Ambiguous[0] != "Dos (1992)" {
		t.Fatalf("期望 ambiguous=[Dos (1992)]，实际 %v", res.Ambiguous)
	}
}
