package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/jvillarreal-dev/filmatch/internal/domain"
	"github.com/jvillarreal-dev/filmatch/internal/infra/fsx"
)

const (
	resolvedName   = "movies.json"
	unresolvedName = "unresolved.txt"
	ambiguousName  = "ambiguous.txt"
)

// Paths 记录三个产物最终落盘的位置（供日志与测试使用）。
type Paths struct {
	Resolved   string
	Unresolved string
	Ambiguous  string
}

// Write 把三个结果集写入 dir（不存在则创建）。
//
// 约束：
// - 文件名冲突时在扩展名前追加 _1、_2、…（绝不覆盖已有文件）
// - resolved 输出为 pretty JSON 数组；另两个是按行分隔的纯文本
// - 写入前排序，保证跨运行产物稳定可 diff
// - 写入采用“临时文件 + rename”
func Write(dir string, res domain.Result) (Paths, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Paths{}, err
	}

	// 非 nil 切片：resolved 为空时也要输出 "[]" 而不是 "null"。
	movies := make([]domain.ResolvedMovie, 0, len(res.Resolved))
	movies = append(movies, res.Resolved...)
	sort.Slice(movies, func(i, j int) bool { return movies[i].Title < movies[j].Title })

	b, err := json.MarshalIndent(movies, "", "  ")
	if err != nil {
		return Paths{}, err
	}
	b = append(b, '\n')

	var paths Paths
	if paths.Resolved, err = writeUnique(dir, resolvedName, b); err != nil {
		return Paths{}, err
	}
	if paths.Unresolved, err = writeUnique(dir, unresolvedName, lines(res.Unresolved)); err != nil {
		return Paths{}, err
	}
	if paths.Ambiguous, err = writeUnique(dir, ambiguousName, lines(res.Ambiguous)); err != nil {
		return Paths{}, err
	}
	return paths, nil
}

func writeUnique(dir, name string, data []byte) (string, error) {
	p, err := fsx.UniquePath(dir, name)
	if err != nil {
		return "", err
	}
	if err := fsx.WriteFileAtomic(filepath.Dir(p), filepath.Base(p), data); err != nil {
		return "", err
	}
	return p, nil
}

func lines(ss []string) []byte {
	sorted := append([]string(nil), ss...)
	sort.Strings(sorted)

	var b bytes.Buffer
	for _, s := range sorted {
		b.WriteString(s)
		b.WriteByte('\n')
	}
	return b.Bytes()
}
