package extract

import (
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jvillarreal-dev/filmatch/internal/domain"
)

// entryRE 匹配“<标题> (<四位年份>)”。标题允许任意非空文本，
// 但年份括号必须收尾（避免把 "xx (1999) extra" 这类噪音误判为条目）。
var entryRE = regexp.MustCompile(`^(.+) \((\d{4})\)$`)

// Entries 从导出的 HTML 列表中提取唯一的 TitleEntry 集合。
//
// 规则：
// - 逐行（tr）扫描：行内第一个完全匹配 "<标题> (<年份>)" 的单元格（td）生效
// - 没有任何单元格匹配的行进入 skipped，由调用方决定如何告警
// - 输出去重并按字典序排序（保证跨平台运行结果稳定）
func Entries(r io.Reader) (entries []domain.TitleEntry, skipped []string, err error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, nil, err
	}

	seen := map[domain.TitleEntry]struct{}{}
	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() == 0 {
			// 表头（th）或空行：不算“格式错误”，直接忽略。
			return
		}

		found := ""
		cells.EachWithBreak(func(_ int, cell *goquery.Selection) bool {
			text := normSpace(cell.Text())
			if entryRE.MatchString(text) {
				found = text
				return false
			}
			return true
		})

		if found == "" {
			if t := normSpace(row.Text()); t != "" {
				skipped = append(skipped, t)
			}
			return
		}

		e := domain.TitleEntry(found)
		if _, ok := seen[e]; ok {
			return
		}
		seen[e] = struct{}{}
		entries = append(entries, e)
	})

	sort.Slice(entries, func(i, j int) bool { return entries[i] < entries[j] })
	return entries, skipped, nil
}

func normSpace(s string) string { return strings.Join(strings.Fields(s), " ") }
