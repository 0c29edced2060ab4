package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/jvillarreal-dev/filmatch/internal/config"
	"github.com/jvillarreal-dev/filmatch/internal/extract"
	"github.com/jvillarreal-dev/filmatch/internal/infra/httpx"
	"github.com/jvillarreal-dev/filmatch/internal/lookup"
	"github.com/jvillarreal-dev/filmatch/internal/output"
	"github.com/jvillarreal-dev/filmatch/internal/resolve"
	"github.com/jvillarreal-dev/filmatch/internal/translate"
)

// defaultInputName 是未提供参数时的输入文件名。
const defaultInputName = "filmaffinity_list.html"

func main() {
	log.SetFlags(0)

	args := os.Args[1:]
	if len(args) > 0 && isHelp(args[0]) {
		printUsage()
		return
	}
	if len(args) > 1 {
		fmt.Fprintf(os.Stderr, "参数过多：只接受一个输入文件名\n\n")
		printUsage()
		os.Exit(2)
	}

	name := defaultInputName
	if len(args) == 1 && args[0] != "" {
		name = args[0]
	}

	if code := run(name); code != 0 {
		os.Exit(code)
	}
}

func run(name string) int {
	cwd, err := os.Getwd()
	if err != nil {
		log.Printf("读取当前目录失败：%v", err)
		return 1
	}

	eff, err := config.LoadEffective(cwd)
	if err != nil {
		log.Printf("加载配置失败：%v", err)
		return 1
	}

	// 致命错误之一：输入文件缺失/不可读。直接终止，不写任何产物。
	inputPath := filepath.Join(eff.InputDir, name)
	f, err := os.Open(inputPath)
	if err != nil {
		log.Printf("无法打开输入文件 %q：%v", inputPath, err)
		return 1
	}
	entries, skipped, err := extract.Entries(f)
	_ = f.Close()
	if err != nil {
		log.Printf("解析输入文件 %q 失败：%v", inputPath, err)
		return 1
	}

	for _, row := range skipped {
		log.Printf("[extract] 跳过无法识别的行：%q", row)
	}
	// 致命错误之二：一条有效条目都没有。
	if len(entries) == 0 {
		log.Printf("输入文件 %q 中没有任何 \"<标题> (<年份>)\" 行，终止运行", inputPath)
		return 1
	}
	log.Printf("[extract] 共 %d 个唯一条目（跳过 %d 行）", len(entries), len(skipped))

	client := httpx.New()
	pipe := &resolve.Pipeline{
		Lookup: &lookup.Client{
			BaseURL: eff.LookupBaseURL,
			APIKey:  eff.APIKey,
			HTTP:    client,
		},
		Trans:      translate.New(eff.TranslateBaseURL, client),
		SourceLang: eff.SourceLang,
		TargetLang: eff.TargetLang,
		Limit:      int64(eff.Concurrency),
	}
	res := pipe.Run(context.Background(), entries)

	paths, err := output.Write(eff.OutputDir, res)
	if err != nil {
		log.Printf("写入产物失败：%v", err)
		return 1
	}

	log.Printf("完成：resolved=%d unresolved=%d ambiguous=%d",
		len(res.Resolved), len(res.Unresolved), len(res.Ambiguous))
	log.Printf("movies:     %s", paths.Resolved)
	log.Printf("unresolved: %s", paths.Unresolved)
	log.Printf("ambiguous:  %s", paths.Ambiguous)
	return 0
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func printUsage() {
	fmt.Fprint(os.Stdout, `用法：
  filmatch [输入文件名]

说明：
  从输入目录读取 FilmAffinity 导出的 HTML 列表（默认 `+defaultInputName+`），
  逐条解析 "<标题> (<年份>)" 并查询元数据服务；首查为空时经翻译服务
  （es→en）重试一次。结果写入输出目录的三个文件：
    movies.json      已解析电影（Title/Poster_url/Imdb_id/Tmdb_id）
    unresolved.txt   两次查找都失败的条目
    ambiguous.txt    命中多个候选（已自动采纳流行度最高者）的条目

  可选配置 <cwd>/filmatch.json：服务地址、输入/输出目录、并发、语言对、
  Radarr config.xml 位置（用于提取 ApiKey）。

  -h, --help  显示帮助
`)
}
