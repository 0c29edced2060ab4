package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
const ErrCodeInvalid = "config_invalid"

const (
	// DefaultLookupBaseURL 是查找服务的缺省地址（Radarr 兼容 API）。
	DefaultLookupBaseURL = "http://127.0.0.1:7878/api/v3/movie"
	// DefaultTranslateBaseURL 是翻译服务的缺省地址（LibreTranslate 兼容 API）。
	DefaultTranslateBaseURL = "http://127.0.0.1:5000"
	// DefaultInputDir / DefaultOutputDir 是输入输出目录（相对工作目录）。
	DefaultInputDir  = "input"
	DefaultOutputDir = "output"
	// DefaultConcurrency 是并发闸门容量的内置默认值。
	DefaultConcurrency = 5
	// DefaultSourceLang / DefaultTargetLang 是翻译重试路径的语言对。
	DefaultSourceLang = "es"
	DefaultTargetLang = "en"
)

// FileConfig 对应 filmatch.json 的解析结构（文件整体可选，字段均可缺省）。
type FileConfig struct {
	LookupBaseURL    string `json:"lookup_base_url"`
	TranslateBaseURL string `json:"translate_base_url"`
	RadarrConfigPath string `json:"radarr_config_path"`
	InputDir         string `json:"input_dir"`
	OutputDir        string `json:"output_dir"`
	Concurrency      int    `json:"concurrency"`
	SourceLang       string `json:"source_lang"`
	TargetLang       string `json:"target_lang"`
}

// EffectiveConfig 是合并默认值并解析 API key 之后的最终配置。
// 实现层只消费该结构：key 在启动时解析一次，之后不再读协作方的文件。
type EffectiveConfig struct {
	LookupBaseURL    string
	TranslateBaseURL string
	APIKey           string

	InputDir  string
	OutputDir string

	Concurrency int
	SourceLang  string
	TargetLang  string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
	}
	return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 读取 <cwd>/filmatch.json（可选）并与内置默认值合并。
//
// 规则（固定）：
// - 文件不存在：全部使用默认值（不算错误）
// - 文件存在但非法：报错终止（宁可失败，不允许半配置运行）
// - 相对目录均以 cwd 为基准
// - API key：radarr_config_path（缺省为平台默认位置）里的第一个 <ApiKey> 标签；
//   读取失败降级为空串（查找服务可能不要求鉴权）
func LoadEffective(cwd string) (EffectiveConfig, error) {
	cfgPath := filepath.Join(cwd, "filmatch.json")
	fc, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	eff := EffectiveConfig{
		LookupBaseURL:    DefaultLookupBaseURL,
		TranslateBaseURL: DefaultTranslateBaseURL,
		InputDir:         filepath.Join(cwd, DefaultInputDir),
		OutputDir:        filepath.Join(cwd, DefaultOutputDir),
		Concurrency:      DefaultConcurrency,
		SourceLang:       DefaultSourceLang,
		TargetLang:       DefaultTargetLang,
	}

	if v := strings.TrimSpace(fc.LookupBaseURL); v != "" {
		eff.LookupBaseURL = v
	}
	if v := strings.TrimSpace(fc.TranslateBaseURL); v != "" {
		eff.TranslateBaseURL = v
	}
	for _, base := range []string{eff.LookupBaseURL, eff.TranslateBaseURL} {
		if err := validateBaseURL(base); err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
	}

	if v := strings.TrimSpace(fc.InputDir); v != "" {
		eff.InputDir = absCleanFrom(cwd, v)
	}
	if v := strings.TrimSpace(fc.OutputDir); v != "" {
		eff.OutputDir = absCleanFrom(cwd, v)
	}

	if fc.Concurrency != 0 {
		eff.Concurrency = fc.Concurrency
	}
	// 范围建议 [1, 16]；超出截断（查找服务对并发敏感，不给上限会触发限流）。
	if eff.Concurrency < 1 {
		eff.Concurrency = 1
	}
	if eff.Concurrency > 16 {
		eff.Concurrency = 16
	}

	if v := strings.TrimSpace(fc.SourceLang); v != "" {
		eff.SourceLang = v
	}
	if v := strings.TrimSpace(fc.TargetLang); v != "" {
		eff.TargetLang = v
	}

	keyPath := strings.TrimSpace(fc.RadarrConfigPath)
	if keyPath == "" {
		keyPath = DefaultRadarrConfigPath()
	} else {
		keyPath = absCleanFrom(cwd, keyPath)
	}
	eff.APIKey = ReadAPIKey(keyPath)

	return eff, nil
}

// DefaultRadarrConfigPath 返回协作方 config.xml 的默认位置（按用户主目录推导）。
func DefaultRadarrConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "Radarr", "config.xml")
}

var apiKeyRE = regexp.MustCompile(`<ApiKey>([^<]*)</ApiKey>`)

// ReadAPIKey 从协作方的 config.xml 提取第一个 <ApiKey> 标签内容。
// 任何失败（路径为空、文件缺失、无标签）都降级为空串。
// 该文件不保证是严格 XML，所以用宽容的标签匹配而不是 XML 解析。
func ReadAPIKey(path string) string {
	if strings.TrimSpace(path) == "" {
		return ""
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	m := apiKeyRE.FindSubmatch(b)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(string(m[1]))
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("服务地址无效：%q", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("服务地址必须是 http/https：%q", raw)
	}
	return nil
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 JSON 配置文件；文件不存在不算错误。
func readFileConfig(path string) (FileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, err
	}
	var fc FileConfig
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, err
	}
	return fc, nil
}
