package domain

// TitleEntry 是从导出列表提取的一条“<标题> (<年份>)”字符串。
//
// 不变量：
// - 形如 "The Matrix (1999)"（四位年份，括号收尾）
// - 提取阶段已去重：集合内不允许出现重复成员
// - 创建后不可变（流水线只读它，不改它）
type TitleEntry string
