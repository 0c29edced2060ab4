package domain

// Result 聚合一次流水线运行的三个结果集。
//
// 不变量：
// - 同一条目在 Resolved 产出与 Unresolved 之间互斥
// - Ambiguous 是附加标注：出现在 Ambiguous 的条目必然也产出了 ResolvedMovie
// - 三个集合在运行期间只追加，运行结束后只读
type Result struct {
	Resolved   []ResolvedMovie
	Unresolved []string
	Ambiguous  []string
}
