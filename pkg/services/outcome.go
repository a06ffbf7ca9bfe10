package services

import "errors"

// Outcome 修改类操作的结果
// “记录不存在”与“记录属于其他用户”是同一个 OutcomeNoop，调用方无法区分
type Outcome int

const (
	// OutcomeNoop 没有匹配到调用者拥有的记录
	OutcomeNoop Outcome = iota
	// OutcomeApplied 操作已作用于调用者的记录
	OutcomeApplied
)

// Applied 是否已生效
func (o Outcome) Applied() bool {
	return o == OutcomeApplied
}

func (o Outcome) String() string {
	if o == OutcomeApplied {
		return "applied"
	}
	return "noop"
}

// outcomeOf 恰好作用于一条记录时为 OutcomeApplied
func outcomeOf(n int64) Outcome {
	if n == 1 {
		return OutcomeApplied
	}
	return OutcomeNoop
}

// ErrNoCaller 调用方未提供已解析的用户ID
var ErrNoCaller = errors.New("caller identity is required")
