package errcode

// 错误码约定，随 WebSocket 通知下发：
// - 0：无错误
// - 4xxx：业务可恢复/告警类错误（例如导出时简历已被删除）
// - 5xxx：系统错误（需要中断流程）
const (
	OK              = 0
	ResourceMissing = 4004
	SystemError     = 5000
)
