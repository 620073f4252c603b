package constants

const (
	// ParserVersion 写入提交记录，便于区分不同版本章节表解析出的结果
	ParserVersion = "linkedin-profile/1.0"

	// 提交记录的处理状态
	StatusPendingParsing = "PENDING_PARSING"
	StatusQueued         = "QUEUED_FOR_PARSING"
	StatusParsing        = "PARSING"
	StatusParsed         = "PARSED"
	StatusFailed         = "PARSING_FAILED"

	// EventProfileParsed 解析完成事件，经 outbox 发布
	EventProfileParsed = "PROFILE_PARSED"

	// Outbox 消息状态
	OutboxStatusPending = "PENDING"
	OutboxStatusSent    = "SENT"
	OutboxStatusFailed  = "FAILED"

	// SourceChannelHTTP 通过上传接口提交
	SourceChannelHTTP = "http_upload"
	// SourceChannelCLI 通过命令行提交
	SourceChannelCLI = "cli"
)
