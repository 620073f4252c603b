package storage

import "time"

// ProfileUploadMessage 异步上传模式下投递到上传队列的消息
type ProfileUploadMessage struct {
	SubmissionUUID      string    `json:"submission_uuid"`
	SubmissionTimestamp time.Time `json:"submission_timestamp"`
	SourceChannel       string    `json:"source_channel,omitempty"`
	OriginalFilename    string    `json:"original_filename"`
	OriginalFilePathOSS string    `json:"original_file_path_oss"` // MinIO中的对象键
	RawFileMD5          string    `json:"raw_file_md5,omitempty"` // 失败时用于回滚去重记录
}

// ProfileParsedEvent 解析完成后经 outbox 发布的事件
type ProfileParsedEvent struct {
	SubmissionUUID    string    `json:"submission_uuid"`
	ProcessingStatus  string    `json:"processing_status"`
	ParsedTextPathOSS string    `json:"parsed_text_path_oss,omitempty"`
	RecordPathOSS     string    `json:"record_path_oss,omitempty"`
	CandidateName     string    `json:"candidate_name,omitempty"`
	Headline          string    `json:"headline,omitempty"`
	ExperienceCount   int       `json:"experience_count"`
	EducationCount    int       `json:"education_count"`
	ParsedAt          time.Time `json:"parsed_at"`
}
