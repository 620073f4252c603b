package models

import (
	"time"

	"gorm.io/datatypes"
)

// ProfileSubmission 一次档案PDF提交及其解析结果
type ProfileSubmission struct {
	SubmissionUUID      string    `gorm:"type:char(36);primaryKey"`
	SubmissionTimestamp time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);index:idx_ps_submission_timestamp"`
	SourceChannel       string    `gorm:"type:varchar(100)"`
	OriginalFilename    string    `gorm:"type:varchar(255)"`
	OriginalFilePathOSS string    `gorm:"type:varchar(1024)"`
	ParsedTextPathOSS   string    `gorm:"type:varchar(1024)"`
	RecordPathOSS       string    `gorm:"type:varchar(1024)"`
	RawFileMD5          string    `gorm:"type:char(32);index:idx_ps_raw_file_md5"`
	ParsedTextMD5       string    `gorm:"type:char(32)"`

	// 结构化记录，序列化后的 types.ProfileRecord
	ProfileRecord datatypes.JSON `gorm:"type:json"`
	// 冗余出来便于检索的联系人字段
	CandidateName string `gorm:"type:varchar(255);index:idx_ps_candidate_name"`
	Headline      string `gorm:"type:varchar(512)"`
	Location      string `gorm:"type:varchar(255)"`
	Email         string `gorm:"type:varchar(255)"`

	ProcessingStatus string    `gorm:"type:varchar(50);default:'PENDING_PARSING';index:idx_ps_processing_status"`
	ErrorMessage     string    `gorm:"type:text"`
	ParserVersion    string    `gorm:"type:varchar(50)"`
	CreatedAt        time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt        time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (ProfileSubmission) TableName() string {
	return "profile_submissions"
}
