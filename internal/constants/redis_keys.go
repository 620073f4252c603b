package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "app"

	// ProfileModulePrefix 档案模块
	ProfileModulePrefix = "profile"

	// EntityDedupSet 去重集合实体
	EntityDedupSet = "dedup_set"
	// EntityMD5ToUUID MD5到UUID的映射实体
	EntityMD5ToUUID = "md5_to_uuid"
	// EntityRecord 结构化记录缓存实体
	EntityRecord = "record"

	// KeyFileMD5Set 上传文件MD5集合，用于快速去重 (SET)
	// 格式: app:profile:dedup_set
	KeyFileMD5Set = AppPrefix + ":" + ProfileModulePrefix + ":" + EntityDedupSet

	// KeyFileMD5ToSubmissionUUID MD5到SubmissionUUID的映射 (STRING)
	// 格式: app:profile:md5_to_uuid:{md5}
	KeyFileMD5ToSubmissionUUID = AppPrefix + ":" + ProfileModulePrefix + ":" + EntityMD5ToUUID + ":%s"

	// KeyProfileRecord 解析结果JSON缓存 (STRING)
	// 格式: app:profile:record:{submissionUUID}
	KeyProfileRecord = AppPrefix + ":" + ProfileModulePrefix + ":" + EntityRecord + ":%s"
)
