package storage

import (
	"context"
	"os"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/codesandtags/linkedin-pdf-reader/internal/config"
	"github.com/codesandtags/linkedin-pdf-reader/internal/constants"
	"github.com/codesandtags/linkedin-pdf-reader/internal/storage/models"
)

func TestGormLogLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, gormLogLevel(1))
	assert.Equal(t, logger.Error, gormLogLevel(2))
	assert.Equal(t, logger.Warn, gormLogLevel(3))
	assert.Equal(t, logger.Info, gormLogLevel(4))
	assert.Equal(t, logger.Error, gormLogLevel(0), "未配置时只记录错误")
}

// TestMySQLSubmissionLifecycle 需要可用的MySQL，通过 MYSQL_TEST_HOST 指定
func TestMySQLSubmissionLifecycle(t *testing.T) {
	host := os.Getenv("MYSQL_TEST_HOST")
	if host == "" {
		t.Skip("未设置 MYSQL_TEST_HOST，跳过MySQL集成测试")
	}
	cfg := config.DefaultConfig().MySQL
	cfg.Enabled = true
	cfg.Host = host
	cfg.Password = os.Getenv("MYSQL_PASSWORD")

	db, err := NewMySQL(&cfg)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	id := uuid.Must(uuid.NewV7()).String()
	require.NoError(t, db.CreateSubmission(ctx, &models.ProfileSubmission{
		SubmissionUUID:   id,
		OriginalFilename: "profile.pdf",
		ProcessingStatus: constants.StatusPendingParsing,
	}))
	defer db.DB().Delete(&models.ProfileSubmission{}, "submission_uuid = ?", id)
	defer db.DB().Delete(&models.OutboxMessage{}, "aggregate_id = ?", id)

	err = db.SaveParsedWithEvent(ctx, id, ParsedProfileUpdate{
		ProfileRecord: []byte(`{"summary":"hi"}`),
		CandidateName: "John Doe",
	}, &models.OutboxMessage{
		AggregateID:      id,
		EventType:        constants.EventProfileParsed,
		Payload:          `{}`,
		TargetExchange:   "profile.events.exchange",
		TargetRoutingKey: "profile.parsed",
	})
	require.NoError(t, err)

	got, err := db.GetSubmission(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusParsed, got.ProcessingStatus)
	assert.Equal(t, "John Doe", got.CandidateName)
	assert.JSONEq(t, `{"summary":"hi"}`, string(got.ProfileRecord))

	_, err = db.GetSubmission(ctx, uuid.Must(uuid.NewV7()).String())
	assert.ErrorIs(t, err, ErrSubmissionNotFound)

	err = db.DB().Transaction(func(tx *gorm.DB) error {
		return db.SaveParsedProfile(tx, "missing", ParsedProfileUpdate{})
	})
	assert.ErrorIs(t, err, ErrSubmissionNotFound)
}
