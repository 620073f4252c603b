package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/codesandtags/linkedin-pdf-reader/internal/config"
	"github.com/codesandtags/linkedin-pdf-reader/internal/logger"
)

// Storage 存储管理器，聚合所有外部存储。未启用或初始化失败的组件为 nil
type Storage struct {
	// 对象存储
	MinIO *MinIO
	// 消息队列
	RabbitMQ *RabbitMQ
	// 关系型数据库
	MySQL *MySQL
	// 键值存储
	Redis *Redis
}

// NewStorage 按配置初始化已启用的存储组件。
// 单个组件失败只记录警告，全部启用的组件都失败时返回错误
func NewStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}

	s := &Storage{}
	var initErrors []string
	enabled := 0

	if cfg.MinIO.Enabled {
		enabled++
		minio, err := NewMinIO(ctx, &cfg.MinIO, logger.StdLogger("[MinIO] "))
		if err != nil {
			initErrors = append(initErrors, fmt.Sprintf("MinIO: %v", err))
		} else {
			s.MinIO = minio
		}
	}

	if cfg.RabbitMQ.Enabled {
		enabled++
		mq, err := NewRabbitMQ(&cfg.RabbitMQ)
		if err == nil {
			if err = mq.EnsureProfileTopology(); err != nil {
				mq.Close()
			}
		}
		if err != nil {
			initErrors = append(initErrors, fmt.Sprintf("RabbitMQ: %v", err))
		} else {
			s.RabbitMQ = mq
		}
	}

	if cfg.MySQL.Enabled {
		enabled++
		db, err := NewMySQL(&cfg.MySQL)
		if err != nil {
			initErrors = append(initErrors, fmt.Sprintf("MySQL: %v", err))
		} else {
			s.MySQL = db
		}
	}

	if cfg.Redis.Enabled {
		enabled++
		rdb, err := NewRedisAdapter(&cfg.Redis)
		if err != nil {
			initErrors = append(initErrors, fmt.Sprintf("Redis: %v", err))
		} else {
			s.Redis = rdb
		}
	}

	if enabled > 0 && len(initErrors) == enabled {
		return nil, fmt.Errorf("所有存储组件初始化失败: %s", strings.Join(initErrors, "; "))
	}
	if len(initErrors) > 0 {
		logger.Warn().Strs("errors", initErrors).Msg("部分存储组件初始化失败，相关功能将不可用")
	}
	return s, nil
}

// Close 关闭所有连接。MinIO 客户端无需关闭
func (s *Storage) Close() {
	if s == nil {
		return
	}
	if s.RabbitMQ != nil {
		if err := s.RabbitMQ.Close(); err != nil {
			logger.Error().Err(err).Msg("关闭RabbitMQ连接失败")
		}
	}
	if s.MySQL != nil {
		if err := s.MySQL.Close(); err != nil {
			logger.Error().Err(err).Msg("关闭MySQL连接失败")
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			logger.Error().Err(err).Msg("关闭Redis连接失败")
		}
	}
}
