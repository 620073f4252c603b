package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/codesandtags/linkedin-pdf-reader/internal/api/handler"
	"github.com/codesandtags/linkedin-pdf-reader/internal/api/router"
	"github.com/codesandtags/linkedin-pdf-reader/internal/config"
	appLogger "github.com/codesandtags/linkedin-pdf-reader/internal/logger"
	"github.com/codesandtags/linkedin-pdf-reader/internal/outbox"
	"github.com/codesandtags/linkedin-pdf-reader/internal/processor"
	"github.com/codesandtags/linkedin-pdf-reader/internal/storage"
	"github.com/codesandtags/linkedin-pdf-reader/internal/tracing"
)

func main() {
	var (
		configPath string
		initConfig string
	)
	pflag.StringVarP(&configPath, "config", "c", "", "配置文件路径，为空时在常见位置查找")
	pflag.StringVar(&initConfig, "init-config", "", "在指定路径生成示例配置后退出")
	pflag.Parse()

	if initConfig != "" {
		if err := config.CreateSampleConfig(initConfig); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Printf("示例配置已写入 %s\n", initConfig)
		return
	}

	// .env 不存在时忽略
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	if err := appLogger.Init(appLogger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
		File:         cfg.Logger.File,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	appLogger.SetupHertz()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.InitProvider(ctx, cfg.Tracing)
	if err != nil {
		glog.Fatalf("初始化追踪失败: %v", err)
	}

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		glog.Fatalf("初始化存储失败: %v", err)
	}
	defer storageManager.Close()

	profileProcessor, err := processor.NewProcessorFromConfig(ctx, cfg, storageManager)
	if err != nil {
		glog.Fatalf("初始化档案处理器失败: %v", err)
	}
	profileHandler := handler.NewProfileHandler(cfg, storageManager, profileProcessor)

	var relay *outbox.MessageRelay
	if storageManager.MySQL != nil && storageManager.RabbitMQ != nil {
		relay = outbox.NewMessageRelay(storageManager.MySQL.DB(), storageManager.RabbitMQ)
		relay.Start(ctx)
		glog.Info("消息中继服务已启动")
	}

	var consumerDone <-chan struct{}
	if storageManager.RabbitMQ != nil && storageManager.MinIO != nil {
		consumerDone, err = profileHandler.StartProfileUploadConsumer(ctx, cfg.RabbitMQ.PrefetchCount)
		if err != nil {
			glog.Fatalf("启动档案上传消费者失败: %v", err)
		}
	}

	tracer, tracerCfg := hertztracing.NewServerTracer()
	h := server.Default(
		tracer,
		server.WithHostPorts(cfg.Server.Address),
		server.WithMaxRequestBodySize(int(cfg.MaxUploadBytes())+1<<20),
		server.WithHandleMethodNotAllowed(true),
	)
	h.Use(hertztracing.ServerMiddleware(tracerCfg))
	h.Use(func(c context.Context, ctx *app.RequestContext) {
		start := time.Now()
		ctx.Next(c)
		appLogger.Ctx(c).Info().
			Str("method", string(ctx.Method())).
			Str("path", string(ctx.Path())).
			Int("status", ctx.Response.StatusCode()).
			Dur("latency", time.Since(start)).
			Msg("request")
	})
	router.RegisterRoutes(h, profileHandler, cfg.Server)

	go func() {
		glog.Infof("HTTP 服务器启动中，监听地址: %s", cfg.Server.Address)
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	shutdownTimeout := config.GetDuration(cfg.Server.ShutdownTimeout, 10*time.Second)
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Errorf("服务器关闭失败: %v", err)
	}

	// 先停止后台任务再关闭存储
	cancel()
	if relay != nil {
		waitOrTimeout(shutdownCtx, relay.Done())
	}
	if consumerDone != nil {
		waitOrTimeout(shutdownCtx, consumerDone)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		glog.Errorf("关闭追踪失败: %v", err)
	}
	glog.Info("优雅退出完成")
}

func waitOrTimeout(ctx context.Context, done <-chan struct{}) {
	select {
	case <-done:
	case <-ctx.Done():
	}
}
