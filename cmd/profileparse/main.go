// profileparse 把一份 LinkedIn 导出的档案 PDF (或已提取的文本) 解析成 JSON
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/spf13/pflag"

	"github.com/codesandtags/linkedin-pdf-reader/internal/config"
	"github.com/codesandtags/linkedin-pdf-reader/internal/constants"
	"github.com/codesandtags/linkedin-pdf-reader/internal/export"
	appLogger "github.com/codesandtags/linkedin-pdf-reader/internal/logger"
	"github.com/codesandtags/linkedin-pdf-reader/internal/processor"
	"github.com/codesandtags/linkedin-pdf-reader/internal/profile"
	"github.com/codesandtags/linkedin-pdf-reader/pkg/utils"
)

func main() {
	var (
		configPath string
		output     string
		extractor  string
		compact    bool
		verbose    bool
	)
	pflag.StringVarP(&configPath, "config", "c", "", "配置文件路径，用于自定义章节表")
	pflag.StringVarP(&output, "output", "o", "", "输出文件，为空时写到标准输出")
	pflag.StringVarP(&extractor, "extractor", "e", "", "PDF提取器: eino 或 rows")
	pflag.BoolVar(&compact, "compact", false, "输出不缩进的JSON")
	pflag.BoolVarP(&verbose, "verbose", "v", false, "输出调试日志")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "用法: %s [flags] <profile.pdf|profile.txt>\n", filepath.Base(os.Args[0]))
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if pflag.NArg() != 1 {
		pflag.Usage()
		os.Exit(2)
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	if err := appLogger.Init(appLogger.Config{Level: level, Format: "pretty", TimeFormat: "15:04:05"}); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}

	if err := run(pflag.Arg(0), configPath, output, extractor, compact); err != nil {
		appLogger.Error().Err(err).Str("input", pflag.Arg(0)).Msg("解析失败")
		os.Exit(1)
	}
}

func run(input, configPath, output, extractor string, compact bool) error {
	cfg := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.LoadConfigFromFileOnly(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if extractor != "" {
		cfg.Extractor.Type = extractor
	}

	indent := cfg.Export.Indent
	if compact {
		indent = ""
	}
	exporterCfg := config.ExportConfig{Indent: indent}
	if output != "" {
		exporterCfg.Dir = filepath.Dir(output)
		exporterCfg.Filename = filepath.Base(output)
	}
	exporter := export.NewJSONExporter(exporterCfg)

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Extractor.TimeoutSeconds+10)*time.Second)
	defer cancel()

	pdfExtractor, err := processor.BuildPDFExtractor(ctx, cfg, appLogger.StdLogger)
	if err != nil {
		return err
	}
	profileParser, err := profile.NewParser(cfg.ParserOptions()...)
	if err != nil {
		return err
	}
	opts := []processor.Option{processor.WithParser(profileParser)}
	if output != "" {
		opts = append(opts, processor.WithExporter(exporter))
	}
	pp, err := processor.NewProfileProcessor(pdfExtractor, opts...)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("读取输入文件失败: %w", err)
	}
	sub := processor.Submission{
		UUID:          uuid.Must(uuid.NewV7()).String(),
		Filename:      filepath.Base(input),
		Data:          data,
		SourceChannel: constants.SourceChannelCLI,
	}

	var result *processor.Result
	if utils.FileExt(input) == ".txt" {
		// 文本按原样解析，空行保留用于分隔经历块；联系方式的匹配要求末行也以换行结尾
		text := strings.ReplaceAll(string(data), "\r\n", "\n")
		if !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		result, err = pp.ProcessText(ctx, sub, text)
	} else {
		result, err = pp.Process(ctx, sub)
	}
	if err != nil {
		return err
	}

	if output != "" {
		appLogger.Info().Str("path", result.ExportPath).Dur("duration", result.Duration).Msg("已写入")
		return nil
	}
	out, err := exporter.Marshal(result.Record)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}
