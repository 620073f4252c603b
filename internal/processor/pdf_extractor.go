package processor

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/codesandtags/linkedin-pdf-reader/internal/config"
	"github.com/codesandtags/linkedin-pdf-reader/internal/parser"
)

// BuildPDFExtractor 根据 extractor.type 构建PDF解析器
func BuildPDFExtractor(ctx context.Context, cfg *config.Config, loggerProvider func(prefix string) *log.Logger) (PDFExtractor, error) {
	switch cfg.Extractor.Type {
	case parser.ExtractorRows:
		return parser.NewRowPDFTextExtractor(parser.WithRowLogger(loggerProvider("[RowPDF] "))), nil
	case parser.ExtractorEino, "":
		return parser.NewEinoPDFTextExtractor(ctx,
			parser.WithEinoLogger(loggerProvider("[EinoPDF] ")),
			parser.WithEinoTimeout(time.Duration(cfg.Extractor.TimeoutSeconds)*time.Second),
		)
	default:
		return nil, fmt.Errorf("未知的PDF提取器类型: %s", cfg.Extractor.Type)
	}
}
