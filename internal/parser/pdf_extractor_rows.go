package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dslipak/pdf"
)

// ExtractorRows 按文字坐标重建行的解析器
const ExtractorRows = "rows"

// defaultRowTolerance 基线Y坐标相差不超过该值的文字视为同一行(pt)
const defaultRowTolerance = 2.0

// RowPDFTextExtractor 直接读取页面内容流中的文字坐标，按行重建文本。
// 对多栏布局比整页纯文本更稳定: 同一基线上的文字按X排序后拼接
type RowPDFTextExtractor struct {
	logger       *log.Logger
	rowTolerance float64
}

// RowPDFOption 行提取器的配置选项
type RowPDFOption func(*RowPDFTextExtractor)

// WithRowLogger 配置自定义日志记录器
func WithRowLogger(logger *log.Logger) RowPDFOption {
	return func(e *RowPDFTextExtractor) {
		e.logger = logger
	}
}

// WithRowTolerance 配置同一行的Y坐标容差
func WithRowTolerance(tolerance float64) RowPDFOption {
	return func(e *RowPDFTextExtractor) {
		if tolerance > 0 {
			e.rowTolerance = tolerance
		}
	}
}

// NewRowPDFTextExtractor 创建行提取器
func NewRowPDFTextExtractor(options ...RowPDFOption) *RowPDFTextExtractor {
	e := &RowPDFTextExtractor{
		logger:       log.New(os.Stderr, "[RowPDF] ", log.LstdFlags),
		rowTolerance: defaultRowTolerance,
	}
	for _, option := range options {
		option(e)
	}
	return e
}

// ExtractFromFile 从PDF文件提取文本
func (e *RowPDFTextExtractor) ExtractFromFile(ctx context.Context, filePath string) (string, map[string]interface{}, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", nil, fmt.Errorf("failed to open PDF file %s: %w", filePath, err)
	}
	return e.ExtractTextFromBytes(ctx, data, filePath, map[string]interface{}{
		"source_file_path": filePath,
	})
}

// ExtractTextFromReader 读取全部内容后按行提取
func (e *RowPDFTextExtractor) ExtractTextFromReader(ctx context.Context, reader io.Reader, uri string, options interface{}) (string, map[string]interface{}, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read PDF %s: %w", uri, err)
	}
	return e.ExtractTextFromBytes(ctx, data, uri, options)
}

// ExtractTextFromBytes 从字节数组提取文本
func (e *RowPDFTextExtractor) ExtractTextFromBytes(ctx context.Context, data []byte, uri string, options interface{}) (text string, meta map[string]interface{}, err error) {
	meta = toMeta(options)
	if len(data) == 0 {
		return "", meta, fmt.Errorf("empty PDF content for URI %s", uri)
	}

	// dslipak/pdf 遇到损坏的文件可能 panic
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("row PDF extractor failed for URI %s: %v", uri, r)
		}
	}()

	startTime := time.Now()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", meta, fmt.Errorf("row PDF extractor failed for URI %s: %w", uri, err)
	}

	var rows []string
	pageCount := reader.NumPage()
	for i := 1; i <= pageCount; i++ {
		if err := ctx.Err(); err != nil {
			return "", meta, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows = append(rows, groupRows(page.Content().Text, e.rowTolerance)...)
	}

	text = JoinFragments(rows)
	duration := time.Since(startTime)

	meta["extractor"] = ExtractorRows
	meta["page_count"] = pageCount
	meta["text_length"] = len(text)
	meta["processing_duration_ms"] = duration.Milliseconds()

	e.logger.Printf("PDF提取完成: %d 页, %d 行 (用时 %.2f秒)", pageCount, len(rows), duration.Seconds())
	return text, meta, nil
}

// groupRows 按基线把文字分组为行，从上到下、从左到右
func groupRows(texts []pdf.Text, tolerance float64) []string {
	if len(texts) == 0 {
		return nil
	}

	sorted := make([]pdf.Text, len(texts))
	copy(sorted, texts)
	// PDF坐标系原点在左下角，Y越大越靠上
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Y > sorted[j].Y
	})

	var rows []string
	var current []pdf.Text
	rowY := sorted[0].Y
	flush := func() {
		if len(current) > 0 {
			rows = append(rows, joinRow(current))
			current = current[:0]
		}
	}
	for _, t := range sorted {
		if math.Abs(t.Y-rowY) > tolerance {
			flush()
			rowY = t.Y
		}
		current = append(current, t)
	}
	flush()
	return rows
}

// joinRow 按X排序拼接一行文字，间距明显大于字宽时补一个空格
func joinRow(texts []pdf.Text) string {
	sort.SliceStable(texts, func(i, j int) bool {
		return texts[i].X < texts[j].X
	})

	var b strings.Builder
	for i, t := range texts {
		if i > 0 {
			prev := texts[i-1]
			gap := t.X - (prev.X + prev.W)
			if gap > math.Max(t.FontSize*0.25, 1) && !strings.HasSuffix(prev.S, " ") && !strings.HasPrefix(t.S, " ") {
				b.WriteByte(' ')
			}
		}
		b.WriteString(t.S)
	}
	return b.String()
}
