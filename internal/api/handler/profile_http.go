package handler

import (
	"context"
	"errors"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"go.opentelemetry.io/otel/trace"

	"github.com/codesandtags/linkedin-pdf-reader/internal/logger"
	"github.com/codesandtags/linkedin-pdf-reader/internal/processor"
	"github.com/codesandtags/linkedin-pdf-reader/internal/tracing"
)

// UploadFormFields 上传文件的表单字段，按顺序尝试
var UploadFormFields = []string{"pdf", "file"}

// Upload POST /profiles/upload
func (h *ProfileHandler) Upload(c context.Context, ctx *app.RequestContext) {
	fileHeader, err := formFile(ctx, UploadFormFields...)
	if err != nil {
		logger.Ctx(c).Debug().Err(err).Msg("上传请求中没有文件")
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": "文件未找到，请使用表单字段 pdf"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "打开文件失败"})
		return
	}
	defer file.Close()

	async, _ := strconv.ParseBool(ctx.Query("async"))
	resp, err := h.HandleProfileUpload(c, file, fileHeader.Size, fileHeader.Filename, async)
	if err != nil {
		h.writeError(c, ctx, err)
		return
	}
	status := consts.StatusOK
	if resp.Status == UploadStatusQueued {
		status = consts.StatusAccepted
	}
	ctx.JSON(status, resp)
}

func formFile(ctx *app.RequestContext, fields ...string) (*multipart.FileHeader, error) {
	var lastErr error
	for _, field := range fields {
		fileHeader, err := ctx.FormFile(field)
		if err == nil {
			return fileHeader, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// Parse POST /profiles/parse，请求体是已经线性化的文本
func (h *ProfileHandler) Parse(c context.Context, ctx *app.RequestContext) {
	body := ctx.Request.Body()
	if int64(len(body)) > h.cfg.MaxUploadBytes() {
		ctx.JSON(consts.StatusRequestEntityTooLarge, utils.H{"error": ErrFileTooLarge.Error()})
		return
	}
	text := strings.ReplaceAll(string(body), "\r\n", "\n")
	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	ctx.JSON(consts.StatusOK, h.ParseText(text))
}

// Get GET /profiles/:uuid
func (h *ProfileHandler) Get(c context.Context, ctx *app.RequestContext) {
	view, err := h.GetProfile(c, ctx.Param("uuid"))
	if err != nil {
		h.writeError(c, ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, view)
}

func (h *ProfileHandler) writeError(c context.Context, ctx *app.RequestContext, err error) {
	status := statusForError(err)
	tracing.RecordHTTPError(trace.SpanFromContext(c), err, status)
	if status >= consts.StatusInternalServerError {
		logger.Ctx(c).Error().Err(err).Str("path", string(ctx.Path())).Msg("请求处理失败")
	}
	ctx.JSON(status, utils.H{"error": err.Error()})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrFileTooLarge):
		return consts.StatusRequestEntityTooLarge
	case errors.Is(err, ErrUnsupportedFile):
		return consts.StatusUnsupportedMediaType
	case errors.Is(err, ErrEmptyFile):
		return consts.StatusBadRequest
	case errors.Is(err, ErrProfileNotFound):
		return consts.StatusNotFound
	case errors.Is(err, ErrAsyncUnavailable):
		return consts.StatusServiceUnavailable
	case errors.Is(err, processor.ErrExtractFailed):
		return consts.StatusUnprocessableEntity
	default:
		return consts.StatusInternalServerError
	}
}
