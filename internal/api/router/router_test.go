package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"testing"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesandtags/linkedin-pdf-reader/internal/api/handler"
	"github.com/codesandtags/linkedin-pdf-reader/internal/config"
	"github.com/codesandtags/linkedin-pdf-reader/internal/processor"
	"github.com/codesandtags/linkedin-pdf-reader/internal/types"
)

const routerProfileText = "Contact\n" +
	"jane@example.com\n" +
	"Top Skills\n" +
	"Go\n" +
	"Rust\n" +
	"Jane Roe\n" +
	"Platform Engineer\n" +
	"Madrid, Spain\n" +
	"Summary\n" +
	"Keeps clusters healthy.\n" +
	"Experience\n"

type stubExtractor struct{ text string }

func (s *stubExtractor) ExtractFromFile(ctx context.Context, filePath string) (string, map[string]interface{}, error) {
	return s.text, nil, nil
}

func (s *stubExtractor) ExtractTextFromReader(ctx context.Context, reader io.Reader, uri string, options interface{}) (string, map[string]interface{}, error) {
	return s.text, nil, nil
}

func (s *stubExtractor) ExtractTextFromBytes(ctx context.Context, data []byte, uri string, options interface{}) (string, map[string]interface{}, error) {
	return s.text, nil, nil
}

func newTestServer(t *testing.T, apiKeys ...string) *server.Hertz {
	t.Helper()
	return newTestServerWith(t, config.ServerConfig{APIKeys: apiKeys})
}

func newTestServerWith(t *testing.T, serverCfg config.ServerConfig) *server.Hertz {
	t.Helper()
	pp, err := processor.NewProfileProcessor(&stubExtractor{text: routerProfileText})
	require.NoError(t, err)

	h := server.Default(server.WithHostPorts("127.0.0.1:0"))
	RegisterRoutes(h, handler.NewProfileHandler(config.DefaultConfig(), nil, pp), serverCfg)
	return h
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestHealth(t *testing.T) {
	h := newTestServer(t)

	w := ut.PerformRequest(h.Engine, consts.MethodGet, "/api/v1/health", nil)
	resp := w.Result()
	assert.Equal(t, consts.StatusOK, resp.StatusCode())
	assert.Contains(t, string(resp.Body()), `"status":"ok"`)
	assert.NotEmpty(t, resp.Header.Get(HeaderRequestID))
}

func TestRequestIDPassthrough(t *testing.T) {
	h := newTestServer(t)

	w := ut.PerformRequest(h.Engine, consts.MethodGet, "/api/v1/health", nil,
		ut.Header{Key: HeaderRequestID, Value: "req-42"})
	assert.Equal(t, "req-42", w.Result().Header.Get(HeaderRequestID))
}

func TestUploadEndpoint(t *testing.T) {
	h := newTestServer(t)
	pdf := []byte("%PDF-1.4\n%%EOF\n")

	for _, field := range []string{"pdf", "file"} {
		t.Run(field, func(t *testing.T) {
			body, contentType := multipartBody(t, field, "jane.pdf", pdf)
			w := ut.PerformRequest(h.Engine, consts.MethodPost, "/api/v1/profiles/upload",
				&ut.Body{Body: body, Len: body.Len()},
				ut.Header{Key: "Content-Type", Value: contentType})

			resp := w.Result()
			require.Equal(t, consts.StatusOK, resp.StatusCode(), string(resp.Body()))

			var out handler.ProfileUploadResponse
			require.NoError(t, json.Unmarshal(resp.Body(), &out))
			assert.Equal(t, handler.UploadStatusParsed, out.Status)
			require.NotNil(t, out.Record)
			assert.Equal(t, "Jane Roe", *out.Record.Contact.Name)
		})
	}
}

func TestUploadEndpointErrors(t *testing.T) {
	h := newTestServer(t)

	body, contentType := multipartBody(t, "attachment", "jane.pdf", []byte("%PDF-1.4\n"))
	w := ut.PerformRequest(h.Engine, consts.MethodPost, "/api/v1/profiles/upload",
		&ut.Body{Body: body, Len: body.Len()},
		ut.Header{Key: "Content-Type", Value: contentType})
	assert.Equal(t, consts.StatusBadRequest, w.Result().StatusCode())

	body, contentType = multipartBody(t, "pdf", "jane.txt", []byte("plain text"))
	w = ut.PerformRequest(h.Engine, consts.MethodPost, "/api/v1/profiles/upload",
		&ut.Body{Body: body, Len: body.Len()},
		ut.Header{Key: "Content-Type", Value: contentType})
	assert.Equal(t, consts.StatusUnsupportedMediaType, w.Result().StatusCode())

	body, contentType = multipartBody(t, "pdf", "jane.pdf", []byte("%PDF-1.4\n"))
	w = ut.PerformRequest(h.Engine, consts.MethodPost, "/api/v1/profiles/upload?async=true",
		&ut.Body{Body: body, Len: body.Len()},
		ut.Header{Key: "Content-Type", Value: contentType})
	assert.Equal(t, consts.StatusServiceUnavailable, w.Result().StatusCode(), "未启用队列时不能异步上传")
}

func TestParseEndpoint(t *testing.T) {
	h := newTestServer(t)
	text := []byte("Contact\r\njane@example.com\r\nJane Roe\r\nPlatform Engineer\r\nMadrid, Spain\r\nSummary\r\nHi.\r\nExperience\r\n")

	w := ut.PerformRequest(h.Engine, consts.MethodPost, "/api/v1/profiles/parse",
		&ut.Body{Body: bytes.NewReader(text), Len: len(text)},
		ut.Header{Key: "Content-Type", Value: "text/plain"})
	resp := w.Result()
	require.Equal(t, consts.StatusOK, resp.StatusCode())

	var record types.ProfileRecord
	require.NoError(t, json.Unmarshal(resp.Body(), &record))
	require.NotNil(t, record.Contact.Name)
	assert.Equal(t, "Jane Roe", *record.Contact.Name)
	assert.Equal(t, "jane@example.com", *record.Contact.Email)
	require.NotNil(t, record.Summary)
	assert.Equal(t, "Hi.", *record.Summary)
}

func TestParseEndpointEmptyBody(t *testing.T) {
	h := newTestServer(t)

	w := ut.PerformRequest(h.Engine, consts.MethodPost, "/api/v1/profiles/parse", nil)
	resp := w.Result()
	require.Equal(t, consts.StatusOK, resp.StatusCode())

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body(), &record))
	for _, key := range []string{"contact", "languages", "honorsAwards", "publications", "mainSkills",
		"certifications", "summary", "experience", "education"} {
		assert.Contains(t, record, key)
	}
}

func TestGetProfileNotFound(t *testing.T) {
	h := newTestServer(t)

	w := ut.PerformRequest(h.Engine, consts.MethodGet, "/api/v1/profiles/0190c1a2-0000-7000-8000-000000000000", nil)
	assert.Equal(t, consts.StatusNotFound, w.Result().StatusCode())
}

func TestAPIKeyAuth(t *testing.T) {
	h := newTestServer(t, "secret-key")

	w := ut.PerformRequest(h.Engine, consts.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, consts.StatusOK, w.Result().StatusCode(), "健康检查不需要鉴权")

	w = ut.PerformRequest(h.Engine, consts.MethodPost, "/api/v1/profiles/parse", nil)
	assert.Equal(t, consts.StatusUnauthorized, w.Result().StatusCode())

	w = ut.PerformRequest(h.Engine, consts.MethodPost, "/api/v1/profiles/parse", nil,
		ut.Header{Key: "Authorization", Value: "Bearer wrong"})
	assert.Equal(t, consts.StatusUnauthorized, w.Result().StatusCode())

	w = ut.PerformRequest(h.Engine, consts.MethodPost, "/api/v1/profiles/parse", nil,
		ut.Header{Key: "Authorization", Value: "Bearer secret-key"})
	assert.Equal(t, consts.StatusOK, w.Result().StatusCode())
}

func TestUploadRateLimit(t *testing.T) {
	h := newTestServerWith(t, config.ServerConfig{UploadRatePerMinute: 1, UploadBurst: 1})
	pdf := []byte("%PDF-1.4\n%%EOF\n")

	send := func() int {
		body, contentType := multipartBody(t, "pdf", "jane.pdf", pdf)
		w := ut.PerformRequest(h.Engine, consts.MethodPost, "/api/v1/profiles/upload",
			&ut.Body{Body: body, Len: body.Len()},
			ut.Header{Key: "Content-Type", Value: contentType})
		return w.Result().StatusCode()
	}
	assert.Equal(t, consts.StatusOK, send())
	assert.Equal(t, consts.StatusTooManyRequests, send())

	// 解析接口不受上传限流影响
	w := ut.PerformRequest(h.Engine, consts.MethodPost, "/api/v1/profiles/parse", nil)
	assert.Equal(t, consts.StatusOK, w.Result().StatusCode())
}
