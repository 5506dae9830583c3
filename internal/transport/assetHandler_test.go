package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyfy/denizen-assets/internal/entity"
)

type fakeService struct {
	uploaded   map[string]string
	processErr error
	stageErr   error
	runErr     error
	staged     int
}

func newFakeService() *fakeService {
	return &fakeService{uploaded: make(map[string]string)}
}

func (f *fakeService) Run(ctx context.Context) (*entity.RunReport, error) {
	if f.runErr != nil {
		return &entity.RunReport{RunID: "run-1"}, f.runErr
	}
	return &entity.RunReport{RunID: "run-1", Processed: len(f.uploaded)}, nil
}

func (f *fakeService) ProcessFile(ctx context.Context, name string) (*entity.AssetResult, error) {
	if f.processErr != nil {
		return nil, f.processErr
	}
	return &entity.AssetResult{
		Name:    name,
		Outputs: []entity.TierOutput{{Tier: "small", Path: "assets-small/" + name, Width: 640, Height: 360}},
	}, nil
}

func (f *fakeService) Stage(ctx context.Context) error {
	f.staged++
	return f.stageErr
}

func (f *fakeService) Describe(name string) (*entity.AssetResult, error) {
	if _, ok := f.uploaded[name]; !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrAssetNotFound, name)
	}
	return &entity.AssetResult{Name: name, Outputs: []entity.TierOutput{}}, nil
}

func (f *fakeService) Upload(ctx context.Context, name string, data io.Reader) (*entity.AssetResult, error) {
	if f.Ignores(name) {
		return nil, fmt.Errorf("%w: %s", entity.ErrIgnoredAsset, name)
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return nil, err
	}
	if string(b) == "plain text" {
		return nil, fmt.Errorf("%w: %s", entity.ErrInvalidImage, name)
	}
	result, err := f.ProcessFile(ctx, name)
	if err != nil {
		return nil, err
	}
	f.uploaded[name] = string(b)
	return result, nil
}

func (f *fakeService) Ignores(name string) bool {
	return strings.HasSuffix(name, ".md")
}

func newRouter(svc *fakeService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return InitRoutes(NewAssetHandler(svc, 1<<20))
}

func uploadRequest(t *testing.T, field, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/assets", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadAsset(t *testing.T) {
	tests := []struct {
		name       string
		field      string
		filename   string
		content    string
		setup      func(f *fakeService)
		wantStatus int
		wantStaged int
	}{
		{
			name:       "image is stored processed and staged",
			field:      "image",
			filename:   "photo.jpg",
			wantStatus: http.StatusCreated,
			wantStaged: 1,
		},
		{
			name:       "wrong form field",
			field:      "file",
			filename:   "photo.jpg",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "markdown is rejected",
			field:      "image",
			filename:   "notes.md",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "undecodable upload is rejected",
			field:      "image",
			filename:   "photo.jpg",
			content:    "plain text",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "processing failure",
			field:      "image",
			filename:   "photo.jpg",
			setup:      func(f *fakeService) { f.processErr = assert.AnError },
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "staging failure",
			field:      "image",
			filename:   "photo.jpg",
			setup:      func(f *fakeService) { f.stageErr = assert.AnError },
			wantStatus: http.StatusInternalServerError,
			wantStaged: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newFakeService()
			if tt.setup != nil {
				tt.setup(svc)
			}
			router := newRouter(svc)

			content := tt.content
			if content == "" {
				content = "jpeg-bytes"
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, uploadRequest(t, tt.field, tt.filename, content))

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.wantStaged, svc.staged)

			if tt.wantStatus == http.StatusCreated {
				var result entity.AssetResult
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
				assert.Equal(t, "photo.jpg", result.Name)
				assert.Equal(t, "jpeg-bytes", svc.uploaded["photo.jpg"])
			} else if tt.wantStaged == 0 {
				assert.Empty(t, svc.uploaded)
			}
		})
	}
}

func TestGetAsset(t *testing.T) {
	svc := newFakeService()
	svc.uploaded["photo.jpg"] = "x"
	router := newRouter(svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/assets/photo.jpg", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/assets/missing.jpg", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRunBatch(t *testing.T) {
	svc := newFakeService()
	router := newRouter(svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/runs", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var report entity.RunReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, "run-1", report.RunID)

	svc.runErr = fmt.Errorf("tier small: %w", entity.ErrOutputDirMissing)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/runs", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "output directory does not exist")
}

func TestHealth(t *testing.T) {
	router := newRouter(newFakeService())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}
