package service

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/maintenance-api/internal/models"
	appErrors "github.com/noah-isme/maintenance-api/pkg/errors"
	"github.com/noah-isme/maintenance-api/pkg/storage"
)

func newAttachmentEnv(t *testing.T, maxSize int64) (*testEnv, *AttachmentService, *models.RequestDetail) {
	t.Helper()
	env := newTestEnv(t)
	creator := env.user(t, "c@example.com", models.RoleAdmin)
	team := env.team(t, nil)
	eq := env.equip(t, "SN-1", team.ID, models.CategoryMachinery)
	req := env.request(t, eq.ID, creator.ID)

	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	svc := NewAttachmentService(env.store.Requests, files, storage.NewSignedURLSigner("secret", time.Minute), env.events, AttachmentConfig{
		APIPrefix:    "/api/v1",
		MaxFileSize:  maxSize,
		AllowedMIMEs: []string{"application/pdf", "text/plain"},
	}, zap.NewNop())
	return env, svc, req
}

func TestAttachmentServiceUploadLinkResolve(t *testing.T) {
	_, svc, req := newAttachmentEnv(t, 1024)
	ctx := context.Background()

	updated, err := svc.Upload(ctx, req.ID, Upload{FileName: "../report.txt", ContentType: "text/plain; charset=utf-8", Body: strings.NewReader("pump ok")})
	require.NoError(t, err)
	require.Len(t, updated.Attachments, 1)
	assert.Equal(t, "report.txt", updated.Attachments[0].FileName)

	link, err := svc.Link(ctx, req.ID, 0)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link.URL, "/api/v1/files/download?token="))

	parsed, err := url.Parse(link.URL)
	require.NoError(t, err)
	file, name, err := svc.Resolve(parsed.Query().Get("token"))
	require.NoError(t, err)
	defer file.Close()
	body, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, "pump ok", string(body))
	assert.True(t, strings.HasSuffix(name, ".txt"))
}

func TestAttachmentServiceRejectsBadUploads(t *testing.T) {
	_, svc, req := newAttachmentEnv(t, 4)
	ctx := context.Background()

	_, err := svc.Upload(ctx, req.ID, Upload{FileName: "a.exe", ContentType: "application/octet-stream", Body: strings.NewReader("x")})
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)

	_, err = svc.Upload(ctx, req.ID, Upload{FileName: "big.txt", ContentType: "text/plain", Body: bytes.NewReader(make([]byte, 10))})
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)

	_, err = svc.Upload(ctx, "missing", Upload{FileName: "a.txt", ContentType: "text/plain", Body: strings.NewReader("x")})
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)

	_, err = svc.Link(ctx, req.ID, 3)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)

	_, _, err = svc.Resolve("not-a-token")
	assert.Equal(t, http.StatusForbidden, appErrors.FromError(err).Status)
}
