package controllers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3montree-dev/vulnwatch/database/models"
	"github.com/l3montree-dev/vulnwatch/dtos"
	"github.com/l3montree-dev/vulnwatch/services"
	"github.com/l3montree-dev/vulnwatch/shared"
)

type fakeScanService struct {
	response dtos.ScanResponse
	err      error

	userID    uuid.UUID
	projectID uuid.UUID
	filename  string
	content   []byte
}

func (f *fakeScanService) RunScan(ctx context.Context, userID uuid.UUID, projectID uuid.UUID, filename string, content []byte) (dtos.ScanResponse, error) {
	f.userID = userID
	f.projectID = projectID
	f.filename = filename
	f.content = content
	return f.response, f.err
}

func (f *fakeScanService) GetScanResults(userID uuid.UUID, projectID uuid.UUID) ([]dtos.DependencyScanResult, error) {
	return f.response.Results, f.err
}

func (f *fakeScanService) GetScanStats(userID uuid.UUID, projectID uuid.UUID) (dtos.ScanStats, error) {
	return dtos.ScanStats{}, f.err
}

func (f *fakeScanService) GetScanHistory(userID uuid.UUID, projectID uuid.UUID) ([]dtos.ScanHistoryEntry, error) {
	return nil, f.err
}

func newScanContext(t *testing.T, userID uuid.UUID, projectID uuid.UUID, filename string, content []byte) (shared.Context, *httptest.ResponseRecorder) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetParamNames("projectID")
	ctx.SetParamValues(projectID.String())
	shared.SetSession(ctx, shared.NewSession(models.User{Model: models.Model{ID: userID}}))

	return ctx, rec
}

func TestScanEndpoint(t *testing.T) {
	userID := uuid.New()
	projectID := uuid.New()

	t.Run("should pass the upload through to the scan service", func(t *testing.T) {
		scanService := &fakeScanService{response: dtos.ScanResponse{Summary: dtos.ScanSummary{TotalDependencies: 1}}}
		controller := NewScanController(scanService)
		ctx, rec := newScanContext(t, userID, projectID, "package.json", []byte(`{"dependencies":{"lodash":"4.17.20"}}`))

		err := controller.Scan(ctx)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, userID, scanService.userID)
		assert.Equal(t, projectID, scanService.projectID)
		assert.Equal(t, "package.json", scanService.filename)
		assert.JSONEq(t, `{"dependencies":{"lodash":"4.17.20"}}`, string(scanService.content))
	})

	t.Run("should map foreign projects to 403", func(t *testing.T) {
		controller := NewScanController(&fakeScanService{err: services.ErrNotProjectOwner})
		ctx, _ := newScanContext(t, userID, projectID, "package.json", []byte(`{}`))

		err := controller.Scan(ctx)

		var httpError *echo.HTTPError
		require.ErrorAs(t, err, &httpError)
		assert.Equal(t, http.StatusForbidden, httpError.Code)
	})

	t.Run("should map empty manifests to 400", func(t *testing.T) {
		controller := NewScanController(&fakeScanService{err: services.ErrEmptyManifest})
		ctx, _ := newScanContext(t, userID, projectID, "package.json", []byte(`{}`))

		err := controller.Scan(ctx)

		var httpError *echo.HTTPError
		require.ErrorAs(t, err, &httpError)
		assert.Equal(t, http.StatusBadRequest, httpError.Code)
	})

	t.Run("should reject requests without a file", func(t *testing.T) {
		controller := NewScanController(&fakeScanService{})

		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		rec := httptest.NewRecorder()
		ctx := e.NewContext(req, rec)
		ctx.SetParamNames("projectID")
		ctx.SetParamValues(projectID.String())
		shared.SetSession(ctx, shared.NewSession(models.User{Model: models.Model{ID: userID}}))

		err := controller.Scan(ctx)

		var httpError *echo.HTTPError
		require.ErrorAs(t, err, &httpError)
		assert.Equal(t, http.StatusBadRequest, httpError.Code)
	})

	t.Run("should reject an invalid project id", func(t *testing.T) {
		controller := NewScanController(&fakeScanService{})
		ctx, _ := newScanContext(t, userID, projectID, "package.json", []byte(`{}`))
		ctx.SetParamValues("not-a-uuid")

		err := controller.Scan(ctx)

		var httpError *echo.HTTPError
		require.ErrorAs(t, err, &httpError)
		assert.Equal(t, http.StatusBadRequest, httpError.Code)
	})
}
