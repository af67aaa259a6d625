package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scas-api/internal/dto"
	"github.com/noah-isme/scas-api/internal/editor"
	"github.com/noah-isme/scas-api/internal/models"
	appErrors "github.com/noah-isme/scas-api/pkg/errors"
)

type recordServiceMock struct {
	lastEntity models.Entity
	lastKey    string
	lastForm   editor.Form
	err        error
}

func (m *recordServiceMock) List(ctx context.Context, entity models.Entity) (*dto.RecordListResponse, error) {
	m.lastEntity = entity
	if m.err != nil {
		return nil, m.err
	}
	return &dto.RecordListResponse{Entity: entity, Columns: []string{"StudentID"}, Rows: []models.Row{{"StudentID": "STU1"}}, Count: 1}, nil
}

func (m *recordServiceMock) Get(ctx context.Context, entity models.Entity, key string) (*dto.RecordResponse, error) {
	m.lastEntity, m.lastKey = entity, key
	if m.err != nil {
		return nil, m.err
	}
	return &dto.RecordResponse{Entity: entity, Key: key}, nil
}

func (m *recordServiceMock) Create(ctx context.Context, entity models.Entity, form editor.Form) (*dto.RecordResponse, error) {
	m.lastEntity, m.lastForm = entity, form
	if m.err != nil {
		return nil, m.err
	}
	return &dto.RecordResponse{Entity: entity, Key: "FAC20240305102030", Created: true}, nil
}

func (m *recordServiceMock) Update(ctx context.Context, entity models.Entity, key string, form editor.Form) (*dto.RecordResponse, error) {
	m.lastEntity, m.lastKey, m.lastForm = entity, key, form
	if m.err != nil {
		return nil, m.err
	}
	return &dto.RecordResponse{Entity: entity, Key: key}, nil
}

func newRecordRouter(svc recordService, entity models.Entity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewRecordHandler(svc, entity)
	r := gin.New()
	group := r.Group("/" + string(entity))
	group.GET("", h.List)
	group.GET("/:id", h.Get)
	group.POST("", h.Create)
	group.PUT("/:id", h.Update)
	return r
}

func TestRecordHandlerList(t *testing.T) {
	svc := &recordServiceMock{}
	r := newRecordRouter(svc, models.EntityStudents)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/students", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.EntityStudents, svc.lastEntity)
	resp := decodeEnvelope(t, w)
	assert.Equal(t, float64(1), resp.Meta["total"])
	assert.Equal(t, float64(1), resp.Data["count"])
}

func TestRecordHandlerCreate(t *testing.T) {
	svc := &recordServiceMock{}
	r := newRecordRouter(svc, models.EntityFaculty)

	body := bytes.NewBufferString(`{"Name":"Asha","ExperienceYears":4.5}`)
	req := httptest.NewRequest(http.MethodPost, "/faculty", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Asha", svc.lastForm["Name"])
	assert.Equal(t, 4.5, svc.lastForm["ExperienceYears"])
	resp := decodeEnvelope(t, w)
	assert.Equal(t, true, resp.Data["created"])
}

func TestRecordHandlerCreateInvalidJSON(t *testing.T) {
	svc := &recordServiceMock{}
	r := newRecordRouter(svc, models.EntityFaculty)

	req := httptest.NewRequest(http.MethodPost, "/faculty", bytes.NewBufferString(`{"Name":`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, svc.lastForm)
}

func TestRecordHandlerUpdateNotFound(t *testing.T) {
	svc := &recordServiceMock{err: appErrors.Clone(appErrors.ErrNotFound, "facilities record FCL9 not found")}
	r := newRecordRouter(svc, models.EntityFacilities)

	req := httptest.NewRequest(http.MethodPut, "/facilities/FCL9", bytes.NewBufferString(`{"Capacity":10}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "FCL9", svc.lastKey)
	resp := decodeEnvelope(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestRecordHandlerGet(t *testing.T) {
	svc := &recordServiceMock{}
	r := newRecordRouter(svc, models.EntityStudents)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/students/STU1", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "STU1", svc.lastKey)
}
