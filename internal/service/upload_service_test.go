package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scas-api/internal/models"
	appErrors "github.com/noah-isme/scas-api/pkg/errors"
	"github.com/noah-isme/scas-api/pkg/jobs"
)

type fakeReplacer struct {
	columns    []string
	rows       []models.Row
	added      []string
	failAfter  int
	replaceErr error
}

func (f *fakeReplacer) AddColumns(_ context.Context, _ models.Entity, columns []string) ([]string, error) {
	f.added = append(f.added, columns...)
	return nil, nil
}

func (f *fakeReplacer) ReplaceAll(_ context.Context, _ models.Entity, columns []string, rows []models.Row) (int, error) {
	f.columns = columns
	if f.replaceErr != nil {
		f.rows = rows[:f.failAfter]
		return f.failAfter, f.replaceErr
	}
	f.rows = rows
	return len(rows), nil
}

type fakeBlob struct {
	objects map[string][]byte
	err     error
}

func (b *fakeBlob) Driver() string { return "fake" }

func (b *fakeBlob) Put(_ context.Context, key string, body io.Reader, _ string) error {
	if b.err != nil {
		return b.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if b.objects == nil {
		b.objects = map[string][]byte{}
	}
	b.objects[key] = data
	return nil
}

type fakeDispatcher struct {
	jobs []jobs.Job
	err  error
}

func (d *fakeDispatcher) Enqueue(job jobs.Job) error {
	if d.err != nil {
		return d.err
	}
	d.jobs = append(d.jobs, job)
	return nil
}

const studentCSV = "StudentID,Name,Program,Year,CGPA,Status,Notes\n" +
	"S1,Anu,BSc,2,8.5,Active,\n" +
	"S2,Bo,BA,,abc,Graduated,transfer\n" +
	"S3,Cy,BSc,4,6,Active,\n" +
	"S4,Di,BCom,1,7.25,Dropped,\n" +
	"S5,Ed,BA,3,9,Active,\n" +
	"S6,Fa,BSc,2,5.5,Active,\n"

func TestUploadServicePreview(t *testing.T) {
	svc := NewUploadService(UploadServiceParams{Store: &fakeReplacer{}})

	resp, err := svc.Preview(context.Background(), models.EntityStudents, "students.csv", []byte(studentCSV))
	require.NoError(t, err)
	assert.Equal(t, "csv", resp.Format)
	assert.Equal(t, 6, resp.RowCount)
	require.Len(t, resp.Rows, 5)
	assert.Equal(t, "Anu", resp.Rows[0]["Name"])
	assert.Equal(t, []string{"Notes"}, resp.Unknown)
	assert.Contains(t, resp.Missing, "AttendancePercent")
	assert.NotContains(t, resp.Missing, "Year")
}

func TestUploadServiceCommitReplacesInFileOrder(t *testing.T) {
	store := &fakeReplacer{}
	blob := &fakeBlob{}
	cacheRepo := newStubCacheRepo()
	metrics := NewMetricsService()
	svc := NewUploadService(UploadServiceParams{
		Store:   store,
		Archive: blob,
		Cache:   NewCacheService(cacheRepo, nil, 0, nil, true),
		Metrics: metrics,
	})
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }

	resp, err := svc.Commit(context.Background(), models.EntityStudents, "my students.csv", []byte(studentCSV))
	require.NoError(t, err)
	assert.Equal(t, 6, resp.RowsWritten)
	assert.True(t, resp.Archived)
	assert.True(t, strings.HasPrefix(resp.ArchiveKey, "uploads/students/2024/06/01/"))
	assert.True(t, strings.HasSuffix(resp.ArchiveKey, "-my_students.csv"))
	assert.Equal(t, []byte(studentCSV), blob.objects[resp.ArchiveKey])

	assert.Equal(t, []string{"StudentID", "Name", "Program", "Year", "CGPA", "Status", "Notes"}, store.columns)
	assert.Equal(t, store.columns, store.added)
	require.Len(t, store.rows, 6)
	assert.Equal(t, "S1", store.rows[0]["StudentID"])
	assert.Equal(t, 2, store.rows[0]["Year"])
	assert.Equal(t, 8.5, store.rows[0]["CGPA"])
	assert.Nil(t, store.rows[0]["Notes"])
	assert.Nil(t, store.rows[1]["Year"])
	assert.Nil(t, store.rows[1]["CGPA"])
	assert.Equal(t, "transfer", store.rows[1]["Notes"])
	assert.Equal(t, "S6", store.rows[5]["StudentID"])

	assert.Equal(t, []string{"scas:kpi:*"}, cacheRepo.patterns)
	assert.Equal(t, uint64(6), metrics.Snapshot().RowsUploaded)
}

func TestUploadServiceCommitQueuesArchive(t *testing.T) {
	blob := &fakeBlob{}
	queue := &fakeDispatcher{}
	svc := NewUploadService(UploadServiceParams{Store: &fakeReplacer{}, Archive: blob, Queue: queue})

	resp, err := svc.Commit(context.Background(), models.EntityFacilities, "f.csv", []byte("FacilityID,Capacity\nF1,10\n"))
	require.NoError(t, err)
	assert.True(t, resp.Archived)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, JobTypeArchiveUpload, queue.jobs[0].Type)
	assert.Empty(t, blob.objects)

	require.NoError(t, svc.HandleArchiveJob(context.Background(), queue.jobs[0]))
	assert.Equal(t, []byte("FacilityID,Capacity\nF1,10\n"), blob.objects[resp.ArchiveKey])

	err = svc.HandleArchiveJob(context.Background(), jobs.Job{ID: "x", Payload: "nope"})
	assert.Error(t, err)
}

func TestUploadServiceArchiveFallsBackInline(t *testing.T) {
	blob := &fakeBlob{}
	queue := &fakeDispatcher{err: errors.New("queue stopped")}
	svc := NewUploadService(UploadServiceParams{Store: &fakeReplacer{}, Archive: blob, Queue: queue})

	resp, err := svc.Commit(context.Background(), models.EntityFaculty, "f.csv", []byte("FacultyID\nFAC1\n"))
	require.NoError(t, err)
	assert.True(t, resp.Archived)
	assert.Len(t, blob.objects, 1)
}

func TestUploadServiceArchiveFailureDoesNotFailCommit(t *testing.T) {
	svc := NewUploadService(UploadServiceParams{Store: &fakeReplacer{}, Archive: &fakeBlob{err: errors.New("denied")}})

	resp, err := svc.Commit(context.Background(), models.EntityFaculty, "f.csv", []byte("FacultyID\nFAC1\n"))
	require.NoError(t, err)
	assert.False(t, resp.Archived)
	assert.Equal(t, 1, resp.RowsWritten)
}

func TestUploadServiceCommitPartialFailure(t *testing.T) {
	store := &fakeReplacer{replaceErr: errors.New("duplicate key"), failAfter: 1}
	metrics := NewMetricsService()
	svc := NewUploadService(UploadServiceParams{Store: store, Metrics: metrics})

	_, err := svc.Commit(context.Background(), models.EntityStudents, "s.csv", []byte(studentCSV))
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrInternal.Status, appErr.Status)
	assert.Contains(t, appErr.Message, "after 1 of 6 rows")
	assert.Equal(t, uint64(1), metrics.Snapshot().RowsUploaded)
}

func TestUploadServiceRejectsBadFiles(t *testing.T) {
	svc := NewUploadService(UploadServiceParams{Store: &fakeReplacer{}, Config: UploadServiceConfig{MaxFileSize: 16}})
	ctx := context.Background()

	_, err := svc.Preview(ctx, models.EntityStudents, "s.txt", []byte("a"))
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrUnsupportedFile.Code, appErr.Code)

	_, err = svc.Commit(ctx, models.EntityStudents, "s.csv", bytes.Repeat([]byte("a"), 17))
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrPayloadTooLarge.Code, appErr.Code)

	_, err = svc.Commit(ctx, models.Entity("courses"), "s.csv", []byte("a\n1\n"))
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrUnknownEntity.Code, appErr.Code)
}
