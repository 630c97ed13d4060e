package reliability

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/aristath/appa/internal/database"
	testingpkg "github.com/aristath/appa/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory ObjectStore
type memStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploadErr error
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (m *memStore) Upload(_ context.Context, key string, body io.Reader) error {
	if m.uploadErr != nil {
		return m.uploadErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memStore) List(_ context.Context, prefix string) ([]ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ObjectInfo
	for k, v := range m.objects {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			out = append(out, ObjectInfo{Key: k, Size: int64(len(v))})
		}
	}
	return out, nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memStore) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func readArchive(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	gz, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	files := make(map[string][]byte)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		body, err := io.ReadAll(tr)
		require.NoError(t, err)
		files[hdr.Name] = body
	}
	return files
}

func TestCreateAndUploadBackup(t *testing.T) {
	portfolioDB, cleanupPortfolio := testingpkg.NewTestDB(t, "portfolio")
	defer cleanupPortfolio()
	ledgerDB, cleanupLedger := testingpkg.NewTestDB(t, "ledger")
	defer cleanupLedger()

	store := newMemStore()
	svc := NewBackupService(store, []*database.DB{portfolioDB, ledgerDB}, t.TempDir(), "appa-backup-", zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2026, 10, 16, 2, 0, 0, 0, time.UTC) }

	key, err := svc.CreateAndUploadBackup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "appa-backup-2026-10-16-020000.tar.gz", key)
	require.Equal(t, []string{key}, store.keys())

	files := readArchive(t, store.objects[key])
	assert.Contains(t, files, "portfolio.db")
	assert.Contains(t, files, "ledger.db")
	require.Contains(t, files, metadataFilename)

	var metadata BackupMetadata
	require.NoError(t, json.Unmarshal(files[metadataFilename], &metadata))
	require.Len(t, metadata.Databases, 2)
	assert.Equal(t, "portfolio", metadata.Databases[0].Name)
	assert.Equal(t, int64(len(files["portfolio.db"])), metadata.Databases[0].SizeBytes)
	assert.Contains(t, metadata.Databases[0].Checksum, "sha256:")
}

func TestCreateAndUploadBackup_UploadFails(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "cache")
	defer cleanup()

	store := newMemStore()
	store.uploadErr = errors.New("bucket gone")
	svc := NewBackupService(store, []*database.DB{db}, t.TempDir(), "appa-backup-", zerolog.Nop())

	_, err := svc.CreateAndUploadBackup(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket gone")
}

func TestListAndRotateBackups(t *testing.T) {
	store := newMemStore()
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	for _, daysAgo := range []int{0, 1, 2, 40, 50} {
		key := "appa-backup-" + now.AddDate(0, 0, -daysAgo).Format(backupTimestampLayout) + backupSuffix
		store.objects[key] = []byte("x")
	}
	store.objects["appa-backup-garbage.tar.gz"] = []byte("x")
	store.objects["other-2026-10-16-120000.tar.gz"] = []byte("x")

	svc := NewBackupService(store, nil, t.TempDir(), "appa-backup-", zerolog.Nop())
	svc.now = func() time.Time { return now }

	backups, err := svc.ListBackups(context.Background())
	require.NoError(t, err)
	require.Len(t, backups, 5)
	assert.True(t, backups[0].Timestamp.Equal(now))
	assert.Equal(t, int64(24), backups[1].AgeHours)

	deleted, err := svc.RotateOldBackups(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	backups, err = svc.ListBackups(context.Background())
	require.NoError(t, err)
	assert.Len(t, backups, 3)
}

func TestRotateOldBackups_KeepsMinimum(t *testing.T) {
	store := newMemStore()
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	for _, daysAgo := range []int{100, 200, 300} {
		key := "appa-backup-" + now.AddDate(0, 0, -daysAgo).Format(backupTimestampLayout) + backupSuffix
		store.objects[key] = []byte("x")
	}

	svc := NewBackupService(store, nil, t.TempDir(), "appa-backup-", zerolog.Nop())
	svc.now = func() time.Time { return now }

	deleted, err := svc.RotateOldBackups(context.Background(), 30)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	deleted, err = svc.RotateOldBackups(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, deleted)
	assert.Len(t, store.keys(), 3)
}
