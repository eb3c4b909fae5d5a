package reliability

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"database/sql"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestBackupServiceDisabledWithoutClient(t *testing.T) {
	service := NewBackupService(nil, nil, t.TempDir(), zerolog.Nop())

	assert.False(t, service.Enabled())
	assert.NoError(t, service.CreateAndUploadBackup(context.Background()))

	backups, err := service.ListBackups(context.Background())
	require.NoError(t, err)
	assert.Nil(t, backups)

	assert.NoError(t, service.RotateOldBackups(context.Background(), 30))
}

func TestSnapshotDatabase(t *testing.T) {
	dir := t.TempDir()

	db, err := sql.Open("sqlite", filepath.Join(dir, "config.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO t (v) VALUES ('x')`)
	require.NoError(t, err)

	service := NewBackupService(nil, map[string]*sql.DB{"config": db}, dir, zerolog.Nop())

	snapshotPath := filepath.Join(dir, "snapshot.db")
	require.NoError(t, service.snapshotDatabase("config", snapshotPath))

	snapshot, err := sql.Open("sqlite", snapshotPath)
	require.NoError(t, err)
	defer snapshot.Close()

	var count int
	require.NoError(t, snapshot.QueryRow(`SELECT COUNT(*) FROM t`).Scan(&count))
	assert.Equal(t, 1, count)

	checksum, err := fileChecksum(snapshotPath)
	require.NoError(t, err)
	assert.Len(t, checksum, 64)
}

type fakeStore struct {
	objects  map[string][]byte
	deleted  []string
	uploaded []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (f *fakeStore) Upload(ctx context.Context, key string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.objects[key] = data
	f.uploaded = append(f.uploaded, key)
	return nil
}

func (f *fakeStore) List(ctx context.Context, prefix string) ([]types.Object, error) {
	var out []types.Object
	for key := range f.objects {
		key := key
		size := int64(len(f.objects[key]))
		out = append(out, types.Object{Key: &key, Size: &size})
	}
	return out, nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func TestCreateAndUploadBackup(t *testing.T) {
	dir := t.TempDir()

	db, err := sql.Open("sqlite", filepath.Join(dir, "config.db"))
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`CREATE TABLE t (id INTEGER PRIMARY KEY)`)
	require.NoError(t, err)

	store := newFakeStore()
	service := NewBackupService(store, map[string]*sql.DB{"config": db}, dir, zerolog.Nop())

	require.NoError(t, service.CreateAndUploadBackup(context.Background()))
	require.Len(t, store.uploaded, 1)
	assert.Contains(t, store.uploaded[0], "taxfolio-backup-")
	assert.NotEmpty(t, store.objects[store.uploaded[0]])

	backups, err := service.ListBackups(context.Background())
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Equal(t, store.uploaded[0], backups[0].Filename)
}

func TestRotateOldBackupsKeepsNewest(t *testing.T) {
	store := newFakeStore()
	// Five dated backups, all well past any retention window.
	for _, stamp := range []string{
		"2024-01-01-000000", "2024-02-01-000000", "2024-03-01-000000",
		"2024-04-01-000000", "2024-05-01-000000",
	} {
		store.objects["taxfolio-backup-"+stamp+".tar.gz"] = []byte("x")
	}

	service := NewBackupService(store, nil, t.TempDir(), zerolog.Nop())
	require.NoError(t, service.RotateOldBackups(context.Background(), 30))

	// The newest three survive regardless of age.
	assert.Len(t, store.objects, 3)
	assert.Contains(t, store.objects, "taxfolio-backup-2024-05-01-000000.tar.gz")
	assert.Contains(t, store.objects, "taxfolio-backup-2024-04-01-000000.tar.gz")
	assert.Contains(t, store.objects, "taxfolio-backup-2024-03-01-000000.tar.gz")
}

func TestCreateArchiveRoundTrip(t *testing.T) {
	dir := t.TempDir()

	filePath := filepath.Join(dir, "config.db")
	require.NoError(t, os.WriteFile(filePath, []byte("database bytes"), 0o644))

	archivePath := filepath.Join(dir, "backup.tar.gz")
	require.NoError(t, createArchive(archivePath, []string{filePath}))

	f, err := os.Open(archivePath)
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	header, err := tr.Next()
	require.NoError(t, err)
	assert.Equal(t, "config.db", header.Name)

	content, err := io.ReadAll(tr)
	require.NoError(t, err)
	assert.Equal(t, []byte("database bytes"), content)
}
