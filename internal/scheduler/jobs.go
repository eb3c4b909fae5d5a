package scheduler

import (
	"context"
	"time"

	"github.com/aristath/taxfolio/internal/database"
	"github.com/aristath/taxfolio/internal/reliability"
	"github.com/aristath/taxfolio/internal/snapshots"
)

// SnapshotCleanupJob deletes expired analysis snapshots from the cache
type SnapshotCleanupJob struct {
	store *snapshots.Store
}

// NewSnapshotCleanupJob creates the cleanup job
func NewSnapshotCleanupJob(store *snapshots.Store) *SnapshotCleanupJob {
	return &SnapshotCleanupJob{store: store}
}

// Run deletes expired snapshots
func (j *SnapshotCleanupJob) Run() error {
	_, err := j.store.CleanupExpired()
	return err
}

// Name returns the job name
func (j *SnapshotCleanupJob) Name() string {
	return "snapshot_cleanup"
}

// BackupJob uploads a database backup and rotates old ones
type BackupJob struct {
	service       *reliability.BackupService
	retentionDays int
	timeout       time.Duration
}

// NewBackupJob creates the backup job
func NewBackupJob(service *reliability.BackupService, retentionDays int) *BackupJob {
	return &BackupJob{
		service:       service,
		retentionDays: retentionDays,
		timeout:       10 * time.Minute,
	}
}

// Run creates and uploads a backup, then rotates old backups
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if err := j.service.CreateAndUploadBackup(ctx); err != nil {
		return err
	}
	return j.service.RotateOldBackups(ctx, j.retentionDays)
}

// Name returns the job name
func (j *BackupJob) Name() string {
	return "database_backup"
}

// WALCheckpointJob truncates the write-ahead logs so they do not grow
// unbounded between restarts.
type WALCheckpointJob struct {
	databases []*database.DB
}

// NewWALCheckpointJob creates the checkpoint job
func NewWALCheckpointJob(databases ...*database.DB) *WALCheckpointJob {
	return &WALCheckpointJob{databases: databases}
}

// Run checkpoints every database
func (j *WALCheckpointJob) Run() error {
	for _, db := range j.databases {
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			return err
		}
	}
	return nil
}

// Name returns the job name
func (j *WALCheckpointJob) Name() string {
	return "wal_checkpoint"
}
