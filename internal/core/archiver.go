package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SeuMarco/program/internal/config"
	"github.com/SeuMarco/program/internal/infra/archive"
	archivefs "github.com/SeuMarco/program/internal/infra/archive/fs"
	archivememory "github.com/SeuMarco/program/internal/infra/archive/memory"
	archives3 "github.com/SeuMarco/program/internal/infra/archive/s3"
	"github.com/SeuMarco/program/internal/infra/persistence/memory"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// OpenArchive selects the snapshot archive backend from cfg. An empty driver
// selects the filesystem.
func OpenArchive(ctx context.Context, cfg config.Archive) (archive.Store, error) {
	driver := archive.Driver(cfg.Driver)
	if driver == "" {
		driver = archive.DriverFilesystem
	}
	switch driver {
	case archive.DriverFilesystem:
		store, err := archivefs.New(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return store, nil
	case archive.DriverMemory:
		return archivememory.New(), nil
	case archive.DriverS3:
		store, err := archives3.New(ctx, archives3.Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			PathStyle:       cfg.S3PathStyle,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown archive driver %s", cfg.Driver)
	}
}

const (
	snapshotFormatVersion = 1
	snapshotContentType   = "application/json"
	snapshotPrefix        = "snapshots/"
)

type snapshotEnvelope struct {
	Version   int             `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	State     memory.Snapshot `json:"state"`
}

// SnapshotArchiver copies whole store snapshots to and from an archive.
type SnapshotArchiver struct {
	store  SnapshotStore
	blobs  archive.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewSnapshotArchiver pairs store with blobs. A nil logger logs nothing.
func NewSnapshotArchiver(store SnapshotStore, blobs archive.Store, logger *zap.Logger) *SnapshotArchiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotArchiver{store: store, blobs: blobs, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Push exports the store state under key. An empty key derives one from the
// current time below "snapshots/".
func (a *SnapshotArchiver) Push(ctx context.Context, key string) (archive.Info, error) {
	now := a.now()
	if key == "" {
		key = snapshotPrefix + now.Format("20060102T150405.000000000Z") + ".json"
	}
	payload, err := json.MarshalIndent(snapshotEnvelope{
		Version:   snapshotFormatVersion,
		CreatedAt: now,
		State:     a.store.ExportState(),
	}, "", "  ")
	if err != nil {
		return archive.Info{}, errors.Wrap(err, "encode snapshot")
	}
	info, err := a.blobs.Put(ctx, key, bytes.NewReader(payload), snapshotContentType)
	if err != nil {
		return archive.Info{}, errors.Wrapf(err, "push snapshot %s", key)
	}
	a.logger.Info("snapshot pushed",
		zap.String("key", info.Key),
		zap.String("driver", string(a.blobs.Driver())),
		zap.Int64("size_bytes", info.Size),
	)
	return info, nil
}

// Restore replaces the store state with the snapshot stored under key.
func (a *SnapshotArchiver) Restore(ctx context.Context, key string) error {
	_, body, err := a.blobs.Get(ctx, key)
	if err != nil {
		return errors.Wrapf(err, "fetch snapshot %s", key)
	}
	defer func() { _ = body.Close() }()
	var envelope snapshotEnvelope
	if err := json.NewDecoder(body).Decode(&envelope); err != nil {
		return errors.Wrapf(err, "decode snapshot %s", key)
	}
	if envelope.Version != snapshotFormatVersion {
		return fmt.Errorf("snapshot %s has unsupported version %d", key, envelope.Version)
	}
	if err := a.store.Restore(ctx, envelope.State); err != nil {
		return errors.Wrapf(err, "restore snapshot %s", key)
	}
	a.logger.Info("snapshot restored", zap.String("key", key), zap.Time("created_at", envelope.CreatedAt))
	return nil
}

// List returns the archived snapshots.
func (a *SnapshotArchiver) List(ctx context.Context) ([]archive.Info, error) {
	return a.blobs.List(ctx, snapshotPrefix)
}
