package store

import "context"

// BlobMirror replicates a raw blob to off-site storage after ingest. It is
// purely additive: a mirror failure is logged by the caller and never
// blocks or rolls back the ingest that triggered it, since the filesystem
// tree under storage.root remains the sole source of truth (§5).
type BlobMirror interface {
	Mirror(ctx context.Context, sha256 string, data []byte) error
}

// MirrorSet fans a blob out to every configured mirror, collecting
// (not aborting on) individual failures.
type MirrorSet struct {
	Mirrors []BlobMirror
}

func (m *MirrorSet) Mirror(ctx context.Context, sha256 string, data []byte) []error {
	var errs []error
	for _, mirror := range m.Mirrors {
		if err := mirror.Mirror(ctx, sha256, data); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
