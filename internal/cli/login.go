package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/mkarpins/docsync/internal/blob"
	"github.com/mkarpins/docsync/internal/filex"
	"github.com/mkarpins/docsync/internal/identity"
	"github.com/mkarpins/docsync/internal/remote"
	"github.com/mkarpins/docsync/internal/retryx"
	"github.com/mkarpins/docsync/internal/store"
	"github.com/mkarpins/docsync/internal/sync"
)

// getSecret is an indirection used to facilitate testing.
var getSecret = GetSecret

// Login prompts for an access token, derives the owner identity from it and
// wires the per-owner store, remote backends and sync orchestrator. A
// finishing touch runs the identifier migration and tombstone purge, both of
// which tolerate being offline.
func (a *App) Login(ctx context.Context) error {
	if a.isLoggedIn() {
		fmt.Println("Already logged in, logout first.")
		return nil
	}

	token, err := getSecret("Paste access token", os.Stdout)
	if err != nil {
		return err
	}
	tokenStr := string(token)

	idp := identity.NewBearerProvider(func(ctx context.Context) (string, error) {
		return tokenStr, nil
	})
	ownerID, err := idp.CurrentOwnerID(ctx)
	if err != nil {
		fmt.Println("Login failed:", err.Error())
		return err
	}

	if _, err := filex.EnsureDir(a.config.DataDir); err != nil {
		return err
	}
	st, err := store.Open(ctx, a.config.DataDir, ownerID, a.log)
	if err != nil {
		return err
	}

	rem, err := remote.NewDynamoStore(ctx, remote.DynamoConfig{
		Region:   a.config.AWSRegion,
		Endpoint: a.config.AWSEndpoint,
		Table:    a.config.DynamoTable,
	})
	if err != nil {
		_ = st.Close()
		return err
	}
	blobs, err := blob.NewS3Store(ctx, blob.S3Config{
		Region:   a.config.AWSRegion,
		Endpoint: a.config.AWSEndpoint,
		Bucket:   a.config.S3Bucket,
	})
	if err != nil {
		_ = st.Close()
		return err
	}

	q := sync.NewQueue(st, a.log)
	q.SetParallelism(a.config.SyncParallelism)
	q.SetMaxAttempts(a.config.RetryMaxAttempts)

	policy := retryx.Policy{
		MaxAttempts: uint64(a.config.RetryMaxAttempts),
		BaseDelay:   a.config.RetryBaseDelay,
		Jitter:      a.config.RetryBaseDelay / 2,
	}
	orch := sync.NewOrchestrator(st, q, rem, blobs, idp, sync.Options{
		Policy:    policy,
		AttachDir: a.config.AttachDir,
		Logger:    a.log,
	})

	a.ownerID = ownerID
	a.store = st
	a.queue = q
	a.svc = sync.NewService(st, q, a.log)
	a.orch = orch
	a.setMode(ModeOffline)

	if err := sync.NewMigrator(st, q, rem, idp, a.log).Run(ctx); err != nil {
		a.log.Warn(ctx, "identifier migration incomplete", "err", err)
	}
	if _, err := sync.NewTombstoneTracker(st, a.log).PurgeOlderThan(ctx, a.config.TombstoneHorizon); err != nil {
		a.log.Warn(ctx, "tombstone purge failed", "err", err)
	}

	fmt.Printf("Logged in as %s\n", ownerID)
	return nil
}

// Logout closes the store and drops the wired services. Pending queue
// entries stay on disk and are pushed on the next login's sync.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		return nil
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn(ctx, "failed to close store", "err", err)
	}
	a.store = nil
	a.queue = nil
	a.svc = nil
	a.orch = nil
	a.ownerID = ""
	a.setMode(ModeSignedOut)
	fmt.Println("Logged out.")
	return nil
}
