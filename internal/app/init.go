package app

import (
	"context"
	"fmt"

	"feedgrid/internal/blobstore"
	"feedgrid/internal/config"
	"feedgrid/internal/database"
	"feedgrid/internal/encryption"
	"feedgrid/internal/preview"
)

// InitResult reports what Init set up.
type InitResult struct {
	DatabasePath string
	KeysCreated  bool
}

// Init prepares storage for cfg: it migrates the database, checks that the
// blob store is reachable, creates the preview directory and, when age
// encryption is configured without keys, generates a key pair protected by
// the passphrase. Running Init again is safe.
func Init(ctx context.Context, cfg *config.Config, passphrase func() (string, error)) (*InitResult, error) {
	db, err := database.NewDatabaseFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	res := &InitResult{DatabasePath: db.Path()}

	blobs, err := blobstore.NewBlobStoreFromConfig(ctx, cfg.BlobStore)
	if err != nil {
		return nil, fmt.Errorf("creating blob store: %w", err)
	}
	if err := blobs.ValidateSetup(ctx); err != nil {
		return nil, fmt.Errorf("validating blob store: %w", err)
	}

	if _, err := preview.NewHandleFactoryFromConfig(cfg.Preview); err != nil {
		return nil, fmt.Errorf("creating preview handles: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}
	if enc != nil && !enc.IsConfigured() {
		if passphrase == nil {
			return nil, fmt.Errorf("encryption configured but no passphrase source was given")
		}
		pass, err := passphrase()
		if err != nil {
			return nil, fmt.Errorf("reading passphrase: %w", err)
		}
		if err := enc.Setup(pass); err != nil {
			return nil, fmt.Errorf("setting up encryption keys: %w", err)
		}
		res.KeysCreated = true
	}

	return res, nil
}
