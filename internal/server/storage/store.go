// Package storage is the project store engine. Every public operation runs
// as a job through RunJob, which retries the whole job on optimistic
// concurrency conflicts. File content is split between the document store
// (inline) and an overflow blob store, file roles and owners are guarded,
// and project modification dates are coalesced.
//
// A Store is built once with New and is safe for concurrent use.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/logging"
	"github.com/dmitrijs2005/gophstore/internal/server/blobstore"
	"github.com/dmitrijs2005/gophstore/internal/server/config"
	"github.com/dmitrijs2005/gophstore/internal/server/links"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Options configure a Store. Manager, Blobs and Config are required.
type Options struct {
	Manager repomanager.RepositoryManager
	// Blobs receives content at or above Config.InlineThreshold.
	Blobs blobstore.Store
	// Archive receives copies made by ArchiveProjectFile. Optional.
	Archive blobstore.Store
	Config  *config.Config
	Logger  logging.Logger
	// Now defaults to time.Now.
	Now func() time.Time
	// NewID generates blob key segments and reset token ids. Defaults to
	// uuid.NewString.
	NewID func() string
}

type Store struct {
	repos   repomanager.RepositoryManager
	blobs   blobstore.Store
	archive blobstore.Store
	cfg     *config.Config
	logger  logging.Logger
	now     func() time.Time
	newID   func() string
	links   *links.Signer
	records *cache.Cache
}

func New(opts Options) (*Store, error) {
	if opts.Manager == nil {
		return nil, errors.New("storage: repository manager is required")
	}
	if opts.Blobs == nil {
		return nil, errors.New("storage: blob store is required")
	}
	if opts.Config == nil {
		return nil, errors.New("storage: config is required")
	}
	if opts.Config.MaxJobAttempts < 1 {
		return nil, errors.New("storage: MaxJobAttempts must be positive")
	}

	s := &Store{
		repos:   opts.Manager,
		blobs:   opts.Blobs,
		archive: opts.Archive,
		cfg:     opts.Config,
		logger:  opts.Logger,
		now:     opts.Now,
		newID:   opts.NewID,
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	s.logger = s.logger.With("module", "storage")
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	s.links = links.NewSigner([]byte(opts.Config.SecretKey), s.now)
	s.records = cache.New(opts.Config.SettingsCacheTTL, 2*opts.Config.BackpackCacheTTL)

	return s, nil
}

// Config returns the configuration the store was built with.
func (s *Store) Config() *config.Config {
	return s.cfg
}

// Ping runs a read job against the repositories.
func (s *Store) Ping(ctx context.Context) error {
	_, err := RunJob(ctx, s, false, func(ctx context.Context, a *Attempt) (struct{}, error) {
		_, err := a.Repos.Records().Get(ctx, models.KindMotd, "")
		if errors.Is(err, common.ErrorNotFound) {
			return struct{}{}, nil
		}
		return struct{}{}, err
	})
	return err
}
