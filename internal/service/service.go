package service

import (
	"context"
	"io"
	"sync"

	"github.com/tallyfy/denizen-assets/internal/database"
	"github.com/tallyfy/denizen-assets/internal/entity"
	"github.com/tallyfy/denizen-assets/internal/pkg/kafka"
	"github.com/tallyfy/denizen-assets/internal/pkg/processor"
	"github.com/tallyfy/denizen-assets/internal/pkg/stager"
	"github.com/tallyfy/denizen-assets/internal/pkg/storage"
)

type AssetService interface {
	// Run resizes every qualifying file of the source dir into all tiers,
	// then stages the tier dirs.
	Run(ctx context.Context) (*entity.RunReport, error)
	ProcessFile(ctx context.Context, name string) (*entity.AssetResult, error)
	Stage(ctx context.Context) error
	Describe(name string) (*entity.AssetResult, error)
	// Upload stores data as a new source asset and resizes it. Data that does
	// not decode is rejected before anything is written.
	Upload(ctx context.Context, name string, data io.Reader) (*entity.AssetResult, error)
	Ignores(name string) bool
}

type Options struct {
	SourceDir        string
	SkipSuffixes     []string
	Tiers            []entity.Tier
	CreateOutputDirs bool
	ContinueOnError  bool
}

type assetService struct {
	opts      Options
	storage   storage.FileStorage
	processor processor.ImageProcessor
	stager    stager.Stager
	producer  kafka.Producer
	cache     database.DigestCache

	// watch and serve share one service; runs never overlap
	mu sync.Mutex
}

func NewAssetService(opts Options, storage storage.FileStorage, processor processor.ImageProcessor,
	stager stager.Stager, producer kafka.Producer, cache database.DigestCache) AssetService {
	if producer == nil {
		producer = kafka.NewNoopProducer()
	}
	if cache == nil {
		cache = database.NewNoopDigestCache()
	}
	return &assetService{
		opts:      opts,
		storage:   storage,
		processor: processor,
		stager:    stager,
		producer:  producer,
		cache:     cache,
	}
}
