package entity

import "errors"

var (
	// Filesystem errors
	ErrSourceDirMissing = errors.New("source directory does not exist")
	ErrOutputDirMissing = errors.New("output directory does not exist")
	ErrAssetNotFound    = errors.New("asset not found")

	// Input errors
	ErrInvalidAssetName = errors.New("invalid asset name")
	ErrIgnoredAsset     = errors.New("asset is excluded from resizing")
	ErrInvalidImage     = errors.New("not a decodable image")

	// Tier errors
	ErrInvalidTier       = errors.New("invalid tier")
	ErrUnsupportedPolicy = errors.New("unsupported resize policy")
)
