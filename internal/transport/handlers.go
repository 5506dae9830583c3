package transport

import (
	"github.com/tallyfy/denizen-assets/internal/service"
)

type AssetHandler struct {
	service   service.AssetService
	maxUpload int64
}

func NewAssetHandler(service service.AssetService, maxUpload int64) *AssetHandler {
	return &AssetHandler{service: service, maxUpload: maxUpload}
}
