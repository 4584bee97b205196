package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/rajuvisuals/storefront/lib/mycache"
	"github.com/rajuvisuals/storefront/lib/myerrors"
	"github.com/rajuvisuals/storefront/lib/mylog"
	"github.com/rajuvisuals/storefront/lib/mystore"
	"github.com/rajuvisuals/storefront/services/storeapi"
)

const (
	assetListCacheKey = "assets"
)

type service struct {
	assetStore mystore.Store[storeapi.Asset]
	assetCache mycache.Cache[[]storeapi.Asset]
	logger     mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(assetStore mystore.Store[storeapi.Asset], assetCache mycache.Cache[[]storeapi.Asset], logger mylog.Logger) *service {
	return &service{
		assetStore: assetStore,
		assetCache: assetCache,
		logger:     logger,
	}
}

// listAssets serves the asset-list from cache when possible: the catalog is
// read-mostly and every page-view fetches it.
func (s *service) listAssets(c context.Context) ([]storeapi.Asset, error) {
	assets, found := s.assetCache.Get(c, assetListCacheKey)
	if found {
		return assets, nil
	}

	s.logger.Log(c, "", mylog.SeverityInfo, "Asset-list cache miss: fetching from store")

	assets, err := s.assetStore.List(c)
	if err != nil {
		return nil, myerrors.NewInternalError(err)
	}

	sort.Slice(assets, func(i, j int) bool {
		if assets[i].SortOrder != assets[j].SortOrder {
			return assets[i].SortOrder < assets[j].SortOrder
		}
		return assets[i].UID < assets[j].UID
	})

	s.assetCache.Put(c, assetListCacheKey, assets)

	return assets, nil
}

func (s *service) getAsset(c context.Context, assetUID string) (storeapi.Asset, error) {
	asset, found, err := s.assetStore.Get(c, assetUID)
	if err != nil {
		return storeapi.Asset{}, myerrors.NewInternalError(err)
	}
	if !found {
		return storeapi.Asset{}, myerrors.NewNotFoundError(fmt.Errorf("asset with uid %s not found", assetUID))
	}

	return asset, nil
}

// resolveFreeDownload returns the download-target of a free asset.
// Premium assets can only be downloaded through a purchased receipt.
func (s *service) resolveFreeDownload(c context.Context, assetUID string) (storeapi.DownloadTarget, error) {
	asset, err := s.getAsset(c, assetUID)
	if err != nil {
		return storeapi.DownloadTarget{}, err
	}

	if !asset.IsFree() {
		return storeapi.DownloadTarget{}, myerrors.NewAuthenticationError(fmt.Errorf("asset %s is not free", assetUID))
	}

	target := storeapi.ResolveDownload(asset.DownloadURL)
	if target.Kind == storeapi.DownloadKindNone {
		return storeapi.DownloadTarget{}, myerrors.NewNotFoundError(fmt.Errorf("asset %s has no download-link", assetUID))
	}

	s.logger.Log(c, assetUID, mylog.SeverityInfo, "Resolved free download for asset %s", assetUID)

	return target, nil
}
