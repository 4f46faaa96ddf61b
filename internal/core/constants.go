package core

import "time"

// SuccessMarker is printed by steamcmd once workshop_download_item completes.
const SuccessMarker = "Success. Downloaded item"

// Timeout defaults
const (
	DefaultDownloadTimeout  = 10 * time.Minute
	DefaultFetchTimeout     = 30 * time.Second
	DefaultChromeTimeout    = 35 * time.Second
	DefaultNetworkIdleDelay = 500 * time.Millisecond
)

// Resource limits
const (
	MaxPageSize = 5 * 1024 * 1024 // 5MB
)

// HTTP client configuration
const (
	UserAgent = "Mozilla/5.0 (compatible; workshopd/1.0)"
)

// Workshop page selectors
const (
	selCollectionMarker = "div.collectionChildren"
	selTitle            = "div.workshopItemTitle"
	selAuthor           = "div.friendBlockContent"
	selCollectionItems  = "div.collectionItemDetails > a"
	selBreadcrumbApp    = `div.breadcrumbs a[href*="/app/"]`
	selOGImage          = `meta[property="og:image"]`
	selPreviewImage     = "img#previewImage"
	selChildCount       = "span.childCount"
	selStatsLeft        = "div.detailsStatsContainerLeft > div"
	selStatsRight       = "div.detailsStatsContainerRight > div"
	selStatsTable       = "table.stats_table tr"
)
