package browser

import (
	"strings"

	"github.com/chromedp/cdproto/network"
)

// blockedResourceTypes never load inside a scraper context: the scrapers
// only read DOM text, and every skipped request is latency saved.
var blockedResourceTypes = map[network.ResourceType]bool{
	network.ResourceTypeImage:      true,
	network.ResourceTypeMedia:      true,
	network.ResourceTypeFont:       true,
	network.ResourceTypeStylesheet: true,
	network.ResourceTypePing:       true,
}

// blockedHostFragments is the advertising/analytics denylist, matched as a
// substring of the request host.
var blockedHostFragments = []string{
	"doubleclick.net",
	"googlesyndication.com",
	"googletagmanager.com",
	"google-analytics.com",
	"googleadservices.com",
	"adsystem.com",
	"adservice.google",
	"facebook.net",
	"facebook.com/tr",
	"scorecardresearch.com",
	"quantserve.com",
	"hotjar.com",
	"mouseflow.com",
	"fullstory.com",
	"newrelic.com",
	"nr-data.net",
	"segment.io",
	"amplitude.com",
	"mixpanel.com",
	"criteo.com",
	"taboola.com",
	"outbrain.com",
	"pubmatic.com",
	"rubiconproject.com",
	"openx.net",
	"adnxs.com",
	"amazon-adsystem.com",
}

// blockReason is reported to the page for every aborted request.
const blockReason = network.ErrorReasonBlockedByClient

// shouldBlock decides whether a paused request is dropped.
func shouldBlock(resourceType network.ResourceType, url string) bool {
	if blockedResourceTypes[resourceType] {
		return true
	}
	lower := strings.ToLower(url)
	for _, frag := range blockedHostFragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}
