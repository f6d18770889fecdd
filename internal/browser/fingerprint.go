package browser

import "math/rand/v2"

// Fingerprint is the randomized identity one browser context presents.
type Fingerprint struct {
	Width     int
	Height    int
	UserAgent string
	Locale    string
	Timezone  string
	Latitude  float64
	Longitude float64
}

// viewports are common desktop resolutions; anything rarer is a tell.
var viewports = [][2]int{
	{1920, 1080},
	{1366, 768},
	{1536, 864},
	{1440, 900},
	{1600, 900},
	{1280, 720},
	{1680, 1050},
	{2560, 1440},
}

// localeTimezones pairs locales with plausible US timezones. The pair is
// picked together so the two never contradict each other.
var localeTimezones = [][2]string{
	{"en-US", "America/New_York"},
	{"en-US", "America/Chicago"},
	{"en-US", "America/Denver"},
	{"en-US", "America/Los_Angeles"},
	{"en-US", "America/Phoenix"},
}

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
}

// Target region for geolocation spoofing: a box over Broward County.
const (
	geoLatMin = 26.00
	geoLatMax = 26.32
	geoLonMin = -80.30
	geoLonMax = -80.08
)

// NewFingerprint draws a random identity for one context.
func NewFingerprint() Fingerprint {
	vp := viewports[rand.IntN(len(viewports))]
	lt := localeTimezones[rand.IntN(len(localeTimezones))]
	return Fingerprint{
		Width:     vp[0],
		Height:    vp[1],
		UserAgent: userAgents[rand.IntN(len(userAgents))],
		Locale:    lt[0],
		Timezone:  lt[1],
		Latitude:  geoLatMin + rand.Float64()*(geoLatMax-geoLatMin),
		Longitude: geoLonMin + rand.Float64()*(geoLonMax-geoLonMin),
	}
}
