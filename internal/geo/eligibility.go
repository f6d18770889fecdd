// Package geo decides whether a row's city falls inside the assessor's
// jurisdiction. Rows outside it never reach an external site.
package geo

import (
	_ "embed"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/jurisdiction.yaml
var jurisdictionYAML []byte

type jurisdiction struct {
	Municipalities []string `yaml:"municipalities"`
	Patterns       struct {
		Suffixes []string `yaml:"suffixes"`
		Prefixes []string `yaml:"prefixes"`
		Contains []string `yaml:"contains"`
	} `yaml:"patterns"`
}

var data jurisdiction

var municipalitySet map[string]bool

func init() {
	if err := yaml.Unmarshal(jurisdictionYAML, &data); err != nil {
		panic("geo: parse embedded jurisdiction: " + err.Error())
	}
	municipalitySet = make(map[string]bool, len(data.Municipalities))
	for _, m := range data.Municipalities {
		municipalitySet[m] = true
	}
}

// Eligible reports whether a city is inside the assessor jurisdiction:
// exact municipality match first, then the pattern admissions.
func Eligible(city string) bool {
	c := normalizeCity(city)
	if c == "" {
		return false
	}
	if municipalitySet[c] {
		return true
	}
	for _, s := range data.Patterns.Suffixes {
		if strings.HasSuffix(" "+c, s) {
			return true
		}
	}
	for _, p := range data.Patterns.Prefixes {
		if strings.HasPrefix(c+" ", p) {
			return true
		}
	}
	for _, sub := range data.Patterns.Contains {
		if strings.Contains(c, sub) {
			return true
		}
	}
	return false
}

// normalizeCity uppercases, collapses whitespace, and drops punctuation
// that shows up in exports ("Lauderdale-by-the-Sea", "Ft. Lauderdale").
func normalizeCity(city string) string {
	c := strings.ToUpper(city)
	c = strings.NewReplacer("-", " ", ".", "", ",", " ").Replace(c)
	return strings.Join(strings.Fields(c), " ")
}
