package models

import (
	"fmt"
	"strings"
)

// Region identifies a currency domain.
type Region string

const (
	// RegionHome is the base currency; every balance is expressed in it.
	RegionHome Region = "home"
	// RegionForeign amounts are converted with the session conversion rate.
	RegionForeign Region = "foreign"
	// RegionAll is only meaningful in queries: both regions, in home units.
	RegionAll Region = "all"
)

// ParseRegion accepts the canonical names and the legacy labels.
func ParseRegion(s string) (Region, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "home", "euro", "eur", "":
		return RegionHome, nil
	case "foreign", "bd", "bdt", "taka":
		return RegionForeign, nil
	case "all", "both":
		return RegionAll, nil
	default:
		return "", fmt.Errorf("unknown region %q (want home, foreign or all)", s)
	}
}

// IsRecordRegion reports whether records can be stored under r.
func (r Region) IsRecordRegion() bool {
	return r == RegionHome || r == RegionForeign
}
