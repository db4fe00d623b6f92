package dialog

import "strings"

// Growing locations the advisory distinguishes. Free text is matched by
// substring, so "I'm in the southern regions" resolves to "southern regions".
const (
	LocationMiddleBand      = "middle band"
	LocationSouthernRegions = "southern regions"
	LocationNorthernRegions = "northern regions"
	LocationUralSiberia     = "ural and siberia"
	LocationFarEast         = "far east"
)

// Growing environments.
const (
	EnvironmentOpenField  = "open field"
	EnvironmentGreenhouse = "greenhouse"
	EnvironmentContainer  = "container"
	EnvironmentCovered    = "covered ground"
)

var locationKeywords = []struct {
	keyword  string
	location string
}{
	{"middle band", LocationMiddleBand},
	{"middle zone", LocationMiddleBand},
	{"central", LocationMiddleBand},
	{"south", LocationSouthernRegions},
	{"north", LocationNorthernRegions},
	{"ural", LocationUralSiberia},
	{"siberia", LocationUralSiberia},
	{"far east", LocationFarEast},
}

var environmentKeywords = []struct {
	keyword     string
	environment string
}{
	{"open field", EnvironmentOpenField},
	{"open ground", EnvironmentOpenField},
	{"outdoor", EnvironmentOpenField},
	{"greenhouse", EnvironmentGreenhouse},
	{"polytunnel", EnvironmentGreenhouse},
	{"container", EnvironmentContainer},
	{"pot", EnvironmentContainer},
	{"covered", EnvironmentCovered},
	{"under film", EnvironmentCovered},
}

// Locations returns the recognized locations in stable order.
func Locations() []string {
	return []string{
		LocationMiddleBand, LocationSouthernRegions, LocationNorthernRegions,
		LocationUralSiberia, LocationFarEast,
	}
}

// Environments returns the recognized growing environments in stable order.
func Environments() []string {
	return []string{
		EnvironmentOpenField, EnvironmentGreenhouse, EnvironmentContainer,
		EnvironmentCovered,
	}
}

// ParseGrowingParameters scans free text for a location and a growing
// environment. Either result is empty when the text does not name one; the
// caller keeps the previous value in that case.
func ParseGrowingParameters(text string) (location, environment string) {
	lower := strings.ToLower(text)

	for _, entry := range locationKeywords {
		if strings.Contains(lower, entry.keyword) {
			location = entry.location
			break
		}
	}
	for _, entry := range environmentKeywords {
		if strings.Contains(lower, entry.keyword) {
			environment = entry.environment
			break
		}
	}
	return location, environment
}
