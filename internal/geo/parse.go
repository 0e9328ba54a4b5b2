package geo

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/project-geotagger/internal/entity"
)

var reDecimal = regexp.MustCompile(`[-+]?\d+\.\d+`)

// BuildPrompt asks for two decimal-degree numbers or "Unknown".
func BuildPrompt(projectName, context string) string {
	return fmt.Sprintf("You are a geocoding assistant. Given this snippet:\n\n"+
		"\"%s\"\n\n"+
		"and knowing the project name is \"%s\", "+
		"return ONLY the two numbers of likely geographic coordinates "+
		"(latitude and longitude) in decimal degrees format. "+
		"If you don't know, respond with 'Unknown'.", context, projectName)
}

// ParseCoordinates reads the first two signed decimals of an oracle reply as
// latitude and longitude. A reply mentioning "unknown" in any case, or one
// with fewer than two decimals, yields nil.
func ParseCoordinates(reply string) *entity.Coordinates {
	if containsUnknown(reply) {
		return nil
	}
	matches := reDecimal.FindAllString(reply, -1)
	if len(matches) < 2 {
		return nil
	}
	lat, err := strconv.ParseFloat(matches[0], 64)
	if err != nil {
		return nil
	}
	lon, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return nil
	}
	return &entity.Coordinates{Lat: lat, Lon: lon}
}

func containsUnknown(reply string) bool {
	return strings.Contains(strings.ToLower(reply), "unknown")
}
