package interpret

import (
	"regexp"
	"sort"
	"strings"

	"github.com/hyperjump/naze/internal/dataset"
	"github.com/hyperjump/naze/internal/models"
)

// stateAbbreviations maps common short forms to the state names used in the
// dataset.
var stateAbbreviations = map[string]string{
	"mh": "Maharashtra",
	"tn": "Tamil Nadu",
	"ka": "Karnataka",
	"gj": "Gujarat",
	"dl": "Delhi",
}

// cityAliases maps alternate city names to the canonical dataset spelling.
var cityAliases = map[string]string{
	"bombay":    "Mumbai",
	"madras":    "Chennai",
	"bangalore": "Bengaluru",
	"mysore":    "Mysuru",
	"new delhi": "Delhi",
}

var wordPattern = regexp.MustCompile(`[A-Za-z][A-Za-z]+`)

// extractEntities matches the query against the dataset gazetteer. Exact
// (case-insensitive) substring matches come first; single tokens then get
// one round of fuzzy matching against city names so that a common
// misspelling still resolves.
func extractEntities(query string, gaz *dataset.Gazetteer) models.EntitySet {
	var entities models.EntitySet
	if gaz == nil {
		return entities
	}
	lower := strings.ToLower(query)

	aliases := make([]string, 0, len(cityAliases))
	for alias := range cityAliases {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	for _, alias := range aliases {
		if strings.Contains(lower, alias) {
			entities.Locations = appendUnique(entities.Locations, cityAliases[alias])
		}
	}
	for _, city := range gaz.Cities {
		if containsName(lower, city) {
			entities.Locations = appendUnique(entities.Locations, city)
		}
	}
	for _, state := range gaz.States {
		if containsName(lower, state) {
			entities.Locations = appendUnique(entities.Locations, state)
		}
	}
	for _, client := range gaz.Clients {
		if containsName(lower, client) {
			entities.Clients = appendUnique(entities.Clients, client)
		}
	}
	for _, wh := range gaz.Warehouses {
		if containsName(lower, wh) {
			entities.Warehouses = appendUnique(entities.Warehouses, wh)
		}
	}
	for _, reason := range gaz.FailureReasons {
		if containsName(lower, reason) {
			entities.FailureReasons = appendUnique(entities.FailureReasons, reason)
		}
	}
	for _, status := range gaz.Statuses {
		if containsName(lower, status) {
			entities.Statuses = appendUnique(entities.Statuses, status)
		}
	}

	for _, token := range wordPattern.FindAllString(query, -1) {
		tl := strings.ToLower(token)
		if full, ok := stateAbbreviations[tl]; ok {
			for _, state := range gaz.States {
				if strings.EqualFold(state, full) {
					entities.Locations = appendUnique(entities.Locations, state)
				}
			}
			continue
		}
		// Tolerate one edit against city names; short tokens are too noisy.
		if len(tl) < 5 {
			continue
		}
		for _, city := range gaz.Cities {
			if LevenshteinDistance(tl, strings.ToLower(city)) == 1 {
				entities.Locations = appendUnique(entities.Locations, city)
			}
		}
	}

	return entities
}

func containsName(lowerQuery, name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	return name != "" && strings.Contains(lowerQuery, name)
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
