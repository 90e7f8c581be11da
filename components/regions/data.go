package regions

import "sort"

// DefaultRegions returns the built-in country to state/province mapping.
// Countries are keyed by ISO 3166-1 alpha-2 codes.
func DefaultRegions() map[string][]string {
	return copyRegions(builtinRegions)
}

// Countries returns the sorted country codes covered by the built-in mapping.
func Countries() []string {
	out := make([]string, 0, len(builtinRegions))
	for country := range builtinRegions {
		out = append(out, country)
	}
	sort.Strings(out)
	return out
}

var builtinRegions = map[string][]string{
	"US": {
		"Alabama", "Alaska", "Arizona", "Arkansas", "California",
		"Colorado", "Connecticut", "Delaware", "Florida", "Georgia",
		"Hawaii", "Idaho", "Illinois", "Indiana", "Iowa",
		"Kansas", "Kentucky", "Louisiana", "Maine", "Maryland",
		"Massachusetts", "Michigan", "Minnesota", "Mississippi", "Missouri",
		"Montana", "Nebraska", "Nevada", "New Hampshire", "New Jersey",
		"New Mexico", "New York", "North Carolina", "North Dakota", "Ohio",
		"Oklahoma", "Oregon", "Pennsylvania", "Rhode Island", "South Carolina",
		"South Dakota", "Tennessee", "Texas", "Utah", "Vermont",
		"Virginia", "Washington", "West Virginia", "Wisconsin", "Wyoming",
	},
	"CA": {
		"Alberta", "British Columbia", "Manitoba", "New Brunswick",
		"Newfoundland and Labrador", "Northwest Territories", "Nova Scotia",
		"Nunavut", "Ontario", "Prince Edward Island", "Quebec",
		"Saskatchewan", "Yukon",
	},
	"AU": {
		"Australian Capital Territory", "New South Wales", "Northern Territory",
		"Queensland", "South Australia", "Tasmania", "Victoria",
		"Western Australia",
	},
	"MX": {
		"Aguascalientes", "Baja California", "Baja California Sur", "Campeche",
		"Chiapas", "Chihuahua", "Coahuila", "Colima", "Durango",
		"Guanajuato", "Guerrero", "Hidalgo", "Jalisco", "Mexico City",
		"Michoacan", "Morelos", "Nayarit", "Nuevo Leon", "Oaxaca",
		"Puebla", "Queretaro", "Quintana Roo", "San Luis Potosi", "Sinaloa",
		"Sonora", "State of Mexico", "Tabasco", "Tamaulipas", "Tlaxcala",
		"Veracruz", "Yucatan", "Zacatecas",
	},
	"GB": {
		"England", "Northern Ireland", "Scotland", "Wales",
	},
}
