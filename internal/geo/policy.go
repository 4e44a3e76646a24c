package geo

// restrictedRegions holds country codes and India state composites barred from
// sportsbook and ETF products.
var restrictedRegions = map[string]struct{}{
	"CN":    {}, // Mainland China
	"AF":    {}, // Afghanistan
	"IN-AP": {}, // Andhra Pradesh (State in India)
	"IN-AR": {}, // Arunachal Pradesh (State in India)
	"BY":    {}, // Belarus
	"BE":    {}, // Belgium
	"BA":    {}, // Bosnia And Herzegovina
	"BG":    {}, // Bulgaria
	"CD":    {}, // Congo (Democratic Republic)
	"CI":    {}, // Cote D'Ivoire
	"HR":    {}, // Croatia
	"CU":    {}, // Cuba
	"CY":    {}, // Cyprus
	"CZ":    {}, // Czech Republic
	"EG":    {}, // Egypt
	"EE":    {}, // Estonia
	"FR":    {}, // France
	"GF":    {}, // French Guiana
	"PF":    {}, // French Polynesia
	"TF":    {}, // French Southern Territories
	"GR":    {}, // Greece
	"HU":    {}, // Hungary
	"ID":    {}, // Indonesia
	"IR":    {}, // Iran
	"IQ":    {}, // Iraq
	"IT":    {}, // Italy
	"JP":    {}, // Japan
	"IN-KL": {}, // Kerala (State in India)
	"XK":    {}, // Kosovo
	"LV":    {}, // Latvia
	"LT":    {}, // Lithuania
	"MY":    {}, // Malaysia
	"MT":    {}, // Malta
	"ME":    {}, // Montenegro
	"MM":    {}, // Myanmar
	"IN-NL": {}, // Nagaland (State in India)
	"NG":    {}, // Nigeria
	"KP":    {}, // North Korea
	"MK":    {}, // North Macedonia
	"IN-OR": {}, // Odisha (State in India)
	"PK":    {}, // Pakistan
	"PL":    {}, // Poland
	"PT":    {}, // Portugal
	"RO":    {}, // Romania
	"RU":    {}, // Russian Federation
	"RS":    {}, // Serbia
	"IN-SK": {}, // Sikkim (State in India)
	"SK":    {}, // Slovakia
	"SI":    {}, // Slovenia
	"SD":    {}, // Sudan
	"SY":    {}, // Syrian Arab Republic
	"IN-TN": {}, // Tamil Nadu (State in India)
	"IN-TG": {}, // Telangana (State in India)
	"TR":    {}, // Turkey
	"UA":    {}, // Ukraine
	"VN":    {}, // Vietnam
	"YU":    {}, // Yugoslavia
	"ZW":    {}, // Zimbabwe
}

// indianStateCodes maps the state names returned by the IP lookup to their
// ISO 3166-2 codes. Only restricted states are listed.
var indianStateCodes = map[string]string{
	"Andhra Pradesh":    "AP",
	"Arunachal Pradesh": "AR",
	"Kerala":            "KL",
	"Nagaland":          "NL",
	"Odisha":            "OR",
	"Sikkim":            "SK",
	"Tamil Nadu":        "TN",
	"Telangana":         "TG",
}

// IsRegionRestricted reports whether a country, or an India state composite
// like "IN-KL", is barred. regionCode is the bare subdivision code.
func IsRegionRestricted(countryCode, regionCode string) bool {
	if _, ok := restrictedRegions[countryCode]; ok {
		return true
	}
	if countryCode == "IN" && regionCode != "" {
		_, ok := restrictedRegions[countryCode+"-"+regionCode]
		return ok
	}
	return false
}

// RegionCode derives the audit region label for a location. Indian states with
// a known code yield "IN-XX"; everything else yields the country code.
func RegionCode(countryCode, regionName string) string {
	if countryCode == "IN" && regionName != "" {
		if code, ok := indianStateCodes[regionName]; ok {
			return countryCode + "-" + code
		}
	}
	return countryCode
}
