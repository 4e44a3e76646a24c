package identity

import "regexp"

var (
	passportPattern       = regexp.MustCompile(`^[A-Z0-9]{6,9}$`)
	cnNationalIDPattern   = regexp.MustCompile(`^[1-9]\d{5}(18|19|20)\d{2}((0[1-9])|(1[0-2]))(([0-2][1-9])|10|20|30|31)\d{3}[0-9Xx]$`)
	driversLicensePattern = regexp.MustCompile(`^[A-Z0-9]{5,15}$`)
	utilityBillPattern    = regexp.MustCompile(`^\d{6,20}$`)
)

// ValidDocumentNumber checks the document number format for a given type. The
// national ID rule is country-specific for China; elsewhere only length is
// checked.
func ValidDocumentNumber(docType DocumentType, number, country string) bool {
	switch docType {
	case DocumentPassport:
		return passportPattern.MatchString(number)
	case DocumentNationalID:
		if country == "CN" {
			return cnNationalIDPattern.MatchString(number)
		}
		return len(number) >= 6 && len(number) <= 20
	case DocumentDriversLicense:
		return driversLicensePattern.MatchString(number)
	case DocumentUtilityBill:
		return utilityBillPattern.MatchString(number)
	default:
		return false
	}
}
