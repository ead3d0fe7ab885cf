package detect

// Builtin detector names.
const (
	SSN             = "ssn"
	Email           = "email"
	PhoneUS         = "phone_us"
	ZipCode         = "us_zip_code"
	StreetAddress   = "street_address"
	CreditCard      = "credit_card"
	VIN             = "vin_number"
	IPAddress       = "ip_address"
	AWSAccessKey    = "aws_access_key"
	PrivateKeyBlock = "private_key_block"
	APIKeyGeneric   = "api_key_generic"
	ICD10Code       = "icd10_code"
	DEANumber       = "dea_number"
)

// Builtin returns the fixed detector table. A fresh slice is returned on
// every call so callers can extend it without affecting others.
//
// Patterns use RE2 syntax. The VIN detector has no negative lookahead, so it
// is matched literally against upper-case characters instead.
func Builtin() []Detector {
	return []Detector{
		// Personal identifiers
		{Name: SSN, Category: CategoryPersonal, Pattern: `\b\d{3}-\d{2}-\d{4}\b`},
		{Name: Email, Category: CategoryPersonal, CaseInsensitive: true,
			Pattern: `\b[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}\b`},
		{Name: PhoneUS, Category: CategoryPersonal,
			Pattern: `\b(?:\+?1[-.]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`},
		{Name: ZipCode, Category: CategoryPersonal, Pattern: `\b\d{5}(?:-\d{4})?\b`},
		{Name: StreetAddress, Category: CategoryPersonal, CaseInsensitive: true,
			Pattern: `\b\d{1,6}\s+(?:[a-z0-9.'-]+\s+){1,4}(?:street|st|avenue|ave|road|rd|boulevard|blvd|lane|ln|drive|dr|court|ct|way)\b`},

		// Financial identifiers
		{Name: CreditCard, Category: CategoryFinancial, Pattern: `\b\d{4}[-\s]?\d{4}[-\s]?\d{4}[-\s]?\d{4}\b`},
		{Name: VIN, Category: CategoryFinancial, Pattern: `\b[A-HJ-NPR-Z0-9]{17}\b`},

		// Infrastructure and secrets
		{Name: IPAddress, Category: CategoryInfrastructure, Pattern: `\b(?:\d{1,3}\.){3}\d{1,3}\b`},
		{Name: AWSAccessKey, Category: CategoryInfrastructure, Pattern: `\b(?:AKIA|ASIA)[0-9A-Z]{16}\b`},
		{Name: PrivateKeyBlock, Category: CategoryInfrastructure, CaseInsensitive: true,
			Pattern: `-----BEGIN\s+(?:RSA|EC|DSA|OPENSSH)\s+PRIVATE\s+KEY-----`},
		{Name: APIKeyGeneric, Category: CategoryInfrastructure, CaseInsensitive: true,
			Pattern: `(?:api_key|access_token|secret)\s*[:=]\s*[a-z0-9_\-]{20,}`},

		// Medical identifiers
		{Name: ICD10Code, Category: CategoryMedical, Pattern: `\b[A-Z]\d{2}\.\d{1,3}\b`},
		{Name: DEANumber, Category: CategoryMedical, Pattern: `\b[A-Z]{2}\d{7}\b`},
	}
}
