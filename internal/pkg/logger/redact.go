package logger

// RedactSecret masks a credential for safe logging, keeping a short prefix
// so operators can tell tokens apart.
// "shpat_9f2c41d8aa" → "shpa***"
// Values of 4 chars or fewer are fully masked.
func RedactSecret(secret string) string {
	if len(secret) <= 4 {
		return "***"
	}
	return secret[:4] + "***"
}
