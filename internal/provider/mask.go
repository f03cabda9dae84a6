package provider

// Mask renders a secret for display. Values of 8 bytes or fewer (including
// empty) collapse to a fixed placeholder that reveals nothing; longer values
// keep the first and last four characters. Never returns middle characters.
func Mask(secret string) string {
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "…" + secret[len(secret)-4:]
}
