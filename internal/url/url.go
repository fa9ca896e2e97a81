package url

// Join concatenates base and endpoint as plain strings.
// The endpoint is neither escaped nor normalized.
func Join(base, endpoint string) string {
	return base + endpoint
}
