package llm

import "strings"

// placeholderCredentials are template values shipped in sample settings files.
var placeholderCredentials = map[string]bool{
	"your-openai-api-key-here":      true,
	"your-huggingface-api-key-here": true,
	"your-api-key-here":             true,
	"changeme":                      true,
}

// IsPlaceholderCredential reports whether key is empty or a known template value.
func IsPlaceholderCredential(key string) bool {
	key = strings.TrimSpace(key)
	return key == "" || placeholderCredentials[strings.ToLower(key)]
}
