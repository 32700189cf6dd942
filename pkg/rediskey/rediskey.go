package rediskey

import "fmt"

const (
	LicenseCheckPrefix = "license:check"
)

func NamespaceKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s", namespace, key)
}

// BuildLicenseCheckKey returns "license:check:{key}" used by the lightweight
// verification cache.
func BuildLicenseCheckKey(key string) string {
	return NamespaceKey(LicenseCheckPrefix, key)
}
