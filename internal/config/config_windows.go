//go:build windows

package config

import "golang.org/x/sys/windows/registry"

const (
	loggerRegistryKey   = `SOFTWARE\Wow6432Node\ArchestrA\Framework\Logger`
	loggerRegistryValue = "LogDir"
	fallbackLogDir      = `C:\ProgramData\ArchestrA\LogFiles`
)

// DefaultLogDirectory returns the directory the platform logger writes to,
// as recorded in the registry.
func DefaultLogDirectory() string {
	key, err := registry.OpenKey(registry.LOCAL_MACHINE, loggerRegistryKey, registry.QUERY_VALUE)
	if err != nil {
		return fallbackLogDir
	}
	defer key.Close()

	dir, _, err := key.GetStringValue(loggerRegistryValue)
	if err != nil || dir == "" {
		return fallbackLogDir
	}
	return dir
}
