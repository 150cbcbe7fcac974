// Package misc keeps build time information.
package misc

// Values below are overwritten by the linker at release build time.
var (
	appName = "pagesync"
	version = "dev"
	gitHash = "unknown"
)

func GetAppName() string {
	return appName
}

func GetVersion() string {
	return version
}

func GetGitHash() string {
	return gitHash
}
