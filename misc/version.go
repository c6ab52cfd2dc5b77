// Package misc keeps build time information.
package misc

// set by linker: -X critcss/misc.version=... -X critcss/misc.gitHash=...
var (
	version = "dev"
	gitHash = "unknown"
)

func GetAppName() string {
	return "critcss"
}

func GetVersion() string {
	return version
}

func GetGitHash() string {
	return gitHash
}
