package timevault

// Version of the application, reported by the abci Info call and the
// version command. Release builds override both values, for example
//
//	go build -ldflags "-X github.com/iov-one/timevault.GitCommit=$(git rev-parse --short HEAD)"
var (
	Release   = "v0.1.0-dev"
	GitCommit = ""
)

// Version returns the release, followed by the commit when known.
func Version() string {
	if GitCommit == "" {
		return Release
	}
	return Release + " " + GitCommit
}
