package build

import "fmt"

// Заповнюються при збірці: -ldflags "-X go-starter/internal/build.Version=1.2.3"
var (
	Version   = "dev"
	Number    = "local"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Details метадані збірки
type Details struct {
	Version   string `json:"version"`
	Number    string `json:"number"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
}

// Current повертає метадані поточної збірки
func Current() Details {
	return Details{
		Version:   Version,
		Number:    Number,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
	}
}

// UserAgent заголовок для вихідних запитів до провайдерів і каталогу
func UserAgent() string {
	commit := GitCommit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return fmt.Sprintf("go-starter/%s (%s)", Version, commit)
}
