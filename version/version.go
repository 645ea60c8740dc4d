// Package version exposes build information. The Git values are set with
// -ldflags "-X github.com/jackzampolin/lessonkit/version.GitRelease=..." at
// release time.
package version

import (
	"fmt"
	"runtime"
)

var (
	GitRelease    = "dev"
	GitCommit     = "unknown"
	GitCommitDate = "unknown"
	GoInfo        = fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)
)
