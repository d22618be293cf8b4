package session

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/user/fridacode/internal/artifact"
	"github.com/user/fridacode/internal/types"
)

// Rewrite freshens the artifact paths of a remembered vector. When an -o log
// lives in a timestamped save directory, a sibling directory named after the
// new timestamp is created and the -l script copied into it. The trailing
// timestamp token of the log name is replaced. Every other token is kept and
// args is not modified.
func Rewrite(args types.SessionArgs, namer *artifact.Namer) (types.SessionArgs, error) {
	out := args.Clone()

	i := slices.Index(out, "-o")
	if i < 0 || i+1 >= len(out) {
		return out, nil
	}

	ts := namer.Timestamp()
	logPath := out[i+1]
	dir := filepath.Dir(logPath)

	if artifact.IsTimestamp(filepath.Base(dir)) {
		dir = filepath.Join(filepath.Dir(dir), ts)
		if err := artifact.EnsureDir(dir); err != nil {
			return nil, err
		}
		if script, ok := out.Value("-l"); ok {
			if _, err := artifact.CopyScript(script, dir); err != nil {
				return nil, err
			}
		}
	}

	parts := strings.Split(filepath.Base(logPath), "_")
	parts[len(parts)-1] = ts + ".log"
	out[i+1] = filepath.Join(dir, strings.Join(parts, "_"))
	return out, nil
}
