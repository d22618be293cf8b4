package session

import (
	"context"

	"github.com/user/fridacode/internal/types"
)

// StaticChooser always answers with the same script, or skip when Path is
// empty. It backs the non-interactive --script flag.
type StaticChooser struct {
	Path string
}

func (c StaticChooser) Choose(context.Context) (types.ScriptChoice, string, error) {
	if c.Path == "" {
		return types.ScriptSkip, "", nil
	}
	return types.ScriptFile, c.Path, nil
}
