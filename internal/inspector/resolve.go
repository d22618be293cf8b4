package inspector

import (
	"context"

	"github.com/user/fridacode/internal/types"
)

// ResolveDevice looks id up in the current device list so callers get the
// display name and transport type along with the id.
func ResolveDevice(ctx context.Context, in types.Inspector, id string) (types.Device, error) {
	devices, err := in.Devices(ctx)
	if err != nil {
		return types.Device{}, err
	}
	for _, d := range devices {
		if d.ID == id {
			return d, nil
		}
	}
	return types.Device{}, &types.NotFoundError{Kind: "device", ID: id}
}
