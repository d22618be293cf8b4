package explorer

import (
	"context"
	"log/slog"

	"github.com/user/fridacode/internal/namespace"
	"github.com/user/fridacode/internal/types"
)

// Mode selects what a device expands into.
type Mode int

const (
	ModeApps Mode = iota
	ModeProcesses
)

// Provider produces the children of an item on demand. Listing failures
// become a single ItemNotFound child rather than an error, so one vanished
// device does not break the rest of the tree.
type Provider struct {
	inspector types.Inspector
	mode      Mode
}

func NewProvider(inspector types.Inspector, mode Mode) *Provider {
	return &Provider{inspector: inspector, mode: mode}
}

// Children returns the children of parent; a nil parent yields the devices.
func (p *Provider) Children(ctx context.Context, parent *Item) ([]*Item, error) {
	if parent == nil {
		devices, err := p.inspector.Devices(ctx)
		if err != nil {
			return nil, err
		}
		items := make([]*Item, 0, len(devices))
		for _, d := range devices {
			items = append(items, &Item{Kind: ItemDevice, Device: d})
		}
		return items, nil
	}

	switch parent.Kind {
	case ItemDevice:
		return p.deviceChildren(ctx, parent.Device), nil
	case ItemProcess:
		return p.namespaceRoots(ctx, parent.Device, parent.Process), nil
	case ItemPackage, ItemClass:
		return nodeItems(parent.Device, parent.Process, parent.Index, parent.Index.ChildrenOf(parent.Node.Path)), nil
	case ItemApp, ItemNotFound:
		return nil, nil
	}
	return nil, nil
}

func (p *Provider) deviceChildren(ctx context.Context, dev types.Device) []*Item {
	switch p.mode {
	case ModeApps:
		apps, err := p.inspector.Apps(ctx, dev.ID)
		if err != nil {
			return notFound(dev, err)
		}
		items := make([]*Item, 0, len(apps))
		for _, a := range apps {
			items = append(items, &Item{Kind: ItemApp, Device: dev, App: a})
		}
		return items
	case ModeProcesses:
		ps, err := p.inspector.Processes(ctx, dev.ID)
		if err != nil {
			return notFound(dev, err)
		}
		items := make([]*Item, 0, len(ps))
		for _, proc := range ps {
			items = append(items, &Item{Kind: ItemProcess, Device: dev, Process: proc})
		}
		return items
	}
	return nil
}

// Namespace enumerates the classes loaded in proc and builds a fresh index
// for them. Expanding the returned items reads that index only.
func (p *Provider) Namespace(ctx context.Context, dev types.Device, proc types.Process) (*namespace.TreeIndex, error) {
	names, err := p.inspector.Classes(ctx, dev.ID, proc.PID)
	if err != nil {
		return nil, err
	}
	idx, err := namespace.Build(names)
	if err != nil {
		return nil, err
	}
	slog.Debug("namespace built", "device", dev.ID, "pid", proc.PID, "classes", len(names), "nodes", idx.Len())
	return idx, nil
}

// NamespaceItems wraps nodes of idx as package/class items of proc.
func NamespaceItems(dev types.Device, proc types.Process, idx *namespace.TreeIndex, nodes []*namespace.Node) []*Item {
	return nodeItems(dev, proc, idx, nodes)
}

// namespaceRoots rebuilds on every expansion of a process.
func (p *Provider) namespaceRoots(ctx context.Context, dev types.Device, proc types.Process) []*Item {
	idx, err := p.Namespace(ctx, dev, proc)
	if err != nil {
		return notFound(dev, err)
	}
	return nodeItems(dev, proc, idx, idx.Roots())
}

func nodeItems(dev types.Device, proc types.Process, idx *namespace.TreeIndex, nodes []*namespace.Node) []*Item {
	items := make([]*Item, 0, len(nodes))
	for _, n := range nodes {
		kind := ItemPackage
		if n.Kind == namespace.KindClass {
			kind = ItemClass
		}
		items = append(items, &Item{Kind: kind, Device: dev, Process: proc, Node: n, Index: idx})
	}
	return items
}

func notFound(dev types.Device, err error) []*Item {
	return []*Item{{Kind: ItemNotFound, Device: dev, Err: err}}
}
