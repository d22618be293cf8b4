// Package explorer exposes devices, their apps or processes, and the loaded
// class namespace of a process as one lazily expanded tree.
package explorer

import (
	"fmt"
	"strconv"

	"github.com/user/fridacode/internal/namespace"
	"github.com/user/fridacode/internal/types"
)

// ItemKind tags the variant held by an Item.
type ItemKind int

const (
	ItemDevice ItemKind = iota
	ItemApp
	ItemProcess
	ItemPackage
	ItemClass
	ItemNotFound
)

func (k ItemKind) String() string {
	switch k {
	case ItemDevice:
		return "device"
	case ItemApp:
		return "app"
	case ItemProcess:
		return "process"
	case ItemPackage:
		return "package"
	case ItemClass:
		return "class"
	case ItemNotFound:
		return "not-found"
	}
	return "unknown"
}

// Collapsible mirrors the expansion state a view should start an item in.
type Collapsible int

const (
	CollapsibleNone Collapsible = iota
	CollapsibleCollapsed
)

// Item is one row of the tree. Which fields are set depends on Kind: Device
// is always set below the root level, App for ItemApp, Process for ItemProcess
// and for package/class rows (the process owning the namespace), Node and
// Index for package/class rows, Err for ItemNotFound.
type Item struct {
	Kind    ItemKind
	Device  types.Device
	App     types.App
	Process types.Process
	Node    *namespace.Node
	Index   *namespace.TreeIndex
	Err     error
}

func (it *Item) Label() string {
	switch it.Kind {
	case ItemDevice:
		return it.Device.Name
	case ItemApp:
		return it.App.Name
	case ItemProcess:
		return it.Process.Name
	case ItemPackage, ItemClass:
		return it.Node.Name
	case ItemNotFound:
		return it.Err.Error()
	}
	return ""
}

func (it *Item) Description() string {
	switch it.Kind {
	case ItemDevice:
		return it.Device.ID
	case ItemApp:
		return it.App.Identifier
	case ItemProcess:
		return strconv.Itoa(it.Process.PID)
	case ItemPackage, ItemClass:
		return it.Node.Path
	case ItemNotFound:
		return ""
	}
	return ""
}

func (it *Item) Tooltip() string {
	switch it.Kind {
	case ItemDevice:
		return fmt.Sprintf("%s (%s)", it.Device.ID, it.Device.Type)
	case ItemApp:
		if !it.App.Running() {
			return fmt.Sprintf("%s (Not Running)", it.App.Name)
		}
		return fmt.Sprintf("%s (%d)", it.App.Name, it.App.PID)
	case ItemProcess:
		return fmt.Sprintf("%s (%d)", it.Process.Name, it.Process.PID)
	case ItemPackage, ItemClass:
		return it.Node.Path
	case ItemNotFound:
		return it.Err.Error()
	}
	return ""
}

// ContextValue is the key menus and actions are bound to.
func (it *Item) ContextValue() string {
	switch it.Kind {
	case ItemDevice:
		return "device"
	case ItemApp:
		return "app|" + runState(it.App.Running())
	case ItemProcess:
		return "process|" + runState(it.Process.Running())
	case ItemPackage:
		return "package"
	case ItemClass:
		return "class"
	case ItemNotFound:
		return "empty"
	}
	return ""
}

func (it *Item) Collapsible() Collapsible {
	switch it.Kind {
	case ItemDevice, ItemProcess, ItemPackage:
		return CollapsibleCollapsed
	case ItemClass:
		if len(it.Node.Children) > 0 {
			return CollapsibleCollapsed
		}
		return CollapsibleNone
	case ItemApp, ItemNotFound:
		return CollapsibleNone
	}
	return CollapsibleNone
}

func runState(running bool) string {
	if running {
		return "running"
	}
	return "dead"
}
