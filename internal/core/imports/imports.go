// Package imports registers the palletflow import types with the core
// registry. Importing the package for its side effects is enough:
//
//	import _ "github.com/JonMunkholm/palletflow/internal/core/imports"
package imports

import (
	"strings"

	"github.com/JonMunkholm/palletflow/internal/core"
)

// Roles recognised by the import gate.
const (
	RoleAdmin     = "admin"
	RolePlanner   = "planner"
	RoleWarehouse = "warehouse"
)

// Catalogue groups.
const (
	groupMasterData = "Master data"
	groupOperations = "Operations"
)

func init() {
	core.Register(locationsImport())
	core.Register(carriersImport())
	core.Register(ordersImport())
	core.Register(bookingsImport())
	core.Register(shipmentsImport())
}

// upperCode normalizes natural-key codes so "wh-01 " and "WH-01" match.
func upperCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
