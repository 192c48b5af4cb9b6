// Package menu projects the navigation tree a principal is allowed to see.
package menu

// Node is a navigation entry. Nodes form a tree through ParentID; a nil
// parent marks a root. An empty RequiredPermission means the node is visible
// to everyone who can see its parent.
type Node struct {
	ID                 int64  `json:"id"`
	ParentID           *int64 `json:"parentId,omitempty"`
	Label              string `json:"label"`
	Route              string `json:"route,omitempty"`
	Icon               string `json:"icon,omitempty"`
	Module             string `json:"module,omitempty"`
	RequiredPermission string `json:"requiredPermission,omitempty"`
	Tooltip            string `json:"tooltip,omitempty"`
	Level              int    `json:"level"`
	SortOrder          int    `json:"sortOrder"`
}

// NodeView is a filtered tree node returned to the UI.
type NodeView struct {
	ID                 int64       `json:"id"`
	Label              string      `json:"label"`
	Route              string      `json:"route,omitempty"`
	Icon               string      `json:"icon,omitempty"`
	Module             string      `json:"module,omitempty"`
	RequiredPermission string      `json:"requiredPermission,omitempty"`
	Tooltip            string      `json:"tooltip,omitempty"`
	SortOrder          int         `json:"sortOrder"`
	Children           []*NodeView `json:"children"`
}

// ModuleGrant links a menu module to one permission gating any node under it.
type ModuleGrant struct {
	Module         string
	PermissionID   int64
	PermissionCode string
	PermissionName string
}

// ModulePermissionView is one permission the principal holds within a module.
type ModulePermissionView struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// ModuleView is one entry of the "my accessible modules" listing.
type ModuleView struct {
	Module      string                 `json:"module"`
	DisplayName string                 `json:"displayName"`
	Route       string                 `json:"route"`
	Permissions []ModulePermissionView `json:"permissions"`
}
