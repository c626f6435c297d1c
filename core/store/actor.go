package store

import "safeflow/core/rbac"

// Actor identifies the session user performing a store operation. Stores
// never reach for ambient session state; the caller passes the actor in.
type Actor struct {
	ID   string
	Name string
	Role rbac.Role
}
