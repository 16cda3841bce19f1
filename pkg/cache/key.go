package cache

import "strings"

// DefaultKey is the fixed key the user list is stored under.
var DefaultKey = Key{Name: "cached_users"}

// Key identifies the cached list inside a backend.
type Key struct {
	// Namespace separates several lists sharing one backend (e.g. one Redis DB).
	Namespace string

	// Name of the entry.
	Name string
}

// WithNamespace returns a copy of the key in namespace ns.
func (k Key) WithNamespace(ns string) Key {
	k.Namespace = ns
	return k
}

// String renders the key as namespace:name, or just name without namespace.
//
// Example:
//
//	usersync:cached_users
func (k Key) String() string {
	ns := strings.Trim(k.Namespace, ":")
	if ns == "" {
		return k.Name
	}
	return ns + ":" + k.Name
}
