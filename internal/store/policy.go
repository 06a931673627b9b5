package store

import "time"

// ReplicationGracePeriod is the pause between a create and the list refetch that
// follows it. The ticket table is read with eventually consistent scans, so an
// immediate refetch can miss the new row.
const ReplicationGracePeriod = time.Second

// Operation names a remote mutation.
type Operation string

const (
	OpCreate       Operation = "create"
	OpUpdateStatus Operation = "update-status"
	OpDelete       Operation = "delete"
	OpEdit         Operation = "edit"
)

// SyncPolicy is how local state follows a successful mutation.
type SyncPolicy int

const (
	// PolicyLocalPatch applies the change to the local collection.
	PolicyLocalPatch SyncPolicy = iota
	// PolicyRefetch reloads the collection from the gateway.
	PolicyRefetch
)

func (p SyncPolicy) String() string {
	if p == PolicyRefetch {
		return "refetch"
	}
	return "local-patch"
}

// DefaultPolicies is the per-operation policy table.
var DefaultPolicies = map[Operation]SyncPolicy{
	OpCreate:       PolicyRefetch,
	OpUpdateStatus: PolicyLocalPatch,
	OpDelete:       PolicyLocalPatch,
	OpEdit:         PolicyLocalPatch,
}
