package sync

import "github.com/MarkoPoloResearchLab/dirsync/internal/config"

// Action is the outcome of a synchronization decision. Actions double as the
// keys of SyncResult.ActionCounters.
type Action string

const (
	ActionCopy            Action = "copy"
	ActionOverwrite       Action = "overwrite"
	ActionRename          Action = "rename"
	ActionMkdir           Action = "mkdir"
	ActionDelete          Action = "delete"
	ActionEqual           Action = "equal"
	ActionSkipConflict    Action = "skip(conflict)"
	ActionSkipOlder       Action = "skip(older)"
	ActionSkipConfig      Action = "skip(config)"
	ActionSkipExcluded    Action = "skip(excluded)"
	ActionSkipUnsupported Action = "skip(unsupported)"
	ActionIncompatible    Action = "incompatible"
	ActionError           Action = "error"
)

// changes reports whether the action mutates a tree.
func (a Action) changes() bool {
	switch a {
	case ActionCopy, ActionOverwrite, ActionRename, ActionMkdir, ActionDelete:
		return true
	}
	return false
}

// Policy carries the run-wide settings the resolver depends on.
type Policy struct {
	Mode                   ConflictMode
	CopyConfigurationFiles bool
	// OneWay marks the first entry as the authoritative source.
	OneWay bool
}

// Decision tells the caller what to do about a conflict. For copying actions
// From is the winning entry and To the path receiving its content.
type Decision struct {
	Action Action
	From   Entry
	To     string
}

// Resolve decides between two existing regular files competing for the same
// name. In one-way runs first is the source and second the target; in two-way
// runs neither is privileged. Resolve does not touch the filesystem.
func Resolve(first, second Entry, policy Policy) Decision {
	configPair := config.IsConfigFile(first.Name) && config.IsConfigFile(second.Name)
	if configPair && !policy.CopyConfigurationFiles {
		return Decision{Action: ActionSkipConfig}
	}
	if sameSecond(first.ModTime, second.ModTime) {
		return Decision{Action: ActionEqual}
	}
	if !configPair && policy.Mode == ConflictSkip {
		return Decision{Action: ActionSkipConflict}
	}

	newer, older := first, second
	if first.ModTime.Before(second.ModTime) {
		newer, older = second, first
	}
	if policy.OneWay && newer.Path != first.Path {
		return Decision{Action: ActionSkipOlder, From: first, To: second.Path}
	}

	if !configPair && policy.Mode == ConflictRename {
		return Decision{Action: ActionRename, From: newer, To: renamedPath(older.Path, older.ModTime)}
	}
	return Decision{Action: ActionOverwrite, From: newer, To: older.Path}
}
