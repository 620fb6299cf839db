package repo

import "github.com/Akashdeep-Patra/gitsync/internal/git"

// BranchChanged is emitted when the current branch changes.
type BranchChanged struct{ Name string }

// Updated is a coarse re-render signal emitted after every top-level
// status query.
type Updated struct{}

// StateChanged is emitted when the lifecycle state changes.
type StateChanged struct {
	State State
	Err   error // Set when entering NotInitialised.
}

type BranchAdded struct {
	Branch git.Branch
	Index  int
}

type BranchRemoved struct {
	Branch git.Branch
	Index  int
}

type BranchUpdated struct {
	Branch git.Branch
	Index  int
}

type RemoteAdded struct {
	Remote git.Remote
	Index  int
}

type RemoteRemoved struct {
	Remote git.Remote
	Index  int
}

type RemoteUpdated struct {
	Remote git.Remote
	Index  int
}

func (BranchChanged) EventName() string { return "branch" }
func (Updated) EventName() string       { return "update" }
func (StateChanged) EventName() string  { return "state" }
func (BranchAdded) EventName() string   { return "branch.add" }
func (BranchRemoved) EventName() string { return "branch.remove" }
func (BranchUpdated) EventName() string { return "branch.update" }
func (RemoteAdded) EventName() string   { return "remote.add" }
func (RemoteRemoved) EventName() string { return "remote.remove" }
func (RemoteUpdated) EventName() string { return "remote.update" }
