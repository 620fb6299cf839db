package git

import (
	"regexp"
	"sort"
	"strings"
)

// ── Status parsing ──────────────────────────────────────────────────────────

var (
	initialCommitRe = regexp.MustCompile(`^(?:Initial commit|No commits yet) on (\S+)`)
	branchTokenRe   = regexp.MustCompile(`^([^. ]+)`)
)

// renameArrow separates the original and new path of a rename/copy.
const renameArrow = "->"

// statusKinds maps a porcelain status column to its kind.
var statusKinds = map[byte]FileStatusKind{
	' ': StatusUnmodified,
	'!': StatusIgnored,
	'?': StatusUntracked,
	'M': StatusModified,
	'T': StatusModified,
	'A': StatusAdded,
	'D': StatusDeleted,
	'R': StatusRenamed,
	'C': StatusCopied,
	'U': StatusUnmerged,
}

// ParseStatus parses the output of `git status --porcelain`.
//
// When includeBranchHeader is set, a leading "## " line is consumed and
// the branch name extracted from it. Lines whose index and worktree
// columns both carry a change cannot be represented by a single flag set;
// their paths are collected in NeedReconcile instead of Entries.
// Malformed lines are skipped.
func ParseStatus(out string, includeBranchHeader bool) ParsedStatus {
	var result ParsedStatus
	lines := strings.Split(out, "\n")

	if includeBranchHeader && len(lines) > 0 && strings.HasPrefix(lines[0], "##") {
		result.Branch = parseBranchHeader(lines[0])
		lines = lines[1:]
	}

	for _, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		if len(line) < 3 {
			continue
		}

		staged, unstaged := line[0], line[1]
		file := strings.ReplaceAll(line[3:], `"`, "")

		if staged != ' ' && unstaged != ' ' && staged != '?' && unstaged != '?' {
			if i := strings.Index(file, renameArrow); i != -1 {
				file = strings.TrimSpace(file[i+len(renameArrow):])
			}
			if file != "" {
				result.NeedReconcile = append(result.NeedReconcile, file)
			}
			continue
		}

		var flags Flags
		effective := unstaged
		if staged != ' ' && staged != '?' {
			flags = flags.With(StatusStaged)
			effective = staged
		}
		if kind, ok := statusKinds[effective]; ok {
			flags = flags.With(kind)
		}

		entry := StatusEntry{Path: file, DisplayPath: file, Flags: flags}
		if i := strings.Index(file, renameArrow); i != -1 {
			entry.Path = strings.TrimSpace(file[i+len(renameArrow):])
		}
		result.Entries = append(result.Entries, entry)
	}
	return result
}

func parseBranchHeader(line string) string {
	header := strings.TrimSpace(strings.TrimPrefix(line, "##"))
	if m := initialCommitRe.FindStringSubmatch(header); m != nil {
		return m[1]
	}
	if m := branchTokenRe.FindStringSubmatch(header); m != nil {
		return m[1]
	}
	return ""
}

// ── Branch parsing ──────────────────────────────────────────────────────────

// ParseBranches parses `git branch --no-color` (optionally with -a).
// An empty repository lists no branches; a current "master" is assumed.
func ParseBranches(out string) []Branch {
	var branches []Branch
	for _, line := range strings.Split(out, "\n") {
		name := strings.TrimSpace(line)
		if name == "" || strings.Contains(name, renameArrow) {
			continue
		}
		current := false
		if strings.HasPrefix(name, "* ") {
			name = name[2:]
			current = true
		}
		b := Branch{Name: name, IsCurrent: current}
		if strings.HasPrefix(name, "remotes/") {
			b.Name = strings.TrimPrefix(name, "remotes/")
			if i := strings.IndexByte(b.Name, '/'); i != -1 {
				b.Remote = b.Name[:i]
			}
		}
		branches = append(branches, b)
	}
	if len(branches) == 0 {
		branches = append(branches, Branch{Name: "master", IsCurrent: true})
	}
	return branches
}

// CurrentBranch returns the name of the current branch in the list.
func CurrentBranch(branches []Branch) string {
	for _, b := range branches {
		if b.IsCurrent {
			return b.Name
		}
	}
	return ""
}

// ParseRemoteBranches parses `git branch -r --no-color` and returns the
// branch names that live under the given remote, without the prefix.
func ParseRemoteBranches(out, remote string) []string {
	prefix := remote + "/"
	var names []string
	for _, line := range strings.Split(out, "\n") {
		name := strings.TrimSpace(line)
		if name == "" || strings.Contains(name, renameArrow) {
			continue
		}
		if strings.HasPrefix(name, prefix) {
			names = append(names, strings.TrimPrefix(name, prefix))
		}
	}
	return names
}

// ── Remote parsing ──────────────────────────────────────────────────────────

var remoteKindRe = regexp.MustCompile(`\((push|fetch)\)$`)

// ParseRemotes parses `git remote -v`. Each remote is listed once, origin
// first and the rest by name.
func ParseRemotes(out string) []Remote {
	var remotes []Remote
	seen := map[string]bool{}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(remoteKindRe.ReplaceAllString(strings.TrimSpace(line), ""))
		parts := strings.SplitN(line, "\t", 2)
		name := strings.TrimSpace(parts[0])
		if name == "" || seen[name] {
			continue
		}
		url := ""
		if len(parts) == 2 {
			url = strings.TrimSpace(parts[1])
		}
		seen[name] = true
		remotes = append(remotes, Remote{Name: name, URL: url})
	}
	SortRemotes(remotes)
	return remotes
}

// SortRemotes orders remotes with origin first, then by name.
func SortRemotes(remotes []Remote) {
	sort.SliceStable(remotes, func(i, j int) bool {
		return remoteLess(remotes[i], remotes[j])
	})
}

func remoteLess(a, b Remote) bool {
	switch {
	case a.IsOrigin() && !b.IsOrigin():
		return true
	case b.IsOrigin():
		return false
	default:
		return a.Name < b.Name
	}
}

// RemoteInsertIndex returns the first position at which r keeps remotes
// sorted. For a remote already in the list that is its own index.
func RemoteInsertIndex(remotes []Remote, r Remote) int {
	return sort.Search(len(remotes), func(i int) bool {
		return !remoteLess(remotes[i], r)
	})
}
