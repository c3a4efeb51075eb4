// Package models defines the data shared by the agent and the controller:
// file references coming from findings reports, the authorized roots of one
// invocation, per-file results and the aggregated copy outcome.
package models

// FileReference points at one source file named by a finding.
type FileReference struct {
	// LogicalName identifies the file in all findings of a report.
	LogicalName string `json:"logical_name" yaml:"logical_name" cbor:"logical_name"`
	// AbsolutePath is where the content lives on the agent. Empty for
	// synthetic entries such as console logs.
	AbsolutePath string `json:"absolute_path" yaml:"absolute_path" cbor:"absolute_path"`
}

// AuthorizedRoots is the set of directories reads are allowed from.
type AuthorizedRoots struct {
	WorkspaceRoot string   `json:"workspace_root" cbor:"workspace_root"`
	ExtraRoots    []string `json:"extra_roots,omitempty" cbor:"extra_roots,omitempty"`
}

// All returns the workspace root followed by the extra roots, skipping
// empty values.
func (r AuthorizedRoots) All() []string {
	out := make([]string, 0, len(r.ExtraRoots)+1)
	if r.WorkspaceRoot != "" {
		out = append(out, r.WorkspaceRoot)
	}
	for _, root := range r.ExtraRoots {
		if root != "" {
			out = append(out, root)
		}
	}
	return out
}

// FileStatus is the classification of a single candidate.
type FileStatus string

const (
	StatusCopied         FileStatus = "copied"
	StatusNotFound       FileStatus = "not_found"
	StatusNotInWorkspace FileStatus = "not_in_workspace"
	StatusError          FileStatus = "error"
)

// FileResult is what the single-file path returns for one candidate.
// Payload is only set for StatusCopied, Diagnostic only for StatusError.
type FileResult struct {
	Status     FileStatus
	Payload    []byte
	Diagnostic string
}

// BatchResult is what the batch path returns: the outcome of classification
// and archiving plus the archive itself (nil when nothing was eligible).
type BatchResult struct {
	Outcome Outcome
	Archive []byte
}
