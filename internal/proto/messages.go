package proto

import "github.com/dmitrijs2005/sourcesync/internal/models"

type PingRequest struct{}

type PingResponse struct {
	Status   string `cbor:"status"`
	Hostname string `cbor:"hostname,omitempty"`
}

// CopyBatchRequest asks the agent to classify and archive every file.
type CopyBatchRequest struct {
	Files []models.FileReference `cbor:"files"`
	Roots models.AuthorizedRoots `cbor:"roots"`
}

// CopyBatchResponse carries the batch outcome and the archive. Archive is
// empty when no file was eligible.
type CopyBatchResponse struct {
	Copied         int      `cbor:"copied"`
	NotFound       int      `cbor:"not_found"`
	NotInWorkspace int      `cbor:"not_in_workspace"`
	Errored        int      `cbor:"errored"`
	Diagnostics    []string `cbor:"diagnostics,omitempty"`
	Archive        []byte   `cbor:"archive,omitempty"`
}

// CopyFileRequest asks the agent for one file.
type CopyFileRequest struct {
	File  models.FileReference   `cbor:"file"`
	Roots models.AuthorizedRoots `cbor:"roots"`
}

// CopyFileResponse is the single-file result. Payload is the stored form
// of the file (see package archive), set only when Status is "copied".
type CopyFileResponse struct {
	Status     string `cbor:"status"`
	Payload    []byte `cbor:"payload,omitempty"`
	Diagnostic string `cbor:"diagnostic,omitempty"`
}

// BatchResult converts a response into the domain form.
func (r *CopyBatchResponse) BatchResult() models.BatchResult {
	return models.BatchResult{
		Outcome: models.Outcome{
			Copied:         r.Copied,
			NotFound:       r.NotFound,
			NotInWorkspace: r.NotInWorkspace,
			Errored:        r.Errored,
			Diagnostics:    r.Diagnostics,
		},
		Archive: r.Archive,
	}
}

// NewCopyBatchResponse is the inverse of BatchResult.
func NewCopyBatchResponse(res models.BatchResult) *CopyBatchResponse {
	return &CopyBatchResponse{
		Copied:         res.Outcome.Copied,
		NotFound:       res.Outcome.NotFound,
		NotInWorkspace: res.Outcome.NotInWorkspace,
		Errored:        res.Outcome.Errored,
		Diagnostics:    res.Outcome.Diagnostics,
		Archive:        res.Archive,
	}
}

func (r *CopyFileResponse) FileResult() models.FileResult {
	return models.FileResult{
		Status:     models.FileStatus(r.Status),
		Payload:    r.Payload,
		Diagnostic: r.Diagnostic,
	}
}

func NewCopyFileResponse(res models.FileResult) *CopyFileResponse {
	return &CopyFileResponse{
		Status:     string(res.Status),
		Payload:    res.Payload,
		Diagnostic: res.Diagnostic,
	}
}
