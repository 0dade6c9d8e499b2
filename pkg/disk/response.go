package disk

import (
	"time"

	"github.com/dcnetdisk/dcdisk/pkg/metadata"
)

// Response is the JSON envelope of every API answer: either Result is set,
// or ErrorCode and ErrorMessage are.
type Response struct {
	Result       any       `json:"result,omitempty"`
	ErrorCode    ErrorCode `json:"errorCode,omitempty"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
}

// ListResult is the result of a directory listing.
type ListResult struct {
	Entries []*metadata.FileEntry `json:"entries"`
}

// UploadResult is the result of an upload.
type UploadResult struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Path       string    `json:"path"`
	Size       int64     `json:"size"`
	CreatedAt  time.Time `json:"createdAt"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// ViewModel feeds the HTML listing page.
type ViewModel struct {
	Success  bool
	ErrorMsg string
	FileList []*metadata.FileEntry

	// Path is the logical directory shown.
	Path string
}

// ListResponse shapes the outcome of ListDirectory.
func ListResponse(entries []*metadata.FileEntry, err error) Response {
	if err != nil {
		return ErrorResponse(err)
	}
	if entries == nil {
		entries = []*metadata.FileEntry{}
	}
	return Response{Result: ListResult{Entries: entries}}
}

// UploadResponse shapes the outcome of UploadFile.
func UploadResponse(entry *metadata.FileEntry, err error) Response {
	if err != nil {
		return ErrorResponse(err)
	}
	return Response{Result: UploadResult{
		ID:         entry.ID,
		Filename:   entry.Name,
		Path:       entry.Path,
		Size:       entry.Size,
		CreatedAt:  entry.CreatedAt,
		ModifiedAt: entry.ModifiedAt,
	}}
}

// EntryResponse wraps a single entry.
func EntryResponse(entry *metadata.FileEntry, err error) Response {
	if err != nil {
		return ErrorResponse(err)
	}
	return Response{Result: entry}
}

// ErrorResponse shapes err. Errors without a code are reported as
// TRANSFER_FAILED.
func ErrorResponse(err error) Response {
	de := AsError(err, CodeTransferFailed)
	return Response{ErrorCode: de.Code, ErrorMessage: de.PublicMessage()}
}

// StatusOf returns the HTTP status for err, 200 for nil.
func StatusOf(err error) int {
	if err == nil {
		return 200
	}
	return AsError(err, CodeTransferFailed).Code.HTTPStatus()
}

// NewViewModel shapes the outcome of ListDirectory for the HTML page.
func NewViewModel(logicalPath string, entries []*metadata.FileEntry, err error) ViewModel {
	if err != nil {
		return ViewModel{Success: false, ErrorMsg: AsError(err, CodeTransferFailed).PublicMessage(), Path: logicalPath}
	}
	if entries == nil {
		entries = []*metadata.FileEntry{}
	}
	return ViewModel{Success: true, FileList: entries, Path: logicalPath}
}
