package arc

import "time"

// FileRecord is a single stored version of an archived file.
// Records are never removed; only their State changes.
type FileRecord struct {
	ID           int64     `json:"id"`
	Author       string    `json:"author"`
	Filename     string    `json:"filename"`
	UploadDate   time.Time `json:"uploadDate"`
	ModifyDate   time.Time `json:"modifyDate"`
	Extension    string    `json:"extension"`
	Size         float64   `json:"size"` // kilobytes
	State        FileState `json:"state"`
	RelatedFiles []int64   `json:"relatedFiles"`
	Data         []byte    `json:"data"`
}

// FileSummary is the listing view of a FileRecord.
type FileSummary struct {
	ID       int64   `json:"id"`
	Filename string  `json:"filename"`
	Size     float64 `json:"size"`
}

// ReplaceResult describes the record created by a replace.
type ReplaceResult struct {
	ID          int64  `json:"id"`
	Filename    string `json:"filename"`
	OldFilename string `json:"oldFilename"`
}

// Download is the payload of a stored file together with its display name.
type Download struct {
	Filename string
	Data     []byte
}

// TrashRecord is the payload snapshot taken when a record moves to Deleted.
type TrashRecord struct {
	ID         int64     `json:"id"`
	FileID     int64     `json:"fileId"`
	Filename   string    `json:"filename"`
	DeleteDate time.Time `json:"deleteDate"`
	Data       []byte    `json:"data"`
}

// HistoryEntry is one line of the change log.
type HistoryEntry struct {
	ID         int64     `json:"id"`
	FileID     int64     `json:"fileId"`
	Filename   string    `json:"filename"`
	Author     string    `json:"author"`
	ChangeDate time.Time `json:"changeDate"`
	ChangeText string    `json:"changeText"`
}

// History change texts.
const (
	ChangeUploaded = "uploaded"
	ChangeDeleted  = "deleted"
	ChangeReplaced = "replaced"
	ChangeCorrupt  = "flagged corrupt"
)

// NewFile carries the derived fields of a record about to be inserted.
// For replaces, Author is ignored and taken from the superseded record.
type NewFile struct {
	Author    string
	Filename  string
	Extension string
	Size      float64
	Data      []byte
	At        time.Time
}
