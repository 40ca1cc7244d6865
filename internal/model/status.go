package model

// TaskStatus represents the stage a download operation is in
type TaskStatus string

const (
	// TaskStatusPending means the operation has been created but not started
	TaskStatusPending TaskStatus = "Pending"

	// TaskStatusProvisioning means external tools are being located or installed
	TaskStatusProvisioning TaskStatus = "Provisioning"

	// TaskStatusFetchingTitle means the extractor is queried for the video title
	TaskStatusFetchingTitle TaskStatus = "FetchingTitle"

	// TaskStatusChoosingLocation means the host is asked where to save the file
	TaskStatusChoosingLocation TaskStatus = "ChoosingLocation"

	// TaskStatusDownloading means the extraction command is running
	TaskStatusDownloading TaskStatus = "Downloading"

	// TaskStatusCanceled means the user or the caller canceled the operation
	TaskStatusCanceled TaskStatus = "Canceled"

	// TaskStatusCompleted means the MP3 was written successfully
	TaskStatusCompleted TaskStatus = "Completed"

	// TaskStatusError means the operation failed with an error
	TaskStatusError TaskStatus = "Error"
)

// String returns the string representation of TaskStatus
func (ts TaskStatus) String() string {
	return string(ts)
}

// IsActive returns true if the operation is still doing work
func (ts TaskStatus) IsActive() bool {
	switch ts {
	case TaskStatusProvisioning, TaskStatusFetchingTitle, TaskStatusChoosingLocation, TaskStatusDownloading:
		return true
	}
	return false
}

// IsFinished returns true if the task is in a finished state (completed, canceled, or error)
func (ts TaskStatus) IsFinished() bool {
	return ts == TaskStatusCompleted || ts == TaskStatusCanceled || ts == TaskStatusError
}
