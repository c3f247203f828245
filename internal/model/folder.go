package model

// FolderAllTasks is virtual: it represents "no filter" and is never stored.
const (
	FolderAllTasks = "All Tasks"
	FolderWork     = "Work"
	FolderPersonal = "Personal"
	FolderShopping = "Shopping"
)

type Folder struct {
	Name string `json:"name"`
}

// ProtectedFolder reports whether name is one of the reserved folders that
// can never be deleted.
func ProtectedFolder(name string) bool {
	switch name {
	case FolderAllTasks, FolderWork, FolderPersonal, FolderShopping:
		return true
	}
	return false
}

// DefaultFolders are seeded for every new user set. "All Tasks" is excluded
// because it only exists as a view.
func DefaultFolders() []Folder {
	return []Folder{
		{Name: FolderWork},
		{Name: FolderPersonal},
		{Name: FolderShopping},
	}
}
