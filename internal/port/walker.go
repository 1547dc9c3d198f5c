package port

// FileWalker lists the files an index build should read.
type FileWalker interface {
	Walk(root string) ([]FileInfo, error)
}

type FileInfo struct {
	Path    string // absolute
	RelPath string // slash-separated, relative to the walk root; used as the source label
	ModTime int64
	Size    int64
}
