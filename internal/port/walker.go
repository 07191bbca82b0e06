package port

import "ragchat/internal/domain"

type FileWalker interface {
	Walk(root string) ([]FileInfo, error)
}

type FileInfo struct {
	Path    string
	ModTime int64
	Size    int64
}

type DocumentLoader interface {
	Load(files []FileInfo) ([]domain.Document, error)
}
