package ftp

import "io"

// Client is the interface for proof media storage operations.
type Client interface {
	UploadFile(remotePath string, data io.Reader) error
	GenerateURL(remotePath string) string
	Close() error
}

// Ensure both clients implement the interface
var _ Client = (*FTPClient)(nil)
var _ Client = (*MockClient)(nil)
