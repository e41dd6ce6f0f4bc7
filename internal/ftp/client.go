package ftp

import (
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
)

// FTPClient stores proof media on an FTP server and derives publicly
// resolvable URLs from a base URL.
type FTPClient struct {
	host     string
	port     string
	user     string
	password string
	baseURL  string
	conn     *ftp.ServerConn
}

func NewFTPClient(host, port, user, password, baseURL string) *FTPClient {
	return &FTPClient{
		host:     host,
		port:     port,
		user:     user,
		password: password,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
	}
}

// Connect establishes connection to the FTP server
func (c *FTPClient) Connect() error {
	addr := c.host + ":" + c.port
	conn, err := ftp.Dial(addr, ftp.DialWithTimeout(10*time.Second))
	if err != nil {
		return fmt.Errorf("failed to connect to FTP: %w", err)
	}

	if err := conn.Login(c.user, c.password); err != nil {
		conn.Quit()
		return fmt.Errorf("failed to login to FTP: %w", err)
	}

	c.conn = conn
	return nil
}

// UploadFile uploads a file to the FTP server, creating parent
// directories as needed.
func (c *FTPClient) UploadFile(remotePath string, data io.Reader) error {
	if c.conn == nil {
		if err := c.Connect(); err != nil {
			return err
		}
	}

	dir := path.Dir(remotePath)
	if dir != "." && dir != "/" {
		// MakeDir fails when the directory exists; that is fine.
		c.makeDirs(dir)
	}

	if err := c.conn.Stor(remotePath, data); err != nil {
		// One reconnect attempt for stale connections.
		if connErr := c.Connect(); connErr != nil {
			return fmt.Errorf("failed to upload file: %w", err)
		}
		if err := c.conn.Stor(remotePath, data); err != nil {
			return fmt.Errorf("failed to upload file: %w", err)
		}
	}

	return nil
}

func (c *FTPClient) makeDirs(dir string) {
	parts := strings.Split(strings.Trim(dir, "/"), "/")
	current := ""
	for _, part := range parts {
		current = path.Join(current, part)
		c.conn.MakeDir(current)
	}
}

// GenerateURL returns the public URL for an uploaded file
func (c *FTPClient) GenerateURL(remotePath string) string {
	return c.baseURL + "/" + strings.TrimPrefix(remotePath, "/")
}

// Close closes the FTP connection
func (c *FTPClient) Close() error {
	if c.conn != nil {
		return c.conn.Quit()
	}
	return nil
}
