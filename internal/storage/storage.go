// Package storage keeps bills and issue slips attached to transactions.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go-site-inventory/pkg/jwt"

	"github.com/gabriel-vasile/mimetype"
)

const (
	FolderBills      = "bills"
	FolderIssueSlips = "issue-slips"
	DefaultMaxBytes  = 10 << 20
	DefaultSignedTTL = time.Hour
)

var (
	ErrTooLarge        = errors.New("file exceeds the upload limit")
	ErrEmpty           = errors.New("file is empty")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrNotFound        = errors.New("file not found")
	ErrBadPath         = errors.New("invalid object path")
)

// allowed content types and the extension they are stored under
var allowed = map[string]string{
	"application/pdf": ".pdf",
	"image/png":       ".png",
	"image/jpeg":      ".jpg",
	"image/webp":      ".webp",
}

type UploadRequest struct {
	Folder   string
	SiteCode string
	Name     string
	Body     io.Reader
}

// Object describes a stored file.
type Object struct {
	Path        string
	Name        string
	ContentType string
	Size        int64
}

type Store interface {
	Upload(ctx context.Context, req UploadRequest) (Object, error)
	Open(ctx context.Context, objectPath string) (io.ReadCloser, Object, error)
	Delete(ctx context.Context, objectPath string) error
	SignedURL(objectPath string, ttl time.Duration) (string, time.Time, error)
	Verify(token string) (string, error)
}

type localStore struct {
	root     string
	baseURL  string
	maxBytes int64
	signer   *jwt.Signer
	now      func() time.Time
}

// NewLocal stores objects under root. Signed URLs have the form
// {baseURL}/{token}.
func NewLocal(root, baseURL string, maxBytes int64, signer *jwt.Signer) (Store, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &localStore{
		root:     root,
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxBytes: maxBytes,
		signer:   signer,
		now:      time.Now,
	}, nil
}

func (s *localStore) Upload(ctx context.Context, req UploadRequest) (Object, error) {
	if req.Folder != FolderBills && req.Folder != FolderIssueSlips {
		return Object{}, fmt.Errorf("%w: folder %q", ErrBadPath, req.Folder)
	}

	// read one byte past the limit to detect oversize bodies
	data, err := io.ReadAll(io.LimitReader(req.Body, s.maxBytes+1))
	if err != nil {
		return Object{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return Object{}, ErrEmpty
	}
	if int64(len(data)) > s.maxBytes {
		return Object{}, ErrTooLarge
	}

	mt := mimetype.Detect(data)
	ext, ok := allowed[baseType(mt.String())]
	if !ok {
		return Object{}, fmt.Errorf("%w: %s", ErrUnsupportedType, mt.String())
	}

	if err := ctx.Err(); err != nil {
		return Object{}, err
	}

	name := fmt.Sprintf("%s_%d%s", sanitize(req.SiteCode), s.now().UnixMilli(), ext)
	objectPath := path.Join(req.Folder, name)
	full := filepath.Join(s.root, filepath.FromSlash(objectPath))

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return Object{}, fmt.Errorf("create folder: %w", err)
	}
	// O_EXCL so two uploads in the same millisecond cannot overwrite each other
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return Object{}, fmt.Errorf("create object: %w", err)
	}
	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		f.Close()
		os.Remove(full)
		return Object{}, fmt.Errorf("write object: %w", err)
	}
	if err := f.Close(); err != nil {
		return Object{}, fmt.Errorf("close object: %w", err)
	}

	display := req.Name
	if display == "" {
		display = name
	}
	return Object{
		Path:        objectPath,
		Name:        display,
		ContentType: baseType(mt.String()),
		Size:        int64(len(data)),
	}, nil
}

func (s *localStore) Open(ctx context.Context, objectPath string) (io.ReadCloser, Object, error) {
	full, err := s.resolve(objectPath)
	if err != nil {
		return nil, Object{}, err
	}
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, Object{}, ErrNotFound
		}
		return nil, Object{}, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, Object{}, err
	}
	mt, err := mimetype.DetectReader(f)
	if err != nil {
		f.Close()
		return nil, Object{}, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, Object{}, err
	}
	return f, Object{
		Path:        objectPath,
		Name:        path.Base(objectPath),
		ContentType: baseType(mt.String()),
		Size:        info.Size(),
	}, nil
}

func (s *localStore) Delete(_ context.Context, objectPath string) error {
	full, err := s.resolve(objectPath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *localStore) SignedURL(objectPath string, ttl time.Duration) (string, time.Time, error) {
	if _, err := s.resolve(objectPath); err != nil {
		return "", time.Time{}, err
	}
	if ttl <= 0 {
		ttl = DefaultSignedTTL
	}
	token, exp, err := s.signer.SignFile(objectPath, ttl)
	if err != nil {
		return "", time.Time{}, err
	}
	return s.baseURL + "/" + token, exp, nil
}

func (s *localStore) Verify(token string) (string, error) {
	return s.signer.ValidateFile(token)
}

// resolve maps an object path to a file under root, refusing traversal.
func (s *localStore) resolve(objectPath string) (string, error) {
	clean := path.Clean("/" + objectPath)[1:]
	if clean == "" || clean != objectPath {
		return "", ErrBadPath
	}
	folder, _, ok := strings.Cut(clean, "/")
	if !ok || (folder != FolderBills && folder != FolderIssueSlips) {
		return "", ErrBadPath
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

func baseType(mime string) string {
	t, _, _ := strings.Cut(mime, ";")
	return strings.TrimSpace(t)
}

func sanitize(code string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(code) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "SITE"
	}
	return b.String()
}
