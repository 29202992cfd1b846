package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"go-site-inventory/pkg/jwt"
)

// smallest PDF header mimetype recognises
var pdfBody = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")

var pngBody = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func newTestStore(t *testing.T, maxBytes int64) *localStore {
	t.Helper()
	s, err := NewLocal(t.TempDir(), "http://localhost/files", maxBytes, jwt.NewSigner("secret", "test", time.Hour))
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	ls := s.(*localStore)
	ls.now = func() time.Time { return time.UnixMilli(1717000000123) }
	return ls
}

func TestUpload_NamesObjectBySiteAndTime(t *testing.T) {
	s := newTestStore(t, 0)

	obj, err := s.Upload(context.Background(), UploadRequest{
		Folder:   FolderBills,
		SiteCode: "blr01",
		Name:     "invoice.pdf",
		Body:     bytes.NewReader(pdfBody),
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if obj.Path != "bills/BLR01_1717000000123.pdf" {
		t.Errorf("Path = %q, want %q", obj.Path, "bills/BLR01_1717000000123.pdf")
	}
	if obj.ContentType != "application/pdf" {
		t.Errorf("ContentType = %q, want application/pdf", obj.ContentType)
	}
	if obj.Size != int64(len(pdfBody)) {
		t.Errorf("Size = %d, want %d", obj.Size, len(pdfBody))
	}

	rc, info, err := s.Open(context.Background(), obj.Path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if !bytes.Equal(got, pdfBody) {
		t.Error("Open() returned different bytes")
	}
	if info.ContentType != "application/pdf" {
		t.Errorf("Open() ContentType = %q", info.ContentType)
	}

	if err := s.Delete(context.Background(), obj.Path); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := s.Delete(context.Background(), obj.Path); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestUpload_SameMillisecondDoesNotOverwrite(t *testing.T) {
	s := newTestStore(t, 0)
	req := func() UploadRequest {
		return UploadRequest{Folder: FolderIssueSlips, SiteCode: "S1", Body: bytes.NewReader(pngBody)}
	}
	if _, err := s.Upload(context.Background(), req()); err != nil {
		t.Fatalf("first Upload() error = %v", err)
	}
	if _, err := s.Upload(context.Background(), req()); err == nil {
		t.Error("second Upload() error = nil, want collision error")
	}
}

func TestUpload_Rejects(t *testing.T) {
	s := newTestStore(t, 32)

	tests := []struct {
		name string
		req  UploadRequest
		want error
	}{
		{"too large", UploadRequest{Folder: FolderBills, Body: bytes.NewReader(append(pdfBody, make([]byte, 64)...))}, ErrTooLarge},
		{"empty", UploadRequest{Folder: FolderBills, Body: strings.NewReader("")}, ErrEmpty},
		{"plain text", UploadRequest{Folder: FolderBills, Body: strings.NewReader("hello")}, ErrUnsupportedType},
		{"unknown folder", UploadRequest{Folder: "../etc", Body: bytes.NewReader(pngBody)}, ErrBadPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Upload(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("Upload() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSignedURLRoundTrip(t *testing.T) {
	s := newTestStore(t, 0)

	url, exp, err := s.SignedURL("bills/S1_1.pdf", 0)
	if err != nil {
		t.Fatalf("SignedURL() error = %v", err)
	}
	if !strings.HasPrefix(url, "http://localhost/files/") {
		t.Errorf("SignedURL() = %q, want files prefix", url)
	}
	if d := time.Until(exp); d <= 0 || d > DefaultSignedTTL {
		t.Errorf("expiry in %v, want within %v", d, DefaultSignedTTL)
	}

	path, err := s.Verify(strings.TrimPrefix(url, "http://localhost/files/"))
	if err != nil || path != "bills/S1_1.pdf" {
		t.Errorf("Verify() = %q, %v", path, err)
	}
}

func TestResolve_RejectsTraversal(t *testing.T) {
	s := newTestStore(t, 0)
	for _, p := range []string{"", "../secret", "bills/../../x", "/bills/a.pdf", "other/a.pdf"} {
		if _, err := s.resolve(p); !errors.Is(err, ErrBadPath) {
			t.Errorf("resolve(%q) error = %v, want ErrBadPath", p, err)
		}
	}
	if _, _, err := s.Open(context.Background(), "bills/missing.pdf"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Open(missing) error = %v, want ErrNotFound", err)
	}
}
