package storage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vitordossantos/NUCoffea/internal/config"
)

func TestLocalListerList(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"tree_2.root", "tree_1.root", "tree_10.root"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := NewLocalLister().List(context.Background(), dir+"/")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []string{
		filepath.Join(dir, "tree_1.root"),
		filepath.Join(dir, "tree_10.root"),
		filepath.Join(dir, "tree_2.root"),
	}
	if len(got) != len(want) {
		t.Fatalf("List = %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List[%d] = %q; want %q", i, got[i], want[i])
		}
	}
}

func TestLocalListerMissingDir(t *testing.T) {
	_, err := NewLocalLister().List(context.Background(), filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, ErrDirNotFound) {
		t.Errorf("List error = %v; want ErrDirNotFound", err)
	}
	var le *ListError
	if !errors.As(err, &le) || le.Backend != "local" {
		t.Errorf("List error should be a local ListError: %v", err)
	}
}

func TestLocalListerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewLocalLister().List(ctx, t.TempDir()); !errors.Is(err, context.Canceled) {
		t.Errorf("List error = %v; want context.Canceled", err)
	}
}

func TestNew(t *testing.T) {
	l, err := New(config.StorageConfig{Backend: "local"})
	if err != nil {
		t.Fatalf("New(local) failed: %v", err)
	}
	if _, ok := l.(*LocalLister); !ok {
		t.Errorf("New(local) = %T; want *LocalLister", l)
	}

	if _, err := New(config.StorageConfig{Backend: "xrootd"}); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("New(xrootd) error = %v; want ErrUnknownBackend", err)
	}

	if _, err := New(config.StorageConfig{Backend: "s3"}); err == nil {
		t.Errorf("New(s3) without endpoint should fail")
	}
}

func TestS3KeyMapping(t *testing.T) {
	s := &S3Lister{prefix: "/eos/cms/"}

	if got := s.keyPrefix("/eos/cms/store/group/phys_smp/T/S/"); got != "store/group/phys_smp/T/S/" {
		t.Errorf("keyPrefix = %q", got)
	}
	if got := s.keyPrefix("/eos/cms/store/group/phys_smp/T/S"); got != "store/group/phys_smp/T/S/" {
		t.Errorf("keyPrefix without trailing slash = %q", got)
	}
	if got := s.eosPath("store/group/phys_smp/T/S/tree_1.root"); got != "/eos/cms/store/group/phys_smp/T/S/tree_1.root" {
		t.Errorf("eosPath = %q", got)
	}

	bare := &S3Lister{}
	if got := bare.eosPath("a/b"); got != "/a/b" {
		t.Errorf("eosPath without prefix = %q", got)
	}
}

const listResponse = `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
  <Name>eos</Name>
  <Prefix>store/T/S/</Prefix>
  <KeyCount>3</KeyCount>
  <MaxKeys>1000</MaxKeys>
  <Delimiter>/</Delimiter>
  <IsTruncated>false</IsTruncated>
  <Contents><Key>store/T/S/tree_2.root</Key><Size>10</Size></Contents>
  <Contents><Key>store/T/S/tree_1.root</Key><Size>10</Size></Contents>
  <CommonPrefixes><Prefix>store/T/S/logs/</Prefix></CommonPrefixes>
</ListBucketResult>`

func newTestS3Lister(t *testing.T, handler http.HandlerFunc) *S3Lister {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	l, err := NewS3Lister(config.S3Config{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "test",
		SecretKey: "testsecret",
		Bucket:    "eos",
		Region:    "us-east-1",
		UseSSL:    false,
		Prefix:    "/eos/cms/",
	})
	if err != nil {
		t.Fatalf("NewS3Lister failed: %v", err)
	}
	return l
}

func TestS3ListerList(t *testing.T) {
	var gotPrefix string
	l := newTestS3Lister(t, func(w http.ResponseWriter, r *http.Request) {
		gotPrefix = r.URL.Query().Get("prefix")
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(listResponse))
	})

	got, err := l.List(context.Background(), "/eos/cms/store/T/S/")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if gotPrefix != "store/T/S/" {
		t.Errorf("requested prefix = %q", gotPrefix)
	}
	want := []string{
		"/eos/cms/store/T/S/logs",
		"/eos/cms/store/T/S/tree_1.root",
		"/eos/cms/store/T/S/tree_2.root",
	}
	if len(got) != len(want) {
		t.Fatalf("List = %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List[%d] = %q; want %q", i, got[i], want[i])
		}
	}
}

func TestS3ListerEmptyPrefix(t *testing.T) {
	l := newTestS3Lister(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
  <Name>eos</Name><KeyCount>0</KeyCount><MaxKeys>1000</MaxKeys><IsTruncated>false</IsTruncated>
</ListBucketResult>`))
	})

	if _, err := l.List(context.Background(), "/eos/cms/store/none/"); !errors.Is(err, ErrDirNotFound) {
		t.Errorf("List error = %v; want ErrDirNotFound", err)
	}
}

func TestLocalListerEmptyDir(t *testing.T) {
	got, err := NewLocalLister().List(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("List = %v; want empty", got)
	}
}
