package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

//
// -----------------------------------------------------------------------------
// Shared fixtures
// -----------------------------------------------------------------------------

// shopDescriptorYAML is a valid descriptor with a singleton, a transient and
// an external dependency.
const shopDescriptorYAML = `package: shop
function: RegisterShop
init: true
imports:
  - path: github.com/acme/shop/store
components:
  - key: user
    type: "*UserService"
    constructor: NewUserService
    deps:
      - { key: db, type: "*store.DB" }
      - { key: basket, type: "*Basket" }
      - { key: clock, type: Clock }
  - key: db
    type: "*store.DB"
    constructor: store.Open
    lifetime: Singleton
  - key: basket
    type: "*Basket"
    constructor: NewBasket
    returnsError: false
    deps:
      - { key: db, type: "*store.DB" }
`

func boolPtr(v bool) *bool { return &v }

// writeTempFile writes a file under dir/name and returns its full path.
func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

// readFileString reads a file and returns its contents as string (fatal on error).
func readFileString(t *testing.T, p string) string {
	t.Helper()
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	return string(b)
}

//
// -----------------------------------------------------------------------------
// writeFileAtomic() seam helpers
// -----------------------------------------------------------------------------

// fakeTempFile is a controllable file-like object for writeFileAtomic tests.
type fakeTempFile struct {
	fileName string
	writeErr error
	closeErr error
}

func (f *fakeTempFile) Name() string { return f.fileName }

func (f *fakeTempFile) Write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	return len(p), nil
}

func (f *fakeTempFile) Close() error { return f.closeErr }

// restoreWriteSeams snapshots the file seams and restores them on cleanup.
func restoreWriteSeams(t *testing.T) {
	t.Helper()
	origCreate, origRemove, origChmod, origRename := createTempFile, removeFile, chmodFile, renameFile
	t.Cleanup(func() {
		createTempFile, removeFile, chmodFile, renameFile = origCreate, origRemove, origChmod, origRename
	})
}
