package pack

import (
	"encoding/json"
	"os"
	"sync"

	packerrors "github.com/sitepack/sitepack/internal/errors"
)

// Reference is one recognized tag/import/include occurrence extracted from a
// page. Match preserves the literal matched substring so only that exact
// span is replaced later, not every occurrence of the bare pathname.
type Reference struct {
	Pathname string `json:"pathname"`
	Match    string `json:"match"`
}

// PageRecord is the persisted per-page state.
type PageRecord struct {
	ModTime int64       `json:"mtime"`
	Assets  []Reference `json:"assets"`
}

// AssetRecord is the persisted per-asset state.
type AssetRecord struct {
	ModTime int64  `json:"mtime"`
	OutName string `json:"outname"`
}

// Manifest is the persisted snapshot of the previous build, keyed by
// pathname. It enables incremental rebuilds: files whose modification time
// has not advanced past their record are skipped.
type Manifest struct {
	Version string                 `json:"version"`
	Pages   map[string]PageRecord  `json:"pages"`
	Assets  map[string]AssetRecord `json:"assets"`

	mu sync.Mutex
}

// NewManifest creates an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{
		Pages:  make(map[string]PageRecord),
		Assets: make(map[string]AssetRecord),
	}
}

// LoadManifest reads the manifest at path. A missing or unparseable file is
// never fatal: the build simply starts from an empty manifest, which forces
// a full rebuild.
func LoadManifest(path string) (*Manifest, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return NewManifest(), false
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return NewManifest(), false
	}

	if m.Pages == nil {
		m.Pages = make(map[string]PageRecord)
	}
	if m.Assets == nil {
		m.Assets = make(map[string]AssetRecord)
	}

	return &m, true
}

// Save serializes the manifest to path.
func (m *Manifest) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return packerrors.NewInternalError(packerrors.ErrCodeManifestWrite, "failed to encode manifest", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return packerrors.NewIOError(packerrors.ErrCodeManifestWrite, "failed to write manifest", err).WithFile(path)
	}

	return nil
}

// Page returns the record for a page pathname.
func (m *Manifest) Page(pathname string) (PageRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.Pages[pathname]

	return rec, ok
}

// Asset returns the record for an asset pathname.
func (m *Manifest) Asset(pathname string) (AssetRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.Assets[pathname]

	return rec, ok
}

// SetPage records a page's state. Safe for concurrent use: page builds fan
// out and each writes a distinct key.
func (m *Manifest) SetPage(pathname string, rec PageRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Pages[pathname] = rec
}

// SetAsset records an asset's state.
func (m *Manifest) SetAsset(pathname string, rec AssetRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Assets[pathname] = rec
}
