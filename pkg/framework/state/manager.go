// Package state serializes a parameter registry plus optional custom data
// into a small versioned binary blob.
package state

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/justyntemme/unison/pkg/framework/param"
)

// DefaultMagic tags blobs written by engines built on this framework.
const DefaultMagic = "UNISON"

// ErrInvalidFormat is returned when a blob does not start with the expected magic.
var ErrInvalidFormat = errors.New("invalid state format")

// Manager handles state saving and loading for one registry.
type Manager struct {
	magic    string
	version  uint32
	registry *param.Registry
	save     CustomSaveFunc
	load     CustomLoadFunc
}

// CustomSaveFunc writes data beyond parameter values.
type CustomSaveFunc func(w io.Writer) error

// CustomLoadFunc reads what the matching CustomSaveFunc wrote.
type CustomLoadFunc func(r io.Reader, version uint32) error

// NewManager creates a manager using DefaultMagic and version 1.
func NewManager(registry *param.Registry) *Manager {
	return &Manager{
		magic:    DefaultMagic,
		version:  1,
		registry: registry,
	}
}

// WithMagic replaces the header tag. Useful to keep containers apart.
func (m *Manager) WithMagic(magic string) *Manager {
	m.magic = magic
	return m
}

// WithVersion sets the version written by Save and accepted by Load.
func (m *Manager) WithVersion(version uint32) *Manager {
	m.version = version
	return m
}

// SetCustomState installs the functions handling custom data.
func (m *Manager) SetCustomState(save CustomSaveFunc, load CustomLoadFunc) {
	m.save = save
	m.load = load
}

// Save writes the registry values and any custom state.
func (m *Manager) Save(w io.Writer) error {
	if _, err := io.WriteString(w, m.magic); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, m.version); err != nil {
		return err
	}

	params := m.registry.All()
	if err := binary.Write(w, binary.LittleEndian, int32(len(params))); err != nil {
		return err
	}
	for _, p := range params {
		if err := binary.Write(w, binary.LittleEndian, p.ID); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, p.GetValue()); err != nil {
			return err
		}
	}

	if m.save == nil {
		return binary.Write(w, binary.LittleEndian, uint32(0))
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(1)); err != nil {
		return err
	}
	return m.save(w)
}

// Load restores parameter values written by Save. Unknown IDs are skipped
// so older or newer engines can read each other's blobs.
func (m *Manager) Load(r io.Reader) error {
	header := make([]byte, len(m.magic))
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("reading header: %w", err)
	}
	if string(header) != m.magic {
		return ErrInvalidFormat
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return err
	}
	if version > m.version {
		return fmt.Errorf("state version %d is newer than supported version %d", version, m.version)
	}

	var count int32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return err
	}
	for i := int32(0); i < count; i++ {
		var entry struct {
			ID    uint32
			Value float64
		}
		if err := binary.Read(r, binary.LittleEndian, &entry); err != nil {
			return fmt.Errorf("reading parameter %d: %w", i, err)
		}
		if p := m.registry.Get(entry.ID); p != nil {
			p.SetValue(entry.Value)
		}
	}

	var hasCustom uint32
	if err := binary.Read(r, binary.LittleEndian, &hasCustom); err != nil {
		return err
	}
	if hasCustom == 0 || m.load == nil {
		return nil
	}
	return m.load(r, version)
}

// Bytes is Save into a fresh buffer.
func (m *Manager) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := m.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LoadBytes is Load from a byte slice.
func (m *Manager) LoadBytes(data []byte) error {
	return m.Load(bytes.NewReader(data))
}

// WriteBlob writes a length-prefixed byte slice.
func WriteBlob(w io.Writer, data []byte) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(data))); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

// ReadBlob reads a slice written by WriteBlob.
func ReadBlob(r io.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}
