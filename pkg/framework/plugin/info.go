package plugin

import (
	"crypto/sha1"
	"errors"
	"fmt"
)

// Info contains engine metadata
type Info struct {
	ID       string // reverse domain identifier, e.g. "com.example.synth"
	Name     string
	Version  string
	Vendor   string
	Category string // e.g. "Instrument|Synth"
}

// uidNamespace seeds UID so identical IDs from other tools do not collide.
var uidNamespace = [16]byte{
	0x6b, 0x2f, 0x1d, 0x90, 0x4c, 0x7e, 0x4a, 0x1b,
	0x9d, 0x33, 0x50, 0xe2, 0x8a, 0x61, 0x0f, 0xc4,
}

// UID derives a stable 16 byte identifier from the ID, laid out as a
// version 5 UUID.
func (i Info) UID() [16]byte {
	h := sha1.New()
	h.Write(uidNamespace[:])
	h.Write([]byte(i.ID))
	sum := h.Sum(nil)

	var uid [16]byte
	copy(uid[:], sum)
	uid[6] = (uid[6] & 0x0f) | 0x50
	uid[8] = (uid[8] & 0x3f) | 0x80
	return uid
}

// ValidateUID checks that an identifier is present.
func (i Info) ValidateUID() error {
	if i.ID == "" {
		return errors.New("plugin ID must not be empty")
	}
	return nil
}

// UIDString formats the UID in the usual 8-4-4-4-12 form.
func (i Info) UIDString() string {
	u := i.UID()
	return fmt.Sprintf("%x-%x-%x-%x-%x", u[0:4], u[4:6], u[6:8], u[8:10], u[10:16])
}

func (i Info) String() string {
	return fmt.Sprintf("%s %s (%s)", i.Name, i.Version, i.Vendor)
}
