package gitlib

import (
	"encoding/hex"
	"errors"
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

// HashSize is the size of a SHA-1 hash in bytes.
const HashSize = 20

// ErrInvalidHash is returned when a string is not a full hex object id.
var ErrInvalidHash = errors.New("invalid object hash")

// Hash is a git object id.
type Hash [HashSize]byte

// ParseHash parses a 40 character hex object id.
func ParseHash(s string) (Hash, error) {
	var h Hash

	if hex.DecodedLen(len(s)) != HashSize {
		return h, fmt.Errorf("%w: %q", ErrInvalidHash, s)
	}

	_, err := hex.Decode(h[:], []byte(s))
	if err != nil {
		return Hash{}, fmt.Errorf("%w: %q", ErrInvalidHash, s)
	}

	return h, nil
}

// HashFromOid converts a libgit2 Oid to Hash.
func HashFromOid(oid *git2go.Oid) Hash {
	var h Hash
	copy(h[:], oid[:])

	return h
}

// String returns the hex representation of the hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// ToOid converts the hash to a libgit2 Oid.
func (h Hash) ToOid() *git2go.Oid {
	oid := git2go.Oid(h)

	return &oid
}
