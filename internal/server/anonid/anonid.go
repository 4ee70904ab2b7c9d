// Package anonid derives the short pseudonymous tags (authids) that stand
// in for a user's real identity inside a single thread.
//
// A tag mixes the (user, thread) pair with four fresh random bytes through
// CRC-16/ARC and base64-encodes the 4-character hex checksum, yielding an
// 8-character tag. The randomness, not the checksum, is what makes tags
// unlinkable across threads: deriving twice for the same pair produces
// different tags, so a tag must be derived exactly once per (thread, user)
// and persisted with the participant row.
package anonid

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/sigurn/crc16"
)

// TagLength is the length of every derived tag.
const TagLength = 8

var arcTable = crc16.MakeTable(crc16.CRC16_ARC)

// DeriveTag computes a fresh pseudonymous tag for a user inside a thread.
// Tags are not globally unique; they are only ever interpreted within the
// scope of one thread.
func DeriveTag(threadID, userID int64) (string, error) {
	var salt [4]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return "", fmt.Errorf("tag salt: %w", err)
	}

	input := strconv.FormatInt(userID, 10) + ":" + strconv.FormatInt(threadID, 10) + hex.EncodeToString(salt[:])
	sum := crc16.Checksum([]byte(input), arcTable)

	digest := fmt.Sprintf("%04X", sum)
	return base64.StdEncoding.EncodeToString([]byte(digest)), nil
}
