package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// SessionRecord is the locally persisted half of a commitment: the
// secret the ledger cannot return, plus enough context to retry the
// commit or drive the reveal. It is an advisory cache — its absence
// proves nothing, and its presence is only useful while the ledger
// holds a matching commitment.
//
// Written before the commit transaction is submitted so a crash
// between submit and confirm still leaves the secret recoverable.
// Deleted only after a reveal or cancel is confirmed.
type SessionRecord struct {
	Owner common.Address `cramberry:"1"`
	// Secret, big-endian 32 bytes.
	Secret         [32]byte  `cramberry:"2"`
	DepositAssetID uint64    `cramberry:"3"`
	DepositTier    uint8     `cramberry:"4"`
	CreatedAt      Timestamp `cramberry:"5"`
}

// SecretValue returns the stored secret as a uint256.
func (r SessionRecord) SecretValue() *uint256.Int {
	return new(uint256.Int).SetBytes32(r.Secret[:])
}

// SetSecret stores a uint256 secret.
func (r *SessionRecord) SetSecret(s *uint256.Int) {
	r.Secret = s.Bytes32()
}
