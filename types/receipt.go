package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// Receipt status codes, matching the ledger's convention.
const (
	ReceiptFailed  uint32 = 0
	ReceiptSuccess uint32 = 1
)

// EventLog is a single log entry emitted during transaction execution.
type EventLog struct {
	Address common.Address `cramberry:"1"`
	Topics  []common.Hash  `cramberry:"2"`
	Data    []byte         `cramberry:"3"`
}

// Receipt is the mined result of a submitted transaction.
type Receipt struct {
	TxHash  common.Hash `cramberry:"1"`
	Height  uint64      `cramberry:"2"`
	Status  uint32      `cramberry:"3"`
	GasUsed uint64      `cramberry:"4"`
	Logs    []EventLog  `cramberry:"5"`
}

// OK reports whether the transaction executed successfully.
func (r Receipt) OK() bool { return r.Status == ReceiptSuccess }

// GameRevealedSig is the topic-0 signature of the GameRevealed event:
// GameRevealed(player indexed address, depositedTokenId uint256,
// receivedTokenId uint256, receivedRarity uint8).
var GameRevealedSig = crypto.Keccak256Hash([]byte("GameRevealed(address,uint256,uint256,uint8)"))

// OutcomeEvent is the decoded GameRevealed event: which asset the
// player deposited and which one the pool handed back. Consumed once;
// history persistence is the backend's job, not the engine's.
type OutcomeEvent struct {
	Player           common.Address `cramberry:"1"`
	DepositedAssetID uint64         `cramberry:"2"`
	ReceivedAssetID  uint64         `cramberry:"3"`
	ReceivedTier     uint8          `cramberry:"4"`
}

// DecodeOutcome scans receipt logs for a GameRevealed event emitted by
// the given contract. The second return is false when no matching log
// exists — a successful receipt without the event means the outcome is
// unknown, never that the reveal failed.
func DecodeOutcome(r Receipt, contract common.Address) (OutcomeEvent, bool) {
	for _, lg := range r.Logs {
		if lg.Address != contract {
			continue
		}
		if len(lg.Topics) < 2 || lg.Topics[0] != GameRevealedSig {
			continue
		}
		// Data: three 32-byte words.
		if len(lg.Data) != 96 {
			continue
		}
		ev := OutcomeEvent{
			Player:           common.BytesToAddress(lg.Topics[1][12:]),
			DepositedAssetID: wordToUint64(lg.Data[0:32]),
			ReceivedAssetID:  wordToUint64(lg.Data[32:64]),
			ReceivedTier:     uint8(wordToUint64(lg.Data[64:96])),
		}
		return ev, true
	}
	return OutcomeEvent{}, false
}

// EncodeOutcome renders an outcome as a GameRevealed log entry. Used
// by ledger implementations; the engine only decodes.
func EncodeOutcome(contract common.Address, ev OutcomeEvent) EventLog {
	data := make([]byte, 96)
	putWord(data[0:32], ev.DepositedAssetID)
	putWord(data[32:64], ev.ReceivedAssetID)
	putWord(data[64:96], uint64(ev.ReceivedTier))
	return EventLog{
		Address: contract,
		Topics: []common.Hash{
			GameRevealedSig,
			common.BytesToHash(ev.Player.Bytes()),
		},
		Data: data,
	}
}

func wordToUint64(word []byte) uint64 {
	return new(uint256.Int).SetBytes(word).Uint64()
}

func putWord(dst []byte, v uint64) {
	b := uint256.NewInt(v).Bytes32()
	copy(dst, b[:])
}
