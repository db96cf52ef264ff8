package types_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dominohunter/slotengine/types"
)

var (
	testContract = common.HexToAddress("0x00000000000000000000000000000000000000C0")
	testPlayer   = common.HexToAddress("0x00000000000000000000000000000000000000A1")
)

func TestOutcome_EncodeDecode(t *testing.T) {
	ev := types.OutcomeEvent{
		Player:           testPlayer,
		DepositedAssetID: 3520,
		ReceivedAssetID:  981,
		ReceivedTier:     4,
	}
	r := types.Receipt{
		Status: types.ReceiptSuccess,
		Logs:   []types.EventLog{types.EncodeOutcome(testContract, ev)},
	}

	got, ok := types.DecodeOutcome(r, testContract)
	if !ok {
		t.Fatal("expected a decoded outcome")
	}
	if got != ev {
		t.Fatalf("decode mismatch: got %+v, want %+v", got, ev)
	}
}

func TestDecodeOutcome_WrongContract(t *testing.T) {
	ev := types.OutcomeEvent{Player: testPlayer, DepositedAssetID: 1}
	r := types.Receipt{
		Status: types.ReceiptSuccess,
		Logs:   []types.EventLog{types.EncodeOutcome(testContract, ev)},
	}

	other := common.HexToAddress("0x00000000000000000000000000000000000000DD")
	if _, ok := types.DecodeOutcome(r, other); ok {
		t.Error("must not decode a log emitted by a different contract")
	}
}

func TestDecodeOutcome_NoMatchingLog(t *testing.T) {
	// A successful receipt with foreign logs only: the reveal stands,
	// but the outcome is unknown.
	r := types.Receipt{
		Status: types.ReceiptSuccess,
		Logs: []types.EventLog{
			{Address: testContract, Topics: []common.Hash{{0x01}}, Data: []byte("unrelated")},
		},
	}
	if _, ok := types.DecodeOutcome(r, testContract); ok {
		t.Error("expected no outcome from unrelated logs")
	}
	if _, ok := types.DecodeOutcome(types.Receipt{}, testContract); ok {
		t.Error("expected no outcome from an empty receipt")
	}
}

func TestDecodeOutcome_TruncatedData(t *testing.T) {
	lg := types.EncodeOutcome(testContract, types.OutcomeEvent{Player: testPlayer})
	lg.Data = lg.Data[:64]
	r := types.Receipt{Status: types.ReceiptSuccess, Logs: []types.EventLog{lg}}
	if _, ok := types.DecodeOutcome(r, testContract); ok {
		t.Error("truncated event data must not decode")
	}
}
