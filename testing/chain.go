// Package slottest provides test utilities for the commit-reveal
// engine: a configurable mock ledger, a stateful ledger simulator
// implementing the full contract rules, a harness, and a session-store
// compliance suite.
package slottest

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	slotengine "github.com/dominohunter/slotengine"
	"github.com/dominohunter/slotengine/types"
)

// Compile-time interface check.
var _ slotengine.Ledger = (*SimLedger)(nil)

// Revert reason strings the simulated contract produces. These mirror
// the live contract so classification tests exercise the real rules.
const (
	revertPendingCommitment = "Pending commitment exists"
	revertPoolTooSmall      = "Not enough NFTs in pool"
	revertNotTokenOwner     = "Not token owner"
	revertInsufficientFee   = "Insufficient fee"
	revertInvalidSecret     = "Invalid secret"
	revertTooEarly          = "Too early to reveal"
	revertExpired           = "Commitment expired"
	revertNoCommitment      = "No active commitment"
)

type simCommitment struct {
	commitBlock uint64
	assetID     uint64
	tier        uint8
	secretHash  common.Hash
}

// SimLedger is an in-memory ledger implementing the game contract's
// rules: one commitment per owner, keccak secret binding, reveal
// delay and expiry windows, an NFT pool, and fee checks. Heights are
// advanced manually; each submitted transaction mines its own block
// so confirmation waits never stall a test.
type SimLedger struct {
	mu sync.Mutex

	height   uint64
	fee      *uint256.Int
	contract common.Address
	nftAddr  common.Address

	// NFT ownership: token id -> owner. Pool tokens are owned by the
	// contract. Escrowed deposits are owned by the contract but kept
	// out of the pool until the commitment resolves.
	owners map[uint64]common.Address
	pool   []uint64
	escrow map[common.Address]uint64
	tiers  map[uint64]uint8

	commitments map[common.Address]simCommitment
	receipts    map[common.Hash]types.Receipt
	nonce       uint64

	// SubmitErr, when non-nil, fails the next Submit with this error
	// (e.g. a wallet rejection). Cleared after one use.
	SubmitErr error

	watchers []chan uint64
}

// NewSimLedger creates a simulator at height 1 with the given play fee.
func NewSimLedger(fee uint64) *SimLedger {
	return &SimLedger{
		height:      1,
		fee:         uint256.NewInt(fee),
		contract:    common.HexToAddress("0x00000000000000000000000000000000000000C0"),
		nftAddr:     common.HexToAddress("0x00000000000000000000000000000000000000B1"),
		owners:      make(map[uint64]common.Address),
		escrow:      make(map[common.Address]uint64),
		tiers:       make(map[uint64]uint8),
		commitments: make(map[common.Address]simCommitment),
		receipts:    make(map[common.Hash]types.Receipt),
	}
}

// Contract returns the game contract address (for outcome decoding).
func (s *SimLedger) Contract() common.Address { return s.contract }

// MintTo gives a token to an owner.
func (s *SimLedger) MintTo(owner common.Address, tokenID uint64, tier uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owners[tokenID] = owner
	s.tiers[tokenID] = tier
}

// FillPool mints tokens directly into the swap pool.
func (s *SimLedger) FillPool(tokenIDs ...uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range tokenIDs {
		s.owners[id] = s.contract
		s.pool = append(s.pool, id)
		if _, ok := s.tiers[id]; !ok {
			s.tiers[id] = 1
		}
	}
}

// OwnerOf reports the current owner of a token.
func (s *SimLedger) OwnerOf(tokenID uint64) common.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owners[tokenID]
}

// AdvanceBlocks mines n empty blocks and notifies head watchers.
func (s *SimLedger) AdvanceBlocks(n uint64) {
	s.mu.Lock()
	s.height += n
	h := s.height
	watchers := append([]chan uint64(nil), s.watchers...)
	s.mu.Unlock()
	for _, ch := range watchers {
		select {
		case ch <- h:
		default:
		}
	}
}

// AdvanceToRevealWindow advances until the owner's commitment is
// reveal-eligible.
func (s *SimLedger) AdvanceToRevealWindow(owner common.Address) {
	s.mu.Lock()
	c, ok := s.commitments[owner]
	var n uint64
	if ok && s.height < c.commitBlock+types.RevealDelay {
		n = c.commitBlock + types.RevealDelay - s.height
	}
	s.mu.Unlock()
	if n > 0 {
		s.AdvanceBlocks(n)
	}
}

// AdvanceToExpiry advances until the owner's commitment is expired.
func (s *SimLedger) AdvanceToExpiry(owner common.Address) {
	s.mu.Lock()
	c, ok := s.commitments[owner]
	var n uint64
	if ok && s.height < c.commitBlock+types.ExpiryWindow {
		n = c.commitBlock + types.ExpiryWindow - s.height
	}
	s.mu.Unlock()
	if n > 0 {
		s.AdvanceBlocks(n)
	}
}

// ForceResolve drops the owner's commitment and returns the escrowed
// deposit to the pool, as if it had been resolved from another
// device. The session engine under test is not involved.
func (s *SimLedger) ForceResolve(owner common.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.commitments, owner)
	if dep, ok := s.escrow[owner]; ok {
		delete(s.escrow, owner)
		s.pool = append(s.pool, dep)
	}
}

// SetCommitment installs a raw commitment record, bypassing the commit
// flow. For scenarios like "commitment exists but this device has no
// secret."
func (s *SimLedger) SetCommitment(owner common.Address, commitBlock, assetID uint64, tier uint8, secretHash common.Hash) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitments[owner] = simCommitment{
		commitBlock: commitBlock,
		assetID:     assetID,
		tier:        tier,
		secretHash:  secretHash,
	}
}

// --- slotengine.Ledger ---

func (s *SimLedger) CurrentHeight(_ context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.height, nil
}

func (s *SimLedger) Commitment(_ context.Context, owner common.Address) (types.Commitment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.commitments[owner]
	if !ok {
		return types.Commitment{Owner: owner}, nil
	}
	return types.Commitment{
		Owner:          owner,
		CommitBlock:    c.commitBlock,
		DepositAssetID: c.assetID,
		DepositTier:    c.tier,
	}, nil
}

func (s *SimLedger) PlayFee(_ context.Context) (*uint256.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return new(uint256.Int).Set(s.fee), nil
}

func (s *SimLedger) PoolSize(_ context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return uint64(len(s.pool)), nil
}

func (s *SimLedger) Collection(_ context.Context) (common.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nftAddr, nil
}

func (s *SimLedger) Simulate(_ context.Context, call types.Call) (types.SimResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if reason := s.checkCall(call); reason != "" {
		return types.SimResult{Reverted: true, Reason: reason}, nil
	}
	return types.SimResult{GasEstimate: 90_000}, nil
}

func (s *SimLedger) Submit(_ context.Context, call types.Call) (types.PendingTx, error) {
	s.mu.Lock()
	if err := s.SubmitErr; err != nil {
		s.SubmitErr = nil
		s.mu.Unlock()
		return types.PendingTx{}, err
	}

	s.nonce++
	var seed [8]byte
	binary.BigEndian.PutUint64(seed[:], s.nonce)
	hash := crypto.Keccak256Hash(append(seed[:], byte(call.Kind)))

	// Each submission mines its own block.
	s.height++
	receipt := types.Receipt{TxHash: hash, Height: s.height, GasUsed: 90_000}
	if reason := s.checkCall(call); reason != "" {
		receipt.Status = types.ReceiptFailed
	} else {
		receipt.Status = types.ReceiptSuccess
		s.applyCall(call, &receipt)
	}
	s.receipts[hash] = receipt

	h := s.height
	watchers := append([]chan uint64(nil), s.watchers...)
	s.mu.Unlock()

	for _, ch := range watchers {
		select {
		case ch <- h:
		default:
		}
	}
	return types.PendingTx{Hash: hash, Kind: call.Kind, SubmittedAt: types.Now()}, nil
}

func (s *SimLedger) AwaitConfirmation(ctx context.Context, hash common.Hash) (types.Receipt, error) {
	s.mu.Lock()
	receipt, ok := s.receipts[hash]
	s.mu.Unlock()
	if !ok {
		return types.Receipt{}, fmt.Errorf("unknown transaction %s", hash)
	}
	if err := ctx.Err(); err != nil {
		return types.Receipt{}, err
	}
	return receipt, nil
}

func (s *SimLedger) WatchHeads(ctx context.Context) (<-chan uint64, error) {
	s.mu.Lock()
	ch := make(chan uint64, 16)
	s.watchers = append(s.watchers, ch)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		for i, w := range s.watchers {
			if w == ch {
				s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}

// --- contract rules ---

// checkCall validates a call against current state and returns the
// revert reason, or "" if the call would succeed. Caller holds mu.
func (s *SimLedger) checkCall(call types.Call) string {
	c, hasCommitment := s.commitments[call.Owner]
	switch call.Kind {
	case types.CallCommit:
		if hasCommitment {
			return revertPendingCommitment
		}
		if len(s.pool) == 0 {
			return revertPoolTooSmall
		}
		if s.owners[call.DepositAssetID] != call.Owner {
			return revertNotTokenOwner
		}
		if call.FeeValue().Lt(s.fee) {
			return revertInsufficientFee
		}
	case types.CallReveal:
		if !hasCommitment {
			return revertNoCommitment
		}
		if s.height < c.commitBlock+types.RevealDelay {
			return revertTooEarly
		}
		if s.height >= c.commitBlock+types.ExpiryWindow {
			return revertExpired
		}
		secret := call.Secret
		if crypto.Keccak256Hash(secret[:]) != c.secretHash {
			return revertInvalidSecret
		}
	case types.CallCancel:
		if !hasCommitment {
			return revertNoCommitment
		}
		if s.height < c.commitBlock+types.ExpiryWindow {
			return revertTooEarly
		}
	}
	return ""
}

// applyCall mutates state for a call that passed checkCall. Caller
// holds mu; s.height is already the mining height.
func (s *SimLedger) applyCall(call types.Call, receipt *types.Receipt) {
	switch call.Kind {
	case types.CallCommit:
		// Deposit moves into escrow.
		s.owners[call.DepositAssetID] = s.contract
		s.escrow[call.Owner] = call.DepositAssetID
		s.commitments[call.Owner] = simCommitment{
			commitBlock: s.height,
			assetID:     call.DepositAssetID,
			tier:        call.DepositTier,
			secretHash:  call.SecretHash,
		}

	case types.CallReveal:
		c := s.commitments[call.Owner]
		// The draw itself is the contract's business; the simulator
		// picks deterministically from the secret so tests can
		// replay it.
		idx := int(call.SecretValue().Uint64() % uint64(len(s.pool)))
		received := s.pool[idx]
		s.pool = append(s.pool[:idx], s.pool[idx+1:]...)
		s.owners[received] = call.Owner

		// Deposit leaves escrow and joins the pool.
		delete(s.escrow, call.Owner)
		s.pool = append(s.pool, c.assetID)
		delete(s.commitments, call.Owner)

		receipt.Logs = append(receipt.Logs, types.EncodeOutcome(s.contract, types.OutcomeEvent{
			Player:           call.Owner,
			DepositedAssetID: c.assetID,
			ReceivedAssetID:  received,
			ReceivedTier:     s.tiers[received],
		}))

	case types.CallCancel:
		// Deposit returns to its owner; the fee refund is implicit.
		c := s.commitments[call.Owner]
		s.owners[c.assetID] = call.Owner
		delete(s.escrow, call.Owner)
		delete(s.commitments, call.Owner)
	}
}
