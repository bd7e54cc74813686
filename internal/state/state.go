package state

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gamehouse/internal/confidential"
	"gamehouse/internal/types"
)

type State struct {
	Height int64 `json:"height"`

	Params types.Params `json:"params"`

	AccountKeys map[string][]byte `json:"accountKeys,omitempty"` // addr -> ed25519 pubkey (32 bytes)
	NonceMax    map[string]uint64 `json:"nonceMax,omitempty"`    // signer -> last accepted tx.nonce (u64), for replay protection

	// RevealPks holds optional per-account ristretto points under which the
	// chain seals balance deltas for owner-side reconstruction.
	RevealPks map[string][]byte `json:"revealPks,omitempty"`

	// Vault holds every player's encrypted balance; Treasury is the house
	// bankroll and is public.
	Vault    *confidential.Vault `json:"vault"`
	Treasury uint64              `json:"treasury"`

	// GameSeq numbers settled games globally; it feeds outcome derivation so
	// two games in the same block draw independently.
	GameSeq uint64 `json:"gameSeq"`

	// Records is the append-only global game log; PlayerRecords indexes into
	// it per player in play order.
	Records       []types.GameRecord `json:"records,omitempty"`
	PlayerRecords map[string][]int   `json:"playerRecords,omitempty"`

	Stats map[string]*types.PlayerStats `json:"stats,omitempty"`

	// Reveal protocol state. PendingReveals is ordered by request; each
	// account completes its oldest pending request before opening another.
	RevealSeq      uint64                      `json:"revealSeq"`
	PendingReveals []*PendingReveal            `json:"pendingReveals,omitempty"`
	Revealed       map[string]*RevealedBalance `json:"revealed,omitempty"`
}

// PendingReveal snapshots the ciphertext at request time so a later game or
// deposit cannot change what the oracle is asked to open.
type PendingReveal struct {
	ID         uint64 `json:"id"`
	Account    string `json:"account"`
	Ciphertext []byte `json:"ciphertext"`
	Hint       uint64 `json:"hint"`
	Height     int64  `json:"height"`
	Time       int64  `json:"time"` // unix seconds, block time
}

// RevealedBalance is the latest proven opening of an account's balance. It is
// a snapshot: games played after the reveal are not reflected.
type RevealedBalance struct {
	RevealID uint64 `json:"revealId"`
	Amount   uint64 `json:"amount"`
	Height   int64  `json:"height"`
	Time     int64  `json:"time"` // unix seconds, block time
}

func NewState() *State {
	return &State{
		AccountKeys:   map[string][]byte{},
		NonceMax:      map[string]uint64{},
		RevealPks:     map[string][]byte{},
		Vault:         confidential.NewVault(nil),
		PlayerRecords: map[string][]int{},
		Stats:         map[string]*types.PlayerStats{},
		Revealed:      map[string]*RevealedBalance{},
	}
}

func (s *State) normalize() {
	if s.AccountKeys == nil {
		s.AccountKeys = map[string][]byte{}
	}
	if s.NonceMax == nil {
		s.NonceMax = map[string]uint64{}
	}
	if s.RevealPks == nil {
		s.RevealPks = map[string][]byte{}
	}
	if s.Vault == nil {
		s.Vault = confidential.NewVault(s.Params.VaultPubKey)
	}
	s.Vault.Normalize()
	if s.PlayerRecords == nil {
		s.PlayerRecords = map[string][]int{}
	}
	if s.Stats == nil {
		s.Stats = map[string]*types.PlayerStats{}
	}
	if s.Revealed == nil {
		s.Revealed = map[string]*RevealedBalance{}
	}
}

func Load(home string) (*State, error) {
	path := filepath.Join(home, "state.json")
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewState(), nil
		}
		return nil, fmt.Errorf("read state: %w", err)
	}
	var st State
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	st.normalize()
	return &st, nil
}

func (s *State) Save(home string) error {
	if err := os.MkdirAll(home, 0o755); err != nil {
		return fmt.Errorf("mkdir home: %w", err)
	}
	path := filepath.Join(home, "state.json")
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

// Clone returns a deep copy of state suitable for staged tx execution.
func (s *State) Clone() (*State, error) {
	if s == nil {
		return nil, fmt.Errorf("state is nil")
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode state clone: %w", err)
	}
	var out State
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode state clone: %w", err)
	}
	out.normalize()
	return &out, nil
}

func (s *State) AppHash() []byte {
	// Deterministic JSON hash: marshal with stable key ordering by serializing
	// a normalized view.
	//
	// Note: encoding/json does NOT guarantee map key order, so we manually
	// normalize maps into slices.
	type accountKeyKV struct {
		Addr   string `json:"addr"`
		PubKey []byte `json:"pubKey"`
	}
	type nonceKV struct {
		Signer string `json:"signer"`
		Nonce  uint64 `json:"nonce"`
	}
	type vaultKV struct {
		Addr  string              `json:"addr"`
		Entry *confidential.Entry `json:"entry"`
	}
	type recordIdxKV struct {
		Addr    string `json:"addr"`
		Indexes []int  `json:"indexes"`
	}
	type statsKV struct {
		Addr  string             `json:"addr"`
		Stats *types.PlayerStats `json:"stats"`
	}
	type revealedKV struct {
		Addr    string           `json:"addr"`
		Balance *RevealedBalance `json:"balance"`
	}

	accountKeys := make([]accountKeyKV, 0, len(s.AccountKeys))
	for k, v := range s.AccountKeys {
		accountKeys = append(accountKeys, accountKeyKV{Addr: k, PubKey: v})
	}
	sort.Slice(accountKeys, func(i, j int) bool { return accountKeys[i].Addr < accountKeys[j].Addr })

	nonces := make([]nonceKV, 0, len(s.NonceMax))
	for k, v := range s.NonceMax {
		nonces = append(nonces, nonceKV{Signer: k, Nonce: v})
	}
	sort.Slice(nonces, func(i, j int) bool { return nonces[i].Signer < nonces[j].Signer })

	revealPks := make([]accountKeyKV, 0, len(s.RevealPks))
	for k, v := range s.RevealPks {
		revealPks = append(revealPks, accountKeyKV{Addr: k, PubKey: v})
	}
	sort.Slice(revealPks, func(i, j int) bool { return revealPks[i].Addr < revealPks[j].Addr })

	vault := make([]vaultKV, 0, len(s.Vault.Accounts))
	for k, v := range s.Vault.Accounts {
		vault = append(vault, vaultKV{Addr: k, Entry: v})
	}
	sort.Slice(vault, func(i, j int) bool { return vault[i].Addr < vault[j].Addr })

	recordIdx := make([]recordIdxKV, 0, len(s.PlayerRecords))
	for k, v := range s.PlayerRecords {
		recordIdx = append(recordIdx, recordIdxKV{Addr: k, Indexes: v})
	}
	sort.Slice(recordIdx, func(i, j int) bool { return recordIdx[i].Addr < recordIdx[j].Addr })

	stats := make([]statsKV, 0, len(s.Stats))
	for k, v := range s.Stats {
		stats = append(stats, statsKV{Addr: k, Stats: v})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Addr < stats[j].Addr })

	revealed := make([]revealedKV, 0, len(s.Revealed))
	for k, v := range s.Revealed {
		revealed = append(revealed, revealedKV{Addr: k, Balance: v})
	}
	sort.Slice(revealed, func(i, j int) bool { return revealed[i].Addr < revealed[j].Addr })

	normalized := struct {
		Height         int64              `json:"height"`
		Params         types.Params       `json:"params"`
		AccountKeys    []accountKeyKV     `json:"accountKeys,omitempty"`
		NonceMax       []nonceKV          `json:"nonceMax,omitempty"`
		RevealPks      []accountKeyKV     `json:"revealPks,omitempty"`
		VaultPubKey    []byte             `json:"vaultPubKey"`
		VaultAggregate uint64             `json:"vaultAggregate"`
		Vault          []vaultKV          `json:"vault"`
		Treasury       uint64             `json:"treasury"`
		GameSeq        uint64             `json:"gameSeq"`
		Records        []types.GameRecord `json:"records,omitempty"`
		PlayerRecords  []recordIdxKV      `json:"playerRecords,omitempty"`
		Stats          []statsKV          `json:"stats,omitempty"`
		RevealSeq      uint64             `json:"revealSeq"`
		PendingReveals []*PendingReveal   `json:"pendingReveals,omitempty"`
		Revealed       []revealedKV       `json:"revealed,omitempty"`
	}{
		Height:         s.Height,
		Params:         s.Params,
		AccountKeys:    accountKeys,
		NonceMax:       nonces,
		RevealPks:      revealPks,
		VaultPubKey:    s.Vault.PubKey,
		VaultAggregate: s.Vault.Aggregate,
		Vault:          vault,
		Treasury:       s.Treasury,
		GameSeq:        s.GameSeq,
		Records:        s.Records,
		PlayerRecords:  recordIdx,
		Stats:          stats,
		RevealSeq:      s.RevealSeq,
		PendingReveals: s.PendingReveals,
		Revealed:       revealed,
	}

	b, _ := json.Marshal(normalized)
	sum := sha256.Sum256(b)
	return sum[:]
}

// ---- Treasury ----

func (s *State) TreasuryCredit(amount uint64) error {
	if s.Treasury > ^uint64(0)-amount {
		return types.ErrInvalidAmount.Wrapf("treasury overflow: have=%d add=%d", s.Treasury, amount)
	}
	s.Treasury += amount
	return nil
}

func (s *State) TreasuryDebit(amount uint64) error {
	if s.Treasury < amount {
		return types.ErrTreasuryInsufficient.Wrapf("treasury has %d, need %d", s.Treasury, amount)
	}
	s.Treasury -= amount
	return nil
}

// ---- Game log ----

// AppendRecord appends to the global log and the player's index, returning the
// player-local index of the new record.
func (s *State) AppendRecord(rec types.GameRecord) int {
	global := len(s.Records)
	s.Records = append(s.Records, rec)
	s.PlayerRecords[rec.Player] = append(s.PlayerRecords[rec.Player], global)
	return len(s.PlayerRecords[rec.Player]) - 1
}

// RecordAt returns the player's index-th game, oldest first.
func (s *State) RecordAt(addr string, index int) (types.GameRecord, error) {
	idx := s.PlayerRecords[addr]
	if index < 0 || index >= len(idx) {
		return types.GameRecord{}, types.ErrIndexOutOfRange.Wrapf("index %d, history length %d", index, len(idx))
	}
	return s.Records[idx[index]], nil
}

func (s *State) HistoryLength(addr string) int {
	return len(s.PlayerRecords[addr])
}

// StatsFor returns the player's mutable stats, creating the zero record on
// first use.
func (s *State) StatsFor(addr string) *types.PlayerStats {
	st, ok := s.Stats[addr]
	if !ok {
		fresh := types.NewPlayerStats()
		st = &fresh
		s.Stats[addr] = st
	}
	return st
}

// ---- Reveals ----

// PendingFor returns the account's oldest pending reveal, or nil.
func (s *State) PendingFor(addr string) *PendingReveal {
	for _, p := range s.PendingReveals {
		if p.Account == addr {
			return p
		}
	}
	return nil
}

// PendingByID looks up a pending reveal by correlation id.
func (s *State) PendingByID(id uint64) *PendingReveal {
	for _, p := range s.PendingReveals {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// RemovePending drops the pending reveal with the given id, preserving order.
func (s *State) RemovePending(id uint64) {
	for i, p := range s.PendingReveals {
		if p.ID == id {
			s.PendingReveals = append(s.PendingReveals[:i], s.PendingReveals[i+1:]...)
			return
		}
	}
}
