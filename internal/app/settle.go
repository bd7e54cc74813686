package app

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"

	sdkmath "cosmossdk.io/math"
	abci "github.com/cometbft/cometbft/abci/types"

	"gamehouse/internal/codec"
	"gamehouse/internal/games"
	"gamehouse/internal/ghcrypto"
	"gamehouse/internal/outcome"
	"gamehouse/internal/state"
	"gamehouse/internal/types"
)

const (
	outcomeSealDomain = "gh/v1/settle/outcome_seal"
	deltaSealDomain   = "gh/v1/settle/delta_seal"
)

// handlePlay is the settlement coordinator. It runs on staged state, so any
// error on any step discards the stake debit along with everything else.
func (a *GameHouseApp) handlePlay(st *state.State, env codec.TxEnvelope, msg codec.CasinoPlayTx, blk blockCtx) (*abci.ExecTxResult, error) {
	if err := requireAccountAuth(st, env, msg.Player); err != nil {
		return nil, err
	}
	if err := bumpNonce(st, env); err != nil {
		return nil, err
	}

	if _, err := types.ParseGameType(string(msg.Game)); err != nil {
		return nil, types.ErrInvalidRequest.Wrapf("unknown game %q", msg.Game)
	}
	if err := games.ValidateBet(msg.Bet, st.Params.MaxBet); err != nil {
		return nil, err
	}
	if msg.Choice > 255 {
		return nil, types.ErrInvalidChoice.Wrapf("choice %d outside game domain", msg.Choice)
	}
	choice := uint8(msg.Choice)
	if err := games.ValidateChoice(msg.Game, choice); err != nil {
		return nil, err
	}

	mult, err := st.Params.Multiplier(msg.Game)
	if err != nil {
		return nil, types.ErrInvalidRequest.Wrap(err.Error())
	}
	payout, err := mulU64Checked(msg.Bet, mult, "payout")
	if err != nil {
		return nil, types.ErrInvalidBet.Wrap(err.Error())
	}

	// Stake leaves the player's sealed balance first. Failure here tells the
	// bettor only that coverage failed, not what the balance is.
	if err := st.Vault.Debit(msg.Player, msg.Bet); err != nil {
		return nil, err
	}

	gameSeq := st.GameSeq
	st.GameSeq++

	lo, hi, err := games.DrawRange(msg.Game)
	if err != nil {
		return nil, types.ErrInvalidRequest.Wrap(err.Error())
	}
	draw, err := a.source.Draw(outcome.Context{
		BeaconSeed:    st.Params.BeaconSeed,
		Height:        blk.Height,
		LastBlockHash: blk.LastHash,
		GameSeq:       gameSeq,
		Player:        msg.Player,
		Game:          string(msg.Game),
	}, lo, hi)
	if err != nil {
		return nil, types.ErrInvalidRequest.Wrapf("outcome draw: %v", err)
	}

	won, err := games.Resolve(msg.Game, choice, draw)
	if err != nil {
		return nil, types.ErrInvalidRequest.Wrap(err.Error())
	}

	if won {
		// The stake stays in the vault's favor only on a loss; on a win the
		// house tops the stake up to the full payout.
		if err := st.TreasuryDebit(payout - msg.Bet); err != nil {
			return nil, err
		}
		if err := st.Vault.Credit(msg.Player, payout); err != nil {
			return nil, err
		}
	} else {
		if err := st.TreasuryCredit(msg.Bet); err != nil {
			return nil, err
		}
	}

	sealedOutcome, err := sealOutcome(st.Params.VaultPubKey, msg.Player, gameSeq, draw)
	if err != nil {
		return nil, types.ErrInvalidRequest.Wrapf("seal outcome: %v", err)
	}

	rec := types.GameRecord{
		Player:           msg.Player,
		Game:             msg.Game,
		BetAmount:        msg.Bet,
		Won:              won,
		Time:             blk.Time,
		EncryptedOutcome: sealedOutcome,
	}
	st.AppendRecord(rec)

	delta, err := signedDelta(won, msg.Bet, payout, "profit delta")
	if err != nil {
		return nil, types.ErrInvalidBet.Wrap(err.Error())
	}
	updateStats(st.StatsFor(msg.Player), won, delta, blk.Time)

	a.logger.Info("game settled",
		"player", msg.Player,
		"game", string(msg.Game),
		"bet", msg.Bet,
		"won", won,
		"gameSeq", gameSeq,
	)

	res := okEvent(types.EventTypeGameSettled, map[string]string{
		"player":    msg.Player,
		"game":      string(msg.Game),
		"betAmount": fmt.Sprintf("%d", msg.Bet),
		"won":       fmt.Sprintf("%t", won),
		"gameSeq":   fmt.Sprintf("%d", gameSeq),
	})

	if revealPk, ok := st.RevealPks[msg.Player]; ok {
		sealed, err := sealDelta(revealPk, msg.Player, gameSeq, delta)
		if err != nil {
			return nil, types.ErrInvalidRequest.Wrapf("seal delta: %v", err)
		}
		res.Events = append(res.Events, abci.Event{
			Type: types.EventTypeBalanceDeltaSealed,
			Attributes: []abci.EventAttribute{
				{Key: "player", Value: msg.Player, Index: true},
				{Key: "gameSeq", Value: fmt.Sprintf("%d", gameSeq), Index: true},
				{Key: "sealedDelta", Value: base64.StdEncoding.EncodeToString(sealed), Index: false},
			},
		})
	}
	return res, nil
}

func updateStats(stats *types.PlayerStats, won bool, delta int64, blockTime int64) {
	stats.TotalGames++
	stats.LastGameTime = blockTime
	if won {
		stats.TotalWins++
		net := uint64(delta)
		stats.TotalProfit = stats.TotalProfit.Add(sdkmath.NewIntFromUint64(net))
		if net > stats.LargestWin {
			stats.LargestWin = net
		}
	} else {
		stats.TotalLosses++
		loss := uint64(-delta)
		stats.TotalProfit = stats.TotalProfit.Sub(sdkmath.NewIntFromUint64(loss))
		if loss > stats.LargestLoss {
			stats.LargestLoss = loss
		}
	}
}

// sealOutcome encrypts the drawn value under the vault key so the record
// never carries the plaintext draw.
func sealOutcome(vaultPk []byte, player string, gameSeq uint64, draw uint64) ([]byte, error) {
	pk, err := ghcrypto.PointFromBytesCanonical(vaultPk)
	if err != nil {
		return nil, err
	}
	r, err := ghcrypto.HashToNonzeroScalar(outcomeSealDomain, vaultPk, []byte(player), u64le(gameSeq))
	if err != nil {
		return nil, err
	}
	ct, err := ghcrypto.EncryptAmount(pk, draw, r)
	if err != nil {
		return nil, err
	}
	return ct.Bytes(), nil
}

// sealDelta encrypts the signed balance delta under the player's registered
// reveal key for owner-side reconstruction.
func sealDelta(revealPk []byte, player string, gameSeq uint64, delta int64) ([]byte, error) {
	pk, err := ghcrypto.PointFromBytesCanonical(revealPk)
	if err != nil {
		return nil, err
	}
	r, err := ghcrypto.HashToNonzeroScalar(deltaSealDomain, revealPk, []byte(player), u64le(gameSeq))
	if err != nil {
		return nil, err
	}
	ct, err := ghcrypto.EncryptPoint(pk, ghcrypto.SignedDeltaPoint(delta), r)
	if err != nil {
		return nil, err
	}
	return ct.Bytes(), nil
}

func u64le(x uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], x)
	return b[:]
}
