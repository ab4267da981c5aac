package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dailytrack/internal/ledger"
	"dailytrack/internal/model"
	"dailytrack/internal/repository"
	"dailytrack/pkg/amount"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	claimInterval  = int64(24 * time.Hour / time.Second)
	streakInterval = int64(48 * time.Hour / time.Second)
)

// nextStreak applies the login rule to an account last seen at lastLogin
// (0 for never). A gap of exactly 48h still continues the streak.
func nextStreak(streak uint64, lastLogin, now int64) (uint64, error) {
	if lastLogin == 0 {
		return 1, nil
	}
	elapsed := now - lastLogin
	if elapsed < claimInterval {
		return 0, ErrAlreadyClaimedToday
	}
	if elapsed <= streakInterval {
		return streak + 1, nil
	}
	return 1, nil
}

// RewardService is the reward tracker: accounts log in once a day and are
// paid DailyReward out of the tracker's custody balance.
type RewardService struct {
	exec     *Executor
	events   *EventWriter
	token    *ledger.Token
	settings *repository.SettingRepository
	accounts *repository.RewardRepository
	log      *logrus.Entry
}

func NewRewardService(exec *Executor, token *ledger.Token, events *EventWriter) *RewardService {
	db := exec.DB()
	return &RewardService{
		exec:     exec,
		events:   events,
		token:    token,
		settings: repository.NewSettingRepository(db),
		accounts: repository.NewRewardRepository(db),
		log:      logrus.WithField("component", model.ComponentRewardTracker),
	}
}

type RewardDeployment struct {
	Owner       common.Address
	Token       string
	Address     common.Address
	DailyReward amount.Amount
}

type RewardConfig struct {
	Owner       string        `json:"owner"`
	RewardToken string        `json:"reward_token"`
	Address     string        `json:"address"`
	DailyReward amount.Amount `json:"daily_reward"`
}

type RewardAccountView struct {
	Account      string        `json:"account"`
	Streak       uint64        `json:"streak"`
	LastLogin    int64         `json:"last_login"`
	TotalClaimed amount.Amount `json:"total_claimed"`
}

type LoginResult struct {
	Account   string        `json:"account"`
	Streak    uint64        `json:"streak"`
	LastLogin int64         `json:"last_login"`
	Reward    amount.Amount `json:"reward"`
}

type ClaimStatus struct {
	Account     string `json:"account"`
	CanClaim    bool   `json:"can_claim"`
	NextClaimAt int64  `json:"next_claim_at"`
	NextStreak  uint64 `json:"next_streak"`
}

// Bootstrap deploys the tracker on first start. Owner, token and address of
// an existing deployment are never changed.
func (s *RewardService) Bootstrap(ctx context.Context, d RewardDeployment) (*RewardConfig, error) {
	if d.Owner == (common.Address{}) || d.Address == (common.Address{}) || d.Token == "" {
		return nil, fmt.Errorf("reward tracker deployment needs owner, address and token")
	}

	if other, err := s.settings.FindByAddress(ctx, nil, d.Address.Hex(), model.ComponentRewardTracker); err != nil {
		return nil, fmt.Errorf("deploy reward tracker: %w", err)
	} else if other != nil {
		return nil, ErrAddressInUse.wrap(fmt.Errorf("%s already uses %s", other.Component, other.Address))
	}

	setting, created, err := s.settings.CreateIfAbsent(ctx, &model.ComponentSetting{
		Component:   model.ComponentRewardTracker,
		Owner:       d.Owner.Hex(),
		Token:       d.Token,
		Address:     d.Address.Hex(),
		DailyReward: d.DailyReward,
	})
	if err != nil {
		return nil, fmt.Errorf("deploy reward tracker: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"owner":   setting.Owner,
		"address": setting.Address,
		"token":   setting.Token,
		"created": created,
	}).Info("reward tracker ready")
	return rewardConfig(setting), nil
}

func (s *RewardService) config(ctx context.Context, tx *gorm.DB) (*model.ComponentSetting, error) {
	setting, err := s.settings.Get(ctx, tx, model.ComponentRewardTracker)
	if err != nil {
		if errors.Is(err, repository.ErrSettingNotFound) {
			return nil, ErrNotConfigured.wrap(err)
		}
		return nil, err
	}
	return setting, nil
}

// DailyLogin pays the daily reward to caller and advances its streak. The
// account record is written only after the payout succeeded.
func (s *RewardService) DailyLogin(ctx context.Context, caller common.Address) (*LoginResult, error) {
	var result *LoginResult
	err := s.exec.Run(ctx, model.ComponentRewardTracker, "daily_login", func(tx *gorm.DB, now time.Time) error {
		cfg, err := s.config(ctx, tx)
		if err != nil {
			return err
		}

		acc, err := s.accounts.GetForUpdate(ctx, tx, caller.Hex())
		if err != nil {
			return err
		}
		if acc == nil {
			acc = &model.RewardAccount{Account: caller.Hex(), TotalClaimed: amount.Zero()}
		}

		nowUnix := now.Unix()
		streak, err := nextStreak(acc.Streak, acc.LastLogin, nowUnix)
		if err != nil {
			return err
		}

		tracker := common.HexToAddress(cfg.Address)
		ref := fmt.Sprintf("reward:login:%s:%d", caller.Hex(), nowUnix)
		if err := s.token.Transfer(ctx, tx, cfg.Token, tracker, caller, cfg.DailyReward, ref); err != nil {
			return custodyPayout(err)
		}

		total, overflow := acc.TotalClaimed.Add(cfg.DailyReward)
		if overflow {
			total = amount.Max()
		}
		acc.Streak = streak
		acc.LastLogin = nowUnix
		acc.TotalClaimed = total
		if err := s.accounts.Save(ctx, tx, acc); err != nil {
			return fmt.Errorf("save reward account: %w", err)
		}

		if err := s.events.Emit(ctx, tx, EventLogin, now, map[string]interface{}{
			"account": caller.Hex(),
			"streak":  streak,
		}); err != nil {
			return err
		}

		result = &LoginResult{
			Account:   caller.Hex(),
			Streak:    streak,
			LastLogin: nowUnix,
			Reward:    cfg.DailyReward,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"account": result.Account,
		"streak":  result.Streak,
		"reward":  result.Reward.String(),
	}).Info("daily login")
	return result, nil
}

func (s *RewardService) SetDailyReward(ctx context.Context, caller common.Address, value amount.Amount) error {
	return s.exec.Run(ctx, model.ComponentRewardTracker, "set_daily_reward", func(tx *gorm.DB, now time.Time) error {
		cfg, err := s.config(ctx, tx)
		if err != nil {
			return err
		}
		if cfg.Owner != caller.Hex() {
			return ErrUnauthorized
		}
		if err := s.settings.UpdateDailyReward(ctx, tx, model.ComponentRewardTracker, value); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, EventDailyRewardUpdated, now, map[string]interface{}{
			"daily_reward": value,
		})
	})
}

// WithdrawToken moves value from the tracker's custody balance to the owner.
func (s *RewardService) WithdrawToken(ctx context.Context, caller common.Address, value amount.Amount) error {
	return s.exec.Run(ctx, model.ComponentRewardTracker, "withdraw_token", func(tx *gorm.DB, now time.Time) error {
		cfg, err := s.config(ctx, tx)
		if err != nil {
			return err
		}
		if cfg.Owner != caller.Hex() {
			return ErrUnauthorized
		}

		owner := common.HexToAddress(cfg.Owner)
		ref := fmt.Sprintf("reward:withdraw:%d", now.UnixNano())
		if err := s.token.Transfer(ctx, tx, cfg.Token, common.HexToAddress(cfg.Address), owner, value, ref); err != nil {
			return custodyPayout(err)
		}
		return s.events.Emit(ctx, tx, EventTokensWithdrawn, now, map[string]interface{}{
			"to":     owner.Hex(),
			"amount": value,
		})
	})
}

// DepositTokens pulls value from caller into the tracker's custody balance.
// The caller must have approved the tracker beforehand.
func (s *RewardService) DepositTokens(ctx context.Context, caller common.Address, value amount.Amount) error {
	if value.IsZero() {
		return ErrZeroAmount
	}
	return s.exec.Run(ctx, model.ComponentRewardTracker, "deposit_tokens", func(tx *gorm.DB, now time.Time) error {
		cfg, err := s.config(ctx, tx)
		if err != nil {
			return err
		}

		tracker := common.HexToAddress(cfg.Address)
		ref := fmt.Sprintf("reward:deposit:%s:%d", caller.Hex(), now.UnixNano())
		if err := s.token.TransferFrom(ctx, tx, cfg.Token, tracker, caller, tracker, value, ref); err != nil {
			return pullRejected(err, ErrTransferRejected)
		}
		return s.events.Emit(ctx, tx, EventTokensDeposited, now, map[string]interface{}{
			"from":   caller.Hex(),
			"amount": value,
		})
	})
}

func (s *RewardService) GetConfig(ctx context.Context) (*RewardConfig, error) {
	cfg, err := s.config(ctx, nil)
	if err != nil {
		return nil, err
	}
	return rewardConfig(cfg), nil
}

// GetAccount returns a zero record for accounts that never logged in.
func (s *RewardService) GetAccount(ctx context.Context, account common.Address) (*RewardAccountView, error) {
	acc, err := s.accounts.Get(ctx, nil, account.Hex())
	if err != nil {
		return nil, err
	}
	view := &RewardAccountView{Account: account.Hex(), TotalClaimed: amount.Zero()}
	if acc != nil {
		view.Streak = acc.Streak
		view.LastLogin = acc.LastLogin
		view.TotalClaimed = acc.TotalClaimed
	}
	return view, nil
}

// CustodyBalance is read from the ledger, which is the source of truth for
// the reward pool.
func (s *RewardService) CustodyBalance(ctx context.Context) (amount.Amount, error) {
	cfg, err := s.config(ctx, nil)
	if err != nil {
		return amount.Zero(), err
	}
	return s.token.BalanceOf(ctx, nil, cfg.Token, common.HexToAddress(cfg.Address))
}

// CanClaim previews DailyLogin for account at the current time.
func (s *RewardService) CanClaim(ctx context.Context, account common.Address) (*ClaimStatus, error) {
	acc, err := s.accounts.Get(ctx, nil, account.Hex())
	if err != nil {
		return nil, err
	}
	var streak uint64
	var last int64
	if acc != nil {
		streak, last = acc.Streak, acc.LastLogin
	}

	now := s.exec.Now().Unix()
	status := &ClaimStatus{Account: account.Hex()}
	if last > 0 {
		status.NextClaimAt = last + claimInterval
	}
	next, err := nextStreak(streak, last, now)
	if err == nil {
		status.CanClaim = true
		status.NextStreak = next
	}
	return status, nil
}

func rewardConfig(s *model.ComponentSetting) *RewardConfig {
	return &RewardConfig{
		Owner:       s.Owner,
		RewardToken: s.Token,
		Address:     s.Address,
		DailyReward: s.DailyReward,
	}
}
