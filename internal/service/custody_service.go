package service

import (
	"context"
	"errors"
	"fmt"

	"dailytrack/internal/ledger"
	"dailytrack/internal/model"
	"dailytrack/internal/repository"
	"dailytrack/pkg/amount"

	"github.com/ethereum/go-ethereum/common"
)

// CustodyReport compares a component's ledger balance with its journal.
type CustodyReport struct {
	Component    string        `json:"component"`
	Token        string        `json:"token"`
	Address      string        `json:"address"`
	Balance      amount.Amount `json:"balance"`
	Credits      amount.Amount `json:"credits"`
	Debits       amount.Amount `json:"debits"`
	JournalNet   amount.Amount `json:"journal_net"`
	LastRecorded amount.Amount `json:"last_recorded"`
	Consistent   bool          `json:"consistent"`
}

type CustodyService struct {
	token    *ledger.Token
	settings *repository.SettingRepository
	entries  *repository.EntryRepository
}

func NewCustodyService(exec *Executor, token *ledger.Token) *CustodyService {
	db := exec.DB()
	return &CustodyService{
		token:    token,
		settings: repository.NewSettingRepository(db),
		entries:  repository.NewEntryRepository(db),
	}
}

// Reconcile reports on every deployed component. Components that are not
// deployed are skipped.
func (s *CustodyService) Reconcile(ctx context.Context) ([]CustodyReport, error) {
	var reports []CustodyReport
	for _, component := range []string{model.ComponentRewardTracker, model.ComponentExchangeEscrow} {
		setting, err := s.settings.Get(ctx, nil, component)
		if err != nil {
			if errors.Is(err, repository.ErrSettingNotFound) {
				continue
			}
			return nil, err
		}
		report, err := s.reconcileOne(ctx, setting)
		if err != nil {
			return nil, fmt.Errorf("reconcile %s: %w", component, err)
		}
		reports = append(reports, *report)
	}
	return reports, nil
}

func (s *CustodyService) reconcileOne(ctx context.Context, setting *model.ComponentSetting) (*CustodyReport, error) {
	addr := common.HexToAddress(setting.Address)
	balance, err := s.token.BalanceOf(ctx, nil, setting.Token, addr)
	if err != nil {
		return nil, err
	}
	credits, debits, err := s.entries.Totals(ctx, setting.Token, addr.Hex())
	if err != nil {
		return nil, err
	}

	report := &CustodyReport{
		Component:    setting.Component,
		Token:        setting.Token,
		Address:      addr.Hex(),
		Balance:      balance,
		Credits:      credits,
		Debits:       debits,
		LastRecorded: amount.Zero(),
	}

	net, underflow := credits.Sub(debits)
	report.JournalNet = net
	report.Consistent = !underflow && net.Equal(balance)

	last, err := s.entries.Last(ctx, setting.Token, addr.Hex())
	if err != nil {
		return nil, err
	}
	if last != nil {
		report.LastRecorded = last.BalanceAfter
		report.Consistent = report.Consistent && last.BalanceAfter.Equal(balance)
	}
	return report, nil
}
