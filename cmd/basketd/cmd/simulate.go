package cmd

import (
	"fmt"
	"sort"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/spf13/cobra"

	"github.com/paw-chain/basket/x/basket/keeper"
	"github.com/paw-chain/basket/x/basket/simulation"
	"github.com/paw-chain/basket/x/basket/types"
)

const (
	flagFailFast    = "fail-fast"
	flagMetricsPort = "metrics-port"
)

// SimulationReport is the result of a scenario run.
type SimulationReport struct {
	ChainID  string          `json:"chain_id"`
	Baskets  []types.Basket  `json:"baskets"`
	Steps    []StepReport    `json:"steps"`
	Holdings []HoldingReport `json:"holdings"`
	Stalled  []types.Saga    `json:"stalled,omitempty"`
}

// StepReport is the outcome of one scenario step.
type StepReport struct {
	Index     int       `json:"index"`
	Action    string    `json:"action"`
	Holder    string    `json:"holder"`
	Basket    string    `json:"basket"`
	SagaID    string    `json:"saga_id,omitempty"`
	Shares    *math.Int `json:"shares,omitempty"`
	Payout    *sdk.Coin `json:"payout,omitempty"`
	Completed bool      `json:"completed"`
	Error     string    `json:"error,omitempty"`
}

// HoldingReport is a holder's position in one basket after the run.
type HoldingReport struct {
	Holder  string    `json:"holder"`
	Address string    `json:"address"`
	Basket  string    `json:"basket"`
	Shares  math.Int  `json:"shares"`
	Ledger  sdk.Coins `json:"ledger"`
	Wallet  sdk.Coins `json:"wallet"`
}

// SimulateCmd runs a scenario file against the in-process simulator.
func SimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a basket scenario against in-process collaborators",
		Example: `basketd simulate --config scenario.yaml
BASKET_LOG_LEVEL=debug basketd simulate --config scenario.yaml -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if v.GetString(FlagConfig) == "" {
				return fmt.Errorf("--%s is required", FlagConfig)
			}
			logger, err := newLogger(v, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			sc, err := loadScenario(v)
			if err != nil {
				return err
			}

			if port := v.GetInt(flagMetricsPort); port > 0 {
				StartPrometheusServer(port, logger)
			}

			report, err := RunScenario(sc, logger, v.GetBool(flagFailFast))
			if err != nil {
				return err
			}
			if err := writeResult(cmd, v, report); err != nil {
				return err
			}

			if v.GetInt(flagMetricsPort) > 0 {
				logger.Info("serving metrics until interrupted", "port", v.GetInt(flagMetricsPort))
				<-cmd.Context().Done()
			}
			return nil
		},
	}

	cmd.Flags().Bool(flagFailFast, false, "stop at the first failing step")
	cmd.Flags().Int(flagMetricsPort, 0, "serve prometheus metrics on this port after the run (0 disables)")

	return cmd
}

// RunScenario registers the scenario baskets, funds holders and executes
// each step through the basket message server.
func RunScenario(sc *Scenario, logger log.Logger, failFast bool) (*SimulationReport, error) {
	env, err := simulation.NewEnv(logger, sc.Pools)
	if err != nil {
		return nil, err
	}
	ms := keeper.NewMsgServerImpl(*env.Keeper)

	for _, b := range sc.Baskets {
		if _, err := ms.RegisterBasket(env.Ctx, types.NewMsgRegisterBasket(env.Authority, b.Name, b.Routes, b.Weights, b.IssuerSymbol)); err != nil {
			return nil, fmt.Errorf("register basket %s: %w", b.Name, err)
		}
	}

	holders := make([]string, 0, len(sc.Funds))
	for name := range sc.Funds {
		holders = append(holders, name)
	}
	sort.Strings(holders)
	for _, name := range holders {
		env.Bank.Fund(env.Ctx, HolderAddress(name), sc.Funds[name])
	}

	report := &SimulationReport{ChainID: env.Ctx.ChainID()}
	seen := make(map[[2]string]bool)

	for i, step := range sc.Steps {
		sr := StepReport{Index: i, Action: step.Action, Holder: step.Holder, Basket: step.Basket}
		holder := HolderAddress(step.Holder).String()
		seen[[2]string{step.Holder, step.Basket}] = true

		switch step.Action {
		case ActionDeposit:
			b, found := findBasket(sc.Baskets, step.Basket)
			if !found {
				err = fmt.Errorf("basket %s is not in the scenario", step.Basket)
				break
			}
			var resp *types.MsgDepositAndSwapResponse
			resp, err = ms.DepositAndSwap(env.Ctx, types.NewMsgDepositAndSwap(holder, step.Basket, b.Routes, b.Weights, step.Deposit))
			if err == nil {
				sr.SagaID = resp.SagaID
				sr.Shares = &resp.Shares
				sr.Completed = resp.Completed
			}
		case ActionRedeem:
			var resp *types.MsgRedeemResponse
			resp, err = ms.Redeem(env.Ctx, types.NewMsgRedeem(holder, step.Basket))
			if err == nil {
				sr.SagaID = resp.SagaID
				sr.Payout = &resp.Payout
				sr.Completed = resp.Settled
			}
		}

		if err != nil {
			sr.Error = err.Error()
			logger.Error("step failed", "index", i, "action", step.Action, "holder", step.Holder, "err", err)
			if failFast {
				report.Steps = append(report.Steps, sr)
				return report, fmt.Errorf("step %d: %w", i, err)
			}
		} else {
			logger.Info("step done", "index", i, "action", step.Action, "holder", step.Holder, "saga_id", sr.SagaID)
		}
		report.Steps = append(report.Steps, sr)
		err = nil
	}

	baskets, err := env.Keeper.GetAllBaskets(env.Ctx)
	if err != nil {
		return nil, err
	}
	report.Baskets = baskets

	keys := make([][2]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})
	for _, key := range keys {
		holding, err := holdingOf(env, key[0], key[1])
		if err != nil {
			return nil, err
		}
		report.Holdings = append(report.Holdings, holding)
	}

	report.Stalled, err = env.Keeper.GetStalledSagas(env.Ctx)
	if err != nil {
		return nil, err
	}
	return report, nil
}

func holdingOf(env *simulation.Env, name, basket string) (HoldingReport, error) {
	addr := HolderAddress(name)
	h := HoldingReport{
		Holder:  name,
		Address: addr.String(),
		Basket:  basket,
		Shares:  math.ZeroInt(),
		Wallet:  env.Bank.GetAllBalances(env.Ctx, addr),
	}
	if env.Keeper.HasBasket(env.Ctx, basket) {
		shares, err := env.ShareBalance(basket, addr)
		if err != nil {
			return HoldingReport{}, err
		}
		h.Shares = shares
	}
	ledger, _, err := env.Keeper.GetLedger(env.Ctx, addr, basket)
	if err != nil {
		return HoldingReport{}, err
	}
	h.Ledger = ledger
	return h, nil
}

func findBasket(baskets []types.Basket, name string) (types.Basket, bool) {
	for _, b := range baskets {
		if b.Name == name {
			return b, true
		}
	}
	return types.Basket{}, false
}
