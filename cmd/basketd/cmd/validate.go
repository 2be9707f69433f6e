package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paw-chain/basket/x/basket/types"
)

// BasketCheck is the validation outcome for one scenario basket.
type BasketCheck struct {
	Name  string `json:"name"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// ValidateBasketCmd checks every basket composition of a scenario file
// without running it.
func ValidateBasketCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-basket",
		Short: "Validate the basket compositions of a scenario file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if v.GetString(FlagConfig) == "" {
				return fmt.Errorf("--%s is required", FlagConfig)
			}
			sc, err := loadScenario(v)
			if err != nil {
				return err
			}

			checks, invalid := CheckBaskets(sc.Baskets)
			if err := writeResult(cmd, v, checks); err != nil {
				return err
			}
			if invalid > 0 {
				return fmt.Errorf("%d of %d baskets are invalid", invalid, len(checks))
			}
			return nil
		},
	}
}

// CheckBaskets validates each basket and reports duplicate names.
func CheckBaskets(baskets []types.Basket) ([]BasketCheck, int) {
	checks := make([]BasketCheck, 0, len(baskets))
	seen := make(map[string]bool, len(baskets))
	invalid := 0
	for _, b := range baskets {
		check := BasketCheck{Name: b.Name, Valid: true}
		err := b.Validate()
		if err == nil && seen[b.Name] {
			err = fmt.Errorf("%w: %s", types.ErrBasketExists, b.Name)
		}
		seen[b.Name] = true
		if err != nil {
			check.Valid = false
			check.Error = err.Error()
			invalid++
		}
		checks = append(checks, check)
	}
	return checks, invalid
}
