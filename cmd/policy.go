package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Print the active lifecycle table as YAML",
	Long: `policy prints the lifecycle table the sweep would use. The output is a
valid --policy-file, so it doubles as a starting point for overrides.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig(cmd)

		policy, err := loadPolicy(cfg)
		if err != nil {
			return err
		}

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(policy); err != nil {
			return fmt.Errorf("failed to encode lifecycle table: %w", err)
		}
		return enc.Close()
	},
}
