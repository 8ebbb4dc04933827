package commands

import (
	"github.com/spf13/cobra"

	"github.com/actingweb/actingweb-sub001/internal/app"
	"github.com/actingweb/actingweb-sub001/pkg/types"
)

var hooksCategory string

var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "List registered hooks",
	Long: `List the hooks that would be registered for the current configuration,
in dispatch order: for each category, hooks for a name run in registration
order and the wildcard hooks run last.`,
	Args: cobra.NoArgs,
	RunE: runHooks,
}

func init() {
	hooksCmd.Flags().StringVarP(&hooksCategory, "category", "c", "", "Only list hooks of this category")
}

func runHooks(cmd *cobra.Command, args []string) error {
	var filter types.Category
	if hooksCategory != "" {
		c, err := types.ParseCategory(hooksCategory)
		if err != nil {
			return err
		}
		filter = c
	}

	_, cfg, err := loadConfig(false)
	if err != nil {
		return err
	}
	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Bus.Close()

	r := newRenderer(cmd.OutOrStdout(), noColor)
	r.Hooks(a.Table.Registrations(), filter)
	return nil
}
