package cmd

import (
	"fmt"

	"github.com/ThomasCrouzet/mediastack/internal/ui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "List the services that can be generated",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog(viper.GetString("catalog"))
		if err != nil {
			printError("Failed to load the service catalog", err)
			return err
		}
		fmt.Print(ui.Catalog(cat))
		fmt.Println()
		fmt.Println(ui.Hint(fmt.Sprintf("%d services from %s", cat.Len(), cat.Source())))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(servicesCmd)
}
