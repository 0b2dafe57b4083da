package cmd

import (
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
)

var assetCmd = &cobra.Command{
	Use:   "asset",
	Short: "manage supported assets",
}

var assetAddCmd = &cobra.Command{
	Use:   "add <asset_id> <symbol> <idle_threshold>",
	Short: "list a new supported asset",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		database := provideDatabase()
		defer database.Close()

		threshold, err := decimal.NewFromString(args[2])
		if err != nil {
			cmd.PrintErrln("invalid idle threshold:", err)
			return
		}

		svcs := provideServices(database)
		asset, err := svcs.registry.AddAsset(cmd.Context(), principalFlag(cmd), args[0], args[1], threshold)
		if err != nil {
			cmd.PrintErrln("add asset error:", err)
			return
		}

		cmd.Println("asset listed:", asset.AssetID, asset.Symbol)
	},
}

var assetStatusCmd = &cobra.Command{
	Use:   "status <asset_id> <active>",
	Short: "activate or deactivate an asset",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		database := provideDatabase()
		defer database.Close()

		svcs := provideServices(database)
		active := cast.ToBool(args[1])
		if err := svcs.registry.SetAssetStatus(cmd.Context(), principalFlag(cmd), args[0], active); err != nil {
			cmd.PrintErrln("set asset status error:", err)
			return
		}

		cmd.Println("asset", args[0], "active:", active)
	},
}

var assetThresholdCmd = &cobra.Command{
	Use:   "threshold <asset_id> <idle_threshold>",
	Short: "update an asset's idle threshold",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		database := provideDatabase()
		defer database.Close()

		threshold, err := decimal.NewFromString(args[1])
		if err != nil {
			cmd.PrintErrln("invalid idle threshold:", err)
			return
		}

		svcs := provideServices(database)
		if err := svcs.registry.SetIdleThreshold(cmd.Context(), principalFlag(cmd), args[0], threshold); err != nil {
			cmd.PrintErrln("set idle threshold error:", err)
			return
		}

		cmd.Println("asset", args[0], "idle threshold:", threshold)
	},
}

func principalFlag(cmd *cobra.Command) string {
	p, _ := cmd.Flags().GetString("principal")
	return p
}

func init() {
	rootCmd.AddCommand(assetCmd)
	assetCmd.AddCommand(assetAddCmd, assetStatusCmd, assetThresholdCmd)
	assetCmd.PersistentFlags().String("principal", "", "acting principal")
}
