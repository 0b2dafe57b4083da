package cmd

import (
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
)

var protocolCmd = &cobra.Command{
	Use:   "protocol",
	Short: "manage registered protocols",
}

var protocolAddCmd = &cobra.Command{
	Use:   "add <protocol_id> <name> <yield_rate_bps> <risk_score> <max_capacity>",
	Short: "register a new protocol",
	Args:  cobra.ExactArgs(5),
	Run: func(cmd *cobra.Command, args []string) {
		database := provideDatabase()
		defer database.Close()

		capacity, err := decimal.NewFromString(args[4])
		if err != nil {
			cmd.PrintErrln("invalid max capacity:", err)
			return
		}

		svcs := provideServices(database)
		protocol, err := svcs.registry.RegisterProtocol(cmd.Context(), principalFlag(cmd),
			args[0], args[1], cast.ToInt64(args[2]), cast.ToInt64(args[3]), capacity)
		if err != nil {
			cmd.PrintErrln("register protocol error:", err)
			return
		}

		cmd.Println("protocol registered:", protocol.ProtocolID)
	},
}

var protocolStatusCmd = &cobra.Command{
	Use:   "status <protocol_id> <active>",
	Short: "activate or deactivate a protocol",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		database := provideDatabase()
		defer database.Close()

		svcs := provideServices(database)
		active := cast.ToBool(args[1])
		if err := svcs.registry.SetProtocolStatus(cmd.Context(), principalFlag(cmd), args[0], active); err != nil {
			cmd.PrintErrln("set protocol status error:", err)
			return
		}

		cmd.Println("protocol", args[0], "active:", active)
	},
}

var protocolRatesCmd = &cobra.Command{
	Use:   "rates <protocol_id> <yield_rate_bps> <risk_score>",
	Short: "refresh a protocol's yield rate and risk score",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		database := provideDatabase()
		defer database.Close()

		svcs := provideServices(database)
		if err := svcs.registry.UpdateProtocolRates(cmd.Context(), principalFlag(cmd),
			args[0], cast.ToInt64(args[1]), cast.ToInt64(args[2])); err != nil {
			cmd.PrintErrln("update protocol rates error:", err)
			return
		}

		cmd.Println("protocol", args[0], "rates updated")
	},
}

func init() {
	rootCmd.AddCommand(protocolCmd)
	protocolCmd.AddCommand(protocolAddCmd, protocolStatusCmd, protocolRatesCmd)
	protocolCmd.PersistentFlags().String("principal", "", "acting principal")
}
