package cmd

import (
	"flowpool/core"

	"github.com/spf13/cobra"
)

var grantCmd = &cobra.Command{
	Use:   "grant <principal> <capability>",
	Short: "grant a capability to a principal",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		database := provideDatabase()
		defer database.Close()

		svcs := provideServices(database)
		if err := svcs.gate.Grant(cmd.Context(), principalFlag(cmd), args[0], core.Capability(args[1])); err != nil {
			cmd.PrintErrln("grant error:", err)
			return
		}

		cmd.Println("granted", args[1], "to", args[0])
	},
}

var revokeCmd = &cobra.Command{
	Use:   "revoke <principal> <capability>",
	Short: "revoke a capability from a principal",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		database := provideDatabase()
		defer database.Close()

		svcs := provideServices(database)
		if err := svcs.gate.Revoke(cmd.Context(), principalFlag(cmd), args[0], core.Capability(args[1])); err != nil {
			cmd.PrintErrln("revoke error:", err)
			return
		}

		cmd.Println("revoked", args[1], "from", args[0])
	},
}

func init() {
	rootCmd.AddCommand(grantCmd, revokeCmd)
	grantCmd.Flags().String("principal", "", "acting principal")
	revokeCmd.Flags().String("principal", "", "acting principal")
}
