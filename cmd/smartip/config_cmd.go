package main

import (
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"github.com/muurk/smartip/internal/config"
	"github.com/muurk/smartip/internal/netif"
	"github.com/muurk/smartip/internal/ui"
)

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configSetInterfaceCmd)
	configCmd.AddCommand(configNicknameCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change saved preferences",
	Long: `Show or change the smartip config file.

The file stores the default interface and search settings used by 'scan'
and the wizard, and nicknames for known devices. Its location can be
overridden with $` + config.ConfigPathEnvVar + `.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := config.LoadRegistry()
		if err != nil {
			return err
		}
		data, err := reg.Marshal()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var configSetInterfaceCmd = &cobra.Command{
	Use:     "set-interface <address|name>",
	Short:   "Save the default interface for searches",
	Example: "  smartip config set-interface eth0\n  smartip config set-interface 192.168.1.10",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		all, err := netif.List()
		if err != nil {
			return fmt.Errorf("failed to list interfaces: %w", err)
		}
		addr, err := resolveInterface(args[0], all)
		if err != nil {
			return err
		}
		if ip := net.ParseIP(addr); ip == nil || ip.To4() == nil {
			return fmt.Errorf("%q is not an IPv4 address", addr)
		}

		reg, err := config.LoadRegistry()
		if err != nil {
			return err
		}
		reg.SetInterface(addr)
		if err := reg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Default interface saved", ui.Param{Key: "Interface", Value: addr})
		return nil
	},
}

var configNicknameCmd = &cobra.Command{
	Use:     "nickname <device> <nickname>",
	Short:   "Name a device; an empty nickname clears it",
	Example: `  smartip config nickname device-1._smart_ip._tcp.local "Kitchen"`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := config.LoadRegistry()
		if err != nil {
			return err
		}
		reg.SetDeviceNickname(args[0], args[1])
		if err := reg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Nickname saved",
			ui.Param{Key: "Device", Value: args[0]},
			ui.Param{Key: "Nickname", Value: args[1]},
		)
		return nil
	},
}
