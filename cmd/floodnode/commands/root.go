package commands

import (
	"os"
	"strings"

	"github.com/mosaicnetworks/floodnode/src/agent"
	"github.com/mosaicnetworks/floodnode/src/config"
	"github.com/mosaicnetworks/floodnode/src/engine"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of the environment variables read by the node, e.g.
// FLOODNODE_AGENT or FLOODNODE_SERVICE_LISTEN.
const EnvPrefix = "FLOODNODE"

var (
	_config = NewDefaultCLIConfig()
	_viper  = viper.New()
)

//NewRootCmd returns the root command. It runs a node on stdin and stdout,
//which is how the test harness starts it.
func NewRootCmd() *cobra.Command {
	_config = NewDefaultCLIConfig()
	_viper = viper.New()

	cmd := &cobra.Command{
		Use:              "floodnode",
		Short:            "Node for line-oriented distributed systems workloads",
		TraverseChildren: true,
		Args:             cobra.NoArgs,
		PreRunE:          loadConfig,
		RunE:             runNode,
	}
	cmd.SetOutput(os.Stderr)
	AddRunFlags(cmd)
	return cmd
}

/*******************************************************************************
* RUN
*******************************************************************************/

func runNode(cmd *cobra.Command, args []string) error {
	engine := engine.NewEngine(&_config.Node)

	if err := engine.Init(); err != nil {
		_config.Node.Logger().WithError(err).Error("Cannot initialize engine")
		return err
	}

	if err := engine.Run(); err != nil {
		_config.Node.Logger().WithError(err).Error("Engine stopped")
		return err
	}

	return nil
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

//AddRunFlags adds flags to the root command
func AddRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("datadir", _config.Node.DataDir, "Top-level directory for configuration")
	cmd.Flags().String("log", _config.Node.LogLevel, "debug, info, warn, error, fatal, panic")
	cmd.Flags().String("log-dir", _config.Node.LogDir, "Directory for info.log and debug.log (disabled if empty)")
	cmd.Flags().String("agent", _config.Node.Agent, strings.Join(agent.Names(), ", "))
	cmd.Flags().StringP("service-listen", "s", _config.Node.ServiceAddr, "Listen IP:Port for HTTP service (disabled if empty)")
}

func loadConfig(cmd *cobra.Command, args []string) error {

	err := bindFlagsLoadViper(cmd)
	if err != nil {
		return err
	}

	_config.Node.Logger().WithFields(logrus.Fields{
		"node.DataDir":     _config.Node.DataDir,
		"node.LogLevel":    _config.Node.LogLevel,
		"node.LogDir":      _config.Node.LogDir,
		"node.Agent":       _config.Node.Agent,
		"node.ServiceAddr": _config.Node.ServiceAddr,
	}).Debug("RUN")

	return nil
}

// Bind all flags and environment variables and read the config into viper
func bindFlagsLoadViper(cmd *cobra.Command) error {
	// Register flags with viper. Include flags from this command and all other
	// persistent flags from the parent
	if err := _viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// FLOODNODE_SERVICE_LISTEN overrides --service-listen, etc.
	_viper.SetEnvPrefix(EnvPrefix)
	_viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	_viper.AutomaticEnv()

	// first unmarshal to read from CLI flags and environment
	if err := _viper.Unmarshal(_config); err != nil {
		return err
	}

	// look for config file in [datadir]/floodnode.toml (.json, .yaml also work)
	_viper.SetConfigName(config.DefaultConfigName)
	_viper.AddConfigPath(_config.Node.DataDir)

	// If a config file is found, read it in. The logger is only built after
	// the second unmarshal so that the file can set the log options.
	configFile := ""
	if err := _viper.ReadInConfig(); err == nil {
		configFile = _viper.ConfigFileUsed()
	} else if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
		return err
	}

	// second unmarshal to read from config file
	if err := _viper.Unmarshal(_config); err != nil {
		return err
	}

	if configFile != "" {
		_config.Node.Logger().Debugf("Using config file: %s", configFile)
	} else {
		_config.Node.Logger().Debugf("No config file found in: %s", _config.Node.DataDir)
	}

	return nil
}
