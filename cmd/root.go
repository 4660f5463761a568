/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	serialtty "github.com/allbin/go-serialtty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "serialtty",
	Short: "Serial port transport for terminal sessions",
	Long: `serialtty opens a serial device as a non-blocking terminal transport.

Line settings are read from flags, the environment (SERIALTTY_*) and an
optional config file ($HOME/.serialtty.yaml):

  device: /dev/ttyUSB0
  baud: 115200
  data-bits: 8
  parity: none
  stop-bits: 1
  flow-control: none
  dtr: assert
  log:
    level: info`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.serialtty.yaml)")
	pf.StringP("device", "d", serialtty.DefaultDevice(), "Serial device")
	pf.Uint32P("baud", "b", serialtty.DefaultBaudRate, "Baud rate")
	pf.Uint8("data-bits", 8, "Data bits: 5, 6, 7 or 8")
	pf.String("parity", "none", "Parity: none, odd, even")
	pf.Uint8("stop-bits", 1, "Stop bits: 1 or 2")
	pf.StringP("flow-control", "f", "none", "Flow control: none, software, hardware")
	pf.Duration("timeout", 0, "Advisory read timeout")
	pf.String("dtr", "assert", "DTR on open: assert, deassert")
	pf.String("log-level", "warn", "Log level: debug, info, warn, error")

	for _, name := range []string{"device", "baud", "data-bits", "parity", "stop-bits", "flow-control", "timeout", "dtr"} {
		viper.BindPFlag(name, pf.Lookup(name))
	}
	viper.BindPFlag("log.level", pf.Lookup("log-level"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".serialtty")
	}

	viper.SetEnvPrefix("serialtty")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// optionsFromViper builds the line settings from flags, environment and
// config file, in viper's precedence order
func optionsFromViper(v *viper.Viper) (serialtty.Options, error) {
	opts := serialtty.DefaultOptions()

	if name := v.GetString("device"); name != "" {
		opts = opts.WithName(name)
	}
	if v.IsSet("baud") {
		opts = opts.WithBaudRate(v.GetUint32("baud"))
	}
	if v.IsSet("data-bits") {
		opts = opts.WithDataBits(serialtty.DataBits(v.GetUint("data-bits")))
	}
	if v.IsSet("stop-bits") {
		opts = opts.WithStopBits(serialtty.StopBits(v.GetUint("stop-bits")))
	}
	if v.IsSet("timeout") {
		opts = opts.WithTimeout(v.GetDuration("timeout"))
	}

	parity, err := serialtty.ParseParity(v.GetString("parity"))
	if err != nil {
		return opts, err
	}
	opts = opts.WithParity(parity)

	flow, err := serialtty.ParseFlowControl(v.GetString("flow-control"))
	if err != nil {
		return opts, err
	}
	opts = opts.WithFlowControl(flow)

	dtr, err := parseDTR(v.GetString("dtr"))
	if err != nil {
		return opts, err
	}
	opts = opts.WithDTROnOpen(dtr)

	return opts, opts.Validate()
}

// commandOptions resolves the line settings, letting a positional port
// argument override the configured device
func commandOptions(args []string) (serialtty.Options, error) {
	opts, err := optionsFromViper(viper.GetViper())
	if err != nil {
		return opts, err
	}
	if len(args) > 0 && args[0] != "" {
		opts = opts.WithName(args[0])
	}
	return opts, nil
}

func parseDTR(s string) (serialtty.DTR, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return serialtty.DTRUnspecified, nil
	case "assert", "on", "high":
		return serialtty.DTRAssert, nil
	case "deassert", "off", "low":
		return serialtty.DTRDeassert, nil
	}
	return serialtty.DTRUnspecified, fmt.Errorf("%w: dtr %q", serialtty.ErrInvalidConfig, s)
}

// newLogger returns a text logger on w at the configured level
func newLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(viper.GetString("log.level"))); err != nil {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// dial resolves, routes and opens the configured device
func dial(opts serialtty.Options, logger *slog.Logger) (*serialtty.Tty, error) {
	start := time.Now()
	tty, err := serialtty.NewDialer(logger).Dial(opts)
	if err != nil {
		return nil, err
	}
	logger.Debug("device ready", "device", opts.Name, "elapsed", time.Since(start))
	return tty, nil
}
