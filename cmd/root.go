package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger = zap.NewNop()

var rootCmd = &cobra.Command{
	Use:   "ponto",
	Short: "ponto – a punch clock for the command line",
	Long: `ponto records clock-in, break and clock-out punches and computes the
monthly worked-hours balance against an 8-hour day.
Data is stored locally in ~/.ponto/ and can be synced with a shared backend.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		zcfg.Encoding = "console"
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if viper.GetBool("verbose") {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		l, err := zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// exitError carries the process exit code: 1 for rejected input, 2 for
// storage and backend failures.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userError(format string, args ...any) error {
	return &exitError{code: 1, err: fmt.Errorf(format, args...)}
}

func systemError(err error) error {
	return &exitError{code: 2, err: err}
}

// Execute is the entry point called from main.
func Execute() {
	// A .env file is optional.
	_ = godotenv.Load()

	if err := execute(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(1)
	}
}

func execute(args []string, out io.Writer) error {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	viper.SetEnvPrefix("PONTO")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default ~/.ponto/config.json)")
	flags.String("user", "", "User id whose punches are used (default from config)")
	flags.String("timezone", "", "IANA timezone for calendar days (default from config)")
	flags.Bool("json", false, "Print JSON instead of tables")
	flags.BoolP("verbose", "v", false, "Debug logging")
	_ = viper.BindPFlag("config", flags.Lookup("config"))
	_ = viper.BindPFlag("user_id", flags.Lookup("user"))
	_ = viper.BindPFlag("timezone", flags.Lookup("timezone"))
	_ = viper.BindPFlag("json", flags.Lookup("json"))
	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))

	rootCmd.AddCommand(punchCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(employeeCmd)
	rootCmd.AddCommand(remoteCmd)
}
