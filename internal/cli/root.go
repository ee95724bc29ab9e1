package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/rohmanhakim/cfcli/internal/auth"
	"github.com/rohmanhakim/cfcli/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfgFile      string
	envFile      string
	verbose      bool
	cacheBackend string
	templateDir  string
	outputDir    string
	languageID   string
)

// newRootCmd builds the command tree. Flags are bound to the package
// variables above, which every build resets to their defaults.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cfcli",
		Short: "A command line client for the Codeforces judge.",
		Long: `cfcli talks to the Codeforces judge from the terminal: it verifies API
credentials, lists contests, scaffolds solution files from a template,
submits solutions through the website and waits for their verdict.

Credentials are read from CF_HANDLE, CF_API_KEY, CF_API_SECRET and the
optional CF_PASSWORD, after the env file (.env by default) is loaded.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file path (e.g., /home/myuser/.cfcli/config.json)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "env file holding the judge credentials")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log requests, cache lookups and polling")
	rootCmd.PersistentFlags().StringVar(&cacheBackend, "cache-backend", "", "API response cache: file, sqlite or memory")

	rootCmd.AddCommand(
		newLoginCmd(),
		newFetchCmd(),
		newGenerateCmd(),
		newSubmitCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// Run executes the command line args with the given output streams.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	return rootCmd.ExecuteContext(ctx)
}

// Execute runs the command line and exits non-zero on failure.
// This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %s", err))
		stop()
		os.Exit(1)
	}
}

func InitConfigWithError() (config.Config, error) {
	var configBuilder *config.Config
	if cfgFile != "" {
		fromFile, err := config.WithConfigFile(cfgFile)
		if err != nil {
			return config.Config{}, err
		}
		configBuilder = &fromFile
	} else {
		configBuilder = config.WithDefault()
	}

	// Override with CLI flag values where provided
	if cacheBackend != "" {
		configBuilder = configBuilder.WithCacheBackend(cacheBackend)
	}

	if templateDir != "" {
		configBuilder = configBuilder.WithTemplateDir(templateDir)
	}

	if outputDir != "" {
		configBuilder = configBuilder.WithOutputDir(outputDir)
	}

	if languageID != "" {
		configBuilder = configBuilder.WithLanguageID(languageID)
	}

	cfg, err := configBuilder.Build()
	if err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// loadCredentials resolves credentials from the env file and environment,
// with override applied on top.
func loadCredentials(override auth.Credentials) (auth.Credentials, error) {
	if envFile == "" {
		return auth.CredentialsFromEnv(os.Getenv).Merge(override), nil
	}
	return auth.Load(override, envFile)
}

func ResetFlags() {
	cfgFile = ""
	envFile = ""
	verbose = false
	cacheBackend = ""
	templateDir = ""
	outputDir = ""
	languageID = ""
}

// Test helper functions to set flag values from tests
func SetConfigFileForTest(path string) {
	cfgFile = path
}

func SetCacheBackendForTest(backend string) {
	cacheBackend = backend
}

func SetTemplateDirForTest(dir string) {
	templateDir = dir
}

func SetOutputDirForTest(dir string) {
	outputDir = dir
}

func SetLanguageIDForTest(id string) {
	languageID = id
}
