package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/dirsync/internal/logging"
	syncpkg "github.com/MarkoPoloResearchLab/dirsync/internal/sync"
	"github.com/MarkoPoloResearchLab/dirsync/internal/watch"
)

const (
	exitOK    = 0
	exitUsage = 1
)

// exitCodes maps error categories to process exit codes.
var exitCodes = map[syncpkg.ErrorCode]int{
	syncpkg.CodeSourceNotFound:      2,
	syncpkg.CodeFilesystem:          3,
	syncpkg.CodeConfigParse:         4,
	syncpkg.CodeConfigVersion:       5,
	syncpkg.CodeIncompatibleEntries: 6,
	syncpkg.CodeSourceNotDirectory:  7,
	syncpkg.CodeTargetUnavailable:   8,
}

var errConflictFlags = errors.New("--skip-existing and --rename are mutually exclusive")

var (
	logger  *zap.Logger
	rootCmd = &cobra.Command{
		Use:   "dirsync [flags] <source> <target>",
		Short: "Synchronize two directory trees",
		Long: "Synchronize a target directory with a source directory, or two peer " +
			"directories with each other when --bidirectional is set. Directories may " +
			"carry a .dirsync.json or .dirsync.yaml file with exclusion rules.",
		Args:          cobra.ExactArgs(2),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			options, err := buildOptions(args)
			if err != nil {
				logger.Error("invalid options", zap.Error(err))
				return err
			}
			_, err = runOnce(options)
			return err
		},
	}
	watchCmd = &cobra.Command{
		Use:   "watch [flags] <source> <target>",
		Short: "Synchronize, then synchronize again whenever either tree changes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			options, err := buildOptions(args)
			if err != nil {
				logger.Error("invalid options", zap.Error(err))
				return err
			}

			watcher, err := watch.New(watch.Config{
				Roots:          []string{options.SourcePath, options.TargetPath},
				IgnorePatterns: viper.GetStringSlice("watch-ignore"),
				Debounce:       viper.GetDuration("debounce"),
			}, logger)
			if err != nil {
				logger.Error("start watcher", zap.Error(err))
				return err
			}
			defer watcher.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("watching for changes",
				zap.String("source", options.SourcePath),
				zap.String("target", options.TargetPath),
			)
			return watcher.Run(ctx, func(context.Context) error {
				_, err := runOnce(options)
				return err
			})
		},
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolP("verbose", "v", false, "print every action taken")
	flags.Bool("dry-run", false, "report actions without changing anything")
	flags.Bool("bidirectional", false, "synchronize both directories with each other")
	flags.BoolP("delete-extra", "d", false, "delete target entries missing from the source (one-way only)")
	flags.String("conflict", string(syncpkg.ConflictOverwrite), "conflict mode: overwrite, skip or rename")
	flags.BoolP("skip-existing", "s", false, "shorthand for --conflict=skip")
	flags.BoolP("rename", "r", false, "shorthand for --conflict=rename")
	flags.Bool("copy-configs", false, "copy .dirsync configuration files too")
	flags.String("ignore-file", "", "path to a gitignore-style file with run-wide ignore rules")
	flags.String("result-file", "", "write the run summary as JSON to this path")
	flags.String("log-level", "info", "log level")
	flags.String("log-format", logging.FormatJSON, "log format: json or console")
	flags.String("config", "", "configuration file (default ./dirsync.yaml)")
	rootCmd.SetGlobalNormalizationFunc(aliasFlags)

	watchFlags := watchCmd.Flags()
	watchFlags.Duration("debounce", watch.DefaultDebounce, "quiet period before a change triggers a run")
	watchFlags.StringSlice("watch-ignore", []string{".git", "*.swp", "*~"}, "base name patterns whose changes do not trigger a run")
	rootCmd.AddCommand(watchCmd)

	bindConfig()

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := readConfigFile(); err != nil {
			return err
		}
		var err error
		logger, err = logging.NewLogger()
		if err != nil {
			return err
		}
		return nil
	}
}

// bindConfig exposes every flag through viper under its own name, so values
// may also come from DIRSYNC_* variables or the configuration file.
func bindConfig() {
	viper.SetEnvPrefix("DIRSYNC")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	for _, set := range []*pflag.FlagSet{rootCmd.PersistentFlags(), watchCmd.Flags()} {
		set.VisitAll(func(flag *pflag.Flag) {
			_ = viper.BindPFlag(flag.Name, flag)
		})
	}
}

// flagAliases maps alternative long flag names to their canonical flag.
var flagAliases = map[string]string{
	"bi":                  "bidirectional",
	"safe":                "skip-existing",
	"copy-configurations": "copy-configs",
}

func aliasFlags(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	if canonical, ok := flagAliases[name]; ok {
		name = canonical
	}
	return pflag.NormalizedName(name)
}

// readConfigFile loads --config, or dirsync.yaml from the working directory
// when present.
func readConfigFile() error {
	if path := viper.GetString("config"); path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("dirsync")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func buildOptions(args []string) (syncpkg.Options, error) {
	mode, err := conflictMode()
	if err != nil {
		return syncpkg.Options{}, err
	}

	ignoreFile := viper.GetString("ignore-file")
	ignoreMatcher, err := syncpkg.LoadIgnoreFile(ignoreFile)
	if err != nil {
		return syncpkg.Options{}, fmt.Errorf("read ignore file %s: %w", ignoreFile, err)
	}

	return syncpkg.Options{
		SourcePath:             args[0],
		TargetPath:             args[1],
		Bidirectional:          viper.GetBool("bidirectional"),
		Verbose:                viper.GetBool("verbose"),
		DryRun:                 viper.GetBool("dry-run"),
		DeleteExtraTargetFiles: viper.GetBool("delete-extra"),
		CopyConfigurationFiles: viper.GetBool("copy-configs"),
		ConflictMode:           mode,
		IgnoreMatcher:          ignoreMatcher,
		Output:                 os.Stdout,
	}, nil
}

// conflictMode resolves --conflict and its -s / -r shorthands.
func conflictMode() (syncpkg.ConflictMode, error) {
	skip := viper.GetBool("skip-existing")
	rename := viper.GetBool("rename")
	switch {
	case skip && rename:
		return "", errConflictFlags
	case skip:
		return syncpkg.ConflictSkip, nil
	case rename:
		return syncpkg.ConflictRename, nil
	}
	return syncpkg.ParseConflictMode(viper.GetString("conflict"))
}

// runOnce performs one synchronization and writes the result file when one
// is configured, also after a failed run.
func runOnce(options syncpkg.Options) (syncpkg.SyncResult, error) {
	result, err := syncpkg.RunSync(options, logger)
	if path := viper.GetString("result-file"); path != "" {
		if saveErr := syncpkg.SaveResult(path, result); saveErr != nil {
			logger.Error("write result file", zap.String("path", path), zap.Error(saveErr))
			if err == nil {
				err = &syncpkg.Error{Code: syncpkg.CodeFilesystem, Path: path, Err: saveErr}
			}
		}
	}
	if err != nil {
		logger.Error("synchronization failed", zap.Error(err), zap.Int("failures", result.FailureCount))
		return result, err
	}

	logger.Info("synchronization completed",
		zap.Int("changed", result.ChangedFileCount),
		zap.Any("actions", result.ActionCounters),
		zap.Bool("dry_run", result.DryRun),
	)
	return result, nil
}

// exitCode maps err to the process exit status. Errors without a category
// are usage errors.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if code, ok := exitCodes[syncpkg.CodeOf(err)]; ok {
		return code
	}
	return exitUsage
}

func execute() int {
	err := rootCmd.Execute()
	if logger != nil {
		defer func() { _ = logger.Sync() }()
	}
	if err != nil && logger == nil {
		os.Stderr.WriteString(err.Error() + "\n")
	}
	return exitCode(err)
}

func main() {
	os.Exit(execute())
}
