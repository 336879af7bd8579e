package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"divinity/internal/cli/scheme/colours"
	"divinity/internal/config"
	"divinity/internal/rosary/oratory"
)

func main() {
	colours.Configure(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		app      *oratory.Oratory
		cfgFile  string
		verbose  bool
		autoplay bool
	)

	rootCmd := &cobra.Command{
		Use:   "divinity",
		Short: "📿 Pray the rosary, read aloud",
		Long: `
┌─────────────────────────────────────┐
│  📿 Divinity                        │
│  The rosary, one step at a time     │
└─────────────────────────────────────┘

Divinity walks you through the rosary prayer by prayer, reading each
one aloud with your computer's voice.
		`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Init(cfgFile); err != nil {
				return err
			}
			settings := config.Load()
			setupLogging(settings.LogLevel, verbose)
			app = oratory.NewOratory(settings)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil {
				app.Close()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if autoplay {
				return app.Autoplay(ctx)
			}
			app.ShowWelcome()
			return nil
		},
	}

	rosaryCmd := &cobra.Command{
		Use:   "rosary [mystery]",
		Short: "📿 Pray the rosary interactively",
		Long:  "Step through a rosary. Mystery is joyful, sorrowful, glorious or luminous; defaults to today's.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Rosary(ctx, args)
		},
	}

	mysteriesCmd := &cobra.Command{
		Use:   "mysteries",
		Short: "✨ List the mysteries",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			app.ListMysteries()
		},
	}

	scriptCmd := &cobra.Command{
		Use:   "script [mystery]",
		Short: "📋 Show every step of a rosary",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.ShowScript(args)
		},
	}

	prayersCmd := &cobra.Command{
		Use:   "prayers",
		Short: "🙏 Browse the prayer catalog",
		Run: func(cmd *cobra.Command, args []string) {
			app.ListPrayers()
		},
	}
	prayersCmd.PersistentFlags().StringP("lang", "l", "", "Prayer language (en, es); defaults to the voice language")

	listPrayersCmd := &cobra.Command{
		Use:   "list",
		Short: "📋 List prayers",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			app.ListPrayers()
		},
	}

	showPrayerCmd := &cobra.Command{
		Use:   "show [prayer-id]",
		Short: "📖 Show a prayer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, _ := cmd.Flags().GetString("lang")
			return app.ShowPrayer(args[0], lang)
		},
	}

	speakPrayerCmd := &cobra.Command{
		Use:   "speak [prayer-id]",
		Short: "🔊 Read a prayer aloud",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, _ := cmd.Flags().GetString("lang")
			return app.SpeakPrayer(ctx, args[0], lang)
		},
	}
	prayersCmd.AddCommand(listPrayersCmd, showPrayerCmd, speakPrayerCmd)

	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "⚙️ Show narration settings",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			app.ShowSettings()
		},
	}

	setCmd := &cobra.Command{
		Use:   "set [key] [value]",
		Short: "✏️ Change a setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.SetSetting(args[0], args[1])
		},
	}
	settingsCmd.AddCommand(setCmd)

	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "🗓️ Today at a glance",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			app.ShowSummary()
		},
	}

	voicesCmd := &cobra.Command{
		Use:   "voices",
		Short: "🎤 List voices of the speech engine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.ListVoices()
		},
	}

	// Cache parent command
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "🎵 Manage synthesized audio",
		Long:  "Inspect and clean the audio cached by the Google speech engine",
	}

	cacheStatusCmd := &cobra.Command{
		Use:   "status",
		Short: "📊 Show cache status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.ShowCacheStatus()
		},
	}

	cachePruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "🧹 Remove audio older than speech.cache_max_age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.PruneCache()
		},
	}

	cacheClearCmd := &cobra.Command{
		Use:   "clear",
		Short: "🗑️ Remove all cached audio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.ClearCache()
		},
	}
	cacheCmd.AddCommand(cacheStatusCmd, cachePruneCmd, cacheClearCmd)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default $HOME/.divinity/divinity.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
	rootCmd.Flags().BoolVar(&autoplay, "autoplay", false, "Pray today's rosary hands-free")

	rootCmd.AddCommand(rosaryCmd, mysteriesCmd, scriptCmd, prayersCmd, settingsCmd, summaryCmd, voicesCmd, cacheCmd)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		colours.Error.Fprintf(os.Stderr, "❌ Error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogging(level string, verbose bool) {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logrus.SetOutput(os.Stderr)

	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
		return
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.SetLevel(logrus.WarnLevel)
		logrus.WithField("level", level).Warn(fmt.Sprintf("Unknown log level, using %s", logrus.WarnLevel))
		return
	}
	logrus.SetLevel(parsed)
}
