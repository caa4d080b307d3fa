// Command soundpad is a thin console front end for the pet sound
// engine. It exists for development and support workflows: inspecting
// a user's collections, activating one, running the first-login
// bootstrap, and test-playing sounds through the local audio device.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	internalaudio "github.com/grayson40/PetPortraitAI-sub000/internal/audio"
	"github.com/grayson40/PetPortraitAI-sub000/internal/storage"
	"github.com/grayson40/PetPortraitAI-sub000/internal/supabase"
	"github.com/grayson40/PetPortraitAI-sub000/sounds"
	"github.com/grayson40/PetPortraitAI-sub000/sounds/audio"
	soundsync "github.com/grayson40/PetPortraitAI-sub000/sounds/sync"
)

var (
	configFile string
	userID     string

	rootCmd = &cobra.Command{
		Use:           "soundpad",
		Short:         "Inspect and exercise the pet sound engine",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
)

// engine bundles the wired components a subcommand needs.
type engine struct {
	cfg     sounds.Config
	repo    *sounds.Repository
	sync    *soundsync.Manager
	session *supabase.Session
	kv      storage.KV
}

// buildEngine wires the repository and synchronizer from configuration.
func buildEngine() (*engine, error) {
	cfg, err := sounds.LoadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.ProjectURL == "" || cfg.APIKey == "" {
		return nil, fmt.Errorf("sounds.project_url and sounds.api_key must be configured")
	}
	if userID == "" {
		return nil, fmt.Errorf("--user is required")
	}

	client, err := supabase.NewClient(supabase.Config{
		ProjectURL: cfg.ProjectURL,
		APIKey:     cfg.APIKey,
		Timeout:    cfg.DownloadTimeout,
	})
	if err != nil {
		return nil, err
	}

	dataDir := cfg.DataDir
	if dataDir == "" {
		scope := gap.NewScope(gap.User, "soundpad")
		dirs, err := scope.DataDirs()
		if err != nil || len(dirs) == 0 {
			return nil, fmt.Errorf("could not resolve data directory")
		}
		dataDir = filepath.Join(dirs[0], "engine")
	}
	kv, err := storage.NewFileStore(dataDir)
	if err != nil {
		return nil, err
	}

	session := supabase.NewSession()
	session.SignIn(userID)

	logger := log.Default()
	repo := sounds.NewRepository(supabase.NewStore(client), session, kv, cfg, logger)
	return &engine{
		cfg:     cfg,
		repo:    repo,
		sync:    soundsync.NewManager(repo, kv, cfg, logger),
		session: session,
		kv:      kv,
	}, nil
}

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List the user's collections",
	RunE: func(cmd *cobra.Command, _ []string) error {
		eng, err := buildEngine()
		if err != nil {
			return err
		}

		collections, err := eng.repo.UserCollections(cmd.Context())
		if err != nil {
			return err
		}
		if len(collections) == 0 {
			fmt.Println("no collections")
			return nil
		}
		for _, c := range collections {
			marker := " "
			if c.IsActive {
				marker = "*"
			}
			fmt.Printf("%s %s  %s  %d sounds  created %s\n",
				marker, c.ID, c.Name, len(c.Entries), humanize.Time(c.CreatedAt))
		}
		return nil
	},
}

var activateCmd = &cobra.Command{
	Use:   "activate <collection-id>",
	Short: "Activate a collection and refresh the local snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := buildEngine()
		if err != nil {
			return err
		}

		snap, err := eng.sync.Activate(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("activated %s (%d sounds in snapshot)\n", snap.CollectionID, len(snap.Sounds))
		return nil
	},
}

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Run the first-login bootstrap (idempotent)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		eng, err := buildEngine()
		if err != nil {
			return err
		}

		snap, err := eng.sync.Bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		if snap.CollectionID == "" {
			fmt.Println("nothing to do: user has collections but none active")
			return nil
		}
		fmt.Printf("active collection %s with %d sounds\n", snap.CollectionID, len(snap.Sounds))
		return nil
	},
}

// buildManager initializes the local audio device and a resource
// manager configured from the engine settings.
func buildManager(eng *engine) (*audio.Manager, error) {
	backendCfg := internalaudio.DefaultBackendConfig()
	backendCfg.SampleRate = eng.cfg.SampleRate
	backendCfg.BundleDir = eng.cfg.BundleDir
	backendCfg.Timeout = eng.cfg.DownloadTimeout
	backend, err := internalaudio.NewBackend(backendCfg)
	if err != nil {
		return nil, err
	}

	manager := audio.NewManager(backend, log.Default())
	manager.SetVolume(eng.cfg.Volume)
	return manager, nil
}

var playCmd = &cobra.Command{
	Use:   "play <sound-id>",
	Short: "Play a sound from the active snapshot through the local audio device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := buildEngine()
		if err != nil {
			return err
		}

		snap, ok := eng.sync.Snapshot()
		if !ok {
			return fmt.Errorf("no active snapshot; run activate or bootstrap first")
		}

		var target *sounds.Sound
		for i := range snap.Sounds {
			if snap.Sounds[i].ID == args[0] {
				target = &snap.Sounds[i]
				break
			}
		}
		if target == nil {
			return fmt.Errorf("sound %s is not in the active snapshot", args[0])
		}

		manager, err := buildManager(eng)
		if err != nil {
			return err
		}
		defer manager.StopAll(true)

		done := make(chan struct{})
		remove := manager.OnPlaybackComplete(func(string) { close(done) })
		defer remove()

		ctx := cmd.Context()
		if err := manager.Load(ctx, target.ID, target.Source); err != nil {
			return err
		}
		if err := manager.Play(ctx, target.ID); err != nil {
			return err
		}

		select {
		case <-done:
		case <-ctx.Done():
		}
		return nil
	},
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Play the active snapshot in order, like a capture session",
	RunE: func(cmd *cobra.Command, _ []string) error {
		eng, err := buildEngine()
		if err != nil {
			return err
		}

		snap, ok := eng.sync.Snapshot()
		if !ok {
			return fmt.Errorf("no active snapshot; run activate or bootstrap first")
		}
		if len(snap.Sounds) == 0 {
			fmt.Println("active collection is empty")
			return nil
		}

		manager, err := buildManager(eng)
		if err != nil {
			return err
		}
		defer manager.StopAll(true)

		queue := audio.NewQueue(len(snap.Sounds))
		items := make([]audio.Pending, len(snap.Sounds))
		for i, s := range snap.Sounds {
			items[i] = audio.Pending{SoundID: s.ID, Source: s.Source}
		}
		if _, err := queue.EnqueueBatch(items); err != nil {
			return err
		}
		queue.Close()

		fmt.Printf("playing %d sounds from %s\n", len(items), snap.CollectionID)
		return audio.NewSequencer(manager, queue, log.Default()).Run(cmd.Context())
	},
}

var volumeCmd = &cobra.Command{
	Use:   "volume <level>",
	Short: "Store the shared playback volume in the config file",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		level, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid volume %q: %w", args[0], err)
		}
		if level < 0 {
			level = 0
		}
		if level > 1 {
			level = 1
		}
		if err := saveVolume(level); err != nil {
			return err
		}
		fmt.Printf("volume set to %.2f\n", level)
		return nil
	},
}

// saveVolume persists the volume into the config file, creating the
// file in the first config dir when none exists yet.
func saveVolume(level float64) error {
	viper.Set("sounds.volume", level)
	err := viper.WriteConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = viper.SafeWriteConfig()
	}
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// initConfig locates and reads the config file.
func initConfig() {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		scope := gap.NewScope(gap.User, "soundpad")
		dirs, err := scope.ConfigDirs()
		if err != nil {
			fmt.Println("Could not find configuration directory.")
			os.Exit(1)
		}
		for _, dir := range dirs {
			viper.AddConfigPath(dir)
		}
		viper.SetConfigName("soundpad")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("soundpad")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}
	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", used)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default soundpad.yaml in the user config dir)")
	rootCmd.PersistentFlags().StringVarP(&userID, "user", "u", "", "backend user id to operate as")

	rootCmd.AddCommand(collectionsCmd, activateCmd, bootstrapCmd, playCmd, sessionCmd, volumeCmd, configCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Error("soundpad failed", "err", err)
		os.Exit(1)
	}
}
