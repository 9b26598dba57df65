// Package cli implements trackerctl, the terminal client for the tracker API.
package cli

import (
	"bug_tracker/internal/client"
	"bug_tracker/internal/config"
	"bug_tracker/internal/domain"
	"bug_tracker/internal/realtime"
	"errors"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var version = "dev"

// app carries what every command needs once the config is loaded
type app struct {
	cfgFile  string
	flags    config.ClientFlags
	cfg      *config.ClientConfig
	sessions *client.SessionStore
	api      *client.Client
}

// NewRootCmd builds the trackerctl command tree
func NewRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "trackerctl",
		Short: "Command line client for the bug tracker",
		Long: `trackerctl logs in to a bug tracker server and works with its projects,
boards, tickets and comments. Boards and comment threads can be followed
live with --watch.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}
			return a.setup()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "trackerctl.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&a.flags.APIURL, "api", "", "tracker API base URL")
	rootCmd.PersistentFlags().StringVar(&a.flags.RedisAddr, "redis", "", "redis address for live updates")
	rootCmd.PersistentFlags().StringVar(&a.flags.SessionFile, "session", "", "session file path")

	rootCmd.AddCommand(
		a.registerCmd(),
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.projectsCmd(),
		a.boardCmd(),
		a.ticketCmd(),
		a.commentsCmd(),
		a.usersCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "trackerctl %s\n", version)
			},
		},
	)
	return rootCmd
}

func SetVersion(v string) {
	version = v
}

func Execute() error {
	return NewRootCmd().Execute()
}

func (a *app) setup() error {
	if _, err := os.Stat(a.cfgFile); errors.Is(err, os.ErrNotExist) {
		a.cfg = &config.ClientConfig{}
	} else {
		cfg, err := config.LoadClient(a.cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		a.cfg = cfg
	}

	sessions, err := client.OpenSessionStore(a.cfg.GetSessionFile(&a.flags))
	if err != nil {
		return err
	}
	a.sessions = sessions
	a.api = client.New(a.cfg.GetAPIURL(&a.flags), sessions.Credential)
	// An expired or revoked token sends the user back to login
	a.api.OnUnauthorized(func() { _ = sessions.Clear() })
	return nil
}

func (a *app) session() (client.Session, error) {
	sess, ok := a.sessions.Current()
	if !ok {
		return client.Session{}, fmt.Errorf("%w: run trackerctl login first", client.ErrUnauthorized)
	}
	return sess, nil
}

// requireWriter refuses ticket and project edits for read-only roles
// before anything is sent
func (a *app) requireWriter() error {
	sess, err := a.session()
	if err != nil {
		return err
	}
	if !sess.User.Role.CanWrite() {
		return fmt.Errorf("%w: %s accounts are read-only", client.ErrForbidden, sess.User.Role)
	}
	return nil
}

func (a *app) requireAdmin() error {
	sess, err := a.session()
	if err != nil {
		return err
	}
	if sess.User.Role != domain.RoleAdmin {
		return fmt.Errorf("%w: only admins can do this", client.ErrForbidden)
	}
	return nil
}

// bridge connects to the realtime channel; call the returned func when done
func (a *app) bridge() (*realtime.Bridge, func()) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     a.cfg.GetRedisAddr(&a.flags),
		Password: a.cfg.RedisPass,
		DB:       a.cfg.RedisDB,
	})
	return realtime.NewBridge(rdb), func() { _ = rdb.Close() }
}
