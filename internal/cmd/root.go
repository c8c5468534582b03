package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kyupark/xctid/internal/config"
	"github.com/kyupark/xctid/internal/cookies"
	"github.com/kyupark/xctid/internal/homepage"
	"github.com/kyupark/xctid/internal/httpclient"
	"github.com/kyupark/xctid/internal/transaction"
	"github.com/kyupark/xctid/internal/txerr"
)

var (
	globalCfg   *config.Config
	flagVerbose bool
	log         = zap.NewNop().Sugar()
)

var rootCmd = &cobra.Command{
	Use:   "xctid",
	Short: "Generate x-client-transaction-id headers for X web API requests",
	Long: `xctid derives the x-client-transaction-id header the X web client
attaches to API calls. Key material is read from the x.com home page and
its ondemand.s script, cached for a while, and reused for every token.

Usage:
  xctid generate GET /i/api/graphql/<id>/UserTweets
  xctid session --refresh
  xctid decode <token> --method GET --path /i/api/...`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		globalCfg = config.Load()
		if flagVerbose {
			globalCfg.Verbose = true
		}
		if globalCfg.Verbose {
			if l, err := zap.NewDevelopment(); err == nil {
				log = l.Sugar()
			}
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = log.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose output")
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		if hint := failureHint(err); hint != "" {
			fmt.Fprintln(os.Stderr, hint)
		}
	}
	return err
}

// failureHint tells an unreachable site apart from a changed one.
func failureHint(err error) string {
	switch {
	case txerr.IsNetwork(err):
		return "hint: x.com could not be reached; check connectivity and retry"
	case errors.Is(err, txerr.ErrMalformedToken):
		return ""
	case txerr.StageOf(err) != "":
		return fmt.Sprintf("hint: the %s stage failed on the served page; the site format may have changed", txerr.StageOf(err))
	}
	return ""
}

// deriveSession fetches the home page and derives fresh key material.
func deriveSession(ctx context.Context) (*transaction.Session, error) {
	logf := log.Debugf
	client := httpclient.New(globalCfg.TimeoutDuration(), globalCfg.Fingerprint)

	jar := globalCfg.Cookies()
	if globalCfg.BrowserCookies {
		found, err := cookies.Load(ctx, cookies.XDomain, cookies.XNames, logf)
		if err != nil {
			logf("[cookies] %v", err)
		}
		if found != nil {
			for k, v := range found.Values {
				if jar[k] == "" {
					jar[k] = v
				}
			}
		}
	}

	hp := &homepage.Fetcher{
		Client:    client,
		UserAgent: globalCfg.UserAgent,
		HomeURL:   globalCfg.HomeURL,
		Cookies:   jar,
		Logf:      logf,
	}
	doc, err := hp.Fetch(ctx)
	if err != nil {
		return nil, txerr.At(txerr.StageHomePage, err)
	}

	scripts := &httpclient.Fetcher{Client: client, UserAgent: globalCfg.UserAgent, Logf: logf}
	return transaction.Create(ctx, doc, scripts, transaction.WithLogf(logf))
}

// currentSession returns the saved session if it is still fresh, and
// derives and saves a new one otherwise.
func currentSession(ctx context.Context, refresh bool) (*config.SessionState, error) {
	state := config.LoadState()
	now := time.Now()
	if !refresh && state.Session.Fresh(now, globalCfg.TTL()) && state.Session.HomeURL == globalCfg.HomeURL {
		log.Debugf("[session] reusing session from %s", state.Session.CreatedAt.Format(time.RFC3339))
		return state.Session, nil
	}

	s, err := deriveSession(ctx)
	if err != nil {
		return nil, err
	}
	state.Session = &config.SessionState{
		Key:          s.Key,
		AnimationKey: s.AnimationKey,
		HomeURL:      globalCfg.HomeURL,
		CreatedAt:    now,
	}
	if err := config.SaveState(state); err != nil {
		log.Debugf("[session] saving state: %v", err)
	}
	return state.Session, nil
}
