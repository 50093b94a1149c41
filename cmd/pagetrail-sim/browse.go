package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pagetrail/api/client"
	"pagetrail/api/localstore"
	"pagetrail/api/tracker"
)

const (
	userAgent    = "pagetrail-sim/1.0"
	screenWidth  = 1440
	screenHeight = 900
)

type browseFlags struct {
	configPath  string
	pages       []string
	dwell       time.Duration
	scrollSteps int
	clicks      int
	search      string
	theme       string
	ipLookupURL string
}

var browse browseFlags

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Visit a sequence of pages, scrolling and clicking on each",
	RunE:  runBrowse,
}

func init() {
	f := browseCmd.Flags()
	f.StringVar(&browse.configPath, "config", "", "tracker YAML config (defaults apply when empty)")
	f.StringSliceVar(&browse.pages, "pages", []string{"/", "/portfolio", "/projects?tab=recent", "/admin"}, "route URIs to visit in order")
	f.DurationVar(&browse.dwell, "dwell", 2*time.Second, "time spent on each page")
	f.IntVar(&browse.scrollSteps, "scroll-steps", 4, "scroll samples per page")
	f.IntVar(&browse.clicks, "clicks", 1, "clicks per page")
	f.StringVar(&browse.search, "search", "", "search query issued on the last page")
	f.StringVar(&browse.theme, "theme", "", "value stored as the theme preference")
	f.StringVar(&browse.ipLookupURL, "ip-lookup", tracker.DefaultIPLookupURL, "public IP echo service; empty registers without an address")
}

func runBrowse(cmd *cobra.Command, args []string) error {
	cfg := tracker.DefaultConfig()
	if browse.configPath != "" {
		var err error
		if cfg, err = tracker.LoadConfig(browse.configPath); err != nil {
			return err
		}
	}

	store, err := localstore.Open(flags.storePath)
	if err != nil {
		return err
	}
	defer store.Close()

	remote, err := client.New(flags.apiURL, flags.apiKey)
	if err != nil {
		return err
	}

	opts := controllerOptions(cfg, browse.ipLookupURL)
	visitorID := tracker.GetOrCreateVisitorID(localEnvironment(), store, logger)
	ctrl := tracker.NewController(remote, visitorID, opts)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	script := session{
		pages:       browse.pages,
		dwell:       browse.dwell,
		scrollSteps: browse.scrollSteps,
		clicks:      browse.clicks,
		search:      browse.search,
		theme:       browse.theme,
	}
	runErr := script.run(ctx, ctrl)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), tracker.DefaultSendTimeout)
	defer cancel()
	if err := ctrl.Shutdown(shutdownCtx); err != nil {
		logger.Warn("pending events were not delivered", zap.Error(err))
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	fmt.Fprintf(cmd.OutOrStdout(), "visitor %s browsed %d pages (tracking enabled: %t)\n", visitorID, len(browse.pages), ctrl.Enabled())
	return nil
}

// controllerOptions enables the public IP lookup unless ipLookupURL is empty.
func controllerOptions(cfg tracker.Config, ipLookupURL string) tracker.Options {
	opts := tracker.Options{Config: cfg, Logger: logger}
	if ipLookupURL != "" {
		opts.IPLookup = tracker.NewHTTPIPLookup(ipLookupURL)
	}
	return opts
}

// session is a scripted visit. sleep is replaced in tests.
type session struct {
	pages       []string
	dwell       time.Duration
	scrollSteps int
	clicks      int
	search      string
	theme       string
	sleep       func(context.Context, time.Duration) error
}

func (s session) run(ctx context.Context, ctrl *tracker.Controller) error {
	if len(s.pages) == 0 {
		return errors.New("no pages to visit")
	}
	sleep := s.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	routes := make([]tracker.Route, 0, len(s.pages))
	referrer := ""
	for _, p := range s.pages {
		r, err := tracker.RouteFromURL(p, titleFor(p), referrer)
		if err != nil {
			return err
		}
		routes = append(routes, r)
		referrer = r.Key()
	}

	if err := ctrl.Init(ctx, routes[0].Path, tracker.Metadata{UserAgent: userAgent}); err != nil {
		logger.Info("session not registered", zap.String("landing", routes[0].Path), zap.Error(err))
	}
	if s.theme != "" {
		if err := ctrl.SetPreference("theme", s.theme); err != nil {
			logger.Warn("preference not recorded", zap.Error(err))
		}
	}

	steps := max(s.scrollSteps, 1)
	pause := s.dwell / time.Duration(steps)
	const docHeight = 3 * screenHeight

	for i, route := range routes {
		ctrl.Start(route)
		logger.Debug("page opened", zap.String("route", route.Key()), zap.Bool("excluded", ctrl.Excluded(route.Path)))

		for step := 1; step <= steps; step++ {
			if err := sleep(ctx, pause); err != nil {
				ctrl.Stop(route)
				return err
			}
			top := float64(docHeight-screenHeight) * float64(step) / float64(steps)
			ctrl.Scroll(tracker.ScrollSample{ScrollTop: top, ViewportHeight: screenHeight, DocumentHeight: docHeight})
		}
		for c := 0; c < s.clicks; c++ {
			ctrl.Click(tracker.ClickTarget{
				TagName: "BUTTON",
				ID:      fmt.Sprintf("cta-%d", c),
				Text:    "Learn more",
				X:       float64(100 + 40*c),
				Y:       float64(300 + 25*c),
			})
		}
		if i == len(routes)-1 && s.search != "" {
			ctrl.TrackSearch(s.search, map[string]any{"page": route.Path}, 0)
		}

		logger.Info("page visited", zap.String("route", route.Key()), zap.Int("scroll_depth", ctrl.ScrollDepth()))
		ctrl.Stop(route)
	}
	return nil
}

func titleFor(uri string) string {
	return "pagetrail-sim " + uri
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
