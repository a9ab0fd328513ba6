package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/basket-facade/internal/bridge"
	"github.com/GriffinCanCode/basket-facade/internal/facade"
	"github.com/GriffinCanCode/basket-facade/internal/frame"
	"github.com/GriffinCanCode/basket-facade/internal/host"
	"github.com/GriffinCanCode/basket-facade/internal/infrastructure/config"
	"github.com/GriffinCanCode/basket-facade/internal/infrastructure/logging"
	httpclient "github.com/GriffinCanCode/basket-facade/internal/providers/http/client"
	"github.com/GriffinCanCode/basket-facade/internal/providers/repository"
	"github.com/GriffinCanCode/basket-facade/internal/sandbox"
)

var (
	cfgFile string
	verbose bool
	remote  string
	apiURL  string
	ref     string
	pin     bool
	hash    string
	cookies []string
)

var rootCmd = &cobra.Command{
	Use:   "browse <owner> <basket>",
	Short: "Browse a repository basket in the terminal",
	Long: `Browse renders a basket's directory tree the way the embedded facade
does in a web page. The address bar hash selects the path; links are
numbered and followed by typing their number.

By default the frame runs in-process against the repository API. With
--remote it drives a frame hosted by the facade server instead.`,
	Args:          cobra.ExactArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runBrowse,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&cfgFile, "config", "", "YAML or TOML config file")
	f.BoolVarP(&verbose, "verbose", "v", false, "debug logging on stderr")
	f.StringVar(&remote, "remote", "", "facade server websocket, e.g. ws://localhost:8000/facade/ws")
	f.StringVar(&apiURL, "api", "", "repository API base URL (local mode)")
	f.StringVar(&ref, "ref", "", "commit reference (local mode)")
	f.BoolVar(&pin, "pin", false, "resolve the commit once (local mode)")
	f.StringVar(&hash, "hash", "", "initial address bar hash, e.g. #docs/readme.md")
	f.StringArrayVar(&cookies, "cookie", nil, "cookie sent with API requests, name=value (repeatable)")
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfgFile != "" {
		if err := cfg.ApplyFile(cfgFile); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("api") {
		cfg.Repository.BaseURL = apiURL
	}
	if cmd.Flags().Changed("ref") {
		cfg.Repository.CommitRef = ref
	}
	if cmd.Flags().Changed("pin") {
		cfg.Repository.PinRef = pin
	}
	if verbose {
		cfg.Logging.Level = "debug"
		cfg.Logging.Development = true
	}
	return cfg, nil
}

func runBrowse(cmd *cobra.Command, args []string) error {
	owner, basket := args[0], args[1]

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logCfg := logging.FromAppConfig(cfg.Logging, "stderr")
	if !verbose {
		logCfg.Level = "warn"
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	conn, err := openFrame(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	page := host.NewPage(host.NewLocation(hash))
	el := host.NewFrameElement(cfg.Facade.FrameID, conn)
	page.Mount(el)

	scr := newScreen(cmd.OutOrStdout(), page.Location, el)
	ctrl := host.NewController(page, host.Options{
		FrameID:  cfg.Facade.FrameID,
		Logger:   logger.Component("host"),
		OnRender: scr.Render,
	})

	done := make(chan error, 1)
	go func() { done <- ctrl.Initialize(ctx, owner, basket) }()
	page.MarkReady()

	lines := readLines(ctx, cmd.InOrStdin())
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-done:
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "frame closed")
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := execute(ctx, line, ctrl, page.Location, scr)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%v\n", err)
			}
			if quit {
				return nil
			}
		}
	}
}

// openFrame returns the host end of a bridge to a running frame.
func openFrame(ctx context.Context, cfg *config.Config, logger *logging.Logger) (bridge.Conn, error) {
	jar, err := parseCookies(cookies)
	if err != nil {
		return nil, err
	}

	if remote != "" {
		header := http.Header{}
		for _, c := range jar {
			header.Add("Cookie", c.String())
		}
		conn, err := bridge.Dial(ctx, remote, header)
		if err != nil {
			return nil, err
		}
		logger.Debug("connected to remote frame", zap.String("url", remote))
		return conn, nil
	}

	api := httpclient.NewClient(httpclient.Options{
		BaseURL:   cfg.Repository.BaseURL,
		Timeout:   cfg.Repository.Timeout,
		RateLimit: cfg.Repository.RateLimit,
	})
	repo := repository.NewClient(api, cfg.Repository.CommitRef, logger.Component("repository"), nil).WithCookies(jar)

	hostEnd, frameEnd := bridge.Pipe()
	rt := frame.New(frameEnd, frame.Options{
		Readers: func(owner, basket string) repository.Reader {
			if cfg.Repository.PinRef {
				return repository.NewPinned(repo, owner, basket)
			}
			return repo
		},
		Layout: sandbox.DefaultLayout().WithLineHeight(cfg.Facade.LineHeight),
		Logger: logger.Component("frame"),
		Facade: facade.FactoryName,
	})
	go func() {
		if err := rt.Run(ctx); err != nil {
			logger.Warn("frame runtime stopped", zap.Error(err))
		}
	}()
	return hostEnd, nil
}

func parseCookies(values []string) ([]*http.Cookie, error) {
	var out []*http.Cookie
	for _, v := range values {
		parsed, err := http.ParseCookie(v)
		if err != nil {
			return nil, fmt.Errorf("cookie %q: %w", v, err)
		}
		out = append(out, parsed...)
	}
	return out, nil
}

func readLines(ctx context.Context, r io.Reader) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case out <- strings.TrimSpace(sc.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// execute runs one prompt command. It reports whether to quit.
func execute(ctx context.Context, line string, ctrl *host.Controller, loc *host.Location, scr *screen) (bool, error) {
	c, err := parseCommand(line)
	if err != nil {
		return false, err
	}
	switch c.kind {
	case cmdNone:
	case cmdQuit:
		return true, nil
	case cmdHelp:
		scr.Help()
	case cmdBack:
		if !loc.Back() {
			return false, errors.New("no history")
		}
	case cmdReload:
		return false, ctrl.Reload(ctx)
	case cmdGo:
		loc.SetHash(c.arg)
	case cmdClick:
		href, ok := scr.Link(c.n)
		if !ok {
			return false, fmt.Errorf("no link %d", c.n)
		}
		return false, ctrl.Click(ctx, href)
	}
	return false, nil
}
