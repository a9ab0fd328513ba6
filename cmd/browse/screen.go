package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/GriffinCanCode/basket-facade/internal/host"
)

// screen prints frame snapshots as numbered text.
type screen struct {
	out io.Writer
	loc *host.Location
	el  *host.FrameElement

	mu    sync.Mutex
	links []string
}

func newScreen(out io.Writer, loc *host.Location, el *host.FrameElement) *screen {
	return &screen{out: out, loc: loc, el: el}
}

// Render is the controller's OnRender hook.
func (s *screen) Render(body string, _ uint64) {
	text, links, err := layout(body)
	if err != nil {
		text = body
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.links = links
	fmt.Fprintf(s.out, "\n-- %s -- %s\n%s\n> ", displayHash(s.loc.Hash()), s.el.Style(), text)
}

// Link returns the href of the numbered link in the last render.
func (s *screen) Link(n int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 1 || n > len(s.links) {
		return "", false
	}
	return s.links[n-1], true
}

func (s *screen) Help() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprint(s.out, "commands: <n> follow link, g <path> go, b back, r reload, q quit\n> ")
}

func displayHash(h string) string {
	if h == "" {
		return "#"
	}
	return h
}

// layout turns a body snapshot into terminal lines with numbered links.
func layout(body string) (string, []string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", nil, err
	}

	var links []string
	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		links = append(links, a.AttrOr("href", ""))
		a.SetText(fmt.Sprintf("[%d] %s", len(links), a.Text()))
	})

	var lines []string
	doc.Find("body").Children().Each(func(_ int, block *goquery.Selection) {
		switch {
		case block.Is("ul"):
			block.Find("li").Each(func(_ int, li *goquery.Selection) {
				lines = append(lines, "  "+strings.TrimSpace(li.Text()))
			})
		case block.Is("pre"):
			lines = append(lines, strings.TrimRight(block.Text(), "\n"))
		case block.HasClass("error"):
			block.Children().Each(func(_ int, part *goquery.Selection) {
				lines = append(lines, "! "+strings.TrimSpace(part.Text()))
			})
		default:
			if t := strings.TrimSpace(block.Text()); t != "" {
				lines = append(lines, t)
			}
		}
	})
	if len(lines) == 0 {
		// Bare text such as the loading placeholder.
		lines = append(lines, strings.TrimSpace(doc.Text()))
	}
	return strings.Join(lines, "\n"), links, nil
}

type commandKind int

const (
	cmdNone commandKind = iota
	cmdClick
	cmdGo
	cmdBack
	cmdReload
	cmdQuit
	cmdHelp
)

type command struct {
	kind commandKind
	n    int
	arg  string
}

func parseCommand(line string) (command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return command{kind: cmdNone}, nil
	}
	if n, err := strconv.Atoi(line); err == nil {
		return command{kind: cmdClick, n: n}, nil
	}

	verb, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	switch verb {
	case "g", "go":
		return command{kind: cmdGo, arg: rest}, nil
	case "b", "back":
		return command{kind: cmdBack}, nil
	case "r", "reload":
		return command{kind: cmdReload}, nil
	case "q", "quit", "exit":
		return command{kind: cmdQuit}, nil
	case "h", "help", "?":
		return command{kind: cmdHelp}, nil
	}
	return command{}, fmt.Errorf("unknown command %q (h for help)", verb)
}
