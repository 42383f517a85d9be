// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Command chuckctl plays the handheld controller: it sends command datagrams
// to chuckd and prints the mode heartbeats that come back.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/chuck/internal/command"
	"github.com/ManuGH/chuck/internal/heartbeat"
)

const usage = `Usage: chuckctl [flags] command...

Commands:
  up down left right b1 b2 combo select select-long seq rev-seq
  poll         send a poll packet
  joy X Y      send a joystick move (-128..127 per axis)

Flags:
`

func main() {
	fs := flag.NewFlagSet("chuckctl", flag.ExitOnError)
	addr := fs.String("addr", "127.0.0.1:7110", "chuckd command address")
	wait := fs.Duration("wait", time.Second, "how long to listen for heartbeats after the last command")
	gap := fs.Duration("gap", 100*time.Millisecond, "pause between commands")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])

	cmds, err := parseCommands(fs.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "chuckctl: %v\n", err)
		fs.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *addr, cmds, *gap, *wait, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "chuckctl: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// parseCommands turns command-line words into commands. Action names accept
// hyphens in place of underscores.
func parseCommands(args []string) ([]command.Command, error) {
	if len(args) == 0 {
		return nil, errors.New("no commands given")
	}
	var cmds []command.Command
	for i := 0; i < len(args); i++ {
		word := strings.ToLower(args[i])
		switch word {
		case "poll":
			cmds = append(cmds, command.Command{Packet: command.PacketPoll})
		case "joy":
			if i+2 >= len(args) {
				return nil, errors.New("joy needs X and Y")
			}
			x, err := parseAxis(args[i+1])
			if err != nil {
				return nil, err
			}
			y, err := parseAxis(args[i+2])
			if err != nil {
				return nil, err
			}
			cmds = append(cmds, command.JoystickMove(x, y))
			i += 2
		default:
			a, err := command.ParseAction(strings.ReplaceAll(word, "-", "_"))
			if err != nil {
				return nil, err
			}
			cmds = append(cmds, command.UserAction(a))
		}
	}
	return cmds, nil
}

func parseAxis(s string) (int8, error) {
	v, err := strconv.ParseInt(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("joystick axis %q: %w", s, err)
	}
	return int8(v), nil
}

// run sends cmds to addr and copies every heartbeat received until wait has
// passed after the last send.
func run(ctx context.Context, addr string, cmds []command.Command, gap, wait time.Duration, out io.Writer) error {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return fmt.Errorf("open socket: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		buf := make([]byte, 64)
		for {
			n, from, err := conn.ReadFromUDP(buf)
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return nil
				}
				return fmt.Errorf("receive: %w", err)
			}
			m, err := heartbeat.ParsePayload(buf[:n])
			if err != nil {
				fmt.Fprintf(out, "%s: unexpected datagram % x\n", from, buf[:n])
				continue
			}
			fmt.Fprintf(out, "%s: mode %s (%d)\n", from, m, m.Code())
		}
	})
	g.Go(func() error {
		defer func() { _ = conn.Close() }()
		for i, c := range cmds {
			b, err := command.Encode(c)
			if err != nil {
				return err
			}
			if _, err := conn.WriteToUDP(b, raddr); err != nil {
				return fmt.Errorf("send %s: %w", c, err)
			}
			if i < len(cmds)-1 && !pause(ctx, gap) {
				return nil
			}
		}
		pause(ctx, wait)
		return nil
	})
	return g.Wait()
}

func pause(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
