package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"c28pwm/host/mcu"
	"c28pwm/host/serial"
	"c28pwm/protocol"
	"github.com/google/shlex"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	consoleOpts struct {
		baud    int
		timeout time.Duration
	}

	consoleCmd = &cobra.Command{
		Use:   "console DEVICE",
		Short: "Interactive command console for a running controller",
		Long: `Connect to the controller on DEVICE, read its dictionary and send
commands typed by name, e.g.

  config_pwm 0 module=0 freq=20000 count_mode=up_down policy_a=force_low policy_b=force_low deadband=300 hires=0
  query_pwm 0

Arguments are positional or key=value and accept enumeration names.
"help" lists the commands, "dict" prints the dictionary, "listen 2s"
prints responses for a while and "quit" leaves.`,
		Args: cobra.ExactArgs(1),
		RunE: runConsole,
	}
)

func init() {
	f := consoleCmd.Flags()
	f.IntVar(&consoleOpts.baud, "baud", serial.DefaultBaud, "serial baud rate")
	f.DurationVar(&consoleOpts.timeout, "timeout", protocol.DefaultTimeout, "response timeout")
}

// device is the part of the controller link the console drives.
type device interface {
	Commands() []string
	Command(name string) (mcu.Message, error)
	Response(name string) (mcu.Message, error)
	ParseArgs(name string, fields []string) ([]uint32, error)
	Exchange(name string, args ...uint32) ([]protocol.Message, error)
	Decode(resp protocol.Message) (string, []uint32, error)
	Receive(timeout time.Duration) (protocol.Message, error)
	PrintDictionary(w io.Writer)
}

type lineReader interface {
	ReadLine() (string, error)
}

type scanReader struct {
	s *bufio.Scanner
}

func (r scanReader) ReadLine() (string, error) {
	if !r.s.Scan() {
		if err := r.s.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.s.Text(), nil
}

func runConsole(cmd *cobra.Command, args []string) error {
	cfg := serial.DefaultConfig(args[0])
	cfg.Baud = consoleOpts.baud
	m, err := mcu.Connect(cfg)
	if err != nil {
		return errors.Wrapf(err, "connect %s", args[0])
	}
	defer m.Close()
	m.Timeout = consoleOpts.timeout

	var in lineReader = scanReader{bufio.NewScanner(os.Stdin)}
	out := cmd.OutOrStdout()

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		old, err := term.MakeRaw(fd)
		if err != nil {
			return errors.Wrap(err, "raw mode")
		}
		defer term.Restore(fd, old)
		t := term.NewTerminal(struct {
			io.Reader
			io.Writer
		}{os.Stdin, os.Stdout}, "pwm> ")
		in, out = t, t
	}

	fmt.Fprintf(out, "connected to %s (%s), %d commands\n",
		args[0], m.Dictionary().Version, len(m.Commands()))
	c := &console{dev: m, out: out}
	for {
		line, err := in.ReadLine()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		quit, err := c.exec(line)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

type console struct {
	dev device
	out io.Writer
}

// exec runs one console line and reports whether the console should
// exit.
func (c *console) exec(line string) (bool, error) {
	fields, err := shlex.Split(line)
	if err != nil {
		return false, err
	}
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return false, nil
	}

	switch name := fields[0]; name {
	case "quit", "exit":
		return true, nil
	case "help":
		for _, n := range c.dev.Commands() {
			msg, _ := c.dev.Command(n)
			fmt.Fprintf(c.out, "  %s %s\n", n, strings.Join(msg.Params, " "))
		}
	case "dict":
		c.dev.PrintDictionary(c.out)
	case "listen":
		d := time.Second
		if len(fields) > 1 {
			if d, err = time.ParseDuration(fields[1]); err != nil {
				return false, err
			}
		}
		c.listen(d)
	default:
		args, err := c.dev.ParseArgs(name, fields[1:])
		if err != nil {
			return false, err
		}
		msgs, err := c.dev.Exchange(name, args...)
		if err != nil {
			return false, err
		}
		for _, msg := range msgs {
			c.print(msg)
		}
	}
	return false, nil
}

func (c *console) listen(d time.Duration) {
	deadline := time.Now().Add(d)
	for {
		left := time.Until(deadline)
		if left <= 0 {
			return
		}
		msg, err := c.dev.Receive(left)
		if err != nil {
			return
		}
		c.print(msg)
	}
}

func (c *console) print(msg protocol.Message) {
	name, args, err := c.dev.Decode(msg)
	if err != nil {
		fmt.Fprintf(c.out, "undecodable response: %v\n", err)
		return
	}
	resp, _ := c.dev.Response(name)
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, name)
	for i, v := range args {
		if i < len(resp.Params) {
			parts = append(parts, fmt.Sprintf("%s=%d", resp.Params[i], v))
		} else {
			parts = append(parts, fmt.Sprint(v))
		}
	}
	fmt.Fprintln(c.out, strings.Join(parts, " "))
}
