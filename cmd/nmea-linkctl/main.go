// Command nmea-linkctl is an interactive shell for a running nmea-link
// gateway. Pass a command as arguments to run it once and exit.
package main

import (
	"flag"
	"log"
	"time"

	"github.com/abiosoft/ishell"

	"nmea-link/internal/client"
)

func main() {
	var (
		addr       string
		outputJSON bool
		timeout    time.Duration
	)
	flag.StringVar(&addr, "addr", "192.168.4.1", "Gateway address (host[:port] or URL)")
	flag.BoolVar(&outputJSON, "json", false, "Print output in JSON.")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "Per-command timeout")
	flag.Parse()

	cli, err := client.New(addr)
	if err != nil {
		log.Fatalf("client init failed: %v", err)
	}
	x := &ctl{cli: cli, outputJSON: outputJSON, timeout: timeout}

	shell := ishell.New()
	shell.SetPrompt(addr + " > ")
	for _, c := range commands {
		shell.AddCmd(shellCmd(x, c))
	}

	if args := flag.Args(); len(args) > 0 {
		if err := shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	shell.Run()
}

func shellCmd(x *ctl, c command) *ishell.Cmd {
	return &ishell.Cmd{
		Name:    c.name,
		Aliases: c.aliases,
		Help:    c.help,
		Func: func(ctx *ishell.Context) {
			out, err := x.exec(append([]string{c.name}, ctx.Args...)...)
			if err != nil {
				ctx.Err(err)
				return
			}
			if out != "" {
				ctx.Println(out)
			}
		},
	}
}
