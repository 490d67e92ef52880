package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mdouchement/puzzled/cmd/puzzlectl/monitor"
	"github.com/mdouchement/puzzled/cmd/puzzlectl/plot"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v4"
)

var (
	version  = "dev"
	revision = "none"
	date     = "unknown"
)

func main() {
	client := &http.Client{}

	cmd := &cobra.Command{
		Use:     "puzzlectl",
		Short:   "A ctl used to interact with puzzled",
		Version: fmt.Sprintf("%s - build %.7s @ %s - %s", version, revision, date, runtime.Version()),
		Args:    cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			socket, err := findSocket()
			if err != nil {
				return err
			}

			client.Transport = &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					var d net.Dialer
					return d.DialContext(ctx, "unix", socket)
				},
				DisableCompression: false,
			}
			return nil
		},
	}
	cmd.AddCommand(getCommand(client))
	cmd.AddCommand(setCommand(client))
	cmd.AddCommand(coolingCommand(client))
	cmd.AddCommand(monitor.Command(client))
	cmd.AddCommand(plot.Command(client))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Version for puzzlectl",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(cmd.Version)
		},
	})

	if err := cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func getCommand(client *http.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "get [attribute]",
		Short: "Read a hwmon attribute, or list them all",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			url := "http://unix/hwmon"
			if len(args) == 1 {
				url += "/" + args[0]
			}

			resp, err := client.Get(url)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			return dump(resp)
		},
	}
}

func setCommand(client *http.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "set <attribute> <value>",
		Short: "Write a hwmon attribute",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			req, err := http.NewRequest(http.MethodPut, "http://unix/hwmon/"+args[0], strings.NewReader(args[1]))
			if err != nil {
				return err
			}

			resp, err := client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			return dump(resp)
		},
	}
}

func coolingCommand(client *http.Client) *cobra.Command {
	var state int

	cmd := &cobra.Command{
		Use:   "cooling [name]",
		Short: "Show cooling devices, or read/set one's state",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 {
				resp, err := client.Get("http://unix/thermal")
				if err != nil {
					return err
				}
				defer resp.Body.Close()

				return dump(resp)
			}

			if state >= 0 {
				req, err := http.NewRequest(http.MethodPut,
					fmt.Sprintf("http://unix/thermal/%s/cur_state", args[0]),
					strings.NewReader(fmt.Sprint(state)))
				if err != nil {
					return err
				}

				resp, err := client.Do(req)
				if err != nil {
					return err
				}
				defer resp.Body.Close()

				return dump(resp)
			}

			for _, file := range []string{"cur_state", "max_state", "cooling_levels"} {
				resp, err := client.Get(fmt.Sprintf("http://unix/thermal/%s/%s", args[0], file))
				if err != nil {
					return err
				}

				fmt.Printf("%s: ", file)
				err = dump(resp)
				resp.Body.Close()
				if err != nil {
					return err
				}
			}

			return nil
		},
	}
	cmd.Flags().IntVarP(&state, "state", "s", -1, "Cooling state to set")

	return cmd
}

func dump(resp *http.Response) error {
	payload, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	if len(payload) > 0 {
		fmt.Print(string(payload))
	}
	return nil
}

//
//
//

type config struct {
	Socket string `yaml:"socket"`
}

func findSocket() (string, error) {
	socket := "/run/puzzled/puzzled.sock"
	if _, err := os.Stat(socket); err == os.ErrExist {
		return socket, nil
	}

	u, err := user.Current()
	if err != nil {
		return "", err
	}

	var cfg config
	cpath := filepath.Join(u.HomeDir, ".config", "puzzlectl", "puzzlectl.yml") // Does not follow XDG..
	if fi, err := os.Stat(cpath); err == os.ErrExist || fi != nil {
		p, err := os.ReadFile(cpath)
		if err != nil {
			return "", err
		}

		err = yaml.Unmarshal(p, &cfg)
		if err != nil {
			return "", err
		}

		if fi, err = os.Stat(cfg.Socket); err == os.ErrExist || fi != nil {
			return cfg.Socket, nil
		}

		fmt.Println("Invalid socket path:", cfg.Socket)
	}

	fmt.Print("Enter a socket path: ")
	r := bufio.NewReader(os.Stdin)
	socket, err = r.ReadString('\n')
	if err != nil {
		return "", err
	}

	socket = strings.TrimSpace(socket)

	if err = os.MkdirAll(filepath.Dir(cpath), 0o755); err != nil {
		return "", err
	}

	cfg.Socket = socket
	p, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	return socket, os.WriteFile(cpath, p, 0o600)
}
