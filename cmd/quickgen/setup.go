package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
)

// serverName is the key quickgen registers under in agent configs.
const serverName = "quickgen"

// agent describes one MCP client that quickgen can register with, either by
// running its CLI or by editing its JSON config.
type agent struct {
	id    string
	label string

	// binary is set for agents configured through `<binary> mcp add`.
	binary string

	// markers are project directories whose presence means the agent is used
	// here. An agent without markers is detected by its config directory.
	markers    []string
	configFile func() string
	serversKey string
	extra      map[string]any
}

var agents = []agent{
	{id: "claude_cli", label: "claude CLI", binary: "claude"},
	{id: "codex_cli", label: "codex CLI", binary: "codex"},
	{
		id: "vscode", label: "VS Code",
		markers:    []string{".vscode"},
		configFile: func() string { return filepath.Join(".vscode", "mcp.json") },
		serversKey: "servers",
		extra:      map[string]any{"type": "stdio"},
	},
	{
		id: "cursor", label: "Cursor",
		markers:    []string{".cursor"},
		configFile: func() string { return filepath.Join(".cursor", "mcp.json") },
		serversKey: "mcpServers",
	},
	{
		id: "claude_desktop", label: "Claude Desktop",
		configFile: desktopConfigFile,
		serversKey: "mcpServers",
	},
}

func desktopConfigFile() string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Claude", "claude_desktop_config.json")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Claude", "claude_desktop_config.json")
	default:
		return filepath.Join(home, ".config", "Claude", "claude_desktop_config.json")
	}
}

// system is the slice of the OS that detection and registration touch.
type system struct {
	lookPath func(string) (string, error)
	stat     func(string) (os.FileInfo, error)
	run      func(name string, args ...string) error
}

func hostSystem(stdout, stderr io.Writer) system {
	return system{
		lookPath: exec.LookPath,
		stat:     os.Stat,
		run: func(name string, args ...string) error {
			cmd := exec.Command(name, args...)
			cmd.Stdout = stdout
			cmd.Stderr = stderr
			return cmd.Run()
		},
	}
}

type detected struct {
	agent      agent
	configFile string // empty for CLI agents
	registered bool
}

func detectAgents(sys system) []detected {
	var found []detected
	for _, a := range agents {
		if a.binary != "" {
			if _, err := sys.lookPath(a.binary); err == nil {
				found = append(found, detected{agent: a, registered: hasServer(".mcp.json", "mcpServers")})
			}
			continue
		}

		path := a.configFile()
		present := false
		if len(a.markers) == 0 {
			_, err := sys.stat(filepath.Dir(path))
			present = err == nil
		}
		for _, m := range a.markers {
			if _, err := sys.stat(m); err == nil {
				present = true
				break
			}
		}
		if present {
			found = append(found, detected{agent: a, configFile: path, registered: hasServer(path, a.serversKey)})
		}
	}
	return found
}

func hasServer(path, serversKey string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var doc map[string]any
	if json.Unmarshal(data, &doc) != nil {
		return false
	}
	servers, _ := doc[serversKey].(map[string]any)
	_, ok := servers[serverName]
	return ok
}

// addServer returns existing with a quickgen entry added under serversKey.
// It returns nil when the entry is already there.
func addServer(existing []byte, serversKey string, extra map[string]any) ([]byte, error) {
	doc := map[string]any{}
	if len(strings.TrimSpace(string(existing))) > 0 {
		if err := json.Unmarshal(existing, &doc); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	}

	servers, ok := doc[serversKey].(map[string]any)
	if !ok {
		servers = map[string]any{}
	}
	if _, ok := servers[serverName]; ok {
		return nil, nil
	}

	entry := map[string]any{"command": "quickgen", "args": []any{"serve", "--watch"}}
	for k, v := range extra {
		entry[k] = v
	}
	servers[serverName] = entry
	doc[serversKey] = servers

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

func registerInFile(a agent, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	out, err := addServer(existing, a.serversKey, a.extra)
	if err != nil || out == nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

func registerWithCLI(sys system, a agent, scope string) error {
	args := []string{"mcp", "add"}
	if scope != "" {
		args = append(args, "--scope", scope)
	}
	args = append(args, serverName, "--", "quickgen", "serve", "--watch")
	return sys.run(a.binary, args...)
}

// confirm asks a yes/no question. Empty input and EOF mean yes.
func confirm(in *bufio.Scanner, w io.Writer, question string) bool {
	fmt.Fprintf(w, "%s [Y/n] ", question)
	if !in.Scan() {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(in.Text())) {
	case "", "y", "yes":
		return true
	}
	return false
}

// chooseScope asks where a CLI agent should store the entry. It returns
// "project", "user" or "" to skip.
func chooseScope(in *bufio.Scanner, w io.Writer, label string) string {
	fmt.Fprintf(w, "\n%s: register the quickgen MCP server?\n", label)
	fmt.Fprintln(w, "  [1] project scope (shared through the repository)")
	fmt.Fprintln(w, "  [2] user scope")
	fmt.Fprintln(w, "  [3] skip")
	fmt.Fprint(w, "  > ")
	if !in.Scan() {
		return "project"
	}
	switch strings.TrimSpace(in.Text()) {
	case "", "1":
		return "project"
	case "2":
		return "user"
	}
	return ""
}

// runSetup detects agents and registers quickgen with each one that does
// not have it yet. With auto set nothing is asked.
func runSetup(sys system, r io.Reader, w io.Writer, auto bool) {
	found := detectAgents(sys)
	if len(found) == 0 {
		fmt.Fprintln(w, "No supported MCP clients detected.")
		return
	}

	fmt.Fprintln(w, "Detected MCP clients:")
	for _, d := range found {
		note := ""
		if d.registered {
			note = " (already registered)"
		}
		fmt.Fprintf(w, "  * %s%s\n", d.agent.label, note)
	}

	in := bufio.NewScanner(r)
	if !auto && !confirm(in, w, "\nRegister quickgen?") {
		return
	}

	for _, d := range found {
		if d.registered {
			continue
		}
		var err error
		where := d.configFile
		switch {
		case d.agent.binary != "":
			scope := "project"
			if !auto {
				scope = chooseScope(in, w, d.agent.label)
			}
			if scope == "" {
				fmt.Fprintln(w, "  skipped")
				continue
			}
			where = scope + " scope"
			err = registerWithCLI(sys, d.agent, scope)
		default:
			if !auto && !confirm(in, w, fmt.Sprintf("\n%s: add to %s?", d.agent.label, d.configFile)) {
				fmt.Fprintln(w, "  skipped")
				continue
			}
			err = registerInFile(d.agent, d.configFile)
		}
		if err != nil {
			fmt.Fprintf(w, "  ! %s: %v\n", d.agent.label, err)
			continue
		}
		fmt.Fprintf(w, "  + %s registered (%s)\n", d.agent.label, where)
	}
}

func (a *app) newSetupCmd() *cobra.Command {
	var auto bool
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Register the quickgen MCP server with installed agents",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			runSetup(hostSystem(a.stdout, a.stderr), a.stdin, a.stdout, auto)
		},
	}
	cmd.Flags().BoolVar(&auto, "auto", false, "register with every detected agent without asking")
	return cmd
}
