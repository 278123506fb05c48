package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	httpapi "github.com/fyrsmithlabs/projectindex/internal/http"
	"github.com/fyrsmithlabs/projectindex/internal/project"
)

var (
	listCategory string
	listSearch   string
	listJSON     bool
	clearValue   bool
)

var (
	nameStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("51"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	freshnessStyles = map[project.Freshness]lipgloss.Style{
		project.Fresh:   lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
		project.Aging:   lipgloss.NewStyle().Foreground(lipgloss.Color("226")),
		project.Stale:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		project.Unknown: dimStyle,
	}
)

// healthCmd checks server health
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check projectindex server health",
	RunE:  runHealth,
}

// listCmd lists projects
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	Long: `List projects, optionally filtered by category and search term.

Examples:
  # Everything
  pidx list

  # Research projects mentioning "notes"
  pidx list --category research --search notes`,
	Args: cobra.NoArgs,
	RunE: runList,
}

// getCmd shows one project
var getCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Show one project as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

// setTitleCmd sets or clears a title
var setTitleCmd = &cobra.Command{
	Use:   "set-title <name> [title]",
	Short: "Set or clear a project's display title",
	Long: `Set a project's display title. Omit the title or pass an empty one to
clear it, so the dashboard shows the project name instead.

Examples:
  pidx set-title api-gateway "API Gateway"
  pidx set-title api-gateway`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSetTitle,
}

// setFieldCmd sets or clears any editable field
var setFieldCmd = &cobra.Command{
	Use:   "set-field <name> <field> [value]",
	Short: "Set or clear one field of a project",
	Long: `Set one field of a project record. Editable fields are title, purpose,
category, created, lastUpdated and url. Use --clear to store null in title
or url.

Examples:
  pidx set-field api-gateway purpose "Routes edge traffic"
  pidx set-field api-gateway url --clear`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runSetField,
}

// refreshCmd reloads the server's listing
var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Reload the server's listing from GitHub",
	Args:  cobra.NoArgs,
	RunE:  runRefresh,
}

func init() {
	listCmd.Flags().StringVar(&listCategory, "category", "", "only projects in this category")
	listCmd.Flags().StringVar(&listSearch, "search", "", "case-insensitive search over name, title, purpose and tags")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print the raw JSON response")
	setFieldCmd.Flags().BoolVar(&clearValue, "clear", false, "store null instead of a value")
}

func runHealth(cmd *cobra.Command, args []string) error {
	var resp httpapi.HealthResponse
	if err := call("GET", "/health", nil, &resp); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Server Status: %s\n", resp.Status)
	fmt.Fprintf(out, "Server URL: %s\n", serverURL)
	fmt.Fprintf(out, "Projects: %d\n", resp.Projects)
	fmt.Fprintf(out, "Updates Enabled: %t\n", resp.UpdatesEnabled)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	q := url.Values{}
	if listCategory != "" {
		q.Set("category", listCategory)
	}
	if listSearch != "" {
		q.Set("search", listSearch)
	}
	path := "/api/v1/projects"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp httpapi.ListResponse
	if err := call("GET", path, nil, &resp); err != nil {
		return err
	}
	if listJSON {
		return writeJSON(cmd.OutOrStdout(), resp)
	}
	renderList(cmd.OutOrStdout(), resp)
	return nil
}

func renderList(w io.Writer, resp httpapi.ListResponse) {
	for _, p := range resp.Projects {
		fmt.Fprintf(w, "%s  %s\n", nameStyle.Render(p.DisplayTitle), dimStyle.Render("("+p.Name+")"))
		fmt.Fprintf(w, "  %s\n", p.Purpose)

		age := "never"
		if p.DaysSinceUpdate != nil {
			age = fmt.Sprintf("%dd ago", *p.DaysSinceUpdate)
		}
		fmt.Fprintf(w, "  %s  updated %s\n", dimStyle.Render(p.Category), freshnessStyles[p.Freshness].Render(age))
		if p.URL != nil {
			fmt.Fprintf(w, "  %s\n", *p.URL)
		}
	}

	counts := make([]string, 0, len(resp.Categories))
	for _, c := range resp.Categories {
		counts = append(counts, fmt.Sprintf("%s %d", c, resp.Stats.ByCategory[c]))
	}
	fmt.Fprintf(w, "\n%d of %d projects", resp.Matched, resp.Stats.Total)
	if len(counts) > 0 {
		fmt.Fprintf(w, " %s", dimStyle.Render("("+strings.Join(counts, ", ")+")"))
	}
	fmt.Fprintln(w)
}

func runGet(cmd *cobra.Command, args []string) error {
	var resp httpapi.ProjectView
	if err := call("GET", projectPath(args[0]), nil, &resp); err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), resp)
}

func runSetTitle(cmd *cobra.Command, args []string) error {
	req := httpapi.UpdateTitleRequest{Name: args[0]}
	if len(args) == 2 {
		req.Title = &args[1]
	}

	var resp httpapi.UpdateTitleResponse
	if err := call("POST", "/api/v1/projects/update", req, &resp); err != nil {
		return err
	}
	if resp.Title == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared title of %s\n", args[0])
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Set title of %s to %q\n", args[0], *resp.Title)
	return nil
}

func runSetField(cmd *cobra.Command, args []string) error {
	name, field := args[0], args[1]

	var req httpapi.UpdateFieldRequest
	switch {
	case clearValue && len(args) == 3:
		return fmt.Errorf("--clear cannot be combined with a value")
	case clearValue:
	case len(args) == 3:
		req.Value = &args[2]
	default:
		return fmt.Errorf("a value or --clear is required")
	}

	var resp httpapi.UpdateFieldResponse
	if err := call("PUT", projectPath(name)+"/fields/"+url.PathEscape(field), req, &resp); err != nil {
		return err
	}
	if resp.Value == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s of %s\n", resp.Field, resp.Name)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s of %s to %q\n", resp.Field, resp.Name, *resp.Value)
	}
	if resp.Version != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Version: %s\n", resp.Version)
	}
	return nil
}

func runRefresh(cmd *cobra.Command, args []string) error {
	var resp httpapi.RefreshResponse
	if err := call("POST", "/api/v1/projects/refresh", nil, &resp); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d projects from %s\n", resp.Projects, resp.Source)
	if resp.RemoteError != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Remote read failed: %s\n", resp.RemoteError)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
