package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/traceforce/mcp-profiler/internal/agent"
	"github.com/traceforce/mcp-profiler/internal/config"
	"github.com/traceforce/mcp-profiler/internal/github"
	"github.com/traceforce/mcp-profiler/internal/llm"
	"github.com/traceforce/mcp-profiler/internal/metadata"
	"github.com/traceforce/mcp-profiler/internal/report"
	"github.com/traceforce/mcp-profiler/internal/scanner"
)

var rootCmd = &cobra.Command{
	Use:     metadata.Name,
	Short:   "mcp-profiler - Scan GitHub repositories hosting MCP servers for security issues",
	Long:    `Scans a GitHub repository for security issues by driving an LLM agent over MCP tool servers and aggregating its findings with static heuristic checks into a unified report.`,
	Version: metadata.Version,
}

func fatal(format string, args ...any) {
	color.New(color.FgRed).Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configure the GitHub token for API access",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			token, _ := cmd.Flags().GetString("token")

			store, err := config.NewStore()
			if err != nil {
				fatal("Error: %v", err)
			}

			fmt.Print("Validating token...")
			client := github.NewClient(token)
			if !client.ValidateToken(cmd.Context()) {
				fmt.Println(" failed")
				fatal("Error: Invalid GitHub token")
			}
			fmt.Println(" ok")

			if err := store.SaveToken(token); err != nil {
				fatal("Error saving token: %v", err)
			}
			color.Green("GitHub token configured successfully!")
			fmt.Printf("Configuration saved to: %s\n", store.Path())
		},
	}
	cmd.Flags().String("token", "", "GitHub personal access token (required)")
	cmd.MarkFlagRequired("token")
	return cmd
}

func NewScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <owner/repo | URL>",
		Short: "Scan a GitHub repository for security issues",
		Long: `Scan a GitHub repository for security issues.

The repository can be given as owner/repo or as a full URL
(https://github.com/owner/repo).`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			formats, _ := cmd.Flags().GetStringArray("format")
			outputDir, _ := cmd.Flags().GetString("output-dir")
			model, _ := cmd.Flags().GetString("llm-model")
			serversFile, _ := cmd.Flags().GetString("servers")
			verbose, _ := cmd.Flags().GetBool("verbose")

			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
			for i, f := range formats {
				formats[i] = strings.ToLower(f)
				if formats[i] != report.FormatJSON && formats[i] != report.FormatMarkdown {
					fatal("Error: unsupported format %q (expected json or markdown)", f)
				}
			}

			store, err := config.NewStore()
			if err != nil {
				fatal("Error: %v", err)
			}
			if !store.IsConfigured() {
				fatal("Error: GitHub token not configured. Run '%s config' first.", metadata.Name)
			}

			ctx := cmd.Context()
			client := github.NewClient(store.Token())

			owner, name, err := github.ParseRepoRef(args[0])
			if err != nil {
				fatal("Error: %v", err)
			}
			fmt.Printf("Repository: %s/%s\n", owner, name)

			fmt.Print("Fetching repository information...")
			repoInfo, err := client.RepoInfo(ctx, owner, name)
			if err != nil {
				fmt.Println(" failed")
				fatal("Error: %v", err)
			}
			fmt.Println(" ok")
			fmt.Printf("   Description: %s\n", orNA(repoInfo.Description))
			fmt.Printf("   Language: %s\n", orNA(repoInfo.Language))
			fmt.Printf("   Stars: %d\n", repoInfo.Stars)

			fmt.Print("Cloning repository...")
			repoPath, err := client.Clone(ctx, owner, name)
			if err != nil {
				fmt.Println(" failed")
				fatal("Error cloning repository: %v", err)
			}
			fmt.Println(" ok")
			fmt.Printf("   Cloned to: %s\n", repoPath)

			fmt.Println("\nStarting security scan...")
			sc := scanner.New(repoPath, repoInfo, buildInvoker(model, serversFile))
			scanReport := sc.Scan(ctx)
			fmt.Println("Scan completed")

			printSummary(scanReport.Summary)

			fmt.Println("\nGenerating reports...")
			files, err := report.Render(scanReport, formats, outputDir)
			if err != nil {
				github.Cleanup(repoPath)
				fatal("Error generating reports: %v", err)
			}
			fmt.Println("Reports generated:")
			for format, path := range files {
				fmt.Printf("   %s: %s\n", strings.ToUpper(format), path)
			}

			fmt.Println("\nCleaning up...")
			github.Cleanup(repoPath)

			color.New(color.FgGreen, color.Bold).Println("\nScan complete!")
		},
	}
	cmd.Flags().StringArrayP("format", "f", []string{report.FormatJSON, report.FormatMarkdown}, "Report format(s) to generate: json, markdown (can be specified multiple times)")
	cmd.Flags().StringP("output-dir", "o", "./scan-results", "Output directory for reports")
	cmd.Flags().String("llm-model", "gpt-5-mini", "LLM model driving the scan agent")
	cmd.Flags().String("servers", "", "YAML file overriding the default MCP tool servers")
	cmd.Flags().BoolP("verbose", "v", false, "Enable debug logging")
	return cmd
}

// buildInvoker assembles the agent invoker. Setup failures are deferred into
// the invocation itself so they degrade to the scan-error sentinel finding
// instead of aborting the scan.
func buildInvoker(model, serversFile string) scanner.AgentInvoker {
	servers := agent.DefaultServers()
	if serversFile != "" {
		loaded, err := agent.LoadServersFile(serversFile)
		if err != nil {
			return failingInvoker{err}
		}
		servers = loaded
	}

	client, err := llm.NewClientFromEnv(model)
	if err != nil {
		return failingInvoker{err}
	}
	return agent.NewInvoker(client, servers)
}

// failingInvoker surfaces a setup error at invocation time.
type failingInvoker struct {
	err error
}

func (f failingInvoker) Invoke(context.Context, string) (*agent.Report, error) {
	return nil, f.err
}

func printSummary(summary report.Summary) {
	fmt.Println("\nScan Summary:")
	fmt.Printf("   Total findings: %d\n", summary.TotalFindings)
	if summary.Critical > 0 {
		color.New(color.FgRed, color.Bold).Printf("   Critical: %d\n", summary.Critical)
	}
	if summary.High > 0 {
		color.Red("   High: %d", summary.High)
	}
	if summary.Medium > 0 {
		color.Yellow("   Medium: %d", summary.Medium)
	}
	if summary.Low > 0 {
		color.Blue("   Low: %d", summary.Low)
	}
	if summary.Info > 0 {
		fmt.Printf("   Info: %d\n", summary.Info)
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func init() {
	logrus.SetLevel(logrus.WarnLevel)
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewScanCommand())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
