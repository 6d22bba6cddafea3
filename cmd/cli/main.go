package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	serverURL    string
	serverConfig string
	noAutoStart  bool
	rootCmd      = &cobra.Command{
		Use:           "vidfetch",
		Short:         "vidfetch CLI - download videos through a vidfetch server",
		Long:          `A command-line client for the vidfetch server: pick a quality preset, download a video and save the file locally.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	success = color.New(color.FgGreen).SprintFunc()
	failure = color.New(color.FgRed, color.Bold).SprintFunc()
	faint   = color.New(color.Faint).SprintFunc()
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8501", "Server URL")
	rootCmd.PersistentFlags().StringVar(&serverConfig, "server-config", "", "Config file passed to an auto-started server")
	rootCmd.PersistentFlags().BoolVar(&noAutoStart, "no-auto-start", false, "Don't auto-start server if not running")

	getCmd.Flags().StringP("quality", "q", "", "Quality preset (see 'vidfetch qualities'; default: server default)")
	getCmd.Flags().StringP("output", "o", ".", "Directory to save the file into")

	rootCmd.AddCommand(qualitiesCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(healthCmd)
}

// ensureServer checks if server is running and starts it if needed (unless --no-auto-start)
func ensureServer(client *Client) {
	if noAutoStart {
		return
	}
	if err := ensureServerRunning(client); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

var qualitiesCmd = &cobra.Command{
	Use:   "qualities",
	Short: "List the quality presets the server accepts",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient(serverURL)
		ensureServer(client)

		list, err := client.Qualities()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		for _, q := range list.Qualities {
			marker := ""
			if q == list.Default {
				marker = "(default)"
			}
			fmt.Fprintf(w, "%s\t%s\n", q, marker)
		}
		w.Flush()

		if !list.HasTranscoder {
			fmt.Fprintln(cmd.OutOrStdout(), faint("ffmpeg is not available on the server: single-file formats only"))
		}
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get [url]",
	Short: "Download a video and save the file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient(serverURL)
		ensureServer(client)

		quality, _ := cmd.Flags().GetString("quality")
		outputDir, _ := cmd.Flags().GetString("output")

		fmt.Fprintf(cmd.OutOrStdout(), "Downloading %s ...\n", args[0])
		download, err := client.CreateDownload(args[0], quality)
		if err != nil {
			return err
		}

		path, err := client.SaveFile(download, outputDir)
		if err != nil {
			return fmt.Errorf("download succeeded on the server (%s) but retrieval failed: %w", download.FilePath, err)
		}

		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", success("Downloaded:"), download.Title)
		fmt.Fprintf(cmd.OutOrStdout(), "  Saved:    %s\n", path)
		fmt.Fprintf(cmd.OutOrStdout(), "  Size:     %d bytes\n", download.SizeBytes)
		if download.DurationSeconds > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "  Duration: %ds\n", download.DurationSeconds)
		}
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show server status",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient(serverURL)
		health, err := client.Health()
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Status:     %s\n", success(health.Status))
		fmt.Fprintf(cmd.OutOrStdout(), "Version:    %s\n", health.Version)
		fmt.Fprintf(cmd.OutOrStdout(), "Backend:    %s\n", health.Backend)
		fmt.Fprintf(cmd.OutOrStdout(), "Transcoder: %t\n", health.HasTranscoder)
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", failure("Error:"), err)
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Hint != "" {
			fmt.Fprintf(os.Stderr, "%s\n", faint(apiErr.Hint))
		}
		os.Exit(1)
	}
}
