package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rebelscc/pavilion/internal/ingest/cricclubs"
	"github.com/spf13/cobra"
)

var (
	flagBaseURL string
	flagTeamID  string
	flagClubID  string
	flagJSON    bool
	flagServer  string
	flagForce   bool
)

func main() {
	root := &cobra.Command{
		Use:   "clubctl",
		Short: "Maintenance tool for the pavilion roster service",
	}

	preview := &cobra.Command{
		Use:   "preview",
		Short: "Fetch the CricClubs team page and print the extracted roster",
		Long: `Fetches the club's team page, runs the extractor, and prints the
result without touching the database. Useful for verifying the parser
against the live page.`,
		RunE: runPreview,
	}
	preview.Flags().StringVar(&flagBaseURL, "base-url", cricclubs.DefaultBaseURL, "CricClubs league base URL")
	preview.Flags().StringVar(&flagTeamID, "team-id", "4371", "CricClubs team ID")
	preview.Flags().StringVar(&flagClubID, "club-id", "1809", "CricClubs club ID")
	preview.Flags().BoolVar(&flagJSON, "json", false, "Output as JSON")

	sync := &cobra.Command{
		Use:   "sync",
		Short: "Trigger a sync on a running pavilion server",
		RunE:  runSync,
	}
	sync.Flags().StringVar(&flagServer, "server", "http://localhost:8080", "Pavilion server base URL")
	sync.Flags().BoolVar(&flagForce, "force", false, "Bypass the TTL check (rate limited)")

	root.AddCommand(preview, sync)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runPreview(cmd *cobra.Command, args []string) error {
	cfg := cricclubs.DefaultConfig()
	cfg.BaseURL = flagBaseURL
	cfg.TeamID = flagTeamID
	cfg.ClubID = flagClubID

	client := cricclubs.NewClient(cfg)
	fmt.Fprintf(os.Stderr, "Fetching %s\n", client.TeamPageURL())

	ctx, cancel := context.WithTimeout(context.Background(), cricclubs.FetchTimeout)
	defer cancel()

	html, err := client.FetchTeamPage(ctx)
	if err != nil {
		return err
	}

	players, err := cricclubs.ExtractPlayers(html, cfg)
	if err != nil {
		return err
	}
	team := cricclubs.ExtractTeamInfo(html, cfg)

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"team":    team,
			"players": players,
		})
	}

	fmt.Printf("%s (%s, %s)\n", team.Name, team.LeagueName, team.Division)
	fmt.Printf("Captain: %s  Vice Captain: %s  Players: %d\n\n", team.Captain, team.ViceCaptain, team.PlayerCount)
	for _, p := range players {
		marker := ""
		if p.IsCaptain {
			marker = " (C)"
		} else if p.IsViceCaptain {
			marker = " (VC)"
		}
		fmt.Printf("  %-8s %s%s - %s\n", p.PlayerID, p.Name, marker, p.Role)
	}
	fmt.Printf("\n%d players extracted\n", len(players))

	return nil
}

func runSync(cmd *cobra.Command, args []string) error {
	url := fmt.Sprintf("%s/api/v1/sync?force=%t", flagServer, flagForce)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Post(url, "application/json", nil)
	if err != nil {
		return fmt.Errorf("calling sync endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	fmt.Printf("%s\n%s\n", resp.Status, body)

	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
	return nil
}
