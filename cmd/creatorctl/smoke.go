package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/agenthands/creatorgraph/internal/core/model"
)

var (
	errSLOExceeded = errors.New("latency SLO exceeded")
	errNoHits      = errors.New("search returned no hits")
)

type smokeReport struct {
	Status  int           `json:"status"`
	Hits    int           `json:"hits"`
	Latency time.Duration `json:"latency_ns"`
	SLO     time.Duration `json:"slo_ns"`
}

func newSmokeCommand() *cobra.Command {
	var baseURL string
	var query string
	var slo time.Duration

	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Search a running server and check latency and hits",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := &http.Client{Timeout: 10 * time.Second}
			report, err := runSmoke(cmd.Context(), client, baseURL, query, slo)
			if werr := writeJSON(cmd, report); werr != nil {
				return werr
			}
			return err
		},
	}
	cmd.Flags().StringVar(&baseURL, "url", "http://localhost:8080", "Server base URL")
	cmd.Flags().StringVar(&query, "query", "tech reviewers", "Query to issue")
	cmd.Flags().DurationVar(&slo, "slo", 500*time.Millisecond, "Maximum acceptable latency")
	return cmd
}

func runSmoke(ctx context.Context, client *http.Client, baseURL, query string, slo time.Duration) (smokeReport, error) {
	report := smokeReport{SLO: slo}

	body, err := json.Marshal(model.SearchRequest{Query: query})
	if err != nil {
		return report, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(baseURL, "/")+"/search", bytes.NewReader(body))
	if err != nil {
		return report, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := client.Do(req)
	report.Latency = time.Since(start)
	if err != nil {
		return report, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()
	report.Status = resp.StatusCode

	if resp.StatusCode != http.StatusOK {
		return report, fmt.Errorf("search returned status %d", resp.StatusCode)
	}
	var out struct {
		Results []model.RankedCandidate `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return report, fmt.Errorf("decode search response: %w", err)
	}
	report.Hits = len(out.Results)

	if report.Latency > slo {
		return report, fmt.Errorf("%w: %s > %s", errSLOExceeded, report.Latency, slo)
	}
	if report.Hits == 0 {
		return report, errNoHits
	}
	return report, nil
}
