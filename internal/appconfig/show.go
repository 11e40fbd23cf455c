package appconfig

import (
	"fmt"
	"io"
	"strings"
)

// ShowConfig prints the current configuration summary. Secret material is
// masked so the output is safe to paste into an issue.
func ShowConfig(out io.Writer, file string, cfg *Config) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}

	if cfg == nil {
		cfg = &Config{}
	}

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Debug:              %v\n", cfg.Debug)
	fmt.Fprintf(out, "  Log File:           %s\n", cfg.LogFilePath())
	fmt.Fprintf(out, "  Platform Endpoint:  %s\n", cfg.Platform.Endpoint)
	fmt.Fprintf(out, "  Platform Location:  %s\n", cfg.PlatformLocation())
	fmt.Fprintf(out, "  Generation Model:   %s\n", cfg.GenerationModel())
	fmt.Fprintf(out, "  Embedding Model:    %s\n", cfg.EmbeddingModel())
	fmt.Fprintf(out, "  Request Timeout:    %s\n", cfg.RequestTimeout())
	fmt.Fprintf(out, "  Retrieval Top K:    %d\n", cfg.TopK())
	fmt.Fprintf(out, "  Distance Threshold: %.2f\n", cfg.VectorDistanceThreshold())
	fmt.Fprintf(out, "  Chunk Size:         %d\n", cfg.ChunkSize())
	fmt.Fprintf(out, "  Chunk Overlap:      %d\n", cfg.ChunkOverlap())
	fmt.Fprintf(out, "  Storage Endpoint:   %s\n", cfg.Storage.Endpoint)
	fmt.Fprintf(out, "  Storage Bucket:     %s\n", cfg.Storage.Bucket)
	fmt.Fprintf(out, "  Storage Access Key: %s\n", maskSecret(cfg.Storage.AccessKey))
	fmt.Fprintf(out, "  Database:           %s\n", enabledLabel(cfg.DatabaseEnabled()))
	fmt.Fprintf(out, "  Observability:      %s\n", enabledLabel(cfg.ObservabilityEnabled()))
	fmt.Fprintf(out, "  Mailer:             %s\n", enabledLabel(cfg.MailerEnabled()))
	fmt.Fprintf(out, "  Serve Address:      %s\n", cfg.ServeAddress())
}

func maskSecret(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(unset)"
	}
	return strings.Repeat("*", 8)
}

func enabledLabel(on bool) string {
	if on {
		return "enabled"
	}
	return "disabled"
}
