// scripts/stack_integration_check.go
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/mwiater/pythia/internal/appconfig"
	"github.com/mwiater/pythia/internal/corpusconfig"
	"github.com/mwiater/pythia/internal/database"
)

func main() {
	configPath := flag.String("config", appconfig.DefaultConfigPath, "Path to config JSON")
	corpusPath := flag.String("corpus-config", "", "Override path to the corpus config file")
	timeout := flag.Duration("timeout", 30*time.Second, "probe timeout")
	flag.Parse()

	cfg, err := appconfig.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	fmt.Printf("Config: %s\n\n", cfg.ConfigPath)

	if err := checkObjectStore(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "object store check failed: %v\n", err)
	}

	if err := checkContactQueue(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "contact queue check failed: %v\n", err)
	}

	if err := checkPlatform(ctx, cfg, *timeout); err != nil {
		fmt.Fprintf(os.Stderr, "platform check failed: %v\n", err)
	}

	if err := checkCorpusRecord(cfg, *corpusPath); err != nil {
		fmt.Fprintf(os.Stderr, "corpus record check failed: %v\n", err)
	}
}

func checkObjectStore(ctx context.Context, cfg appconfig.Config) error {
	fmt.Println("== object store ==")
	client, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
	})
	if err != nil {
		return err
	}

	exists, err := client.BucketExists(ctx, cfg.Storage.Bucket)
	if err != nil {
		return err
	}
	fmt.Printf("Endpoint: %s\n", cfg.Storage.Endpoint)
	fmt.Printf("Bucket %q exists: %v\n", cfg.Storage.Bucket, exists)
	if !exists {
		fmt.Println()
		return nil
	}

	count := 0
	for obj := range client.ListObjects(ctx, cfg.Storage.Bucket, minio.ListObjectsOptions{Prefix: cfg.Storage.Prefix, Recursive: true}) {
		if obj.Err != nil {
			return obj.Err
		}
		if count < 5 {
			fmt.Printf("  - %s (%d bytes)\n", obj.Key, obj.Size)
		}
		count++
	}
	fmt.Printf("Objects under prefix %q: %d\n\n", cfg.Storage.Prefix, count)
	return nil
}

func checkContactQueue(ctx context.Context, cfg appconfig.Config) error {
	fmt.Println("== contact queue ==")
	if !cfg.DatabaseEnabled() {
		fmt.Println("No database url configured; queueing is off.")
		fmt.Println()
		return nil
	}

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return err
	}

	var waiting, closed int
	err = pool.QueryRow(ctx,
		`SELECT COUNT(*) FILTER (WHERE status = $1), COUNT(*) FILTER (WHERE status = $2) FROM contact_queue`,
		database.StatusWaiting, database.StatusClosed,
	).Scan(&waiting, &closed)
	if err != nil {
		return err
	}
	fmt.Printf("Waiting contacts: %d\n", waiting)
	fmt.Printf("Closed contacts: %d\n\n", closed)
	return nil
}

func checkPlatform(ctx context.Context, cfg appconfig.Config, timeout time.Duration) error {
	fmt.Println("== platform ==")
	endpoint := strings.TrimSpace(cfg.Platform.Endpoint)
	if endpoint == "" {
		return fmt.Errorf("no platform endpoint configured")
	}

	client := &http.Client{Timeout: timeout}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(endpoint, "/")+"/v1", nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if err != nil {
		return err
	}
	fmt.Printf("Endpoint: %s\n", endpoint)
	fmt.Printf("Status: %s\n", resp.Status)
	if len(body) > 0 {
		fmt.Println("Raw:")
		fmt.Println(indentJSON(body))
	}
	fmt.Println()
	return nil
}

func checkCorpusRecord(cfg appconfig.Config, override string) error {
	fmt.Println("== corpus record ==")
	path := strings.TrimSpace(override)
	if path == "" {
		path = strings.TrimSpace(cfg.Serve.CorpusConfig)
	}
	if path == "" {
		fmt.Println("No corpus config path given; skipping.")
		fmt.Println()
		return nil
	}

	record, err := corpusconfig.Load(path)
	if err != nil {
		return err
	}
	fmt.Printf("Project: %s\n", record.ProjectID)
	fmt.Printf("Location: %s\n", record.Location)
	fmt.Printf("Corpus: %s\n", record.CorpusResourceName)
	fmt.Printf("Display name: %s\n", record.DisplayName)
	fmt.Printf("Source: %s\n\n", record.SourceURI)
	return nil
}

func indentJSON(body []byte) string {
	var out bytes.Buffer
	if err := json.Indent(&out, body, "", "  "); err != nil {
		return string(body)
	}
	return out.String()
}
