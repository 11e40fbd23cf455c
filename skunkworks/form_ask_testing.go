package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/k0kubun/pp"
	"github.com/mwiater/pythia/internal/appconfig"
)

// --- Configuration ---

// Set the number of times to loop through the entire question list.
const interactionCount = 5

// Set the number of parallel form requests.
const workerCount = 4

// Set the output filename for the final JSON report.
const outputReportFile = "skunkworks/reports/form_ask_report.json"

// Set the raw response capture file.
const responsesFile = "skunkworks/responses/form_ask_responses.jsonl"

// Set the log file path
const logFilePath = "skunkworks/logs/form_tester.log"

// Set the questions to be asked. Grounded ones should come back with
// passages; the last one probes the do-not-know path.
var askQuestions = []string{
	"What is covered under vision benefits?",
	"How often can I get an annual eye exam?",
	"Are contact lenses covered by my plan?",
	//"Does my plan include dental cleanings?",
	//"What is the copay for a specialist visit?",
	"What is the airspeed velocity of an unladen swallow?",
}

// --- Structs for Parsing ---

// askResponse mirrors the JSON the form's ask endpoint returns.
type askResponse struct {
	Query        string `json:"query"`
	Answer       string `json:"answer"`
	PassageCount int    `json:"passage_count"`
	RetrievalMs  int64  `json:"retrieval_ms"`
}

// --- Job/Worker Pool Structs ---

type job struct {
	question string
}

type result struct {
	question     string
	success      bool
	status       int
	passageCount int
	elapsed      time.Duration
	rawResponse  json.RawMessage
	err          error
}

type questionStats struct {
	Attempts  int   `json:"attempts"`
	Successes int   `json:"successes"`
	Grounded  int   `json:"grounded"`
	TotalMs   int64 `json:"totalMs"`
}

// --- Main Application ---

var successfulResult = color.New(color.FgGreen).SprintFunc()
var failedResult = color.New(color.FgRed).SprintFunc()

func main() {
	loadedCfg, err := appconfig.Load("")
	if err != nil {
		fmt.Printf("failed to load config, using the default address: %v\n", err)
		loadedCfg = appconfig.Config{}
	}

	baseURL := baseURLFromAddress(loadedCfg.ServeAddress())

	// Ensure log directory exists before opening file
	logDir := getDir(logFilePath)
	if logDir != "." {
		if err := os.MkdirAll(logDir, 0755); err != nil {
			log.Fatalf("Failed to create log directory: %v", err)
		}
	}

	// Use a file for logging as well as stdout
	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer logFile.Close()

	// Set log output to be multi-writer: stdout and the file
	mw := io.MultiWriter(os.Stdout, logFile)
	log.SetOutput(mw)

	respFile, err := createCaptureFile(responsesFile)
	if err != nil {
		log.Fatalf("Failed to create response capture file: %v", err)
	}
	defer respFile.Close()

	client := &http.Client{Timeout: 120 * time.Second}

	if !formReachable(client, baseURL) {
		pp.Println("The form is not reachable at " + baseURL + ". Start it with 'pythia serve'. Exiting.")
		os.Exit(1)
	}

	log.Println("Starting form ask runner...")
	log.Printf("Target: %s", baseURL)
	log.Printf("Total Questions: %d", len(askQuestions))
	log.Printf("Parallel Workers: %d", workerCount)
	log.Printf("Total Iterations: %d", interactionCount)
	log.Printf("Total Requests to be made: %d", len(askQuestions)*interactionCount)
	log.Println("----------------------------------------")

	stats := make(map[string]*questionStats)
	for _, q := range askQuestions {
		stats[q] = &questionStats{}
	}

	for i := 0; i < interactionCount; i++ {
		log.Printf("--- Starting Iteration %d/%d ---", i+1, interactionCount)

		jobs := make(chan job, len(askQuestions))
		results := make(chan result, len(askQuestions))

		for w := 0; w < workerCount; w++ {
			go worker(w, baseURL, client, jobs, results)
		}

		for _, q := range askQuestions {
			jobs <- job{question: q}
		}
		close(jobs)

		for k := 0; k < len(askQuestions); k++ {
			res := <-results

			st := stats[res.question]
			st.Attempts++
			st.TotalMs += res.elapsed.Milliseconds()
			if res.success {
				st.Successes++
			}
			if res.passageCount > 0 {
				st.Grounded++
			}

			if len(res.rawResponse) > 0 {
				if err := captureResponse(respFile, res); err != nil {
					log.Printf("ERROR: Failed to capture response for %q: %v", res.question, err)
				}
			}

			logline := fmt.Sprintf("[Iter %d] Collected result %d/%d (Question: %q, Status: %d, Passages: %d, Success: %t)",
				i+1, k+1, len(askQuestions), res.question, res.status, res.passageCount, res.success)
			if res.err != nil {
				logline += fmt.Sprintf(" error=%v", res.err)
			}
			if res.success {
				log.Print(successfulResult(logline))
			} else {
				log.Print(failedResult(logline))
			}
		}

		log.Print(successfulResult(fmt.Sprintf("--- Finished Iteration %d/%d ---", i+1, interactionCount)))
		log.Println("----------------------------------------")
	}

	if err := writeReport(outputReportFile, stats); err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}
	log.Printf("Report written to %s", outputReportFile)

	pp.Println(stats)
}

func worker(id int, baseURL string, client *http.Client, jobs <-chan job, results chan<- result) {
	for j := range jobs {
		payload, err := json.Marshal(map[string]string{"query": j.question})
		if err != nil {
			results <- result{question: j.question, err: err}
			continue
		}

		start := time.Now()
		resp, err := client.Post(baseURL+"/api/ask", "application/json", bytes.NewReader(payload))
		if err != nil {
			results <- result{question: j.question, err: err, elapsed: time.Since(start)}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		res := result{
			question:    j.question,
			status:      resp.StatusCode,
			elapsed:     time.Since(start),
			rawResponse: body,
			err:         readErr,
		}
		if resp.StatusCode == http.StatusOK && readErr == nil {
			var parsed askResponse
			if err := json.Unmarshal(body, &parsed); err == nil && strings.TrimSpace(parsed.Answer) != "" {
				res.success = true
				res.passageCount = parsed.PassageCount
			}
		}
		results <- res
	}
}

func formReachable(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/healthz")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func baseURLFromAddress(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return strings.TrimRight(addr, "/")
	}
	return "http://" + addr
}

func createCaptureFile(path string) (*os.File, error) {
	dir := getDir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
}

// captureResponse appends one JSONL line with the question and the raw body.
func captureResponse(file *os.File, res result) error {
	line, err := json.Marshal(map[string]any{
		"question": res.question,
		"status":   res.status,
		"body":     res.rawResponse,
	})
	if err != nil {
		return err
	}
	if _, err := file.Write(append(line, '\n')); err != nil {
		return err
	}
	return nil
}

func writeReport(path string, stats map[string]*questionStats) error {
	dir := getDir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func getDir(path string) string {
	return filepath.Dir(path)
}
