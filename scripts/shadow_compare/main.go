// Command shadow_compare replays read-only requests against the Go API and the
// legacy Node backend and reports status/body differences. Used while the two
// run side by side during the migration.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"reflect"
	"strings"
	"time"
)

type target struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Critical bool   `json:"critical"`
}

type targetsFile struct {
	Targets []target `json:"targets"`
}

// defaultTargets covers the public surface plus the endpoints the hostel
// office reads all day. Overridable with -targets.
var defaultTargets = []target{
	{Method: "GET", Path: "/health", Critical: true},
	{Method: "GET", Path: "/api/public/hostels", Critical: true},
	{Method: "GET", Path: "/api/public/hostels/Porali/roster", Critical: true},
	{Method: "GET", Path: "/api/public/hostels/Magsi/roster", Critical: true},
	{Method: "GET", Path: "/api/hostels", Critical: true},
	{Method: "GET", Path: "/api/students", Critical: true},
	{Method: "GET", Path: "/api/challans", Critical: false},
	{Method: "GET", Path: "/api/dashboard", Critical: false},
}

// volatileKeys differ legitimately between the two backends and are stripped
// before comparison.
var volatileKeys = map[string]bool{
	"id":          true,
	"createdAt":   true,
	"updatedAt":   true,
	"issuedAt":    true,
	"paidAt":      true,
	"requestId":   true,
	"generatedAt": true,
}

type result struct {
	Target       target
	GoStatus     int
	LegacyStatus int
	StatusMatch  bool
	BodyMatch    bool
	Err          error
	GoDuration   time.Duration
	NodeDuration time.Duration
}

func main() {
	var (
		goBase      string
		legacyBase  string
		targetsPath string
		token       string
		timeout     time.Duration
	)

	flag.StringVar(&goBase, "go-base", "http://localhost:8080", "Go API base URL")
	flag.StringVar(&legacyBase, "legacy-base", "http://localhost:5000", "legacy Node API base URL")
	flag.StringVar(&targetsPath, "targets", "", "optional JSON targets file")
	flag.StringVar(&token, "token", "", "bearer token for authenticated endpoints")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	targets := defaultTargets
	if targetsPath != "" {
		loaded, err := loadTargets(targetsPath)
		if err != nil {
			log.Fatalf("failed to load targets: %v", err)
		}
		targets = loaded
	}

	client := &http.Client{Timeout: timeout}
	var (
		results  []result
		breaking int
		minor    int
	)

	for _, t := range targets {
		res := compare(client, goBase, legacyBase, token, t)
		if res.Err != nil || !res.StatusMatch || !res.BodyMatch {
			if t.Critical {
				breaking++
			} else {
				minor++
			}
		}
		results = append(results, res)
	}

	printReport(results)
	fmt.Printf("Breaking diffs: %d, minor diffs: %d\n", breaking, minor)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f targetsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if len(f.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return f.Targets, nil
}

func compare(client *http.Client, goBase, legacyBase, token string, tgt target) result {
	res := result{Target: tgt}

	goResp, goDur, err := request(client, goBase, token, tgt)
	if err != nil {
		res.Err = fmt.Errorf("go request failed: %w", err)
		return res
	}
	defer goResp.Body.Close()
	legacyResp, nodeDur, err := request(client, legacyBase, token, tgt)
	if err != nil {
		res.Err = fmt.Errorf("legacy request failed: %w", err)
		return res
	}
	defer legacyResp.Body.Close()

	res.GoDuration = goDur
	res.NodeDuration = nodeDur
	res.GoStatus = goResp.StatusCode
	res.LegacyStatus = legacyResp.StatusCode
	res.StatusMatch = res.GoStatus == res.LegacyStatus

	goBody, err := io.ReadAll(goResp.Body)
	if err != nil {
		res.Err = fmt.Errorf("read go body: %w", err)
		return res
	}
	legacyBody, err := io.ReadAll(legacyResp.Body)
	if err != nil {
		res.Err = fmt.Errorf("read legacy body: %w", err)
		return res
	}

	res.BodyMatch = bodiesEqual(goBody, legacyBody)
	return res
}

func request(client *http.Client, base, token string, tgt target) (*http.Response, time.Duration, error) {
	if client == nil {
		return nil, 0, errors.New("nil client")
	}
	method := strings.ToUpper(strings.TrimSpace(tgt.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := tgt.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	req, err := http.NewRequest(method, strings.TrimRight(base, "/")+path, nil)
	if err != nil {
		return nil, 0, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	return resp, time.Since(start), nil
}

func bodiesEqual(a, b []byte) bool {
	if bytes.Equal(bytes.TrimSpace(a), bytes.TrimSpace(b)) {
		return true
	}

	var aj, bj interface{}
	if err := json.Unmarshal(a, &aj); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bj); err != nil {
		return false
	}
	normalize(&aj)
	normalize(&bj)
	return reflect.DeepEqual(aj, bj)
}

// normalize strips volatile keys and collapses whole floats so that the two
// backends' JSON encoders compare equal.
func normalize(v *interface{}) {
	switch val := (*v).(type) {
	case map[string]interface{}:
		for k := range val {
			if volatileKeys[k] {
				delete(val, k)
			}
		}
		for k, v2 := range val {
			normalize(&v2)
			val[k] = v2
		}
	case []interface{}:
		for i, v2 := range val {
			normalize(&v2)
			val[i] = v2
		}
	case float64:
		if val == float64(int64(val)) {
			*v = int64(val)
		}
	}
}

func printReport(results []result) {
	fmt.Println("Shadow Compare Report")
	fmt.Println("======================")
	for _, res := range results {
		status := "OK"
		if res.Err != nil {
			status = "ERROR"
		} else if !res.StatusMatch || !res.BodyMatch {
			status = "DIFF"
		}
		fmt.Printf("[%s] %s %s\n", status, res.Target.Method, res.Target.Path)
		if res.Err != nil {
			fmt.Printf("  Error: %v\n", res.Err)
			continue
		}
		fmt.Printf("  Go: %d (%s) | Node: %d (%s)\n", res.GoStatus, res.GoDuration, res.LegacyStatus, res.NodeDuration)
		fmt.Printf("  Status match: %t | Body match: %t | Critical: %t\n", res.StatusMatch, res.BodyMatch, res.Target.Critical)
	}
}
