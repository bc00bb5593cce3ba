package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

const defaultAPIBase = "http://localhost:8080"

var (
	apiBase       string
	token         string
	smokeUser     string
	client        = &http.Client{Timeout: 30 * time.Second}
	createdPlanID string
	anchorDate    string
)

func main() {
	fmt.Println("=== Mealplan Hub E2E Smoke Test ===")
	fmt.Println()

	apiBase = getEnv("API_BASE_URL", defaultAPIBase)
	token = getEnv("SMOKE_TOKEN", "")
	smokeUser = getEnv("SMOKE_USER_ID", fmt.Sprintf("smoke-%d", time.Now().Unix()))

	fmt.Printf("API Base: %s\n", apiBase)
	fmt.Printf("Token: %s\n", maskString(token))
	fmt.Printf("User: %s\n", smokeUser)
	fmt.Println()

	// Anchor far in the future so the sweep never retires the smoke plan
	// mid-run, and far from any real user's plans.
	anchorDate = time.Now().UTC().AddDate(1, 0, 0).Format("2006-01-02")

	steps := []struct {
		name string
		fn   func() error
	}{
		{"Healthz", testHealthz},
		{"Create Plan", testCreatePlan},
		{"List Plans", testListPlans},
		{"Window Conflict Rejected", testWindowConflict},
		{"Date Collision Rejected", testDateCollision},
		{"Update Plan Entries", testUpdatePlan},
		{"Trigger Expiry Sweep", testTriggerSweep},
		{"Delete Plan", testDeletePlan},
		{"Deleted Plan Gone", testDeletedPlanGone},
	}

	failed := false
	for i, step := range steps {
		fmt.Printf("[%d/%d] %s... ", i+1, len(steps), step.name)
		if err := step.fn(); err != nil {
			fmt.Printf("❌ FAILED\n")
			fmt.Printf("  Error: %v\n\n", err)
			failed = true
			break
		}
		fmt.Printf("✅ OK\n")
	}

	fmt.Println()
	if failed {
		cleanup()
		fmt.Println("❌ SMOKE TEST FAILED")
		os.Exit(1)
	}

	fmt.Println("✅ ALL SMOKE TESTS PASSED")
}

type planPayload struct {
	StartDate string         `json:"start_date,omitempty"`
	Entries   []entryPayload `json:"entries"`
}

type entryPayload struct {
	Date     string `json:"date"`
	RecipeID string `json:"recipe_id"`
}

type planResponse struct {
	ID        string `json:"id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Status    string `json:"status"`
}

func testHealthz() error {
	resp, err := doRequest("GET", "/healthz", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return expectStatus(resp, http.StatusOK)
}

func testCreatePlan() error {
	payload := planPayload{
		StartDate: anchorDate,
		Entries: []entryPayload{
			{Date: anchorDate, RecipeID: "smoke-recipe-1"},
			{Date: addDays(anchorDate, 2), RecipeID: "smoke-recipe-2"},
		},
	}

	resp, err := doRequest("POST", "/v1/mealplans", payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := expectStatus(resp, http.StatusCreated); err != nil {
		return err
	}

	var plan planResponse
	if err := json.NewDecoder(resp.Body).Decode(&plan); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if plan.ID == "" {
		return fmt.Errorf("no plan id in response")
	}
	if plan.Status != "pending" {
		return fmt.Errorf("expected status pending, got %q", plan.Status)
	}
	if plan.StartDate != anchorDate {
		return fmt.Errorf("expected start_date %s, got %s", anchorDate, plan.StartDate)
	}

	createdPlanID = plan.ID
	return nil
}

func testListPlans() error {
	resp, err := doRequest("GET", "/v1/mealplans", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := expectStatus(resp, http.StatusOK); err != nil {
		return err
	}

	var list struct {
		Plans []planResponse `json:"plans"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	for _, p := range list.Plans {
		if p.ID == createdPlanID {
			return nil
		}
	}
	return fmt.Errorf("created plan %s not present in list", createdPlanID)
}

func testWindowConflict() error {
	// Anchored 3 days after the existing plan: inside its 7-day window.
	payload := planPayload{
		Entries: []entryPayload{
			{Date: addDays(anchorDate, 3), RecipeID: "smoke-recipe-3"},
		},
	}

	resp, err := doRequest("POST", "/v1/mealplans", payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := expectStatus(resp, http.StatusConflict); err != nil {
		return err
	}
	return expectErrorCode(resp, "window_conflict")
}

func testDateCollision() error {
	// Same occupied date, anchored far enough that only the collision fires.
	payload := planPayload{
		StartDate: addDays(anchorDate, -10),
		Entries: []entryPayload{
			{Date: anchorDate, RecipeID: "smoke-recipe-4"},
		},
	}

	resp, err := doRequest("POST", "/v1/mealplans", payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := expectStatus(resp, http.StatusConflict); err != nil {
		return err
	}
	return expectErrorCode(resp, "date_collision")
}

func testUpdatePlan() error {
	payload := struct {
		Entries []entryPayload `json:"entries"`
	}{
		Entries: []entryPayload{
			{Date: addDays(anchorDate, 1), RecipeID: "smoke-recipe-5"},
			{Date: addDays(anchorDate, 4), RecipeID: "smoke-recipe-6"},
		},
	}

	resp, err := doRequest("PATCH", "/v1/mealplans/"+createdPlanID, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := expectStatus(resp, http.StatusOK); err != nil {
		return err
	}

	var plan planResponse
	if err := json.NewDecoder(resp.Body).Decode(&plan); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if plan.StartDate != anchorDate {
		return fmt.Errorf("start_date moved on update: %s", plan.StartDate)
	}
	if plan.EndDate != addDays(anchorDate, 4) {
		return fmt.Errorf("expected end_date %s, got %s", addDays(anchorDate, 4), plan.EndDate)
	}
	return nil
}

func testTriggerSweep() error {
	resp, err := doRequest("POST", "/v1/mealplans/sweep", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := expectStatus(resp, http.StatusOK); err != nil {
		return err
	}

	var sweep struct {
		Updated int `json:"updated"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&sweep); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	// The smoke plan is anchored a year ahead; it must survive the sweep.
	resp2, err := doRequest("GET", "/v1/mealplans", nil)
	if err != nil {
		return err
	}
	defer resp2.Body.Close()

	var list struct {
		Plans []planResponse `json:"plans"`
	}
	if err := json.NewDecoder(resp2.Body).Decode(&list); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	for _, p := range list.Plans {
		if p.ID == createdPlanID && p.Status != "pending" {
			return fmt.Errorf("future plan retired by sweep: status=%s", p.Status)
		}
	}
	return nil
}

func testDeletePlan() error {
	resp, err := doRequest("DELETE", "/v1/mealplans/"+createdPlanID, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := expectStatus(resp, http.StatusNoContent); err != nil {
		return err
	}
	createdPlanID = ""
	return nil
}

func testDeletedPlanGone() error {
	resp, err := doRequest("GET", "/v1/mealplans", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := expectStatus(resp, http.StatusOK); err != nil {
		return err
	}

	var list struct {
		Plans []planResponse `json:"plans"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if len(list.Plans) != 0 {
		return fmt.Errorf("expected empty list, got %d plans", len(list.Plans))
	}
	return nil
}

// cleanup removes the smoke plan if a step failed mid-run.
func cleanup() {
	if createdPlanID == "" {
		return
	}
	resp, err := doRequest("DELETE", "/v1/mealplans/"+createdPlanID, nil)
	if err != nil {
		fmt.Printf("cleanup: failed to delete plan %s: %v\n", createdPlanID, err)
		return
	}
	resp.Body.Close()
}

// ---- helpers ----

func doRequest(method, path string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, apiBase+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	addAuth(req)

	return client.Do(req)
}

func addAuth(req *http.Request) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
		return
	}
	req.Header.Set("X-User-ID", smokeUser)
}

func expectStatus(resp *http.Response, want int) error {
	if resp.StatusCode == want {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("status=%d (want %d) body=%s", resp.StatusCode, want, string(body))
}

func expectErrorCode(resp *http.Response, want string) error {
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode error body: %w", err)
	}
	if body.Error.Code != want {
		return fmt.Errorf("expected error code %q, got %q", want, body.Error.Code)
	}
	return nil
}

func addDays(date string, days int) string {
	d, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		return date
	}
	return d.AddDate(0, 0, days).Format("2006-01-02")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func maskString(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
