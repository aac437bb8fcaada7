package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// getBaseURL returns the base URL for API calls.
// Uses SENTINEL_BASE_URL env var if set (for container tests),
// otherwise defaults to localhost:8080.
func getBaseURL() string {
	if url := os.Getenv("SENTINEL_BASE_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

// httpClient creates an HTTP client with sensible defaults.
func httpClient() *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
	}
}

// doRequest performs an HTTP request and returns the response.
func doRequest(method, path string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(data)
	}

	url := getBaseURL() + path
	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return httpClient().Do(req)
}

// parseResponse parses JSON response into target.
func parseResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(target)
}

// envelope mirrors the API response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

var _ = Describe("HTTP Management API", Ordered, func() {
	var createdRuleIDs []string

	BeforeAll(func() {
		// Check if the server is reachable
		resp, err := doRequest("GET", "/healthz", nil)
		if err != nil {
			Skip(fmt.Sprintf("Server not reachable at %s: %v", getBaseURL(), err))
		}
		resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
	})

	AfterAll(func() {
		for _, id := range createdRuleIDs {
			_, _ = doRequest("DELETE", "/v1/rules/"+id, nil)
		}
	})

	It("creates, fetches, and deletes a rule", func() {
		rule := map[string]interface{}{
			"id":          "it_queue_high",
			"name":        "IT queue backlog high",
			"metric_name": "mobigen_queue_size",
			"condition":   "gt",
			"threshold":   500,
			"severity":    "warning",
		}

		resp, err := doRequest("POST", "/v1/rules", rule)
		Expect(err).NotTo(HaveOccurred())
		createdRuleIDs = append(createdRuleIDs, "it_queue_high")

		var created envelope
		Expect(parseResponse(resp, &created)).To(Succeed())
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))
		Expect(created.Success).To(BeTrue())

		resp, err = doRequest("GET", "/v1/rules/it_queue_high", nil)
		Expect(err).NotTo(HaveOccurred())
		var fetched envelope
		Expect(parseResponse(resp, &fetched)).To(Succeed())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		var got map[string]interface{}
		Expect(json.Unmarshal(fetched.Data, &got)).To(Succeed())
		Expect(got["id"]).To(Equal("it_queue_high"))
		Expect(got["threshold"]).To(BeNumerically("==", 500))

		resp, err = doRequest("DELETE", "/v1/rules/it_queue_high", nil)
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
	})

	It("rejects an invalid rule", func() {
		rule := map[string]interface{}{
			"id":          "it_invalid",
			"name":        "IT invalid",
			"metric_name": "mobigen_queue_size",
			"condition":   "between",
			"threshold":   1,
			"severity":    "warning",
		}

		resp, err := doRequest("POST", "/v1/rules", rule)
		Expect(err).NotTo(HaveOccurred())

		var body envelope
		Expect(parseResponse(resp, &body)).To(Succeed())
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		Expect(body.Success).To(BeFalse())
		Expect(body.Error.Code).To(Equal("VALIDATION_FAILED"))
	})

	It("runs a manual check and reports monitor status", func() {
		resp, err := doRequest("POST", "/v1/monitor/check", nil)
		Expect(err).NotTo(HaveOccurred())
		var check envelope
		Expect(parseResponse(resp, &check)).To(Succeed())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(check.Success).To(BeTrue())

		resp, err = doRequest("GET", "/v1/monitor/status", nil)
		Expect(err).NotTo(HaveOccurred())
		var status envelope
		Expect(parseResponse(resp, &status)).To(Succeed())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
	})

	It("serves alert history and statistics", func() {
		resp, err := doRequest("GET", "/v1/alerts", nil)
		Expect(err).NotTo(HaveOccurred())
		var alerts envelope
		Expect(parseResponse(resp, &alerts)).To(Succeed())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(alerts.Success).To(BeTrue())

		resp, err = doRequest("GET", "/v1/alerts/statistics", nil)
		Expect(err).NotTo(HaveOccurred())
		var stats envelope
		Expect(parseResponse(resp, &stats)).To(Succeed())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
	})

	It("exposes prometheus metrics", func() {
		resp, err := doRequest("GET", "/metrics", nil)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(body)).To(ContainSubstring("sentinel_"))
	})
})
