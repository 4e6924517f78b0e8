// Package testutil provides testing utilities for the border gates service.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// MockUpstream is a configurable stand-in for the upstream border gates
// page. By default it serves an HTML document whose first table contains
// the configured rows, the shape the production parser expects.
type MockUpstream struct {
	server *httptest.Server

	mu         sync.Mutex
	rows       [][]string
	statusCode int
	body       string // overrides the generated page when non-empty
	delay      time.Duration

	// RequestCount is the number of requests served so far.
	RequestCount int

	// LastQuery holds the query parameters of the most recent request.
	LastQuery map[string]string

	// LastHeader holds the headers of the most recent request.
	LastHeader http.Header
}

// NewMockUpstream starts a mock upstream server. Call Close when done.
func NewMockUpstream() *MockUpstream {
	mock := &MockUpstream{
		statusCode: http.StatusOK,
	}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))
	return mock
}

// URL returns the mock server's base URL.
func (m *MockUpstream) URL() string {
	return m.server.URL
}

// Close shuts the server down.
func (m *MockUpstream) Close() {
	m.server.Close()
}

// SetRows configures the table rows served by the generated page.
func (m *MockUpstream) SetRows(rows [][]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = rows
	m.body = ""
}

// SetStatus makes the server respond with the given status code.
func (m *MockUpstream) SetStatus(code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusCode = code
}

// SetBody serves a fixed body instead of the generated table page.
func (m *MockUpstream) SetBody(body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.body = body
}

// SetDelay makes the server sleep before answering, for timeout tests.
func (m *MockUpstream) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// Requests returns the number of requests served so far.
func (m *MockUpstream) Requests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.RequestCount
}

func (m *MockUpstream) handle(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.RequestCount++
	m.LastHeader = r.Header.Clone()
	m.LastQuery = map[string]string{}
	for k, vs := range r.URL.Query() {
		if len(vs) > 0 {
			m.LastQuery[k] = vs[0]
		}
	}
	status := m.statusCode
	body := m.body
	rows := m.rows
	delay := m.delay
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	if status != http.StatusOK {
		w.WriteHeader(status)
		fmt.Fprint(w, http.StatusText(status))
		return
	}

	if body == "" {
		body = BuildPage(rows)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, body)
}

// BuildPage renders an HTML page resembling the upstream one: a header
// row using <th>, the given data rows as <td> cells, and one decorative
// blank row that parsers must discard.
func BuildPage(rows [][]string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><head><title>Sınır Kapıları</title></head><body>")
	b.WriteString("<div class=\"content\"><table>")
	b.WriteString("<tr><th>Kapı</th><th>Ülke</th><th>Yoğunluk</th><th>Bekleme</th><th>Güncelleme</th></tr>")
	for _, row := range rows {
		b.WriteString("<tr>")
		for _, cell := range row {
			b.WriteString("<td>" + cell + "</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("<tr><td> </td><td></td><td></td><td></td><td></td></tr>")
	b.WriteString("</table></div></body></html>")
	return b.String()
}
