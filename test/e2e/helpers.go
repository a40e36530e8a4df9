//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/descubra-ms/guata/internal/api/handlers"
	"github.com/descubra-ms/guata/internal/cli/admin"
	"github.com/descubra-ms/guata/internal/config"
	"github.com/descubra-ms/guata/internal/jobs"
	"github.com/descubra-ms/guata/internal/server"
	"github.com/descubra-ms/guata/internal/storage"
	"github.com/descubra-ms/guata/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap/zaptest"
)

const (
	knowledgeBucket = "e2e-knowledge"
	knowledgeKey    = "knowledge/guata.yaml"
)

// knowledgeYAML is uploaded to object storage and must win over the
// embedded default.
const knowledgeYAML = `entries:
  - id: grutas_bonito
    keywords: [bonito, gruta, lago azul]
    confidence: high
    content:
      type: attractions
      data:
        - name: Gruta do Lago Azul
          info: Visita guiada com agendamento obrigatório
  - id: rota_bioceanica
    keywords: [rota, bioceânica, porto murtinho]
    confidence: medium
    content:
      type: route_info
      data: Corredor rodoviário ligando Campo Grande aos portos do Pacífico.
`

// ragAnswer is returned by the fake RAG backend for bioparque questions.
const ragAnswer = "O Bioparque Pantanal abre de terça a sábado com entrada gratuita."

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	PostgresC    *testutil.PostgresContainer
	RustFSC      *testutil.RustFSContainer
	Pool         *pgxpool.Pool
	RAGServer    *httptest.Server
	App          *admin.App
	ServerURL    string
	ServerCloser func()
	S3Client     *storage.S3Client
	BinaryDir    string
	ConfigHome   string
	HTTPClient   *http.Client
}

// SetupE2EEnv creates a full E2E test environment with containers and server
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	s3C := testutil.NewRustFSContainer(ctx, t)

	// Migrations run here so the app does not depend on the working directory.
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        s3C.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     testutil.RustFSAccessKey,
		SecretAccessKey: testutil.RustFSSecretKey,
		Bucket:          knowledgeBucket,
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("failed to create S3 client: %v", err)
	}
	if err := s3Client.EnsureBucket(ctx); err != nil {
		t.Fatalf("failed to create bucket: %v", err)
	}
	if err := s3Client.PutObject(ctx, knowledgeKey, []byte(knowledgeYAML), "application/yaml"); err != nil {
		t.Fatalf("failed to upload knowledge: %v", err)
	}

	ragServer := newFakeRAG()

	cfg := &config.Config{
		Environment:         "test",
		DatabaseURL:         pgC.ConnectionString(),
		RAGURL:              ragServer.URL,
		RAGTimeout:          2 * time.Second,
		StateCode:           "MS",
		SearchTimeout:       2 * time.Second,
		LLMProvider:         config.ProviderGemini,
		LLMTimeout:          2 * time.Second,
		CacheSize:           10,
		ResolveTimeout:      10 * time.Second,
		KnowledgeS3Key:      knowledgeKey,
		S3Endpoint:          s3C.Endpoint(),
		S3AccessKey:         testutil.RustFSAccessKey,
		S3SecretKey:         testutil.RustFSSecretKey,
		S3Bucket:            knowledgeBucket,
		S3Region:            "us-east-1",
		RecordFlushInterval: 100 * time.Millisecond,
		RecordQueueSize:     32,
	}

	app, err := admin.BuildApp(ctx, cfg, zaptest.NewLogger(t), admin.BuildOptions{Store: true})
	if err != nil {
		t.Fatalf("failed to build app: %v", err)
	}

	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}

	serverURL, serverCloser := startServer(t, app, port)

	return &E2ETestEnv{
		T:            t,
		Ctx:          ctx,
		PostgresC:    pgC,
		RustFSC:      s3C,
		Pool:         pool,
		RAGServer:    ragServer,
		App:          app,
		ServerURL:    serverURL,
		ServerCloser: serverCloser,
		S3Client:     s3Client,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup stops the server and the fake RAG backend. Containers and the
// pool are released by the testing cleanup hooks.
func (e *E2ETestEnv) Cleanup() {
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.App != nil {
		e.App.Close()
	}
	if e.RAGServer != nil {
		e.RAGServer.Close()
	}
	if e.BinaryDir != "" {
		os.RemoveAll(e.BinaryDir)
	}
}

// newFakeRAG answers only questions about the bioparque.
func newFakeRAG() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Question string `json:"question"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		w.Header().Set("Content-Type", "application/json")
		if !strings.Contains(strings.ToLower(req.Question), "bioparque") {
			_, _ = w.Write([]byte(`{"answer": ""}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"answer":     ragAnswer,
			"confidence": 0.9,
			"sources":    []any{map[string]string{"title": "Bioparque Pantanal"}},
		})
	}))
}

// BuildBinaries builds the guata CLI binary
func (e *E2ETestEnv) BuildBinaries() {
	tmpDir, err := os.MkdirTemp("", "guata-e2e-*")
	if err != nil {
		e.T.Fatalf("failed to create temp dir: %v", err)
	}
	e.BinaryDir = tmpDir
	e.ConfigHome = filepath.Join(tmpDir, "config")

	cmd := exec.Command("go", "build", "-o", filepath.Join(tmpDir, "guata"), "./cmd/guata")
	cmd.Dir = "../.."
	if out, err := cmd.CombinedOutput(); err != nil {
		e.T.Fatalf("failed to build guata: %v\n%s", err, out)
	}
}

// RunGuata runs the guata CLI against the test server with an isolated
// config directory.
func (e *E2ETestEnv) RunGuata(args ...string) (string, error) {
	cmd := exec.Command(filepath.Join(e.BinaryDir, "guata"), args...)
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("GUATA_API_URL=%s", e.ServerURL),
		fmt.Sprintf("XDG_CONFIG_HOME=%s", e.ConfigHome),
	)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// APIResponse represents a standard API response
type APIResponse struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error,omitempty"`
}

// Get performs a GET request
func (e *E2ETestEnv) Get(path string) (*APIResponse, error) {
	return e.doRequest("GET", path, nil)
}

// Post performs a POST request
func (e *E2ETestEnv) Post(path string, body interface{}) (*APIResponse, error) {
	return e.doRequest("POST", path, body)
}

// Ask posts a question and decodes the answer.
func (e *E2ETestEnv) Ask(question, sessionID string) (*handlers.AskResponse, error) {
	resp, err := e.Post("/v1/ask", handlers.AskRequest{Question: question, SessionID: sessionID, UserID: "e2e-user"})
	if err != nil {
		return nil, err
	}
	var out handlers.AskResponse
	if err := json.Unmarshal(resp.Data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse ask response: %w", err)
	}
	return &out, nil
}

func (e *E2ETestEnv) doRequest(method, path string, body interface{}) (*APIResponse, error) {
	url := e.ServerURL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
		}
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiResp.Error)
	}

	return &apiResp, nil
}

// startServer starts the HTTP server and the turn recording worker
func startServer(t *testing.T, app *admin.App, port int) (string, func()) {
	workerCtx, cancelWorker := context.WithCancel(context.Background())
	worker := jobs.NewWorker(app.Recorder, app.Config.RecordFlushInterval, app.Logger)
	go worker.Start(workerCtx)

	router := server.NewRouter(server.RouterConfig{
		Logger:           app.Logger,
		AskHandler:       handlers.NewAskHandler(app.Resolver),
		SessionHandler:   handlers.NewSessionHandler(app.TurnLister()),
		KnowledgeHandler: handlers.NewKnowledgeHandler(app.Index, app.Classifier),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := fmt.Sprintf("http://localhost:%d", port)
	waitForServer(t, serverURL, 10*time.Second)

	return serverURL, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
		worker.Stop()
		cancelWorker()
	}
}

func waitForServer(t *testing.T, url string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server did not start within %v", timeout)
}

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}
	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
