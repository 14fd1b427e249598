package loki

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"github.com/go-playground/validator/v10"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"
)

type Logger interface {
	Error(msg string, args ...any)
}

type Config struct {

	// TenantKey and TenantValue set a tenant header for multi-tenant Loki setups.
	// Both are optional.
	TenantKey   string
	TenantValue string

	// Url of the push endpoint, e.g. https://example-prod.grafana.net/loki/api/v1/push
	Url string `validate:"required,url"`

	// BatchMaxSize is the maximum number of log lines sent in one request
	BatchMaxSize int `validate:"gte=1"`

	// BatchMaxWait is the maximum time a line waits before being sent
	BatchMaxWait time.Duration `validate:"gte=1"`

	// Labels are added to every stream. The level label is added per entry.
	Labels map[string]string

	// Username and Password enable basic auth when both are set.
	Username string
	Password string
}

func (cfg *Config) setDefaults() {
	if cfg.BatchMaxSize == 0 {
		cfg.BatchMaxSize = 500
	}
	if cfg.BatchMaxWait == 0 {
		cfg.BatchMaxWait = 5 * time.Second
	}
	if cfg.Labels == nil {
		cfg.Labels = map[string]string{}
	}
}

type LogEntry struct {
	Level   string            `json:"level"`
	Message string            `json:"msg"`
	Caller  string            `json:"caller,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	time    time.Time
}

type pushRequest struct {
	Streams []stream `json:"streams"`
}

type stream struct {
	Stream map[string]string `json:"stream"`
	Values [][2]string       `json:"values"`
}

// Pusher batches entries in memory and ships them to Loki from a single
// goroutine, one stream per log level.
type Pusher struct {
	config  Config
	client  *http.Client
	logger  Logger
	entries chan LogEntry
	batch   map[string][][2]string
	size    int
	cancel  context.CancelFunc
	done    sync.WaitGroup
	once    sync.Once
}

func New(ctx context.Context, cfg Config, logger Logger) (*Pusher, error) {

	cfg.setDefaults()
	if err := validator.New().Struct(cfg); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	p := &Pusher{
		config:  cfg,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
		entries: make(chan LogEntry, cfg.BatchMaxSize),
		batch:   make(map[string][][2]string),
		cancel:  cancel,
	}

	p.done.Add(1)
	go p.run(ctx)
	return p, nil
}

// Push queues an entry. It never blocks the caller: entries are dropped when
// the buffer is full.
func (p *Pusher) Push(e LogEntry) error {
	e.time = time.Now()
	select {
	case p.entries <- e:
		return nil
	default:
		return fmt.Errorf("loki buffer is full, entry dropped")
	}
}

// Stop flushes what is buffered and stops the pusher.
func (p *Pusher) Stop() {
	p.once.Do(func() {
		p.cancel()
		p.done.Wait()
	})
}

func (p *Pusher) run(ctx context.Context) {
	defer p.done.Done()

	ticker := time.NewTicker(p.config.BatchMaxWait)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.drain()
			p.flush()
			return
		case entry := <-p.entries:
			p.add(entry)
			if p.size >= p.config.BatchMaxSize {
				p.flush()
			}
		case <-ticker.C:
			p.flush()
		}
	}
}

func (p *Pusher) drain() {
	for {
		select {
		case entry := <-p.entries:
			p.add(entry)
		default:
			return
		}
	}
}

func (p *Pusher) add(entry LogEntry) {
	line, err := json.Marshal(entry)
	if err != nil {
		return
	}
	timestamp := strconv.FormatInt(entry.time.UnixNano(), 10)
	p.batch[entry.Level] = append(p.batch[entry.Level], [2]string{timestamp, string(line)})
	p.size++
}

func (p *Pusher) flush() {
	if p.size == 0 {
		return
	}
	if err := p.send(p.buildRequest()); err != nil {
		p.logger.Error("failed to send logs to loki", "error", err)
	}
	p.batch = make(map[string][][2]string)
	p.size = 0
}

func (p *Pusher) buildRequest() pushRequest {
	request := pushRequest{Streams: make([]stream, 0, len(p.batch))}
	for level, values := range p.batch {
		labels := make(map[string]string, len(p.config.Labels)+1)
		for key, value := range p.config.Labels {
			labels[key] = value
		}
		labels["level"] = level
		request.Streams = append(request.Streams, stream{Stream: labels, Values: values})
	}
	return request
}

func (p *Pusher) send(request pushRequest) error {
	buf := &bytes.Buffer{}
	gz := gzip.NewWriter(buf)

	if err := json.NewEncoder(gz).Encode(request); err != nil {
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.Url, buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")

	if p.config.TenantKey != "" {
		req.Header.Set(p.config.TenantKey, p.config.TenantValue)
	}
	if p.config.Username != "" && p.config.Password != "" {
		req.SetBasicAuth(p.config.Username, p.config.Password)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("received unexpected response code from Loki: %s, body: %s", resp.Status, string(body))
	}

	return nil
}
