package inference

import (
	"PotholeGolang/internal/entity"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/net/context"
)

// IInference is the detection-model collaborator. The model itself runs in a
// separate inference service; this client ships image bytes over a websocket
// and receives raw bounding boxes plus an optional annotated render back.
type IInference interface {
	Detect(ctx context.Context, image []byte, opts DetectOptions) (*Result, error)
	IsConnected() bool
	Reconnect() error
	ModelClasses() []string
	Close()
}

type DetectOptions struct {
	Confidence       float64 `json:"confidence"`
	ImageSize        int     `json:"image_size"`
	IncludeAnnotated bool    `json:"include_annotated"`
}

type Result struct {
	Detections     []entity.RawDetection `json:"detections"`
	AnnotatedImage string                `json:"annotated_image,omitempty"`
	ModelClasses   []string              `json:"model_classes,omitempty"`
	Error          string                `json:"error,omitempty"`
}

type wsClient struct {
	conn         *websocket.Conn
	mu           sync.Mutex
	url          string
	classes      []string
	pingInterval time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func NewClient() IInference {
	client := &wsClient{
		url:          os.Getenv("INFERENCE_WS_URL"),
		pingInterval: 30 * time.Second,
		readTimeout:  30 * time.Second,
		writeTimeout: 5 * time.Second,
	}

	go func() {
		if err := client.Reconnect(); err != nil {
			log.Printf("Initial connection to inference service failed: %v. Will retry on demand.", err)
		} else {
			log.Printf("Successfully connected to inference service")
		}
	}()

	return client
}

func (c *wsClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

func (c *wsClient) ModelClasses() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.classes
}

func (c *wsClient) Reconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	if c.url == "" {
		return errors.New("INFERENCE_WS_URL not configured")
	}

	dialer := websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.Dial(c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.url, err)
	}

	conn.SetPingHandler(func(appData string) error {
		err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(c.writeTimeout))
		if err != nil {
			log.Printf("Error sending pong: %v", err)
		}
		return nil
	})

	// the service announces its class labels right after the handshake
	var hello struct {
		ModelClasses []string `json:"model_classes"`
	}
	conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	if err := conn.ReadJSON(&hello); err == nil {
		c.classes = hello.ModelClasses
	}
	conn.SetReadDeadline(time.Time{})

	c.conn = conn
	go c.keepAlive()

	return nil
}

func (c *wsClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// Detect performs one request/response exchange: a JSON options frame, one
// binary image frame, then a JSON result frame. The exchange is serialized
// on the single connection.
func (c *wsClient) Detect(ctx context.Context, image []byte, opts DetectOptions) (*Result, error) {
	c.mu.Lock()
	if c.conn == nil {
		c.mu.Unlock()
		if err := c.Reconnect(); err != nil {
			return nil, err
		}
		c.mu.Lock()
	}
	// the connection can be torn down between Reconnect returning and the
	// re-lock, so it must be checked again
	if c.conn == nil {
		c.mu.Unlock()
		return nil, errors.New("inference connection closed before request could start")
	}
	conn := c.conn
	defer c.mu.Unlock()

	deadline := time.Now().Add(c.readTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return nil, err
	}
	if err := conn.WriteJSON(opts); err != nil {
		c.dropConnLocked()
		return nil, fmt.Errorf("write detect options: %w", err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, image); err != nil {
		c.dropConnLocked()
		return nil, fmt.Errorf("write image frame: %w", err)
	}

	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}

	var result Result
	if err := conn.ReadJSON(&result); err != nil {
		c.dropConnLocked()
		return nil, fmt.Errorf("read detection result: %w", err)
	}
	conn.SetReadDeadline(time.Time{})

	if result.Error != "" {
		return nil, fmt.Errorf("inference service error: %s", result.Error)
	}

	if len(result.ModelClasses) > 0 {
		c.classes = result.ModelClasses
	}

	return &result, nil
}

// dropConnLocked marks the connection dead after an I/O failure so the next
// call redials. Caller holds c.mu.
func (c *wsClient) dropConnLocked() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *wsClient) keepAlive() {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		conn := c.conn
		if conn == nil {
			c.mu.Unlock()
			return
		}

		err := conn.WriteControl(
			websocket.PingMessage,
			[]byte{},
			time.Now().Add(c.writeTimeout),
		)

		if err != nil {
			log.Printf("Ping to inference service failed, marking connection as dead: %v", err)
			conn.Close()
			c.conn = nil
			c.mu.Unlock()
			return
		}

		c.mu.Unlock()
	}
}
